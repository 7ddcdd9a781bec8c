package file

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/Alijeyrad/formora_backend/internal/form"
	"github.com/Alijeyrad/formora_backend/internal/repo"
)

// URLPrefix is the public API path that serves stored files.
const URLPrefix = form.FileURLPrefix

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

// Service stores files attached to form responses. It satisfies
// form.Uploader.
type Service interface {
	Upload(ctx context.Context, formID string, in form.UploadInput) (form.FileRef, error)
	UploadFile(ctx context.Context, formID string, fh *multipart.FileHeader) (form.FileRef, error)
	DownloadURL(ctx context.Context, key string) (string, error)
	// DeleteForm removes every file uploaded for formID.
	DeleteForm(ctx context.Context, formID string) (int, error)
}

// ObjectStore is satisfied by *s3.Client.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	PresignDownload(ctx context.Context, key string) (string, error)
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

type FormGetter interface {
	GetForm(ctx context.Context, id string) (form.Form, error)
}

var _ form.Uploader = Service(nil)

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type fileService struct {
	forms   FormGetter
	store   ObjectStore
	maxSize int64
}

// New builds the service. maxSizeMB of zero disables the size check. A nil
// store makes every call fail with ErrStorageUnavailable.
func New(forms FormGetter, store ObjectStore, maxSizeMB int) Service {
	return &fileService{forms: forms, store: store, maxSize: int64(maxSizeMB) * humanize.MiByte}
}

func (s *fileService) Upload(ctx context.Context, formID string, in form.UploadInput) (form.FileRef, error) {
	if s.store == nil {
		return form.FileRef{}, ErrStorageUnavailable
	}
	if in.Size <= 0 {
		return form.FileRef{}, ErrEmptyFile
	}
	if s.maxSize > 0 && in.Size > s.maxSize {
		return form.FileRef{}, fmt.Errorf("%w: %s is over the %s limit",
			ErrTooLarge, humanize.IBytes(uint64(in.Size)), humanize.IBytes(uint64(s.maxSize)))
	}

	f, err := s.forms.GetForm(ctx, formID)
	if err != nil {
		if repo.IsNotFound(err) {
			return form.FileRef{}, ErrFormNotFound
		}
		return form.FileRef{}, fmt.Errorf("get form: %w", err)
	}
	if !f.IsActive {
		return form.FileRef{}, ErrFormInactive
	}

	ext := strings.ToLower(filepath.Ext(in.Name))
	key := form.FileKey(f.ID, uuid.NewString()+ext)

	mime := in.ContentType
	if mime == "" {
		mime = "application/octet-stream"
	}
	if err := s.store.Upload(ctx, key, mime, in.Body, in.Size); err != nil {
		return form.FileRef{}, fmt.Errorf("store upload: %w", err)
	}

	return form.FileRef{
		FileID:   key,
		FileName: filepath.Base(in.Name),
		FileURL:  form.FileURL(key),
	}, nil
}

func (s *fileService) UploadFile(ctx context.Context, formID string, fh *multipart.FileHeader) (form.FileRef, error) {
	src, err := fh.Open()
	if err != nil {
		return form.FileRef{}, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	return s.Upload(ctx, formID, form.UploadInput{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        src,
	})
}

func (s *fileService) DownloadURL(ctx context.Context, key string) (string, error) {
	if s.store == nil {
		return "", ErrStorageUnavailable
	}
	if !validKey(key) {
		return "", ErrFileNotFound
	}
	url, err := s.store.PresignDownload(ctx, key)
	if err != nil {
		return "", fmt.Errorf("presign download: %w", err)
	}
	return url, nil
}

func (s *fileService) DeleteForm(ctx context.Context, formID string) (int, error) {
	if s.store == nil {
		return 0, nil
	}
	if _, err := uuid.Parse(formID); err != nil {
		return 0, fmt.Errorf("delete form files: %w", err)
	}
	return s.store.DeletePrefix(ctx, form.FileKey(formID, ""))
}

// validKey accepts only clean keys under uploads/{form_id}/ for a uuid form id.
func validKey(key string) bool {
	rest, ok := strings.CutPrefix(key, form.FileKeyPrefix)
	if !ok {
		return false
	}
	formID, _, _ := strings.Cut(rest, "/")
	if _, err := uuid.Parse(formID); err != nil {
		return false
	}
	return form.ValidFileKey(formID, key)
}
