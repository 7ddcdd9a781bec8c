package response

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Alijeyrad/formora_backend/internal/form"
	"github.com/Alijeyrad/formora_backend/internal/repo"
	"github.com/Alijeyrad/formora_backend/pkg/constants"
	"github.com/Alijeyrad/formora_backend/pkg/crypto"
	"github.com/Alijeyrad/formora_backend/pkg/observability"
)

const (
	defaultPerPage = 50
	maxPerPage     = 500
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type ListRequest struct {
	Page    int
	PerPage int
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

// Service collects submissions and serves them back to the form's owner and
// viewers. Access control for the read side happens in the HTTP layer.
type Service interface {
	// Submit validates raw answers against the form and stores them.
	// Validation failures come back as *form.ValidationError.
	Submit(ctx context.Context, formID string, values map[string]json.RawMessage, sourceAddress string) (form.Response, error)
	List(ctx context.Context, formID string, req ListRequest) ([]form.Response, error)
	Get(ctx context.Context, formID, id string) (form.Response, error)
	Count(ctx context.Context, formID string) (int, error)
	Delete(ctx context.Context, formID, id string) error
	// ExportCSV writes every response of the form to w.
	ExportCSV(ctx context.Context, formID string, w io.Writer) (form.Form, error)
}

// Store is the part of the repo the response service needs.
type Store interface {
	GetForm(ctx context.Context, id string) (form.Form, error)
	CreateResponse(ctx context.Context, r form.Response) (form.Response, error)
	GetResponse(ctx context.Context, id string) (form.Response, error)
	ListResponsesByForm(ctx context.Context, formID string, opts repo.ListOptions) ([]form.Response, error)
	CountResponsesByForm(ctx context.Context, formID string) (int, error)
	DeleteResponse(ctx context.Context, formID, id string) error
}

// Invalidator drops derived data cached for a form.
type Invalidator interface {
	Invalidate(ctx context.Context, formID string) error
}

// Publisher is satisfied by *nats.Conn.
type Publisher interface {
	Publish(subj string, data []byte) error
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type responseService struct {
	store   Store
	box     *crypto.Box
	cache   Invalidator
	nc      Publisher
	metrics *observability.FormMetrics
}

// New builds the service. box may be nil, in which case source addresses
// are not stored.
func New(store Store, box *crypto.Box, cache Invalidator, nc Publisher, metrics *observability.FormMetrics) Service {
	return &responseService{store: store, box: box, cache: cache, nc: nc, metrics: metrics}
}

func (s *responseService) Submit(ctx context.Context, formID string, values map[string]json.RawMessage, sourceAddress string) (form.Response, error) {
	f, err := s.form(ctx, formID)
	if err != nil {
		return form.Response{}, err
	}
	if !f.IsActive {
		s.metrics.ResponseRejected(ctx, "inactive")
		return form.Response{}, ErrFormInactive
	}

	c := form.NewCollector(f)
	if err := c.Fill(values); err != nil {
		s.metrics.ResponseRejected(ctx, "invalid")
		return form.Response{}, err
	}
	resp, err := c.Submit(ctx, &sink{store: s.store, box: s.box, source: sourceAddress})
	if err != nil {
		if errors.Is(err, form.ErrValidation) {
			s.metrics.ResponseRejected(ctx, "invalid")
			return form.Response{}, err
		}
		return form.Response{}, fmt.Errorf("submit response: %w", err)
	}

	s.metrics.ResponseSubmitted(ctx, formID)
	s.invalidate(ctx, formID)
	if s.nc != nil {
		subject := constants.SubjectResponseSubmitted + "." + formID
		if err := s.nc.Publish(subject, []byte(resp.ID)); err != nil {
			slog.Warn("failed to publish response event", "form_id", formID, "err", err)
		}
	}
	resp.SourceAddress = ""
	return resp, nil
}

func (s *responseService) List(ctx context.Context, formID string, req ListRequest) ([]form.Response, error) {
	if _, err := s.form(ctx, formID); err != nil {
		return nil, err
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PerPage < 1 || req.PerPage > maxPerPage {
		req.PerPage = defaultPerPage
	}

	rs, err := s.store.ListResponsesByForm(ctx, formID, repo.ListOptions{
		Limit:  req.PerPage,
		Offset: (req.Page - 1) * req.PerPage,
	})
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	for i := range rs {
		rs[i].SourceAddress = s.reveal(rs[i].SourceAddress)
	}
	return rs, nil
}

func (s *responseService) Get(ctx context.Context, formID, id string) (form.Response, error) {
	r, err := s.store.GetResponse(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return form.Response{}, ErrResponseNotFound
		}
		return form.Response{}, fmt.Errorf("get response: %w", err)
	}
	if r.FormID != formID {
		return form.Response{}, ErrResponseNotFound
	}
	r.SourceAddress = s.reveal(r.SourceAddress)
	return r, nil
}

func (s *responseService) Count(ctx context.Context, formID string) (int, error) {
	if _, err := s.form(ctx, formID); err != nil {
		return 0, err
	}
	n, err := s.store.CountResponsesByForm(ctx, formID)
	if err != nil {
		return 0, fmt.Errorf("count responses: %w", err)
	}
	return n, nil
}

func (s *responseService) Delete(ctx context.Context, formID, id string) error {
	if err := s.store.DeleteResponse(ctx, formID, id); err != nil {
		if repo.IsNotFound(err) {
			return ErrResponseNotFound
		}
		return fmt.Errorf("delete response: %w", err)
	}
	s.invalidate(ctx, formID)
	return nil
}

func (s *responseService) ExportCSV(ctx context.Context, formID string, w io.Writer) (form.Form, error) {
	f, err := s.form(ctx, formID)
	if err != nil {
		return form.Form{}, err
	}
	rs, err := s.store.ListResponsesByForm(ctx, formID, repo.ListOptions{})
	if err != nil {
		return form.Form{}, fmt.Errorf("export responses: %w", err)
	}
	if err := form.WriteCSV(w, f, rs); err != nil {
		return form.Form{}, fmt.Errorf("write csv: %w", err)
	}
	return f, nil
}

func (s *responseService) form(ctx context.Context, id string) (form.Form, error) {
	f, err := s.store.GetForm(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return form.Form{}, ErrFormNotFound
		}
		return form.Form{}, fmt.Errorf("get form: %w", err)
	}
	return f, nil
}

func (s *responseService) invalidate(ctx context.Context, formID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, formID); err != nil {
		slog.Warn("failed to invalidate analytics cache", "form_id", formID, "err", err)
	}
}

// reveal decrypts a stored source address. Rows that do not decrypt are
// shown without one.
func (s *responseService) reveal(stored string) string {
	if stored == "" || s.box == nil {
		return ""
	}
	plain, err := s.box.Decrypt(stored)
	if err != nil {
		slog.Debug("could not decrypt source address", "err", err)
		return ""
	}
	return plain
}

// sink stores a finished submission with its source address sealed.
type sink struct {
	store  Store
	box    *crypto.Box
	source string
}

func (k *sink) SubmitResponse(ctx context.Context, formID string, values form.Values) (form.Response, error) {
	r := form.Response{FormID: formID, Values: values}
	if k.box != nil && k.source != "" {
		sealed, err := k.box.Encrypt(k.source)
		if err != nil {
			return form.Response{}, fmt.Errorf("seal source address: %w", err)
		}
		r.SourceAddress = sealed
	}
	return k.store.CreateResponse(ctx, r)
}
