package form

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/Alijeyrad/formora_backend/internal/form"
	"github.com/Alijeyrad/formora_backend/internal/repo"
	"github.com/Alijeyrad/formora_backend/internal/service/assistant"
	"github.com/Alijeyrad/formora_backend/pkg/authorize"
	"github.com/Alijeyrad/formora_backend/pkg/constants"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type CreateRequest struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Fields      []form.Field `json:"fields"`
	IsActive    bool         `json:"is_active"`
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

// Service owns stored forms. Every mutating call takes the acting user and
// checks the form's casbin domain before touching the row.
type Service interface {
	Create(ctx context.Context, owner uuid.UUID, req CreateRequest) (form.Form, error)
	Get(ctx context.Context, id string) (form.Form, error)
	ListByOwner(ctx context.Context, owner uuid.UUID) ([]form.Form, error)
	Update(ctx context.Context, userID uuid.UUID, id string, p form.FormPatch) (form.Form, error)
	Delete(ctx context.Context, userID uuid.UUID, id string) error

	AddField(ctx context.Context, userID uuid.UUID, id string, t form.FieldType) (form.Form, form.Field, error)
	UpdateField(ctx context.Context, userID uuid.UUID, id, fieldID string, p form.FieldPatch) (form.Form, error)
	RemoveField(ctx context.Context, userID uuid.UUID, id, fieldID string) (form.Form, error)
	ReorderFields(ctx context.Context, userID uuid.UUID, id string, from, to int) (form.Form, error)
	AddOption(ctx context.Context, userID uuid.UUID, id, fieldID string) (form.Form, error)
	UpdateOption(ctx context.Context, userID uuid.UUID, id, fieldID string, index int, value string) (form.Form, error)
	RemoveOption(ctx context.Context, userID uuid.UUID, id, fieldID string, index int) (form.Form, error)

	ShareForm(ctx context.Context, userID uuid.UUID, id, collaboratorEmail string) (repo.User, error)
	Generate(ctx context.Context, prompt string) (form.Form, error)
}

// FormStore is the part of the repo the form service needs.
type FormStore interface {
	CreateForm(ctx context.Context, f form.Form) (form.Form, error)
	GetForm(ctx context.Context, id string) (form.Form, error)
	SaveForm(ctx context.Context, f form.Form) (form.Form, error)
	UpdateForm(ctx context.Context, id string, p form.FormPatch) (form.Form, error)
	DeleteForm(ctx context.Context, id string) error
	ListFormsByOwner(ctx context.Context, ownerID string) ([]form.Form, error)
}

type UserLookup interface {
	GetUserByEmail(ctx context.Context, email string) (repo.User, error)
}

// Invalidator drops derived data cached for a form. The analytics service
// satisfies it.
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

type formService struct {
	forms FormStore
	users UserLookup
	authz authorize.IAuthorization
	ai    assistant.Service
	cache Invalidator
	nc    Publisher
}

func New(forms FormStore, users UserLookup, authz authorize.IAuthorization, ai assistant.Service, cache Invalidator, nc Publisher) Service {
	return &formService{forms: forms, users: users, authz: authz, ai: ai, cache: cache, nc: nc}
}

func (s *formService) Create(ctx context.Context, owner uuid.UUID, req CreateRequest) (form.Form, error) {
	f := form.Form{
		OwnerID:     owner.String(),
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Fields:      req.Fields,
		IsActive:    req.IsActive,
	}
	if f.Fields == nil {
		f.Fields = []form.Field{}
	}
	if err := checkForm(f); err != nil {
		return form.Form{}, err
	}

	created, err := s.forms.CreateForm(ctx, f)
	if err != nil {
		return form.Form{}, fmt.Errorf("create form: %w", err)
	}
	if err := authorize.GrantFormOwner(ctx, s.authz, owner.String(), created.ID); err != nil {
		// Without the grant nobody could edit or delete the row.
		if derr := s.forms.DeleteForm(ctx, created.ID); derr != nil {
			slog.Error("failed to roll back form after grant failure", "form_id", created.ID, "err", derr)
		}
		return form.Form{}, fmt.Errorf("grant form owner: %w", err)
	}
	return created, nil
}

func (s *formService) Get(ctx context.Context, id string) (form.Form, error) {
	f, err := s.forms.GetForm(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return form.Form{}, ErrFormNotFound
		}
		return form.Form{}, fmt.Errorf("get form: %w", err)
	}
	return f, nil
}

func (s *formService) ListByOwner(ctx context.Context, owner uuid.UUID) ([]form.Form, error) {
	forms, err := s.forms.ListFormsByOwner(ctx, owner.String())
	if err != nil {
		return nil, fmt.Errorf("list forms: %w", err)
	}
	return forms, nil
}

func (s *formService) Update(ctx context.Context, userID uuid.UUID, id string, p form.FormPatch) (form.Form, error) {
	cur, err := s.load(ctx, userID, id, authorize.ActionUpdate)
	if err != nil {
		return form.Form{}, err
	}
	if p.Empty() {
		return cur, nil
	}
	if err := checkForm(form.ApplyPatch(cur, p)); err != nil {
		return form.Form{}, err
	}

	f, err := s.forms.UpdateForm(ctx, id, p)
	if err != nil {
		if repo.IsNotFound(err) {
			return form.Form{}, ErrFormNotFound
		}
		return form.Form{}, fmt.Errorf("update form: %w", err)
	}
	s.invalidate(ctx, id)
	return f, nil
}

func (s *formService) Delete(ctx context.Context, userID uuid.UUID, id string) error {
	if _, err := s.load(ctx, userID, id, authorize.ActionDelete); err != nil {
		return err
	}
	if err := s.forms.DeleteForm(ctx, id); err != nil {
		if repo.IsNotFound(err) {
			return ErrFormNotFound
		}
		return fmt.Errorf("delete form: %w", err)
	}
	if err := authorize.RevokeForm(ctx, s.authz, id); err != nil {
		slog.Warn("failed to revoke form grants", "form_id", id, "err", err)
	}

	if s.nc != nil {
		subject := constants.SubjectFormDeleted + "." + id
		if err := s.nc.Publish(subject, []byte(userID.String())); err != nil {
			slog.Warn("failed to publish form deletion", "form_id", id, "err", err)
		}
	}
	return nil
}

// ---- builder ----

func (s *formService) AddField(ctx context.Context, userID uuid.UUID, id string, t form.FieldType) (form.Form, form.Field, error) {
	var added form.Field
	f, err := s.edit(ctx, userID, id, func(cur form.Form) (form.Form, error) {
		next, fd, err := form.AddNewField(cur, t)
		if err != nil {
			return form.Form{}, fmt.Errorf("%w: %w", ErrInvalidForm, err)
		}
		added = fd
		return next, nil
	})
	if err != nil {
		return form.Form{}, form.Field{}, err
	}
	return f, added, nil
}

func (s *formService) UpdateField(ctx context.Context, userID uuid.UUID, id, fieldID string, p form.FieldPatch) (form.Form, error) {
	return s.edit(ctx, userID, id, func(cur form.Form) (form.Form, error) {
		if _, ok := cur.Field(fieldID); !ok {
			return form.Form{}, ErrFieldNotFound
		}
		if p.Type != nil && !p.Type.Valid() {
			return form.Form{}, fmt.Errorf("%w: %w", ErrInvalidForm, form.ErrUnknownFieldType)
		}
		return form.UpdateField(cur, fieldID, p), nil
	})
}

func (s *formService) RemoveField(ctx context.Context, userID uuid.UUID, id, fieldID string) (form.Form, error) {
	return s.edit(ctx, userID, id, func(cur form.Form) (form.Form, error) {
		if _, ok := cur.Field(fieldID); !ok {
			return form.Form{}, ErrFieldNotFound
		}
		return form.RemoveField(cur, fieldID), nil
	})
}

func (s *formService) ReorderFields(ctx context.Context, userID uuid.UUID, id string, from, to int) (form.Form, error) {
	return s.edit(ctx, userID, id, func(cur form.Form) (form.Form, error) {
		n := len(cur.Fields)
		if from < 0 || from >= n || to < 0 || to >= n {
			return form.Form{}, ErrIndexOutOfRange
		}
		return form.ReorderFields(cur, from, to), nil
	})
}

func (s *formService) AddOption(ctx context.Context, userID uuid.UUID, id, fieldID string) (form.Form, error) {
	return s.editOptions(ctx, userID, id, fieldID, nil, func(cur form.Form) form.Form {
		return form.AddOption(cur, fieldID)
	})
}

func (s *formService) UpdateOption(ctx context.Context, userID uuid.UUID, id, fieldID string, index int, value string) (form.Form, error) {
	return s.editOptions(ctx, userID, id, fieldID, &index, func(cur form.Form) form.Form {
		return form.UpdateOption(cur, fieldID, index, value)
	})
}

func (s *formService) RemoveOption(ctx context.Context, userID uuid.UUID, id, fieldID string, index int) (form.Form, error) {
	return s.editOptions(ctx, userID, id, fieldID, &index, func(cur form.Form) form.Form {
		return form.RemoveOption(cur, fieldID, index)
	})
}

// editOptions runs op on a choice field. index, when set, must name an
// existing option.
func (s *formService) editOptions(ctx context.Context, userID uuid.UUID, id, fieldID string, index *int, op func(form.Form) form.Form) (form.Form, error) {
	return s.edit(ctx, userID, id, func(cur form.Form) (form.Form, error) {
		fd, ok := cur.Field(fieldID)
		if !ok {
			return form.Form{}, ErrFieldNotFound
		}
		if !fd.Type.UsesOptions() {
			return form.Form{}, ErrNoOptions
		}
		if index != nil && (*index < 0 || *index >= len(fd.Options)) {
			return form.Form{}, ErrIndexOutOfRange
		}
		return op(cur), nil
	})
}

func (s *formService) ShareForm(ctx context.Context, userID uuid.UUID, id, collaboratorEmail string) (repo.User, error) {
	if _, err := s.load(ctx, userID, id, authorize.ActionShare); err != nil {
		return repo.User{}, err
	}
	u, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(collaboratorEmail)))
	if err != nil {
		if repo.IsNotFound(err) {
			return repo.User{}, ErrCollaboratorNotFound
		}
		return repo.User{}, fmt.Errorf("find collaborator: %w", err)
	}
	if u.ID == userID.String() {
		return u, nil
	}
	if err := authorize.GrantFormViewer(ctx, s.authz, u.ID, id); err != nil {
		return repo.User{}, fmt.Errorf("grant form viewer: %w", err)
	}
	return u, nil
}

func (s *formService) Generate(ctx context.Context, prompt string) (form.Form, error) {
	return s.ai.GenerateForm(ctx, prompt)
}

// ---- helpers ----

// load fetches the form and checks that userID may perform act on it.
func (s *formService) load(ctx context.Context, userID uuid.UUID, id string, act authorize.Action) (form.Form, error) {
	f, err := s.Get(ctx, id)
	if err != nil {
		return form.Form{}, err
	}
	err = s.authz.MustEnforce(ctx, authorize.GroupSubject(userID.String()), authorize.FormDomain(id), authorize.ResourceForm, act)
	if err != nil {
		if errors.Is(err, authorize.ErrForbidden) {
			return form.Form{}, ErrForbidden
		}
		return form.Form{}, fmt.Errorf("authorize: %w", err)
	}
	return f, nil
}

// edit applies a builder op to the stored form and saves the result.
func (s *formService) edit(ctx context.Context, userID uuid.UUID, id string, op func(form.Form) (form.Form, error)) (form.Form, error) {
	cur, err := s.load(ctx, userID, id, authorize.ActionUpdate)
	if err != nil {
		return form.Form{}, err
	}
	next, err := op(cur)
	if err != nil {
		return form.Form{}, err
	}
	if err := checkForm(next); err != nil {
		return form.Form{}, err
	}
	saved, err := s.forms.SaveForm(ctx, next)
	if err != nil {
		if repo.IsNotFound(err) {
			return form.Form{}, ErrFormNotFound
		}
		return form.Form{}, fmt.Errorf("save form: %w", err)
	}
	// cached reports carry field labels and buckets
	s.invalidate(ctx, id)
	return saved, nil
}

// checkForm applies the publish rules to active forms and the structural
// rules to drafts.
func checkForm(f form.Form) error {
	check := f.CheckIntegrity
	if f.IsActive {
		check = f.ValidateForPublish
	}
	if err := check(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidForm, err)
	}
	return nil
}

func (s *formService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		slog.Warn("failed to invalidate analytics cache", "form_id", id, "err", err)
	}
}
