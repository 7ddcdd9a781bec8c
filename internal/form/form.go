// Package form holds the form schema and everything that works on it without
// I/O: the field type registry, the builder operations, the response
// collector, analytics aggregation, CSV export and validation of AI-generated
// payloads.
package form

import (
	"fmt"
	"slices"
	"time"
)

// Field is one input definition within a form.
type Field struct {
	ID          string    `json:"id"`
	Type        FieldType `json:"type"`
	Label       string    `json:"label"`
	Placeholder string    `json:"placeholder,omitempty"`
	Required    bool      `json:"required"`
	Options     []string  `json:"options,omitempty"`
}

// Clone returns a copy of f that shares no slices with it.
func (f Field) Clone() Field {
	f.Options = slices.Clone(f.Options)
	return f
}

// Form is the ordered set of fields plus form-level metadata.
type Form struct {
	ID          string    `json:"id,omitempty"`
	OwnerID     string    `json:"owner_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Fields      []Field   `json:"fields"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
	UpdatedAt   time.Time `json:"updated_at,omitzero"`
}

// Clone returns a deep copy of f.
func (f Form) Clone() Form {
	fields := make([]Field, len(f.Fields))
	for i, fd := range f.Fields {
		fields[i] = fd.Clone()
	}
	f.Fields = fields
	return f
}

// IndexOf returns the position of the field with id, or -1.
func (f Form) IndexOf(id string) int {
	return slices.IndexFunc(f.Fields, func(fd Field) bool { return fd.ID == id })
}

// Field returns the field with id.
func (f Form) Field(id string) (Field, bool) {
	if i := f.IndexOf(id); i >= 0 {
		return f.Fields[i], true
	}
	return Field{}, false
}

// CheckIntegrity verifies the invariants every stored form keeps: non-empty
// unique ids, registered types and options only on choice fields.
func (f Form) CheckIntegrity() error {
	seen := make(map[string]struct{}, len(f.Fields))
	for i, fd := range f.Fields {
		if fd.ID == "" {
			return fmt.Errorf("%w: field %d has no id", ErrIntegrity, i)
		}
		if _, dup := seen[fd.ID]; dup {
			return fmt.Errorf("%w: duplicate field id %q", ErrIntegrity, fd.ID)
		}
		seen[fd.ID] = struct{}{}

		ts, ok := Lookup(fd.Type)
		if !ok {
			return fmt.Errorf("%w: field %q: %w", ErrIntegrity, fd.ID, ErrUnknownFieldType)
		}
		if !ts.UsesOptions && len(fd.Options) > 0 {
			return fmt.Errorf("%w: field %q of type %s cannot have options", ErrIntegrity, fd.ID, fd.Type)
		}
	}
	return nil
}

// ValidateForPublish is CheckIntegrity plus the rule that active forms give
// every choice field at least one option.
func (f Form) ValidateForPublish() error {
	if err := f.CheckIntegrity(); err != nil {
		return err
	}
	for _, fd := range f.Fields {
		if fd.Type.UsesOptions() && len(fd.Options) == 0 {
			return fmt.Errorf("%w: field %q needs at least one option", ErrIntegrity, fd.ID)
		}
	}
	return nil
}

// Response is one submission. It is never updated after creation.
type Response struct {
	ID            string    `json:"id,omitempty"`
	FormID        string    `json:"form_id"`
	Values        Values    `json:"values"`
	SubmittedAt   time.Time `json:"submitted_at"`
	SourceAddress string    `json:"source_address,omitempty"`
}
