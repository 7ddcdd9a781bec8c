package form

import (
	"errors"
	"strings"

	"github.com/samber/lo"
)

var (
	ErrUnknownFieldType = errors.New("unknown field type")
	ErrFieldNotFound    = errors.New("field not found")
	ErrWrongFieldType   = errors.New("value does not match field type")
	ErrUnknownOption    = errors.New("value is not one of the field options")
	ErrBadFormat        = errors.New("malformed value")
	ErrIntegrity        = errors.New("form integrity violated")
	ErrInvalidGenerated = errors.New("generated form rejected")
	ErrValidation       = errors.New("validation failed")

	ErrReadOnly   = errors.New("form is in read-only mode")
	ErrSubmitted  = errors.New("form has already been submitted")
	ErrSubmitting = errors.New("submission in progress")
)

// FieldError is one field-scoped problem found while collecting a response.
type FieldError struct {
	FieldID string `json:"field_id"`
	Reason  string `json:"reason"`
}

// ValidationError lists every field that blocked a submission.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := lo.Map(e.Fields, func(fe FieldError, _ int) string {
		return fe.FieldID + " (" + fe.Reason + ")"
	})
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// FieldIDs returns the offending field ids in form order.
func (e *ValidationError) FieldIDs() []string {
	return lo.Map(e.Fields, func(fe FieldError, _ int) string { return fe.FieldID })
}

func (e *ValidationError) add(fieldID, reason string) {
	e.Fields = append(e.Fields, FieldError{FieldID: fieldID, Reason: reason})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
