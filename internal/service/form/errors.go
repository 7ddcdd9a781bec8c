package form

import (
	"errors"

	"github.com/Alijeyrad/formora_backend/internal/form"
)

var (
	ErrFormNotFound         = errors.New("form not found")
	ErrFieldNotFound        = form.ErrFieldNotFound
	ErrNoOptions            = errors.New("field type has no options")
	ErrIndexOutOfRange      = errors.New("index out of range")
	ErrInvalidForm          = errors.New("invalid form")
	ErrForbidden            = errors.New("not allowed to change this form")
	ErrCollaboratorNotFound = errors.New("no user with that email")
)
