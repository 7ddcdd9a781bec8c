package analytics

import "errors"

var (
	ErrFormNotFound  = errors.New("form not found")
	ErrFieldNotFound = errors.New("field not found")
)
