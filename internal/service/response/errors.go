package response

import "errors"

var (
	ErrFormNotFound     = errors.New("form not found")
	ErrFormInactive     = errors.New("form is not accepting responses")
	ErrResponseNotFound = errors.New("response not found")
)
