package file

import "errors"

var (
	ErrFormNotFound       = errors.New("form not found")
	ErrFormInactive       = errors.New("form is not accepting responses")
	ErrEmptyFile          = errors.New("file is empty")
	ErrTooLarge           = errors.New("file is too large")
	ErrFileNotFound       = errors.New("file not found")
	ErrStorageUnavailable = errors.New("file storage is not configured")
)
