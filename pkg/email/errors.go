package email

import (
	"errors"
	"fmt"
)

var (
	ErrDisabled       = errors.New("email is disabled")
	ErrInvalidMessage = errors.New("invalid email message")
)

func invalid(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidMessage, reason)
}

// SendError wraps a delivery failure with the SMTP host that refused it.
type SendError struct {
	Host string
	Err  error
}

func (e *SendError) Error() string { return fmt.Sprintf("smtp %s: %v", e.Host, e.Err) }
func (e *SendError) Unwrap() error { return e.Err }
