package assistant

import "errors"

var (
	ErrEmptyPrompt = errors.New("prompt is required")
	ErrNoResponses = errors.New("no responses to analyze")
	ErrUnavailable = errors.New("AI assistant is unavailable")
)
