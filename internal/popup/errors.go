package popup

import (
	"errors"
)

// ErrBusy is returned while a summarize call is outstanding.
var ErrBusy = errors.New("A summary is already being generated.")

// ErrNotConfigured is returned when summarizing before an API key is set.
var ErrNotConfigured = errors.New("Please enter an API Key.")

// ExtractionError means no page text could be obtained from the active tab.
type ExtractionError struct {
	Message string
}

// Error implements the error interface
func (e *ExtractionError) Error() string {
	return e.Message
}

// IsExtractionError checks if an error is an ExtractionError
func IsExtractionError(err error) bool {
	var e *ExtractionError
	return errors.As(err, &e)
}

var (
	errNoTab     = &ExtractionError{Message: "No active tab."}
	errNoContent = &ExtractionError{Message: "Could not extract content."}
)

// statusError replaces the message shown for err while keeping it
// inspectable.
type statusError struct {
	msg string
	err error
}

func (e *statusError) Error() string { return e.msg }
func (e *statusError) Unwrap() error { return e.err }

// InlineMessage is the text shown for err in the popup.
func InlineMessage(err error) string {
	if err == nil {
		return ""
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "Unknown error."
}
