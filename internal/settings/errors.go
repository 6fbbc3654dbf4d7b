package settings

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned for an event the current state does not
// accept.
var ErrInvalidTransition = errors.New("invalid settings transition")

// ValidationError reports user input that cannot be committed.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidationError checks if an error is a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func invalidTransition(s State, ev Event) error {
	return fmt.Errorf("%w: %s in state %s", ErrInvalidTransition, ev.Name(), s)
}

var (
	errEmptyKey = &ValidationError{Field: "apiKey", Message: "Please enter an API Key."}
	errNoModels = &ValidationError{Field: "models", Message: "No compatible models found. Check permissions or key."}
)
