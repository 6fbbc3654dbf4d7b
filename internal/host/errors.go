package host

import (
	"errors"
	"fmt"
)

// ErrCapabilityUnavailable is returned without attempting a call when the
// extension context is missing or not initialized.
var ErrCapabilityUnavailable = errors.New("extension API not available")

// Failure is the single normalized rejection produced by the adapter.
type Failure struct {
	Capability Capability
	Message    string
}

// Error implements the error interface
func (f *Failure) Error() string {
	return f.Message
}

// IsFailure checks if an error is a host Failure
func IsFailure(err error) bool {
	var f *Failure
	return errors.As(err, &f)
}

// describe turns whatever a host reported (an error, a thrown value, an
// error-like object) into one message.
func describe(v any) string {
	switch e := v.(type) {
	case nil:
		return "unknown host error"
	case *Failure:
		return e.Message
	case error:
		return e.Error()
	case string:
		if e == "" {
			return "unknown host error"
		}
		return e
	case map[string]any:
		if msg, ok := e["message"].(string); ok && msg != "" {
			return msg
		}
		return fmt.Sprint(e)
	case fmt.Stringer:
		return e.String()
	default:
		return fmt.Sprint(e)
	}
}
