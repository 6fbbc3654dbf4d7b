package bridge

import "errors"

// TransportError means a message never reached a handler or its reply never
// came back.
type TransportError struct {
	Err error
}

// Error implements the error interface
func (e *TransportError) Error() string {
	if e.Err == nil {
		return "message delivery failed"
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error
func (e *TransportError) Unwrap() error {
	return e.Err
}

// ResponseError carries the message of a failed Response.
type ResponseError struct {
	Message string
}

// Error implements the error interface
func (e *ResponseError) Error() string {
	if e.Message == "" {
		return "unknown error"
	}
	return e.Message
}

// IsTransportError checks if an error is a TransportError
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
