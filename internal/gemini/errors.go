package gemini

import (
	"errors"
	"strconv"
)

// ErrEmptyResult is returned when a generate call succeeds without text.
var ErrEmptyResult = errors.New("No summary generated.")

// APIError is a non-success HTTP status from the endpoint.
type APIError struct {
	Status  int
	Message string
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Message == "" {
		return "API Error: " + strconv.Itoa(e.Status)
	}
	return e.Message
}

// IsAPIError checks if an error is an APIError
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
