package api

import (
	"fmt"

	"github.com/pkg/errors"
)

const defaultErrorMessage = "Request failed"

// FieldError is a single field-level validation failure reported by the backend.
type FieldError struct {
	Path    string `json:"path,omitempty"`
	Message string `json:"message,omitempty"`
}

// Error is returned for every non-2xx response. Transport failures are never
// an *Error.
type Error struct {
	Message     string
	StatusCode  int
	FieldErrors []FieldError
}

func (e *Error) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an *Error with the given status code.
func IsStatus(err error, statusCode int) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == statusCode
	}
	return false
}

// AsError returns the *Error in err's chain, if any.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}
