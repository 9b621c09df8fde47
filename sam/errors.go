package sam

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors
var (
	// ErrInvalidConfig indicates invalid client configuration
	ErrInvalidConfig = errors.New("invalid sam.gov client configuration")
	// ErrMissingField indicates an expected key or index was absent from a response body
	ErrMissingField = errors.New("missing field in sam.gov response")
)

// APIError represents a non-2xx answer from one of the JSON endpoints
type APIError struct {
	StatusCode int
	Message    string
	Body       string
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("sam.gov API error: status %d: %s", e.StatusCode, e.Message)
}

// IsNotFound checks if the error indicates a not found response
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == 404
}

// IsUnauthorized checks if the error indicates an authentication failure
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

// LookupError reports an envelope path that could not be followed in a
// response body, e.g. a missing "_embedded" key or an empty attachment list.
type LookupError struct {
	Path []string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingField.Error(), strings.Join(e.Path, "."))
}

func (e *LookupError) Unwrap() error {
	return ErrMissingField
}

func lookupError(path ...string) *LookupError {
	return &LookupError{Path: path}
}
