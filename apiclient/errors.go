package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnsupportedMethod is returned for methods other than GET, POST, PUT and DELETE.
var ErrUnsupportedMethod = errors.New("unsupported method")

// HTTPError is returned when the server responds with a status outside 2xx.
type HTTPError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}

// Retryable reports whether the failure is worth repeating: only server errors are.
func (e *HTTPError) Retryable() bool {
	return e.Status >= http.StatusInternalServerError
}

// ValidationError is a 4xx response carrying field-level messages.
type ValidationError struct {
	HTTPError
	Fields map[string]string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Unwrap returns the underlying *HTTPError.
func (e *ValidationError) Unwrap() error {
	return &e.HTTPError
}

// Retryable is always false: the same input fails the same way.
func (e *ValidationError) Retryable() bool {
	return false
}

// NetworkError is a transport failure; no response was received.
type NetworkError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the transport error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Retryable is always true for transport failures.
func (e *NetworkError) Retryable() bool {
	return true
}
