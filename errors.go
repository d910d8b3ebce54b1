package shopcache

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCacheSize is returned by New when the entry limit is not positive.
	ErrInvalidCacheSize = errors.New("cache size must be greater than 0")

	// ErrInvalidKey is returned when a key cannot be serialized.
	ErrInvalidKey = errors.New("invalid cache key")

	// ErrTypeMismatch is returned when cached data cannot be represented as the requested type.
	ErrTypeMismatch = errors.New("cached data type mismatch")

	// ErrCacheClosed is returned by reads issued after Close.
	ErrCacheClosed = errors.New("cache is closed")

	// ErrAuthentication is matched by every AuthenticationError.
	ErrAuthentication = errors.New("authentication required")
)

// AuthenticationError is returned when a protected operation is attempted without a token.
// No network call is made in that case.
type AuthenticationError struct {
	Operation string
}

// Error implements the error interface.
func (e *AuthenticationError) Error() string {
	if e.Operation == "" {
		return ErrAuthentication.Error()
	}

	return fmt.Sprintf("%s: %s", e.Operation, ErrAuthentication)
}

// Is reports whether target is ErrAuthentication.
func (e *AuthenticationError) Is(target error) bool {
	return target == ErrAuthentication //nolint:errorlint // sentinel identity
}

// Retryable is always false: a missing token does not appear by itself.
func (e *AuthenticationError) Retryable() bool {
	return false
}

// MutationError carries the first failure of a mutation. Mutations are never retried.
type MutationError struct {
	Mutation string
	Cause    error
}

// Error implements the error interface.
func (e *MutationError) Error() string {
	return fmt.Sprintf("mutation %s: %v", e.Mutation, e.Cause)
}

// Unwrap returns the cause of the failure.
func (e *MutationError) Unwrap() error {
	return e.Cause
}
