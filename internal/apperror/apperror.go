// Package apperror defines the application's error taxonomy.
//
// Every error that crosses a layer boundary is either an *AppError or wraps
// one. Handlers map the sentinel inside it to an HTTP status, so the service
// and repository layers never need to know about HTTP.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation error")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrUpstream         = errors.New("upstream error")
	ErrSchema           = errors.New("schema error")
	ErrExhaustedRetries = errors.New("exhausted retries")
)

type AppError struct {
	Err     error  // sentinel this error belongs to
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Cause   error  // Optional: lower-level error that triggered this one
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap exposes both the sentinel and the cause so errors.Is matches either.
func (e *AppError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Unauthorized is returned for missing or mismatched credentials.
// HTTP handlers map this to 401 Unauthorized.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Upstream reports a failure of an external dependency (the GitHub API).
func Upstream(message string, cause error) *AppError {
	return &AppError{
		Err:     ErrUpstream,
		Message: message,
		Cause:   cause,
	}
}

// SchemaMismatch reports a response body whose shape does not match the
// schema expected for that endpoint.
func SchemaMismatch(field, message string) *AppError {
	return &AppError{
		Err:     ErrSchema,
		Message: message,
		Field:   field,
	}
}

// ExhaustedRetries wraps the last error seen after every attempt failed.
func ExhaustedRetries(attempts int, last error) *AppError {
	return &AppError{
		Err:     ErrExhaustedRetries,
		Message: fmt.Sprintf("giving up after %d attempts", attempts),
		Cause:   last,
	}
}
