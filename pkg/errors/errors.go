package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies gateway errors for logging and HTTP translation.
type ErrorType string

const (
	ErrorTypeUnauthorized      ErrorType = "UNAUTHORIZED"
	ErrorTypeStore             ErrorType = "STORE"
	ErrorTypeFallbackExhausted ErrorType = "FALLBACK_EXHAUSTED"
	ErrorTypeInternal          ErrorType = "INTERNAL"
)

// AppError is the application error carried between the query layer and
// the HTTP boundary. The Cause is logged but never forwarded to callers.
type AppError struct {
	Type       ErrorType
	Message    string
	Cause      error
	HTTPStatus int
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewUnauthorized creates an authentication error
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewStoreError wraps a failed backing-store query
func NewStoreError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeStore,
		Message:    message,
		Cause:      cause,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// NewFallbackExhausted marks a request whose mapping view and authoritative
// fallback query both failed
func NewFallbackExhausted(cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeFallbackExhausted,
		Message:    "patch mapping fallback failed",
		Cause:      cause,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// NewInternal creates a generic internal error
func NewInternal(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		Cause:      cause,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// HTTPStatus resolves the status code for an error, defaulting to 500 for
// anything that is not an AppError.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}
