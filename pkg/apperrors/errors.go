// Package apperrors defines the typed errors the API maps to HTTP
// responses.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies an AppError.
type ErrorType string

const (
	TypeValidation ErrorType = "VALIDATION"
	TypeNotFound   ErrorType = "NOT_FOUND"
	TypeDatabase   ErrorType = "DATABASE"
	TypeInternal   ErrorType = "INTERNAL"
)

// AppError carries a classification and an optional cause.
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// HTTPStatus maps the error type to a response status code.
func (e *AppError) HTTPStatus() int {
	switch e.Type {
	case TypeValidation:
		return http.StatusBadRequest
	case TypeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// NotFound reports a missing resource.
func NotFound(format string, args ...any) *AppError {
	return &AppError{Type: TypeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Validation reports invalid caller input.
func Validation(format string, args ...any) *AppError {
	return &AppError{Type: TypeValidation, Message: fmt.Sprintf(format, args...)}
}

// Database wraps a failure from the database layer.
func Database(message string, cause error) *AppError {
	return &AppError{Type: TypeDatabase, Message: message, Cause: cause}
}

// Internal wraps an unexpected failure inside the service.
func Internal(message string, cause error) *AppError {
	return &AppError{Type: TypeInternal, Message: message, Cause: cause}
}

// As unwraps err to an *AppError when possible.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}

// IsNotFound reports whether err is a not-found AppError.
func IsNotFound(err error) bool {
	appErr, ok := As(err)
	return ok && appErr.Type == TypeNotFound
}
