// Package errors defines the application error taxonomy and its HTTP mapping.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType classifies an error for logging and HTTP mapping.
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"

	ErrorTypeInternal  ErrorType = "INTERNAL"
	ErrorTypeTimeout   ErrorType = "TIMEOUT"
	ErrorTypeRateLimit ErrorType = "RATE_LIMIT"

	ErrorTypeDatabase ErrorType = "DATABASE"
	ErrorTypeExternal ErrorType = "EXTERNAL"
)

// AppError carries a typed, HTTP-mappable application error.
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	Code       string                 `json:"code,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	HTTPStatus int                    `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCode attaches an error code.
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// WithDetails attaches structured detail.
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// WithCause wraps an underlying error.
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

// GetAppError extracts an *AppError from an error chain, or nil.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// NewValidationError creates a validation error.
func NewValidationError(message string) *AppError {
	return &AppError{Type: ErrorTypeValidation, Message: message, HTTPStatus: http.StatusBadRequest}
}

// NewNotFoundError creates a not-found error for a resource.
func NewNotFoundError(resource string) *AppError {
	return &AppError{Type: ErrorTypeNotFound, Message: fmt.Sprintf("%s not found", resource), HTTPStatus: http.StatusNotFound}
}

// NewConflictError creates a conflict error.
func NewConflictError(message string) *AppError {
	return &AppError{Type: ErrorTypeConflict, Message: message, HTTPStatus: http.StatusConflict}
}

// NewUnauthorizedError creates an unauthorized error.
func NewUnauthorizedError(message string) *AppError {
	if message == "" {
		message = "unauthorized"
	}
	return &AppError{Type: ErrorTypeUnauthorized, Message: message, HTTPStatus: http.StatusUnauthorized}
}

// NewForbiddenError creates a forbidden error.
func NewForbiddenError(message string) *AppError {
	if message == "" {
		message = "forbidden"
	}
	return &AppError{Type: ErrorTypeForbidden, Message: message, HTTPStatus: http.StatusForbidden}
}

// NewInternalError creates an internal error.
func NewInternalError(message string) *AppError {
	return &AppError{Type: ErrorTypeInternal, Message: message, HTTPStatus: http.StatusInternalServerError}
}

// NewRateLimitError creates a rate-limit error.
func NewRateLimitError(limit int, window string) *AppError {
	return &AppError{
		Type:       ErrorTypeRateLimit,
		Message:    fmt.Sprintf("rate limit exceeded: %d requests per %s", limit, window),
		HTTPStatus: http.StatusTooManyRequests,
	}
}

// NewDatabaseError creates a database error wrapping its cause.
func NewDatabaseError(operation string, err error) *AppError {
	return &AppError{
		Type:       ErrorTypeDatabase,
		Message:    fmt.Sprintf("database operation %q failed", operation),
		Cause:      err,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// NewExternalError creates an error for an upstream service failure.
func NewExternalError(service string, err error) *AppError {
	return &AppError{
		Type:       ErrorTypeExternal,
		Message:    fmt.Sprintf("external service %q error", service),
		Cause:      err,
		HTTPStatus: http.StatusBadGateway,
	}
}
