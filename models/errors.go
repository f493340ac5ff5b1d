package models

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies gateway failures for HTTP mapping
type ErrorKind string

const (
	ErrValidation  ErrorKind = "VALIDATION"
	ErrAuth        ErrorKind = "AUTH"
	ErrRateLimited ErrorKind = "RATE_LIMITED"
	ErrTimeout     ErrorKind = "TIMEOUT"
	ErrBackend     ErrorKind = "BACKEND"
	ErrNotFound    ErrorKind = "NOT_FOUND"
)

// AppError carries an error kind plus the detail surfaced to the client
type AppError struct {
	Kind   ErrorKind `json:"error"`
	Detail string    `json:"detail"`
	Err    error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates an AppError with a formatted detail message
func NewAppError(kind ErrorKind, format string, args ...interface{}) *AppError {
	return &AppError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// WrapError attaches a kind and detail to an underlying error
func WrapError(kind ErrorKind, err error, format string, args ...interface{}) *AppError {
	return &AppError{Kind: kind, Detail: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the error kind from any error in the chain.
// Unclassified errors map to BACKEND.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ErrBackend
}

// DetailOf returns the client-facing detail for an error
func DetailOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Detail
	}
	return err.Error()
}

// HTTPStatus maps an error kind to the status code returned to the add-in
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case ErrValidation:
		return http.StatusBadRequest
	case ErrAuth:
		return http.StatusBadGateway
	case ErrRateLimited:
		return http.StatusTooManyRequests
	case ErrTimeout:
		return http.StatusGatewayTimeout
	case ErrNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}
