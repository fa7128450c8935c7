package core

import (
	"errors"
	"fmt"
	"net/http"
)

// Common error codes
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeProvider      = "PROVIDER_ERROR"
	ErrCodePartial       = "PARTIAL_RESOURCE_FAILURE"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeConfiguration = "CONFIGURATION_ERROR"
	ErrCodeInternal      = "INTERNAL_ERROR"
)

// AppError represents an application error
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Err.Error())
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new application error
func NewAppError(code, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func NewNotFoundError(message string, err error) *AppError {
	return NewAppError(ErrCodeNotFound, message, err)
}

func NewConfigurationError(message string, err error) *AppError {
	return NewAppError(ErrCodeConfiguration, message, err)
}

// ValidationError reports input that is missing a mandatory field or
// cannot be interpreted at all. It is never retried.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("validation failed: %s: %v", msg, e.Err)
	}
	return "validation failed: " + msg
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NewValidationError creates a validation error for a single field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ProviderError is a failed call to a text or image generation backend.
// Message carries the upstream error text when the backend supplied one.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s provider error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s provider error: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// PartialResourceFailure is one optional resource (an image) that could not
// be produced. The run that hit it still succeeds.
type PartialResourceFailure struct {
	Resource string
	Index    int
	Err      error
}

func (e *PartialResourceFailure) Error() string {
	return fmt.Sprintf("%s %d failed: %v", e.Resource, e.Index, e.Err)
}

func (e *PartialResourceFailure) Unwrap() error { return e.Err }

// IsValidationError reports whether err wraps a ValidationError
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsProviderError reports whether err wraps a ProviderError
func IsProviderError(err error) bool {
	var p *ProviderError
	return errors.As(err, &p)
}

// HTTPStatusCode maps an error to the status an API response should carry.
func HTTPStatusCode(err error) int {
	var (
		provErr *ProviderError
		appErr  *AppError
	)
	switch {
	case errors.As(err, &provErr):
		return http.StatusBadGateway
	case IsValidationError(err):
		return http.StatusBadRequest
	case errors.As(err, &appErr):
		switch appErr.Code {
		case ErrCodeValidation, ErrCodeConfiguration:
			return http.StatusBadRequest
		case ErrCodeNotFound:
			return http.StatusNotFound
		}
	}
	return http.StatusInternalServerError
}
