package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeNotFound indicates a resource was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"

	// ErrorTypeValidation indicates a validation error
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeConflict indicates a conflict with existing data
	ErrorTypeConflict ErrorType = "CONFLICT"

	// ErrorTypeUnauthorized indicates unauthorized access
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"

	// ErrorTypeInternal indicates an internal server error
	ErrorTypeInternal ErrorType = "INTERNAL"

	// ErrorTypeExternal indicates an error from external service
	ErrorTypeExternal ErrorType = "EXTERNAL"

	// ErrorTypeMappingAbsent indicates a region has no administrative code
	ErrorTypeMappingAbsent ErrorType = "MAPPING_ABSENT"

	// ErrorTypeProviderFormat indicates a provider answered with an unexpected payload
	ErrorTypeProviderFormat ErrorType = "PROVIDER_FORMAT"

	// ErrorTypeProviderUnreachable indicates a provider could not be reached
	ErrorTypeProviderUnreachable ErrorType = "PROVIDER_UNREACHABLE"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeConflict,
		Message: message,
	}
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeUnauthorized,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// NewExternalError creates a new external service error
func NewExternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeExternal,
		Message: message,
		Err:     err,
	}
}

// NewMappingAbsentError creates an error for a region without a known code
func NewMappingAbsentError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeMappingAbsent,
		Message: message,
	}
}

// NewProviderFormatError creates an error for a malformed provider response
func NewProviderFormatError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeProviderFormat,
		Message: message,
		Err:     err,
	}
}

// NewProviderUnreachableError creates an error for an unreachable provider
func NewProviderUnreachableError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeProviderUnreachable,
		Message: message,
		Err:     err,
	}
}

// IsType reports whether err is, or wraps, an AppError of the given type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}
