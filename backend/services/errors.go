package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeForbidden    ErrorType = "forbidden"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeRateLimited  ErrorType = "rate_limited"
	ErrorTypeInternal     ErrorType = "internal"
)

// DomainError represents a structured error with additional context.
// Code identifies the specific failure within its Type; errors.Is matches
// on Code so that, for example, invalid credentials and a deactivated
// account stay distinguishable although both are unauthorized.
type DomainError struct {
	Type    ErrorType
	Code    string
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// Wrap returns a copy of e carrying cause. The message stays generic.
func (e *DomainError) Wrap(cause error) *DomainError {
	c := e.clone()
	c.Err = cause
	return c
}

// WithDetail returns a copy of e with key set in Details
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	c := e.clone()
	c.Details[key] = value
	return c
}

func (e *DomainError) clone() *DomainError {
	c := *e
	c.Details = make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		c.Details[k] = v
	}
	return &c
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, code, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Code:    code,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// Domain error variables

var (
	// Not Found Errors
	ErrTeacherNotFound = NewDomainError(ErrorTypeNotFound, "teacher_not_found", "teacher not found", nil)
	ErrStudentNotFound = NewDomainError(ErrorTypeNotFound, "student_not_found", "student not found", nil)

	// Validation Errors
	ErrInvalidInput        = NewDomainError(ErrorTypeValidation, "invalid_input", "invalid input", nil)
	ErrPasswordTooLong     = NewDomainError(ErrorTypeValidation, "password_too_long", "password is too long", nil)
	ErrMissingRefreshToken = NewDomainError(ErrorTypeValidation, "missing_refresh_token", "refresh token is required", nil)

	// Authentication Errors
	ErrInvalidCredentials  = NewDomainError(ErrorTypeUnauthorized, "invalid_credentials", "Invalid username or password", nil)
	ErrAccountDeactivated  = NewDomainError(ErrorTypeUnauthorized, "account_deactivated", "Account is deactivated", nil)
	ErrUnauthenticated     = NewDomainError(ErrorTypeUnauthorized, "unauthenticated", "authentication required", nil)
	ErrInvalidRefreshToken = NewDomainError(ErrorTypeUnauthorized, "invalid_refresh_token", "invalid or expired refresh token", nil)

	// Permission Errors
	ErrForbidden = NewDomainError(ErrorTypeForbidden, "forbidden", "access forbidden", nil)

	// Conflict Errors
	ErrDuplicateUsername     = NewDomainError(ErrorTypeConflict, "duplicate_username", "Username already exists", nil)
	ErrDuplicateEmail        = NewDomainError(ErrorTypeConflict, "duplicate_email", "Email already exists", nil)
	ErrDuplicateStudentEmail = NewDomainError(ErrorTypeConflict, "duplicate_student_email", "A student with this email already exists", nil)

	// Rate Limit Errors
	ErrTooManyAttempts = NewDomainError(ErrorTypeRateLimited, "too_many_attempts", "Too many login attempts, try again later", nil)

	// Internal Errors
	ErrInternal = NewDomainError(ErrorTypeInternal, "internal", "internal server error", nil)
)

// Error type checking helper functions

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return GetErrorType(err) == ErrorTypeNotFound
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return GetErrorType(err) == ErrorTypeValidation
}

// IsUnauthorizedError checks if an error is an unauthorized error
func IsUnauthorizedError(err error) bool {
	return GetErrorType(err) == ErrorTypeUnauthorized
}

// IsForbiddenError checks if an error is a forbidden error
func IsForbiddenError(err error) bool {
	return GetErrorType(err) == ErrorTypeForbidden
}

// IsConflictError checks if an error is a conflict error
func IsConflictError(err error) bool {
	return GetErrorType(err) == ErrorTypeConflict
}

// IsRateLimitedError checks if an error is a rate limit error
func IsRateLimitedError(err error) bool {
	return GetErrorType(err) == ErrorTypeRateLimited
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// WrapInternal wraps an unexpected error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, "internal", message, err)
}
