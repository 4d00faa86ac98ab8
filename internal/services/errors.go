package services

import (
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"
)

// Error codes surfaced to API clients. Every service error carries one.
const (
	CodeValidation    = "VALIDATION"
	CodeAuthorization = "AUTHORIZATION"
	CodeNotFound      = "NOT_FOUND"
	CodeInvalidState  = "INVALID_STATE"
	CodeDuplicate     = "DUPLICATE"
	CodeInternal      = "INTERNAL"
)

// ServiceError is an error with a stable code and HTTP status
type ServiceError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

// ErrValidation creates a VALIDATION error
func ErrValidation(format string, args ...any) *ServiceError {
	return &ServiceError{Code: CodeValidation, Message: fmt.Sprintf(format, args...), StatusCode: http.StatusBadRequest}
}

// ErrAuthorization creates an AUTHORIZATION error
func ErrAuthorization(format string, args ...any) *ServiceError {
	return &ServiceError{Code: CodeAuthorization, Message: fmt.Sprintf(format, args...), StatusCode: http.StatusForbidden}
}

// ErrNotFound creates a NOT_FOUND error
func ErrNotFound(entity string) *ServiceError {
	return &ServiceError{Code: CodeNotFound, Message: entity + " not found", StatusCode: http.StatusNotFound}
}

// ErrInvalidState creates an INVALID_STATE error. It surfaces as 400: a
// transition attempted from a state that disallows it is a bad request, the
// code distinguishes it from field validation.
func ErrInvalidState(format string, args ...any) *ServiceError {
	return &ServiceError{Code: CodeInvalidState, Message: fmt.Sprintf(format, args...), StatusCode: http.StatusBadRequest}
}

// ErrDuplicate creates a DUPLICATE error
func ErrDuplicate(format string, args ...any) *ServiceError {
	return &ServiceError{Code: CodeDuplicate, Message: fmt.Sprintf(format, args...), StatusCode: http.StatusConflict}
}

// ErrInternal wraps an unexpected persistence failure
func ErrInternal(err error) *ServiceError {
	return &ServiceError{Code: CodeInternal, Message: err.Error(), StatusCode: http.StatusInternalServerError}
}

// AsServiceError normalizes any error into a ServiceError. gorm's record-not
// -found maps to NOT_FOUND; everything unrecognized becomes INTERNAL.
func AsServiceError(err error) *ServiceError {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound("record")
	}
	return ErrInternal(err)
}

// wrapFind converts a repository lookup error, keeping the entity name in the
// NOT_FOUND message
func wrapFind(err error, entity string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound(entity)
	}
	return ErrInternal(err)
}
