// Package errors provides custom error types for the catalog core
package errors

import (
	"fmt"
	"net/http"
	"strings"
)

// CatalogError is the base interface for all catalog errors
type CatalogError interface {
	error
	HTTPStatus() int
	Code() string
}

// BaseError is the base implementation of CatalogError
type BaseError struct {
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	ErrorCode  string `json:"code"`
	Details    string `json:"details,omitempty"`
}

func (e *BaseError) Error() string {
	return e.Message
}

func (e *BaseError) HTTPStatus() int {
	return e.StatusCode
}

func (e *BaseError) Code() string {
	return e.ErrorCode
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	BaseError
	Resource string
}

func NewNotFoundError(resource string) *NotFoundError {
	return &NotFoundError{
		BaseError: BaseError{
			Message:    fmt.Sprintf("%s not found", resource),
			StatusCode: http.StatusNotFound,
			ErrorCode:  "NOT_FOUND",
		},
		Resource: resource,
	}
}

// ValidationError represents a validation error
type ValidationError struct {
	BaseError
	Field string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		BaseError: BaseError{
			Message:    message,
			StatusCode: http.StatusBadRequest,
			ErrorCode:  "VALIDATION_ERROR",
		},
		Field: field,
	}
}

// UnknownFieldError is returned when a configuration names a field that
// discovery does not currently report for the tenant. Batch operations fail
// as a whole with the complete list of offending names.
type UnknownFieldError struct {
	BaseError
	FieldNames []string
}

func NewUnknownFieldError(fieldNames ...string) *UnknownFieldError {
	return &UnknownFieldError{
		BaseError: BaseError{
			Message:    fmt.Sprintf("unknown field(s): %s", strings.Join(fieldNames, ", ")),
			StatusCode: http.StatusBadRequest,
			ErrorCode:  "UNKNOWN_FIELD",
		},
		FieldNames: fieldNames,
	}
}

// NotEditableError is returned when a product update touches fields whose
// configuration has is_editable=false. Every offending field is listed.
type NotEditableError struct {
	BaseError
	FieldNames []string
}

func NewNotEditableError(fieldNames ...string) *NotEditableError {
	return &NotEditableError{
		BaseError: BaseError{
			Message:    fmt.Sprintf("field(s) not editable: %s", strings.Join(fieldNames, ", ")),
			StatusCode: http.StatusForbidden,
			ErrorCode:  "NOT_EDITABLE",
		},
		FieldNames: fieldNames,
	}
}

// InvalidFilterError is returned when a numeric filter receives a value that
// does not parse. Unlike unknown field names, this is a hard error.
type InvalidFilterError struct {
	BaseError
	Field string
	Value string
}

func NewInvalidFilterError(field, value string) *InvalidFilterError {
	return &InvalidFilterError{
		BaseError: BaseError{
			Message:    fmt.Sprintf("invalid value %q for numeric filter %q", value, field),
			StatusCode: http.StatusBadRequest,
			ErrorCode:  "INVALID_FILTER",
		},
		Field: field,
		Value: value,
	}
}

// TenantMismatchError is returned on any attempt to touch data belonging to
// a tenant other than the caller's.
type TenantMismatchError struct {
	BaseError
}

func NewTenantMismatchError() *TenantMismatchError {
	return &TenantMismatchError{
		BaseError: BaseError{
			Message:    "tenant mismatch",
			StatusCode: http.StatusForbidden,
			ErrorCode:  "TENANT_MISMATCH",
		},
	}
}

// ConflictError represents a uniqueness conflict
type ConflictError struct {
	BaseError
	Resource string
}

func NewConflictError(resource, message string) *ConflictError {
	return &ConflictError{
		BaseError: BaseError{
			Message:    message,
			StatusCode: http.StatusConflict,
			ErrorCode:  "CONFLICT",
		},
		Resource: resource,
	}
}

// UnauthorizedError represents an authentication error
type UnauthorizedError struct {
	BaseError
}

func NewUnauthorizedError(message string) *UnauthorizedError {
	if message == "" {
		message = "authentication required"
	}
	return &UnauthorizedError{
		BaseError: BaseError{
			Message:    message,
			StatusCode: http.StatusUnauthorized,
			ErrorCode:  "UNAUTHORIZED",
		},
	}
}

// InternalError wraps unexpected failures (storage and the like)
type InternalError struct {
	BaseError
	Err error
}

func NewInternalError(err error) *InternalError {
	return &InternalError{
		BaseError: BaseError{
			Message:    "internal server error",
			StatusCode: http.StatusInternalServerError,
			ErrorCode:  "INTERNAL_ERROR",
			Details:    err.Error(),
		},
		Err: err,
	}
}

func (e *InternalError) Unwrap() error {
	return e.Err
}
