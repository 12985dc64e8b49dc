// Package apperror defines the error taxonomy shared by every layer and the
// single vocabulary the HTTP boundary translates into status codes.
package apperror

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation indicates missing or malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized indicates a missing, invalid, or expired credential.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates the record exists but the caller does not own it.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict indicates a write would violate a uniqueness constraint.
	ErrConflict = errors.New("conflict")
	// ErrUpstream indicates the database or the external media store failed.
	ErrUpstream = errors.New("upstream failure")
)

// AppError pairs a taxonomy kind with a human-readable message and, for
// validation failures, the offending fields.
type AppError struct {
	Kind    error
	Message string
	Fields  []string
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Kind
}

// Validation reports the listed fields as missing or malformed.
func Validation(fields ...string) *AppError {
	return &AppError{
		Kind:    ErrValidation,
		Message: fmt.Sprintf("required fields missing or invalid: %s", strings.Join(fields, ", ")),
		Fields:  fields,
	}
}

// Unauthorized builds a credential failure with the provided message.
func Unauthorized(message string) *AppError {
	return &AppError{Kind: ErrUnauthorized, Message: message}
}

// Forbidden builds an ownership failure with the provided message.
func Forbidden(message string) *AppError {
	return &AppError{Kind: ErrForbidden, Message: message}
}

// NotFound reports that no record of the given resource matches the id.
func NotFound(resource, id string) *AppError {
	return &AppError{Kind: ErrNotFound, Message: fmt.Sprintf("%s %s not found", resource, id)}
}

// Conflict reports a uniqueness violation on the given resource.
func Conflict(resource, detail string) *AppError {
	return &AppError{Kind: ErrConflict, Message: fmt.Sprintf("%s already exists: %s", resource, detail)}
}

// Upstream wraps a database or media-store failure.
func Upstream(op string, err error) *AppError {
	return &AppError{Kind: ErrUpstream, Message: fmt.Sprintf("%s: %v", op, err)}
}
