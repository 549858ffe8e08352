package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors forming the application error taxonomy. Services wrap
// these with operation-specific messages; handlers map them to HTTP
// status codes with errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
)

// Error carries a human-readable message while unwrapping to one of the
// taxonomy sentinels, so callers can test the kind with errors.Is and
// still surface a clean message to the client.
type Error struct {
	kind    error
	message string
}

func (e *Error) Error() string { return e.message }

func (e *Error) Unwrap() error { return e.kind }

// Validationf builds a validation error with a formatted message.
func Validationf(format string, args ...any) error {
	return &Error{kind: ErrValidation, message: fmt.Sprintf(format, args...)}
}

// Conflictf builds a conflict error with a formatted message.
func Conflictf(format string, args ...any) error {
	return &Error{kind: ErrConflict, message: fmt.Sprintf(format, args...)}
}

// Forbiddenf builds a forbidden error with a formatted message.
func Forbiddenf(format string, args ...any) error {
	return &Error{kind: ErrForbidden, message: fmt.Sprintf(format, args...)}
}

// NotFoundf builds a not-found error with a formatted message.
func NotFoundf(format string, args ...any) error {
	return &Error{kind: ErrNotFound, message: fmt.Sprintf(format, args...)}
}

// Unauthorizedf builds an unauthorized error with a formatted message.
func Unauthorizedf(format string, args ...any) error {
	return &Error{kind: ErrUnauthorized, message: fmt.Sprintf(format, args...)}
}
