package models

import "fmt"

type ErrorKind string

const (
	KindValidation      ErrorKind = "validation"
	KindConflict        ErrorKind = "conflict"
	KindNotFound        ErrorKind = "not_found"
	KindUnauthenticated ErrorKind = "unauthenticated"
	KindForbidden       ErrorKind = "forbidden"
)

// Error is a user-facing domain failure. Two errors are equal under
// errors.Is when their kinds match, so callers can test against the
// sentinels below.
type Error struct {
	Kind    ErrorKind
	Field   string
	Message string
}

var (
	ErrValidation      = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrConflict        = &Error{Kind: KindConflict, Message: "conflict"}
	ErrNotFound        = &Error{Kind: KindNotFound, Message: "not found"}
	ErrUnauthenticated = &Error{Kind: KindUnauthenticated, Message: "invalid username or password"}
	ErrForbidden       = &Error{Kind: KindForbidden, Message: "forbidden"}
)

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func NewValidationError(field, message string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

func NewConflictError(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func NewNotFoundError(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func NewForbiddenError(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}
