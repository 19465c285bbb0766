// Package apperr defines the error kinds surfaced by the invoicing API.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	KindInternal     Kind = iota // unexpected or infrastructure failure
	KindValidation               // malformed or missing input
	KindUnauthorized             // missing/invalid credentials or token
	KindNotFound                 // missing or owned by another tenant
	KindPolicy                   // business rule violation
)

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string // field path -> message, validation only
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Validation returns a validation error. fields may be nil.
func Validation(msg string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Fields: fields}
}

// Field returns a validation error for a single field.
func Field(field, msg string) *Error {
	return Validation(msg, map[string]string{field: msg})
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

// NotFound reports a missing record. Records owned by another tenant are
// reported the same way.
func NotFound(entity string) *Error {
	return &Error{Kind: KindNotFound, Message: entity + " not found"}
}

func Policy(msg string) *Error {
	return &Error{Kind: KindPolicy, Message: msg}
}

// Internal wraps an infrastructure error with context.
func Internal(err error, format string, args ...any) *Error {
	return &Error{Kind: KindInternal, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of err, KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
