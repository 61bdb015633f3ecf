// Package errors provides error handling for CEN.
//
// This package re-exports github.com/cockroachdb/errors, providing stack
// traces, error wrapping, and user-facing hints, plus the sentinel errors
// shared across the CE engine and its collaborators.
//
// Usage:
//
//	if err := store.Load(path); err != nil {
//	    return errors.Wrap(err, "failed to load model")
//	}
//
//	if errors.Is(err, errors.ErrUnknownConcept) {
//	    // the sentence referenced a type that was never conceptualised
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New         = crdb.New
	Newf        = crdb.Newf
	Wrap        = crdb.Wrap
	Wrapf       = crdb.Wrapf
	WithStack   = crdb.WithStack
	WithMessage = crdb.WithMessage
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

// Sentinel errors for use across CEN.
// Wrap these with errors.Wrap() to add context while preserving the type.
var (
	// ErrNotFound indicates the requested concept, instance, or resource
	// does not exist
	ErrNotFound = New("not found")

	// ErrNoMatch indicates a sentence matched none of the CE grammar
	// productions; callers typically fall back to question parsing or
	// natural-language guessing
	ErrNoMatch = New("no grammar match")

	// ErrUnknownConcept indicates a sentence referenced a concept name
	// that has never been conceptualised (types are closed-world)
	ErrUnknownConcept = New("unknown concept")

	// ErrDuplicateConcept indicates an attempt to conceptualise a name
	// that already names a concept
	ErrDuplicateConcept = New("concept already exists")

	// ErrInvalidRequest indicates a malformed request at an API boundary
	ErrInvalidRequest = New("invalid request")
)

// IsNotFoundError checks if an error is or wraps ErrNotFound.
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsNoMatchError checks if an error is or wraps ErrNoMatch.
func IsNoMatchError(err error) bool {
	return err != nil && Is(err, ErrNoMatch)
}

// NewNotFoundError creates a not-found error with a formatted message.
func NewNotFoundError(format string, args ...interface{}) error {
	return Wrap(ErrNotFound, Newf(format, args...).Error())
}

// NewUnknownConceptError creates an unknown-concept error naming the
// offending token from the sentence.
func NewUnknownConceptError(token string) error {
	return Wrapf(ErrUnknownConcept, "the concept '%s' is not known", token)
}
