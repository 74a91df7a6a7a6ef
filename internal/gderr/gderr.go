// Package gderr defines the error kinds of the error-handling design: a
// closed set of dispositions rather than a type per failure site, following
// the wrapped-error convention the rest of the module uses.
package gderr

import (
	"errors"
	"fmt"
)

// Kind is one of the error taxonomy entries in §7.
type Kind string

const (
	Closed          Kind = "closed"
	Parse           Kind = "parse"
	StoreBusy       Kind = "store-busy"
	StoreIntegrity  Kind = "store-integrity"
	Watcher         Kind = "watcher"
	Ownership       Kind = "ownership"
	IO              Kind = "io"
)

// Error wraps an underlying error with its taxonomy kind so callers can
// branch with errors.As without string matching.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err with a kind and the operation name for context.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
