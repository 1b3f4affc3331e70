// Package apperr defines the error taxonomy every layer of the service
// reports through. Handlers translate kinds to HTTP statuses in one place
// so storage details never leak to clients.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for propagation and retry semantics.
type Kind int

const (
	// Authentication covers bad credentials. Unknown handle and wrong
	// secret must be indistinguishable on this surface.
	Authentication Kind = iota + 1
	// Authorization covers role, approval and active-state denials.
	Authorization
	// Validation covers malformed or missing input, detected before any
	// store mutation.
	Validation
	// Conflict covers duplicate handles and double state transitions.
	Conflict
	// NotFound covers operations on nonexistent records where the
	// operation is not defined as idempotent.
	NotFound
	// Storage covers underlying persistence failures. The only kind a
	// caller should retry with backoff.
	Storage
)

func (k Kind) String() string {
	switch k {
	case Authentication:
		return "AUTHENTICATION"
	case Authorization:
		return "AUTHORIZATION"
	case Validation:
		return "VALIDATION"
	case Conflict:
		return "CONFLICT"
	case NotFound:
		return "NOT_FOUND"
	case Storage:
		return "STORAGE"
	}
	return "UNKNOWN"
}

// Error carries a kind, a client-safe message, and an optional cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an error of the given kind with a client-safe message.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf is New with formatting.
func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying cause.
func Wrap(kind Kind, msg string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the kind from err; unclassified errors report Storage so
// internal detail never reaches a client by accident.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Storage
}

// Message returns the client-safe message for err. Unclassified errors get
// a generic one.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return "internal error"
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
