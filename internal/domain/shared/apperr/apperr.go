// Package apperr defines the error taxonomy shared by the booking core and
// mapped to transport status codes at the HTTP boundary.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation        Kind = "validation"
	KindNotFound          Kind = "not_found"
	KindConflict          Kind = "conflict"
	KindInsufficientFunds Kind = "insufficient_funds"
	KindSignatureMismatch Kind = "signature_mismatch"
	KindDependency        Kind = "dependency"
	KindUnauthorized      Kind = "unauthorized"
	KindForbidden         Kind = "forbidden"
	KindInternal          Kind = "internal"
)

// Error attaches a Kind and the failing operation to an underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Err != nil:
		return e.Err.Error()
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	default:
		return e.Msg
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a sentinel-style error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap decorates err with a kind and operation name. A nil err stays nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func Validation(op string, err error) error { return Wrap(KindValidation, op, err) }
func NotFound(op string, err error) error   { return Wrap(KindNotFound, op, err) }
func Conflict(op string, err error) error   { return Wrap(KindConflict, op, err) }
func Dependency(op string, err error) error { return Wrap(KindDependency, op, err) }

// KindOf returns the innermost-first kind found on the chain, or KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var ce *CancellationError
	if errors.As(err, &ce) {
		return KindOf(ce.Err)
	}
	var e *Error
	for errors.As(err, &e) {
		if e.Kind != "" {
			return e.Kind
		}
		if e.Err == nil {
			break
		}
		err = e.Err
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// CancellationError marks a failure inside the cancellation workflow.
type CancellationError struct {
	Op  string
	Err error
}

func (e *CancellationError) Error() string {
	return fmt.Sprintf("cancellation %s: %v", e.Op, e.Err)
}

func (e *CancellationError) Unwrap() error {
	return e.Err
}

// Cancellation wraps err in a CancellationError unless it already is one.
func Cancellation(op string, err error) error {
	if err == nil {
		return nil
	}
	var ce *CancellationError
	if errors.As(err, &ce) {
		return err
	}
	return &CancellationError{Op: op, Err: err}
}
