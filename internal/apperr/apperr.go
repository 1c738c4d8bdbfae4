// Package apperr defines the error taxonomy shared by the scoring pipeline.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers and transports
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidInput
	KindNotFound
	KindRateLimited
	KindQuotaExhausted
	KindServiceError
	KindFormatError
	KindForbidden
	KindConflict
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindNotFound:
		return "not_found"
	case KindRateLimited:
		return "rate_limited"
	case KindQuotaExhausted:
		return "quota_exhausted"
	case KindServiceError:
		return "service_error"
	case KindFormatError:
		return "format_error"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is a classified error. Msg is safe to show to end users; Err is not.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

// Error implements the error interface
func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Op != "":
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	default:
		return e.Msg
	}
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error without a cause
func New(kind Kind, op, msg string) error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// Wrap classifies err. A nil err yields nil.
func Wrap(kind Kind, op, msg string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
}

// KindOf returns the kind of the outermost classified error in the chain,
// or KindInternal when none is present.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err is classified as kind
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the user-facing reason for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Msg != "" {
		return e.Msg
	}
	return "internal error"
}

// Convenience constructors

func InvalidInput(op, msg string) error { return New(KindInvalidInput, op, msg) }

func NotFound(op, msg string) error { return New(KindNotFound, op, msg) }

func Forbidden(op, msg string) error { return New(KindForbidden, op, msg) }

func Conflict(op, msg string) error { return New(KindConflict, op, msg) }
