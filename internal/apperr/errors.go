// Package apperr defines the error taxonomy shared by the draft core and
// translated to transport codes at the HTTP boundary.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an application error.
type Kind int

const (
	// KindInternal is a repository or other infrastructure failure. Details
	// are logged, never surfaced to the caller.
	KindInternal Kind = iota
	// KindNotFound means a draft/option/pick reference did not resolve.
	KindNotFound
	// KindForbidden means the actor lacks standing (not a participant, not
	// on the clock, not admin, challenged player voting).
	KindForbidden
	// KindValidation means malformed input.
	KindValidation
	// KindTimedOut means the turn timer had expired at submission time.
	KindTimedOut
	// KindConflict means a concurrent-write race on pick number or a
	// duplicate curated-option use.
	KindConflict
	// KindInvalidOption means a curated option reference does not exist or
	// was already consumed.
	KindInvalidOption
)

// Error carries a taxonomy kind together with a caller-safe message.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// NotFound builds a KindNotFound error.
func NotFound(format string, args ...any) *Error { return New(KindNotFound, format, args...) }

// Forbidden builds a KindForbidden error.
func Forbidden(format string, args ...any) *Error { return New(KindForbidden, format, args...) }

// Validation builds a KindValidation error.
func Validation(format string, args ...any) *Error { return New(KindValidation, format, args...) }

// TimedOut builds a KindTimedOut error.
func TimedOut(format string, args ...any) *Error { return New(KindTimedOut, format, args...) }

// Conflict builds a KindConflict error.
func Conflict(format string, args ...any) *Error { return New(KindConflict, format, args...) }

// InvalidOption builds a KindInvalidOption error.
func InvalidOption(format string, args ...any) *Error {
	return New(KindInvalidOption, format, args...)
}

// Internal wraps an infrastructure failure.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Msg: "internal error", Err: err}
}

// KindOf extracts the taxonomy kind from err, defaulting to KindInternal for
// unclassified errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
