package core

import (
	"context"
	"errors"
)

// ErrNotFound is returned by backend stores when a record does not exist
// or is not visible to the caller.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned by backend stores on a uniqueness violation.
var ErrConflict = errors.New("already exists")

// Code is a machine-readable failure class for remote calls.
type Code string

const (
	CodeUnknown         Code = "UNKNOWN"
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidation      Code = "VALIDATION"
	CodeNetwork         Code = "NETWORK"
)

// Error is a classified remote-call failure. Message is human readable and
// is surfaced to the user verbatim.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil && e.Message == "" {
		return e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// Sentinels for errors.Is comparisons.
var (
	ErrUnauthenticated = &Error{Code: CodeUnauthenticated}
	ErrValidation      = &Error{Code: CodeValidation}
	ErrNetwork         = &Error{Code: CodeNetwork}
	ErrRemoteNotFound  = &Error{Code: CodeNotFound}
)

func Unauthenticated(message string, cause error) *Error {
	return &Error{Code: CodeUnauthenticated, Message: message, Cause: cause}
}

func NotFound(message string, cause error) *Error {
	return &Error{Code: CodeNotFound, Message: message, Cause: cause}
}

func Validation(message string, cause error) *Error {
	return &Error{Code: CodeValidation, Message: message, Cause: cause}
}

func Network(message string, cause error) *Error {
	return &Error{Code: CodeNetwork, Message: message, Cause: cause}
}

// CodeOf returns the code carried by err, or CodeUnknown.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// Classify converts an arbitrary error from a remote call into an *Error.
// Deadline and cancellation errors become Network failures.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Network("request timed out", err)
	case errors.Is(err, context.Canceled):
		return Network("request cancelled", err)
	case errors.Is(err, ErrNotFound):
		return NotFound(err.Error(), err)
	}
	return Network(err.Error(), err)
}
