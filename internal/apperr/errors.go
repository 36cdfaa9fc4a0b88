// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

// Package apperr defines the error taxonomy shared by the store, the transport
// codec and the command dispatcher.
//
// Every failure that reaches the dispatcher boundary is classified into one of
// the Kind values below and rendered into the response envelope. Wrapped driver
// or library errors stay reachable through errors.Unwrap.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	// KindInternal is an unexpected failure (store unavailable, driver error).
	KindInternal Kind = iota
	// KindNotFound means the addressed entity does not exist.
	KindNotFound
	// KindConflict is a uniqueness or duplicate-membership violation.
	KindConflict
	// KindInvalidCredential is an authentication mismatch.
	KindInvalidCredential
	// KindTransport is a malformed or undecryptable request or response.
	KindTransport
	// KindUnknownCommand is a command name outside the command table.
	KindUnknownCommand
	// KindValidation is malformed numeric, date or enum input.
	KindValidation
)

// String returns the taxonomy name used in logs and envelopes.
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindConflict:
		return "Conflict"
	case KindInvalidCredential:
		return "InvalidCredential"
	case KindTransport:
		return "TransportError"
	case KindUnknownCommand:
		return "UnknownCommand"
	case KindValidation:
		return "ValidationError"
	default:
		return "InternalError"
	}
}

// Sentinel errors for errors.Is comparisons against a kind.
var (
	ErrNotFound          = &Error{Kind: KindNotFound, Message: "not found"}
	ErrConflict          = &Error{Kind: KindConflict, Message: "conflict"}
	ErrInvalidCredential = &Error{Kind: KindInvalidCredential, Message: "invalid credentials"}
	ErrTransport         = &Error{Kind: KindTransport, Message: "transport error"}
	ErrUnknownCommand    = &Error{Kind: KindUnknownCommand, Message: "unknown command"}
	ErrValidation        = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrInternal          = &Error{Kind: KindInternal, Message: "internal error"}
)

// Error is a classified failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil && e.Message != "" {
		return e.Message + ": " + e.Err.Error()
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind. This lets callers
// write errors.Is(err, apperr.ErrNotFound) regardless of the message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// New creates a classified error with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err under kind with a message prefix.
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// NotFound returns a KindNotFound error.
func NotFound(format string, args ...interface{}) *Error {
	return New(KindNotFound, format, args...)
}

// Conflict returns a KindConflict error.
func Conflict(format string, args ...interface{}) *Error {
	return New(KindConflict, format, args...)
}

// InvalidCredential returns a KindInvalidCredential error.
func InvalidCredential(format string, args ...interface{}) *Error {
	return New(KindInvalidCredential, format, args...)
}

// Validation returns a KindValidation error.
func Validation(format string, args ...interface{}) *Error {
	return New(KindValidation, format, args...)
}

// Internal wraps an unexpected failure.
func Internal(err error, format string, args ...interface{}) *Error {
	return Wrap(KindInternal, err, format, args...)
}

// KindOf returns the kind of the first *Error in err's chain.
// Unclassified errors are KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
