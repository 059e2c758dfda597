// Package apperr defines the error taxonomy shared by services, dialog flows,
// and the payment webhook server. Every error carries a Kind used to pick the
// user-facing reaction and a stable code exposed in logs.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for propagation decisions.
type Kind string

const (
	// KindValidation marks bad user input; dialogs re-prompt instead of aborting.
	KindValidation Kind = "VALIDATION"
	// KindNotFound marks a missing booking/car/payment/contract.
	KindNotFound Kind = "NOT_FOUND"
	// KindConflict marks a state conflict, e.g. the car is no longer available.
	KindConflict Kind = "CONFLICT"
	// KindAuthentication marks a webhook signature mismatch.
	KindAuthentication Kind = "AUTHENTICATION"
	// KindExternal marks a payment-provider failure.
	KindExternal Kind = "EXTERNAL_SERVICE"
	// KindInternal marks an unexpected persistence or infrastructure failure.
	KindInternal Kind = "INTERNAL"
)

// Error is the concrete taxonomy error. Msg is safe to show to the user;
// Err keeps the internal cause for logs.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Unwrap exposes the internal cause.
func (e *Error) Unwrap() error { return e.Err }

// Code reports the stable error code; the router's log summary picks it up.
func (e *Error) Code() string { return string(e.Kind) }

// UserMessage returns the text safe to surface in the conversation.
func (e *Error) UserMessage() string { return e.Msg }

// Validation builds a KindValidation error with a user-facing message.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// NotFound builds a KindNotFound error.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Conflict builds a KindConflict error.
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

// Authentication builds a KindAuthentication error.
func Authentication(format string, args ...any) *Error {
	return &Error{Kind: KindAuthentication, Msg: fmt.Sprintf(format, args...)}
}

// External wraps a provider failure.
func External(err error, format string, args ...any) *Error {
	return &Error{Kind: KindExternal, Msg: fmt.Sprintf(format, args...), Err: err}
}

// Internal wraps an unexpected failure behind a generic user message.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Msg: "something went wrong, please try again later", Err: err}
}

// KindOf extracts the Kind from err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err belongs to the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Message returns the user-facing text for err, falling back to a generic one.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return "something went wrong, please try again later"
}
