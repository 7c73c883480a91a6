// Package apperr defines the error taxonomy shared by all layers. Handlers,
// middleware and services signal failures through *Error values; the HTTP
// error handler maps each kind to a status code and decides how much detail
// is safe to reveal for the current environment.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies a failure. The set is closed: every error surfaced to the
// boundary carries exactly one of these.
type Kind int

const (
	// Validation covers malformed or constraint-violating input.
	Validation Kind = iota
	// Authentication covers missing, invalid, expired or stale credentials.
	Authentication
	// Authorization covers a valid credential with an insufficient role.
	Authorization
	// NotFound covers lookups of resources that do not exist.
	NotFound
	// Delivery covers downstream notification channel failures.
	Delivery
	// Internal covers everything unexpected.
	Internal
)

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case Validation:
		return http.StatusBadRequest
	case Authentication:
		return http.StatusUnauthorized
	case Authorization:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Delivery:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Operational reports whether errors of this kind are safe to show to the
// caller verbatim. Internal errors are not: their detail is suppressed
// outside development mode.
func (k Kind) Operational() bool { return k != Internal }

// Error is a classified application error. Message is the caller-facing
// text; Err, when set, is the underlying cause and stays out of production
// responses.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error of the given kind around an underlying cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Internalf wraps an unexpected error with a generic caller-facing message.
func Internalf(err error) *Error {
	return &Error{Kind: Internal, Message: "something went very wrong", Err: err}
}

// KindOf extracts the kind from an error chain. Unclassified errors are
// treated as Internal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Internal
}
