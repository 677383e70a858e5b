// Package apperr defines the error taxonomy shared by all services. Every
// failure surfaced to a caller falls into one of five kinds; handlers map
// kinds to HTTP status codes and never expose wrapped internal detail.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindAuth
	KindUpstream
)

// Error carries a caller-facing message and an optional wrapped cause.
// The cause is for server-side logs only.
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

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validation reports a missing or malformed required field.
func Validation(message string) *Error { return New(KindValidation, message) }

// NotFound reports an absent referenced entity.
func NotFound(message string) *Error { return New(KindNotFound, message) }

// Conflict reports a uniqueness or single-use violation.
func Conflict(message string) *Error { return New(KindConflict, message) }

// Auth reports a rejected token or credential.
func Auth(message string) *Error { return New(KindAuth, message) }

// Upstream reports a persistence or object-storage failure.
func Upstream(message string, err error) *Error {
	return Wrap(KindUpstream, message, err)
}

// KindOf extracts the kind from err, or KindUnknown if err does not carry one.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Message returns the caller-facing message for err. Errors outside the
// taxonomy collapse to a generic message so internals never leak.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}

// Status maps an error to the HTTP status handlers should respond with.
func Status(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindAuth:
		return http.StatusUnauthorized
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
