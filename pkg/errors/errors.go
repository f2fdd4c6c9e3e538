package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind discriminates how an error reached us, independent of its HTTP status.
type Kind string

const (
	KindNetwork    Kind = "network"
	KindHTTP       Kind = "http"
	KindDecode     Kind = "decode"
	KindStorage    Kind = "storage"
	KindValidation Kind = "validation"
	KindInternal   Kind = "internal"
)

// Error represents a typed client error with HTTP awareness.
type Error struct {
	Kind    Kind   `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status,omitempty"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(kind Kind, code string, status int, message string) *Error {
	return &Error{Kind: kind, Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, kind Kind, code string, status int, message string) *Error {
	return &Error{Kind: kind, Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrInvalidCredentials = New(KindHTTP, "INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrSessionRejected    = New(KindHTTP, "SESSION_REJECTED", http.StatusUnauthorized, "session expired or revoked")
	ErrNetworkUnavailable = New(KindNetwork, "NETWORK_UNAVAILABLE", 0, "could not reach the server")
	ErrServerFault        = New(KindHTTP, "SERVER_FAULT", http.StatusInternalServerError, "server error")
	ErrCorruptedState     = New(KindStorage, "CORRUPTED_STATE", 0, "persisted session data unreadable")
	ErrNotFound           = New(KindStorage, "NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrValidation         = New(KindValidation, "VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New(KindInternal, "INTERNAL_ERROR", http.StatusInternalServerError, "internal error")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Kind, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// KindOf reports the Kind of an error, or KindInternal for untyped errors.
func KindOf(err error) Kind {
	e := FromError(err)
	if e == nil {
		return ""
	}
	return e.Kind
}

// IsNetwork reports whether no HTTP response reached the client at all.
func IsNetwork(err error) bool {
	return KindOf(err) == KindNetwork
}

// HTTPStatus extracts the HTTP status carried by an error, when one exists.
func HTTPStatus(err error) (int, bool) {
	e := FromError(err)
	if e == nil || e.Kind != KindHTTP || e.Status == 0 {
		return 0, false
	}
	return e.Status, true
}
