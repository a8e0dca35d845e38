// Package apperrors defines the error kinds surfaced by the API and their
// HTTP status codes.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindProductUnavailable
	KindSizeUnavailable
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindConflict
	KindInvalidOrderState
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindProductUnavailable:
		return "product_unavailable"
	case KindSizeUnavailable:
		return "size_unavailable"
	case KindAuthentication:
		return "authentication_error"
	case KindAuthorization:
		return "authorization_error"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindInvalidOrderState:
		return "invalid_order_state"
	default:
		return "internal_error"
	}
}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindValidation, KindProductUnavailable, KindSizeUnavailable, KindConflict, KindInvalidOrderState:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...interface{}) *Error {
	return newf(KindValidation, format, args...)
}

func ProductUnavailable(format string, args ...interface{}) *Error {
	return newf(KindProductUnavailable, format, args...)
}

func SizeUnavailable(format string, args ...interface{}) *Error {
	return newf(KindSizeUnavailable, format, args...)
}

func Authentication(format string, args ...interface{}) *Error {
	return newf(KindAuthentication, format, args...)
}

func Authorization(format string, args ...interface{}) *Error {
	return newf(KindAuthorization, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return newf(KindNotFound, format, args...)
}

func Conflict(format string, args ...interface{}) *Error {
	return newf(KindConflict, format, args...)
}

func InvalidOrderState(format string, args ...interface{}) *Error {
	return newf(KindInvalidOrderState, format, args...)
}

// Internal wraps an unexpected failure. The message is the only part a client
// ever sees.
func Internal(err error, message string) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf reports the kind of err; untyped errors are internal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// PublicMessage is the message safe to return to a caller.
func PublicMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind != KindInternal {
		return appErr.Message
	}
	return "internal server error"
}

// HTTPStatus is the response code for err.
func HTTPStatus(err error) int {
	return KindOf(err).Status()
}
