package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error and decides its HTTP status.
type Kind int

const (
	KindTransient Kind = iota
	KindBadRequest
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "transient"
	}
}

// HTTPStatus maps the kind onto a response status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// AppError represents an application error
type AppError struct {
	Kind    Kind   `json:"-"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil && e.Err.Error() != e.Message {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Error constructors
func NotFound(message string) *AppError {
	return &AppError{Kind: KindNotFound, Message: message}
}

func BadRequest(message string, err error) *AppError {
	return &AppError{Kind: KindBadRequest, Message: message, Err: err}
}

func Unauthenticated(message string, err error) *AppError {
	return &AppError{Kind: KindUnauthenticated, Message: message, Err: err}
}

func Forbidden(message string) *AppError {
	return &AppError{Kind: KindForbidden, Message: message}
}

func Conflict(message string) *AppError {
	return &AppError{Kind: KindConflict, Message: message}
}

// Transient wraps an infrastructure failure. The underlying message is
// what clients see.
func Transient(err error) *AppError {
	msg := "internal server error"
	if err != nil {
		msg = err.Error()
	}
	return &AppError{Kind: KindTransient, Message: msg, Err: err}
}

// KindOf reports the kind of err, defaulting to KindTransient.
func KindOf(err error) Kind {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindTransient
}

// Is reports whether err is an AppError of the given kind.
func Is(err error, kind Kind) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr) && appErr.Kind == kind
}
