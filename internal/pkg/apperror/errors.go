package apperror

import (
	"errors"
	"net/http"
)

// Kind is the stable machine-readable error category sent to clients
type Kind string

const (
	KindValidation        Kind = "VALIDATION_ERROR"
	KindAuthorization     Kind = "FORBIDDEN"
	KindInvalidTransition Kind = "INVALID_TRANSITION"
	KindNotFound          Kind = "NOT_FOUND"
	KindConflict          Kind = "CONFLICT"
	KindAuthentication    Kind = "UNAUTHORIZED"
	KindRateLimited       Kind = "RATE_LIMIT_EXCEEDED"
)

// Kind markers usable with errors.Is
var (
	ErrValidation        = &Error{Kind: KindValidation}
	ErrAuthorization     = &Error{Kind: KindAuthorization}
	ErrInvalidTransition = &Error{Kind: KindInvalidTransition}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrConflict          = &Error{Kind: KindConflict}
	ErrAuthentication    = &Error{Kind: KindAuthentication}
	ErrRateLimited       = &Error{Kind: KindRateLimited}
)

// Error is a business-rule violation surfaced at the request boundary
type Error struct {
	Kind    Kind
	Message string
	Details map[string]string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// Is matches kind markers (errors without a message) by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Message == "" {
		return t.Kind == e.Kind
	}
	return t == e
}

// Detailed is implemented by errors that carry structured details for clients
type Detailed interface {
	ErrorDetails() map[string]string
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Validation(message string) *Error { return New(KindValidation, message) }
func Forbidden(message string) *Error { return New(KindAuthorization, message) }
func NotFound(message string) *Error { return New(KindNotFound, message) }
func Conflict(message string) *Error { return New(KindConflict, message) }
func Unauthenticated(message string) *Error { return New(KindAuthentication, message) }

// KindOf returns the kind of err, or "" for errors outside the taxonomy
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// HTTPStatus maps a kind to its HTTP status code
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindAuthorization:
		return http.StatusForbidden
	case KindInvalidTransition, KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
