package common

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a domain failure. Handlers map it to a status code, services
// never need to know about HTTP.
type Kind uint8

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindConflict
	KindState
	KindDependency
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindState:
		return "state"
	case KindDependency:
		return "dependency"
	default:
		return "internal"
	}
}

// HTTPStatus returns the status code used when a failure of this kind reaches
// the API boundary.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindState:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindDependency:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error is the structured failure returned by every service operation.
type Error struct {
	Kind    Kind
	Message string
	// Fields holds per-field messages for validation failures.
	Fields map[string]string

	cause error
}

// Sentinels for errors.Is checks by kind.
var (
	ErrValidation      = &Error{Kind: KindValidation}
	ErrUnauthenticated = &Error{Kind: KindAuthentication}
	ErrForbidden       = &Error{Kind: KindAuthorization}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrConflict        = &Error{Kind: KindConflict}
	ErrState           = &Error{Kind: KindState}
	ErrDependency      = &Error{Kind: KindDependency}
)

func E(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Invalid(message string) *Error         { return E(KindValidation, message) }
func Unauthenticated(message string) *Error { return E(KindAuthentication, message) }
func Forbidden(message string) *Error       { return E(KindAuthorization, message) }
func NotFound(message string) *Error        { return E(KindNotFound, message) }
func Conflict(message string) *Error        { return E(KindConflict, message) }
func State(message string) *Error           { return E(KindState, message) }

// Dependency reports a failed call to the blob store, the broker or another
// collaborator. The cause is kept for logging but never rendered to clients.
func Dependency(message string, cause error) *Error {
	return &Error{Kind: KindDependency, Message: message, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%s: %+v", e.Kind, e.Fields)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches sentinels by kind and everything else by identity.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Message == "" && t.Fields == nil {
		return t.Kind == e.Kind
	}
	return t == e
}

// WithCause returns a copy of e wrapping err.
func (e *Error) WithCause(err error) *Error {
	c := *e
	c.cause = err
	return &c
}

// KindOf reports the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
