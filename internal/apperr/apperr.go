// internal/apperr/apperr.go
//
// Structured domain errors for Waypost.
//
// Context
// -------
// Every failing operation in the catalog, moderation, and session layers
// returns an *Error carrying a Kind.  The API layer maps the Kind onto an
// HTTP status and a generic, user-safe message; the internal message and
// wrapped cause go to the logger only, never over the wire.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	// Internal is the zero value so an unclassified error maps to 500.
	Internal Kind = iota
	Validation
	Unauthorized
	Forbidden
	NotFound
	MethodNotAllowed
)

// Error is the domain error type.  Message is internal detail; callers that
// face users must go through PublicMessage instead.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an *Error with a formatted internal message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause.  The cause text never reaches the client.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf extracts the Kind from err; unclassified errors count as Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// HTTPStatus maps a Kind onto its transport status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case Validation:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case MethodNotAllowed:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the generic per-kind text sent to clients.  Store and
// driver error strings stay out of responses.
func (k Kind) PublicMessage() string {
	switch k {
	case Validation:
		return "invalid request"
	case Unauthorized:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not found"
	case MethodNotAllowed:
		return "method not allowed"
	default:
		return "internal error"
	}
}
