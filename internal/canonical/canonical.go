// Package canonical defines the shared error taxonomy. Content generation,
// upstream fetches and browser rendering all translate their failures into one
// of these kinds at the boundary; handlers map each kind to exactly one HTTP
// status and a human-readable page.
package canonical

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure independent of where it originated.
type Kind int

const (
	Unknown Kind = iota
	NotFound
	InvalidArgument
	PermissionDenied
	FailedPrecondition
	DeadlineExceeded
	Misconfigured
	UpstreamUnavailable
	UpstreamInvalidResponse
	InternalRender
)

// String returns the kind name for logs.
func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case InvalidArgument:
		return "invalid_argument"
	case PermissionDenied:
		return "permission_denied"
	case FailedPrecondition:
		return "failed_precondition"
	case DeadlineExceeded:
		return "deadline_exceeded"
	case Misconfigured:
		return "misconfigured"
	case UpstreamUnavailable:
		return "upstream_unavailable"
	case UpstreamInvalidResponse:
		return "upstream_invalid_response"
	case InternalRender:
		return "internal_render"
	default:
		return "unknown"
	}
}

// HTTPStatus maps the kind to its stable outward status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case NotFound:
		return http.StatusNotFound
	case InvalidArgument:
		return http.StatusBadRequest
	case PermissionDenied:
		return http.StatusForbidden
	case FailedPrecondition:
		return http.StatusPreconditionFailed
	case DeadlineExceeded:
		return http.StatusGatewayTimeout
	case UpstreamUnavailable, UpstreamInvalidResponse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error carries a kind, a message for the user-facing error page and an
// optional wrapped cause.
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

// New creates an error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a kind and message to an underlying cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from an error chain, Unknown if none is present.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return Unknown
}

// MessageOf extracts the user-facing message, falling back to a generic one.
func MessageOf(err error) string {
	var ce *Error
	if errors.As(err, &ce) && ce.Message != "" {
		return ce.Message
	}
	return "It's unclear what happened, but it was not good."
}
