// internal/app/system/apperr/apperr.go

// Package apperr classifies service errors so that handlers can map them to
// HTTP responses without inspecting message text.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the coarse error class carried in API error envelopes.
type Kind string

const (
	// Validation marks a malformed or semantically invalid request.
	Validation Kind = "validation"
	// NotFound marks a missing group, history, or stage record.
	NotFound Kind = "not_found"
	// Conflict marks a request that is valid but collides with current
	// state, such as starting a stage that already exists for the cycle.
	Conflict Kind = "conflict"
	// Gate marks a cycle-gate rejection: an earlier stage is still open or
	// ended in a blocking state.
	Gate Kind = "gate"
	// Forbidden marks a caller whose role is not granted the operation.
	Forbidden Kind = "forbidden"
	// Upstream marks a failed call to a stage service.
	Upstream Kind = "upstream"
	// Internal marks everything else.
	Internal Kind = "internal"
)

// E is a classified error.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *E) Unwrap() error { return e.Err }

// New builds a classified error with a caller-facing message.
func New(kind Kind, message string) *E {
	return &E{Kind: kind, Message: message}
}

// Newf builds a classified error with a formatted message.
func Newf(kind Kind, format string, args ...any) *E {
	return &E{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, message string, err error) *E {
	return &E{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from an error chain, defaulting to Internal.
func KindOf(err error) Kind {
	var e *E
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// MessageOf extracts the caller-facing message, hiding internals.
func MessageOf(err error) string {
	var e *E
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}

// StatusCode maps a kind to its HTTP status.
func StatusCode(err error) int {
	switch KindOf(err) {
	case Validation:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Conflict, Gate:
		return http.StatusConflict
	case Forbidden:
		return http.StatusForbidden
	case Upstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
