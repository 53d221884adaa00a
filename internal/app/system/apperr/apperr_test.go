// internal/app/system/apperr/apperr_test.go
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOf(t *testing.T) {
	if got := KindOf(New(Gate, "stage still open")); got != Gate {
		t.Errorf("KindOf = %s, want gate", got)
	}
	if got := KindOf(errors.New("plain")); got != Internal {
		t.Errorf("KindOf(plain) = %s, want internal", got)
	}

	wrapped := fmt.Errorf("handler: %w", New(NotFound, "Group Does Not Exist"))
	if got := KindOf(wrapped); got != NotFound {
		t.Errorf("KindOf must see through wrapping, got %s", got)
	}
}

func TestMessageOf(t *testing.T) {
	if got := MessageOf(New(Validation, "Group Name is Empty.")); got != "Group Name is Empty." {
		t.Errorf("MessageOf = %q", got)
	}
	if got := MessageOf(errors.New("sql: connection refused")); got != "internal server error" {
		t.Errorf("plain errors must not leak, got %q", got)
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := Wrap(Upstream, "stage service request failed", cause)
	if !errors.Is(err, cause) {
		t.Error("wrapped cause must stay in the chain")
	}
	if MessageOf(err) != "stage service request failed" {
		t.Errorf("MessageOf = %q", MessageOf(err))
	}
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{Validation, http.StatusBadRequest},
		{NotFound, http.StatusNotFound},
		{Conflict, http.StatusConflict},
		{Gate, http.StatusConflict},
		{Forbidden, http.StatusForbidden},
		{Upstream, http.StatusBadGateway},
		{Internal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusCode(New(tt.kind, "x")); got != tt.want {
			t.Errorf("StatusCode(%s) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}
