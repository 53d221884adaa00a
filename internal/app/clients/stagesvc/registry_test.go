// internal/app/clients/stagesvc/registry_test.go
package stagesvc

import (
	"net/http/httptest"
	"testing"
)

func TestForwardHeaders(t *testing.T) {
	req := httptest.NewRequest("POST", "/loans/initialize/abc", nil)
	req.Header.Set("Authorization", "Bearer token-1")
	req.Header.Set("X-User-Id", "5f1e3c2a9d8b7a6c5d4e3f2a")
	req.Header.Set("Cookie", "session=secret")

	out := ForwardHeaders(req.Header)
	if out.Get("Authorization") != "Bearer token-1" {
		t.Error("Authorization must be forwarded")
	}
	if out.Get("X-User-Id") != "5f1e3c2a9d8b7a6c5d4e3f2a" {
		t.Error("X-User-Id must be forwarded")
	}
	if out.Get("Cookie") != "" {
		t.Error("Cookie must not be forwarded")
	}
}
