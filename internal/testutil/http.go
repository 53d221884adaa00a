// internal/testutil/http.go
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AbnetS/bidir-group/internal/app/system/authz"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// OfficerUser returns a caller with the loan_officer role.
func OfficerUser() authz.User {
	return authz.User{ID: primitive.NewObjectID(), Role: "loan_officer"}
}

// ViewerUser returns a caller with the read-only viewer role.
func ViewerUser() authz.User {
	return authz.User{ID: primitive.NewObjectID(), Role: "viewer"}
}

// NewRequest creates a request with the caller attached to the context,
// the way authz.Middleware would after validating gateway headers.
func NewRequest(t *testing.T, method, target string, user authz.User, body any) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(authz.HeaderUserID, user.ID.Hex())
	req.Header.Set(authz.HeaderUserRole, user.Role)
	return req.WithContext(authz.WithUser(req.Context(), user))
}

// DecodeBody decodes a JSON response body into v.
func DecodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
}
