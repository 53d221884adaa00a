// internal/app/features/shared/request.go

// Package shared holds the request helpers every feature handler uses.
package shared

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	apierrors "github.com/AbnetS/bidir-group/internal/app/features/errors"
	"github.com/AbnetS/bidir-group/internal/app/system/apperr"
	"github.com/AbnetS/bidir-group/internal/app/system/authz"
)

// Caller extracts the gateway identity and checks the permission oracle.
// On failure it writes the forbidden envelope and returns ok=false.
func Caller(w http.ResponseWriter, r *http.Request, oracle *authz.Oracle, action authz.Action) (authz.User, bool) {
	user, ok := authz.FromContext(r.Context())
	if !ok || !oracle.IsPermitted(user, action) {
		apierrors.Forbidden(w)
		return authz.User{}, false
	}
	return user, true
}

// PathID parses an ObjectID path parameter.
func PathID(r *http.Request, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		return primitive.NilObjectID, apperr.Newf(apperr.Validation, "invalid %s", name)
	}
	return id, nil
}

// DecodeJSON decodes the request body into v, rejecting unknown fields.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperr.Wrap(apperr.Validation, "malformed request body", err)
	}
	return nil
}
