// internal/app/system/authz/authz.go

// Package authz answers yes/no permission questions for lifecycle
// operations. Authentication itself happens at the platform gateway; this
// service trusts the identity headers the gateway injects and only decides
// whether that identity's role covers the requested action.
package authz

import (
	"context"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Action is a permission the oracle can grant.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionView   Action = "VIEW"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// User is the authenticated caller as asserted by the gateway.
type User struct {
	ID   primitive.ObjectID
	Role string
}

// Oracle holds the role-to-action grant table.
type Oracle struct {
	grants map[string]map[Action]bool
}

// New builds the oracle with the platform's role grants.
func New() *Oracle {
	all := map[Action]bool{ActionCreate: true, ActionView: true, ActionUpdate: true, ActionDelete: true}
	return &Oracle{grants: map[string]map[Action]bool{
		"super":        all,
		"admin":        all,
		"branch_admin": {ActionCreate: true, ActionView: true, ActionUpdate: true},
		"loan_officer": {ActionCreate: true, ActionView: true, ActionUpdate: true},
		"viewer":       {ActionView: true},
	}}
}

// IsPermitted reports whether the user's role covers the action.
func (o *Oracle) IsPermitted(u User, action Action) bool {
	return o.grants[u.Role][action]
}

type ctxKey struct{}

// Headers the gateway injects on every proxied request.
const (
	HeaderUserID   = "X-User-Id"
	HeaderUserRole = "X-User-Role"
)

// Middleware pulls the gateway identity headers into the request context.
// Requests without a valid user id are rejected before any handler runs.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := primitive.ObjectIDFromHex(r.Header.Get(HeaderUserID))
		if err != nil {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":{"kind":"forbidden","message":"missing caller identity"}}`))
			return
		}
		user := User{ID: id, Role: r.Header.Get(HeaderUserRole)}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, user)))
	})
}

// WithUser attaches a caller to the context directly. Handler tests use
// this to bypass the middleware.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// FromContext returns the caller, and whether one was attached.
func FromContext(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(ctxKey{}).(User)
	return u, ok
}
