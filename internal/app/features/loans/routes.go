// internal/app/features/loans/routes.go
package loans

import (
	"github.com/go-chi/chi/v5"
)

// Routes mounts the group-loan endpoints (typically at "/loans").
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/initialize/{groupId}", h.ServeInitialize)
	r.Get("/{groupId}", h.ServeFetchByGroup)
	r.Put("/{groupId}/submit", h.ServeSubmit)
	r.Put("/{groupId}/approve", h.ServeApprove)
	r.Put("/{groupId}/status", h.ServeUpdateStatus)

	return r
}
