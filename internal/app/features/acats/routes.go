// internal/app/features/acats/routes.go
package acats

import (
	"github.com/go-chi/chi/v5"
)

// Routes mounts the group-ACAT endpoints (typically at "/acats").
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/create", h.ServeCreate)
	r.Post("/initialize/{groupId}", h.ServeInitializeMember)
	r.Get("/{groupId}", h.ServeFetchByGroup)
	r.Put("/{groupId}/submit", h.ServeSubmit)
	r.Put("/{groupId}/approve", h.ServeApprove)
	r.Put("/{groupId}/status", h.ServeUpdateStatus)

	return r
}
