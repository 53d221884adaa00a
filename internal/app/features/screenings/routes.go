// internal/app/features/screenings/routes.go
package screenings

import (
	"github.com/go-chi/chi/v5"
)

// Routes mounts the group-screening endpoints (typically at "/screenings").
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/create", h.ServeStartCycle)
	r.Get("/{groupId}", h.ServeFetchByGroup)
	r.Put("/{groupId}/submit", h.ServeSubmit)
	r.Put("/{groupId}/approve", h.ServeApprove)
	r.Put("/{groupId}/status", h.ServeUpdateStatus)

	return r
}
