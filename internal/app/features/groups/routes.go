// internal/app/features/groups/routes.go
package groups

import (
	"github.com/go-chi/chi/v5"
)

// Routes mounts the group endpoints under the path where this router is
// mounted (typically "/groups" from bootstrap).
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/create", h.ServeCreate)
	r.Get("/paginate", h.ServeList)
	r.Get("/{id}", h.ServeFetchOne)
	r.Put("/{id}", h.ServeUpdate)
	r.Get("/{id}/members", h.ServeMembers)
	r.Put("/{id}/members", h.ServeAddMembers)
	r.Put("/{id}/leader", h.ServeAddLeader)
	r.Put("/{id}/status", h.ServeUpdateStatus)

	return r
}
