// internal/app/features/histories/routes.go
package histories

import (
	"github.com/go-chi/chi/v5"
)

// Routes mounts the group-history endpoints (typically at "/histories").
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/search", h.ServeSearch)
	r.Get("/paginate", h.ServeList)
	r.Get("/{groupId}", h.ServeFetchByGroup)
	r.Get("/{groupId}/active", h.ServeActiveCycle)

	return r
}
