// internal/app/features/articles/routes.go
package articles

import (
	"github.com/go-chi/chi/v5"
)

// Routes mounts the article endpoints (typically under "/articles").
// Reads are open to all signed-in users with per-article visibility applied
// in the handlers; writes require an admin of the owning organization.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Get("/{id}", h.ServeGet)
	r.Put("/{id}", h.HandleUpdate)
	r.Delete("/{id}", h.HandleDelete)
	return r
}
