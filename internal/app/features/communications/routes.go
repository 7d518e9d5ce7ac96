// internal/app/features/communications/routes.go
package communications

import (
	"github.com/go-chi/chi/v5"
)

// Routes mounts the communication endpoints (typically under
// "/communications"). Everything here is admin-facing; the gate in each
// handler enforces role and organization access, and communicationpolicy
// enforces the author-only edit rule.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Get("/{id}", h.ServeGet)
	r.Put("/{id}", h.HandleUpdate)
	r.Delete("/{id}", h.HandleDelete)
	r.Post("/{id}/send", h.HandleSend)
	return r
}
