// internal/app/features/preferences/routes.go
package preferences

import (
	"github.com/go-chi/chi/v5"
)

// Routes mounts the preferences endpoints (typically under "/preferences").
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeGet)
	r.Put("/", h.HandleUpdate)
	return r
}
