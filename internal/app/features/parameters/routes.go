// internal/app/features/parameters/routes.go
package parameters

import (
	"github.com/go-chi/chi/v5"
)

// Routes mounts the dues-parameter endpoints (typically under "/parameters").
// Fine-grained org access is enforced in the handlers via parameterpolicy.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Get("/{orgID}/{year}", h.ServeGet)
	r.Put("/{orgID}/{year}/fees", h.HandleFees)
	r.Put("/{orgID}/{year}/window", h.HandleWindow)
	return r
}
