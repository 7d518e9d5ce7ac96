// internal/app/features/memberships/routes.go
package memberships

import (
	"github.com/go-chi/chi/v5"
)

// Routes mounts the membership endpoints (typically under "/memberships").
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeOwn)
	r.Get("/org/{orgID}", h.ServeOrg)
	return r
}
