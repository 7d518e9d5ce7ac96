// internal/app/features/memberships/handler.go
package memberships

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/memberhub/internal/app/system/gates"
	"github.com/dalemusser/memberhub/internal/app/system/httpjson"
	"github.com/dalemusser/memberhub/internal/app/system/inputval"
	"github.com/dalemusser/memberhub/internal/app/system/timeouts"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Store is the membership read surface. Membership creation and payment
// handling belong to the signup service, so this feature is read-only.
type Store interface {
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Membership, error)
	ListByOrg(ctx context.Context, orgID primitive.ObjectID, year int, status string) ([]models.Membership, error)
}

// Handler serves membership history.
type Handler struct {
	Memberships Store
	Log         *zap.Logger
}

// NewHandler constructs a memberships Handler.
func NewHandler(memberships Store, logger *zap.Logger) *Handler {
	return &Handler{Memberships: memberships, Log: logger}
}

// ServeOwn handles GET /memberships: the signed-in user's own history,
// newest year first.
func (h *Handler) ServeOwn(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	list, err := h.Memberships.ListByUser(ctx, res.UserID)
	if err != nil {
		h.Log.Error("list own memberships failed", zap.String("user_id", res.UserID.Hex()), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load memberships")
		return
	}
	if list == nil {
		list = []models.Membership{}
	}
	httpjson.OK(w, list)
}

// ServeOrg handles GET /memberships/org/{orgID}?year=&status= for admins of
// that organization. Both filters are optional.
func (h *Handler) ServeOrg(w http.ResponseWriter, r *http.Request) {
	orgID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "orgID"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid organization id")
		return
	}

	res := gates.RequireOrgAdmin(w, r, orgID)
	if !res.OK {
		return
	}

	year := 0
	if raw := r.URL.Query().Get("year"); raw != "" {
		year, err = strconv.Atoi(raw)
		if err != nil || !inputval.IsValidYear(year) {
			httpjson.Error(w, http.StatusBadRequest, "invalid year")
			return
		}
	}
	status := r.URL.Query().Get("status")
	if status != "" && !inputval.IsValidMembershipStatus(status) {
		httpjson.Error(w, http.StatusBadRequest, "invalid membership status")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	list, err := h.Memberships.ListByOrg(ctx, orgID, year, status)
	if err != nil {
		h.Log.Error("list org memberships failed", zap.String("org_id", orgID.Hex()), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load memberships")
		return
	}
	if list == nil {
		list = []models.Membership{}
	}
	httpjson.OK(w, list)
}
