// internal/app/features/preferences/handler.go
package preferences

import (
	"context"
	"net/http"

	"github.com/dalemusser/memberhub/internal/app/system/gates"
	"github.com/dalemusser/memberhub/internal/app/system/httpjson"
	"github.com/dalemusser/memberhub/internal/app/system/timeouts"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Store is the preference persistence surface the handler needs.
type Store interface {
	GetOrCreate(ctx context.Context, userID primitive.ObjectID) (models.Preference, error)
	Update(ctx context.Context, userID primitive.ObjectID, ownOrg, otherOrg, healthAlerts bool) (models.Preference, error)
}

// Handler serves a user's own communication preferences. There is no
// admin view of other people's preferences; opt-ins are private.
type Handler struct {
	Prefs Store
	Log   *zap.Logger
}

// NewHandler constructs a preferences Handler.
func NewHandler(prefs Store, logger *zap.Logger) *Handler {
	return &Handler{Prefs: prefs, Log: logger}
}

// preferencePayload is the PUT body and the response shape.
type preferencePayload struct {
	OwnOrgCommunications   bool `json:"own_org_communications"`
	OtherOrgCommunications bool `json:"other_org_communications"`
	HealthAlerts           bool `json:"health_alerts"`
}

func toPayload(p models.Preference) preferencePayload {
	return preferencePayload{
		OwnOrgCommunications:   p.OwnOrgCommunications,
		OtherOrgCommunications: p.OtherOrgCommunications,
		HealthAlerts:           p.HealthAlerts,
	}
}

// ServeGet handles GET /preferences. A first read creates the document with
// the default flags, so the response is never empty.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short)
	defer cancel()

	pref, err := h.Prefs.GetOrCreate(ctx, res.UserID)
	if err != nil {
		h.Log.Error("get preferences failed", zap.String("user_id", res.UserID.Hex()), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load preferences")
		return
	}
	httpjson.OK(w, toPayload(pref))
}

// HandleUpdate handles PUT /preferences, replacing all three flags.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	var body preferencePayload
	if err := httpjson.Decode(w, r, &body); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short)
	defer cancel()

	pref, err := h.Prefs.Update(ctx, res.UserID, body.OwnOrgCommunications, body.OtherOrgCommunications, body.HealthAlerts)
	if err != nil {
		h.Log.Error("update preferences failed", zap.String("user_id", res.UserID.Hex()), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not save preferences")
		return
	}
	httpjson.OK(w, toPayload(pref))
}
