// internal/app/features/parameters/handler.go
package parameters

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	parameterstore "github.com/dalemusser/memberhub/internal/app/store/parameters"

	"github.com/dalemusser/memberhub/internal/app/policy/parameterpolicy"
	"github.com/dalemusser/memberhub/internal/app/system/authz"
	"github.com/dalemusser/memberhub/internal/app/system/httpjson"
	"github.com/dalemusser/memberhub/internal/app/system/inputval"
	"github.com/dalemusser/memberhub/internal/app/system/timeouts"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Store is the parameter persistence surface the handlers need.
type Store interface {
	Create(ctx context.Context, p models.Parameter) (models.Parameter, error)
	GetByOrgYear(ctx context.Context, orgID primitive.ObjectID, year int) (models.Parameter, error)
	List(ctx context.Context, orgID *primitive.ObjectID) ([]models.Parameter, error)
	ReplaceFees(ctx context.Context, orgID primitive.ObjectID, year int, fees []models.FeeTier) (models.Parameter, error)
	SetWindow(ctx context.Context, orgID primitive.ObjectID, year int, open bool) (models.Parameter, error)
}

// Handler serves the yearly dues parameters.
type Handler struct {
	Params Store
	Log    *zap.Logger
}

// NewHandler constructs a parameters Handler.
func NewHandler(params Store, logger *zap.Logger) *Handler {
	return &Handler{Params: params, Log: logger}
}

type feeTierPayload struct {
	Label       string `json:"label" validate:"required,max=100"`
	AmountCents int    `json:"amount_cents" validate:"min=0"`
}

type createPayload struct {
	OrganizationID string           `json:"organization_id" validate:"required"`
	Year           int              `json:"year" validate:"required"`
	Fees           []feeTierPayload `json:"fees" validate:"required,min=1,dive"`
	MembershipOpen bool             `json:"membership_open"`
	RenewalOpensAt *time.Time       `json:"renewal_opens_at"`
}

func toFees(in []feeTierPayload) []models.FeeTier {
	out := make([]models.FeeTier, len(in))
	for i, f := range in {
		out[i] = models.FeeTier{Label: f.Label, AmountCents: f.AmountCents}
	}
	return out
}

// orgYearParams parses the {orgID}/{year} route segments.
func orgYearParams(r *http.Request) (primitive.ObjectID, int, error) {
	orgID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "orgID"))
	if err != nil {
		return primitive.NilObjectID, 0, errors.New("invalid organization id")
	}
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil || !inputval.IsValidYear(year) {
		return primitive.NilObjectID, 0, errors.New("invalid year")
	}
	return orgID, year, nil
}

// HandleCreate handles POST /parameters.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var body createPayload
	if err := httpjson.Decode(w, r, &body); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := inputval.Struct(body); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	orgID, err := primitive.ObjectIDFromHex(body.OrganizationID)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid organization id")
		return
	}
	if !inputval.IsValidYear(body.Year) {
		httpjson.Error(w, http.StatusBadRequest, "invalid year")
		return
	}
	if !parameterpolicy.CanManage(r, orgID) {
		httpjson.Error(w, http.StatusForbidden, "no access to this organization")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short)
	defer cancel()

	created, err := h.Params.Create(ctx, models.Parameter{
		OrganizationID: orgID,
		Year:           body.Year,
		Fees:           toFees(body.Fees),
		MembershipOpen: body.MembershipOpen,
		RenewalOpensAt: body.RenewalOpensAt,
	})
	if err != nil {
		if errors.Is(err, parameterstore.ErrDuplicateParameter) {
			httpjson.Error(w, http.StatusConflict, err.Error())
			return
		}
		h.Log.Error("create parameters failed", zap.String("org_id", orgID.Hex()), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not create parameters")
		return
	}
	httpjson.Write(w, http.StatusCreated, created)
}

// ServeList handles GET /parameters?org={id}. Without the org filter only
// superadmins get the cross-organization listing.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	var orgFilter *primitive.ObjectID
	if raw := r.URL.Query().Get("org"); raw != "" {
		orgID, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			httpjson.Error(w, http.StatusBadRequest, "invalid organization id")
			return
		}
		if !parameterpolicy.CanView(r, orgID) {
			httpjson.Error(w, http.StatusForbidden, "no access to this organization")
			return
		}
		orgFilter = &orgID
	} else if !authz.IsSuperAdmin(r) {
		httpjson.Error(w, http.StatusForbidden, "org filter required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	list, err := h.Params.List(ctx, orgFilter)
	if err != nil {
		h.Log.Error("list parameters failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load parameters")
		return
	}
	if list == nil {
		list = []models.Parameter{}
	}
	httpjson.OK(w, list)
}

// ServeGet handles GET /parameters/{orgID}/{year}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	orgID, year, err := orgYearParams(r)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if !parameterpolicy.CanView(r, orgID) {
		httpjson.Error(w, http.StatusForbidden, "no access to this organization")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short)
	defer cancel()

	p, err := h.Params.GetByOrgYear(ctx, orgID, year)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "parameters not found")
			return
		}
		h.Log.Error("get parameters failed", zap.String("org_id", orgID.Hex()), zap.Int("year", year), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load parameters")
		return
	}
	httpjson.OK(w, p)
}

type feesPayload struct {
	Fees []feeTierPayload `json:"fees" validate:"required,min=1,dive"`
}

// HandleFees handles PUT /parameters/{orgID}/{year}/fees, replacing the fee
// schedule wholesale.
func (h *Handler) HandleFees(w http.ResponseWriter, r *http.Request) {
	orgID, year, err := orgYearParams(r)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if !parameterpolicy.CanManage(r, orgID) {
		httpjson.Error(w, http.StatusForbidden, "no access to this organization")
		return
	}

	var body feesPayload
	if err := httpjson.Decode(w, r, &body); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := inputval.Struct(body); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short)
	defer cancel()

	p, err := h.Params.ReplaceFees(ctx, orgID, year, toFees(body.Fees))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "parameters not found")
			return
		}
		h.Log.Error("replace fees failed", zap.String("org_id", orgID.Hex()), zap.Int("year", year), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not save fees")
		return
	}
	httpjson.OK(w, p)
}

type windowPayload struct {
	MembershipOpen bool `json:"membership_open"`
}

// HandleWindow handles PUT /parameters/{orgID}/{year}/window, toggling
// whether memberships can be taken for that year.
func (h *Handler) HandleWindow(w http.ResponseWriter, r *http.Request) {
	orgID, year, err := orgYearParams(r)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if !parameterpolicy.CanManage(r, orgID) {
		httpjson.Error(w, http.StatusForbidden, "no access to this organization")
		return
	}

	var body windowPayload
	if err := httpjson.Decode(w, r, &body); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short)
	defer cancel()

	p, err := h.Params.SetWindow(ctx, orgID, year, body.MembershipOpen)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "parameters not found")
			return
		}
		h.Log.Error("set window failed", zap.String("org_id", orgID.Hex()), zap.Int("year", year), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not update window")
		return
	}
	httpjson.OK(w, p)
}
