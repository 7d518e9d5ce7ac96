// internal/app/features/communications/handler.go
package communications

import (
	"context"
	"errors"
	"net/http"
	"time"

	communicationstore "github.com/dalemusser/memberhub/internal/app/store/communications"

	"github.com/dalemusser/memberhub/internal/app/policy/communicationpolicy"
	"github.com/dalemusser/memberhub/internal/app/system/authz"
	"github.com/dalemusser/memberhub/internal/app/system/delivery"
	"github.com/dalemusser/memberhub/internal/app/system/gates"
	"github.com/dalemusser/memberhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/memberhub/internal/app/system/httpjson"
	"github.com/dalemusser/memberhub/internal/app/system/inputval"
	"github.com/dalemusser/memberhub/internal/app/system/timeouts"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Store is the communication persistence surface the handlers need.
type Store interface {
	Create(ctx context.Context, comm models.Communication) (models.Communication, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Communication, error)
	ListByOrg(ctx context.Context, orgID primitive.ObjectID) ([]models.Communication, error)
	ListAll(ctx context.Context) ([]models.Communication, error)
	UpdateDraft(ctx context.Context, id primitive.ObjectID, comm models.Communication) (models.Communication, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// Deliverer runs one send attempt end to end.
type Deliverer interface {
	Send(ctx context.Context, id primitive.ObjectID, fromStatus string) (models.DeliveryResult, error)
}

// Handler serves the outbound communications.
type Handler struct {
	Comms     Store
	Deliverer Deliverer
	Log       *zap.Logger
}

// NewHandler constructs a communications Handler.
func NewHandler(comms Store, deliverer Deliverer, logger *zap.Logger) *Handler {
	return &Handler{Comms: comms, Deliverer: deliverer, Log: logger}
}

type criterionPayload struct {
	OrganizationID string `json:"organization_id" validate:"required"`
	Year           int    `json:"year" validate:"required"`
	Status         string `json:"status" validate:"required"`
}

type communicationPayload struct {
	OrganizationID string             `json:"organization_id" validate:"required"`
	Subject        string             `json:"subject" validate:"required,max=300"`
	BodyHTML       string             `json:"body_html" validate:"required"`
	HealthAlert    bool               `json:"health_alert"`
	Criteria       []criterionPayload `json:"criteria"`
	Audience       string             `json:"audience"`
	Status         string             `json:"status" validate:"required"`
	ScheduledAt    *time.Time         `json:"scheduled_at"`
}

// validate applies the cross-field rules and returns the parsed org ID and
// criteria. Only draft and scheduled are acceptable statuses on write;
// sending and sent exist solely through the delivery path.
func (p *communicationPayload) validate() (primitive.ObjectID, []models.MembershipCriterion, error) {
	if err := inputval.Struct(p); err != nil {
		return primitive.NilObjectID, nil, err
	}
	orgID, err := primitive.ObjectIDFromHex(p.OrganizationID)
	if err != nil {
		return primitive.NilObjectID, nil, errors.New("invalid organization id")
	}

	switch p.Status {
	case models.CommunicationDraft:
	case models.CommunicationScheduled:
		if p.ScheduledAt == nil || !p.ScheduledAt.After(time.Now()) {
			return primitive.NilObjectID, nil, errors.New("scheduled communications need a future send date")
		}
	default:
		return primitive.NilObjectID, nil, errors.New("invalid status")
	}

	criteria := make([]models.MembershipCriterion, 0, len(p.Criteria))
	for _, c := range p.Criteria {
		critOrg, err := primitive.ObjectIDFromHex(c.OrganizationID)
		if err != nil {
			return primitive.NilObjectID, nil, errors.New("invalid criterion organization id")
		}
		if !inputval.IsValidYear(c.Year) {
			return primitive.NilObjectID, nil, errors.New("invalid criterion year")
		}
		if !inputval.IsValidMembershipStatus(c.Status) {
			return primitive.NilObjectID, nil, errors.New("invalid criterion status")
		}
		criteria = append(criteria, models.MembershipCriterion{
			OrganizationID: critOrg,
			Year:           c.Year,
			Status:         c.Status,
		})
	}
	if len(criteria) == 0 {
		criteria = nil
	}
	return orgID, criteria, nil
}

// HandleCreate handles POST /communications.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAdmin(w, r)
	if !res.OK {
		return
	}

	var body communicationPayload
	if err := httpjson.Decode(w, r, &body); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	orgID, criteria, err := body.validate()
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if !authz.CanAccessOrg(r, orgID) {
		httpjson.Error(w, http.StatusForbidden, "no access to this organization")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short)
	defer cancel()

	created, err := h.Comms.Create(ctx, models.Communication{
		OrganizationID: orgID,
		AuthorID:       res.UserID,
		Subject:        body.Subject,
		BodyHTML:       htmlsanitize.Sanitize(body.BodyHTML),
		HealthAlert:    body.HealthAlert,
		Criteria:       criteria,
		Audience:       body.Audience,
		Status:         body.Status,
		ScheduledAt:    body.ScheduledAt,
	})
	if err != nil {
		h.Log.Error("create communication failed", zap.String("org_id", orgID.Hex()), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not create communication")
		return
	}
	httpjson.Write(w, http.StatusCreated, created)
}

// ServeList handles GET /communications: superadmins see everything, org
// admins see their organizations' communications.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAdmin(w, r)
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	var list []models.Communication
	var err error
	if res.Role == authz.RoleSuperAdmin {
		list, err = h.Comms.ListAll(ctx)
	} else {
		for _, orgID := range authz.UserOrgIDs(r) {
			var part []models.Communication
			part, err = h.Comms.ListByOrg(ctx, orgID)
			if err != nil {
				break
			}
			list = append(list, part...)
		}
	}
	if err != nil {
		h.Log.Error("list communications failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load communications")
		return
	}
	if list == nil {
		list = []models.Communication{}
	}
	httpjson.OK(w, list)
}

// ServeGet handles GET /communications/{id}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	comm, ok := h.load(w, r)
	if !ok {
		return
	}
	if !communicationpolicy.CanView(r, &comm) {
		httpjson.Error(w, http.StatusNotFound, "communication not found")
		return
	}
	httpjson.OK(w, comm)
}

// HandleUpdate handles PUT /communications/{id}. Author-only; drafts only.
// Moving a draft to scheduled happens here, after which it is frozen until
// the sweep or a manual send picks it up.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	comm, ok := h.load(w, r)
	if !ok {
		return
	}
	if !communicationpolicy.CanView(r, &comm) {
		httpjson.Error(w, http.StatusNotFound, "communication not found")
		return
	}
	if !communicationpolicy.CanEdit(r, &comm) {
		httpjson.Error(w, http.StatusForbidden, "only the author can edit, and only while a draft")
		return
	}

	var body communicationPayload
	if err := httpjson.Decode(w, r, &body); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	orgID, criteria, err := body.validate()
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if orgID != comm.OrganizationID {
		httpjson.Error(w, http.StatusBadRequest, "organization cannot be changed")
		return
	}

	comm.Subject = body.Subject
	comm.BodyHTML = htmlsanitize.Sanitize(body.BodyHTML)
	comm.HealthAlert = body.HealthAlert
	comm.Criteria = criteria
	comm.Audience = body.Audience
	comm.Status = body.Status
	comm.ScheduledAt = body.ScheduledAt

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short)
	defer cancel()

	updated, err := h.Comms.UpdateDraft(ctx, comm.ID, comm)
	if err != nil {
		switch {
		case errors.Is(err, communicationstore.ErrNotEditable):
			httpjson.Error(w, http.StatusConflict, "communication is no longer a draft")
		case errors.Is(err, mongo.ErrNoDocuments):
			httpjson.Error(w, http.StatusNotFound, "communication not found")
		default:
			h.Log.Error("update communication failed", zap.String("communication_id", comm.ID.Hex()), zap.Error(err))
			httpjson.Error(w, http.StatusInternalServerError, "could not update communication")
		}
		return
	}
	httpjson.OK(w, updated)
}

// HandleDelete handles DELETE /communications/{id}. Drafts only.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	comm, ok := h.load(w, r)
	if !ok {
		return
	}
	if !communicationpolicy.CanView(r, &comm) {
		httpjson.Error(w, http.StatusNotFound, "communication not found")
		return
	}
	if !communicationpolicy.CanEdit(r, &comm) {
		httpjson.Error(w, http.StatusForbidden, "only the author can delete")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short)
	defer cancel()

	if err := h.Comms.Delete(ctx, comm.ID); err != nil {
		switch {
		case errors.Is(err, communicationstore.ErrNotEditable):
			httpjson.Error(w, http.StatusConflict, "only drafts can be deleted")
		case errors.Is(err, mongo.ErrNoDocuments):
			httpjson.Error(w, http.StatusNotFound, "communication not found")
		default:
			h.Log.Error("delete communication failed", zap.String("communication_id", comm.ID.Hex()), zap.Error(err))
			httpjson.Error(w, http.StatusInternalServerError, "could not delete communication")
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSend handles POST /communications/{id}/send: immediate dispatch of a
// draft or an early dispatch of a scheduled communication.
func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	comm, ok := h.load(w, r)
	if !ok {
		return
	}
	if !communicationpolicy.CanView(r, &comm) {
		httpjson.Error(w, http.StatusNotFound, "communication not found")
		return
	}
	if !communicationpolicy.CanSend(r, &comm) {
		httpjson.Error(w, http.StatusForbidden, "no access to this organization")
		return
	}
	if comm.Status != models.CommunicationDraft && comm.Status != models.CommunicationScheduled {
		httpjson.Error(w, http.StatusConflict, "communication has already been sent")
		return
	}

	// Once a dispatch starts there is no cancel path: a client disconnect
	// must not stop the mailing mid-batch or strand the record in sending,
	// so the coordinator runs detached from the request context.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), timeouts.Dispatch)
	defer cancel()

	result, err := h.Deliverer.Send(ctx, comm.ID, comm.Status)
	if err != nil {
		switch {
		case errors.Is(err, delivery.ErrNoRecipients):
			httpjson.Error(w, http.StatusUnprocessableEntity, "no recipients found")
		case errors.Is(err, communicationstore.ErrNotSendable):
			httpjson.Error(w, http.StatusConflict, "communication is already being sent")
		case errors.Is(err, mongo.ErrNoDocuments):
			httpjson.Error(w, http.StatusNotFound, "communication not found")
		default:
			h.Log.Error("send communication failed", zap.String("communication_id", comm.ID.Hex()), zap.Error(err))
			httpjson.Error(w, http.StatusInternalServerError, "could not send communication")
		}
		return
	}
	httpjson.OK(w, result)
}

// load fetches the communication named by the {id} route parameter, writing
// the error response itself when it fails.
func (h *Handler) load(w http.ResponseWriter, r *http.Request) (models.Communication, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid communication id")
		return models.Communication{}, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short)
	defer cancel()

	comm, err := h.Comms.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "communication not found")
			return models.Communication{}, false
		}
		h.Log.Error("load communication failed", zap.String("communication_id", id.Hex()), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load communication")
		return models.Communication{}, false
	}
	return comm, true
}
