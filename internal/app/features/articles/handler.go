// internal/app/features/articles/handler.go
package articles

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/memberhub/internal/app/policy/articlepolicy"
	articlestore "github.com/dalemusser/memberhub/internal/app/store/articles"
	"github.com/dalemusser/memberhub/internal/app/system/gates"
	"github.com/dalemusser/memberhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/memberhub/internal/app/system/httpjson"
	"github.com/dalemusser/memberhub/internal/app/system/inputval"
	"github.com/dalemusser/memberhub/internal/app/system/timeouts"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Store is the article persistence surface the handlers need.
type Store interface {
	Create(ctx context.Context, art models.Article) (models.Article, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Article, error)
	List(ctx context.Context) ([]models.Article, error)
	Update(ctx context.Context, id primitive.ObjectID, fromStatus string, art models.Article) (models.Article, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// Handler serves the blog articles.
type Handler struct {
	Articles Store
	Log      *zap.Logger
}

// NewHandler constructs an articles Handler.
func NewHandler(articles Store, logger *zap.Logger) *Handler {
	return &Handler{Articles: articles, Log: logger}
}

type articlePayload struct {
	OrganizationID string     `json:"organization_id" validate:"required"`
	Title          string     `json:"title" validate:"required,max=200"`
	BodyHTML       string     `json:"body_html" validate:"required"`
	Status         string     `json:"status" validate:"required"`
	PublishAt      *time.Time `json:"publish_at"`
	Visibility     string     `json:"visibility" validate:"required"`
}

// validate applies the cross-field rules shared by create and update.
func (p *articlePayload) validate() (primitive.ObjectID, error) {
	if err := inputval.Struct(p); err != nil {
		return primitive.NilObjectID, err
	}
	orgID, err := primitive.ObjectIDFromHex(p.OrganizationID)
	if err != nil {
		return primitive.NilObjectID, errors.New("invalid organization id")
	}
	if !inputval.IsValidVisibility(p.Visibility) {
		return primitive.NilObjectID, errors.New("invalid visibility")
	}
	switch p.Status {
	case models.ArticleDraft, models.ArticlePublished:
	case models.ArticleScheduled:
		if p.PublishAt == nil || !p.PublishAt.After(time.Now()) {
			return primitive.NilObjectID, errors.New("scheduled articles need a future publish date")
		}
	default:
		return primitive.NilObjectID, errors.New("invalid status")
	}
	return orgID, nil
}

// HandleCreate handles POST /articles.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAdmin(w, r)
	if !res.OK {
		return
	}

	var body articlePayload
	if err := httpjson.Decode(w, r, &body); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	orgID, err := body.validate()
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	art := models.Article{
		OrganizationID: orgID,
		AuthorID:       res.UserID,
		Title:          body.Title,
		TitleCI:        text.Fold(body.Title),
		BodyHTML:       htmlsanitize.Sanitize(body.BodyHTML),
		Status:         body.Status,
		PublishAt:      body.PublishAt,
		Visibility:     body.Visibility,
	}
	if !articlepolicy.CanManage(r, &art) {
		httpjson.Error(w, http.StatusForbidden, "no access to this organization")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short)
	defer cancel()

	created, err := h.Articles.Create(ctx, art)
	if err != nil {
		h.Log.Error("create article failed", zap.String("org_id", orgID.Hex()), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not create article")
		return
	}
	httpjson.Write(w, http.StatusCreated, created)
}

// ServeList handles GET /articles, filtered to what the viewer may see.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium)
	defer cancel()

	all, err := h.Articles.List(ctx)
	if err != nil {
		h.Log.Error("list articles failed", zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load articles")
		return
	}

	visible := make([]models.Article, 0, len(all))
	for i := range all {
		if articlepolicy.CanView(r, &all[i]) {
			visible = append(visible, all[i])
		}
	}
	httpjson.OK(w, visible)
}

// ServeGet handles GET /articles/{id}.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAuth(w, r)
	if !res.OK {
		return
	}

	art, ok := h.load(w, r)
	if !ok {
		return
	}
	if !articlepolicy.CanView(r, &art) {
		// Hide existence of unpublished and restricted articles.
		httpjson.Error(w, http.StatusNotFound, "article not found")
		return
	}
	httpjson.OK(w, art)
}

// HandleUpdate handles PUT /articles/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAdmin(w, r)
	if !res.OK {
		return
	}

	art, ok := h.load(w, r)
	if !ok {
		return
	}
	if !articlepolicy.CanManage(r, &art) {
		httpjson.Error(w, http.StatusForbidden, "no access to this organization")
		return
	}

	var body articlePayload
	if err := httpjson.Decode(w, r, &body); err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	orgID, err := body.validate()
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	// An article cannot be moved to another organization.
	if orgID != art.OrganizationID {
		httpjson.Error(w, http.StatusBadRequest, "organization cannot be changed")
		return
	}
	// The state machine only moves forward; published articles stay
	// published and scheduled ones cannot go back to draft.
	if !models.ArticleTransitionAllowed(art.Status, body.Status) {
		httpjson.Error(w, http.StatusConflict,
			fmt.Sprintf("article cannot move from %s to %s", art.Status, body.Status))
		return
	}

	fromStatus := art.Status
	art.Title = body.Title
	art.TitleCI = text.Fold(body.Title)
	art.BodyHTML = htmlsanitize.Sanitize(body.BodyHTML)
	art.Status = body.Status
	art.PublishAt = body.PublishAt
	art.Visibility = body.Visibility

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short)
	defer cancel()

	updated, err := h.Articles.Update(ctx, art.ID, fromStatus, art)
	if err != nil {
		switch {
		case errors.Is(err, articlestore.ErrStatusChanged):
			httpjson.Error(w, http.StatusConflict, "article status changed, reload and retry")
		case errors.Is(err, mongo.ErrNoDocuments):
			httpjson.Error(w, http.StatusNotFound, "article not found")
		default:
			h.Log.Error("update article failed", zap.String("article_id", art.ID.Hex()), zap.Error(err))
			httpjson.Error(w, http.StatusInternalServerError, "could not update article")
		}
		return
	}
	httpjson.OK(w, updated)
}

// HandleDelete handles DELETE /articles/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	res := gates.RequireAdmin(w, r)
	if !res.OK {
		return
	}

	art, ok := h.load(w, r)
	if !ok {
		return
	}
	if !articlepolicy.CanManage(r, &art) {
		httpjson.Error(w, http.StatusForbidden, "no access to this organization")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short)
	defer cancel()

	if err := h.Articles.Delete(ctx, art.ID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "article not found")
			return
		}
		h.Log.Error("delete article failed", zap.String("article_id", art.ID.Hex()), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not delete article")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// load fetches the article named by the {id} route parameter, writing the
// error response itself when it fails.
func (h *Handler) load(w http.ResponseWriter, r *http.Request) (models.Article, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "invalid article id")
		return models.Article{}, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short)
	defer cancel()

	art, err := h.Articles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			httpjson.Error(w, http.StatusNotFound, "article not found")
			return models.Article{}, false
		}
		h.Log.Error("load article failed", zap.String("article_id", id.Hex()), zap.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "could not load article")
		return models.Article{}, false
	}
	return art, true
}
