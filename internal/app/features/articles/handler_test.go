// internal/app/features/articles/handler_test.go
package articles

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	articlestore "github.com/dalemusser/memberhub/internal/app/store/articles"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"github.com/dalemusser/memberhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type fakeStore struct {
	byID map[primitive.ObjectID]models.Article
}

func newFakeStore(arts ...models.Article) *fakeStore {
	f := &fakeStore{byID: map[primitive.ObjectID]models.Article{}}
	for _, a := range arts {
		f.byID[a.ID] = a
	}
	return f
}

func (f *fakeStore) Create(_ context.Context, art models.Article) (models.Article, error) {
	art.ID = primitive.NewObjectID()
	f.byID[art.ID] = art
	return art, nil
}

func (f *fakeStore) GetByID(_ context.Context, id primitive.ObjectID) (models.Article, error) {
	a, ok := f.byID[id]
	if !ok {
		return models.Article{}, mongo.ErrNoDocuments
	}
	return a, nil
}

func (f *fakeStore) List(context.Context) ([]models.Article, error) {
	var out []models.Article
	for _, a := range f.byID {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeStore) Update(_ context.Context, id primitive.ObjectID, fromStatus string, art models.Article) (models.Article, error) {
	existing, ok := f.byID[id]
	if !ok {
		return models.Article{}, mongo.ErrNoDocuments
	}
	if existing.Status != fromStatus {
		return models.Article{}, articlestore.ErrStatusChanged
	}
	art.ID = id
	f.byID[id] = art
	return art, nil
}

func (f *fakeStore) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := f.byID[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(f.byID, id)
	return nil
}

func validPayload(orgID primitive.ObjectID) articlePayload {
	return articlePayload{
		OrganizationID: orgID.Hex(),
		Title:          "Annual assembly recap",
		BodyHTML:       "<p>It went well.</p>",
		Status:         models.ArticleDraft,
		Visibility:     models.VisibilityAll,
	}
}

func TestHandleCreate(t *testing.T) {
	orgID := primitive.NewObjectID()

	t.Run("member is rejected", func(t *testing.T) {
		h := NewHandler(newFakeStore(), zap.NewNop())
		rec := httptest.NewRecorder()
		h.HandleCreate(rec, testutil.Request(t, "POST", "/articles", validPayload(orgID), testutil.MemberUser(orgID)))
		if rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("scheduled needs a future publish date", func(t *testing.T) {
		h := NewHandler(newFakeStore(), zap.NewNop())
		body := validPayload(orgID)
		body.Status = models.ArticleScheduled
		past := time.Now().Add(-time.Minute)
		body.PublishAt = &past

		rec := httptest.NewRecorder()
		h.HandleCreate(rec, testutil.Request(t, "POST", "/articles", body, testutil.AdminUser(orgID)))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("invalid visibility is rejected", func(t *testing.T) {
		h := NewHandler(newFakeStore(), zap.NewNop())
		body := validPayload(orgID)
		body.Visibility = "friends_only"

		rec := httptest.NewRecorder()
		h.HandleCreate(rec, testutil.Request(t, "POST", "/articles", body, testutil.AdminUser(orgID)))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("admin creates with folded title and sanitized body", func(t *testing.T) {
		store := newFakeStore()
		h := NewHandler(store, zap.NewNop())
		body := validPayload(orgID)
		body.Title = "Café Réunion"
		body.BodyHTML = `<p>ok</p><script>x()</script>`

		rec := httptest.NewRecorder()
		h.HandleCreate(rec, testutil.Request(t, "POST", "/articles", body, testutil.AdminUser(orgID)))
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}

		var got models.Article
		testutil.DecodeJSON(t, rec, &got)
		if got.TitleCI != "cafe reunion" {
			t.Fatalf("title_ci = %q", got.TitleCI)
		}
		if got.BodyHTML != "<p>ok</p>" {
			t.Fatalf("body not sanitized: %q", got.BodyHTML)
		}
	})
}

func TestServeListFiltersByViewer(t *testing.T) {
	orgA := primitive.NewObjectID()
	orgB := primitive.NewObjectID()

	published := models.Article{ID: primitive.NewObjectID(), OrganizationID: orgA, Status: models.ArticlePublished, Visibility: models.VisibilityAll}
	orgOnly := models.Article{ID: primitive.NewObjectID(), OrganizationID: orgA, Status: models.ArticlePublished, Visibility: models.VisibilityOrganization}
	draft := models.Article{ID: primitive.NewObjectID(), OrganizationID: orgA, Status: models.ArticleDraft, Visibility: models.VisibilityAll}

	h := NewHandler(newFakeStore(published, orgOnly, draft), zap.NewNop())

	t.Run("other-org member sees only the public article", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeList(rec, testutil.Request(t, "GET", "/articles", nil, testutil.MemberUser(orgB)))
		var got []models.Article
		testutil.DecodeJSON(t, rec, &got)
		if len(got) != 1 || got[0].ID != published.ID {
			t.Fatalf("got %d articles", len(got))
		}
	})

	t.Run("own-org member sees both published articles but no draft", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeList(rec, testutil.Request(t, "GET", "/articles", nil, testutil.MemberUser(orgA)))
		var got []models.Article
		testutil.DecodeJSON(t, rec, &got)
		if len(got) != 2 {
			t.Fatalf("got %d articles, want 2", len(got))
		}
	})

	t.Run("own-org admin also sees the draft", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeList(rec, testutil.Request(t, "GET", "/articles", nil, testutil.AdminUser(orgA)))
		var got []models.Article
		testutil.DecodeJSON(t, rec, &got)
		if len(got) != 3 {
			t.Fatalf("got %d articles, want 3", len(got))
		}
	})
}

func TestServeGetHidesRestrictedAsNotFound(t *testing.T) {
	orgA := primitive.NewObjectID()
	orgB := primitive.NewObjectID()
	orgOnly := models.Article{ID: primitive.NewObjectID(), OrganizationID: orgA, Status: models.ArticlePublished, Visibility: models.VisibilityOrganization}
	h := NewHandler(newFakeStore(orgOnly), zap.NewNop())

	req := testutil.WithURLParams(
		testutil.Request(t, "GET", "/articles/"+orgOnly.ID.Hex(), nil, testutil.MemberUser(orgB)),
		map[string]string{"id": orgOnly.ID.Hex()},
	)
	rec := httptest.NewRecorder()
	h.ServeGet(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 to hide restricted content", rec.Code)
	}
}

func TestHandleUpdateCannotMoveOrganizations(t *testing.T) {
	orgA := primitive.NewObjectID()
	art := models.Article{ID: primitive.NewObjectID(), OrganizationID: orgA, Status: models.ArticleDraft, Visibility: models.VisibilityAll}
	h := NewHandler(newFakeStore(art), zap.NewNop())

	body := validPayload(primitive.NewObjectID()) // different organization
	req := testutil.WithURLParams(
		testutil.Request(t, "PUT", "/articles/"+art.ID.Hex(), body, testutil.AdminUser(orgA)),
		map[string]string{"id": art.ID.Hex()},
	)
	rec := httptest.NewRecorder()
	h.HandleUpdate(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHandleUpdateForwardOnlyStatus(t *testing.T) {
	orgA := primitive.NewObjectID()

	tests := []struct {
		name string
		from string
		to   string
		want int
	}{
		{"draft stays draft", models.ArticleDraft, models.ArticleDraft, http.StatusOK},
		{"draft to scheduled", models.ArticleDraft, models.ArticleScheduled, http.StatusOK},
		{"draft straight to published", models.ArticleDraft, models.ArticlePublished, http.StatusOK},
		{"scheduled to published", models.ArticleScheduled, models.ArticlePublished, http.StatusOK},
		{"scheduled back to draft", models.ArticleScheduled, models.ArticleDraft, http.StatusConflict},
		{"published back to draft", models.ArticlePublished, models.ArticleDraft, http.StatusConflict},
		{"published back to scheduled", models.ArticlePublished, models.ArticleScheduled, http.StatusConflict},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			art := models.Article{ID: primitive.NewObjectID(), OrganizationID: orgA, Status: tc.from, Visibility: models.VisibilityAll}
			store := newFakeStore(art)
			h := NewHandler(store, zap.NewNop())

			body := validPayload(orgA)
			body.Status = tc.to
			if tc.to == models.ArticleScheduled {
				future := time.Now().Add(time.Hour)
				body.PublishAt = &future
			}

			req := testutil.WithURLParams(
				testutil.Request(t, "PUT", "/articles/"+art.ID.Hex(), body, testutil.AdminUser(orgA)),
				map[string]string{"id": art.ID.Hex()},
			)
			rec := httptest.NewRecorder()
			h.HandleUpdate(rec, req)

			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
			if tc.want != http.StatusOK {
				if got := store.byID[art.ID].Status; got != tc.from {
					t.Fatalf("stored status = %q, want untouched %q", got, tc.from)
				}
			}
		})
	}
}

func TestUpdateRejectsStaleStatus(t *testing.T) {
	// The publish sweep flips the article between a handler's read and its
	// write; the status filter must reject the stale update so the article
	// is not dragged back to scheduled.
	art := models.Article{ID: primitive.NewObjectID(), OrganizationID: primitive.NewObjectID(), Status: models.ArticlePublished, Visibility: models.VisibilityAll}
	store := newFakeStore(art)

	stale := art
	stale.Status = models.ArticleScheduled // what the handler read before the flip

	_, err := store.Update(context.Background(), art.ID, models.ArticleScheduled, stale)
	if err != articlestore.ErrStatusChanged {
		t.Fatalf("Update after concurrent publish: err = %v, want ErrStatusChanged", err)
	}
	if got := store.byID[art.ID].Status; got != models.ArticlePublished {
		t.Fatalf("stored status = %q, want published preserved", got)
	}
}
