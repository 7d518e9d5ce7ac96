// internal/app/features/communications/handler_test.go
package communications

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	communicationstore "github.com/dalemusser/memberhub/internal/app/store/communications"

	"github.com/dalemusser/memberhub/internal/app/system/delivery"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"github.com/dalemusser/memberhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type fakeStore struct {
	byID map[primitive.ObjectID]models.Communication
}

func newFakeStore(comms ...models.Communication) *fakeStore {
	f := &fakeStore{byID: map[primitive.ObjectID]models.Communication{}}
	for _, c := range comms {
		f.byID[c.ID] = c
	}
	return f
}

func (f *fakeStore) Create(_ context.Context, comm models.Communication) (models.Communication, error) {
	comm.ID = primitive.NewObjectID()
	f.byID[comm.ID] = comm
	return comm, nil
}

func (f *fakeStore) GetByID(_ context.Context, id primitive.ObjectID) (models.Communication, error) {
	c, ok := f.byID[id]
	if !ok {
		return models.Communication{}, mongo.ErrNoDocuments
	}
	return c, nil
}

func (f *fakeStore) ListByOrg(_ context.Context, orgID primitive.ObjectID) ([]models.Communication, error) {
	var out []models.Communication
	for _, c := range f.byID {
		if c.OrganizationID == orgID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) ListAll(context.Context) ([]models.Communication, error) {
	var out []models.Communication
	for _, c := range f.byID {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeStore) UpdateDraft(_ context.Context, id primitive.ObjectID, comm models.Communication) (models.Communication, error) {
	existing, ok := f.byID[id]
	if !ok {
		return models.Communication{}, mongo.ErrNoDocuments
	}
	if existing.Status != models.CommunicationDraft {
		return models.Communication{}, communicationstore.ErrNotEditable
	}
	comm.ID = id
	f.byID[id] = comm
	return comm, nil
}

func (f *fakeStore) Delete(_ context.Context, id primitive.ObjectID) error {
	existing, ok := f.byID[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	if existing.Status != models.CommunicationDraft {
		return communicationstore.ErrNotEditable
	}
	delete(f.byID, id)
	return nil
}

type fakeDeliverer struct {
	err    error
	result models.DeliveryResult
	calls  int
	from   string
	ctxErr error
}

func (f *fakeDeliverer) Send(ctx context.Context, _ primitive.ObjectID, fromStatus string) (models.DeliveryResult, error) {
	f.calls++
	f.from = fromStatus
	f.ctxErr = ctx.Err()
	if f.err != nil {
		return models.DeliveryResult{}, f.err
	}
	return f.result, nil
}

func validPayload(orgID primitive.ObjectID) communicationPayload {
	return communicationPayload{
		OrganizationID: orgID.Hex(),
		Subject:        "Spring newsletter",
		BodyHTML:       "<p>Hello members</p>",
		Audience:       models.AudienceOwnOrg,
		Status:         models.CommunicationDraft,
	}
}

func TestHandleCreate(t *testing.T) {
	orgID := primitive.NewObjectID()
	store := newFakeStore()
	h := NewHandler(store, &fakeDeliverer{}, zap.NewNop())

	t.Run("member is rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.HandleCreate(rec, testutil.Request(t, "POST", "/communications", validPayload(orgID), testutil.MemberUser(orgID)))
		if rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("admin of another org is rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.HandleCreate(rec, testutil.Request(t, "POST", "/communications", validPayload(orgID), testutil.AdminUser(primitive.NewObjectID())))
		if rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("scheduled without a future date is rejected", func(t *testing.T) {
		body := validPayload(orgID)
		body.Status = models.CommunicationScheduled
		past := time.Now().Add(-time.Hour)
		body.ScheduledAt = &past

		rec := httptest.NewRecorder()
		h.HandleCreate(rec, testutil.Request(t, "POST", "/communications", body, testutil.AdminUser(orgID)))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("admin creates a draft with sanitized body", func(t *testing.T) {
		body := validPayload(orgID)
		body.BodyHTML = `<p>Hi</p><script>alert(1)</script>`

		rec := httptest.NewRecorder()
		h.HandleCreate(rec, testutil.Request(t, "POST", "/communications", body, testutil.AdminUser(orgID)))
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}

		var got models.Communication
		testutil.DecodeJSON(t, rec, &got)
		if got.Status != models.CommunicationDraft {
			t.Fatalf("status = %q", got.Status)
		}
		if got.BodyHTML != "<p>Hi</p>" {
			t.Fatalf("body not sanitized: %q", got.BodyHTML)
		}
	})
}

func TestHandleUpdateAuthorOnly(t *testing.T) {
	orgID := primitive.NewObjectID()
	author := testutil.AdminUser(orgID)
	colleague := testutil.AdminUser(orgID)

	comm := models.Communication{
		ID:             primitive.NewObjectID(),
		OrganizationID: orgID,
		AuthorID:       testutil.UserID(t, author),
		Subject:        "Draft",
		Status:         models.CommunicationDraft,
	}
	h := NewHandler(newFakeStore(comm), &fakeDeliverer{}, zap.NewNop())

	req := testutil.WithURLParams(
		testutil.Request(t, "PUT", "/communications/"+comm.ID.Hex(), validPayload(orgID), colleague),
		map[string]string{"id": comm.ID.Hex()},
	)
	rec := httptest.NewRecorder()
	h.HandleUpdate(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("colleague edit: status = %d, want 403", rec.Code)
	}

	req = testutil.WithURLParams(
		testutil.Request(t, "PUT", "/communications/"+comm.ID.Hex(), validPayload(orgID), author),
		map[string]string{"id": comm.ID.Hex()},
	)
	rec = httptest.NewRecorder()
	h.HandleUpdate(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("author edit: status = %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleSend(t *testing.T) {
	orgID := primitive.NewObjectID()
	admin := testutil.AdminUser(orgID)

	draft := models.Communication{
		ID:             primitive.NewObjectID(),
		OrganizationID: orgID,
		AuthorID:       testutil.UserID(t, admin),
		Status:         models.CommunicationDraft,
	}
	sent := models.Communication{
		ID:             primitive.NewObjectID(),
		OrganizationID: orgID,
		AuthorID:       testutil.UserID(t, admin),
		Status:         models.CommunicationSent,
	}

	t.Run("draft dispatches from draft state", func(t *testing.T) {
		deliverer := &fakeDeliverer{result: models.DeliveryResult{AttemptID: "a1", Sent: 12}}
		h := NewHandler(newFakeStore(draft, sent), deliverer, zap.NewNop())

		req := testutil.WithURLParams(
			testutil.Request(t, "POST", "/communications/"+draft.ID.Hex()+"/send", nil, admin),
			map[string]string{"id": draft.ID.Hex()},
		)
		rec := httptest.NewRecorder()
		h.HandleSend(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		if deliverer.calls != 1 || deliverer.from != models.CommunicationDraft {
			t.Fatalf("deliverer called %d times from %q", deliverer.calls, deliverer.from)
		}

		var got models.DeliveryResult
		testutil.DecodeJSON(t, rec, &got)
		if got.Sent != 12 {
			t.Fatalf("result = %+v", got)
		}
	})

	t.Run("no recipients yields 422", func(t *testing.T) {
		deliverer := &fakeDeliverer{err: delivery.ErrNoRecipients}
		h := NewHandler(newFakeStore(draft), deliverer, zap.NewNop())

		req := testutil.WithURLParams(
			testutil.Request(t, "POST", "/communications/"+draft.ID.Hex()+"/send", nil, admin),
			map[string]string{"id": draft.ID.Hex()},
		)
		rec := httptest.NewRecorder()
		h.HandleSend(rec, req)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want 422", rec.Code)
		}
	})

	t.Run("client disconnect does not cancel the dispatch", func(t *testing.T) {
		deliverer := &fakeDeliverer{result: models.DeliveryResult{AttemptID: "a2", Sent: 3}}
		h := NewHandler(newFakeStore(draft), deliverer, zap.NewNop())

		req := testutil.WithURLParams(
			testutil.Request(t, "POST", "/communications/"+draft.ID.Hex()+"/send", nil, admin),
			map[string]string{"id": draft.ID.Hex()},
		)
		ctx, cancel := context.WithCancel(req.Context())
		req = req.WithContext(ctx)
		cancel() // the client went away before the mailing finished

		rec := httptest.NewRecorder()
		h.HandleSend(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		if deliverer.calls != 1 {
			t.Fatalf("deliverer called %d times, want 1", deliverer.calls)
		}
		if deliverer.ctxErr != nil {
			t.Fatalf("dispatch context canceled with the request: %v", deliverer.ctxErr)
		}
	})

	t.Run("already sent yields 409", func(t *testing.T) {
		deliverer := &fakeDeliverer{}
		h := NewHandler(newFakeStore(sent), deliverer, zap.NewNop())

		req := testutil.WithURLParams(
			testutil.Request(t, "POST", "/communications/"+sent.ID.Hex()+"/send", nil, admin),
			map[string]string{"id": sent.ID.Hex()},
		)
		rec := httptest.NewRecorder()
		h.HandleSend(rec, req)
		if rec.Code != http.StatusConflict {
			t.Fatalf("status = %d, want 409", rec.Code)
		}
		if deliverer.calls != 0 {
			t.Fatal("deliverer called for a sent communication")
		}
	})
}

func TestServeListScopes(t *testing.T) {
	orgA := primitive.NewObjectID()
	orgB := primitive.NewObjectID()
	a := models.Communication{ID: primitive.NewObjectID(), OrganizationID: orgA, Status: models.CommunicationDraft}
	b := models.Communication{ID: primitive.NewObjectID(), OrganizationID: orgB, Status: models.CommunicationSent}
	h := NewHandler(newFakeStore(a, b), &fakeDeliverer{}, zap.NewNop())

	t.Run("org admin sees only own org", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeList(rec, testutil.Request(t, "GET", "/communications", nil, testutil.AdminUser(orgA)))
		var got []models.Communication
		testutil.DecodeJSON(t, rec, &got)
		if len(got) != 1 || got[0].ID != a.ID {
			t.Fatalf("got %d communications", len(got))
		}
	})

	t.Run("superadmin sees everything", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeList(rec, testutil.Request(t, "GET", "/communications", nil, testutil.SuperAdminUser()))
		var got []models.Communication
		testutil.DecodeJSON(t, rec, &got)
		if len(got) != 2 {
			t.Fatalf("got %d communications, want 2", len(got))
		}
	})
}
