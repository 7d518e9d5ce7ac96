// internal/app/features/preferences/handler_test.go
package preferences

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/memberhub/internal/domain/models"
	"github.com/dalemusser/memberhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeStore struct {
	byUser map[primitive.ObjectID]models.Preference
}

func newFakeStore() *fakeStore {
	return &fakeStore{byUser: map[primitive.ObjectID]models.Preference{}}
}

func (f *fakeStore) GetOrCreate(_ context.Context, userID primitive.ObjectID) (models.Preference, error) {
	if p, ok := f.byUser[userID]; ok {
		return p, nil
	}
	p := models.DefaultPreference(userID)
	f.byUser[userID] = p
	return p, nil
}

func (f *fakeStore) Update(_ context.Context, userID primitive.ObjectID, ownOrg, otherOrg, healthAlerts bool) (models.Preference, error) {
	p := models.Preference{
		UserID:                 userID,
		OwnOrgCommunications:   ownOrg,
		OtherOrgCommunications: otherOrg,
		HealthAlerts:           healthAlerts,
	}
	f.byUser[userID] = p
	return p, nil
}

func TestServeGetRequiresAuth(t *testing.T) {
	h := NewHandler(newFakeStore(), zap.NewNop())
	rec := httptest.NewRecorder()

	h.ServeGet(rec, testutil.Request(t, "GET", "/preferences", nil, nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestServeGetLazilyCreatesDefaults(t *testing.T) {
	store := newFakeStore()
	h := NewHandler(store, zap.NewNop())
	user := testutil.MemberUser(primitive.NewObjectID())

	rec := httptest.NewRecorder()
	h.ServeGet(rec, testutil.Request(t, "GET", "/preferences", nil, user))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var got preferencePayload
	testutil.DecodeJSON(t, rec, &got)
	// Default flags: opted in to own-org mail and health alerts, out of
	// other organizations' mail.
	if !got.OwnOrgCommunications || got.OtherOrgCommunications || !got.HealthAlerts {
		t.Fatalf("defaults = %+v", got)
	}
	if len(store.byUser) != 1 {
		t.Fatal("first read did not create the document")
	}
}

func TestHandleUpdateReplacesAllFlags(t *testing.T) {
	store := newFakeStore()
	h := NewHandler(store, zap.NewNop())
	user := testutil.MemberUser(primitive.NewObjectID())

	body := preferencePayload{OwnOrgCommunications: false, OtherOrgCommunications: true, HealthAlerts: false}
	rec := httptest.NewRecorder()
	h.HandleUpdate(rec, testutil.Request(t, "PUT", "/preferences", body, user))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	saved := store.byUser[testutil.UserID(t, user)]
	if saved.OwnOrgCommunications || !saved.OtherOrgCommunications || saved.HealthAlerts {
		t.Fatalf("saved = %+v", saved)
	}
}

func TestHandleUpdateRejectsMalformedBody(t *testing.T) {
	h := NewHandler(newFakeStore(), zap.NewNop())
	user := testutil.MemberUser(primitive.NewObjectID())

	req := testutil.Request(t, "PUT", "/preferences", nil, user)
	rec := httptest.NewRecorder()
	h.HandleUpdate(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for empty body", rec.Code)
	}
}
