// internal/testutil/testutil.go

// Package testutil holds request and identity helpers shared by handler and
// policy tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/memberhub/internal/app/system/auth"
	"github.com/dalemusser/memberhub/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemberUser returns a plain member belonging to the given organizations.
func MemberUser(orgIDs ...primitive.ObjectID) *auth.SessionUser {
	return makeUser(authz.RoleMember, orgIDs)
}

// AdminUser returns an organization admin for the given organizations.
func AdminUser(orgIDs ...primitive.ObjectID) *auth.SessionUser {
	return makeUser(authz.RoleAdmin, orgIDs)
}

// SuperAdminUser returns a superadmin with no organization affiliation.
func SuperAdminUser() *auth.SessionUser {
	return makeUser(authz.RoleSuperAdmin, nil)
}

func makeUser(role string, orgIDs []primitive.ObjectID) *auth.SessionUser {
	hexes := make([]string, len(orgIDs))
	for i, id := range orgIDs {
		hexes[i] = id.Hex()
	}
	return &auth.SessionUser{
		ID:              primitive.NewObjectID().Hex(),
		Name:            "Test " + role,
		Email:           role + "@example.org",
		Role:            role,
		OrganizationIDs: hexes,
	}
}

// UserID parses the user's hex ID; fails the test on a malformed fixture.
func UserID(t *testing.T, u *auth.SessionUser) primitive.ObjectID {
	t.Helper()
	oid, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		t.Fatalf("test user has malformed id %q: %v", u.ID, err)
	}
	return oid
}

// Request builds a request with an optional JSON body and the given user
// injected into context. A nil user yields an anonymous request.
func Request(t *testing.T, method, target string, body any, u *auth.SessionUser) *http.Request {
	t.Helper()

	var r *http.Request
	if body == nil {
		r = httptest.NewRequest(method, target, nil)
	} else {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		r = httptest.NewRequest(method, target, bytes.NewReader(raw))
		r.Header.Set("Content-Type", "application/json")
	}
	if u != nil {
		r = auth.WithTestUser(r, u)
	}
	return r
}

// WithURLParams attaches chi route parameters to the request, matching what
// the router would have extracted from the path.
func WithURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// DecodeJSON unmarshals a recorded response body, failing the test on error.
func DecodeJSON(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}
