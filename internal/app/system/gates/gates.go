// Package gates provides authorization gate functions for HTTP handlers.
// Gates check authentication and authorization, writing JSON error
// envelopes when checks fail.
//
// MemberHub uses a three-tier authorization approach:
//
//  1. Route-level middleware (auth.RequireSignedIn, auth.RequireRole)
//     applied in routes.go files for coarse-grained access control.
//
//  2. Handler-level gates (this package) for handlers that need checks the
//     route group doesn't provide. Gates write the error response and return
//     the user context so handlers can bail out with a single if.
//
//  3. Policy layer (internal/app/policy/*) for resource-specific decisions
//     that depend on the document being accessed.
//
// Don't use gates behind middleware that already enforces the same role;
// use authz.UserCtx there instead.
package gates

import (
	"net/http"

	"github.com/dalemusser/memberhub/internal/app/system/authz"
	"github.com/dalemusser/memberhub/internal/app/system/httpjson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Result contains the result of an authorization gate check.
type Result struct {
	Role   string
	Name   string
	UserID primitive.ObjectID
	OK     bool
}

// RequireAuth ensures a user is authenticated. If not, it writes a 401
// envelope and returns OK=false.
func RequireAuth(w http.ResponseWriter, r *http.Request) Result {
	role, name, uid, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return Result{OK: false}
	}
	return Result{Role: role, Name: name, UserID: uid, OK: true}
}

// RequireAdmin ensures the user is authenticated and is an admin or
// superadmin. Writes 401/403 on failure.
func RequireAdmin(w http.ResponseWriter, r *http.Request) Result {
	role, name, uid, ok := authz.UserCtx(r)
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "sign in required")
		return Result{OK: false}
	}
	if role != authz.RoleAdmin && role != authz.RoleSuperAdmin {
		httpjson.Error(w, http.StatusForbidden, "administrator access required")
		return Result{OK: false}
	}
	return Result{Role: role, Name: name, UserID: uid, OK: true}
}

// RequireOrgAdmin ensures the user is an admin (or superadmin) with access
// to the given organization. Writes 401/403 on failure.
func RequireOrgAdmin(w http.ResponseWriter, r *http.Request, orgID primitive.ObjectID) Result {
	res := RequireAdmin(w, r)
	if !res.OK {
		return res
	}
	if !authz.CanAccessOrg(r, orgID) {
		httpjson.Error(w, http.StatusForbidden, "no access to this organization")
		return Result{OK: false}
	}
	return res
}
