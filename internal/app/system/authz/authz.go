// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/memberhub/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the user's role (lowercased), name, Mongo ObjectID, and a
// found flag. If no user is present in context or the user ID is malformed,
// it returns "visitor", "", NilObjectID, false, so ok=true always means a
// valid, authenticated user with a valid ObjectID.
func UserCtx(r *http.Request) (role string, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "visitor", "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		// Malformed user ID in the credential - fail closed.
		return "visitor", "", primitive.NilObjectID, false
	}
	return strings.ToLower(user.Role), user.Name, userID, true
}

// IsSuperAdmin reports whether the current request's user is a superadmin.
func IsSuperAdmin(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == RoleSuperAdmin
}

// IsAdmin reports whether the current request's user is an admin.
// Superadmins are also considered admins for permission purposes.
func IsAdmin(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && (role == RoleAdmin || role == RoleSuperAdmin)
}

// IsMember reports whether the current request's user is a plain member.
func IsMember(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == RoleMember
}

// UserOrgIDs returns the current user's organization IDs, merging the legacy
// single-org claim with the multi-org claim. Returns nil if the user is not
// signed in or carries no organizations.
func UserOrgIDs(r *http.Request) []primitive.ObjectID {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return nil
	}

	seen := make(map[primitive.ObjectID]struct{})
	var result []primitive.ObjectID

	add := func(hex string) {
		oid, err := primitive.ObjectIDFromHex(hex)
		if err != nil {
			return
		}
		if _, dup := seen[oid]; dup {
			return
		}
		seen[oid] = struct{}{}
		result = append(result, oid)
	}

	if user.OrganizationID != "" {
		add(user.OrganizationID)
	}
	for _, hex := range user.OrganizationIDs {
		add(hex)
	}
	return result
}

// CanAccessOrg reports whether the current user may act on the given
// organization: superadmins always, everyone else only for organizations
// they belong to.
func CanAccessOrg(r *http.Request, orgID primitive.ObjectID) bool {
	if IsSuperAdmin(r) {
		return true
	}
	for _, id := range UserOrgIDs(r) {
		if id == orgID {
			return true
		}
	}
	return false
}
