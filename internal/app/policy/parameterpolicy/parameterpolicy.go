// internal/app/policy/parameterpolicy.go
package parameterpolicy

import (
	"net/http"

	"github.com/dalemusser/memberhub/internal/app/system/authz"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CanView reports whether the current user may read dues parameters for the
// organization. Members see their own organization's fee schedule when
// renewing; admins and superadmins follow the usual org-access rule.
func CanView(r *http.Request, orgID primitive.ObjectID) bool {
	_, _, _, ok := authz.UserCtx(r)
	if !ok {
		return false
	}
	return authz.CanAccessOrg(r, orgID)
}

// CanManage reports whether the current user may create or edit dues
// parameters: admins of that organization and superadmins.
func CanManage(r *http.Request, orgID primitive.ObjectID) bool {
	return authz.IsAdmin(r) && authz.CanAccessOrg(r, orgID)
}
