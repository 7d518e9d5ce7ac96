// internal/app/policy/communicationpolicy.go
package communicationpolicy

import (
	"net/http"

	"github.com/dalemusser/memberhub/internal/app/system/authz"
	"github.com/dalemusser/memberhub/internal/domain/models"
)

// CanView reports whether the current user may read the communication:
// admins of the owning organization, and superadmins everywhere.
// Communications are internal mailing records, never member-facing.
func CanView(r *http.Request, comm *models.Communication) bool {
	if !authz.IsAdmin(r) {
		return false
	}
	return authz.CanAccessOrg(r, comm.OrganizationID)
}

// CanEdit reports whether the current user may modify or delete the
// communication. Only the author can, and only while it is still a draft;
// scheduling freezes it, and other admins of the same organization can read
// it but not touch it. Superadmins get no bypass here: edits stay with the
// author.
func CanEdit(r *http.Request, comm *models.Communication) bool {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok || !authz.IsAdmin(r) {
		return false
	}
	if comm.AuthorID != uid {
		return false
	}
	return comm.Status == models.CommunicationDraft
}

// CanSend reports whether the current user may trigger delivery. Any admin
// of the owning organization can send, not just the author; the office
// routinely sends drafts prepared by a colleague.
func CanSend(r *http.Request, comm *models.Communication) bool {
	return CanView(r, comm)
}
