// internal/app/policy/articlepolicy.go
package articlepolicy

import (
	"net/http"

	"github.com/dalemusser/memberhub/internal/app/system/authz"
	"github.com/dalemusser/memberhub/internal/domain/models"
)

// CanView reports whether the current user may read the article.
//
// Readers see only published articles: an article whose publish time has
// passed but that the publish sweep has not flipped yet is still hidden,
// status is the single source of truth. Visibility then scopes published
// articles to everyone or to the owning organization's members.
//
// Admins additionally see unpublished articles for organizations they can
// manage, so they can proofread drafts and scheduled posts.
func CanView(r *http.Request, art *models.Article) bool {
	if art.Status != models.ArticlePublished {
		return authz.IsAdmin(r) && authz.CanAccessOrg(r, art.OrganizationID)
	}
	if art.Visibility == models.VisibilityAll {
		return true
	}
	return authz.CanAccessOrg(r, art.OrganizationID)
}

// CanManage reports whether the current user may create, edit, or delete the
// article: admins of the owning organization and superadmins.
func CanManage(r *http.Request, art *models.Article) bool {
	return authz.IsAdmin(r) && authz.CanAccessOrg(r, art.OrganizationID)
}
