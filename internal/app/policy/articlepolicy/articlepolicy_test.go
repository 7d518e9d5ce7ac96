// internal/app/policy/articlepolicy_test.go
package articlepolicy

import (
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/memberhub/internal/domain/models"
	"github.com/dalemusser/memberhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCanViewPublished(t *testing.T) {
	orgA := primitive.NewObjectID()
	orgB := primitive.NewObjectID()

	public := &models.Article{OrganizationID: orgA, Status: models.ArticlePublished, Visibility: models.VisibilityAll}
	orgOnly := &models.Article{OrganizationID: orgA, Status: models.ArticlePublished, Visibility: models.VisibilityOrganization}

	tests := []struct {
		name string
		art  *models.Article
		req  *http.Request
		want bool
	}{
		{"public article, member of other org", public, testutil.Request(t, "GET", "/", nil, testutil.MemberUser(orgB)), true},
		{"org-only article, member of the org", orgOnly, testutil.Request(t, "GET", "/", nil, testutil.MemberUser(orgA)), true},
		{"org-only article, member of other org", orgOnly, testutil.Request(t, "GET", "/", nil, testutil.MemberUser(orgB)), false},
		{"org-only article, superadmin", orgOnly, testutil.Request(t, "GET", "/", nil, testutil.SuperAdminUser()), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanView(tc.req, tc.art); got != tc.want {
				t.Fatalf("CanView = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCanViewUnpublishedIsAdminOnly(t *testing.T) {
	orgA := primitive.NewObjectID()
	orgB := primitive.NewObjectID()

	// Scheduled with a publish time already in the past: until the publish
	// sweep flips the status, readers must not see it.
	past := time.Now().Add(-time.Hour)
	dueButUnswept := &models.Article{
		OrganizationID: orgA,
		Status:         models.ArticleScheduled,
		Visibility:     models.VisibilityAll,
		PublishAt:      &past,
	}

	if CanView(testutil.Request(t, "GET", "/", nil, testutil.MemberUser(orgA)), dueButUnswept) {
		t.Fatal("member saw a scheduled article before the sweep published it")
	}
	if !CanView(testutil.Request(t, "GET", "/", nil, testutil.AdminUser(orgA)), dueButUnswept) {
		t.Fatal("own-org admin cannot preview a scheduled article")
	}
	if CanView(testutil.Request(t, "GET", "/", nil, testutil.AdminUser(orgB)), dueButUnswept) {
		t.Fatal("other-org admin previewed a foreign scheduled article")
	}

	draft := &models.Article{OrganizationID: orgA, Status: models.ArticleDraft, Visibility: models.VisibilityAll}
	if CanView(testutil.Request(t, "GET", "/", nil, testutil.MemberUser(orgA)), draft) {
		t.Fatal("member saw a draft")
	}
}

func TestCanManage(t *testing.T) {
	orgA := primitive.NewObjectID()
	orgB := primitive.NewObjectID()
	art := &models.Article{OrganizationID: orgA, Status: models.ArticleDraft}

	if !CanManage(testutil.Request(t, "PUT", "/", nil, testutil.AdminUser(orgA)), art) {
		t.Fatal("own-org admin cannot manage")
	}
	if CanManage(testutil.Request(t, "PUT", "/", nil, testutil.AdminUser(orgB)), art) {
		t.Fatal("other-org admin managed a foreign article")
	}
	if CanManage(testutil.Request(t, "PUT", "/", nil, testutil.MemberUser(orgA)), art) {
		t.Fatal("member managed an article")
	}
	if !CanManage(testutil.Request(t, "PUT", "/", nil, testutil.SuperAdminUser()), art) {
		t.Fatal("superadmin cannot manage")
	}
}
