// internal/app/policy/parameterpolicy_test.go
package parameterpolicy

import (
	"testing"

	"github.com/dalemusser/memberhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCanView(t *testing.T) {
	orgA := primitive.NewObjectID()
	orgB := primitive.NewObjectID()

	if !CanView(testutil.Request(t, "GET", "/", nil, testutil.MemberUser(orgA)), orgA) {
		t.Fatal("member cannot view their own organization's parameters")
	}
	if CanView(testutil.Request(t, "GET", "/", nil, testutil.MemberUser(orgB)), orgA) {
		t.Fatal("member viewed another organization's parameters")
	}
	if !CanView(testutil.Request(t, "GET", "/", nil, testutil.SuperAdminUser()), orgA) {
		t.Fatal("superadmin cannot view")
	}
	if CanView(testutil.Request(t, "GET", "/", nil, nil), orgA) {
		t.Fatal("anonymous viewed parameters")
	}
}

func TestCanManage(t *testing.T) {
	orgA := primitive.NewObjectID()
	orgB := primitive.NewObjectID()

	if !CanManage(testutil.Request(t, "POST", "/", nil, testutil.AdminUser(orgA)), orgA) {
		t.Fatal("own-org admin cannot manage")
	}
	if CanManage(testutil.Request(t, "POST", "/", nil, testutil.AdminUser(orgB)), orgA) {
		t.Fatal("other-org admin managed foreign parameters")
	}
	if CanManage(testutil.Request(t, "POST", "/", nil, testutil.MemberUser(orgA)), orgA) {
		t.Fatal("member managed parameters")
	}
}
