package models_test

import (
	"testing"

	"github.com/dalemusser/memberhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestOrgIDs_MergesLegacyAndCurrent(t *testing.T) {
	legacy := primitive.NewObjectID()
	other := primitive.NewObjectID()

	u := models.User{
		OrganizationID:  &legacy,
		OrganizationIDs: []primitive.ObjectID{legacy, other},
	}

	got := u.OrgIDs()
	if len(got) != 2 {
		t.Fatalf("OrgIDs() = %v, want 2 entries", got)
	}
	if got[0] != legacy || got[1] != other {
		t.Errorf("OrgIDs() = %v, want legacy first then %s", got, other.Hex())
	}
}

func TestOrgIDs_LegacyOnly(t *testing.T) {
	legacy := primitive.NewObjectID()
	u := models.User{OrganizationID: &legacy}

	got := u.OrgIDs()
	if len(got) != 1 || got[0] != legacy {
		t.Errorf("OrgIDs() = %v", got)
	}
}

func TestOrgIDs_SkipsNilIDs(t *testing.T) {
	u := models.User{
		OrganizationID:  &primitive.NilObjectID,
		OrganizationIDs: []primitive.ObjectID{primitive.NilObjectID},
	}
	if got := u.OrgIDs(); len(got) != 0 {
		t.Errorf("OrgIDs() = %v, want empty", got)
	}
}

func TestBelongsTo(t *testing.T) {
	member := primitive.NewObjectID()
	stranger := primitive.NewObjectID()

	u := models.User{OrganizationIDs: []primitive.ObjectID{member}}

	if !u.BelongsTo(member) {
		t.Error("expected membership in listed organization")
	}
	if u.BelongsTo(stranger) {
		t.Error("unexpected membership in unlisted organization")
	}
}
