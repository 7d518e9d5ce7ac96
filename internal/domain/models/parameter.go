// internal/domain/models/parameter.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FeeTier is one line of an organization's yearly fee schedule.
// Amounts are stored in cents to avoid floating-point money.
type FeeTier struct {
	Label       string `bson:"label" json:"label"`
	AmountCents int    `bson:"amount_cents" json:"amount_cents"`
}

// Parameter holds the per-organization, per-year dues schedule and the
// membership-window flag. Exactly one document per (organization_id, year).
//
// Dues calculation itself lives in the signup service; MemberHub owns the
// values and the admin surface that edits them.
type Parameter struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrganizationID primitive.ObjectID `bson:"organization_id" json:"organization_id"`
	Year           int                `bson:"year" json:"year"`

	Fees []FeeTier `bson:"fees" json:"fees"`

	// MembershipOpen gates whether new memberships can be taken for Year.
	// Admins toggle it directly; the renewal-window job opens it once
	// RenewalOpensAt passes.
	MembershipOpen bool       `bson:"membership_open" json:"membership_open"`
	RenewalOpensAt *time.Time `bson:"renewal_opens_at,omitempty" json:"renewal_opens_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
