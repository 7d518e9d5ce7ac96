// internal/domain/models/membership.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Membership status values.
const (
	MembershipActive           = "active"
	MembershipExpired          = "expired"
	MembershipPending          = "pending"
	MembershipPaymentRequested = "payment_requested"
)

// Membership ties a user to an organization for one calendar year.
// Exactly one document per (user_id, organization_id, year).
//
// Membership creation and payment handling live in the signup service;
// MemberHub reads memberships and flips active records to expired at the
// year rollover.
type Membership struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         primitive.ObjectID `bson:"user_id" json:"user_id"`
	OrganizationID primitive.ObjectID `bson:"organization_id" json:"organization_id"`
	Year           int                `bson:"year" json:"year"`
	Status         string             `bson:"status" json:"status"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}
