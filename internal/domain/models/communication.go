// internal/domain/models/communication.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Communication status values. A communication moves draft → (scheduled →)
// sending → sent; "sending" is a short-lived claim that prevents two
// triggers from dispatching the same communication twice.
const (
	CommunicationDraft     = "draft"
	CommunicationScheduled = "scheduled"
	CommunicationSending   = "sending"
	CommunicationSent      = "sent"
)

// Legacy audience values. Any other non-empty value names an organization by
// code. Ignored entirely when HealthAlert is set or Criteria is non-empty.
const (
	AudienceOwnOrg  = "own_org"
	AudienceAllOrgs = "all_orgs"
)

// MembershipCriterion selects membership records by organization, year and
// status. A communication may carry several; their matches are unioned.
type MembershipCriterion struct {
	OrganizationID primitive.ObjectID `bson:"organization_id" json:"organization_id"`
	Year           int                `bson:"year" json:"year"`
	Status         string             `bson:"status" json:"status"`
}

// SendError records one failed recipient from a dispatch attempt.
type SendError struct {
	Email string    `bson:"email" json:"email"`
	Error string    `bson:"error" json:"error"`
	Date  time.Time `bson:"date" json:"date"`
}

// DeliveryResult is the outcome of one dispatch attempt. It is written
// wholesale: a resend replaces the previous result rather than accumulating
// into it. Errors keeps only the most recent entries; Sent and Failed count
// everything.
type DeliveryResult struct {
	AttemptID   string      `bson:"attempt_id" json:"attempt_id"`
	Sent        int         `bson:"sent" json:"sent"`
	Failed      int         `bson:"failed" json:"failed"`
	Errors      []SendError `bson:"errors,omitempty" json:"errors,omitempty"`
	CompletedAt time.Time   `bson:"completed_at" json:"completed_at"`
}

// Communication is an admin-authored message emailed to resolved recipients.
//
// Targeting uses exactly one of three shapes, in priority order:
// HealthAlert, then Criteria, then the legacy Audience value. The recipients
// package turns these fields into a tagged rule so the priority is explicit.
type Communication struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrganizationID primitive.ObjectID `bson:"organization_id" json:"organization_id"`
	AuthorID       primitive.ObjectID `bson:"author_id" json:"author_id"`

	Subject  string `bson:"subject" json:"subject"`
	BodyHTML string `bson:"body_html" json:"body_html"`

	HealthAlert bool                  `bson:"health_alert" json:"health_alert"`
	Criteria    []MembershipCriterion `bson:"criteria,omitempty" json:"criteria,omitempty"`
	Audience    string                `bson:"audience,omitempty" json:"audience,omitempty"`

	Status      string          `bson:"status" json:"status"`
	ScheduledAt *time.Time      `bson:"scheduled_at,omitempty" json:"scheduled_at,omitempty"`
	Delivery    *DeliveryResult `bson:"delivery,omitempty" json:"delivery,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
