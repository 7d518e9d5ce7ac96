// internal/domain/models/preference.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Preference holds a user's opt-in flags for the three communication
// categories. At most one document per user.
//
// A missing document means different things depending on the reader: the
// preferences endpoint lazily creates one with DefaultPreference values,
// while the recipient resolver treats a missing document as all-false.
type Preference struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID primitive.ObjectID `bson:"user_id" json:"user_id"`

	OwnOrgCommunications   bool `bson:"own_org_communications" json:"own_org_communications"`
	OtherOrgCommunications bool `bson:"other_org_communications" json:"other_org_communications"`
	HealthAlerts           bool `bson:"health_alerts" json:"health_alerts"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// DefaultPreference returns the flags assigned when a user reads their
// preferences for the first time.
func DefaultPreference(userID primitive.ObjectID) Preference {
	return Preference{
		UserID:                 userID,
		OwnOrgCommunications:   true,
		OtherOrgCommunications: false,
		HealthAlerts:           true,
	}
}
