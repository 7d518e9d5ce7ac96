// internal/app/store/preferences/preferencestore.go
package preferencestore

// At most one preference document exists per user (unique index on user_id).
// Two read paths with deliberately different missing-document behavior:
//
//   - GetOrCreate: the preferences endpoint; lazily inserts the defaults.
//   - Get: the recipient resolver; reports absence and creates nothing, so
//     a user who never opened their preferences is excluded from every
//     communication category.

import (
	"context"
	"time"

	"github.com/dalemusser/memberhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("preferences")}
}

// Get returns the user's preference document, or (nil, nil) if none exists.
func (s *Store) Get(ctx context.Context, userID primitive.ObjectID) (*models.Preference, error) {
	var pref models.Preference
	err := s.c.FindOne(ctx, bson.M{"user_id": userID}).Decode(&pref)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pref, nil
}

// GetOrCreate returns the user's preference document, inserting the defaults
// first if none exists. The upsert with $setOnInsert keeps the one-per-user
// invariant even under concurrent first reads.
func (s *Store) GetOrCreate(ctx context.Context, userID primitive.ObjectID) (models.Preference, error) {
	defaults := models.DefaultPreference(userID)
	now := time.Now().UTC()

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var pref models.Preference
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"user_id": userID},
		bson.M{"$setOnInsert": bson.M{
			"user_id":                  userID,
			"own_org_communications":   defaults.OwnOrgCommunications,
			"other_org_communications": defaults.OtherOrgCommunications,
			"health_alerts":            defaults.HealthAlerts,
			"created_at":               now,
			"updated_at":               now,
		}},
		opts,
	).Decode(&pref)
	return pref, err
}

// Update replaces the user's three opt-in flags, creating the document if it
// does not exist yet.
func (s *Store) Update(ctx context.Context, userID primitive.ObjectID, ownOrg, otherOrg, healthAlerts bool) (models.Preference, error) {
	now := time.Now().UTC()

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var pref models.Preference
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"user_id": userID},
		bson.M{
			"$set": bson.M{
				"own_org_communications":   ownOrg,
				"other_org_communications": otherOrg,
				"health_alerts":            healthAlerts,
				"updated_at":               now,
			},
			"$setOnInsert": bson.M{
				"user_id":    userID,
				"created_at": now,
			},
		},
		opts,
	).Decode(&pref)
	return pref, err
}
