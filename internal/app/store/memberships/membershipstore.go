// internal/app/store/memberships/membershipstore.go
package membershipstore

// Membership documents are created by the signup/payment service. MemberHub
// queries them for recipient resolution and member self-service, and flips
// active records to expired at the year rollover.

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
	return &Store{c: db.Collection("memberships")}
}

// ListByUser returns all membership records for one user, newest year first.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Membership, error) {
	opts := options.Find().SetSort(bson.D{{Key: "year", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Membership
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByOrg returns membership records for an organization, optionally
// filtered by year (non-zero) and status (non-empty).
func (s *Store) ListByOrg(ctx context.Context, orgID primitive.ObjectID, year int, status string) ([]models.Membership, error) {
	filter := bson.M{"organization_id": orgID}
	if year != 0 {
		filter["year"] = year
	}
	if status != "" {
		filter["status"] = status
	}
	cur, err := s.c.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Membership
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ByStatuses returns every membership record whose status is in statuses,
// across all organizations and years.
func (s *Store) ByStatuses(ctx context.Context, statuses []string) ([]models.Membership, error) {
	cur, err := s.c.Find(ctx, bson.M{"status": bson.M{"$in": statuses}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Membership
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ByCriterion returns membership records matching one {org, year, status}
// targeting triple.
func (s *Store) ByCriterion(ctx context.Context, crit models.MembershipCriterion) ([]models.Membership, error) {
	cur, err := s.c.Find(ctx, bson.M{
		"organization_id": crit.OrganizationID,
		"year":            crit.Year,
		"status":          crit.Status,
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Membership
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ActiveInYear returns every active membership record for the given year.
func (s *Store) ActiveInYear(ctx context.Context, year int) ([]models.Membership, error) {
	cur, err := s.c.Find(ctx, bson.M{"year": year, "status": models.MembershipActive})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Membership
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ExpireBefore flips every active membership with year < before to expired.
// Returns the number of records updated. The rollover job calls this with
// the new current year, so running it twice is harmless.
func (s *Store) ExpireBefore(ctx context.Context, before int) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"status": models.MembershipActive, "year": bson.M{"$lt": before}},
		bson.M{"$set": bson.M{"status": models.MembershipExpired, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
