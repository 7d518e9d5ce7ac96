// internal/app/store/parameters/parameterstore.go
package parameterstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/memberhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicateParameter is returned when a create collides with the unique
// (organization_id, year) index.
var ErrDuplicateParameter = errors.New("parameters already exist for this organization and year")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("parameters")}
}

// Create inserts a new yearly parameter document.
func (s *Store) Create(ctx context.Context, p models.Parameter) (models.Parameter, error) {
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.CreatedAt = now
	p.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Parameter{}, ErrDuplicateParameter
		}
		return models.Parameter{}, err
	}
	return p, nil
}

// GetByOrgYear returns the parameter document for (orgID, year), or
// mongo.ErrNoDocuments.
func (s *Store) GetByOrgYear(ctx context.Context, orgID primitive.ObjectID, year int) (models.Parameter, error) {
	var p models.Parameter
	err := s.c.FindOne(ctx, bson.M{"organization_id": orgID, "year": year}).Decode(&p)
	return p, err
}

// List returns all parameter documents, newest year first, optionally
// restricted to one organization.
func (s *Store) List(ctx context.Context, orgID *primitive.ObjectID) ([]models.Parameter, error) {
	filter := bson.M{}
	if orgID != nil {
		filter["organization_id"] = *orgID
	}
	opts := options.Find().SetSort(bson.D{{Key: "year", Value: -1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Parameter
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReplaceFees swaps the fee schedule for (orgID, year) and returns the
// updated document, or mongo.ErrNoDocuments.
func (s *Store) ReplaceFees(ctx context.Context, orgID primitive.ObjectID, year int, fees []models.FeeTier) (models.Parameter, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var p models.Parameter
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"organization_id": orgID, "year": year},
		bson.M{"$set": bson.M{"fees": fees, "updated_at": time.Now().UTC()}},
		opts,
	).Decode(&p)
	return p, err
}

// SetWindow sets the membership-window flag for (orgID, year) and returns
// the updated document, or mongo.ErrNoDocuments.
func (s *Store) SetWindow(ctx context.Context, orgID primitive.ObjectID, year int, open bool) (models.Parameter, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var p models.Parameter
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"organization_id": orgID, "year": year},
		bson.M{"$set": bson.M{"membership_open": open, "updated_at": time.Now().UTC()}},
		opts,
	).Decode(&p)
	return p, err
}

// RolloverYear clones each organization's fromYear parameters into toYear
// with the membership window closed, skipping organizations that already
// have a toYear document. Returns the number of documents created.
func (s *Store) RolloverYear(ctx context.Context, fromYear, toYear int) (int, error) {
	cur, err := s.c.Find(ctx, bson.M{"year": fromYear})
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)

	var current []models.Parameter
	if err := cur.All(ctx, &current); err != nil {
		return 0, err
	}

	created := 0
	for _, p := range current {
		next := models.Parameter{
			OrganizationID: p.OrganizationID,
			Year:           toYear,
			Fees:           p.Fees,
			MembershipOpen: false,
		}
		if _, err := s.Create(ctx, next); err != nil {
			if err == ErrDuplicateParameter {
				continue
			}
			return created, err
		}
		created++
	}
	return created, nil
}

// OpenDueWindows opens the membership window on every parameter document
// whose renewal date has passed, returning the number opened.
func (s *Store) OpenDueWindows(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{
			"membership_open":  false,
			"renewal_opens_at": bson.M{"$ne": nil, "$lte": now},
		},
		bson.M{"$set": bson.M{"membership_open": true, "updated_at": now.UTC()}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
