// internal/app/store/organizations/organizationstore.go
package organizationstore

import (
	"context"
	"strings"

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
	return &Store{c: db.Collection("organizations")}
}

// GetByID returns the organization with the given ID, or mongo.ErrNoDocuments.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Organization, error) {
	var org models.Organization
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&org)
	return org, err
}

// GetByCode returns the organization with the given code. Codes are stored
// lowercase; the lookup folds case so legacy audience values match.
func (s *Store) GetByCode(ctx context.Context, code string) (models.Organization, error) {
	var org models.Organization
	err := s.c.FindOne(ctx, bson.M{"code": strings.ToLower(strings.TrimSpace(code))}).Decode(&org)
	return org, err
}

// List returns all organizations ordered by name.
func (s *Store) List(ctx context.Context) ([]models.Organization, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var orgs []models.Organization
	if err := cur.All(ctx, &orgs); err != nil {
		return nil, err
	}
	return orgs, nil
}
