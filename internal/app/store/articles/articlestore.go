// internal/app/store/articles/articlestore.go
package articlestore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/memberhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrStatusChanged is returned when an update finds the article in a
// different status than the caller observed, typically because the publish
// sweep flipped it between the read and the write.
var ErrStatusChanged = errors.New("article status changed concurrently")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("articles")}
}

// Create inserts a new article and returns it with its assigned ID.
func (s *Store) Create(ctx context.Context, art models.Article) (models.Article, error) {
	now := time.Now().UTC()
	art.ID = primitive.NewObjectID()
	art.CreatedAt = now
	art.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, art); err != nil {
		return models.Article{}, err
	}
	return art, nil
}

// GetByID returns the article with the given ID, or mongo.ErrNoDocuments.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Article, error) {
	var art models.Article
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&art)
	return art, err
}

// List returns all articles, newest first. Visibility filtering happens at
// the feature layer because it depends on the viewer.
func (s *Store) List(ctx context.Context) ([]models.Article, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Article
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update replaces the mutable fields of an article and returns the updated
// document. fromStatus is the status the caller observed; making it part of
// the filter keeps the forward-only state machine intact even when the
// write races the publish sweep. Returns mongo.ErrNoDocuments when the
// article is gone and ErrStatusChanged when only the status moved.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, fromStatus string, art models.Article) (models.Article, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Article
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": fromStatus},
		bson.M{"$set": bson.M{
			"title":      art.Title,
			"title_ci":   art.TitleCI,
			"body_html":  art.BodyHTML,
			"status":     art.Status,
			"publish_at": art.PublishAt,
			"visibility": art.Visibility,
			"updated_at": time.Now().UTC(),
		}},
		opts,
	).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		if exists, exErr := s.exists(ctx, id); exErr == nil && exists {
			return models.Article{}, ErrStatusChanged
		}
		return models.Article{}, mongo.ErrNoDocuments
	}
	return updated, err
}

func (s *Store) exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": id})
	return n > 0, err
}

// Delete removes an article.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// PublishDue flips every scheduled article whose publish time has passed to
// published, returning the number flipped. Articles already published no
// longer match the filter, so running the sweep twice is harmless.
func (s *Store) PublishDue(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{
			"status":     models.ArticleScheduled,
			"publish_at": bson.M{"$lte": now},
		},
		bson.M{"$set": bson.M{
			"status":     models.ArticlePublished,
			"updated_at": now.UTC(),
		}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
