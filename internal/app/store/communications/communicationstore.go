// internal/app/store/communications/communicationstore.go
package communicationstore

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

// ErrNotEditable is returned when an update or delete targets a
// communication that is no longer a draft. Drafts are the only mutable
// state; once scheduled or sent, the record is immutable through this store.
var ErrNotEditable = errors.New("communication is not a draft")

// ErrNotSendable is returned when a send claim finds the communication in a
// different status than expected: either it was already claimed by a
// concurrent trigger or it is not in a sendable state at all.
var ErrNotSendable = errors.New("communication is not in a sendable state")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("communications")}
}

// Create inserts a new communication and returns it with its assigned ID.
func (s *Store) Create(ctx context.Context, comm models.Communication) (models.Communication, error) {
	now := time.Now().UTC()
	comm.ID = primitive.NewObjectID()
	comm.CreatedAt = now
	comm.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, comm); err != nil {
		return models.Communication{}, err
	}
	return comm, nil
}

// GetByID returns the communication with the given ID, or mongo.ErrNoDocuments.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Communication, error) {
	var comm models.Communication
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&comm)
	return comm, err
}

// ListByOrg returns communications authored in one organization, newest first.
func (s *Store) ListByOrg(ctx context.Context, orgID primitive.ObjectID) ([]models.Communication, error) {
	return s.list(ctx, bson.M{"organization_id": orgID})
}

// ListAll returns every communication, newest first. Superadmin listing only.
func (s *Store) ListAll(ctx context.Context) ([]models.Communication, error) {
	return s.list(ctx, bson.M{})
}

func (s *Store) list(ctx context.Context, filter bson.M) ([]models.Communication, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Communication
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateDraft replaces the mutable fields of a draft. The status filter is
// part of the update so the draft-only invariant holds even when the check
// and the write race with a send.
func (s *Store) UpdateDraft(ctx context.Context, id primitive.ObjectID, comm models.Communication) (models.Communication, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Communication
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": models.CommunicationDraft},
		bson.M{"$set": bson.M{
			"subject":      comm.Subject,
			"body_html":    comm.BodyHTML,
			"health_alert": comm.HealthAlert,
			"criteria":     comm.Criteria,
			"audience":     comm.Audience,
			"status":       comm.Status,
			"scheduled_at": comm.ScheduledAt,
			"updated_at":   time.Now().UTC(),
		}},
		opts,
	).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		// Distinguish "gone" from "no longer editable" for the handler.
		if exists, exErr := s.exists(ctx, id); exErr == nil && exists {
			return models.Communication{}, ErrNotEditable
		}
		return models.Communication{}, mongo.ErrNoDocuments
	}
	return updated, err
}

// Delete removes a draft. Deleting a scheduled or sent communication fails
// with ErrNotEditable.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "status": models.CommunicationDraft})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		if exists, exErr := s.exists(ctx, id); exErr == nil && exists {
			return ErrNotEditable
		}
		return mongo.ErrNoDocuments
	}
	return nil
}

// BeginSending atomically claims the communication for dispatch by moving it
// from fromStatus to sending. Exactly one of several concurrent triggers
// wins the claim; the rest get ErrNotSendable.
func (s *Store) BeginSending(ctx context.Context, id primitive.ObjectID, fromStatus string) (models.Communication, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var comm models.Communication
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": fromStatus},
		bson.M{"$set": bson.M{
			"status":     models.CommunicationSending,
			"updated_at": time.Now().UTC(),
		}},
		opts,
	).Decode(&comm)
	if err == mongo.ErrNoDocuments {
		if exists, exErr := s.exists(ctx, id); exErr == nil && !exists {
			return models.Communication{}, mongo.ErrNoDocuments
		}
		return models.Communication{}, ErrNotSendable
	}
	return comm, err
}

// RevertSending returns a claimed communication to toStatus. Used when
// recipient resolution comes back empty and nothing was dispatched.
func (s *Store) RevertSending(ctx context.Context, id primitive.ObjectID, toStatus string) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.CommunicationSending},
		bson.M{"$set": bson.M{"status": toStatus, "updated_at": time.Now().UTC()}},
	)
	return err
}

// RecordDelivery writes the dispatch outcome and marks the communication
// sent. The delivery result replaces any previous one wholesale; a resend
// does not accumulate onto earlier counters.
func (s *Store) RecordDelivery(ctx context.Context, id primitive.ObjectID, result models.DeliveryResult) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"status":     models.CommunicationSent,
			"delivery":   result,
			"updated_at": time.Now().UTC(),
		}},
	)
	return err
}

// DueScheduled returns scheduled communications whose send time has passed.
func (s *Store) DueScheduled(ctx context.Context, now time.Time) ([]models.Communication, error) {
	return s.list(ctx, bson.M{
		"status":       models.CommunicationScheduled,
		"scheduled_at": bson.M{"$lte": now},
	})
}

func (s *Store) exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
