// internal/app/system/delivery/delivery.go

// Package delivery drives a communication through one send attempt: claim it,
// resolve recipients, dispatch, record the outcome. Both the immediate-send
// endpoint and the scheduled-send sweep go through the same coordinator so
// the claim semantics cannot drift between triggers.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/memberhub/internal/app/system/dispatch"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ErrNoRecipients means the targeting rule resolved to nobody. The claim is
// released and the communication stays in its prior state so the author can
// adjust the targeting and retry.
var ErrNoRecipients = errors.New("delivery: no recipients resolved")

// recordTimeout bounds the post-dispatch bookkeeping writes, which run on a
// context detached from the triggering one.
const recordTimeout = 30 * time.Second

// CommunicationStore is the claim-and-record surface of the communications
// collection.
type CommunicationStore interface {
	BeginSending(ctx context.Context, id primitive.ObjectID, fromStatus string) (models.Communication, error)
	RevertSending(ctx context.Context, id primitive.ObjectID, toStatus string) error
	RecordDelivery(ctx context.Context, id primitive.ObjectID, result models.DeliveryResult) error
}

// OrganizationStore looks up the sending organization's identity.
type OrganizationStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Organization, error)
}

// Resolver computes the recipient set for a communication.
type Resolver interface {
	Resolve(ctx context.Context, comm *models.Communication) ([]models.User, error)
}

// Batcher sends a communication to a recipient list.
type Batcher interface {
	Dispatch(ctx context.Context, comm *models.Communication, org models.Organization, recipients []models.User) dispatch.Result
}

// Coordinator runs send attempts end to end.
type Coordinator struct {
	comms      CommunicationStore
	orgs       OrganizationStore
	resolver   Resolver
	dispatcher Batcher
	now        func() time.Time
	log        *zap.Logger
}

// New builds a Coordinator.
func New(comms CommunicationStore, orgs OrganizationStore, resolver Resolver, dispatcher Batcher, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		comms:      comms,
		orgs:       orgs,
		resolver:   resolver,
		dispatcher: dispatcher,
		now:        time.Now,
		log:        logger,
	}
}

// Send claims the communication out of fromStatus, resolves its recipients,
// dispatches, and records the delivery result. fromStatus is the state the
// caller observed ("draft" for the endpoint, "scheduled" for the sweep); the
// claim fails if another trigger got there first.
//
// An empty recipient set reverts the claim and returns ErrNoRecipients. Any
// failure after dispatch has started is logged but the dispatch outcome is
// still recorded; individual send failures live inside the recorded result,
// not in the returned error.
func (c *Coordinator) Send(ctx context.Context, id primitive.ObjectID, fromStatus string) (models.DeliveryResult, error) {
	comm, err := c.comms.BeginSending(ctx, id, fromStatus)
	if err != nil {
		return models.DeliveryResult{}, err
	}

	recipients, err := c.resolver.Resolve(ctx, &comm)
	if err != nil {
		c.revert(ctx, id, fromStatus)
		return models.DeliveryResult{}, fmt.Errorf("resolve recipients: %w", err)
	}
	if len(recipients) == 0 {
		c.revert(ctx, id, fromStatus)
		return models.DeliveryResult{}, ErrNoRecipients
	}

	org, err := c.orgs.GetByID(ctx, comm.OrganizationID)
	if err != nil {
		c.revert(ctx, id, fromStatus)
		return models.DeliveryResult{}, fmt.Errorf("load organization: %w", err)
	}

	attemptID := uuid.NewString()
	c.log.Info("dispatching communication",
		zap.String("communication_id", id.Hex()),
		zap.String("attempt_id", attemptID),
		zap.Int("recipients", len(recipients)))

	outcome := c.dispatcher.Dispatch(ctx, &comm, org, recipients)

	result := models.DeliveryResult{
		AttemptID:   attemptID,
		Sent:        outcome.Sent,
		Failed:      outcome.Failed,
		Errors:      outcome.Errors,
		CompletedAt: c.now().UTC(),
	}
	// Record on a context that survives cancellation of ctx: if the caller's
	// deadline fired mid-dispatch the partial counts still have to land, or
	// the communication is stranded in sending with no reclaim path.
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := c.comms.RecordDelivery(recordCtx, id, result); err != nil {
		// The emails are out; surface the bookkeeping failure but hand the
		// caller the result we computed.
		c.log.Error("record delivery failed",
			zap.String("communication_id", id.Hex()),
			zap.String("attempt_id", attemptID),
			zap.Error(err))
		return result, fmt.Errorf("record delivery: %w", err)
	}

	c.log.Info("communication sent",
		zap.String("communication_id", id.Hex()),
		zap.String("attempt_id", attemptID),
		zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed))
	return result, nil
}

func (c *Coordinator) revert(ctx context.Context, id primitive.ObjectID, toStatus string) {
	// Same survival rule as RecordDelivery: the claim must be released even
	// when the triggering context is already dead.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := c.comms.RevertSending(ctx, id, toStatus); err != nil {
		c.log.Error("revert sending claim failed",
			zap.String("communication_id", id.Hex()),
			zap.Error(err))
	}
}
