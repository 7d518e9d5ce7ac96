// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"errors"
	"time"

	communicationstore "github.com/dalemusser/memberhub/internal/app/store/communications"
	"github.com/dalemusser/memberhub/internal/app/system/delivery"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ScheduledCommunicationSource lists communications whose scheduled send
// time has arrived.
type ScheduledCommunicationSource interface {
	DueScheduled(ctx context.Context, now time.Time) ([]models.Communication, error)
}

// Deliverer runs one send attempt; the delivery coordinator satisfies it.
type Deliverer interface {
	Send(ctx context.Context, id primitive.ObjectID, fromStatus string) (models.DeliveryResult, error)
}

// ArticlePublisher flips due scheduled articles to published.
type ArticlePublisher interface {
	PublishDue(ctx context.Context, now time.Time) (int64, error)
}

// MembershipExpirer marks stale active memberships expired.
type MembershipExpirer interface {
	ExpireBefore(ctx context.Context, before int) (int64, error)
}

// ParameterMaintainer covers the two yearly parameter chores.
type ParameterMaintainer interface {
	RolloverYear(ctx context.Context, fromYear, toYear int) (int, error)
	OpenDueWindows(ctx context.Context, now time.Time) (int64, error)
}

// CommunicationSendJob sweeps for scheduled communications that are due and
// dispatches each one. Runs every minute; the coordinator's claim keeps a
// slow sweep from colliding with the next one.
func CommunicationSendJob(comms ScheduledCommunicationSource, deliverer Deliverer, logger *zap.Logger) Job {
	return Job{
		Name: "communication-send-sweep",
		Spec: "* * * * *",
		Run: func(ctx context.Context) error {
			due, err := comms.DueScheduled(ctx, time.Now().UTC())
			if err != nil {
				return err
			}
			for _, comm := range due {
				_, err := deliverer.Send(ctx, comm.ID, models.CommunicationScheduled)
				switch {
				case err == nil:
				case errors.Is(err, delivery.ErrNoRecipients):
					logger.Warn("scheduled communication has no recipients",
						zap.String("communication_id", comm.ID.Hex()))
				case errors.Is(err, communicationstore.ErrNotSendable):
					// Claimed by another trigger between listing and sending.
				default:
					logger.Error("scheduled send failed",
						zap.String("communication_id", comm.ID.Hex()),
						zap.Error(err))
				}
			}
			return nil
		},
	}
}

// ArticlePublishJob publishes scheduled articles whose publish time has
// arrived. Runs every minute.
func ArticlePublishJob(articles ArticlePublisher, logger *zap.Logger) Job {
	return Job{
		Name: "article-publish-sweep",
		Spec: "* * * * *",
		Run: func(ctx context.Context) error {
			n, err := articles.PublishDue(ctx, time.Now().UTC())
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("articles published", zap.Int64("count", n))
			}
			return nil
		},
	}
}

// MembershipExpiryJob expires active memberships from past years. Runs
// shortly after midnight on January 1st, after the parameter rollover.
func MembershipExpiryJob(memberships MembershipExpirer, logger *zap.Logger) Job {
	return Job{
		Name: "membership-expiry",
		Spec: "5 0 1 1 *",
		Run: func(ctx context.Context) error {
			year := time.Now().UTC().Year()
			n, err := memberships.ExpireBefore(ctx, year)
			if err != nil {
				return err
			}
			logger.Info("memberships expired",
				zap.Int("before_year", year),
				zap.Int64("count", n))
			return nil
		},
	}
}

// ParameterRolloverJob clones the previous year's dues parameters into the
// new year at midnight on January 1st. Organizations that already created
// next year's parameters are skipped.
func ParameterRolloverJob(params ParameterMaintainer, logger *zap.Logger) Job {
	return Job{
		Name: "parameter-rollover",
		Spec: "0 0 1 1 *",
		Run: func(ctx context.Context) error {
			year := time.Now().UTC().Year()
			n, err := params.RolloverYear(ctx, year-1, year)
			if err != nil {
				return err
			}
			logger.Info("parameters rolled over",
				zap.Int("year", year),
				zap.Int("created", n))
			return nil
		},
	}
}

// RenewalWindowJob opens membership renewal for parameters whose configured
// opening date has passed. Runs once a day.
func RenewalWindowJob(params ParameterMaintainer, logger *zap.Logger) Job {
	return Job{
		Name: "renewal-window-check",
		Spec: "30 0 * * *",
		Run: func(ctx context.Context) error {
			n, err := params.OpenDueWindows(ctx, time.Now().UTC())
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("renewal windows opened", zap.Int64("count", n))
			}
			return nil
		},
	}
}
