// internal/app/system/dispatch/dispatcher.go

// Package dispatch sends a communication to a resolved recipient list in
// rate-limited batches. The provider throttles bursts, so recipients go out
// in fixed-size batches with a pause between them; failures are recorded per
// recipient and never abort the run.
package dispatch

import (
	"context"
	"html/template"
	"time"

	"github.com/dalemusser/memberhub/internal/app/system/mailer"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultBatchSize is the number of recipients emailed concurrently.
	DefaultBatchSize = 10
	// DefaultBatchDelay is the pause between consecutive batches.
	DefaultBatchDelay = 1000 * time.Millisecond
	// maxRecordedErrors caps how many per-recipient failures a result keeps.
	// Counts are exact; only the error detail is truncated.
	maxRecordedErrors = 10
)

// Sender delivers a single email. *mailer.Mailer satisfies it.
type Sender interface {
	Send(ctx context.Context, msg mailer.Email) error
}

// Result is the raw outcome of one dispatch run. Errors holds at most the
// most recent maxRecordedErrors failures.
type Result struct {
	Sent   int
	Failed int
	Errors []models.SendError
}

// Dispatcher sends communications batch by batch.
type Dispatcher struct {
	sender    Sender
	batchSize int
	delay     time.Duration
	now       func() time.Time
	log       *zap.Logger
}

// New builds a Dispatcher with the default batch size and delay.
func New(sender Sender, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		sender:    sender,
		batchSize: DefaultBatchSize,
		delay:     DefaultBatchDelay,
		now:       time.Now,
		log:       logger,
	}
}

// Dispatch emails comm to every recipient using org's sender identity and
// branding. Every recipient is attempted even when earlier sends fail; the
// only early exit is context cancellation, which stops before the next
// batch and reports the recipients reached so far.
func (d *Dispatcher) Dispatch(ctx context.Context, comm *models.Communication, org models.Organization, recipients []models.User) Result {
	base := mailer.BuildCommunicationEmail(mailer.CommunicationEmailData{
		OrgName:        org.Name,
		HeaderImageURL: org.HeaderImageURL,
		Subject:        comm.Subject,
		BodyHTML:       template.HTML(comm.BodyHTML),
	})
	base.FromName = org.SenderName
	base.FromEmail = org.SenderEmail

	var result Result

	for start := 0; start < len(recipients); start += d.batchSize {
		if start > 0 {
			if !d.sleep(ctx) {
				d.log.Warn("dispatch canceled between batches",
					zap.String("communication_id", comm.ID.Hex()),
					zap.Int("sent", result.Sent),
					zap.Int("failed", result.Failed))
				return result
			}
		}

		end := start + d.batchSize
		if end > len(recipients) {
			end = len(recipients)
		}
		batch := recipients[start:end]

		// Failures within a batch are collected by recipient position so the
		// recorded order is stable regardless of send completion order.
		failures := make([]error, len(batch))
		g, gctx := errgroup.WithContext(ctx)
		for i, user := range batch {
			msg := base
			msg.To = user.Email
			g.Go(func() error {
				failures[i] = d.sender.Send(gctx, msg)
				return nil
			})
		}
		_ = g.Wait()

		for i, sendErr := range failures {
			if sendErr == nil {
				result.Sent++
				continue
			}
			result.Failed++
			d.log.Warn("send failed",
				zap.String("communication_id", comm.ID.Hex()),
				zap.String("to", batch[i].Email),
				zap.Error(sendErr))
			result.Errors = append(result.Errors, models.SendError{
				Email: batch[i].Email,
				Error: sendErr.Error(),
				Date:  d.now().UTC(),
			})
			if len(result.Errors) > maxRecordedErrors {
				result.Errors = result.Errors[len(result.Errors)-maxRecordedErrors:]
			}
		}
	}

	return result
}

// sleep pauses for the inter-batch delay; returns false if ctx was canceled
// first.
func (d *Dispatcher) sleep(ctx context.Context) bool {
	t := time.NewTimer(d.delay)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
