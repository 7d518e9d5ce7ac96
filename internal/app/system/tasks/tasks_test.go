// internal/app/system/tasks/tasks_test.go
package tasks

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dalemusser/memberhub/internal/app/system/delivery"
	"github.com/dalemusser/memberhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// fakeDeps satisfies every job dependency interface with canned data.
type fakeDeps struct {
	due     []models.Communication
	listErr error
	sendFn  func(id primitive.ObjectID) error
}

func (f *fakeDeps) DueScheduled(context.Context, time.Time) ([]models.Communication, error) {
	return f.due, f.listErr
}

func (f *fakeDeps) Send(_ context.Context, id primitive.ObjectID, _ string) (models.DeliveryResult, error) {
	if f.sendFn != nil {
		return models.DeliveryResult{}, f.sendFn(id)
	}
	return models.DeliveryResult{}, nil
}

func (f *fakeDeps) PublishDue(context.Context, time.Time) (int64, error) { return 0, nil }

func (f *fakeDeps) ExpireBefore(context.Context, int) (int64, error) { return 0, nil }

func (f *fakeDeps) RolloverYear(context.Context, int, int) (int, error) { return 0, nil }

func (f *fakeDeps) OpenDueWindows(context.Context, time.Time) (int64, error) { return 0, nil }

func TestRunnerRejectsInvalidSpec(t *testing.T) {
	r := NewRunner(zap.NewNop())
	err := r.Register(Job{Name: "bad", Spec: "not a cron spec", Run: func(context.Context) error { return nil }})
	if err == nil {
		t.Fatal("expected error for invalid spec")
	}
}

func TestRunnerRunsJobAndSurvivesFailure(t *testing.T) {
	r := NewRunner(zap.NewNop())
	var runs atomic.Int32

	err := r.Register(Job{
		Name: "flaky",
		Spec: "@every 10ms",
		Run: func(context.Context) error {
			if runs.Add(1) == 1 {
				return errors.New("first run fails")
			}
			return nil
		},
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	r.Start()
	defer r.Stop()

	deadline := time.After(2 * time.Second)
	for runs.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("job ran %d times, want at least 2 (failure must not unschedule it)", runs.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestJobSpecsParse(t *testing.T) {
	logger := zap.NewNop()
	deps := &fakeDeps{}

	jobs := []Job{
		CommunicationSendJob(deps, deps, logger),
		ArticlePublishJob(deps, logger),
		MembershipExpiryJob(deps, logger),
		ParameterRolloverJob(deps, logger),
		RenewalWindowJob(deps, logger),
	}

	r := NewRunner(logger)
	for _, job := range jobs {
		if err := r.Register(job); err != nil {
			t.Fatalf("job %s has unparseable spec %q: %v", job.Name, job.Spec, err)
		}
	}
}

func TestCommunicationSendJobContinuesPastPerItemFailures(t *testing.T) {
	a, b, c := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()

	var attempted []primitive.ObjectID
	sendErrs := map[primitive.ObjectID]error{
		a: delivery.ErrNoRecipients,
		b: errors.New("provider outage"),
	}
	deps := &fakeDeps{
		due: []models.Communication{{ID: a}, {ID: b}, {ID: c}},
		sendFn: func(id primitive.ObjectID) error {
			attempted = append(attempted, id)
			return sendErrs[id]
		},
	}

	job := CommunicationSendJob(deps, deps, zap.NewNop())
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("sweep returned %v; per-item failures should not fail the sweep", err)
	}
	if len(attempted) != 3 {
		t.Fatalf("attempted %d sends, want all 3", len(attempted))
	}
}

func TestCommunicationSendJobPropagatesListFailure(t *testing.T) {
	deps := &fakeDeps{listErr: errors.New("db down")}
	job := CommunicationSendJob(deps, deps, zap.NewNop())
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected list failure to surface")
	}
}
