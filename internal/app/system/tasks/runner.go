// internal/app/system/tasks/runner.go

// Package tasks runs the application's background jobs on cron schedules.
// Jobs are registered at startup and share one cron scheduler; a job failure
// is logged and the next tick runs normally.
package tasks

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// defaultJobTimeout bounds a single job run. The communication sweep can
// dispatch whole mailings, so this has to cover batch delays on a large
// recipient list.
const defaultJobTimeout = 15 * time.Minute

// Job is one scheduled unit of work. Spec uses standard five-field cron
// syntax (or the @every form).
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

// Runner owns the cron scheduler and the registered jobs.
type Runner struct {
	cron *cron.Cron
	log  *zap.Logger
}

// NewRunner builds an empty Runner.
func NewRunner(logger *zap.Logger) *Runner {
	return &Runner{
		cron: cron.New(),
		log:  logger,
	}
}

// Register schedules a job. An invalid cron spec is returned as an error so
// startup can fail loudly instead of silently dropping the job.
func (r *Runner) Register(job Job) error {
	_, err := r.cron.AddFunc(job.Spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), defaultJobTimeout)
		defer cancel()

		start := time.Now()
		if err := job.Run(ctx); err != nil {
			r.log.Error("job failed",
				zap.String("job", job.Name),
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err))
			return
		}
		r.log.Debug("job completed",
			zap.String("job", job.Name),
			zap.Duration("elapsed", time.Since(start)))
	})
	if err != nil {
		return err
	}
	r.log.Info("job registered",
		zap.String("job", job.Name),
		zap.String("spec", job.Spec))
	return nil
}

// Start begins running registered jobs on their schedules.
func (r *Runner) Start() {
	r.cron.Start()
}

// Stop halts scheduling and waits for any in-flight job to finish.
func (r *Runner) Stop() {
	<-r.cron.Stop().Done()
}
