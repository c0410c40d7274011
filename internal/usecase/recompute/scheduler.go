package recompute

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	usecaseErrors "github.com/johnquangdev/shot-analyzer/internal/usecase/errors"
)

// Scheduler runs a full recompute on a cron expression
type Scheduler struct {
	cron   *cron.Cron
	job    *Job
	logger *zap.Logger
}

// NewScheduler registers the job under schedule. Standard five-field
// expressions and descriptors such as @daily are accepted.
func NewScheduler(job *Job, schedule string, logger *zap.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:   cron.New(),
		job:    job,
		logger: logger,
	}
	if _, err := s.cron.AddFunc(schedule, func() { s.runOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid recompute schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start begins firing the schedule in the background
func (s *Scheduler) Start() {
	s.cron.Start()
	if s.logger != nil {
		entries := s.cron.Entries()
		if len(entries) > 0 {
			s.logger.Info("⏰ Recompute schedule started", zap.Time("next_run", entries[0].Next))
		}
	}
}

// Stop stops the schedule; the returned context is done once a running
// recompute has finished
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) runOnce(ctx context.Context) {
	result, err := s.job.Run(ctx, Request{})
	if s.logger == nil {
		return
	}
	switch {
	case errors.Is(err, usecaseErrors.ErrRecomputeInProgress):
		s.logger.Info("⏭️ Scheduled recompute skipped, another run holds the lock")
	case err != nil:
		fields := []zap.Field{zap.Error(err)}
		if result != nil {
			fields = append(fields, zap.Int("updated_count", result.UpdatedCount))
		}
		s.logger.Error("❌ Scheduled recompute failed", fields...)
	default:
		s.logger.Info("✅ Scheduled recompute done", zap.Int("updated_count", result.UpdatedCount))
	}
}
