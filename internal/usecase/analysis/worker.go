package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	usecaseErrors "github.com/johnquangdev/shot-analyzer/internal/usecase/errors"
)

// staleGrace is added to the run timeout before a claim counts as a zombie
const staleGrace = time.Minute

// StartWorkerPool starts the queue workers, the runnable poller and the
// zombie claim sweeper
func (s *analysisService) StartWorkerPool(ctx context.Context) error {
	s.workerMutex.Lock()
	defer s.workerMutex.Unlock()

	if s.isWorkerPoolRunning {
		return fmt.Errorf("worker pool already running")
	}

	workerCount := s.cfg.Workers
	if workerCount <= 0 {
		workerCount = 1
	}

	poolCtx, cancel := context.WithCancel(ctx)
	s.workerCancel = cancel
	s.workerStopChan = make(chan struct{})
	s.isWorkerPoolRunning = true

	if s.logger != nil {
		s.logger.Info("🚀 Starting analysis worker pool",
			zap.Int("worker_count", workerCount),
			zap.Duration("poll_interval", s.pollInterval()),
		)
	}

	for i := 0; i < workerCount; i++ {
		s.workerWg.Add(1)
		go s.worker(poolCtx, i)
	}

	s.workerWg.Add(1)
	go s.runnablePoller(poolCtx)

	s.workerWg.Add(1)
	go s.cleanupZombieClaims(poolCtx)

	return nil
}

// StopWorkerPool stops the workers. Running analyses are abandoned at
// their next stage boundary and resumed later by the poller.
func (s *analysisService) StopWorkerPool() error {
	s.workerMutex.Lock()
	defer s.workerMutex.Unlock()

	if !s.isWorkerPoolRunning {
		return fmt.Errorf("worker pool not running")
	}

	if s.logger != nil {
		s.logger.Info("🛑 Stopping analysis worker pool...")
	}

	close(s.workerStopChan)
	s.workerCancel()
	s.workerWg.Wait()
	s.isWorkerPoolRunning = false

	if s.logger != nil {
		s.logger.Info("✅ Analysis worker pool stopped")
	}
	return nil
}

func (s *analysisService) pollInterval() time.Duration {
	if s.cfg.PollInterval <= 0 {
		return 30 * time.Second
	}
	return s.cfg.PollInterval
}

// worker runs queued analyses one at a time
func (s *analysisService) worker(ctx context.Context, workerID int) {
	defer s.workerWg.Done()

	if s.logger != nil {
		s.logger.Info("👷 Worker started", zap.Int("worker_id", workerID))
	}

	for {
		select {
		case <-s.workerStopChan:
			if s.logger != nil {
				s.logger.Info("👷 Worker stopping", zap.Int("worker_id", workerID))
			}
			return

		case id := <-s.queue:
			s.process(ctx, id, workerID)
		}
	}
}

func (s *analysisService) process(ctx context.Context, id uuid.UUID, workerID int) {
	err := s.run(ctx, id, TriggerQueue, workerID)
	switch {
	case err == nil:
	case errors.Is(err, usecaseErrors.ErrAlreadyClaimed):
		if s.logger != nil {
			s.logger.Debug("analysis already claimed, skipping",
				zap.String("analysis_id", id.String()),
				zap.Int("worker_id", workerID),
			)
		}
	case errors.Is(err, usecaseErrors.ErrRunAbandoned):
		// state up to the last stage is persisted
	default:
		if s.logger != nil {
			s.logger.Error("❌ Analysis run failed",
				zap.String("analysis_id", id.String()),
				zap.Int("worker_id", workerID),
				zap.Error(err),
			)
		}
	}
}

// runnablePoller queues unclaimed analyses that were submitted while the
// queue was full or left behind by a stopped worker
func (s *analysisService) runnablePoller(ctx context.Context) {
	defer s.workerWg.Done()

	ticker := time.NewTicker(s.pollInterval())
	defer ticker.Stop()

	for {
		select {
		case <-s.workerStopChan:
			return

		case <-ticker.C:
			limit := cap(s.queue) - len(s.queue)
			if limit <= 0 {
				continue
			}
			analyses, err := s.analyses.FindRunnable(ctx, limit)
			if err != nil {
				if s.logger != nil {
					s.logger.Error("❌ Failed to poll runnable analyses", zap.Error(err))
				}
				continue
			}
			for _, a := range analyses {
				if !s.Enqueue(a.ID) {
					break
				}
			}
		}
	}
}

// cleanupZombieClaims releases claims whose run must have died
func (s *analysisService) cleanupZombieClaims(ctx context.Context) {
	defer s.workerWg.Done()

	ticker := time.NewTicker(s.runTimeout())
	defer ticker.Stop()

	for {
		select {
		case <-s.workerStopChan:
			return

		case <-ticker.C:
			released, err := s.analyses.ReleaseStale(ctx, time.Now().Add(-s.runTimeout()-staleGrace))
			if err != nil {
				if s.logger != nil {
					s.logger.Error("❌ Failed to release stale claims", zap.Error(err))
				}
				continue
			}
			if released > 0 && s.logger != nil {
				s.logger.Warn("🧹 Released zombie analysis claims", zap.Int64("count", released))
			}
		}
	}
}
