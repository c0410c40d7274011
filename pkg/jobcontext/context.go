package jobcontext

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type KeyContext string

var (
	keyAnalysisID   KeyContext = "analysis_id"
	keyTrigger      KeyContext = "trigger"
	keyWorkerID     KeyContext = "worker_id"
	keyRunStartTime KeyContext = "run_start_time"
)

// RunMetadata holds metadata for one pipeline run
type RunMetadata struct {
	AnalysisID uuid.UUID
	Trigger    string
	WorkerID   int
	StartTime  time.Time
}

// RunBegin derives a run context with metadata and a hard timeout.
// A zero timeout defaults to 5 minutes.
func RunBegin(parentCtx context.Context, analysisID uuid.UUID, trigger string, workerID int, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	ctx, cancel := context.WithTimeout(parentCtx, timeout)

	ctx = context.WithValue(ctx, keyAnalysisID, analysisID)
	ctx = context.WithValue(ctx, keyTrigger, trigger)
	ctx = context.WithValue(ctx, keyWorkerID, workerID)
	ctx = context.WithValue(ctx, keyRunStartTime, time.Now())

	return ctx, cancel
}

// RunEnd executes the run exactly once, converting a panic into an error.
// Pipeline runs are never retried here; a failed run surfaces as the
// analysis error status and is restarted by an explicit reanalysis.
func RunEnd(ctx context.Context, runFunc func(context.Context) error) (err error) {
	if ctx.Err() != nil {
		return fmt.Errorf("context cancelled before run: %w", ctx.Err())
	}

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic recovered: %v", p)
		}
	}()

	return runFunc(ctx)
}

// GetAnalysisID extracts the analysis ID from context
func GetAnalysisID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(keyAnalysisID).(uuid.UUID)
	return id, ok
}

// GetTrigger extracts what started the run (queue, poller, reanalyze)
func GetTrigger(ctx context.Context) (string, bool) {
	trigger, ok := ctx.Value(keyTrigger).(string)
	return trigger, ok
}

// GetWorkerID extracts worker ID from context
func GetWorkerID(ctx context.Context) int {
	workerID, ok := ctx.Value(keyWorkerID).(int)
	if !ok {
		return -1
	}
	return workerID
}

// GetRunStartTime extracts run start time from context
func GetRunStartTime(ctx context.Context) (time.Time, bool) {
	startTime, ok := ctx.Value(keyRunStartTime).(time.Time)
	return startTime, ok
}

// GetRunMetadata extracts all run metadata from context
func GetRunMetadata(ctx context.Context) *RunMetadata {
	id, _ := GetAnalysisID(ctx)
	trigger, _ := GetTrigger(ctx)
	startTime, _ := GetRunStartTime(ctx)

	return &RunMetadata{
		AnalysisID: id,
		Trigger:    trigger,
		WorkerID:   GetWorkerID(ctx),
		StartTime:  startTime,
	}
}
