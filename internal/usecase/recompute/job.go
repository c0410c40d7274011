package recompute

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/johnquangdev/shot-analyzer/internal/domain/entities"
	domainrepo "github.com/johnquangdev/shot-analyzer/internal/domain/repositories"
	usecaseErrors "github.com/johnquangdev/shot-analyzer/internal/usecase/errors"
	"github.com/johnquangdev/shot-analyzer/internal/usecase/scoring"
)

const (
	// DefaultPageSize is the number of analyses rescored per write batch
	DefaultPageSize = 200

	lockKey        = "recompute"
	defaultLockTTL = 10 * time.Minute
)

// Locker grants a single recompute at a time
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	// Extend resets the TTL while token still owns the lock
	Extend(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key, token string) error
}

// ProfileSnapshot reads every weight profile in one go
type ProfileSnapshot interface {
	Snapshot(ctx context.Context) (map[entities.ShotType]*entities.WeightProfile, error)
}

// Request selects what to rescore
type Request struct {
	// ShotType limits the run to one shot type; nil rescores everything
	ShotType *entities.ShotType
	// StartAfter resumes after the last committed id of an aborted run
	StartAfter *uuid.UUID
}

// Result reports the outcome of a run. On failure it still carries the
// count and cursor of the pages committed before the failing one.
type Result struct {
	UpdatedCount int                          `json:"updated_count"`
	SkippedCount int                          `json:"skipped_count"`
	Pages        int                          `json:"pages"`
	LastID       *uuid.UUID                   `json:"last_id,omitempty"`
	ProfileRefs  map[entities.ShotType]string `json:"profile_refs"`
}

// Job rescores stored checklists against the current weight profiles
type Job struct {
	analyses domainrepo.AnalysisRepository
	profiles ProfileSnapshot
	locker   Locker
	pageSize int
	lockTTL  time.Duration
	logger   *zap.Logger
	tracer   trace.Tracer
}

// NewJob creates a recompute job
func NewJob(analyses domainrepo.AnalysisRepository, profiles ProfileSnapshot, locker Locker, pageSize int, lockTTL time.Duration, logger *zap.Logger) *Job {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if lockTTL <= 0 {
		lockTTL = defaultLockTTL
	}
	return &Job{
		analyses: analyses,
		profiles: profiles,
		locker:   locker,
		pageSize: pageSize,
		lockTTL:  lockTTL,
		logger:   logger,
		tracer:   otel.Tracer("github.com/johnquangdev/shot-analyzer/internal/usecase/recompute"),
	}
}

// Run walks scorable analyses in id order, one committed page at a time.
// Profiles are read once so every record of a run uses the same weights.
func (j *Job) Run(ctx context.Context, req Request) (*Result, error) {
	if req.ShotType != nil && !req.ShotType.IsValid() {
		return nil, fmt.Errorf("%w: unknown shot type %q", usecaseErrors.ErrInvalidInput, *req.ShotType)
	}

	token, ok, err := j.locker.Acquire(ctx, lockKey, j.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire recompute lock: %w", err)
	}
	if !ok {
		return nil, usecaseErrors.ErrRecomputeInProgress
	}
	defer func() {
		if err := j.locker.Release(context.WithoutCancel(ctx), lockKey, token); err != nil && j.logger != nil {
			j.logger.Error("❌ Failed to release recompute lock", zap.Error(err))
		}
	}()

	snapshot, err := j.profiles.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read weight profiles: %w", err)
	}

	result := &Result{LastID: req.StartAfter, ProfileRefs: make(map[entities.ShotType]string, len(snapshot))}
	for shotType, profile := range snapshot {
		if req.ShotType == nil || *req.ShotType == shotType {
			result.ProfileRefs[shotType] = profile.Ref()
		}
	}

	if j.logger != nil {
		j.logger.Info("🚀 Recompute started",
			zap.Int("page_size", j.pageSize),
			zap.Any("profiles", result.ProfileRefs),
		)
	}

	started := time.Now()
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		page, err := j.analyses.FindScorablePage(ctx, domainrepo.ScorableFilter{
			ShotType: req.ShotType,
			AfterID:  result.LastID,
			Limit:    j.pageSize,
		})
		if err != nil {
			return result, fmt.Errorf("failed to read page %d: %w", result.Pages+1, err)
		}
		if len(page) == 0 {
			break
		}

		applied, err := j.applyPage(ctx, result.Pages+1, page, snapshot)
		if err != nil {
			if j.logger != nil {
				j.logger.Error("❌ Recompute aborted",
					zap.Int("page", result.Pages+1),
					zap.Int("updated_count", result.UpdatedCount),
					zap.Error(err),
				)
			}
			return result, err
		}

		last := page[len(page)-1].ID
		result.LastID = &last
		result.UpdatedCount += applied
		result.SkippedCount += len(page) - applied
		result.Pages++

		// each committed page renews the lock for the next one
		held, err := j.locker.Extend(ctx, lockKey, token, j.lockTTL)
		if err != nil {
			return result, fmt.Errorf("failed to extend recompute lock: %w", err)
		}
		if !held {
			if j.logger != nil {
				j.logger.Error("❌ Recompute lock expired, stopping",
					zap.Int("pages", result.Pages),
					zap.Int("updated_count", result.UpdatedCount),
				)
			}
			return result, usecaseErrors.ErrRecomputeLockLost
		}

		if len(page) < j.pageSize {
			break
		}
	}

	if j.logger != nil {
		j.logger.Info("✅ Recompute finished",
			zap.Int("updated_count", result.UpdatedCount),
			zap.Int("skipped_count", result.SkippedCount),
			zap.Int("pages", result.Pages),
			zap.Duration("elapsed", time.Since(started)),
		)
	}
	return result, nil
}

func (j *Job) applyPage(ctx context.Context, number int, page []entities.Analysis, snapshot map[entities.ShotType]*entities.WeightProfile) (int, error) {
	ctx, span := j.tracer.Start(ctx, "recompute.page", trace.WithAttributes(
		attribute.Int("recompute.page", number),
		attribute.Int("recompute.size", len(page)),
	))
	defer span.End()

	updates := make([]domainrepo.ScoreUpdate, 0, len(page))
	for _, a := range page {
		profile, ok := snapshot[a.ShotType]
		if !ok {
			profile, ok = snapshot[entities.ShotTypeGeneral]
		}
		if !ok {
			err := fmt.Errorf("no weight profile for shot type %q", a.ShotType)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return 0, err
		}

		res := scoring.Score(a.Checklist.Data(), profile)
		a.SetWarning(scoring.UnresolvableWarning, res.Unresolvable)
		updates = append(updates, domainrepo.ScoreUpdate{
			ID:           a.ID,
			Result:       res,
			ProfileRef:   profile.Ref(),
			StatusReason: scoring.StatusReason(res, profile.Ref()),
			Warnings:     a.Warnings.Data(),
		})
	}

	applied, err := j.analyses.ApplyScores(ctx, updates)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("%w: page %d: %v", usecaseErrors.ErrBatchPageWriteFailure, number, err)
	}
	span.SetAttributes(attribute.Int("recompute.applied", applied))
	if skipped := len(updates) - applied; skipped > 0 && j.logger != nil {
		j.logger.Warn("⏭️ Analyses changed since the page was read, skipped",
			zap.Int("page", number),
			zap.Int("skipped", skipped),
		)
	}
	return applied, nil
}
