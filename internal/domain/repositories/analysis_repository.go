package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/shot-analyzer/internal/domain/entities"
)

// AnalysisRepository defines the interface for analysis data access
type AnalysisRepository interface {
	// Create inserts a new analysis
	Create(ctx context.Context, analysis *entities.Analysis) error

	// FindByID retrieves an analysis, nil when missing
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Analysis, error)

	// SaveProgress persists the pipeline fields of an analysis
	SaveProgress(ctx context.Context, analysis *entities.Analysis) error

	// Claim marks an analysis as owned by a worker. It fails when a claim
	// newer than staleBefore is already held.
	Claim(ctx context.Context, id uuid.UUID, staleBefore time.Time) (bool, error)

	// Release drops the worker claim
	Release(ctx context.Context, id uuid.UUID) error

	// ReleaseStale drops claims older than before
	ReleaseStale(ctx context.Context, before time.Time) (int64, error)

	// FindRunnable lists unclaimed analyses a worker can advance, oldest first
	FindRunnable(ctx context.Context, limit int) ([]entities.Analysis, error)

	// FindScorablePage lists analyses carrying a checklist, ordered by id
	FindScorablePage(ctx context.Context, filter ScorableFilter) ([]entities.Analysis, error)

	// ApplyScores writes a page of score updates in one transaction.
	// Rows that left the rated and scored states or are claimed by a
	// worker are skipped. It returns the number of rows written.
	ApplyScores(ctx context.Context, updates []ScoreUpdate) (int, error)
}

// ScorableFilter is a cursor page request over scorable analyses
type ScorableFilter struct {
	ShotType *entities.ShotType
	AfterID  *uuid.UUID
	Limit    int
}

// ScoreUpdate is one recomputed score
type ScoreUpdate struct {
	ID           uuid.UUID
	Result       entities.ScoreResult
	ProfileRef   string
	StatusReason string
	Warnings     []string
}
