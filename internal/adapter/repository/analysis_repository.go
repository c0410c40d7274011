package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/johnquangdev/shot-analyzer/internal/domain/entities"
	"github.com/johnquangdev/shot-analyzer/internal/domain/repositories"
)

// AnalysisRepository handles analysis data operations
type AnalysisRepository struct {
	db *gorm.DB
}

// NewAnalysisRepository creates a new analysis repository
func NewAnalysisRepository(db *gorm.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

var _ repositories.AnalysisRepository = (*AnalysisRepository)(nil)

// Create creates a new analysis
func (r *AnalysisRepository) Create(ctx context.Context, analysis *entities.Analysis) error {
	if analysis == nil {
		return errors.New("analysis cannot be nil")
	}
	return r.db.WithContext(ctx).Create(analysis).Error
}

// FindByID retrieves an analysis by ID
func (r *AnalysisRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Analysis, error) {
	var analysis entities.Analysis
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&analysis).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &analysis, nil
}

// SaveProgress persists every field a pipeline stage may change
func (r *AnalysisRepository) SaveProgress(ctx context.Context, analysis *entities.Analysis) error {
	if analysis == nil {
		return errors.New("analysis cannot be nil")
	}
	res := r.db.WithContext(ctx).
		Model(&entities.Analysis{}).
		Where("id = ?", analysis.ID).
		Updates(map[string]interface{}{
			"status":             analysis.Status,
			"status_reason":      analysis.StatusReason,
			"angles":             analysis.Angles,
			"validation":         analysis.Validation,
			"boundary":           analysis.Boundary,
			"checklist":          analysis.Checklist,
			"checklist_source":   analysis.ChecklistSource,
			"weight_profile_ref": analysis.WeightProfileRef,
			"score":              analysis.Score,
			"score_unresolvable": analysis.ScoreUnresolvable,
			"breakdown":          analysis.Breakdown,
			"warnings":           analysis.Warnings,
			"updated_at":         time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("analysis %s: %w", analysis.ID, gorm.ErrRecordNotFound)
	}
	return nil
}

// Claim atomically marks an analysis as owned by the calling worker.
// Only one worker succeeds if several see the same analysis.
func (r *AnalysisRepository) Claim(ctx context.Context, id uuid.UUID, staleBefore time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&entities.Analysis{}).
		Where("id = ? AND (claimed_at IS NULL OR claimed_at < ?)", id, staleBefore).
		Update("claimed_at", time.Now())
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Release clears the worker claim
func (r *AnalysisRepository) Release(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&entities.Analysis{}).
		Where("id = ?", id).
		Update("claimed_at", nil).Error
}

// ReleaseStale clears claims left behind by crashed or hung workers
func (r *AnalysisRepository) ReleaseStale(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&entities.Analysis{}).
		Where("claimed_at IS NOT NULL AND claimed_at < ?", before).
		Update("claimed_at", nil)
	return res.RowsAffected, res.Error
}

// FindRunnable retrieves unclaimed analyses that stopped before a terminal
// or parked state. Bounded analyses wait for a checklist and are skipped.
func (r *AnalysisRepository) FindRunnable(ctx context.Context, limit int) ([]entities.Analysis, error) {
	var analyses []entities.Analysis
	if limit == 0 {
		limit = 10
	}
	if err := r.db.WithContext(ctx).
		Where("status IN ? AND claimed_at IS NULL", []entities.AnalysisStatus{
			entities.AnalysisStatusPending,
			entities.AnalysisStatusValidated,
			entities.AnalysisStatusExtracted,
			entities.AnalysisStatusRated,
		}).
		Order("updated_at ASC").
		Limit(limit).
		Find(&analyses).Error; err != nil {
		return nil, err
	}
	return analyses, nil
}

// FindScorablePage retrieves one cursor page of analyses with a checklist
func (r *AnalysisRepository) FindScorablePage(ctx context.Context, filter repositories.ScorableFilter) ([]entities.Analysis, error) {
	var analyses []entities.Analysis
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}

	query := r.db.WithContext(ctx).
		Where("status IN ?", []entities.AnalysisStatus{entities.AnalysisStatusRated, entities.AnalysisStatusScored})
	if filter.ShotType != nil {
		query = query.Where("shot_type = ?", *filter.ShotType)
	}
	if filter.AfterID != nil {
		query = query.Where("id > ?", *filter.AfterID)
	}

	if err := query.Order("id ASC").Limit(limit).Find(&analyses).Error; err != nil {
		return nil, err
	}
	return analyses, nil
}

// ApplyScores writes all updates of a page or none of them. An analysis
// that was claimed or reset since the page was read is left untouched.
func (r *AnalysisRepository) ApplyScores(ctx context.Context, updates []repositories.ScoreUpdate) (int, error) {
	if len(updates) == 0 {
		return 0, nil
	}
	applied := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		for _, u := range updates {
			score := u.Result.Score
			breakdown := u.Result.Breakdown
			warnings := u.Warnings
			if warnings == nil {
				warnings = []string{}
			}
			res := tx.Model(&entities.Analysis{}).
				Where("id = ? AND status IN ? AND claimed_at IS NULL", u.ID, []entities.AnalysisStatus{
					entities.AnalysisStatusRated,
					entities.AnalysisStatusScored,
				}).
				Updates(map[string]interface{}{
					"status":             entities.AnalysisStatusScored,
					"status_reason":      u.StatusReason,
					"score":              &score,
					"score_unresolvable": u.Result.Unresolvable,
					"breakdown":          datatypes.NewJSONType(&breakdown),
					"weight_profile_ref": u.ProfileRef,
					"warnings":           datatypes.NewJSONType(warnings),
					"updated_at":         now,
				})
			if res.Error != nil {
				return fmt.Errorf("update analysis %s: %w", u.ID, res.Error)
			}
			applied += int(res.RowsAffected)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return applied, nil
}
