package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/shot-analyzer/internal/domain/entities"
	"github.com/johnquangdev/shot-analyzer/internal/domain/repositories"
)

// KeyframeRepository handles keyframe data operations
type KeyframeRepository struct {
	db *gorm.DB
}

// NewKeyframeRepository creates a new keyframe repository
func NewKeyframeRepository(db *gorm.DB) *KeyframeRepository {
	return &KeyframeRepository{db: db}
}

var _ repositories.KeyframeRepository = (*KeyframeRepository)(nil)

// CreateBatch inserts the frames of one angle in a single transaction
func (r *KeyframeRepository) CreateBatch(ctx context.Context, frames []*entities.Keyframe) error {
	if len(frames) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(frames, 50).Error
	})
}

// FindByAngle retrieves the frames of one angle ordered by index
func (r *KeyframeRepository) FindByAngle(ctx context.Context, analysisID uuid.UUID, angle entities.AngleName) ([]entities.Keyframe, error) {
	var frames []entities.Keyframe
	if err := r.db.WithContext(ctx).
		Where("analysis_id = ? AND angle = ?", analysisID, angle).
		Order("frame_index ASC").
		Find(&frames).Error; err != nil {
		return nil, err
	}
	return frames, nil
}

// CountByAngle counts stored frames per angle
func (r *KeyframeRepository) CountByAngle(ctx context.Context, analysisID uuid.UUID) (map[entities.AngleName]int, error) {
	var rows []struct {
		Angle entities.AngleName
		Count int
	}
	if err := r.db.WithContext(ctx).
		Model(&entities.Keyframe{}).
		Select("angle, COUNT(*) AS count").
		Where("analysis_id = ?", analysisID).
		Group("angle").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[entities.AngleName]int, len(rows))
	for _, row := range rows {
		counts[row.Angle] = row.Count
	}
	return counts, nil
}
