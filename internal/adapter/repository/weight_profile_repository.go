package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/johnquangdev/shot-analyzer/internal/domain/entities"
	"github.com/johnquangdev/shot-analyzer/internal/domain/repositories"
)

// WeightProfileRepository handles weight profile data operations
type WeightProfileRepository struct {
	db *gorm.DB
}

// NewWeightProfileRepository creates a new weight profile repository
func NewWeightProfileRepository(db *gorm.DB) *WeightProfileRepository {
	return &WeightProfileRepository{db: db}
}

var _ repositories.WeightProfileRepository = (*WeightProfileRepository)(nil)

// FindByShotType retrieves the committed profile for a shot type
func (r *WeightProfileRepository) FindByShotType(ctx context.Context, shotType entities.ShotType) (*entities.WeightProfile, error) {
	var profile entities.WeightProfile
	if err := r.db.WithContext(ctx).Where("shot_type = ?", shotType).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// Upsert stores a profile, incrementing the version of an existing one
func (r *WeightProfileRepository) Upsert(ctx context.Context, profile *entities.WeightProfile) error {
	if profile == nil {
		return errors.New("profile cannot be nil")
	}
	if err := profile.Validate(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing entities.WeightProfile
		err := tx.Where("shot_type = ?", profile.ShotType).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			profile.Version = 1
			return tx.Create(profile).Error
		case err != nil:
			return err
		}
		profile.Version = existing.Version + 1
		return tx.Model(&entities.WeightProfile{}).
			Where("shot_type = ?", profile.ShotType).
			Updates(map[string]interface{}{
				"weights":    profile.Weights,
				"version":    profile.Version,
				"updated_at": time.Now(),
			}).Error
	})
}

// List retrieves every stored profile
func (r *WeightProfileRepository) List(ctx context.Context) ([]entities.WeightProfile, error) {
	var profiles []entities.WeightProfile
	if err := r.db.WithContext(ctx).Order("shot_type ASC").Find(&profiles).Error; err != nil {
		return nil, err
	}
	return profiles, nil
}
