package repositories

import (
	"context"

	"github.com/johnquangdev/shot-analyzer/internal/domain/entities"
)

// WeightProfileRepository defines the interface for weight profile data access
type WeightProfileRepository interface {
	// FindByShotType retrieves the latest committed profile, nil when missing
	FindByShotType(ctx context.Context, shotType entities.ShotType) (*entities.WeightProfile, error)

	// Upsert stores a profile and bumps its version
	Upsert(ctx context.Context, profile *entities.WeightProfile) error

	// List returns every stored profile
	List(ctx context.Context) ([]entities.WeightProfile, error)
}
