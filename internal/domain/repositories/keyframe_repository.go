package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/johnquangdev/shot-analyzer/internal/domain/entities"
)

// KeyframeRepository defines the interface for keyframe data access.
// Keyframes are append-only.
type KeyframeRepository interface {
	// CreateBatch stores all frames of one angle atomically
	CreateBatch(ctx context.Context, frames []*entities.Keyframe) error

	// FindByAngle lists the frames of an angle in ascending index order
	FindByAngle(ctx context.Context, analysisID uuid.UUID, angle entities.AngleName) ([]entities.Keyframe, error)

	// CountByAngle returns stored frame counts per angle
	CountByAngle(ctx context.Context, analysisID uuid.UUID) (map[entities.AngleName]int, error)
}
