package weights

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/johnquangdev/shot-analyzer/internal/domain/entities"
	domainrepo "github.com/johnquangdev/shot-analyzer/internal/domain/repositories"
)

// Store resolves the weight profile for a shot type, falling back to the
// built-in defaults when none was persisted
type Store struct {
	repo   domainrepo.WeightProfileRepository
	logger *zap.Logger
}

// NewStore creates a weight profile store
func NewStore(repo domainrepo.WeightProfileRepository, logger *zap.Logger) *Store {
	return &Store{repo: repo, logger: logger}
}

// Get returns the committed profile for a shot type
func (s *Store) Get(ctx context.Context, shotType entities.ShotType) (*entities.WeightProfile, error) {
	if !shotType.IsValid() {
		return nil, fmt.Errorf("%w: %q", entities.ErrInvalidShotType, shotType)
	}
	if s.repo != nil {
		profile, err := s.repo.FindByShotType(ctx, shotType)
		if err != nil {
			return nil, fmt.Errorf("failed to load weight profile %s: %w", shotType, err)
		}
		if profile != nil {
			return profile, nil
		}
	}
	return DefaultProfile(shotType)
}

// Snapshot reads every profile once so a long-running job scores all
// records against the same weights
func (s *Store) Snapshot(ctx context.Context) (map[entities.ShotType]*entities.WeightProfile, error) {
	snapshot := make(map[entities.ShotType]*entities.WeightProfile, len(entities.ShotTypes))
	for _, shotType := range entities.ShotTypes {
		profile, err := s.Get(ctx, shotType)
		if err != nil {
			return nil, err
		}
		snapshot[shotType] = profile
	}
	return snapshot, nil
}

// Put validates and stores a profile, returning the committed version
func (s *Store) Put(ctx context.Context, shotType entities.ShotType, weights map[string]float64) (*entities.WeightProfile, error) {
	profile, err := entities.NewWeightProfile(shotType, weights)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Upsert(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to store weight profile %s: %w", shotType, err)
	}

	if s.logger != nil {
		s.logger.Info("⚖️ Weight profile updated",
			zap.String("shot_type", shotType.String()),
			zap.Int("version", profile.Version),
		)
	}
	return s.Get(ctx, shotType)
}

// Seed persists the default profile for every shot type that has none
func (s *Store) Seed(ctx context.Context) error {
	for _, shotType := range entities.ShotTypes {
		existing, err := s.repo.FindByShotType(ctx, shotType)
		if err != nil {
			return fmt.Errorf("failed to check weight profile %s: %w", shotType, err)
		}
		if existing != nil {
			continue
		}

		profile, err := DefaultProfile(shotType)
		if err != nil {
			return err
		}
		if err := s.repo.Upsert(ctx, profile); err != nil {
			return fmt.Errorf("failed to seed weight profile %s: %w", shotType, err)
		}

		if s.logger != nil {
			s.logger.Info("🌱 Seeded default weight profile",
				zap.String("shot_type", shotType.String()),
			)
		}
	}
	return nil
}
