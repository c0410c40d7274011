package entities

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gorm.io/datatypes"
)

const (
	// WeightProfileTotal is the sum every profile must reach
	WeightProfileTotal = 100.0
	// WeightProfileTolerance is the accepted deviation from WeightProfileTotal
	WeightProfileTolerance = 0.1
)

// WeightProfile maps checklist item ids to weights for one shot type
type WeightProfile struct {
	ShotType  ShotType                               `json:"shot_type" gorm:"type:varchar(20);primaryKey"`
	Weights   datatypes.JSONType[map[string]float64] `json:"weights"`
	Version   int                                    `json:"version" gorm:"not null;default:1"`
	UpdatedAt time.Time                              `json:"updated_at" gorm:"autoUpdateTime"`
}

// NewWeightProfile builds a profile and enforces the sum invariant
func NewWeightProfile(shotType ShotType, weights map[string]float64) (*WeightProfile, error) {
	if !shotType.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidShotType, shotType)
	}
	copied := make(map[string]float64, len(weights))
	for id, w := range weights {
		copied[id] = w
	}
	p := &WeightProfile{
		ShotType: shotType,
		Weights:  datatypes.NewJSONType(copied),
		Version:  1,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the weights are non-negative and sum to 100 ± 0.1
func (p *WeightProfile) Validate() error {
	weights := p.Weights.Data()
	if len(weights) == 0 {
		return fmt.Errorf("%w: no weights", ErrInvalidWeightProfile)
	}
	for id, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("%w: item %q has weight %v", ErrInvalidWeightProfile, id, w)
		}
	}
	if total := p.Total(); math.Abs(total-WeightProfileTotal) > WeightProfileTolerance {
		return fmt.Errorf("%w: weights sum to %.3f, want %.0f ± %.1f", ErrInvalidWeightProfile, total, WeightProfileTotal, WeightProfileTolerance)
	}
	return nil
}

// Weight returns the weight of an item and whether the profile lists it
func (p *WeightProfile) Weight(itemID string) (float64, bool) {
	w, ok := p.Weights.Data()[itemID]
	return w, ok
}

// Total sums all weights
func (p *WeightProfile) Total() float64 {
	var total float64
	for _, w := range p.Weights.Data() {
		total += w
	}
	return total
}

// ItemIDs returns the profiled item ids sorted
func (p *WeightProfile) ItemIDs() []string {
	ids := make([]string, 0, len(p.Weights.Data()))
	for id := range p.Weights.Data() {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Ref identifies the exact profile snapshot used for a score
func (p *WeightProfile) Ref() string {
	return fmt.Sprintf("%s:v%d", p.ShotType, p.Version)
}

// TableName specifies the table name for GORM
func (WeightProfile) TableName() string {
	return "weight_profiles"
}
