package admin

import "time"

// RecomputeResponse reports a recompute run. On a failed page it carries
// what was committed before the failure so the caller can resume.
type RecomputeResponse struct {
	UpdatedCount int               `json:"updated_count"`
	SkippedCount int               `json:"skipped_count"`
	Pages        int               `json:"pages"`
	LastID       string            `json:"last_id,omitempty"`
	ProfileRefs  map[string]string `json:"profile_refs"`
	Error        string            `json:"error,omitempty"`
}

// WeightProfileResponse represents a weight profile
type WeightProfileResponse struct {
	ShotType  string             `json:"shot_type"`
	Version   int                `json:"version"`
	Ref       string             `json:"ref"`
	Weights   map[string]float64 `json:"weights"`
	Total     float64            `json:"total"`
	UpdatedAt *time.Time         `json:"updated_at,omitempty"`
}
