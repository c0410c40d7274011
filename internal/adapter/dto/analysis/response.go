package analysis

import (
	"time"

	"github.com/johnquangdev/shot-analyzer/internal/domain/entities"
)

// AnalysisResponse represents an analysis in API responses
type AnalysisResponse struct {
	ID                string                       `json:"id"`
	ShotType          string                       `json:"shot_type"`
	ShotLabel         string                       `json:"shot_label,omitempty"`
	PrimaryAngle      string                       `json:"primary_angle"`
	Status            string                       `json:"status"`
	StatusReason      string                       `json:"status_reason,omitempty"`
	Processing        bool                         `json:"processing"`
	Angles            []entities.VideoAngle        `json:"angles"`
	Validation        *entities.ValidationResult   `json:"validation,omitempty"`
	Boundary          *entities.MotionBoundary     `json:"boundary,omitempty"`
	Checklist         []entities.ChecklistCategory `json:"checklist,omitempty"`
	ChecklistSource   string                       `json:"checklist_source,omitempty"`
	Score             *float64                     `json:"score,omitempty"`
	ScoreUnresolvable bool                         `json:"score_unresolvable"`
	WeightProfileRef  string                       `json:"weight_profile_ref,omitempty"`
	Breakdown         *entities.ScoreBreakdown     `json:"breakdown,omitempty"`
	Warnings          []string                     `json:"warnings"`
	CreatedAt         time.Time                    `json:"created_at"`
	UpdatedAt         time.Time                    `json:"updated_at"`
}
