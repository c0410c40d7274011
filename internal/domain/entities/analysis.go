package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AnalysisStatus represents the pipeline stage an analysis has reached
type AnalysisStatus string

const (
	AnalysisStatusPending   AnalysisStatus = "pending"   // Submitted, not yet validated
	AnalysisStatusRejected  AnalysisStatus = "rejected"  // Content validation declined the video
	AnalysisStatusValidated AnalysisStatus = "validated" // Content accepted
	AnalysisStatusExtracted AnalysisStatus = "extracted" // Keyframes stored for at least one angle
	AnalysisStatusBounded   AnalysisStatus = "bounded"   // Motion boundary detected
	AnalysisStatusRated     AnalysisStatus = "rated"     // Checklist attached
	AnalysisStatusScored    AnalysisStatus = "scored"    // Weighted score computed
	AnalysisStatusError     AnalysisStatus = "error"     // Unrecoverable stage failure
)

var analysisTransitions = map[AnalysisStatus][]AnalysisStatus{
	AnalysisStatusPending:   {AnalysisStatusRejected, AnalysisStatusValidated},
	AnalysisStatusValidated: {AnalysisStatusExtracted},
	AnalysisStatusExtracted: {AnalysisStatusBounded},
	AnalysisStatusBounded:   {AnalysisStatusRated},
	AnalysisStatusRated:     {AnalysisStatusScored},
}

// CanTransition reports whether the forward pipeline allows from -> to.
// Any non-terminal status may move to error.
func CanTransition(from, to AnalysisStatus) bool {
	if to == AnalysisStatusError {
		return from != AnalysisStatusRejected && from != AnalysisStatusScored && from != AnalysisStatusError
	}
	for _, next := range analysisTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further pipeline stage will run
func (s AnalysisStatus) IsTerminal() bool {
	return s == AnalysisStatusRejected || s == AnalysisStatusScored || s == AnalysisStatusError
}

// CanReanalyze reports whether an analysis may be rewound for another run.
// See ResetForReanalysis for where it restarts.
func (s AnalysisStatus) CanReanalyze() bool {
	return s != AnalysisStatusPending
}

// AcceptsChecklist reports whether a checklist may be attached
func (s AnalysisStatus) AcceptsChecklist() bool {
	return s == AnalysisStatusBounded || s == AnalysisStatusRated || s == AnalysisStatusScored
}

// AngleName identifies a camera position
type AngleName string

const (
	AngleFront AngleName = "front"
	AngleBack  AngleName = "back"
	AngleLeft  AngleName = "left"
	AngleRight AngleName = "right"
)

// Angles lists every angle in the order they are preferred for boundary detection
var Angles = []AngleName{AngleFront, AngleLeft, AngleRight, AngleBack}

// ParseAngle validates an angle name
func ParseAngle(s string) (AngleName, error) {
	a := AngleName(s)
	switch a {
	case AngleFront, AngleBack, AngleLeft, AngleRight:
		return a, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAngle, s)
}

// VideoAngle references one stored video and its extraction outcome
type VideoAngle struct {
	Name          AngleName `json:"name"`
	URI           string    `json:"uri"`
	KeyframeCount int       `json:"keyframe_count"`
	Failed        bool      `json:"failed,omitempty"`
	Error         string    `json:"error,omitempty"`
}

// ValidationResult is the content validator verdict
type ValidationResult struct {
	Accepted       bool    `json:"accepted"`
	Confidence     float64 `json:"confidence"`
	Reason         string  `json:"reason"`
	Recommendation string  `json:"recommendation,omitempty"`
	Source         string  `json:"source"`
}

// ChecklistSource tells who produced the checklist
type ChecklistSource string

const (
	ChecklistSourceAI     ChecklistSource = "ai"
	ChecklistSourceManual ChecklistSource = "manual"
)

// Analysis aggregates one pipeline run over a submitted video set
type Analysis struct {
	ID                uuid.UUID                                `json:"id" gorm:"type:uuid;primaryKey"`
	ShotType          ShotType                                 `json:"shot_type" gorm:"type:varchar(20);not null;index"`
	ShotLabel         string                                   `json:"shot_label,omitempty" gorm:"type:varchar(100)"`
	PrimaryAngle      AngleName                                `json:"primary_angle" gorm:"type:varchar(10);not null"`
	Angles            datatypes.JSONType[[]VideoAngle]         `json:"angles"`
	Status            AnalysisStatus                           `json:"status" gorm:"type:varchar(20);not null;index"`
	StatusReason      string                                   `json:"status_reason,omitempty" gorm:"type:text"`
	Validation        datatypes.JSONType[*ValidationResult]    `json:"validation"`
	Boundary          datatypes.JSONType[*MotionBoundary]      `json:"boundary"`
	Checklist         datatypes.JSONType[[]ChecklistCategory]  `json:"checklist"`
	ChecklistSource   ChecklistSource                          `json:"checklist_source,omitempty" gorm:"type:varchar(10)"`
	WeightProfileRef  string                                   `json:"weight_profile_ref,omitempty" gorm:"type:varchar(40)"`
	Score             *float64                                 `json:"score,omitempty"`
	ScoreUnresolvable bool                                     `json:"score_unresolvable" gorm:"not null;default:false"`
	Breakdown         datatypes.JSONType[*ScoreBreakdown]      `json:"breakdown"`
	Warnings          datatypes.JSONType[[]string]             `json:"warnings"`
	ClaimedAt         *time.Time                               `json:"claimed_at,omitempty"`
	CreatedAt         time.Time                                `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time                                `json:"updated_at" gorm:"autoUpdateTime"`
}

// NewAnalysis creates a pending analysis for a set of angle videos
func NewAnalysis(shotLabel string, primary AngleName, videos map[AngleName]string) *Analysis {
	angles := make([]VideoAngle, 0, len(videos))
	for _, name := range Angles {
		if uri, ok := videos[name]; ok {
			angles = append(angles, VideoAngle{Name: name, URI: uri})
		}
	}
	now := time.Now()
	return &Analysis{
		ID:           uuid.New(),
		ShotType:     ResolveShotType(shotLabel),
		ShotLabel:    shotLabel,
		PrimaryAngle: primary,
		Angles:       datatypes.NewJSONType(angles),
		Status:       AnalysisStatusPending,
		Validation:   datatypes.NewJSONType[*ValidationResult](nil),
		Boundary:     datatypes.NewJSONType[*MotionBoundary](nil),
		Checklist:    datatypes.NewJSONType[[]ChecklistCategory](nil),
		Breakdown:    datatypes.NewJSONType[*ScoreBreakdown](nil),
		Warnings:     datatypes.NewJSONType([]string{}),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Angle returns the named angle
func (a *Analysis) Angle(name AngleName) (VideoAngle, bool) {
	for _, angle := range a.Angles.Data() {
		if angle.Name == name {
			return angle, true
		}
	}
	return VideoAngle{}, false
}

// PrimaryVideo returns the primary angle, or the first angle when the
// primary one was not submitted
func (a *Analysis) PrimaryVideo() (VideoAngle, bool) {
	if angle, ok := a.Angle(a.PrimaryAngle); ok {
		return angle, true
	}
	angles := a.Angles.Data()
	if len(angles) == 0 {
		return VideoAngle{}, false
	}
	return angles[0], true
}

// AddWarning appends a warning once
func (a *Analysis) AddWarning(msg string) {
	warnings := a.Warnings.Data()
	for _, w := range warnings {
		if w == msg {
			return
		}
	}
	a.Warnings = datatypes.NewJSONType(append(warnings, msg))
}

// SetWarning adds msg when present is true and removes it otherwise
func (a *Analysis) SetWarning(msg string, present bool) {
	if present {
		a.AddWarning(msg)
		return
	}
	warnings := a.Warnings.Data()
	kept := make([]string, 0, len(warnings))
	for _, w := range warnings {
		if w != msg {
			kept = append(kept, w)
		}
	}
	a.Warnings = datatypes.NewJSONType(kept)
}

// TransitionTo moves the analysis forward and records the reason
func (a *Analysis) TransitionTo(to AnalysisStatus, reason string) error {
	if !CanTransition(a.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, to)
	}
	a.Status = to
	a.StatusReason = reason
	a.UpdatedAt = time.Now()
	return nil
}

// ResetForReanalysis drops downstream results but keeps the angles and their
// keyframe counts. Analyses holding an accepted validation restart from
// validated. Rejected ones, and failures that never passed validation,
// restart from pending so the content check runs again.
func (a *Analysis) ResetForReanalysis(reason string) error {
	if !a.Status.CanReanalyze() {
		return fmt.Errorf("%w: cannot reanalyze from %s", ErrInvalidTransition, a.Status)
	}
	if v := a.Validation.Data(); a.Status == AnalysisStatusRejected || v == nil || !v.Accepted {
		a.Status = AnalysisStatusPending
		a.Validation = datatypes.NewJSONType[*ValidationResult](nil)
	} else {
		a.Status = AnalysisStatusValidated
	}
	a.StatusReason = reason
	a.Boundary = datatypes.NewJSONType[*MotionBoundary](nil)
	a.Checklist = datatypes.NewJSONType[[]ChecklistCategory](nil)
	a.ChecklistSource = ""
	a.Breakdown = datatypes.NewJSONType[*ScoreBreakdown](nil)
	a.Score = nil
	a.ScoreUnresolvable = false
	a.WeightProfileRef = ""
	a.Warnings = datatypes.NewJSONType([]string{})
	a.UpdatedAt = time.Now()
	return nil
}

// AttachChecklist stores a checklist and moves to rated. A checklist may
// replace an earlier one on rated or scored analyses.
func (a *Analysis) AttachChecklist(categories []ChecklistCategory, source ChecklistSource) error {
	if !a.Status.AcceptsChecklist() {
		return fmt.Errorf("%w: checklist not accepted in %s", ErrInvalidTransition, a.Status)
	}
	a.Checklist = datatypes.NewJSONType(categories)
	a.ChecklistSource = source
	a.Status = AnalysisStatusRated
	a.StatusReason = fmt.Sprintf("checklist provided (%s)", source)
	a.UpdatedAt = time.Now()
	return nil
}

// ApplyScore records a scoring result against a profile snapshot
func (a *Analysis) ApplyScore(result ScoreResult, profileRef string) {
	score := result.Score
	breakdown := result.Breakdown
	a.Score = &score
	a.ScoreUnresolvable = result.Unresolvable
	a.Breakdown = datatypes.NewJSONType(&breakdown)
	a.WeightProfileRef = profileRef
	a.UpdatedAt = time.Now()
}

// HasChecklist reports whether a checklist is attached
func (a *Analysis) HasChecklist() bool {
	return len(a.Checklist.Data()) > 0
}

// TableName specifies the table name for GORM
func (Analysis) TableName() string {
	return "analyses"
}
