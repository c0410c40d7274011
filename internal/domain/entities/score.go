package entities

// Evaluability confidence labels
const (
	EvaluabilityHigh   = "alta"
	EvaluabilityMedium = "media"
	EvaluabilityLow    = "baja"
)

// CategoryScore is the per-category diagnostic of a score
type CategoryScore struct {
	Name       string  `json:"name"`
	Mean       float64 `json:"mean"`
	Weight     float64 `json:"weight"`
	RatedItems int     `json:"rated_items"`
	TotalItems int     `json:"total_items"`
	Included   bool    `json:"included"`
}

// ScoreBreakdown explains how a score was produced
type ScoreBreakdown struct {
	Categories     []CategoryScore `json:"categories"`
	TotalWeight    float64         `json:"total_weight"`
	EvaluableItems int             `json:"evaluable_items"`
	TotalItems     int             `json:"total_items"`
	Evaluability   float64         `json:"evaluability"`
	Confidence     string          `json:"confidence"`
}

// ScoreResult is the output of the scoring engine
type ScoreResult struct {
	Score        float64        `json:"score"`
	Unresolvable bool           `json:"unresolvable"`
	Breakdown    ScoreBreakdown `json:"breakdown"`
}
