package entities

// BoundarySource tells whether a boundary was confirmed by the model
type BoundarySource string

const (
	BoundarySourceAI        BoundarySource = "ai"
	BoundarySourceHeuristic BoundarySource = "heuristic"
)

// FrameSelection is one detected boundary frame
type FrameSelection struct {
	Index      int     `json:"index"`
	Timestamp  float64 `json:"timestamp"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
}

// MotionBoundary bounds the scoring-relevant portion of the shot
type MotionBoundary struct {
	Angle           AngleName      `json:"angle"`
	StartFrameIndex int            `json:"start_frame_index"`
	StartTimestamp  float64        `json:"start_timestamp"`
	EndFrameIndex   int            `json:"end_frame_index"`
	EndTimestamp    float64        `json:"end_timestamp"`
	Confidence      float64        `json:"confidence"`
	Rationale       string         `json:"rationale"`
	Source          BoundarySource `json:"source"`
}

// NewMotionBoundary combines start and end selections. The combined
// confidence is the weaker of the two; below threshold the boundary is
// marked heuristic.
func NewMotionBoundary(angle AngleName, start, end FrameSelection, threshold float64) MotionBoundary {
	confidence := start.Confidence
	if end.Confidence < confidence {
		confidence = end.Confidence
	}
	source := BoundarySourceAI
	if confidence < threshold {
		source = BoundarySourceHeuristic
	}
	return MotionBoundary{
		Angle:           angle,
		StartFrameIndex: start.Index,
		StartTimestamp:  start.Timestamp,
		EndFrameIndex:   end.Index,
		EndTimestamp:    end.Timestamp,
		Confidence:      confidence,
		Rationale:       "start: " + start.Rationale + " | end: " + end.Rationale,
		Source:          source,
	}
}

// IsHeuristic reports whether downstream consumers should treat the
// boundary as unconfirmed
func (b MotionBoundary) IsHeuristic() bool {
	return b.Source == BoundarySourceHeuristic
}

// Contains reports whether a timestamp falls inside the boundary window
func (b MotionBoundary) Contains(ts float64) bool {
	return ts >= b.StartTimestamp && ts <= b.EndTimestamp
}
