package analysis

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/johnquangdev/shot-analyzer/internal/domain/entities"
	usecaseErrors "github.com/johnquangdev/shot-analyzer/internal/usecase/errors"
	pkgai "github.com/johnquangdev/shot-analyzer/pkg/ai"
)

const (
	MinBoundaryFrames = 2
	MaxBoundaryFrames = 16

	// FallbackConfidence marks selections that did not come from the model
	FallbackConfidence = 0.1
)

type boundaryKind string

const (
	boundaryStart boundaryKind = "start"
	boundaryEnd   boundaryKind = "end"
)

// frameChoice is the JSON shape the model must answer with
type frameChoice struct {
	Index      *int     `json:"index" validate:"required,gte=0"`
	Timestamp  *float64 `json:"timestamp" validate:"required,gte=0"`
	Confidence *float64 `json:"confidence" validate:"required,gte=0,lte=1"`
	Rationale  string   `json:"rationale"`
}

const startInstruction = `MOTION START DETECTION.
You are looking at chronologically ordered frames of a single basketball shot.
Find the START of the shooting motion: the earliest frame where the ball is already under controlled possession (two hands, or shooting hand plus guide hand), held low at waist, hip or navel height, with the elbows down.
Tie-break: if you are uncertain between two adjacent candidates, choose the EARLIER one. If the next frame shows a clearly higher ball position, the earlier frame is correct.`

const endInstruction = `MOTION END DETECTION.
You are looking at chronologically ordered frames of a single basketball shot.
Find the END of the shooting motion: the earliest frame AFTER the release where the ball is airborne and has covered at least half of the flight distance toward the basket.
Prefer the earliest frame satisfying this over any later one.`

const selectionDemand = `Answer ONLY with a JSON object, no prose, exactly in this shape:
{"index": <frame index from the markers above>, "timestamp": <seconds>, "confidence": <0.0-1.0>, "rationale": "<one short sentence>"}`

// MotionBoundaryDetector asks the model for the first and last frames of
// the scoring-relevant motion
type MotionBoundaryDetector struct {
	model     Generator
	maxFrames int
	threshold float64
	logger    *zap.Logger
}

// NewMotionBoundaryDetector creates a detector. maxFrames is bounded to
// [2,16]; threshold marks low-confidence boundaries heuristic.
func NewMotionBoundaryDetector(model Generator, maxFrames int, threshold float64, logger *zap.Logger) *MotionBoundaryDetector {
	if maxFrames < MinBoundaryFrames || maxFrames > MaxBoundaryFrames {
		maxFrames = MaxBoundaryFrames
	}
	return &MotionBoundaryDetector{model: model, maxFrames: maxFrames, threshold: threshold, logger: logger}
}

// DetectStart selects the frame where the shooting motion begins
func (d *MotionBoundaryDetector) DetectStart(ctx context.Context, frames []entities.Keyframe, shotType entities.ShotType) (entities.FrameSelection, error) {
	return d.detect(ctx, boundaryStart, frames, shotType)
}

// DetectEnd selects the first frame after release with the ball well on its way
func (d *MotionBoundaryDetector) DetectEnd(ctx context.Context, frames []entities.Keyframe, shotType entities.ShotType) (entities.FrameSelection, error) {
	return d.detect(ctx, boundaryEnd, frames, shotType)
}

// Detect runs both detections over the same frames, subsampled to the
// configured maximum, and combines them into a boundary
func (d *MotionBoundaryDetector) Detect(ctx context.Context, angle entities.AngleName, frames []entities.Keyframe, shotType entities.ShotType) (entities.MotionBoundary, error) {
	frames = SubsampleKeyframes(frames, d.maxFrames)

	start, err := d.DetectStart(ctx, frames, shotType)
	if err != nil {
		return entities.MotionBoundary{}, fmt.Errorf("detect start: %w", err)
	}
	end, err := d.DetectEnd(ctx, frames, shotType)
	if err != nil {
		return entities.MotionBoundary{}, fmt.Errorf("detect end: %w", err)
	}
	if end.Timestamp < start.Timestamp {
		return entities.MotionBoundary{}, fmt.Errorf("%w: end frame %d (%.3fs) precedes start frame %d (%.3fs)",
			usecaseErrors.ErrAIResponseInvalid, end.Index, end.Timestamp, start.Index, start.Timestamp)
	}

	boundary := entities.NewMotionBoundary(angle, start, end, d.threshold)
	if d.logger != nil {
		d.logger.Info("✅ Motion boundary detected",
			zap.String("angle", string(angle)),
			zap.Int("start_index", boundary.StartFrameIndex),
			zap.Int("end_index", boundary.EndFrameIndex),
			zap.Float64("confidence", boundary.Confidence),
			zap.String("source", string(boundary.Source)),
		)
	}
	return boundary, nil
}

func (d *MotionBoundaryDetector) detect(ctx context.Context, kind boundaryKind, frames []entities.Keyframe, shotType entities.ShotType) (entities.FrameSelection, error) {
	if err := checkBoundaryFrames(frames); err != nil {
		return entities.FrameSelection{}, err
	}

	if !d.model.HasCredential() {
		return fallbackSelection(kind, frames), nil
	}

	reply, err := d.model.GenerateContent(ctx, boundaryPrompt(kind, frames, shotType))
	if err != nil {
		return entities.FrameSelection{}, fmt.Errorf("%s detection call: %w", kind, err)
	}

	var choice frameChoice
	if err := decodeModelJSON(reply, &choice); err != nil {
		return entities.FrameSelection{}, err
	}

	for _, f := range frames {
		if f.Index == *choice.Index {
			return entities.FrameSelection{
				Index:      f.Index,
				Timestamp:  f.TimestampSeconds,
				Confidence: *choice.Confidence,
				Rationale:  strings.TrimSpace(choice.Rationale),
			}, nil
		}
	}
	return entities.FrameSelection{}, fmt.Errorf("%w: %s index %d matches no input frame",
		usecaseErrors.ErrAIResponseInvalid, kind, *choice.Index)
}

func checkBoundaryFrames(frames []entities.Keyframe) error {
	if len(frames) < MinBoundaryFrames || len(frames) > MaxBoundaryFrames {
		return fmt.Errorf("%w: boundary detection needs %d-%d frames, got %d",
			usecaseErrors.ErrInvalidInput, MinBoundaryFrames, MaxBoundaryFrames, len(frames))
	}
	for i := 1; i < len(frames); i++ {
		if frames[i].TimestampSeconds <= frames[i-1].TimestampSeconds {
			return fmt.Errorf("%w: frames are not in chronological order at position %d", usecaseErrors.ErrInvalidInput, i)
		}
	}
	return nil
}

func fallbackSelection(kind boundaryKind, frames []entities.Keyframe) entities.FrameSelection {
	f, position := frames[0], "first"
	if kind == boundaryEnd {
		f, position = frames[len(frames)-1], "last"
	}
	return entities.FrameSelection{
		Index:      f.Index,
		Timestamp:  f.TimestampSeconds,
		Confidence: FallbackConfidence,
		Rationale:  fmt.Sprintf("heuristic fallback: no AI credential configured, %s set to the %s frame", kind, position),
	}
}

func boundaryPrompt(kind boundaryKind, frames []entities.Keyframe, shotType entities.ShotType) []pkgai.Part {
	instruction := startInstruction
	if kind == boundaryEnd {
		instruction = endInstruction
	}
	if shotType != "" {
		instruction += fmt.Sprintf("\nShot type hint: %s.", shotType)
	}

	parts := make([]pkgai.Part, 0, 2*len(frames)+2)
	parts = append(parts, pkgai.TextPart(instruction))
	for _, f := range frames {
		parts = append(parts,
			pkgai.TextPart(fmt.Sprintf("Frame index=%d ts=%.3fs", f.Index, f.TimestampSeconds)),
			pkgai.ImagePart(f.MimeType, f.ImageBytes),
		)
	}
	parts = append(parts, pkgai.TextPart(selectionDemand))
	return parts
}

// SubsampleKeyframes picks at most max frames evenly, always keeping the
// first and the last
func SubsampleKeyframes(frames []entities.Keyframe, max int) []entities.Keyframe {
	if max < MinBoundaryFrames || len(frames) <= max {
		return frames
	}
	out := make([]entities.Keyframe, 0, max)
	step := float64(len(frames)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		out = append(out, frames[int(float64(i)*step+0.5)])
	}
	return out
}
