package analysis

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/johnquangdev/shot-analyzer/internal/domain/entities"
	pkgai "github.com/johnquangdev/shot-analyzer/pkg/ai"
)

// Validation sources and recommendations
const (
	ValidationSourceAI       = "ai"
	ValidationSourceFallback = "fallback"

	RecommendationAccept = "ACCEPT"
	RecommendationReview = "REVIEW"
	RecommendationReject = "REJECT"

	// FallbackReason is stored when no classifier could be consulted
	FallbackReason = "no-classifier-fallback"
)

// EvidenceSampler provides the handful of frames shown to the classifier
type EvidenceSampler interface {
	Evidence(ctx context.Context, uri string) ([]Frame, error)
}

type contentVerdict struct {
	IsTarget       *bool    `json:"is_target" validate:"required"`
	Confidence     *float64 `json:"confidence" validate:"required,gte=0,lte=1"`
	Reason         string   `json:"reason"`
	Recommendation string   `json:"recommendation"`
}

const validationInstruction = `CONTENT CHECK.
The following frames were sampled from a video uploaded for basketball shooting technique analysis.
Decide whether the video shows a single person performing a basketball shot (free throw, mid-range jump shot or three-pointer) clearly enough to analyse the technique.`

const validationDemand = `Answer ONLY with a JSON object, no prose, exactly in this shape:
{"is_target": <true|false>, "confidence": <0.0-1.0>, "reason": "<one short sentence>", "recommendation": "ACCEPT|REVIEW|REJECT"}`

// ContentValidator decides whether a video is analysable before any
// keyframe is stored
type ContentValidator struct {
	model            Generator
	evidence         EvidenceSampler
	rejectConfidence float64
	logger           *zap.Logger
}

// NewContentValidator creates a content validator. Only verdicts at or
// above rejectConfidence can reject a video.
func NewContentValidator(model Generator, evidence EvidenceSampler, rejectConfidence float64, logger *zap.Logger) *ContentValidator {
	return &ContentValidator{
		model:            model,
		evidence:         evidence,
		rejectConfidence: rejectConfidence,
		logger:           logger,
	}
}

// Validate classifies the video at uri. When the classifier is missing or
// unreachable the video is accepted with a fallback verdict.
func (v *ContentValidator) Validate(ctx context.Context, uri string, shotType entities.ShotType) (*entities.ValidationResult, error) {
	if !v.model.HasCredential() {
		return fallbackVerdict(), nil
	}

	frames, err := v.evidence.Evidence(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("sample evidence frames: %w", err)
	}

	parts := make([]pkgai.Part, 0, 2*len(frames)+2)
	instruction := validationInstruction
	if shotType != "" {
		instruction += fmt.Sprintf("\nExpected shot type: %s.", shotType)
	}
	parts = append(parts, pkgai.TextPart(instruction))
	for _, f := range frames {
		parts = append(parts,
			pkgai.TextPart(fmt.Sprintf("Frame %d at %.2fs", f.Index, f.Timestamp)),
			pkgai.ImagePart(f.MimeType, f.Image),
		)
	}
	parts = append(parts, pkgai.TextPart(validationDemand))

	reply, err := v.model.GenerateContent(ctx, parts)
	if err != nil {
		if v.logger != nil {
			v.logger.Warn("⚠️ Content classifier unavailable, accepting with fallback verdict",
				zap.String("uri", uri),
				zap.Error(err),
			)
		}
		return fallbackVerdict(), nil
	}

	var verdict contentVerdict
	if err := decodeModelJSON(reply, &verdict); err != nil {
		return nil, err
	}

	result := v.decide(verdict)
	if v.logger != nil {
		v.logger.Info("✅ Content validated",
			zap.String("uri", uri),
			zap.Bool("accepted", result.Accepted),
			zap.Float64("confidence", result.Confidence),
			zap.String("recommendation", result.Recommendation),
		)
	}
	return result, nil
}

// decide rejects only confident negative verdicts. Anything below the
// threshold is kept for review.
func (v *ContentValidator) decide(verdict contentVerdict) *entities.ValidationResult {
	recommendation := strings.ToUpper(strings.TrimSpace(verdict.Recommendation))
	switch recommendation {
	case RecommendationAccept, RecommendationReview, RecommendationReject:
	default:
		recommendation = RecommendationReview
	}

	confidence := *verdict.Confidence
	negative := recommendation == RecommendationReject || !*verdict.IsTarget

	// a rejection is terminal and must always say why
	reason := strings.TrimSpace(verdict.Reason)
	if reason == "" {
		reason = fmt.Sprintf("classifier recommended %s with confidence %.2f and gave no reason", recommendation, confidence)
	}

	return &entities.ValidationResult{
		Accepted:       !(negative && confidence >= v.rejectConfidence),
		Confidence:     confidence,
		Reason:         reason,
		Recommendation: recommendation,
		Source:         ValidationSourceAI,
	}
}

func fallbackVerdict() *entities.ValidationResult {
	return &entities.ValidationResult{
		Accepted:   true,
		Confidence: FallbackConfidence,
		Reason:     FallbackReason,
		Source:     ValidationSourceFallback,
	}
}
