package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/johnquangdev/shot-analyzer/internal/domain/entities"
	usecaseErrors "github.com/johnquangdev/shot-analyzer/internal/usecase/errors"
	"github.com/johnquangdev/shot-analyzer/internal/usecase/weights"
	pkgai "github.com/johnquangdev/shot-analyzer/pkg/ai"
)

type ratedItem struct {
	ID      string          `json:"id" validate:"required"`
	Rating  json.RawMessage `json:"rating" validate:"required"`
	Comment string          `json:"comment"`
}

type checklistReply struct {
	Items []ratedItem `json:"items" validate:"required,min=1,dive"`
}

const ratingInstruction = `TECHNIQUE CHECKLIST.
You are a basketball shooting coach. The frames below cover the shooting motion from the set position to the ball flight.
Rate every criterion of the checklist from 0 (absent) to 5 (textbook). Use "NA" only when the criterion cannot be seen in any frame.`

const ratingDemand = `Answer ONLY with a JSON object, no prose, rating every id listed above exactly once:
{"items": [{"id": "<criterion id>", "rating": <0-5 or "NA">, "comment": "<one short sentence>"}]}`

// RatedChecklist is the canonical checklist as rated by the model, plus one
// warning per rating that had to be coerced into range
type RatedChecklist struct {
	Categories []entities.ChecklistCategory
	Warnings   []string
}

// ChecklistRater rates the canonical checklist from the frames inside the
// motion boundary
type ChecklistRater struct {
	model  Generator
	logger *zap.Logger
}

// NewChecklistRater creates a checklist rater
func NewChecklistRater(model Generator, logger *zap.Logger) *ChecklistRater {
	return &ChecklistRater{model: model, logger: logger}
}

// Rate returns a fully rated canonical checklist. Without a credential it
// returns ErrAIUnavailable so the caller can wait for a manual checklist.
func (r *ChecklistRater) Rate(ctx context.Context, frames []entities.Keyframe, boundary *entities.MotionBoundary, shotType entities.ShotType) (*RatedChecklist, error) {
	if !r.model.HasCredential() {
		return nil, usecaseErrors.ErrAIUnavailable
	}

	window := framesInWindow(frames, boundary)
	if len(window) == 0 {
		return nil, fmt.Errorf("%w: no keyframes to rate", usecaseErrors.ErrInvalidInput)
	}

	reply, err := r.model.GenerateContent(ctx, ratingPrompt(window, shotType))
	if err != nil {
		return nil, fmt.Errorf("checklist rating call: %w", err)
	}

	var parsed checklistReply
	if err := decodeModelJSON(reply, &parsed); err != nil {
		return nil, err
	}
	return r.buildChecklist(parsed)
}

func (r *ChecklistRater) buildChecklist(parsed checklistReply) (*RatedChecklist, error) {
	byID := make(map[string]ratedItem, len(parsed.Items))
	for _, item := range parsed.Items {
		id := strings.TrimSpace(item.ID)
		if _, dup := byID[id]; dup {
			return nil, fmt.Errorf("%w: item %q rated twice", usecaseErrors.ErrAIResponseInvalid, id)
		}
		if _, known := weights.CategoryOf(id); !known {
			if r.logger != nil {
				r.logger.Warn("⚠️ Ignoring unknown checklist item from model", zap.String("item_id", id))
			}
			continue
		}
		byID[id] = item
	}

	rated := &RatedChecklist{Categories: make([]entities.ChecklistCategory, 0, len(weights.CanonicalChecklist))}
	for _, tmpl := range weights.CanonicalChecklist {
		category := entities.ChecklistCategory{Name: tmpl.Name, Items: make([]entities.ChecklistItem, 0, len(tmpl.Items))}
		for _, it := range tmpl.Items {
			got, ok := byID[it.ID]
			if !ok {
				return nil, fmt.Errorf("%w: item %q was not rated", usecaseErrors.ErrAIResponseInvalid, it.ID)
			}
			rating, warning, err := r.parseRating(it.ID, got.Rating)
			if err != nil {
				return nil, err
			}
			if warning != "" {
				rated.Warnings = append(rated.Warnings, warning)
			}
			category.Items = append(category.Items, entities.ChecklistItem{
				ID:       it.ID,
				Name:     it.Name,
				Category: tmpl.Name,
				Rating:   rating,
				Comment:  strings.TrimSpace(got.Comment),
			})
		}
		rated.Categories = append(rated.Categories, category)
	}
	return rated, nil
}

// parseRating accepts a number or "NA". Numbers outside [0,5] or with a
// fraction are coerced and reported through the returned warning.
func (r *ChecklistRater) parseRating(id string, raw json.RawMessage) (entities.Rating, string, error) {
	if trimmed := strings.TrimSpace(string(raw)); trimmed == "" || trimmed == "null" {
		return entities.Rating{}, "", fmt.Errorf("%w: item %q has no rating", usecaseErrors.ErrAIResponseInvalid, id)
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		rating, adjusted, err := entities.NormalizeRating(f)
		if err != nil {
			return entities.Rating{}, "", fmt.Errorf("%w: item %q: %v", usecaseErrors.ErrAIResponseInvalid, id, err)
		}
		if !adjusted {
			return rating, "", nil
		}
		if r.logger != nil {
			r.logger.Warn("⚠️ Coerced out-of-range rating",
				zap.String("item_id", id),
				zap.Float64("raw", f),
				zap.String("stored", rating.String()),
			)
		}
		return rating, fmt.Sprintf("rating for %s coerced from %g to %s", id, f, rating.String()), nil
	}

	var rating entities.Rating
	if err := json.Unmarshal(raw, &rating); err != nil {
		return entities.Rating{}, "", fmt.Errorf("%w: item %q: %v", usecaseErrors.ErrAIResponseInvalid, id, err)
	}
	return rating, "", nil
}

// framesInWindow keeps the frames inside the boundary, falling back to
// every frame when the window holds fewer than two
func framesInWindow(frames []entities.Keyframe, boundary *entities.MotionBoundary) []entities.Keyframe {
	window := frames
	if boundary != nil {
		inside := make([]entities.Keyframe, 0, len(frames))
		for _, f := range frames {
			if boundary.Contains(f.TimestampSeconds) {
				inside = append(inside, f)
			}
		}
		if len(inside) >= MinBoundaryFrames {
			window = inside
		}
	}
	return SubsampleKeyframes(window, MaxBoundaryFrames)
}

func ratingPrompt(frames []entities.Keyframe, shotType entities.ShotType) []pkgai.Part {
	var b strings.Builder
	b.WriteString(ratingInstruction)
	if shotType != "" {
		fmt.Fprintf(&b, "\nShot type: %s.", shotType)
	}
	b.WriteString("\n\nChecklist:")
	for _, cat := range weights.CanonicalChecklist {
		fmt.Fprintf(&b, "\n[%s]", cat.Name)
		for _, it := range cat.Items {
			fmt.Fprintf(&b, "\n- %s: %s. %s", it.ID, it.Name, it.Description)
		}
	}

	parts := make([]pkgai.Part, 0, 2*len(frames)+2)
	parts = append(parts, pkgai.TextPart(b.String()))
	for _, f := range frames {
		parts = append(parts,
			pkgai.TextPart(fmt.Sprintf("Frame index=%d ts=%.3fs", f.Index, f.TimestampSeconds)),
			pkgai.ImagePart(f.MimeType, f.ImageBytes),
		)
	}
	parts = append(parts, pkgai.TextPart(ratingDemand))
	return parts
}
