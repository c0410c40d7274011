package scoring

import (
	"fmt"
	"math"

	"github.com/johnquangdev/shot-analyzer/internal/domain/entities"
	usecaseErrors "github.com/johnquangdev/shot-analyzer/internal/usecase/errors"
)

// UnresolvableWarning is kept on analyses whose checklist carries no weight
var UnresolvableWarning = usecaseErrors.ErrScoreUnresolvable.Error()

// StatusReason describes a scoring outcome for the scored status
func StatusReason(result entities.ScoreResult, profileRef string) string {
	if result.Unresolvable {
		return fmt.Sprintf("score unresolvable with %s: %v", profileRef, usecaseErrors.ErrScoreUnresolvable)
	}
	return fmt.Sprintf("scored %.2f with %s", result.Score, profileRef)
}

// Score turns a rated checklist into a 0-100 weighted score.
//
// Each category contributes the mean of its rated items, weighted by the
// sum of its items' profile weights. NA items and items missing from the
// profile do not enter the mean; categories without a rated profiled item
// are dropped. When no weight remains the score is 0 and Unresolvable is set.
// Score is a pure function of its inputs.
func Score(categories []entities.ChecklistCategory, profile *entities.WeightProfile) entities.ScoreResult {
	breakdown := entities.ScoreBreakdown{
		Categories: make([]entities.CategoryScore, 0, len(categories)),
	}

	var weightedSum, totalWeight float64
	for _, cat := range categories {
		cs := entities.CategoryScore{Name: cat.Name, TotalItems: len(cat.Items)}

		var ratingSum float64
		for _, item := range cat.Items {
			breakdown.TotalItems++
			if !item.Rating.IsNA() {
				breakdown.EvaluableItems++
			}

			w, profiled := itemWeight(profile, item.ID)
			if !profiled {
				continue
			}
			cs.Weight += w

			v, ok := item.Rating.Value()
			if !ok {
				continue
			}
			ratingSum += float64(v)
			cs.RatedItems++
		}

		if cs.RatedItems > 0 && cs.Weight > 0 {
			cs.Mean = round2(ratingSum / float64(cs.RatedItems))
			cs.Included = true
			weightedSum += (ratingSum / float64(cs.RatedItems)) * cs.Weight
			totalWeight += cs.Weight
		}
		cs.Weight = round2(cs.Weight)
		breakdown.Categories = append(breakdown.Categories, cs)
	}

	breakdown.TotalWeight = round2(totalWeight)
	breakdown.Evaluability, breakdown.Confidence = evaluability(breakdown.EvaluableItems, breakdown.TotalItems)

	if totalWeight <= 0 {
		return entities.ScoreResult{Score: 0, Unresolvable: true, Breakdown: breakdown}
	}

	score := weightedSum / totalWeight / entities.MaxRating * 100
	return entities.ScoreResult{
		Score:     round2(clamp(score, 0, 100)),
		Breakdown: breakdown,
	}
}

func itemWeight(profile *entities.WeightProfile, id string) (float64, bool) {
	if profile == nil {
		return 0, false
	}
	return profile.Weight(id)
}

func evaluability(evaluable, total int) (float64, string) {
	if total == 0 {
		return 0, entities.EvaluabilityLow
	}
	ratio := float64(evaluable) / float64(total)
	switch {
	case ratio >= 0.8:
		return round2(ratio), entities.EvaluabilityHigh
	case ratio >= 0.5:
		return round2(ratio), entities.EvaluabilityMedium
	default:
		return round2(ratio), entities.EvaluabilityLow
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
