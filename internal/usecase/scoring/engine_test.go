package scoring

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnquangdev/shot-analyzer/internal/domain/entities"
)

func mustProfile(t *testing.T, weights map[string]float64) *entities.WeightProfile {
	t.Helper()
	p, err := entities.NewWeightProfile(entities.ShotTypeTres, weights)
	require.NoError(t, err)
	return p
}

func item(id string, r entities.Rating) entities.ChecklistItem {
	return entities.ChecklistItem{ID: id, Name: id, Rating: r}
}

func TestScore_WeightedCategories(t *testing.T) {
	profile := mustProfile(t, map[string]float64{"a1": 20, "a2": 20, "b1": 30, "b2": 30})
	checklist := []entities.ChecklistCategory{
		{Name: "A", Items: []entities.ChecklistItem{item("a1", entities.Rated(3)), item("a2", entities.Rated(5))}},
		{Name: "B", Items: []entities.ChecklistItem{item("b1", entities.Rated(1)), item("b2", entities.Rated(3))}},
	}

	res := Score(checklist, profile)

	assert.Equal(t, 56.0, res.Score)
	assert.False(t, res.Unresolvable)
	require.Len(t, res.Breakdown.Categories, 2)
	assert.Equal(t, 4.0, res.Breakdown.Categories[0].Mean)
	assert.Equal(t, 40.0, res.Breakdown.Categories[0].Weight)
	assert.Equal(t, 2.0, res.Breakdown.Categories[1].Mean)
	assert.Equal(t, 60.0, res.Breakdown.Categories[1].Weight)
	assert.Equal(t, 100.0, res.Breakdown.TotalWeight)
	assert.Equal(t, entities.EvaluabilityHigh, res.Breakdown.Confidence)
}

func TestScore_AllNAIsUnresolvable(t *testing.T) {
	profile := mustProfile(t, map[string]float64{"a1": 50, "b1": 50})
	checklist := []entities.ChecklistCategory{
		{Name: "A", Items: []entities.ChecklistItem{item("a1", entities.NotApplicable())}},
		{Name: "B", Items: []entities.ChecklistItem{item("b1", entities.NotApplicable())}},
	}

	res := Score(checklist, profile)

	assert.Equal(t, 0.0, res.Score)
	assert.True(t, res.Unresolvable)
	assert.Equal(t, entities.EvaluabilityLow, res.Breakdown.Confidence)
	for _, c := range res.Breakdown.Categories {
		assert.False(t, c.Included)
	}
}

func TestScore_EmptyChecklistIsUnresolvable(t *testing.T) {
	res := Score(nil, mustProfile(t, map[string]float64{"a": 100}))
	assert.Equal(t, 0.0, res.Score)
	assert.True(t, res.Unresolvable)
}

func TestScore_ProfileMismatchIsUnresolvable(t *testing.T) {
	profile := mustProfile(t, map[string]float64{"other": 100})
	checklist := []entities.ChecklistCategory{
		{Name: "A", Items: []entities.ChecklistItem{item("a1", entities.Rated(5))}},
	}
	res := Score(checklist, profile)
	assert.True(t, res.Unresolvable)
	assert.Equal(t, 0.0, res.Score)
}

func TestScore_ZeroRatingIsRealLowRating(t *testing.T) {
	profile := mustProfile(t, map[string]float64{"a1": 50, "a2": 50})
	withZero := []entities.ChecklistCategory{
		{Name: "A", Items: []entities.ChecklistItem{item("a1", entities.Rated(5)), item("a2", entities.Rated(0))}},
	}
	withNA := []entities.ChecklistCategory{
		{Name: "A", Items: []entities.ChecklistItem{item("a1", entities.Rated(5)), item("a2", entities.NotApplicable())}},
	}

	assert.Equal(t, 50.0, Score(withZero, profile).Score)
	assert.Equal(t, 100.0, Score(withNA, profile).Score)
}

func TestScore_UnprofiledItemsExcludedFromMean(t *testing.T) {
	profile := mustProfile(t, map[string]float64{"a1": 100})
	checklist := []entities.ChecklistCategory{
		{Name: "A", Items: []entities.ChecklistItem{item("a1", entities.Rated(4)), item("extra", entities.Rated(0))}},
	}

	res := Score(checklist, profile)
	assert.Equal(t, 80.0, res.Score)
	assert.Equal(t, 1, res.Breakdown.Categories[0].RatedItems)
	assert.Equal(t, 2, res.Breakdown.Categories[0].TotalItems)
}

func TestScore_RoundsToTwoDecimals(t *testing.T) {
	profile := mustProfile(t, map[string]float64{"a1": 33.3, "a2": 33.3, "a3": 33.4})
	checklist := []entities.ChecklistCategory{
		{Name: "A", Items: []entities.ChecklistItem{item("a1", entities.Rated(1))}},
		{Name: "B", Items: []entities.ChecklistItem{item("a2", entities.Rated(2))}},
		{Name: "C", Items: []entities.ChecklistItem{item("a3", entities.Rated(4))}},
	}
	res := Score(checklist, profile)
	// (1*33.3 + 2*33.3 + 4*33.4) / 100 / 5 * 100 = 46.7
	assert.Equal(t, 46.7, res.Score)
}

func TestScore_RangeAndIdempotence(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	weights := map[string]float64{}
	for i := 0; i < 10; i++ {
		weights[fmt.Sprintf("i%d", i)] = 10
	}
	profile := mustProfile(t, weights)

	for run := 0; run < 200; run++ {
		var checklist []entities.ChecklistCategory
		for c := 0; c < 1+rng.Intn(4); c++ {
			cat := entities.ChecklistCategory{Name: fmt.Sprintf("c%d", c)}
			for i := 0; i < rng.Intn(5); i++ {
				r := entities.Rated(rng.Intn(6))
				if rng.Intn(4) == 0 {
					r = entities.NotApplicable()
				}
				cat.Items = append(cat.Items, item(fmt.Sprintf("i%d", rng.Intn(12)), r))
			}
			checklist = append(checklist, cat)
		}

		first := Score(checklist, profile)
		second := Score(checklist, profile)

		assert.GreaterOrEqual(t, first.Score, 0.0)
		assert.LessOrEqual(t, first.Score, 100.0)
		assert.Equal(t, first, second)
		if first.Unresolvable {
			assert.Equal(t, 0.0, first.Score)
		}
	}
}

func TestEvaluability(t *testing.T) {
	tests := []struct {
		evaluable, total int
		want             string
	}{
		{10, 10, entities.EvaluabilityHigh},
		{8, 10, entities.EvaluabilityHigh},
		{5, 10, entities.EvaluabilityMedium},
		{4, 10, entities.EvaluabilityLow},
		{0, 0, entities.EvaluabilityLow},
	}
	for _, tt := range tests {
		_, got := evaluability(tt.evaluable, tt.total)
		assert.Equal(t, tt.want, got)
	}
}
