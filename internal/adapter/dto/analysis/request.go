package analysis

import (
	"fmt"

	"github.com/johnquangdev/shot-analyzer/internal/domain/entities"
)

// SubmitAnalysisRequest represents the request to analyze a shot recorded from one or more angles
type SubmitAnalysisRequest struct {
	ShotLabel    string            `json:"shot_label" validate:"max=100"`
	ShotType     string            `json:"shot_type,omitempty" validate:"omitempty,shot_type"`
	PrimaryAngle string            `json:"primary_angle,omitempty" validate:"omitempty,angle"`
	Videos       map[string]string `json:"videos" validate:"required,min=1,max=4,dive,keys,angle,endkeys,required"`
}

// ReanalyzeRequest represents the request to rerun an analysis
type ReanalyzeRequest struct {
	Reason string `json:"reason,omitempty" validate:"max=500"`
}

// SubmitChecklistRequest carries a coach-rated checklist
type SubmitChecklistRequest struct {
	Categories []ChecklistCategoryRequest `json:"categories" validate:"required,min=1,dive"`
}

// ChecklistCategoryRequest groups rated items under a category
type ChecklistCategoryRequest struct {
	Name  string                 `json:"name" validate:"required,max=100"`
	Items []ChecklistItemRequest `json:"items" validate:"required,min=1,dive"`
}

// ChecklistItemRequest rates one item. Exactly one of rating and na is set.
type ChecklistItemRequest struct {
	ID      string   `json:"id" validate:"required,max=100"`
	Name    string   `json:"name,omitempty" validate:"max=200"`
	Rating  *float64 `json:"rating,omitempty" validate:"omitempty,gte=0,lte=5"`
	NA      bool     `json:"na,omitempty"`
	Comment string   `json:"comment,omitempty" validate:"max=1000"`
}

// ToCategories converts the request into checklist entities
func (r *SubmitChecklistRequest) ToCategories() ([]entities.ChecklistCategory, error) {
	categories := make([]entities.ChecklistCategory, 0, len(r.Categories))
	for _, cat := range r.Categories {
		items := make([]entities.ChecklistItem, 0, len(cat.Items))
		for _, it := range cat.Items {
			rating, err := it.rating()
			if err != nil {
				return nil, err
			}
			items = append(items, entities.ChecklistItem{
				ID:       it.ID,
				Name:     it.Name,
				Category: cat.Name,
				Rating:   rating,
				Comment:  it.Comment,
			})
		}
		categories = append(categories, entities.ChecklistCategory{Name: cat.Name, Items: items})
	}
	return categories, nil
}

func (it ChecklistItemRequest) rating() (entities.Rating, error) {
	switch {
	case it.NA && it.Rating != nil:
		return entities.Rating{}, fmt.Errorf("%w: item %q has both a rating and na", entities.ErrInvalidRating, it.ID)
	case it.NA:
		return entities.NotApplicable(), nil
	case it.Rating == nil:
		return entities.Rating{}, fmt.Errorf("%w: item %q needs a rating or na", entities.ErrInvalidRating, it.ID)
	}
	r, _, err := entities.NormalizeRating(*it.Rating)
	return r, err
}
