package entities

import (
	"fmt"
	"strings"
)

// ChecklistItem is one rated technical criterion
type ChecklistItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Rating   Rating `json:"rating"`
	Comment  string `json:"comment,omitempty"`
}

// ChecklistCategory groups items under a named phase of the shot
type ChecklistCategory struct {
	Name  string          `json:"name"`
	Items []ChecklistItem `json:"items"`
}

// ValidateChecklist checks that every item has an id, belongs to its
// enclosing category and appears only once across the checklist.
func ValidateChecklist(categories []ChecklistCategory) error {
	seen := make(map[string]struct{})
	for _, cat := range categories {
		if strings.TrimSpace(cat.Name) == "" {
			return fmt.Errorf("%w: category without name", ErrInvalidChecklist)
		}
		for _, item := range cat.Items {
			if strings.TrimSpace(item.ID) == "" {
				return fmt.Errorf("%w: item without id in category %q", ErrInvalidChecklist, cat.Name)
			}
			if item.Category != "" && item.Category != cat.Name {
				return fmt.Errorf("%w: item %q declares category %q inside %q", ErrInvalidChecklist, item.ID, item.Category, cat.Name)
			}
			if _, dup := seen[item.ID]; dup {
				return fmt.Errorf("%w: duplicate item %q", ErrInvalidChecklist, item.ID)
			}
			seen[item.ID] = struct{}{}
		}
	}
	return nil
}

// CountItems returns the total and the rated (non-NA) item counts
func CountItems(categories []ChecklistCategory) (total, rated int) {
	for _, cat := range categories {
		for _, item := range cat.Items {
			total++
			if !item.Rating.IsNA() {
				rated++
			}
		}
	}
	return total, rated
}
