package loader

import (
	"encoding/json"

	"github.com/pageza/nutrimatch/backend/internal/models"
)

// Outcome is the result of matching a candidate against the catalog.
type Outcome int

const (
	// Inserted means no record matched and the candidate becomes a new record.
	Inserted Outcome = iota
	// Merged means the candidate was folded into the matching record.
	Merged
	// FlaggedForReview means the candidate conflicted with the matching record and was queued
	// for manual review.
	FlaggedForReview
)

func (o Outcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case Merged:
		return "merged"
	case FlaggedForReview:
		return "flagged_for_review"
	default:
		return "unknown"
	}
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Decision is what the catalog must persist for one candidate.
type Decision struct {
	Outcome Outcome
	// Ingredient is the record to write: the candidate for Inserted, the updated match otherwise.
	Ingredient *models.Ingredient
	// Changed is false when the matching record is already up to date.
	Changed bool
	// NutritionChanged is true when an authoritative candidate overwrote nutrition values.
	NutritionChanged bool
	// Review is set for FlaggedForReview.
	Review *models.ReviewItem
}

// DecideFunc picks a Decision given the catalog record matching the candidate, or nil.
type DecideFunc func(existing *models.Ingredient) Decision

// candidateSnapshot is the JSON stored on review items.
type candidateSnapshot struct {
	Name       string   `json:"name"`
	ExternalID string   `json:"external_id,omitempty"`
	Calories   float64  `json:"calories"`
	Protein    float64  `json:"protein"`
	Carbs      float64  `json:"carbs"`
	Fat        float64  `json:"fat"`
	Fiber      float64  `json:"fiber"`
	Sugar      float64  `json:"sugar"`
	Sodium     float64  `json:"sodium"`
	Allergens  []string `json:"allergens"`
}

// Snapshot returns the review JSON for candidate.
func Snapshot(c *models.Ingredient) string {
	b, _ := json.Marshal(candidateSnapshot{
		Name:       c.Name,
		ExternalID: c.ExternalID,
		Calories:   c.Calories,
		Protein:    c.Protein,
		Carbs:      c.Carbs,
		Fat:        c.Fat,
		Fiber:      c.Fiber,
		Sugar:      c.Sugar,
		Sodium:     c.Sodium,
		Allergens:  c.Allergens,
	})
	return string(b)
}

// Dedup decides how candidate folds into existing, the catalog record with the same normalized
// name and source (nil when there is none). It does not modify its arguments.
//
// Allergens and tags are always unioned. Conflicting nutrition overwrites the record only for
// authoritative sources; otherwise the record is flagged and the candidate kept for review.
func Dedup(candidate, existing *models.Ingredient, authoritative bool) Decision {
	if existing == nil {
		ins := *candidate
		ins.ID = 0
		ins.Authoritative = authoritative
		ins.NeedsReview = false
		ins.Allergens = models.StringArray(nil).Union(candidate.Allergens)
		ins.Tags = models.StringArray(nil).Union(candidate.Tags)
		return Decision{Outcome: Inserted, Ingredient: &ins, Changed: true}
	}

	merged := *existing
	merged.Allergens = existing.Allergens.Union(candidate.Allergens)
	merged.Tags = existing.Tags.Union(candidate.Tags)
	changed := len(merged.Allergens) != len(existing.Allergens) || len(merged.Tags) != len(existing.Tags)

	if existing.SameNutrition(candidate) {
		if authoritative && !existing.Authoritative {
			merged.Authoritative = true
			changed = true
		}
		return Decision{Outcome: Merged, Ingredient: &merged, Changed: changed}
	}

	if authoritative {
		merged.CopyNutrition(candidate)
		merged.Authoritative = true
		if candidate.ExternalID != "" {
			merged.ExternalID = candidate.ExternalID
		}
		return Decision{Outcome: Merged, Ingredient: &merged, Changed: true, NutritionChanged: true}
	}

	merged.NeedsReview = true
	return Decision{
		Outcome:    FlaggedForReview,
		Ingredient: &merged,
		Changed:    true,
		Review: &models.ReviewItem{
			IngredientID: existing.ID,
			Source:       candidate.Source,
			Candidate:    Snapshot(candidate),
			Reason:       "nutrition conflicts with existing record",
			Status:       models.ReviewPending,
		},
	}
}
