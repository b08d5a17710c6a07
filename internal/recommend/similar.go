package recommend

import (
	"sort"

	"github.com/pageza/nutrimatch/backend/internal/models"
	"github.com/pageza/nutrimatch/backend/internal/nutrition"
)

// Similar is a recipe with its cosine similarity to a reference recipe.
type Similar struct {
	Recipe     *models.Recipe `json:"recipe"`
	Similarity float64        `json:"similarity"`
}

// SimilarRecipes ranks candidates by cosine similarity of per-serving nutrition to target,
// highest first with ties broken by ID. The target itself is skipped.
func SimilarRecipes(target *models.Recipe, candidates []models.Recipe, limit int) []Similar {
	ref := nutrition.Vector(nutrition.Summarize(target).PerServing)

	out := make([]Similar, 0, len(candidates))
	for i := range candidates {
		c := &candidates[i]
		if c.ID == target.ID {
			continue
		}
		vec := nutrition.Vector(nutrition.Summarize(c).PerServing)
		out = append(out, Similar{Recipe: c, Similarity: nutrition.Cosine(ref, vec)})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].Recipe.ID < out[j].Recipe.ID
	})
	if n := NormalizeLimit(limit); len(out) > n {
		out = out[:n]
	}
	return out
}
