// Package recommend ranks catalog recipes for a user's preference profile.
//
// Ranking has two phases. The hard filter drops every recipe containing an ingredient with an
// allergen from the user's expanded allergy set or a tag forbidden by one of the user's dietary
// restrictions; nothing in scoring can bring such a recipe back. The survivors are scored from
// cuisine match, food flag penalties and nutrition goal alignment, then ordered by score
// descending and recipe ID ascending.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pageza/nutrimatch/backend/internal/metrics"
	"github.com/pageza/nutrimatch/backend/internal/models"
	"github.com/pageza/nutrimatch/backend/internal/nutrition"
)

// ProfileStore reads preference profiles. GetProfile returns ErrProfileNotFound when the user
// has none.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.PreferenceProfile, error)
}

// Catalog lists every recipe with its ingredient rows and ingredients preloaded.
type Catalog interface {
	ListRecipes(ctx context.Context) ([]models.Recipe, error)
}

// Scored is a recipe with its score.
type Scored struct {
	Recipe    *models.Recipe    `json:"recipe"`
	Score     float64           `json:"score"`
	Nutrition nutrition.Summary `json:"nutrition"`
}

// Engine computes recommendations. It keeps no mutable state and is safe for concurrent use.
type Engine struct {
	profiles     ProfileStore
	catalog      Catalog
	weights      Weights
	restrictions nutrition.Restrictions
}

type Option func(*Engine)

func WithWeights(w Weights) Option {
	return func(e *Engine) { e.weights = w }
}

// WithRestrictions replaces the restriction table.
func WithRestrictions(r nutrition.Restrictions) Option {
	return func(e *Engine) { e.restrictions = r }
}

func NewEngine(profiles ProfileStore, catalog Catalog, opts ...Option) (*Engine, error) {
	e := &Engine{
		profiles:     profiles,
		catalog:      catalog,
		weights:      DefaultWeights(),
		restrictions: nutrition.DefaultRestrictions(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.weights.Validate(); err != nil {
		return nil, fmt.Errorf("invalid weights: %w", err)
	}
	return e, nil
}

// Weights returns the scoring weights in use.
func (e *Engine) Weights() Weights {
	return e.weights
}

// Recommend returns up to limit recipes for the user, best first. An empty result is valid.
func (e *Engine) Recommend(ctx context.Context, userID uuid.UUID, limit int) ([]Scored, error) {
	start := time.Now()
	defer func() {
		metrics.RecommendDuration.Observe(time.Since(start).Seconds())
	}()

	profile, err := e.profiles.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			metrics.RecommendErrors.WithLabelValues("profile_not_found").Inc()
			return nil, err
		}
		metrics.RecommendErrors.WithLabelValues("profile_store").Inc()
		return nil, fmt.Errorf("load profile: %w", err)
	}

	recipes, err := e.catalog.ListRecipes(ctx)
	if err != nil {
		metrics.RecommendErrors.WithLabelValues("catalog_unavailable").Inc()
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}

	ranked := e.Rank(profile, recipes)
	if n := NormalizeLimit(limit); len(ranked) > n {
		ranked = ranked[:n]
	}
	metrics.RecommendResults.Observe(float64(len(ranked)))
	return ranked, nil
}

// Rank filters and orders recipes for profile without applying a limit.
func (e *Engine) Rank(profile *models.PreferenceProfile, recipes []models.Recipe) []Scored {
	allergies, _ := nutrition.ExpandAllergies(profile.Allergies)
	forbidden := e.restrictions.Forbidden(profile.DietaryRestrictions)

	favorites := make(map[string]struct{}, len(profile.FavoriteCuisines))
	for _, c := range profile.FavoriteCuisines {
		favorites[strings.ToLower(strings.TrimSpace(c))] = struct{}{}
	}
	optOuts := make(map[string]struct{}, len(profile.FoodFlagOptOuts))
	for _, f := range profile.FoodFlagOptOuts {
		optOuts[f] = struct{}{}
	}

	out := make([]Scored, 0, len(recipes))
	for i := range recipes {
		r := &recipes[i]
		if excluded(r, allergies, forbidden) {
			continue
		}
		summary := nutrition.Summarize(r)
		out = append(out, Scored{
			Recipe:    r,
			Score:     e.score(r, summary, profile, favorites, optOuts),
			Nutrition: summary,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Recipe.ID < out[j].Recipe.ID
	})
	return out
}

// excluded applies the hard filter. A row whose ingredient is missing excludes the recipe,
// since its allergens cannot be checked.
func excluded(r *models.Recipe, allergies, forbidden map[string]struct{}) bool {
	for _, ri := range r.Ingredients {
		if ri.Ingredient == nil {
			return true
		}
		for _, a := range ri.Ingredient.Allergens {
			if _, hit := allergies[a]; hit {
				return true
			}
		}
		for _, tag := range ri.Ingredient.Tags {
			if _, hit := forbidden[tag]; hit {
				return true
			}
		}
	}
	return false
}

func (e *Engine) score(r *models.Recipe, s nutrition.Summary, p *models.PreferenceProfile, favorites, optOuts map[string]struct{}) float64 {
	var score float64
	if _, ok := favorites[strings.ToLower(r.Cuisine)]; ok && r.Cuisine != "" {
		score += e.weights.CuisineMatch
	}
	for _, flag := range s.Flags {
		if _, ok := optOuts[flag]; !ok {
			score -= e.weights.FoodFlagPenalty
		}
	}
	if a, ok := Alignment(s.PerServing, p.CalorieTarget, p.ProteinTarget); ok {
		score += e.weights.NutritionGoal * a
	}
	return score
}

// Alignment averages 1 - min(1, |actual-target|/target) over the targets that are set and
// positive. ok is false when no target applies.
func Alignment(per nutrition.Nutrients, calorieTarget, proteinTarget *float64) (float64, bool) {
	var sum float64
	var n int
	for _, g := range []struct {
		actual float64
		target *float64
	}{
		{per.Calories, calorieTarget},
		{per.Protein, proteinTarget},
	} {
		if g.target == nil || *g.target <= 0 {
			continue
		}
		sum += 1 - math.Min(1, math.Abs(g.actual-*g.target) / *g.target)
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
