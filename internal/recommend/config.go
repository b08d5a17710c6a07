package recommend

import (
	"fmt"
	"math"
)

const (
	// DefaultLimit is the number of recommendations returned when the caller does not ask for
	// a specific count.
	DefaultLimit = 10
	// MaxLimit caps the number of recommendations per request.
	MaxLimit = 50
)

// Weights are the soft-scoring constants.
type Weights struct {
	// CuisineMatch is added when the recipe cuisine is one of the user's favorites.
	CuisineMatch float64 `json:"cuisine_match" yaml:"cuisine_match"`
	// FoodFlagPenalty is subtracted per food flag the user has not opted out of.
	FoodFlagPenalty float64 `json:"food_flag_penalty" yaml:"food_flag_penalty"`
	// NutritionGoal scales the [0,1] alignment with the user's nutrition targets.
	NutritionGoal float64 `json:"nutrition_goal" yaml:"nutrition_goal"`
}

func DefaultWeights() Weights {
	return Weights{
		CuisineMatch:    1.0,
		FoodFlagPenalty: 0.5,
		NutritionGoal:   1.0,
	}
}

// Validate rejects negative or non-finite weights.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"cuisine_match":     w.CuisineMatch,
		"food_flag_penalty": w.FoodFlagPenalty,
		"nutrition_goal":    w.NutritionGoal,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("weight %s must be finite", name)
		}
		if v < 0 {
			return fmt.Errorf("weight %s must be non-negative, got %v", name, v)
		}
	}
	return nil
}

// NormalizeLimit applies DefaultLimit and MaxLimit.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}
