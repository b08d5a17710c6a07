package types

import (
	"github.com/pageza/nutrimatch/backend/internal/models"
	"github.com/pageza/nutrimatch/backend/internal/nutrition"
)

// RecipeResponse is a recipe with its derived nutrition and food flags
type RecipeResponse struct {
	*models.Recipe
	Nutrition nutrition.Summary `json:"nutrition"`
}

// NewRecipeResponse derives the nutrition summary for r. Ingredients must be loaded.
func NewRecipeResponse(r *models.Recipe) RecipeResponse {
	return RecipeResponse{Recipe: r, Nutrition: nutrition.Summarize(r)}
}

// RecipeListResponse is one page of recipes
type RecipeListResponse struct {
	Recipes  []RecipeResponse `json:"recipes"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

// ScoredRecipe is one recommendation
type ScoredRecipe struct {
	RecipeResponse
	Score float64 `json:"score"`
}

// RecommendationResponse is the body of GET /recommendations
type RecommendationResponse struct {
	Recommendations []ScoredRecipe `json:"recommendations"`
}

// SimilarRecipe is one entry of GET /recipes/:id/similar
type SimilarRecipe struct {
	RecipeResponse
	Similarity float64 `json:"similarity"`
}

// RatingSummary aggregates the star ratings of one recipe. Average is 0 when Count is 0.
type RatingSummary struct {
	RecipeID uint    `json:"recipe_id"`
	Count    int64   `json:"count"`
	Average  float64 `json:"average"`
}

// RatingResponse is the body of POST /recipes/:id/rate
type RatingResponse struct {
	Rating  *models.RecipeRating `json:"rating"`
	Summary *RatingSummary       `json:"summary"`
}
