package types

// PreferencesRequest is the body of PUT /users/me/preferences. It replaces the whole profile.
type PreferencesRequest struct {
	DietaryRestrictions []string `json:"dietary_restrictions"`
	Allergies           []string `json:"allergies"`
	FavoriteCuisines    []string `json:"favorite_cuisines"`
	FoodFlagOptOuts     []string `json:"food_flag_opt_outs"`
	CalorieTarget       *float64 `json:"calorie_target"`
	ProteinTarget       *float64 `json:"protein_target"`
}

// RateRecipeRequest is the body of POST /recipes/:id/rate
type RateRecipeRequest struct {
	Rating  *int   `json:"rating" binding:"required"`
	Comment string `json:"comment" binding:"max=1000"`
}

// IngestRequest is the body of POST /admin/ingest
type IngestRequest struct {
	Provider string   `json:"provider" binding:"required"`
	Queries  []string `json:"queries" binding:"required,min=1"`
}

// ResolveReviewRequest is the body of POST /admin/reviews/:id/resolve
type ResolveReviewRequest struct {
	Action string `json:"action" binding:"required,oneof=accept reject"`
}
