package testhelpers

import (
	"testing"

	"gorm.io/gorm"

	"github.com/pageza/nutrimatch/backend/internal/models"
	"github.com/pageza/nutrimatch/backend/internal/nutrition"
)

// Line is one recipe ingredient for CreateRecipe.
type Line struct {
	Ingredient *models.Ingredient
	Grams      float64
}

// CreateIngredient stores ing, filling NormalizedName and Source when empty.
func CreateIngredient(t *testing.T, db *gorm.DB, ing models.Ingredient) *models.Ingredient {
	t.Helper()
	if ing.NormalizedName == "" {
		ing.NormalizedName = nutrition.NormalizeName(ing.Name)
	}
	if ing.Source == "" {
		ing.Source = "manual"
	}
	if err := db.Create(&ing).Error; err != nil {
		t.Fatalf("failed to create ingredient %q: %v", ing.Name, err)
	}
	return &ing
}

// CreateRecipe stores a recipe with the given lines and its nutrition vector.
func CreateRecipe(t *testing.T, db *gorm.DB, name, cuisine string, servings int, lines ...Line) *models.Recipe {
	t.Helper()
	r := models.Recipe{
		Name:           name,
		NormalizedName: nutrition.NormalizeName(name),
		Cuisine:        cuisine,
		Servings:       servings,
		Instructions:   models.StringArray{"cook"},
	}
	for i, l := range lines {
		r.Ingredients = append(r.Ingredients, models.RecipeIngredient{
			Position:     i + 1,
			IngredientID: l.Ingredient.ID,
			Ingredient:   l.Ingredient,
			Grams:        l.Grams,
		})
	}
	r.NutritionVector = nutrition.RecipeVector(&r)

	for i := range r.Ingredients {
		r.Ingredients[i].Ingredient = nil
	}
	if err := db.Create(&r).Error; err != nil {
		t.Fatalf("failed to create recipe %q: %v", name, err)
	}
	for i, l := range lines {
		r.Ingredients[i].Ingredient = l.Ingredient
	}
	return &r
}
