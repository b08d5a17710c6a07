package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pageza/nutrimatch/backend/internal/models"
	"github.com/pageza/nutrimatch/backend/internal/nutrition"
)

// ManualSource is the Source name of ingredients defined in recipe files.
const ManualSource = "manual"

// RecipeFile is a YAML document of hand-maintained ingredients and recipes.
type RecipeFile struct {
	Ingredients []IngredientSpec `yaml:"ingredients"`
	Recipes     []RecipeSpec     `yaml:"recipes"`
}

// IngredientSpec defines an ingredient by hand. Nutrition is per 100 g, sodium in mg.
type IngredientSpec struct {
	Name      string   `yaml:"name"`
	Category  string   `yaml:"category"`
	Calories  *float64 `yaml:"calories"`
	Protein   *float64 `yaml:"protein"`
	Carbs     *float64 `yaml:"carbs"`
	Fat       *float64 `yaml:"fat"`
	Fiber     *float64 `yaml:"fiber"`
	Sugar     *float64 `yaml:"sugar"`
	Sodium    *float64 `yaml:"sodium"`
	Allergens []string `yaml:"allergens"`
	Tags      []string `yaml:"tags"`
}

// RecipeSpec defines a recipe whose ingredients are looked up in the catalog by name.
type RecipeSpec struct {
	Name         string                 `yaml:"name"`
	Description  string                 `yaml:"description"`
	Cuisine      string                 `yaml:"cuisine"`
	Category     string                 `yaml:"category"`
	Servings     int                    `yaml:"servings"`
	PrepTime     int                    `yaml:"prep_time"`
	CookTime     int                    `yaml:"cook_time"`
	ImageURL     string                 `yaml:"image_url"`
	Instructions []string               `yaml:"instructions"`
	Ingredients  []RecipeIngredientSpec `yaml:"ingredients"`
}

type RecipeIngredientSpec struct {
	Name  string  `yaml:"name"`
	Grams float64 `yaml:"grams"`
	Note  string  `yaml:"note"`
}

// ParseRecipeFile decodes a recipe file. Unknown keys are rejected.
func ParseRecipeFile(r io.Reader) (*RecipeFile, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f RecipeFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("decode recipe file: %w", err)
	}
	return &f, nil
}

// RecipeSuccess is one recipe written by ImportRecipes.
type RecipeSuccess struct {
	Name     string `json:"name"`
	RecipeID uint   `json:"recipe_id"`
	Created  bool   `json:"created"`
}

// ImportResult lists what a recipe import stored and what failed.
type ImportResult struct {
	Successes []RecipeSuccess `json:"successes"`
	Failures  []*ItemError    `json:"failures"`
}

// ImportIngredients merges hand-defined ingredients into the catalog as authoritative
// ManualSource records.
func (l *Loader) ImportIngredients(ctx context.Context, specs []IngredientSpec) *BatchResult {
	result := &BatchResult{Provider: ManualSource, Successes: []Success{}, Failures: []*ItemError{}}
	for _, spec := range specs {
		cand, err := canonicalize(ManualSource, rawItem{
			Name:      spec.Name,
			Category:  spec.Category,
			Calories:  spec.Calories,
			Protein:   spec.Protein,
			Carbs:     spec.Carbs,
			Fat:       spec.Fat,
			Fiber:     spec.Fiber,
			Sugar:     spec.Sugar,
			Sodium:    spec.Sodium,
			Allergens: spec.Allergens,
		})
		if err != nil {
			result.addFailure(&ItemError{Provider: ManualSource, Item: spec.Name, Err: err})
			continue
		}
		cand.Tags = cand.Tags.Union(spec.Tags)

		l.writeMu.Lock()
		d, err := l.catalog.UpsertIngredient(ctx, &cand, func(existing *models.Ingredient) Decision {
			return Dedup(&cand, existing, true)
		})
		l.writeMu.Unlock()
		if err != nil {
			result.addFailure(&ItemError{Provider: ManualSource, Item: spec.Name, Err: err})
			continue
		}
		result.addSuccess(Success{IngredientID: d.Ingredient.ID, Name: d.Ingredient.Name, Outcome: d.Outcome})
	}
	return result
}

// ImportRecipes resolves each recipe's ingredients against the catalog and upserts the recipe
// by normalized name. A recipe with an unknown ingredient is skipped and reported.
func (l *Loader) ImportRecipes(ctx context.Context, specs []RecipeSpec) *ImportResult {
	result := &ImportResult{Successes: []RecipeSuccess{}, Failures: []*ItemError{}}
	for _, spec := range specs {
		recipe, err := l.buildRecipe(ctx, spec)
		if err == nil {
			var created bool
			l.writeMu.Lock()
			created, err = l.catalog.UpsertRecipe(ctx, recipe)
			l.writeMu.Unlock()
			if err == nil {
				result.Successes = append(result.Successes, RecipeSuccess{Name: recipe.Name, RecipeID: recipe.ID, Created: created})
				continue
			}
		}
		l.log.Warn().Err(err).Str("recipe", spec.Name).Msg("recipe import failed")
		result.Failures = append(result.Failures, &ItemError{Provider: ManualSource, Item: spec.Name, Err: err})
	}
	return result
}

func (l *Loader) buildRecipe(ctx context.Context, spec RecipeSpec) (*models.Recipe, error) {
	normalized := nutrition.NormalizeName(spec.Name)
	if normalized == "" {
		return nil, fmt.Errorf("%w: missing name", ErrInvalidRecipe)
	}
	if len(spec.Ingredients) == 0 {
		return nil, fmt.Errorf("%w: no ingredients", ErrInvalidRecipe)
	}
	servings := spec.Servings
	if servings == 0 {
		servings = 1
	}
	if servings < 1 {
		return nil, fmt.Errorf("%w: servings must be at least 1", ErrInvalidRecipe)
	}

	recipe := &models.Recipe{
		Name:           strings.TrimSpace(spec.Name),
		NormalizedName: normalized,
		Description:    spec.Description,
		Cuisine:        strings.ToLower(strings.TrimSpace(spec.Cuisine)),
		Category:       spec.Category,
		Servings:       servings,
		PrepTime:       spec.PrepTime,
		CookTime:       spec.CookTime,
		ImageURL:       spec.ImageURL,
		Instructions:   models.StringArray(spec.Instructions),
	}
	for i, ri := range spec.Ingredients {
		if ri.Grams <= 0 {
			return nil, fmt.Errorf("%w: ingredient %q needs a positive weight", ErrInvalidRecipe, ri.Name)
		}
		ing, err := l.catalog.ResolveIngredient(ctx, nutrition.NormalizeName(ri.Name))
		if err != nil {
			return nil, fmt.Errorf("ingredient %q: %w", ri.Name, err)
		}
		recipe.Ingredients = append(recipe.Ingredients, models.RecipeIngredient{
			Position:     i,
			IngredientID: ing.ID,
			Ingredient:   ing,
			Grams:        ri.Grams,
			Note:         ri.Note,
		})
	}
	return recipe, nil
}
