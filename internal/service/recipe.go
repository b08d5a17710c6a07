package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/nutrimatch/backend/internal/logging"
	"github.com/pageza/nutrimatch/backend/internal/models"
	"github.com/pageza/nutrimatch/backend/internal/nutrition"
	"github.com/pageza/nutrimatch/backend/internal/recommend"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// RecipeFilter selects a page of recipes
type RecipeFilter struct {
	Cuisine  string
	Page     int
	PageSize int
}

// Normalized applies the paging defaults and bounds.
func (f RecipeFilter) Normalized() RecipeFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = defaultPageSize
	}
	if f.PageSize > maxPageSize {
		f.PageSize = maxPageSize
	}
	f.Cuisine = strings.ToLower(strings.TrimSpace(f.Cuisine))
	return f
}

// CatalogService stores ingredients, recipes and the ingredient review queue
type CatalogService struct {
	db  *gorm.DB
	log zerolog.Logger
}

// Ensure CatalogService implements ICatalogService
var _ ICatalogService = (*CatalogService)(nil)

// NewCatalogService creates a new CatalogService instance
func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{
		db:  db,
		log: logging.Component("catalog"),
	}
}

func withIngredients(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Ingredients.Ingredient")
}

// ListRecipes returns every recipe with its ingredients, ordered by ID.
func (s *CatalogService) ListRecipes(ctx context.Context) ([]models.Recipe, error) {
	var recipes []models.Recipe
	if err := withIngredients(s.db.WithContext(ctx)).Order("id ASC").Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	return recipes, nil
}

// GetRecipe retrieves a recipe by ID
func (s *CatalogService) GetRecipe(ctx context.Context, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := withIngredients(s.db.WithContext(ctx)).First(&recipe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}
	return &recipe, nil
}

// ListRecipePage returns one page of recipes and the total number of matches.
func (s *CatalogService) ListRecipePage(ctx context.Context, filter RecipeFilter) ([]models.Recipe, int64, error) {
	filter = filter.Normalized()

	scope := func(db *gorm.DB) *gorm.DB {
		if filter.Cuisine != "" {
			return db.Where("cuisine = ?", filter.Cuisine)
		}
		return db
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Recipe{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var recipes []models.Recipe
	err := withIngredients(s.db.WithContext(ctx)).Scopes(scope).
		Order("id ASC").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, err
	}
	return recipes, total, nil
}

// UpsertRecipe creates the recipe or replaces the one with the same normalized name, including
// its ingredient rows and nutrition vector.
func (s *CatalogService) UpsertRecipe(ctx context.Context, recipe *models.Recipe) (bool, error) {
	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := loadLineIngredients(tx, recipe); err != nil {
			return err
		}
		recipe.NutritionVector = nutrition.RecipeVector(recipe)

		var existing models.Recipe
		err := tx.Where("normalized_name = ?", recipe.NormalizedName).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			created = true
			recipe.ID = 0
			if err := tx.Omit("Ingredients").Create(recipe).Error; err != nil {
				return fmt.Errorf("create recipe: %w", err)
			}
		case err != nil:
			return fmt.Errorf("find recipe: %w", err)
		default:
			recipe.ID = existing.ID
			recipe.CreatedAt = existing.CreatedAt
			if err := tx.Where("recipe_id = ?", existing.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
				return fmt.Errorf("clear recipe ingredients: %w", err)
			}
			if err := tx.Omit("Ingredients").Save(recipe).Error; err != nil {
				return fmt.Errorf("update recipe: %w", err)
			}
		}

		for i := range recipe.Ingredients {
			line := &recipe.Ingredients[i]
			line.ID = 0
			line.RecipeID = recipe.ID
			if err := tx.Omit("Ingredient").Create(line).Error; err != nil {
				return fmt.Errorf("create recipe ingredient: %w", err)
			}
		}
		return nil
	})
	return created, err
}

// loadLineIngredients fills in Ingredient on lines that only carry an IngredientID.
func loadLineIngredients(tx *gorm.DB, recipe *models.Recipe) error {
	for i := range recipe.Ingredients {
		line := &recipe.Ingredients[i]
		if line.Ingredient != nil && line.Ingredient.ID == line.IngredientID {
			continue
		}
		var ing models.Ingredient
		if err := tx.First(&ing, line.IngredientID).Error; err != nil {
			return fmt.Errorf("load ingredient %d: %w", line.IngredientID, err)
		}
		line.Ingredient = &ing
	}
	return nil
}

// SimilarRecipes ranks other recipes by nutrition vector similarity to the recipe with id.
// Postgres uses the pgvector cosine distance operator; other databases compare in process.
// A zero vector has similarity 0 to everything, as in nutrition.Cosine.
func (s *CatalogService) SimilarRecipes(ctx context.Context, id uint, limit int) ([]recommend.Similar, error) {
	target, err := s.GetRecipe(ctx, id)
	if err != nil {
		return nil, err
	}
	limit = recommend.NormalizeLimit(limit)

	if s.db.Dialector.Name() != "postgres" || target.NutritionVector == nil || zeroVector(target.NutritionVector.Slice()) {
		recipes, err := s.ListRecipes(ctx)
		if err != nil {
			return nil, err
		}
		return recommend.SimilarRecipes(target, recipes, limit), nil
	}

	var rows []struct {
		ID         uint
		Similarity float64
	}
	err = s.db.WithContext(ctx).Model(&models.Recipe{}).
		// <=> is NaN against a zero vector; those rows sort last.
		Select("id, CASE WHEN vector_norm(nutrition_vector) = 0 THEN 0 ELSE 1 - (nutrition_vector <=> ?) END AS similarity", target.NutritionVector).
		Where("id <> ? AND nutrition_vector IS NOT NULL", id).
		Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:  "nutrition_vector <=> ?, id",
			Vars: []interface{}{target.NutritionVector},
		}}).
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("similar recipes: %w", err)
	}
	if len(rows) == 0 {
		return []recommend.Similar{}, nil
	}

	ids := make([]uint, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	var recipes []models.Recipe
	if err := withIngredients(s.db.WithContext(ctx)).Where("id IN ?", ids).Find(&recipes).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]*models.Recipe, len(recipes))
	for i := range recipes {
		byID[recipes[i].ID] = &recipes[i]
	}

	out := make([]recommend.Similar, 0, len(rows))
	for _, r := range rows {
		if rec, ok := byID[r.ID]; ok {
			out = append(out, recommend.Similar{Recipe: rec, Similarity: r.Similarity})
		}
	}
	return out, nil
}

func zeroVector(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
