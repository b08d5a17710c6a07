package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/nutrimatch/backend/internal/loader"
	"github.com/pageza/nutrimatch/backend/internal/models"
	"github.com/pageza/nutrimatch/backend/internal/nutrition"
)

// UpsertIngredient applies the dedup decision for candidate in one transaction.
func (s *CatalogService) UpsertIngredient(ctx context.Context, candidate *models.Ingredient, decide loader.DecideFunc) (loader.Decision, error) {
	var d loader.Decision
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Ingredient
		var match *models.Ingredient
		err := tx.Where("normalized_name = ? AND source = ?", candidate.NormalizedName, candidate.Source).
			First(&existing).Error
		switch {
		case err == nil:
			match = &existing
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("find ingredient: %w", err)
		}

		d = decide(match)
		if d.Ingredient == nil {
			return fmt.Errorf("decision %s carries no ingredient", d.Outcome)
		}

		switch d.Outcome {
		case loader.Inserted:
			if err := tx.Create(d.Ingredient).Error; err != nil {
				return fmt.Errorf("insert ingredient: %w", err)
			}
			return nil
		case loader.FlaggedForReview:
			if d.Review != nil {
				if err := s.queueReview(tx, d.Review); err != nil {
					return err
				}
			}
		}

		if !d.Changed {
			return nil
		}
		if err := tx.Save(d.Ingredient).Error; err != nil {
			return fmt.Errorf("update ingredient: %w", err)
		}
		if d.NutritionChanged {
			return refreshVectors(tx, d.Ingredient.ID)
		}
		return nil
	})
	return d, err
}

// queueReview stores review unless an identical pending item exists.
func (s *CatalogService) queueReview(tx *gorm.DB, review *models.ReviewItem) error {
	var n int64
	err := tx.Model(&models.ReviewItem{}).
		Where("ingredient_id = ? AND source = ? AND candidate = ? AND status = ?",
			review.IngredientID, review.Source, review.Candidate, models.ReviewPending).
		Count(&n).Error
	if err != nil {
		return fmt.Errorf("check review queue: %w", err)
	}
	if n > 0 {
		return nil
	}
	if err := tx.Create(review).Error; err != nil {
		return fmt.Errorf("queue review: %w", err)
	}
	s.log.Info().Uint("ingredient_id", review.IngredientID).Str("source", review.Source).Msg("ingredient flagged for review")
	return nil
}

// ResolveIngredient returns the preferred ingredient for a normalized name: authoritative
// records first, then records not under review, then the oldest.
func (s *CatalogService) ResolveIngredient(ctx context.Context, normalizedName string) (*models.Ingredient, error) {
	var ing models.Ingredient
	err := s.db.WithContext(ctx).
		Where("normalized_name = ?", normalizedName).
		Order("authoritative DESC").
		Order("needs_review ASC").
		Order("id ASC").
		First(&ing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", loader.ErrIngredientNotFound, normalizedName)
	}
	if err != nil {
		return nil, err
	}
	return &ing, nil
}

// PendingReviews lists review items waiting for a decision, oldest first.
func (s *CatalogService) PendingReviews(ctx context.Context) ([]models.ReviewItem, error) {
	var items []models.ReviewItem
	err := s.db.WithContext(ctx).
		Where("status = ?", models.ReviewPending).
		Order("id ASC").
		Find(&items).Error
	return items, err
}

// ResolveReview accepts or rejects a pending review item. Accepting copies the candidate's
// nutrition onto the ingredient. The ingredient leaves review once no pending items remain.
func (s *CatalogService) ResolveReview(ctx context.Context, id uint, action, resolvedBy string) (*models.ReviewItem, error) {
	if action != "accept" && action != "reject" {
		return nil, ErrInvalidReviewAction
	}

	var item models.ReviewItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&item, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReviewNotFound
			}
			return err
		}
		if item.Status != models.ReviewPending {
			return ErrReviewResolved
		}

		var ing models.Ingredient
		if err := tx.First(&ing, item.IngredientID).Error; err != nil {
			return fmt.Errorf("load ingredient: %w", err)
		}

		nutritionChanged := false
		if action == "accept" {
			var candidate models.Ingredient
			if err := json.Unmarshal([]byte(item.Candidate), &candidate); err != nil {
				return fmt.Errorf("decode candidate: %w", err)
			}
			nutritionChanged = !ing.SameNutrition(&candidate)
			ing.CopyNutrition(&candidate)
			ing.Allergens = ing.Allergens.Union(candidate.Allergens)
			item.Status = models.ReviewAccepted
		} else {
			item.Status = models.ReviewRejected
		}
		item.ResolvedBy = resolvedBy
		if err := tx.Save(&item).Error; err != nil {
			return err
		}

		var pending int64
		if err := tx.Model(&models.ReviewItem{}).
			Where("ingredient_id = ? AND status = ?", ing.ID, models.ReviewPending).
			Count(&pending).Error; err != nil {
			return err
		}
		ing.NeedsReview = pending > 0
		if err := tx.Save(&ing).Error; err != nil {
			return err
		}
		if nutritionChanged {
			return refreshVectors(tx, ing.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Uint("review_id", item.ID).Str("status", item.Status).Str("resolved_by", resolvedBy).Msg("review resolved")
	return &item, nil
}

// refreshVectors recomputes the nutrition vector of every recipe using the ingredient.
func refreshVectors(tx *gorm.DB, ingredientID uint) error {
	var recipes []models.Recipe
	err := tx.
		Where("id IN (?)", tx.Model(&models.RecipeIngredient{}).Select("recipe_id").Where("ingredient_id = ?", ingredientID)).
		Preload("Ingredients.Ingredient").
		Find(&recipes).Error
	if err != nil {
		return fmt.Errorf("load recipes for vector refresh: %w", err)
	}
	for i := range recipes {
		vec := nutrition.RecipeVector(&recipes[i])
		if err := tx.Model(&models.Recipe{}).Where("id = ?", recipes[i].ID).Update("nutrition_vector", vec).Error; err != nil {
			return fmt.Errorf("refresh vector of recipe %d: %w", recipes[i].ID, err)
		}
	}
	return nil
}

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

// SearchIngredients finds catalog ingredients whose normalized name contains the normalized
// query. Prefix matches come first, then by name and ID.
func (s *CatalogService) SearchIngredients(ctx context.Context, query string, limit int) ([]models.Ingredient, error) {
	q := nutrition.NormalizeName(query)
	if q == "" {
		return nil, ErrEmptySearch
	}
	switch {
	case limit <= 0:
		limit = defaultSearchLimit
	case limit > maxSearchLimit:
		limit = maxSearchLimit
	}

	out := []models.Ingredient{}
	err := s.db.WithContext(ctx).
		Where("normalized_name LIKE ?", "%"+q+"%").
		Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:  "CASE WHEN normalized_name LIKE ? THEN 0 ELSE 1 END, normalized_name, id",
			Vars: []interface{}{q + "%"},
		}}).
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("search ingredients: %w", err)
	}
	return out, nil
}
