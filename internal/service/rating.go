package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/nutrimatch/backend/internal/models"
	"github.com/pageza/nutrimatch/backend/internal/types"
)

// RatingService stores star ratings of recipes
type RatingService struct {
	db *gorm.DB
}

var _ IRatingService = (*RatingService)(nil)

func NewRatingService(db *gorm.DB) *RatingService {
	return &RatingService{db: db}
}

// RateRecipe records the user's rating of a recipe, replacing any earlier one.
func (s *RatingService) RateRecipe(ctx context.Context, userID uuid.UUID, recipeID uint, rating int, comment string) (*models.RecipeRating, error) {
	if rating < models.MinRating || rating > models.MaxRating {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidRating, rating)
	}
	db := s.db.WithContext(ctx)

	var recipe models.Recipe
	if err := db.Select("id").First(&recipe, recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}

	r := models.RecipeRating{
		RecipeID: recipeID,
		UserID:   userID,
		Rating:   rating,
		Comment:  strings.TrimSpace(comment),
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "recipe_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"updated_at", "rating", "comment"}),
	}).Create(&r).Error
	if err != nil {
		return nil, fmt.Errorf("save rating: %w", err)
	}

	var stored models.RecipeRating
	if err := db.Where("recipe_id = ? AND user_id = ?", recipeID, userID).First(&stored).Error; err != nil {
		return nil, fmt.Errorf("load rating: %w", err)
	}
	return &stored, nil
}

// Summary returns the number of ratings and their mean for a recipe.
func (s *RatingService) Summary(ctx context.Context, recipeID uint) (*types.RatingSummary, error) {
	var row struct {
		Count   int64
		Average *float64
	}
	err := s.db.WithContext(ctx).Model(&models.RecipeRating{}).
		Select("COUNT(*) AS count, CAST(AVG(rating) AS FLOAT) AS average").
		Where("recipe_id = ?", recipeID).
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("rating summary: %w", err)
	}

	summary := &types.RatingSummary{RecipeID: recipeID, Count: row.Count}
	if row.Average != nil {
		summary.Average = *row.Average
	}
	return summary, nil
}
