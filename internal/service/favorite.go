package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/nutrimatch/backend/internal/models"
)

// FavoriteService handles saved recipes
type FavoriteService struct {
	db *gorm.DB
}

var _ IFavoriteService = (*FavoriteService)(nil)

func NewFavoriteService(db *gorm.DB) *FavoriteService {
	return &FavoriteService{db: db}
}

// AddFavorite saves a recipe for a user. Saving twice is a no-op.
func (s *FavoriteService) AddFavorite(ctx context.Context, userID uuid.UUID, recipeID uint) error {
	db := s.db.WithContext(ctx)

	var recipe models.Recipe
	if err := db.Select("id").First(&recipe, recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRecipeNotFound
		}
		return err
	}

	fav := models.RecipeFavorite{RecipeID: recipeID, UserID: userID}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&fav).Error
}

// RemoveFavorite removes a saved recipe
func (s *FavoriteService) RemoveFavorite(ctx context.Context, userID uuid.UUID, recipeID uint) error {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&models.RecipeFavorite{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrRecipeNotFound
	}
	return nil
}

// ListFavorites returns a user's saved recipes, most recently saved first
func (s *FavoriteService) ListFavorites(ctx context.Context, userID uuid.UUID) ([]models.Recipe, error) {
	var favorites []models.RecipeFavorite
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Preload("Recipe").
		Preload("Recipe.Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Recipe.Ingredients.Ingredient").
		Find(&favorites).Error
	if err != nil {
		return nil, err
	}

	recipes := make([]models.Recipe, 0, len(favorites))
	for _, f := range favorites {
		if f.Recipe != nil {
			recipes = append(recipes, *f.Recipe)
		}
	}
	return recipes, nil
}
