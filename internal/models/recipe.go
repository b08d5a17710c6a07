package models

import (
	"time"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"
)

// Recipe is a catalog recipe. Nutrition totals and food flags are derived from Ingredients on read.
type Recipe struct {
	ID              uint               `gorm:"primarykey" json:"id"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
	Name            string             `gorm:"size:255;not null" json:"name"`
	NormalizedName  string             `gorm:"size:255;not null;uniqueIndex" json:"-"`
	Description     string             `gorm:"type:text" json:"description"`
	Cuisine         string             `gorm:"size:50;index" json:"cuisine"`
	Category        string             `gorm:"size:50" json:"category"`
	Servings        int                `gorm:"not null;default:1" json:"servings"`
	PrepTime        int                `json:"prep_time"`
	CookTime        int                `json:"cook_time"`
	ImageURL        string             `gorm:"size:255" json:"image_url,omitempty"`
	Instructions    StringArray        `gorm:"type:jsonb;not null;default:'[]'" json:"instructions"`
	Ingredients     []RecipeIngredient `gorm:"constraint:OnDelete:CASCADE" json:"ingredients"`
	NutritionVector *pgvector.Vector   `gorm:"type:vector(7)" json:"-"`
}

func (Recipe) TableName() string {
	return "recipes"
}

// RecipeIngredient is one ordered line of a recipe.
type RecipeIngredient struct {
	ID           uint        `gorm:"primarykey" json:"-"`
	RecipeID     uint        `gorm:"not null;index" json:"-"`
	Position     int         `gorm:"not null" json:"position"`
	IngredientID uint        `gorm:"not null;index" json:"ingredient_id"`
	Ingredient   *Ingredient `json:"ingredient,omitempty"`
	Grams        float64     `gorm:"type:float;not null" json:"grams"`
	Note         string      `gorm:"size:255" json:"note,omitempty"`
}

func (RecipeIngredient) TableName() string {
	return "recipe_ingredients"
}

// RecipeFavorite marks a recipe a user saved.
type RecipeFavorite struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	RecipeID  uint      `gorm:"not null;uniqueIndex:idx_favorite" json:"recipe_id"`
	UserID    uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex:idx_favorite" json:"user_id"`
	Recipe    *Recipe   `json:"recipe,omitempty"`
}

func (RecipeFavorite) TableName() string {
	return "recipe_favorites"
}
