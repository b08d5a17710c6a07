package models

import (
	"time"

	"github.com/google/uuid"
)

// Rating bounds, in stars.
const (
	MinRating = 1
	MaxRating = 5
)

// RecipeRating is one user's star rating of a recipe. Rating again replaces it.
type RecipeRating struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	RecipeID  uint      `gorm:"not null;uniqueIndex:idx_rating" json:"recipe_id"`
	UserID    uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex:idx_rating" json:"user_id"`
	Rating    int       `gorm:"not null" json:"rating"`
	Comment   string    `gorm:"size:1000" json:"comment,omitempty"`
}

func (RecipeRating) TableName() string {
	return "recipe_ratings"
}
