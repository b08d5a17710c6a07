package models

import (
	"time"

	"github.com/google/uuid"
)

// PreferenceProfile holds one user's dietary preferences. Updates replace the whole profile.
type PreferenceProfile struct {
	ID                  uint        `gorm:"primarykey" json:"-"`
	CreatedAt           time.Time   `json:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at"`
	UserID              uuid.UUID   `gorm:"type:varchar(36);not null;uniqueIndex" json:"user_id"`
	DietaryRestrictions StringArray `gorm:"type:jsonb;not null;default:'[]'" json:"dietary_restrictions"`
	Allergies           StringArray `gorm:"type:jsonb;not null;default:'[]'" json:"allergies"`
	FavoriteCuisines    StringArray `gorm:"type:jsonb;not null;default:'[]'" json:"favorite_cuisines"`
	FoodFlagOptOuts     StringArray `gorm:"type:jsonb;not null;default:'[]'" json:"food_flag_opt_outs"`
	CalorieTarget       *float64    `gorm:"type:float" json:"calorie_target,omitempty"`
	ProteinTarget       *float64    `gorm:"type:float" json:"protein_target,omitempty"`
}

func (PreferenceProfile) TableName() string {
	return "preference_profiles"
}
