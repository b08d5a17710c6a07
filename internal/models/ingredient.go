package models

import (
	"time"

	"gorm.io/gorm"
)

// Ingredient is a canonical catalog ingredient. Nutrition values are per 100 g; sodium is in mg.
type Ingredient struct {
	ID             uint        `gorm:"primarykey" json:"id"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
	Name           string      `gorm:"size:255;not null" json:"name"`
	NormalizedName string      `gorm:"size:255;not null;uniqueIndex:idx_ingredient_key" json:"normalized_name"`
	Source         string      `gorm:"size:50;not null;uniqueIndex:idx_ingredient_key" json:"source"`
	ExternalID     string      `gorm:"size:100" json:"external_id,omitempty"`
	Category       string      `gorm:"size:50" json:"category,omitempty"`
	Calories       float64     `gorm:"type:float" json:"calories"`
	Protein        float64     `gorm:"type:float" json:"protein"`
	Carbs          float64     `gorm:"type:float" json:"carbs"`
	Fat            float64     `gorm:"type:float" json:"fat"`
	Fiber          float64     `gorm:"type:float" json:"fiber"`
	Sugar          float64     `gorm:"type:float" json:"sugar"`
	Sodium         float64     `gorm:"type:float" json:"sodium"`
	Allergens      StringArray `gorm:"type:jsonb;not null;default:'[]'" json:"allergens"`
	Tags           StringArray `gorm:"type:jsonb;not null;default:'[]'" json:"tags"`
	Authoritative  bool        `gorm:"not null;default:false" json:"authoritative"`
	NeedsReview    bool        `gorm:"not null;default:false;index" json:"needs_review"`
}

func (Ingredient) TableName() string {
	return "ingredients"
}

// SameNutrition reports whether both records carry identical nutrition values.
func (i *Ingredient) SameNutrition(o *Ingredient) bool {
	return i.Calories == o.Calories &&
		i.Protein == o.Protein &&
		i.Carbs == o.Carbs &&
		i.Fat == o.Fat &&
		i.Fiber == o.Fiber &&
		i.Sugar == o.Sugar &&
		i.Sodium == o.Sodium
}

// CopyNutrition overwrites the nutrition values of i with those of o.
func (i *Ingredient) CopyNutrition(o *Ingredient) {
	i.Calories = o.Calories
	i.Protein = o.Protein
	i.Carbs = o.Carbs
	i.Fat = o.Fat
	i.Fiber = o.Fiber
	i.Sugar = o.Sugar
	i.Sodium = o.Sodium
}

// Review statuses
const (
	ReviewPending  = "pending"
	ReviewAccepted = "accepted"
	ReviewRejected = "rejected"
)

// ReviewItem keeps conflicting ingredient data from a non-authoritative source until someone
// accepts or rejects it.
type ReviewItem struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	IngredientID uint           `gorm:"not null;index" json:"ingredient_id"`
	Source       string         `gorm:"size:50;not null" json:"source"`
	Candidate    string         `gorm:"type:text;not null" json:"candidate"`
	Reason       string         `gorm:"size:255" json:"reason"`
	Status       string         `gorm:"size:20;not null;default:'pending';index" json:"status"`
	ResolvedBy   string         `gorm:"size:64" json:"resolved_by,omitempty"`
}

func (ReviewItem) TableName() string {
	return "ingredient_reviews"
}
