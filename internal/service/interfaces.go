package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/pageza/nutrimatch/backend/internal/loader"
	"github.com/pageza/nutrimatch/backend/internal/models"
	"github.com/pageza/nutrimatch/backend/internal/recommend"
	"github.com/pageza/nutrimatch/backend/internal/types"
)

// ICatalogService defines the recipe and ingredient catalog operations
type ICatalogService interface {
	loader.Catalog
	recommend.Catalog
	GetRecipe(ctx context.Context, id uint) (*models.Recipe, error)
	ListRecipePage(ctx context.Context, filter RecipeFilter) ([]models.Recipe, int64, error)
	SimilarRecipes(ctx context.Context, id uint, limit int) ([]recommend.Similar, error)
	SearchIngredients(ctx context.Context, query string, limit int) ([]models.Ingredient, error)
	PendingReviews(ctx context.Context) ([]models.ReviewItem, error)
	ResolveReview(ctx context.Context, id uint, action, resolvedBy string) (*models.ReviewItem, error)
}

// IPreferenceService defines the preference profile operations
type IPreferenceService interface {
	recommend.ProfileStore
	ReplaceProfile(ctx context.Context, userID uuid.UUID, req *types.PreferencesRequest) (*models.PreferenceProfile, error)
}

// IFavoriteService defines the saved recipe operations
type IFavoriteService interface {
	AddFavorite(ctx context.Context, userID uuid.UUID, recipeID uint) error
	RemoveFavorite(ctx context.Context, userID uuid.UUID, recipeID uint) error
	ListFavorites(ctx context.Context, userID uuid.UUID) ([]models.Recipe, error)
}

// IRatingService defines the recipe rating operations
type IRatingService interface {
	RateRecipe(ctx context.Context, userID uuid.UUID, recipeID uint, rating int, comment string) (*models.RecipeRating, error)
	Summary(ctx context.Context, recipeID uint) (*types.RatingSummary, error)
}

// ITokenService validates and mints bearer tokens
type ITokenService interface {
	ValidateToken(token string) (*types.TokenClaims, error)
	GenerateToken(claims *types.TokenClaims) (string, error)
}
