package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/pageza/nutrimatch/backend/internal/loader"
	"github.com/pageza/nutrimatch/backend/internal/models"
	"github.com/pageza/nutrimatch/backend/internal/recommend"
	"github.com/pageza/nutrimatch/backend/internal/service"
)

var _ service.ICatalogService = (*MockCatalogService)(nil)

// MockCatalogService is a mock implementation of the catalog service
type MockCatalogService struct {
	mock.Mock
}

// UpsertIngredient mocks the UpsertIngredient method
func (m *MockCatalogService) UpsertIngredient(ctx context.Context, candidate *models.Ingredient, decide loader.DecideFunc) (loader.Decision, error) {
	args := m.Called(ctx, candidate, decide)
	return args.Get(0).(loader.Decision), args.Error(1)
}

// ResolveIngredient mocks the ResolveIngredient method
func (m *MockCatalogService) ResolveIngredient(ctx context.Context, normalizedName string) (*models.Ingredient, error) {
	args := m.Called(ctx, normalizedName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ingredient), args.Error(1)
}

// UpsertRecipe mocks the UpsertRecipe method
func (m *MockCatalogService) UpsertRecipe(ctx context.Context, recipe *models.Recipe) (bool, error) {
	args := m.Called(ctx, recipe)
	return args.Bool(0), args.Error(1)
}

// ListRecipes mocks the ListRecipes method
func (m *MockCatalogService) ListRecipes(ctx context.Context) ([]models.Recipe, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Recipe), args.Error(1)
}

// GetRecipe mocks the GetRecipe method
func (m *MockCatalogService) GetRecipe(ctx context.Context, id uint) (*models.Recipe, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Recipe), args.Error(1)
}

// ListRecipePage mocks the ListRecipePage method
func (m *MockCatalogService) ListRecipePage(ctx context.Context, filter service.RecipeFilter) ([]models.Recipe, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.Recipe), args.Get(1).(int64), args.Error(2)
}

// SimilarRecipes mocks the SimilarRecipes method
func (m *MockCatalogService) SimilarRecipes(ctx context.Context, id uint, limit int) ([]recommend.Similar, error) {
	args := m.Called(ctx, id, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]recommend.Similar), args.Error(1)
}

// SearchIngredients mocks the SearchIngredients method
func (m *MockCatalogService) SearchIngredients(ctx context.Context, query string, limit int) ([]models.Ingredient, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Ingredient), args.Error(1)
}

// PendingReviews mocks the PendingReviews method
func (m *MockCatalogService) PendingReviews(ctx context.Context) ([]models.ReviewItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ReviewItem), args.Error(1)
}

// ResolveReview mocks the ResolveReview method
func (m *MockCatalogService) ResolveReview(ctx context.Context, id uint, action, resolvedBy string) (*models.ReviewItem, error) {
	args := m.Called(ctx, id, action, resolvedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReviewItem), args.Error(1)
}
