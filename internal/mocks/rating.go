package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/pageza/nutrimatch/backend/internal/models"
	"github.com/pageza/nutrimatch/backend/internal/service"
	"github.com/pageza/nutrimatch/backend/internal/types"
)

var _ service.IRatingService = (*MockRatingService)(nil)

// MockRatingService is a mock implementation of the IRatingService interface
type MockRatingService struct {
	mock.Mock
}

func (m *MockRatingService) RateRecipe(ctx context.Context, userID uuid.UUID, recipeID uint, rating int, comment string) (*models.RecipeRating, error) {
	args := m.Called(ctx, userID, recipeID, rating, comment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RecipeRating), args.Error(1)
}

func (m *MockRatingService) Summary(ctx context.Context, recipeID uint) (*types.RatingSummary, error) {
	args := m.Called(ctx, recipeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.RatingSummary), args.Error(1)
}
