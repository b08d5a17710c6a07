package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/pageza/nutrimatch/backend/internal/models"
	"github.com/pageza/nutrimatch/backend/internal/service"
	"github.com/pageza/nutrimatch/backend/internal/types"
)

var (
	_ service.IPreferenceService = (*MockPreferenceService)(nil)
	_ service.IFavoriteService   = (*MockFavoriteService)(nil)
)

// MockPreferenceService is a mock implementation of the IPreferenceService interface
type MockPreferenceService struct {
	mock.Mock
}

func (m *MockPreferenceService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.PreferenceProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PreferenceProfile), args.Error(1)
}

func (m *MockPreferenceService) ReplaceProfile(ctx context.Context, userID uuid.UUID, req *types.PreferencesRequest) (*models.PreferenceProfile, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PreferenceProfile), args.Error(1)
}

// MockFavoriteService is a mock implementation of the IFavoriteService interface
type MockFavoriteService struct {
	mock.Mock
}

func (m *MockFavoriteService) AddFavorite(ctx context.Context, userID uuid.UUID, recipeID uint) error {
	return m.Called(ctx, userID, recipeID).Error(0)
}

func (m *MockFavoriteService) RemoveFavorite(ctx context.Context, userID uuid.UUID, recipeID uint) error {
	return m.Called(ctx, userID, recipeID).Error(0)
}

func (m *MockFavoriteService) ListFavorites(ctx context.Context, userID uuid.UUID) ([]models.Recipe, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Recipe), args.Error(1)
}
