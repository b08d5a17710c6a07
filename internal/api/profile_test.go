package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pageza/nutrimatch/backend/internal/mocks"
	"github.com/pageza/nutrimatch/backend/internal/types"
)

func setupProfileRouter(t *testing.T) *testEnv {
	env := setupEnv(t)
	NewProfileHandler(env.preferences, env.favorites, env.tokens).RegisterRoutes(env.v1())
	return env
}

func TestPreferencesRequireAuth(t *testing.T) {
	env := setupProfileRouter(t)

	rr := env.do(t, http.MethodGet, "/api/v1/users/me/preferences", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = env.do(t, http.MethodPut, "/api/v1/users/me/preferences", "not-a-token", types.PreferencesRequest{})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestPreferencesRoundTrip(t *testing.T) {
	env := setupProfileRouter(t)
	token := env.token(t, uuid.New(), types.RoleUser)

	rr := env.do(t, http.MethodGet, "/api/v1/users/me/preferences", token, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"error":"set your preferences first"}`, rr.Body.String())

	target := 600.0
	rr = env.do(t, http.MethodPut, "/api/v1/users/me/preferences", token, types.PreferencesRequest{
		DietaryRestrictions: []string{"Vegetarian"},
		Allergies:           []string{"peanut"},
		FavoriteCuisines:    []string{"Thai"},
		CalorieTarget:       &target,
	})
	jsonOK(t, rr)

	rr = env.do(t, http.MethodGet, "/api/v1/users/me/preferences", token, nil)
	jsonOK(t, rr)
	var resp types.PreferencesResponse
	decode(t, rr, &resp)
	require.NotNil(t, resp.Preferences)
	assert.Equal(t, []string{"vegetarian"}, []string(resp.Preferences.DietaryRestrictions))
	assert.Equal(t, []string{"peanuts"}, []string(resp.Preferences.Allergies))
	assert.Equal(t, []string{"thai"}, []string(resp.Preferences.FavoriteCuisines))
	require.NotNil(t, resp.Preferences.CalorieTarget)
	assert.Equal(t, 600.0, *resp.Preferences.CalorieTarget)
}

func TestPreferencesRejectUnknownValues(t *testing.T) {
	env := setupProfileRouter(t)
	token := env.token(t, uuid.New(), types.RoleUser)

	rr := env.do(t, http.MethodPut, "/api/v1/users/me/preferences", token, types.PreferencesRequest{
		DietaryRestrictions: []string{"carnivore"},
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "carnivore")

	var body struct {
		Problems []string `json:"problems"`
		Allowed  struct {
			DietaryRestrictions []string `json:"dietary_restrictions"`
			Allergies           []string `json:"allergies"`
			FoodFlagOptOuts     []string `json:"food_flag_opt_outs"`
		} `json:"allowed"`
	}
	decode(t, rr, &body)
	assert.Equal(t, []string{`unknown dietary restriction "carnivore"`}, body.Problems)
	assert.Contains(t, body.Allowed.DietaryRestrictions, "vegetarian")
	assert.Contains(t, body.Allowed.Allergies, "peanuts")
	assert.Contains(t, body.Allowed.FoodFlagOptOuts, "high_sugar")

	rr = env.do(t, http.MethodGet, "/api/v1/users/me/preferences", token, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestFavorites(t *testing.T) {
	env := setupProfileRouter(t)
	recipes := seedRecipes(t, env.db)
	token := env.token(t, uuid.New(), types.RoleUser)

	rr := env.do(t, http.MethodPost, "/api/v1/users/me/favorites/2", token, nil)
	assert.Equal(t, http.StatusCreated, rr.Code)
	// adding twice is harmless
	rr = env.do(t, http.MethodPost, "/api/v1/users/me/favorites/2", token, nil)
	assert.Equal(t, http.StatusCreated, rr.Code)

	rr = env.do(t, http.MethodGet, "/api/v1/users/me/favorites", token, nil)
	jsonOK(t, rr)
	var resp struct {
		Recipes []types.RecipeResponse `json:"recipes"`
	}
	decode(t, rr, &resp)
	require.Len(t, resp.Recipes, 1)
	assert.Equal(t, recipes[1].ID, resp.Recipes[0].ID)

	rr = env.do(t, http.MethodPost, "/api/v1/users/me/favorites/404", token, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = env.do(t, http.MethodDelete, "/api/v1/users/me/favorites/2", token, nil)
	jsonOK(t, rr)
	rr = env.do(t, http.MethodDelete, "/api/v1/users/me/favorites/2", token, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = env.do(t, http.MethodGet, "/api/v1/users/me/favorites", token, nil)
	jsonOK(t, rr)
	decode(t, rr, &resp)
	assert.Empty(t, resp.Recipes)
}

func TestProfileWithMockValidator(t *testing.T) {
	env := setupEnv(t)
	validator := new(mocks.MockTokenService)
	userID := uuid.New()
	validator.On("ValidateToken", "good").Return(&types.TokenClaims{UserID: userID, Role: types.RoleUser}, nil)
	validator.On("ValidateToken", mock.Anything).Return(nil, errors.New("invalid token"))
	NewProfileHandler(env.preferences, env.favorites, validator).RegisterRoutes(env.v1())

	rr := env.do(t, http.MethodGet, "/api/v1/users/me/favorites", "good", nil)
	jsonOK(t, rr)

	rr = env.do(t, http.MethodGet, "/api/v1/users/me/favorites", "bad", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"error":"invalid token"}`, rr.Body.String())

	validator.AssertNumberOfCalls(t, "ValidateToken", 2)
}
