package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/nutrimatch/backend/internal/middleware"
	"github.com/pageza/nutrimatch/backend/internal/quota"
	"github.com/pageza/nutrimatch/backend/internal/recommend"
	"github.com/pageza/nutrimatch/backend/internal/types"
)

type stubRecommender struct {
	err error
}

func (s stubRecommender) Recommend(context.Context, uuid.UUID, int) ([]recommend.Scored, error) {
	return nil, s.err
}

type countingLimiter struct {
	limit int64
	hits  int64
}

func (c *countingLimiter) Hit(context.Context, string) (quota.Usage, error) {
	c.hits++
	remaining := c.limit - c.hits
	if remaining < 0 {
		remaining = 0
	}
	return quota.Usage{Allowed: c.hits <= c.limit, Limit: c.limit, Remaining: remaining, Reset: time.Now().Add(time.Minute)}, nil
}

func setupRecommendationRouter(t *testing.T, limiter *middleware.RateLimiter) *testEnv {
	env := setupEnv(t)
	engine, err := recommend.NewEngine(env.preferences, env.catalog)
	require.NoError(t, err)
	NewRecommendationHandler(engine, env.tokens, limiter).RegisterRoutes(env.v1())
	NewProfileHandler(env.preferences, env.favorites, env.tokens).RegisterRoutes(env.v1())
	return env
}

func TestRecommendationsWithoutProfile(t *testing.T) {
	env := setupRecommendationRouter(t, nil)
	token := env.token(t, uuid.New(), types.RoleUser)

	rr := env.do(t, http.MethodGet, "/api/v1/recommendations", token, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"error":"set your preferences first"}`, rr.Body.String())

	rr = env.do(t, http.MethodGet, "/api/v1/recommendations", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRecommendationsHonorProfile(t *testing.T) {
	env := setupRecommendationRouter(t, nil)
	seedRecipes(t, env.db)
	token := env.token(t, uuid.New(), types.RoleUser)

	rr := env.do(t, http.MethodPut, "/api/v1/users/me/preferences", token, types.PreferencesRequest{
		Allergies:        []string{"peanuts"},
		FavoriteCuisines: []string{"indian"},
	})
	jsonOK(t, rr)

	rr = env.do(t, http.MethodGet, "/api/v1/recommendations", token, nil)
	jsonOK(t, rr)
	var resp struct {
		Recommendations []struct {
			Name      string  `json:"name"`
			Cuisine   string  `json:"cuisine"`
			Score     float64 `json:"score"`
			Nutrition struct {
				PerServing struct {
					Calories float64 `json:"calories"`
				} `json:"per_serving"`
			} `json:"nutrition"`
		} `json:"recommendations"`
	}
	decode(t, rr, &resp)
	require.Len(t, resp.Recommendations, 2)
	names := []string{resp.Recommendations[0].Name, resp.Recommendations[1].Name}
	assert.NotContains(t, names, "Pad Thai")
	assert.Equal(t, "Chicken Curry", resp.Recommendations[0].Name)
	assert.GreaterOrEqual(t, resp.Recommendations[0].Score, resp.Recommendations[1].Score)
	assert.Greater(t, resp.Recommendations[0].Nutrition.PerServing.Calories, 0.0)

	rr = env.do(t, http.MethodGet, "/api/v1/recommendations?limit=1", token, nil)
	jsonOK(t, rr)
	decode(t, rr, &resp)
	assert.Len(t, resp.Recommendations, 1)

	rr = env.do(t, http.MethodGet, "/api/v1/recommendations?limit=-1", token, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRecommendationsEmptyCatalog(t *testing.T) {
	env := setupRecommendationRouter(t, nil)
	token := env.token(t, uuid.New(), types.RoleUser)

	rr := env.do(t, http.MethodPut, "/api/v1/users/me/preferences", token, types.PreferencesRequest{})
	jsonOK(t, rr)

	rr = env.do(t, http.MethodGet, "/api/v1/recommendations", token, nil)
	jsonOK(t, rr)
	assert.JSONEq(t, `{"recommendations":[]}`, rr.Body.String())
}

func TestRecommendationErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"catalog unavailable", recommend.ErrCatalogUnavailable, http.StatusServiceUnavailable},
		{"missing profile", recommend.ErrProfileNotFound, http.StatusNotFound},
		{"unexpected", context.DeadlineExceeded, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupEnv(t)
			NewRecommendationHandler(stubRecommender{err: tt.err}, env.tokens, nil).RegisterRoutes(env.v1())

			rr := env.do(t, http.MethodGet, "/api/v1/recommendations", env.token(t, uuid.New(), types.RoleUser), nil)
			assert.Equal(t, tt.status, rr.Code)
		})
	}
}

func TestRecommendationsRateLimited(t *testing.T) {
	limiter := middleware.NewRateLimiter(&countingLimiter{limit: 1}, time.Minute)
	env := setupRecommendationRouter(t, limiter)
	token := env.token(t, uuid.New(), types.RoleUser)

	rr := env.do(t, http.MethodGet, "/api/v1/recommendations", token, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("X-RateLimit-Limit"))

	rr = env.do(t, http.MethodGet, "/api/v1/recommendations", token, nil)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
}
