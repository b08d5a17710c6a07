package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pageza/nutrimatch/backend/internal/logging"
	"github.com/pageza/nutrimatch/backend/internal/middleware"
	"github.com/pageza/nutrimatch/backend/internal/recommend"
	"github.com/pageza/nutrimatch/backend/internal/types"
)

// Recommender produces ranked recipes for a user
type Recommender interface {
	Recommend(ctx context.Context, userID uuid.UUID, limit int) ([]recommend.Scored, error)
}

type RecommendationHandler struct {
	engine  Recommender
	tokens  middleware.TokenValidator
	limiter *middleware.RateLimiter
}

// NewRecommendationHandler creates the handler. limiter may be nil.
func NewRecommendationHandler(engine Recommender, tokens middleware.TokenValidator, limiter *middleware.RateLimiter) *RecommendationHandler {
	return &RecommendationHandler{engine: engine, tokens: tokens, limiter: limiter}
}

func (h *RecommendationHandler) RegisterRoutes(router *gin.RouterGroup) {
	handlers := []gin.HandlerFunc{middleware.AuthMiddleware(h.tokens)}
	if h.limiter != nil {
		handlers = append(handlers, h.limiter.RateLimitMiddleware())
	}
	handlers = append(handlers, h.GetRecommendations)
	router.GET("/recommendations", handlers...)
}

func (h *RecommendationHandler) GetRecommendations(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	limit, ok := intQuery(c, "limit")
	if !ok {
		return
	}

	ranked, err := h.engine.Recommend(c.Request.Context(), userID, limit)
	switch {
	case errors.Is(err, recommend.ErrProfileNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "set your preferences first"})
		return
	case errors.Is(err, recommend.ErrCatalogUnavailable):
		logging.Error().Err(err).Str("user_id", userID.String()).Msg("recommendation catalog unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "recipe catalog unavailable"})
		return
	case err != nil:
		logging.Error().Err(err).Str("user_id", userID.String()).Msg("recommendation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute recommendations"})
		return
	}

	resp := types.RecommendationResponse{Recommendations: make([]types.ScoredRecipe, 0, len(ranked))}
	for _, s := range ranked {
		resp.Recommendations = append(resp.Recommendations, types.ScoredRecipe{
			RecipeResponse: types.RecipeResponse{Recipe: s.Recipe, Nutrition: s.Nutrition},
			Score:          s.Score,
		})
	}
	c.JSON(http.StatusOK, resp)
}
