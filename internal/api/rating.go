package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/nutrimatch/backend/internal/logging"
	"github.com/pageza/nutrimatch/backend/internal/middleware"
	"github.com/pageza/nutrimatch/backend/internal/service"
	"github.com/pageza/nutrimatch/backend/internal/types"
)

// RatingHandler lets users rate recipes and exposes the aggregate
type RatingHandler struct {
	ratings service.IRatingService
	tokens  middleware.TokenValidator
}

func NewRatingHandler(ratings service.IRatingService, tokens middleware.TokenValidator) *RatingHandler {
	return &RatingHandler{ratings: ratings, tokens: tokens}
}

func (h *RatingHandler) RegisterRoutes(router *gin.RouterGroup) {
	recipes := router.Group("/recipes")
	{
		recipes.GET("/:id/ratings", h.Summary)
		recipes.POST("/:id/rate", middleware.AuthMiddleware(h.tokens), h.RateRecipe)
	}
}

func (h *RatingHandler) RateRecipe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	recipeID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req types.RateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rating, err := h.ratings.RateRecipe(c.Request.Context(), userID, recipeID, *req.Rating, req.Comment)
	switch {
	case errors.Is(err, service.ErrInvalidRating):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	case errors.Is(err, service.ErrRecipeNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
		return
	case err != nil:
		logging.Error().Err(err).Uint("recipe_id", recipeID).Msg("failed to rate recipe")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to rate recipe"})
		return
	}

	summary, err := h.ratings.Summary(c.Request.Context(), recipeID)
	if err != nil {
		logging.Error().Err(err).Uint("recipe_id", recipeID).Msg("failed to summarize ratings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to summarize ratings"})
		return
	}
	c.JSON(http.StatusOK, types.RatingResponse{Rating: rating, Summary: summary})
}

func (h *RatingHandler) Summary(c *gin.Context) {
	recipeID, ok := uintParam(c, "id")
	if !ok {
		return
	}
	summary, err := h.ratings.Summary(c.Request.Context(), recipeID)
	if err != nil {
		logging.Error().Err(err).Uint("recipe_id", recipeID).Msg("failed to summarize ratings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to summarize ratings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ratings": summary})
}
