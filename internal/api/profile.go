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
	"github.com/pageza/nutrimatch/backend/internal/service"
	"github.com/pageza/nutrimatch/backend/internal/types"
)

// ProfileHandler serves the authenticated user's preferences and saved recipes
type ProfileHandler struct {
	preferences service.IPreferenceService
	favorites   service.IFavoriteService
	tokens      middleware.TokenValidator
}

func NewProfileHandler(preferences service.IPreferenceService, favorites service.IFavoriteService, tokens middleware.TokenValidator) *ProfileHandler {
	return &ProfileHandler{preferences: preferences, favorites: favorites, tokens: tokens}
}

func (h *ProfileHandler) RegisterRoutes(router *gin.RouterGroup) {
	me := router.Group("/users/me", middleware.AuthMiddleware(h.tokens))
	{
		me.GET("/preferences", h.GetPreferences)
		me.PUT("/preferences", h.ReplacePreferences)
		me.GET("/favorites", h.ListFavorites)
		me.POST("/favorites/:recipe_id", h.AddFavorite)
		me.DELETE("/favorites/:recipe_id", h.RemoveFavorite)
	}
}

func (h *ProfileHandler) GetPreferences(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	profile, err := h.preferences.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, recommend.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "set your preferences first"})
			return
		}
		logging.Error().Err(err).Str("user_id", userID.String()).Msg("failed to load preferences")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load preferences"})
		return
	}
	c.JSON(http.StatusOK, types.PreferencesResponse{Preferences: profile})
}

func (h *ProfileHandler) ReplacePreferences(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req types.PreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := h.preferences.ReplaceProfile(c.Request.Context(), userID, &req)
	if err != nil {
		var invalid *service.PreferencesError
		if errors.As(err, &invalid) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":    err.Error(),
				"problems": invalid.Problems,
				"allowed": gin.H{
					"dietary_restrictions": invalid.Restrictions,
					"allergies":            invalid.Allergens,
					"food_flag_opt_outs":   invalid.FoodFlags,
				},
			})
			return
		}
		if errors.Is(err, service.ErrInvalidPreferences) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logging.Error().Err(err).Str("user_id", userID.String()).Msg("failed to save preferences")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save preferences"})
		return
	}
	c.JSON(http.StatusOK, types.PreferencesResponse{Preferences: profile})
}

func (h *ProfileHandler) ListFavorites(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	recipes, err := h.favorites.ListFavorites(c.Request.Context(), userID)
	if err != nil {
		logging.Error().Err(err).Str("user_id", userID.String()).Msg("failed to list favorites")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list favorites"})
		return
	}
	out := make([]types.RecipeResponse, 0, len(recipes))
	for i := range recipes {
		out = append(out, types.NewRecipeResponse(&recipes[i]))
	}
	c.JSON(http.StatusOK, gin.H{"recipes": out})
}

func (h *ProfileHandler) AddFavorite(c *gin.Context) {
	h.changeFavorite(c, h.favorites.AddFavorite, http.StatusCreated)
}

func (h *ProfileHandler) RemoveFavorite(c *gin.Context) {
	h.changeFavorite(c, h.favorites.RemoveFavorite, http.StatusOK)
}

func (h *ProfileHandler) changeFavorite(c *gin.Context, change func(ctx context.Context, userID uuid.UUID, recipeID uint) error, status int) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	recipeID, ok := uintParam(c, "recipe_id")
	if !ok {
		return
	}
	if err := change(c.Request.Context(), userID, recipeID); err != nil {
		if errors.Is(err, service.ErrRecipeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
			return
		}
		logging.Error().Err(err).Uint("recipe_id", recipeID).Msg("failed to update favorites")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update favorites"})
		return
	}
	c.JSON(status, gin.H{"recipe_id": recipeID})
}
