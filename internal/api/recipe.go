package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/nutrimatch/backend/internal/logging"
	"github.com/pageza/nutrimatch/backend/internal/service"
	"github.com/pageza/nutrimatch/backend/internal/types"
)

type RecipeHandler struct {
	catalog service.ICatalogService
}

func NewRecipeHandler(catalog service.ICatalogService) *RecipeHandler {
	return &RecipeHandler{catalog: catalog}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	recipes := router.Group("/recipes")
	{
		recipes.GET("", h.ListRecipes)
		recipes.GET("/:id", h.GetRecipe)
		recipes.GET("/:id/similar", h.SimilarRecipes)
	}
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	page, ok := intQuery(c, "page")
	if !ok {
		return
	}
	pageSize, ok := intQuery(c, "page_size")
	if !ok {
		return
	}
	filter := service.RecipeFilter{Cuisine: c.Query("cuisine"), Page: page, PageSize: pageSize}.Normalized()

	recipes, total, err := h.catalog.ListRecipePage(c.Request.Context(), filter)
	if err != nil {
		logging.Error().Err(err).Msg("failed to list recipes")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list recipes"})
		return
	}

	resp := types.RecipeListResponse{
		Recipes:  make([]types.RecipeResponse, 0, len(recipes)),
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}
	for i := range recipes {
		resp.Recipes = append(resp.Recipes, types.NewRecipeResponse(&recipes[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	recipe, err := h.catalog.GetRecipe(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrRecipeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
			return
		}
		logging.Error().Err(err).Uint("recipe_id", id).Msg("failed to load recipe")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load recipe"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipe": types.NewRecipeResponse(recipe)})
}

func (h *RecipeHandler) SimilarRecipes(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	limit, ok := intQuery(c, "limit")
	if !ok {
		return
	}

	similar, err := h.catalog.SimilarRecipes(c.Request.Context(), id, limit)
	if err != nil {
		if errors.Is(err, service.ErrRecipeNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
			return
		}
		logging.Error().Err(err).Uint("recipe_id", id).Msg("failed to find similar recipes")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to find similar recipes"})
		return
	}

	out := make([]types.SimilarRecipe, 0, len(similar))
	for _, s := range similar {
		out = append(out, types.SimilarRecipe{
			RecipeResponse: types.NewRecipeResponse(s.Recipe),
			Similarity:     s.Similarity,
		})
	}
	c.JSON(http.StatusOK, gin.H{"recipes": out})
}
