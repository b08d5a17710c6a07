package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/nutrimatch/backend/internal/logging"
	"github.com/pageza/nutrimatch/backend/internal/service"
)

type IngredientHandler struct {
	catalog service.ICatalogService
}

func NewIngredientHandler(catalog service.ICatalogService) *IngredientHandler {
	return &IngredientHandler{catalog: catalog}
}

func (h *IngredientHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/ingredients/search", h.Search)
}

// Search matches ?query= against ingredient names; ?limit= caps the result.
func (h *IngredientHandler) Search(c *gin.Context) {
	limit, ok := intQuery(c, "limit")
	if !ok {
		return
	}
	query := c.Query("query")

	ingredients, err := h.catalog.SearchIngredients(c.Request.Context(), query, limit)
	if err != nil {
		if errors.Is(err, service.ErrEmptySearch) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
			return
		}
		logging.Error().Err(err).Str("query", query).Msg("failed to search ingredients")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to search ingredients"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ingredients": ingredients})
}
