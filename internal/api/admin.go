package api

import (
	"context"
	"errors"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"github.com/pageza/nutrimatch/backend/internal/loader"
	"github.com/pageza/nutrimatch/backend/internal/logging"
	"github.com/pageza/nutrimatch/backend/internal/middleware"
	"github.com/pageza/nutrimatch/backend/internal/service"
	"github.com/pageza/nutrimatch/backend/internal/types"
)

// Ingester runs loader batches
type Ingester interface {
	LoadBatch(ctx context.Context, src *loader.Source, queries []string) *loader.BatchResult
}

// AdminHandler exposes ingestion and the ingredient review queue to admins
type AdminHandler struct {
	ingester Ingester
	sources  map[string]*loader.Source
	catalog  service.ICatalogService
	tokens   middleware.TokenValidator
}

func NewAdminHandler(ingester Ingester, sources []*loader.Source, catalog service.ICatalogService, tokens middleware.TokenValidator) *AdminHandler {
	bySource := make(map[string]*loader.Source, len(sources))
	for _, s := range sources {
		bySource[s.Name()] = s
	}
	return &AdminHandler{ingester: ingester, sources: bySource, catalog: catalog, tokens: tokens}
}

func (h *AdminHandler) RegisterRoutes(router *gin.RouterGroup) {
	admin := router.Group("/admin", middleware.AuthMiddleware(h.tokens), middleware.AdminOnly())
	{
		admin.POST("/ingest", h.Ingest)
		admin.GET("/reviews", h.ListReviews)
		admin.POST("/reviews/:id/resolve", h.ResolveReview)
	}
}

func (h *AdminHandler) providers() []string {
	out := make([]string, 0, len(h.sources))
	for name := range h.sources {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (h *AdminHandler) Ingest(c *gin.Context) {
	var req types.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	src, ok := h.sources[req.Provider]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown provider", "providers": h.providers()})
		return
	}

	result := h.ingester.LoadBatch(c.Request.Context(), src, req.Queries)
	logging.Info().
		Str("provider", req.Provider).
		Int("successes", len(result.Successes)).
		Int("failures", len(result.Failures)).
		Str("admin", c.GetString(middleware.ContextUsername)).
		Msg("admin ingest finished")
	c.JSON(http.StatusOK, result)
}

func (h *AdminHandler) ListReviews(c *gin.Context) {
	items, err := h.catalog.PendingReviews(c.Request.Context())
	if err != nil {
		logging.Error().Err(err).Msg("failed to list reviews")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list reviews"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": items})
}

func (h *AdminHandler) ResolveReview(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req types.ResolveReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resolvedBy := c.GetString(middleware.ContextUsername)
	if resolvedBy == "" {
		if userID, ok := middleware.UserID(c); ok {
			resolvedBy = userID.String()
		}
	}

	item, err := h.catalog.ResolveReview(c.Request.Context(), id, req.Action, resolvedBy)
	switch {
	case errors.Is(err, service.ErrReviewNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "review item not found"})
		return
	case errors.Is(err, service.ErrReviewResolved):
		c.JSON(http.StatusConflict, gin.H{"error": "review item already resolved"})
		return
	case errors.Is(err, service.ErrInvalidReviewAction):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		logging.Error().Err(err).Uint("review_id", id).Msg("failed to resolve review")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve review"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"review": item})
}
