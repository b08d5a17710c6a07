package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pageza/nutrimatch/backend/internal/api"
	"github.com/pageza/nutrimatch/backend/internal/middleware"
)

// Handlers groups the API handlers mounted under /api/v1. Admin may be nil when no provider
// is configured.
type Handlers struct {
	Health          *api.HealthHandler
	Recipes         *api.RecipeHandler
	Ratings         *api.RatingHandler
	Ingredients     *api.IngredientHandler
	Profile         *api.ProfileHandler
	Recommendations *api.RecommendationHandler
	Admin           *api.AdminHandler
}

// SetupRouter configures the application routes
func SetupRouter(h Handlers, corsOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestLogger(), middleware.Recovery(), middleware.CORS(corsOrigins))

	metrics := gin.WrapH(promhttp.Handler())
	router.GET("/metrics", metrics)
	router.GET("/health", h.Health.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.GET("/metrics", metrics)
	h.Health.RegisterRoutes(v1)
	h.Recipes.RegisterRoutes(v1)
	h.Ratings.RegisterRoutes(v1)
	h.Ingredients.RegisterRoutes(v1)
	h.Profile.RegisterRoutes(v1)
	h.Recommendations.RegisterRoutes(v1)
	if h.Admin != nil {
		h.Admin.RegisterRoutes(v1)
	}

	return router
}
