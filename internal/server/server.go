package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/pageza/nutrimatch/backend/config"
	"github.com/pageza/nutrimatch/backend/internal/api"
	"github.com/pageza/nutrimatch/backend/internal/database"
	"github.com/pageza/nutrimatch/backend/internal/loader"
	"github.com/pageza/nutrimatch/backend/internal/logging"
	"github.com/pageza/nutrimatch/backend/internal/middleware"
	"github.com/pageza/nutrimatch/backend/internal/quota"
	"github.com/pageza/nutrimatch/backend/internal/recommend"
	"github.com/pageza/nutrimatch/backend/internal/router"
	"github.com/pageza/nutrimatch/backend/internal/service"
)

// Server represents the HTTP server
type Server struct {
	router *gin.Engine
	http   *http.Server
	db     *gorm.DB
	redis  *redis.Client
}

// Deps are the connections a server is built on. Redis and Archive are optional.
type Deps struct {
	DB      *gorm.DB
	Redis   *redis.Client
	Archive loader.Archiver
}

// Open connects to the database, applies migrations, connects to redis when reachable and
// builds the server.
func Open(ctx context.Context, cfg *config.Config) (*Server, error) {
	gin.SetMode(GinMode(cfg.Environment))
	deps, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	srv, err := New(cfg, deps)
	if err != nil {
		closeDeps(deps)
		return nil, err
	}
	return srv, nil
}

// Connect opens the shared connections used by the server and the loader CLI.
func Connect(ctx context.Context, cfg *config.Config) (Deps, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return Deps{}, err
	}
	if err := database.RunMigrations(db, cfg.MigrationsDir); err != nil {
		closeDeps(Deps{DB: db})
		return Deps{}, fmt.Errorf("failed to run migrations: %w", err)
	}
	deps := Deps{DB: db}

	if rdb, err := database.NewRedisClient(cfg); err != nil {
		logging.Warn().Err(err).Msg("redis unavailable, rate limits and provider quotas disabled")
	} else {
		deps.Redis = rdb
	}

	if cfg.Archive.Bucket != "" {
		s3cfg, err := config.NewS3Config(ctx, cfg.Archive)
		if err != nil {
			closeDeps(deps)
			return Deps{}, fmt.Errorf("failed to configure payload archive: %w", err)
		}
		deps.Archive = service.NewArchiveService(s3cfg)
		logging.Info().Str("bucket", cfg.Archive.Bucket).Msg("archiving raw provider payloads")
	}
	return deps, nil
}

// New wires services and handlers on top of deps.
func New(cfg *config.Config, deps Deps) (*Server, error) {
	catalog := service.NewCatalogService(deps.DB)
	preferences := service.NewPreferenceService(deps.DB, nil)
	favorites := service.NewFavoriteService(deps.DB)
	ratings := service.NewRatingService(deps.DB)
	tokens := service.NewTokenService(cfg.JWTSecret, cfg.JWTTTL)

	engine, err := recommend.NewEngine(preferences, catalog, recommend.WithWeights(Weights(cfg)))
	if err != nil {
		return nil, fmt.Errorf("failed to build recommendation engine: %w", err)
	}
	w := engine.Weights()
	logging.Info().
		Float64("cuisine_match", w.CuisineMatch).
		Float64("food_flag_penalty", w.FoodFlagPenalty).
		Float64("nutrition_goal", w.NutritionGoal).
		Msg("recommendation weights")

	var limiter *middleware.RateLimiter
	if deps.Redis != nil && cfg.RateLimitRequests > 0 {
		window := quota.NewWindow(deps.Redis, quota.Config{
			Window:    cfg.RateLimitWindow,
			Limit:     int64(cfg.RateLimitRequests),
			KeyPrefix: "ratelimit:recommendations",
		})
		limiter = middleware.NewRateLimiter(window, cfg.RateLimitWindow)
	}

	sources := Sources(cfg, deps.Redis)
	ingester := NewLoader(cfg, catalog, deps.Archive)

	handlers := router.Handlers{
		Health:          api.NewHealthHandler(deps.DB),
		Recipes:         api.NewRecipeHandler(catalog),
		Ratings:         api.NewRatingHandler(ratings, tokens),
		Ingredients:     api.NewIngredientHandler(catalog),
		Profile:         api.NewProfileHandler(preferences, favorites, tokens),
		Recommendations: api.NewRecommendationHandler(engine, tokens, limiter),
	}
	if len(sources) > 0 {
		handlers.Admin = api.NewAdminHandler(ingester, sources, catalog, tokens)
	}

	r := router.SetupRouter(handlers, cfg.CORSOrigins)
	return &Server{
		router: r,
		http: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		},
		db:    deps.DB,
		redis: deps.Redis,
	}, nil
}

// GinMode picks the gin mode for env.
func GinMode(env config.Environment) string {
	switch {
	case env.IsProduction():
		return gin.ReleaseMode
	case env.IsTest(), env.IsCI():
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}

// Weights converts the configured scoring weights.
func Weights(cfg *config.Config) recommend.Weights {
	return recommend.Weights{
		CuisineMatch:    cfg.Recommend.CuisineMatch,
		FoodFlagPenalty: cfg.Recommend.FoodFlagPenalty,
		NutritionGoal:   cfg.Recommend.NutritionGoal,
	}
}

// NewLoader builds the ingestion loader for catalog.
func NewLoader(cfg *config.Config, catalog loader.Catalog, archive loader.Archiver) *loader.Loader {
	opts := []loader.Option{loader.WithConcurrency(cfg.Loader.Concurrency)}
	if archive != nil {
		opts = append(opts, loader.WithArchive(archive))
	}
	return loader.New(catalog, opts...)
}

// Sources builds one loader source per configured provider. USDA needs an API key and Edamam
// an app id and key; Open Food Facts is always available. Daily quotas need redis.
func Sources(cfg *config.Config, rdb *redis.Client) []*loader.Source {
	client := &http.Client{Timeout: cfg.Loader.RequestTimeout}

	var sources []*loader.Source
	add := func(p loader.Provider, pc config.ProviderConfig) {
		sc := loader.SourceConfig{
			Authoritative:     pc.Authoritative,
			RequestsPerSecond: pc.RequestsPerSecond,
			Burst:             pc.Burst,
			MaxRetries:        cfg.Loader.MaxRetries,
			RetryBaseDelay:    cfg.Loader.RetryBaseDelay,
			MaxRetryDelay:     cfg.Loader.MaxRetryDelay,
		}
		var opts []loader.SourceOption
		if rdb != nil && pc.DailyQuota > 0 {
			opts = append(opts, loader.WithQuota(quota.NewDaily(rdb, pc.DailyQuota)))
		}
		sources = append(sources, loader.NewSource(p, sc, opts...))
	}

	if cfg.USDA.APIKey != "" {
		add(loader.NewUSDAProvider(cfg.USDA.BaseURL, cfg.USDA.APIKey, client), cfg.USDA)
	}
	if cfg.Edamam.AppID != "" && cfg.Edamam.APIKey != "" {
		add(loader.NewEdamamProvider(cfg.Edamam.BaseURL, cfg.Edamam.AppID, cfg.Edamam.APIKey, client), cfg.Edamam)
	}
	add(loader.NewOpenFoodFactsProvider(cfg.OpenFoodFacts.BaseURL, client), cfg.OpenFoodFacts)

	for _, s := range sources {
		logging.Info().Str("provider", s.Name()).Bool("authoritative", s.Authoritative).Msg("provider enabled")
	}
	return sources
}

// Router exposes the gin engine, mostly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start serves HTTP until Shutdown is called.
func (s *Server) Start() error {
	logging.Info().Str("addr", s.http.Addr).Msg("starting server")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server and closes connections
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)
	closeDeps(Deps{DB: s.db, Redis: s.redis})
	return err
}

func closeDeps(deps Deps) {
	if deps.Redis != nil {
		if err := deps.Redis.Close(); err != nil {
			logging.Warn().Err(err).Msg("failed to close redis")
		}
	}
	if deps.DB != nil {
		if sqlDB, err := deps.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				logging.Warn().Err(err).Msg("failed to close database")
			}
		}
	}
}
