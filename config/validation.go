package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every problem found by ValidateConfig
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Error()
	}
	return strings.Join(msgs, "\n")
}

// ValidateConfig checks if the configuration meets the requirements for its environment
func ValidateConfig(cfg *Config) error {
	var errs ValidationErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if _, err := strconv.Atoi(cfg.ServerPort); err != nil {
		add("SERVER_PORT", "must be a number, got %q", cfg.ServerPort)
	}

	// Sensitive values come from Docker secrets outside CI
	source := func(secret, envVar string) string {
		if cfg.Environment.IsCI() {
			return envVar + " environment variable"
		}
		return secret + " secret"
	}

	if cfg.JWTSecret == "" {
		add("JWT_SECRET", "%s is required", source("jwt_secret", "JWT_SECRET"))
	}

	switch cfg.DBDriver {
	case "postgres":
		if cfg.DBHost == "" {
			add("DB_HOST", "is required")
		}
		if _, err := strconv.Atoi(cfg.DBPort); err != nil {
			add("DB_PORT", "must be a number, got %q", cfg.DBPort)
		}
		if cfg.DBName == "" {
			add("DB_NAME", "is required")
		}
		if cfg.DBPassword == "" && !cfg.Environment.IsDevelopment() {
			add("DB_PASSWORD", "%s is required", source("db_password", "DB_PASSWORD"))
		}
	case "sqlite":
		if cfg.Environment.IsProduction() {
			add("DB_DRIVER", "sqlite is not supported in production")
		}
		if cfg.SQLitePath == "" {
			add("SQLITE_PATH", "is required")
		}
	default:
		add("DB_DRIVER", "must be postgres or sqlite, got %q", cfg.DBDriver)
	}

	if cfg.RateLimitRequests <= 0 {
		add("RATE_LIMIT_REQUESTS", "must be positive")
	}
	if cfg.RateLimitWindow <= 0 {
		add("RATE_LIMIT_WINDOW", "must be positive")
	}

	switch strings.ToLower(cfg.Log.Format) {
	case "json", "console":
	default:
		add("LOG_FORMAT", "must be json or console, got %q", cfg.Log.Format)
	}

	if cfg.Loader.Concurrency < 1 {
		add("LOADER_CONCURRENCY", "must be at least 1")
	}
	if cfg.Loader.MaxRetries < 0 {
		add("LOADER_MAX_RETRIES", "must not be negative")
	}
	if cfg.Loader.RequestTimeout <= 0 {
		add("LOADER_REQUEST_TIMEOUT", "must be positive")
	}

	for prefix, p := range map[string]ProviderConfig{"USDA": cfg.USDA, "EDAMAM": cfg.Edamam, "OFF": cfg.OpenFoodFacts} {
		if p.RequestsPerSecond <= 0 {
			add(prefix+"_REQUESTS_PER_SECOND", "must be positive")
		}
		if p.DailyQuota < 0 {
			add(prefix+"_DAILY_QUOTA", "must not be negative")
		}
	}

	for name, w := range map[string]float64{
		"RECOMMEND_CUISINE_MATCH_WEIGHT":  cfg.Recommend.CuisineMatch,
		"RECOMMEND_FOOD_FLAG_PENALTY":     cfg.Recommend.FoodFlagPenalty,
		"RECOMMEND_NUTRITION_GOAL_WEIGHT": cfg.Recommend.NutritionGoal,
	} {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			add(name, "must be a non-negative number")
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
