package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all configuration for the application
type Config struct {
	Environment Environment

	// Server configuration
	ServerHost  string   `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	ServerPort  string   `env:"SERVER_PORT" envDefault:"8080"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`

	// Database configuration. DBDriver is postgres or sqlite.
	DBDriver      string `env:"DB_DRIVER" envDefault:"postgres"`
	DBHost        string `env:"DB_HOST" envDefault:"localhost"`
	DBPort        string `env:"DB_PORT" envDefault:"5432"`
	DBUser        string `env:"DB_USER" envDefault:"postgres"`
	DBPassword    string `env:"DB_PASSWORD"`
	DBName        string `env:"DB_NAME" envDefault:"nutrimatch"`
	DBSSLMode     string `env:"DB_SSL_MODE" envDefault:"disable"`
	SQLitePath    string `env:"SQLITE_PATH" envDefault:"nutrimatch.db"`
	MigrationsDir string `env:"MIGRATIONS_DIR" envDefault:"migrations"`

	// Redis configuration
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     string `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisURL      string `env:"REDIS_URL"`

	// JWT configuration
	JWTSecret string        `env:"JWT_SECRET"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"24h"`

	// Fixed-window limit on /recommendations per user
	RateLimitRequests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"60"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`

	Log       LogConfig       `envPrefix:"LOG_"`
	Loader    LoaderConfig    `envPrefix:"LOADER_"`
	Recommend RecommendConfig `envPrefix:"RECOMMEND_"`
	Archive   ArchiveConfig   `envPrefix:"ARCHIVE_"`

	USDA          ProviderConfig `envPrefix:"USDA_"`
	Edamam        ProviderConfig `envPrefix:"EDAMAM_"`
	OpenFoodFacts ProviderConfig `envPrefix:"OFF_"`
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
}

// LoaderConfig tunes ingestion batches.
type LoaderConfig struct {
	Concurrency    int           `env:"CONCURRENCY" envDefault:"4"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	MaxRetries     int           `env:"MAX_RETRIES" envDefault:"3"`
	RetryBaseDelay time.Duration `env:"RETRY_BASE_DELAY" envDefault:"1s"`
	MaxRetryDelay  time.Duration `env:"MAX_RETRY_DELAY" envDefault:"30s"`
}

// ProviderConfig configures one external food database.
type ProviderConfig struct {
	BaseURL           string  `env:"BASE_URL"`
	AppID             string  `env:"APP_ID"`
	APIKey            string  `env:"API_KEY"`
	RequestsPerSecond float64 `env:"REQUESTS_PER_SECOND" envDefault:"2"`
	Burst             int     `env:"BURST" envDefault:"1"`
	// DailyQuota caps calls per UTC day; 0 disables the quota.
	DailyQuota    int64 `env:"DAILY_QUOTA" envDefault:"0"`
	Authoritative bool  `env:"AUTHORITATIVE"`
}

// RecommendConfig holds the recommendation scoring weights.
type RecommendConfig struct {
	CuisineMatch    float64 `env:"CUISINE_MATCH_WEIGHT" envDefault:"1.0"`
	FoodFlagPenalty float64 `env:"FOOD_FLAG_PENALTY" envDefault:"0.5"`
	NutritionGoal   float64 `env:"NUTRITION_GOAL_WEIGHT" envDefault:"1.0"`
}

// ArchiveConfig enables raw payload archiving when Bucket is set.
type ArchiveConfig struct {
	Bucket   string `env:"BUCKET"`
	Prefix   string `env:"PREFIX" envDefault:"raw"`
	Region   string `env:"REGION"`
	Endpoint string `env:"ENDPOINT"`
}

// Default provider endpoints.
const (
	DefaultUSDABaseURL          = "https://api.nal.usda.gov"
	DefaultEdamamBaseURL        = "https://api.edamam.com"
	DefaultOpenFoodFactsBaseURL = "https://world.openfoodfacts.org"
)

// secretFields maps Docker secret file names onto sensitive values.
var secretFields = map[string]func(*Config) *string{
	"db_user":        func(c *Config) *string { return &c.DBUser },
	"db_password":    func(c *Config) *string { return &c.DBPassword },
	"jwt_secret":     func(c *Config) *string { return &c.JWTSecret },
	"redis_password": func(c *Config) *string { return &c.RedisPassword },
	"redis_url":      func(c *Config) *string { return &c.RedisURL },
	"usda_api_key":   func(c *Config) *string { return &c.USDA.APIKey },
	"edamam_app_id":  func(c *Config) *string { return &c.Edamam.AppID },
	"edamam_app_key": func(c *Config) *string { return &c.Edamam.APIKey },
}

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}

	// Validate the configuration
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func load() (*Config, error) {
	cfg := &Config{Environment: GetEnvironment()}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	switch cfg.Environment {
	case CI:
		loadCIConfig(cfg)
	case Development, Test, Production:
		loadSecrets(cfg)
	default:
		return nil, fmt.Errorf("unknown environment: %s", cfg.Environment)
	}

	applyProviderDefaults(cfg)
	return cfg, nil
}

// loadCIConfig fills sensitive values from the CI secret variables when the plain ones are unset
func loadCIConfig(cfg *Config) {
	fallback := map[*string]string{
		&cfg.DBPassword:    "TEST_DB_PASSWORD",
		&cfg.JWTSecret:     "TEST_JWT_SECRET",
		&cfg.RedisPassword: "TEST_REDIS_PASSWORD",
		&cfg.RedisURL:      "TEST_REDIS_URL",
	}
	for field, name := range fallback {
		if *field == "" {
			*field = os.Getenv(name)
		}
	}
}

// loadSecrets overlays Docker secrets on top of environment values
func loadSecrets(cfg *Config) {
	for name, field := range secretFields {
		if v := readSecret(name); v != "" {
			*field(cfg) = v
		}
	}
}

func applyProviderDefaults(cfg *Config) {
	if cfg.USDA.BaseURL == "" {
		cfg.USDA.BaseURL = DefaultUSDABaseURL
	}
	if cfg.Edamam.BaseURL == "" {
		cfg.Edamam.BaseURL = DefaultEdamamBaseURL
	}
	if cfg.OpenFoodFacts.BaseURL == "" {
		cfg.OpenFoodFacts.BaseURL = DefaultOpenFoodFactsBaseURL
	}
}

// secretsDir returns the Docker secrets directory
func secretsDir() string {
	if dir := os.Getenv("SECRETS_DIR"); dir != "" {
		return dir
	}
	return "/run/secrets"
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	if data, err := os.ReadFile(filepath.Join(secretsDir(), name)); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

// DatabaseDSN returns the Postgres connection string
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// Addr returns the HTTP listen address
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}
