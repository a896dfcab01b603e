package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds all worker configuration, read once at process start.
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// Backing store (Supabase)
	SupabaseURL    string `validate:"required,url"`
	ServiceRoleKey string `validate:"required"`
	AnonKey        string
	DatabaseURL    string
	JWTSecret      string

	// Scheduled refresh
	RefreshSchedule string `validate:"required"`

	// HTTP behaviour
	RequestTimeout     time.Duration
	CORSOrigin         string
	RateLimitPerMinute int

	// Response cache
	CacheTTL        time.Duration
	CacheMaxEntries int `validate:"gt=0"`

	// Logging
	LogLevel string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: ":" + getEnv("PORT", "8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),

		SupabaseURL:    getEnv("SUPABASE_URL", ""),
		ServiceRoleKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
		AnonKey:        getEnv("SUPABASE_ANON_KEY", ""),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		JWTSecret:      getEnv("SUPABASE_JWT_SECRET", ""),

		RefreshSchedule: getEnv("REFRESH_CRON", "*/10 * * * *"),

		RequestTimeout:     getEnvMillis("REQUEST_TIMEOUT_MS", 15000),
		CORSOrigin:         getEnv("CORS_ORIGIN", "*"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 240),

		CacheTTL:        getEnvMillis("CACHE_TTL_MS", 30000),
		CacheMaxEntries: getEnvInt("CACHE_MAX_ENTRIES", 1024),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// StoreAPIKey returns the key sent as the PostgREST apikey header for
// caller-scoped queries. The anon key is preferred; the service-role key is
// only used when no anon key is configured.
func (c *Config) StoreAPIKey() string {
	if c.AnonKey != "" {
		return c.AnonKey
	}
	return c.ServiceRoleKey
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvMillis reads a millisecond-valued environment variable as a
// duration.
func getEnvMillis(key string, defaultMs int) time.Duration {
	return time.Duration(getEnvInt(key, defaultMs)) * time.Millisecond
}
