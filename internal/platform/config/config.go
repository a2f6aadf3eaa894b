package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL    string
	IsProduction   bool
	EnableDBCheck  bool
	LogLevel       string
	MigrationsPath string

	// Exchange rate cache
	RateCacheTTL     time.Duration
	RateCacheCleanup time.Duration

	AccountPathSeparator string
	DefaultPageSize      int
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MIGRATIONS_PATH", "file://migrations")
	viper.SetDefault("RATE_CACHE_TTL", "10m")
	viper.SetDefault("RATE_CACHE_CLEANUP", "30m")
	viper.SetDefault("ACCOUNT_PATH_SEPARATOR", ":")
	viper.SetDefault("DEFAULT_PAGE_SIZE", 20)

	// Values from .env can then be overridden by actual environment variables.
	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.RateCacheTTL = durationOrDefault("RATE_CACHE_TTL", 10*time.Minute)
	cfg.RateCacheCleanup = durationOrDefault("RATE_CACHE_CLEANUP", 30*time.Minute)

	cfg.AccountPathSeparator = viper.GetString("ACCOUNT_PATH_SEPARATOR")
	if len(cfg.AccountPathSeparator) != 1 {
		log.Printf("Warning: ACCOUNT_PATH_SEPARATOR must be a single character, got '%s'. Defaulting to ':'.\n", cfg.AccountPathSeparator)
		cfg.AccountPathSeparator = ":"
	}

	cfg.DefaultPageSize = viper.GetInt("DEFAULT_PAGE_SIZE")
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 20
	}

	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")
	cfg.LogLevel = viper.GetString("LOG_LEVEL")
	cfg.MigrationsPath = viper.GetString("MIGRATIONS_PATH")

	return cfg, nil
}

func durationOrDefault(key string, def time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, def.String())
		}
		return def
	}
	return d
}
