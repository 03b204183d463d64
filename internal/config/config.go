package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all engine configuration.
type Config struct {
	API    APIConfig
	Cart   CartConfig
	Logger LoggerConfig
}

// APIConfig holds storefront API connection configuration.
type APIConfig struct {
	BaseURL      string
	Token        string
	Timeout      time.Duration
	FetchRetries int
}

// CartConfig holds cart engine tuning.
type CartConfig struct {
	RefreshWindow time.Duration
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		API: APIConfig{
			BaseURL:      getEnv("CART_API_BASE_URL", ""),
			Token:        getEnv("CART_API_TOKEN", ""),
			Timeout:      time.Duration(getEnvAsInt("CART_API_TIMEOUT", 15)) * time.Second,
			FetchRetries: getEnvAsInt("CART_API_FETCH_RETRIES", 2),
		},
		Cart: CartConfig{
			RefreshWindow: time.Duration(getEnvAsInt("CART_REFRESH_WINDOW", 3)) * time.Second,
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("API base URL is required")
	}

	if c.API.Timeout < time.Second {
		return fmt.Errorf("API timeout must be at least 1 second")
	}

	if c.API.FetchRetries < 0 {
		return fmt.Errorf("API fetch retries cannot be negative")
	}

	if c.Cart.RefreshWindow < time.Second {
		return fmt.Errorf("cart refresh window must be at least 1 second")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	return nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
