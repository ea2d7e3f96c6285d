// Package config loads the API configuration from the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// DatabaseConfig describes one PostgreSQL endpoint.
type DatabaseConfig struct {
	Host     string
	Port     int
	Name     string
	User     string
	Password string
}

// DSN renders the config as a pgx connection string.
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.Name,
	}
	return u.String()
}

// PoolConfig tunes a connection pool.
type PoolConfig struct {
	MinConns         int
	MaxConns         int
	ConnectTimeout   time.Duration
	StatementTimeout time.Duration
}

// CacheConfig tunes the query result cache.
type CacheConfig struct {
	MaxSize int
	TTL     time.Duration
}

// Config holds all application configuration.
type Config struct {
	ServerAddress string
	Environment   string
	LogLevel      string

	CORSOrigins []string

	// ChainDB is the blockchain-index database; PricesDB is the
	// price-tracker database. Both are read through the same cache.
	ChainDB  DatabaseConfig
	PricesDB DatabaseConfig
	Pool     PoolConfig

	Cache CacheConfig

	SlowRequestThreshold time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8000"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),

		ChainDB: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			Name:     getEnv("DB_NAME", "kraxeldb"),
			User:     getEnv("DB_USER", "kraxeluser"),
			Password: getEnv("DB_PASSWORD", ""),
		},
		PricesDB: DatabaseConfig{
			Host:     getEnv("PRICES_DB_HOST", "localhost"),
			Port:     getEnvInt("PRICES_DB_PORT", 5432),
			Name:     getEnv("PRICES_DB_NAME", "defi_tracker_core"),
			User:     getEnv("PRICES_DB_USER", "defi_tracker_user"),
			Password: getEnv("PRICES_DB_PASSWORD", ""),
		},
		Pool: PoolConfig{
			MinConns:         getEnvInt("DB_MIN_CONNECTIONS", 5),
			MaxConns:         getEnvInt("DB_MAX_CONNECTIONS", 20),
			ConnectTimeout:   time.Duration(getEnvInt("DB_CONNECT_TIMEOUT_SECONDS", 5)) * time.Second,
			StatementTimeout: time.Duration(getEnvInt("DB_STATEMENT_TIMEOUT_MS", 30000)) * time.Millisecond,
		},

		Cache: CacheConfig{
			MaxSize: getEnvInt("CACHE_MAX_SIZE", 1000),
			TTL:     time.Duration(getEnvInt("CACHE_TTL_SECONDS", 60)) * time.Second,
		},

		SlowRequestThreshold: time.Duration(getEnvInt("SLOW_REQUEST_THRESHOLD_MS", 500)) * time.Millisecond,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.IsProduction() {
		if c.ChainDB.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required in production")
		}
		if c.PricesDB.Password == "" {
			return fmt.Errorf("PRICES_DB_PASSWORD is required in production")
		}
	}
	if c.Pool.MinConns > c.Pool.MaxConns {
		return fmt.Errorf("DB_MIN_CONNECTIONS (%d) exceeds DB_MAX_CONNECTIONS (%d)",
			c.Pool.MinConns, c.Pool.MaxConns)
	}
	if c.Cache.MaxSize <= 0 {
		return fmt.Errorf("CACHE_MAX_SIZE must be positive")
	}
	return nil
}

// IsDevelopment checks if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
