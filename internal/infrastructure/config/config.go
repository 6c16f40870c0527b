package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// loaded from environment variables, no magic defaults for required fields.
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Tracker  TrackerConfig
}

// DatabaseConfig contains database connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	Schema   string
}

// RedisConfig contains cache connection parameters.
type RedisConfig struct {
	// URL is a full redis connection url, e.g. redis://localhost:6379/0.
	// empty disables the cache; postgres remains the source of truth.
	URL string
}

// AuthConfig contains authentication configuration.
type AuthConfig struct {
	// JWTSecret signs and validates admin tokens for recompute endpoints
	JWTSecret string
}

// SchemeConfig is one rotation scheme declaration: a name and the civil
// timestamp of its anchor boundary, interpreted in the tracker timezone.
type SchemeConfig struct {
	Name   string
	Anchor string
}

// TrackerConfig contains the activity tracking parameters.
type TrackerConfig struct {
	// Timezone is the IANA zone all civil-time bucketing runs in.
	Timezone string

	// Schemes are the rotation schemes to track, parsed from
	// SCHEMES="weekly=2026-01-09T12:00:00,contest=2026-02-01T00:00:00".
	Schemes []SchemeConfig

	// RecomputeCron is the cron expression driving the batch pipeline.
	RecomputeCron string
}

// ConnectionString returns the postgres connection string.
func (c DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&search_path=%s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
		c.SSLMode,
		c.Schema,
	)
}

// Load reads configuration from environment variables.
// loads .env file if present, but doesn't fail if it's missing.
func Load() (*Config, error) {
	// try to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	dbConfig, err := loadDatabaseConfig()
	if err != nil {
		return nil, fmt.Errorf("database config: %w", err)
	}

	authConfig, err := loadAuthConfig()
	if err != nil {
		return nil, fmt.Errorf("auth config: %w", err)
	}

	trackerConfig, err := loadTrackerConfig()
	if err != nil {
		return nil, fmt.Errorf("tracker config: %w", err)
	}

	return &Config{
		Database: dbConfig,
		Redis:    RedisConfig{URL: os.Getenv("REDIS_URL")},
		Auth:     authConfig,
		Tracker:  trackerConfig,
	}, nil
}

func loadAuthConfig() (AuthConfig, error) {
	config := AuthConfig{
		JWTSecret: os.Getenv("JWT_SECRET"),
	}

	if config.JWTSecret == "" {
		return config, errors.New("JWT_SECRET is required")
	}

	return config, nil
}

func loadDatabaseConfig() (DatabaseConfig, error) {
	config := DatabaseConfig{
		Host:     getEnvOrDefault("DB_HOST", "localhost"),
		Port:     getEnvOrDefault("DB_PORT", "5432"),
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		Name:     os.Getenv("DB_NAME"),
		SSLMode:  getEnvOrDefault("DB_SSL_MODE", "require"),
		Schema:   getEnvOrDefault("DB_SCHEMA", "tidemark"),
	}

	// required fields must be set
	if config.User == "" {
		return config, errors.New("DB_USER is required")
	}
	if config.Password == "" {
		return config, errors.New("DB_PASSWORD is required")
	}
	if config.Name == "" {
		return config, errors.New("DB_NAME is required")
	}

	return config, nil
}

func loadTrackerConfig() (TrackerConfig, error) {
	config := TrackerConfig{
		Timezone:      getEnvOrDefault("TRACKER_TIMEZONE", "America/New_York"),
		RecomputeCron: getEnvOrDefault("RECOMPUTE_CRON", "*/15 * * * *"),
	}

	schemes, err := ParseSchemes(os.Getenv("SCHEMES"))
	if err != nil {
		return config, err
	}
	if len(schemes) == 0 {
		return config, errors.New("SCHEMES is required, e.g. weekly=2026-01-09T12:00:00")
	}
	config.Schemes = schemes

	return config, nil
}

// ParseSchemes parses a comma separated list of name=anchor pairs.
func ParseSchemes(raw string) ([]SchemeConfig, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var schemes []SchemeConfig
	seen := make(map[string]bool)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, anchor, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		anchor = strings.TrimSpace(anchor)
		if !ok || name == "" || anchor == "" {
			return nil, fmt.Errorf("malformed scheme %q, want name=anchor", pair)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate scheme %q", name)
		}
		seen[name] = true
		schemes = append(schemes, SchemeConfig{Name: name, Anchor: anchor})
	}
	return schemes, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
