package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// ServerConfig is the deployment-provided process configuration.
type ServerConfig struct {
	Port     string
	AppEnv   string
	LogLevel slog.Level

	StorageBackend string
	DatabaseURL    string
	// Migrate applies embedded schema migrations at startup (postgres only).
	Migrate bool

	// SiteConfigPath is an optional YAML file overriding the built-in site settings.
	SiteConfigPath string
	// SiteRoot anchors the default static/template/media paths.
	SiteRoot string
	// FixturesPath is an optional YAML file used to seed the memory store.
	FixturesPath string

	ShutdownTimeout time.Duration
	// StatsTimeout bounds a single counter evaluation from the metrics endpoint.
	StatsTimeout time.Duration
}

func LoadServerConfigFromEnv() (ServerConfig, error) {
	cfg := ServerConfig{
		Port:            getenv("PORT", "8080"),
		AppEnv:          getenv("APP_ENV", "dev"),
		LogLevel:        slog.LevelInfo,
		StorageBackend:  getenv("STORAGE_BACKEND", StorageMemory),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		Migrate:         true,
		SiteConfigPath:  os.Getenv("SITE_CONFIG"),
		SiteRoot:        getenv("SITE_ROOT", "."),
		FixturesPath:    os.Getenv("TICKET_FIXTURES"),
		ShutdownTimeout: 10 * time.Second,
		StatsTimeout:    2 * time.Second,
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return ServerConfig{}, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error: %w", err)
		}
	}
	if v := os.Getenv("DB_MIGRATE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return ServerConfig{}, fmt.Errorf("DB_MIGRATE must be a boolean: %w", err)
		}
		cfg.Migrate = b
	}
	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return ServerConfig{}, fmt.Errorf("SHUTDOWN_TIMEOUT must be a duration (e.g. 10s): %w", err)
		}
		cfg.ShutdownTimeout = d
	}
	if v := os.Getenv("STATS_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return ServerConfig{}, fmt.Errorf("STATS_TIMEOUT must be a duration (e.g. 2s): %w", err)
		}
		cfg.StatsTimeout = d
	}

	if err := cfg.Validate(); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints. Flag overrides call it again.
func (c ServerConfig) Validate() error {
	switch c.StorageBackend {
	case StorageMemory:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE_BACKEND=%s", StoragePostgres)
		}
		if c.FixturesPath != "" {
			return fmt.Errorf("TICKET_FIXTURES is only supported with STORAGE_BACKEND=%s", StorageMemory)
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be %q or %q, got %q", StorageMemory, StoragePostgres, c.StorageBackend)
	}
	if c.Port == "" {
		return fmt.Errorf("PORT must be non-empty")
	}
	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
