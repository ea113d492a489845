package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Store drivers.
const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	Store   StoreConfig
	App     AppConfig
	Metrics MetricsConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST"`
	Port            string        `envconfig:"SERVER_PORT" default:"3000"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"10s"`
	IdleTimeout     time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"120s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
	AssetsDir       string        `envconfig:"SERVER_ASSETS_DIR" default:"public"`
	CORSOrigins     []string      `envconfig:"SERVER_CORS_ORIGINS"`
}

// Addr returns the listen address.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Validate validates the server configuration.
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port cannot be empty")
	}
	if c.AssetsDir == "" {
		return fmt.Errorf("assets directory cannot be empty")
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive")
	}
	if c.WriteTimeout <= 0 {
		return fmt.Errorf("write timeout must be positive")
	}
	if c.IdleTimeout <= 0 {
		return fmt.Errorf("idle timeout must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}
	return nil
}

// StoreConfig selects and configures the registry backend.
type StoreConfig struct {
	Driver           string `envconfig:"STORE_DRIVER" default:"file"`
	FilePath         string `envconfig:"STORE_FILE_PATH" default:"data/links.json"`
	PostgresDSN      string `envconfig:"STORE_POSTGRES_DSN"`
	PostgresMaxConns int32  `envconfig:"STORE_POSTGRES_MAX_CONNS" default:"10"`
	PostgresMinConns int32  `envconfig:"STORE_POSTGRES_MIN_CONNS" default:"1"`
	RedisURL         string `envconfig:"STORE_REDIS_URL"`
	RedisKey         string `envconfig:"STORE_REDIS_KEY" default:"links"`
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	switch c.Driver {
	case DriverFile:
		if c.FilePath == "" {
			return fmt.Errorf("file path cannot be empty")
		}
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("postgres DSN is required when driver is %q", DriverPostgres)
		}
		if c.PostgresMaxConns <= 0 {
			return fmt.Errorf("max connections must be positive")
		}
		if c.PostgresMinConns < 0 {
			return fmt.Errorf("min connections cannot be negative")
		}
		if c.PostgresMinConns > c.PostgresMaxConns {
			return fmt.Errorf("min connections (%d) cannot be greater than max connections (%d)", c.PostgresMinConns, c.PostgresMaxConns)
		}
	case DriverRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("redis URL is required when driver is %q", DriverRedis)
		}
		if c.RedisKey == "" {
			return fmt.Errorf("redis key cannot be empty")
		}
	default:
		return fmt.Errorf("invalid store driver: %s (must be one of: file, postgres, redis)", c.Driver)
	}
	return nil
}

// AppConfig holds application-specific configuration.
type AppConfig struct {
	Environment string `envconfig:"APP_ENV" default:"development"` // development, staging, production, test
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`      // debug, info, warn, error
}

// Validate validates the app configuration.
func (c *AppConfig) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
		"test":        true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid environment: %s (must be one of: development, staging, production, test)", c.Environment)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}
	return nil
}

// reservedPaths are served by the application and cannot host metrics.
var reservedPaths = []string{"/links", "/shorten", "/style.css", "/x/health"}

// MetricsConfig controls the Prometheus scrape endpoint.
type MetricsConfig struct {
	Enabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
	Path    string `envconfig:"METRICS_PATH" default:"/metrics"`
}

// Validate validates the metrics configuration.
func (c *MetricsConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if len(c.Path) < 2 || c.Path[0] != '/' {
		return fmt.Errorf("metrics path must start with / and name a route, got %q", c.Path)
	}
	if slices.Contains(reservedPaths, c.Path) {
		return fmt.Errorf("metrics path %q collides with an application route", c.Path)
	}
	return nil
}

// Load loads configuration from environment variables only.
// (.env loading happens in the app package for dev, not here.)
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process("", &cfg.Server); err != nil {
		return nil, fmt.Errorf("failed to load Server config: %w", err)
	}
	if err := cfg.Server.Validate(); err != nil {
		return nil, fmt.Errorf("invalid Server config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Store); err != nil {
		return nil, fmt.Errorf("failed to load Store config: %w", err)
	}
	if err := cfg.Store.Validate(); err != nil {
		return nil, fmt.Errorf("invalid Store config: %w", err)
	}

	if err := envconfig.Process("", &cfg.App); err != nil {
		return nil, fmt.Errorf("failed to load App config: %w", err)
	}
	if err := cfg.App.Validate(); err != nil {
		return nil, fmt.Errorf("invalid App config: %w", err)
	}

	if err := envconfig.Process("", &cfg.Metrics); err != nil {
		return nil, fmt.Errorf("failed to load Metrics config: %w", err)
	}
	if err := cfg.Metrics.Validate(); err != nil {
		return nil, fmt.Errorf("invalid Metrics config: %w", err)
	}

	return cfg, nil
}
