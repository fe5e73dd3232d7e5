package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration. A single struct keeps it easy
// to pass around and test; each section maps to a YAML block in the config
// file.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	ZKP       ZKPConfig       `mapstructure:"zkp"`
	Storage   StorageConfig   `mapstructure:"storage"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	CORS      CORSConfig      `mapstructure:"cors"`
}

// ServerConfig defines HTTP server settings for the prover API. Timeouts
// matter: proof generation is CPU-bound and slow clients must not pile up.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// LoggingConfig controls logging behavior. JSON format feeds log
// aggregation; console format is for local development.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format"` // "json" or "console"
}

// ZKPConfig selects the proving backend. The circuit core's field
// arithmetic is fixed to the bn254 scalar field, so that is the only curve
// accepted today; the knob exists because the backend boundary is curve-
// agnostic.
type ZKPConfig struct {
	Curve   string `mapstructure:"curve"`   // "bn254"
	Backend string `mapstructure:"backend"` // "groth16"
}

// StorageConfig configures the optional PostgreSQL proof-run store. When
// disabled, the prover API runs fully in-memory.
type StorageConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RateLimitConfig prevents API abuse. Token bucket: allows bursts but
// limits sustained rate.
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// CORSConfig for browser-based clients.
type CORSConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

// Load reads configuration from file and environment variables.
// Priority: env vars > config file > defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// PROVER_API_SERVER_PORT overrides server.port in YAML.
	v.SetEnvPrefix("PROVER_API")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// A missing config file is fine; defaults plus env vars still apply.
	// viper only wraps the miss in ConfigFileNotFoundError when it searched
	// config paths; with an explicit SetConfigFile it surfaces the raw
	// *os.PathError, so both shapes are tolerated here.
	if err := v.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("zkp.curve", "bn254")
	v.SetDefault("zkp.backend", "groth16")

	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.host", "localhost")
	v.SetDefault("storage.port", 5432)
	v.SetDefault("storage.user", "prover")
	v.SetDefault("storage.database", "proof_runs")
	v.SetDefault("storage.ssl_mode", "disable")
	v.SetDefault("storage.max_open_conns", 10)
	v.SetDefault("storage.max_idle_conns", 5)
	v.SetDefault("storage.conn_max_lifetime", "30m")

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 10)
	v.SetDefault("rate_limit.burst", 20)

	v.SetDefault("cors.enabled", true)
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Content-Type", "Authorization"})
}

// Validate checks the configuration at startup so runtime code never sees
// an invalid value.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout < time.Second {
		return fmt.Errorf("read_timeout must be at least 1 second")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.ZKP.Curve != "bn254" {
		return fmt.Errorf("unsupported curve: %s (the circuit core is fixed to bn254)", c.ZKP.Curve)
	}
	if c.ZKP.Backend != "groth16" {
		return fmt.Errorf("unsupported backend: %s", c.ZKP.Backend)
	}

	if c.Storage.Enabled {
		if c.Storage.Host == "" || c.Storage.Database == "" {
			return fmt.Errorf("storage requires host and database when enabled")
		}
		if c.Storage.Port < 1 || c.Storage.Port > 65535 {
			return fmt.Errorf("invalid storage port: %d", c.Storage.Port)
		}
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.RequestsPerSecond <= 0 {
			return fmt.Errorf("requests_per_second must be positive")
		}
		if c.RateLimit.Burst < 1 {
			return fmt.Errorf("burst must be at least 1")
		}
	}

	return nil
}

// GetServerAddress returns the full server address.
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetStorageDSN returns the PostgreSQL connection string.
func (c *Config) GetStorageDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Storage.Host, c.Storage.Port, c.Storage.User, c.Storage.Password,
		c.Storage.Database, c.Storage.SSLMode)
}

// IsProduction reports whether the service runs in production mode, based
// on log level.
func (c *Config) IsProduction() bool {
	return c.Logging.Level != "debug"
}
