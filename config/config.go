// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Pricing    PricingConfig    `yaml:"pricing"`
	Presets    PresetsConfig    `yaml:"presets"`
	Database   DatabaseConfig   `yaml:"database"`
	Simulation SimulationConfig `yaml:"simulation"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// PricingConfig locates the pricing plan document.
type PricingConfig struct {
	PlanPath string `yaml:"plan_path"`
	Watch    bool   `yaml:"watch"`
}

// PresetsConfig configures scenario preset seeding.
type PresetsConfig struct {
	// SeedPath is an optional JSON file of presets loaded into the store on
	// startup. Existing presets with the same name are left untouched.
	SeedPath string `yaml:"seed_path"`
}

// DatabaseConfig configures the preset database.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" only for now
	DSN    string `yaml:"dsn"`
}

// SimulationConfig bounds simulation requests.
type SimulationConfig struct {
	DefaultHorizonMonths int `yaml:"default_horizon_months"`
	MaxHorizonMonths     int `yaml:"max_horizon_months"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // Enable /metrics endpoint
	Path    string `yaml:"path"`    // Custom path (default: /metrics)
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(&cfg)

	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment variables.
// This is useful for Docker deployments where no config file is needed.
//
// Environment variables:
//
//	CARDSIM_PRICING_PLAN_PATH    - Pricing plan JSON file (required)
//	CARDSIM_PRESETS_SEED_PATH    - Scenario presets JSON file to seed from
//	CARDSIM_DATABASE_DSN         - Preset database path (default: cardsim.db)
//	CARDSIM_SERVER_HOST          - Server host (default: 0.0.0.0)
//	CARDSIM_SERVER_PORT          - Server port (default: 8080)
//	CARDSIM_SIM_DEFAULT_HORIZON  - Default horizon in months (default: 36)
//	CARDSIM_SIM_MAX_HORIZON      - Maximum horizon in months (default: 120)
//	CARDSIM_LOG_LEVEL            - Log level: debug, info, warn, error (default: info)
//	CARDSIM_LOG_FORMAT           - Log format: json or console (default: json)
//	CARDSIM_METRICS_ENABLED      - Enable /metrics endpoint (default: true)
func LoadFromEnv() (*Config, error) {
	cfg := Config{Metrics: MetricsConfig{Enabled: true}}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback tries to load from file, falls back to environment variables.
// This is the recommended method for Docker deployments.
func LoadWithFallback(path string) (*Config, error) {
	// Try loading from file first
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	// Check if we have enough env vars to run
	if os.Getenv("CARDSIM_PRICING_PLAN_PATH") != "" {
		return LoadFromEnv()
	}

	// No config available
	return nil, fmt.Errorf("no configuration found: provide config file or set CARDSIM_PRICING_PLAN_PATH")
}

// applyEnvOverrides applies CARDSIM_* environment variables to the config.
// Environment variables always override file-based configuration.
func applyEnvOverrides(cfg *Config) {
	// Server configuration
	if v := os.Getenv("CARDSIM_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("CARDSIM_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("CARDSIM_SERVER_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if v := os.Getenv("CARDSIM_SERVER_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}

	// Pricing configuration
	if v := os.Getenv("CARDSIM_PRICING_PLAN_PATH"); v != "" {
		cfg.Pricing.PlanPath = v
	}
	if v := os.Getenv("CARDSIM_PRICING_WATCH"); v != "" {
		cfg.Pricing.Watch = parseBool(v)
	}

	// Presets configuration
	if v := os.Getenv("CARDSIM_PRESETS_SEED_PATH"); v != "" {
		cfg.Presets.SeedPath = v
	}

	// Database configuration
	if v := os.Getenv("CARDSIM_DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("CARDSIM_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}

	// Simulation configuration
	if v := os.Getenv("CARDSIM_SIM_DEFAULT_HORIZON"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Simulation.DefaultHorizonMonths = n
		}
	}
	if v := os.Getenv("CARDSIM_SIM_MAX_HORIZON"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Simulation.MaxHorizonMonths = n
		}
	}

	// Logging configuration
	if v := os.Getenv("CARDSIM_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CARDSIM_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	// Metrics configuration
	if v := os.Getenv("CARDSIM_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("CARDSIM_METRICS_PATH"); v != "" {
		cfg.Metrics.Path = v
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "cardsim.db"
	}

	if cfg.Simulation.DefaultHorizonMonths == 0 {
		cfg.Simulation.DefaultHorizonMonths = 36
	}
	if cfg.Simulation.MaxHorizonMonths == 0 {
		cfg.Simulation.MaxHorizonMonths = 120
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

func validate(cfg *Config) error {
	if cfg.Pricing.PlanPath == "" {
		return fmt.Errorf("pricing.plan_path is required")
	}

	if cfg.Database.Driver != "sqlite" {
		return fmt.Errorf("database.driver must be 'sqlite', got %q", cfg.Database.Driver)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error, got %q", cfg.Logging.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}

	if cfg.Simulation.DefaultHorizonMonths < 1 {
		return fmt.Errorf("simulation.default_horizon_months must be >= 1")
	}
	if cfg.Simulation.MaxHorizonMonths < cfg.Simulation.DefaultHorizonMonths {
		return fmt.Errorf("simulation.max_horizon_months must be >= default_horizon_months")
	}

	return nil
}
