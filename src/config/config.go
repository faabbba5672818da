package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"nepse-observer/src/helpers"
	"nepse-observer/src/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults applied before validation.
const (
	DefaultRequestTimeoutSeconds = 15
	DefaultMaxAttempts           = 4
	DefaultBaseBackoffMs         = 1000
	DefaultMaxBackoffMs          = 10000
	DefaultPhaseCheckSeconds     = 30
	DefaultDiagnosticsHistory    = 256
	DefaultFloorsheetURL         = "https://sharehubnepal.com/live/api/v2/floorsheet"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new Config from a YAML file, a .env file next to the
// working directory (optional) and environment overrides.
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. .env is optional; a missing file is not an error
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	return Parse(data)
}

// Parse builds a validated Config from YAML bytes plus the environment.
func Parse(data []byte) (*Config, error) {
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.applyEnv()
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, &helpers.ConfigurationError{NepseError: helpers.NepseError{Message: "config validation failed", Cause: err}}
	}

	return config, nil
}

// -----------------------------------------------------------------------------

func (c *Config) applyEnv() {
	// BASE_URL is the name the upstream deployment already uses
	if v := os.Getenv("BASE_URL"); v != "" {
		c.Network.BaseURL = v
	}
	if v := os.Getenv("NEPSE_FLOORSHEET_URL"); v != "" {
		c.Network.FloorsheetURL = v
	}
	if v := os.Getenv("NEPSE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	if v := os.Getenv("NEPSE_DB_CONNECTION_STRING"); v != "" {
		c.Storage.DBConnectionString = v
	}
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "INFO"
	}
	if c.Storage.DBType == "" {
		c.Storage.DBType = "sqlite"
	}
	if c.Network.RequestTimeout == 0 {
		c.Network.RequestTimeout = DefaultRequestTimeoutSeconds
	}
	if c.Network.FloorsheetURL == "" {
		c.Network.FloorsheetURL = DefaultFloorsheetURL
	}
	c.Network.BaseURL = strings.TrimRight(c.Network.BaseURL, "/")

	r := &c.Refresh
	if r.MaxAttempts == 0 {
		r.MaxAttempts = DefaultMaxAttempts
	}
	if r.BaseBackoffMs == 0 {
		r.BaseBackoffMs = DefaultBaseBackoffMs
	}
	if r.MaxBackoffMs == 0 {
		r.MaxBackoffMs = DefaultMaxBackoffMs
	}
	if r.PhaseCheckSeconds == 0 {
		r.PhaseCheckSeconds = DefaultPhaseCheckSeconds
	}
	if r.DiagnosticsHistory == 0 {
		r.DiagnosticsHistory = DefaultDiagnosticsHistory
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Server
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}
	if c.GrpcPort != 0 && (c.GrpcPort <= 1024 || c.GrpcPort > 65535) {
		return fmt.Errorf("invalid grpc port number: %d (must be between 1025 and 65535)", c.GrpcPort)
	}

	// Storage
	switch c.Storage.DBType {
	case "sqlite":
		if c.Storage.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for sqlite")
		}
	case "postgres":
		if c.Storage.DBConnectionString == "" {
			return fmt.Errorf("database connection string cannot be empty for postgres")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Storage.DBType)
	}

	// Network
	if c.Network.BaseURL == "" {
		return fmt.Errorf("network base_url cannot be empty (set it in YAML or BASE_URL)")
	}
	if c.Network.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}

	// Refresh
	if c.Refresh.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1")
	}
	if c.Refresh.BaseBackoffMs < 0 || c.Refresh.MaxBackoffMs < 0 {
		return fmt.Errorf("backoff values cannot be negative")
	}
	if c.Refresh.MaxBackoffMs < c.Refresh.BaseBackoffMs {
		return fmt.Errorf("max backoff (%dms) must not be below base backoff (%dms)", c.Refresh.MaxBackoffMs, c.Refresh.BaseBackoffMs)
	}
	if c.Refresh.PhaseCheckSeconds <= 0 {
		return fmt.Errorf("phase check interval must be greater than 0")
	}
	if c.Refresh.DiagnosticsHistory < 0 {
		return fmt.Errorf("diagnostics history cannot be negative")
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
