package models

// MConfig Structure
type MConfig struct {
	Name          string         `yaml:"name"`
	Host          string         `yaml:"host"`
	Port          int            `yaml:"port"`
	LogLevel      string         `yaml:"log_level"`
	LogFile       string         `yaml:"log_file"`
	LogMaxSizeMB  int            `yaml:"log_max_size_mb"`
	LogMaxBackups int            `yaml:"log_max_backups"`
	GrpcHost      string         `yaml:"grpc_host"`
	GrpcPort      int            `yaml:"grpc_port"`
	Storage       MStorageConfig `yaml:"storage"`
	Network       MNetworkConfig `yaml:"network"`
	Refresh       MRefreshConfig `yaml:"refresh"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
}

type MNetworkConfig struct {
	BaseURL        string   `yaml:"base_url"`
	FloorsheetURL  string   `yaml:"floorsheet_url"`
	RequestTimeout int      `yaml:"timeout"` // seconds
	UseProxies     bool     `yaml:"use_proxies"`
	Proxies        []string `yaml:"proxies"`
	UserAgent      string   `yaml:"user_agent"` // Optional, rotated list otherwise
}

type MRefreshConfig struct {
	MaxAttempts        int `yaml:"max_attempts"`
	BaseBackoffMs      int `yaml:"base_backoff_ms"`
	MaxBackoffMs       int `yaml:"max_backoff_ms"`
	PhaseCheckSeconds  int `yaml:"phase_check_seconds"`
	DiagnosticsHistory int `yaml:"diagnostics_history"`
}
