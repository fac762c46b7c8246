package config

import (
	"os"
	"strconv"

	"frontpriority/internal/priority"
)

// LoadFromEnv loads configuration from environment variables
// Environment variables override default values
func LoadFromEnv(cfg *Config) {
	// Priority rule: FRONTPRIORITY_SET wins over FRONTPRIORITY_DELTA when
	// both are present, mirroring the command-line flags.
	if delta := os.Getenv("FRONTPRIORITY_DELTA"); delta != "" {
		if d, err := strconv.Atoi(delta); err == nil {
			cfg.Priority = priority.AddDelta(d)
		}
	}
	if abs := os.Getenv("FRONTPRIORITY_SET"); abs != "" {
		if v, err := strconv.Atoi(abs); err == nil {
			cfg.Priority = priority.SetAbsolute(v)
		}
	}

	// History configuration
	if dbPath := os.Getenv("FRONTPRIORITY_DB_PATH"); dbPath != "" {
		cfg.History.DBPath = dbPath
	}

	if enabled := os.Getenv("FRONTPRIORITY_HISTORY"); enabled != "" {
		if val, err := strconv.ParseBool(enabled); err == nil {
			cfg.History.Enabled = val
		}
	}

	// Daemon configuration
	if pidFile := os.Getenv("FRONTPRIORITY_PID_FILE"); pidFile != "" {
		cfg.Daemon.PIDFile = pidFile
	}

	// Web configuration
	if webHost := os.Getenv("FRONTPRIORITY_WEB_HOST"); webHost != "" {
		cfg.Web.Host = webHost
	}

	if webPort := os.Getenv("FRONTPRIORITY_WEB_PORT"); webPort != "" {
		if port, err := strconv.Atoi(webPort); err == nil && port > 0 && port <= 65535 {
			cfg.Web.Port = port
		}
	}
}

// New creates a new Config with default values and loads from environment
func New() *Config {
	cfg := Default()
	LoadFromEnv(cfg)
	return cfg
}
