package config

import (
	"fmt"
	"os"

	"frontpriority/internal/priority"
)

// Config holds all application configuration
type Config struct {
	// Priority adjustment applied to the focused process
	Priority priority.Rule

	// History database configuration
	History HistoryConfig

	// Daemon configuration
	Daemon DaemonConfig

	// Web server configuration
	Web WebConfig
}

// HistoryConfig holds boost-history persistence configuration
type HistoryConfig struct {
	Enabled bool   // Whether to record boosts/reverts to the database
	DBPath  string // Path to SQLite database file
}

// DaemonConfig holds daemon process configuration
type DaemonConfig struct {
	PIDFile string // Path to PID file for daemon management
}

// WebConfig holds web server configuration
type WebConfig struct {
	Host string // Host to bind web server to
	Port int    // Port for web server
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		// Nudge the focused process one nice level up, like running it
		// under "nice -n -1".
		Priority: priority.AddDelta(-1),
		History: HistoryConfig{
			Enabled: true,
			DBPath:  "", // Empty means use default ~/.config/frontpriority/frontpriority.db
		},
		Daemon: DaemonConfig{
			PIDFile: fmt.Sprintf("/tmp/frontpriority-%d.pid", os.Getuid()),
		},
		Web: WebConfig{
			Host: "localhost",
			Port: derivedWebPort(os.Getuid()),
		},
	}
}

// derivedWebPort picks a per-user default port. Uids from directory services
// or container id mappings can be far above 55535, so the uid is folded back
// into a range that always yields a valid port.
func derivedWebPort(uid int) int {
	return 10000 + uid%50000
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := c.Priority.Validate(); err != nil {
		return err
	}

	if c.Web.Port < 1 || c.Web.Port > 65535 {
		return fmt.Errorf("web port must be between 1 and 65535, got %d", c.Web.Port)
	}

	if c.Web.Host == "" {
		return fmt.Errorf("web host cannot be empty")
	}

	if c.Daemon.PIDFile == "" {
		return fmt.Errorf("PID file path cannot be empty")
	}

	return nil
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf(`Configuration:
  Priority:
    Rule: %s
  History:
    Enabled: %v
    Path: %s
  Daemon:
    PID File: %s
  Web:
    Host: %s
    Port: %d`,
		c.Priority,
		c.History.Enabled,
		c.History.DBPath,
		c.Daemon.PIDFile,
		c.Web.Host,
		c.Web.Port,
	)
}
