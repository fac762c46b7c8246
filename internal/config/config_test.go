package config

import (
	"testing"

	"frontpriority/internal/priority"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Priority != priority.AddDelta(-1) {
		t.Errorf("Priority = %v, want AddDelta(-1)", cfg.Priority)
	}
	if !cfg.History.Enabled {
		t.Error("History.Enabled = false, want true")
	}
	if cfg.Daemon.PIDFile == "" {
		t.Error("Daemon.PIDFile is empty")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config does not validate: %v", err)
	}
}

func TestDerivedWebPort(t *testing.T) {
	tests := []struct {
		name string
		uid  int
		want int
	}{
		{name: "Root", uid: 0, want: 10000},
		{name: "First regular user", uid: 1000, want: 11000},
		{name: "Largest uid below wrap", uid: 55535, want: 15535},
		{name: "Directory-service uid", uid: 60000, want: 20000},
		{name: "Container-mapped uid", uid: 1000000, want: 10000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := derivedWebPort(tt.uid)
			if got != tt.want {
				t.Errorf("derivedWebPort(%d) = %d, want %d", tt.uid, got, tt.want)
			}
			if got < 1 || got > 65535 {
				t.Errorf("derivedWebPort(%d) = %d, outside the valid port range", tt.uid, got)
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FRONTPRIORITY_DELTA", "-5")
	t.Setenv("FRONTPRIORITY_DB_PATH", "/tmp/test.db")
	t.Setenv("FRONTPRIORITY_HISTORY", "false")
	t.Setenv("FRONTPRIORITY_PID_FILE", "/tmp/test.pid")
	t.Setenv("FRONTPRIORITY_WEB_PORT", "12345")

	cfg := New()

	if cfg.Priority != priority.AddDelta(-5) {
		t.Errorf("Priority = %v, want AddDelta(-5)", cfg.Priority)
	}
	if cfg.History.DBPath != "/tmp/test.db" {
		t.Errorf("History.DBPath = %s, want /tmp/test.db", cfg.History.DBPath)
	}
	if cfg.History.Enabled {
		t.Error("History.Enabled = true, want false")
	}
	if cfg.Daemon.PIDFile != "/tmp/test.pid" {
		t.Errorf("Daemon.PIDFile = %s, want /tmp/test.pid", cfg.Daemon.PIDFile)
	}
	if cfg.Web.Port != 12345 {
		t.Errorf("Web.Port = %d, want 12345", cfg.Web.Port)
	}
}

func TestEnvSetOverridesDelta(t *testing.T) {
	t.Setenv("FRONTPRIORITY_DELTA", "-5")
	t.Setenv("FRONTPRIORITY_SET", "-10")

	cfg := New()
	if cfg.Priority != priority.SetAbsolute(-10) {
		t.Errorf("Priority = %v, want SetAbsolute(-10)", cfg.Priority)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "Valid defaults",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "Absolute value out of nice range",
			mutate:  func(c *Config) { c.Priority = priority.SetAbsolute(99) },
			wantErr: true,
		},
		{
			name:    "Invalid web port",
			mutate:  func(c *Config) { c.Web.Port = 0 },
			wantErr: true,
		},
		{
			name:    "Empty web host",
			mutate:  func(c *Config) { c.Web.Host = "" },
			wantErr: true,
		},
		{
			name:    "Empty PID file",
			mutate:  func(c *Config) { c.Daemon.PIDFile = "" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
