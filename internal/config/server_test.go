package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoadServerDefaults(t *testing.T) {
	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}
	if cfg.Port != DefaultPort {
		t.Fatalf("Port = %d, want %d", cfg.Port, DefaultPort)
	}
	if cfg.MaxPlayers != 16 {
		t.Fatalf("MaxPlayers = %d, want 16", cfg.MaxPlayers)
	}
	if cfg.MaxRetryAttempts != 3 {
		t.Fatalf("MaxRetryAttempts = %d, want 3", cfg.MaxRetryAttempts)
	}
	if cfg.RetryBaseDelay != time.Second {
		t.Fatalf("RetryBaseDelay = %s, want 1s", cfg.RetryBaseDelay)
	}
	if cfg.RetryBackoffMultiplier != 2.0 {
		t.Fatalf("RetryBackoffMultiplier = %v, want 2.0", cfg.RetryBackoffMultiplier)
	}
	if cfg.HealthCheckInterval != time.Minute {
		t.Fatalf("HealthCheckInterval = %s, want 1m", cfg.HealthCheckInterval)
	}
	if cfg.MemoryThresholdPct != 90 {
		t.Fatalf("MemoryThresholdPct = %v, want 90", cfg.MemoryThresholdPct)
	}
	if cfg.LoopStallThreshold != 5*time.Second {
		t.Fatalf("LoopStallThreshold = %s, want 5s", cfg.LoopStallThreshold)
	}
	if cfg.StatsInterval != time.Second {
		t.Fatalf("StatsInterval = %s, want 1s", cfg.StatsInterval)
	}
	if !cfg.AutoExitOnShutdown {
		t.Fatal("AutoExitOnShutdown = false, want true")
	}
	if cfg.Anywhere.Enabled {
		t.Fatal("Anywhere.Enabled = true, want false")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() on defaults error = %v", err)
	}
}

func TestLoadServerFromEnv(t *testing.T) {
	t.Setenv("NODE_PORT", "7788")
	t.Setenv("NODE_MAX_PLAYERS", "32")
	t.Setenv("ANYWHERE_ENABLED", "true")
	t.Setenv("FLEET_ID", "fleet-123")
	t.Setenv("ADDITIONAL_LOG_FILES", "a.log,b.log")

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}
	if cfg.Port != 7788 {
		t.Fatalf("Port = %d, want 7788", cfg.Port)
	}
	if cfg.MaxPlayers != 32 {
		t.Fatalf("MaxPlayers = %d, want 32", cfg.MaxPlayers)
	}
	if !cfg.Anywhere.Enabled || cfg.Anywhere.FleetID != "fleet-123" {
		t.Fatalf("unexpected anywhere config: %+v", cfg.Anywhere)
	}
	if len(cfg.AdditionalLogFiles) != 2 || cfg.AdditionalLogFiles[0] != "a.log" {
		t.Fatalf("AdditionalLogFiles = %v", cfg.AdditionalLogFiles)
	}
}

func TestApplyArgs(t *testing.T) {
	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}

	warnings := cfg.ApplyArgs([]string{
		"-port=7900",
		"-maxplayers=24",
		"-detailedlogging=true",
		"-anywhere=true",
		"-fleetid=fleet-9",
		"-hostid=host-1",
		"-authtoken=secret-token",
		"-unrelatedengineflag",
		"-somethingelse=ignored",
	})
	if len(warnings) != 0 {
		t.Fatalf("warnings = %v, want none", warnings)
	}
	if cfg.Port != 7900 {
		t.Fatalf("Port = %d, want 7900", cfg.Port)
	}
	if cfg.MaxPlayers != 24 {
		t.Fatalf("MaxPlayers = %d, want 24", cfg.MaxPlayers)
	}
	if !cfg.DetailedLogging {
		t.Fatal("DetailedLogging = false, want true")
	}
	if !cfg.Anywhere.Enabled || cfg.Anywhere.FleetID != "fleet-9" || cfg.Anywhere.HostID != "host-1" {
		t.Fatalf("unexpected anywhere config: %+v", cfg.Anywhere)
	}
	if cfg.Anywhere.AuthToken != "secret-token" {
		t.Fatalf("AuthToken = %q, want secret-token", cfg.Anywhere.AuthToken)
	}
}

func TestApplyArgsBadPortFallsBack(t *testing.T) {
	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}

	warnings := cfg.ApplyArgs([]string{"-port=70000"})
	if cfg.Port != DefaultPort {
		t.Fatalf("Port = %d, want default %d", cfg.Port, DefaultPort)
	}
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want one out-of-range warning", warnings)
	}

	warnings = cfg.ApplyArgs([]string{"-port=abc"})
	if cfg.Port != DefaultPort {
		t.Fatalf("Port = %d, want default %d after non-numeric arg", cfg.Port, DefaultPort)
	}
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want one non-numeric warning", warnings)
	}
}

func TestValidateRejects(t *testing.T) {
	base, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*ServerConfig)
	}{
		{"port too low", func(c *ServerConfig) { c.Port = 80 }},
		{"port too high", func(c *ServerConfig) { c.Port = 70000 }},
		{"negative max players", func(c *ServerConfig) { c.MaxPlayers = -1 }},
		{"zero memory threshold", func(c *ServerConfig) { c.MemoryThresholdPct = 0 }},
		{"memory threshold over 100", func(c *ServerConfig) { c.MemoryThresholdPct = 101 }},
		{"negative retry attempts", func(c *ServerConfig) { c.MaxRetryAttempts = -1 }},
		{"negative base delay", func(c *ServerConfig) { c.RetryBaseDelay = -time.Second }},
		{"multiplier below one", func(c *ServerConfig) { c.RetryBackoffMultiplier = 0.5 }},
		{"zero health interval", func(c *ServerConfig) { c.HealthCheckInterval = 0 }},
		{"zero stall threshold", func(c *ServerConfig) { c.LoopStallThreshold = 0 }},
		{"zero stats interval", func(c *ServerConfig) { c.StatsInterval = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}
