package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fleetnode/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestInitDetailedForcesDebug(t *testing.T) {
	if err := Init(config.LogConfig{Level: "warn"}, true); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if zerolog.GlobalLevel() != zerolog.DebugLevel {
		t.Fatalf("global level = %s, want debug", zerolog.GlobalLevel())
	}
}

func TestInitFileSink(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logs", "node.log")

	if err := Init(config.LogConfig{Level: "info", File: path, MaxMB: 1}, false); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	defer Close()

	log.Info().Str("event", "boot").Msg("node started")
	if err := Sync(); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "node started") {
		t.Fatalf("log file missing entry: %q", string(data))
	}
}

func TestSyncWithoutSink(t *testing.T) {
	if err := Init(config.LogConfig{Level: "info"}, false); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if err := Sync(); err != nil {
		t.Fatalf("Sync() with no sink error = %v", err)
	}
	if err := Close(); err != nil {
		t.Fatalf("Close() with no sink error = %v", err)
	}
}
