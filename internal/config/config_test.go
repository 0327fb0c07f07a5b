package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaultsForOmittedKeys(t *testing.T) {
	path := writeConfigFile(t, "listen_address: 127.0.0.1:9000\n")
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.ListenAddress != "127.0.0.1:9000" {
		t.Fatalf("expected overridden listen address, got %q", c.ListenAddress)
	}
	if c.SaveFile != "./tasks.db" {
		t.Fatalf("expected default save_file, got %q", c.SaveFile)
	}
	if c.BroadcastCapacity != 256 {
		t.Fatalf("expected default broadcast_capacity 256, got %d", c.BroadcastCapacity)
	}
	if c.SessionTTL != 24*time.Hour {
		t.Fatalf("expected default session_ttl 24h, got %s", c.SessionTTL)
	}
	if c.LogLevel != "info" {
		t.Fatalf("expected default log_level info, got %q", c.LogLevel)
	}
}

func TestLoadRejectsUnknownLogLevel(t *testing.T) {
	path := writeConfigFile(t, "log_level: verbose\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown log_level")
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestEnvOverridesTakePrecedenceOverFile(t *testing.T) {
	path := writeConfigFile(t, "listen_address: 127.0.0.1:9000\n")
	t.Setenv("TXXT_LISTEN_ADDRESS", "0.0.0.0:4000")
	t.Setenv("TXXT_DEV_MODE_AUTH", "true")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.ListenAddress != "0.0.0.0:4000" {
		t.Fatalf("expected env override, got %q", c.ListenAddress)
	}
	if !c.DevModeAuth {
		t.Fatal("expected dev_mode_auth overridden to true")
	}
}

func TestValidateRejectsNonPositiveBroadcastCapacity(t *testing.T) {
	c := Config{SaveFile: "x", ListenAddress: "x", BroadcastCapacity: 0, SessionTTL: time.Hour, LogLevel: "info"}
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for zero broadcast_capacity")
	}
}
