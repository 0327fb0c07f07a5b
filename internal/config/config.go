// Package config loads the server's yaml configuration document and
// applies defaults for anything the document omits.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full boot-time configuration, loaded once at startup.
type Config struct {
	SaveFile          string        `yaml:"save_file" json:"save_file"`
	ListenAddress     string        `yaml:"listen_address" json:"listen_address"`
	BroadcastCapacity int           `yaml:"broadcast_capacity" json:"broadcast_capacity"`
	DevModeAuth       bool          `yaml:"dev_mode_auth" json:"dev_mode_auth"`
	SessionTTL        time.Duration `yaml:"session_ttl" json:"session_ttl"`
	DataDir           string        `yaml:"data_dir" json:"data_dir"`
	LogLevel          string        `yaml:"log_level" json:"log_level"`
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// ApplyDefaults fills in every field the loaded document left zero.
func (c *Config) ApplyDefaults() {
	if c.SaveFile == "" {
		c.SaveFile = "./tasks.db"
	}
	if c.ListenAddress == "" {
		c.ListenAddress = "0.0.0.0:3000"
	}
	if c.BroadcastCapacity == 0 {
		c.BroadcastCapacity = 256
	}
	if c.SessionTTL == 0 {
		c.SessionTTL = 24 * time.Hour
	}
	if c.DataDir == "" {
		c.DataDir = "."
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate reports a config that ApplyDefaults cannot repair: an
// unrecognized log level, or a non-positive capacity or TTL.
func (c *Config) Validate() error {
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("config: unknown log_level %q", c.LogLevel)
	}
	if c.BroadcastCapacity <= 0 {
		return fmt.Errorf("config: broadcast_capacity must be positive, got %d", c.BroadcastCapacity)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("config: session_ttl must be positive, got %s", c.SessionTTL)
	}
	return nil
}

// Load reads and parses the yaml document at path, applies defaults for
// anything left unset, overlays environment overrides, then validates
// the result.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	c.ApplyDefaults()
	applyEnvOverrides(&c)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}
