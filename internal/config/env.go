package config

import (
	"os"
	"strconv"
	"time"
)

// applyEnvOverrides lets deployment environments override individual
// yaml keys without editing the checked-in document, matching the
// teacher's override-after-defaults ordering.
func applyEnvOverrides(c *Config) {
	if v := os.Getenv("TXXT_SAVE_FILE"); v != "" {
		c.SaveFile = v
	}
	if v := os.Getenv("TXXT_LISTEN_ADDRESS"); v != "" {
		c.ListenAddress = v
	}
	if v := getEnvInt("TXXT_BROADCAST_CAPACITY"); v > 0 {
		c.BroadcastCapacity = v
	}
	if v := os.Getenv("TXXT_DEV_MODE_AUTH"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.DevModeAuth = b
		}
	}
	if v := getEnvDuration("TXXT_SESSION_TTL"); v > 0 {
		c.SessionTTL = v
	}
	if v := os.Getenv("TXXT_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("TXXT_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

func getEnvInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func getEnvDuration(key string) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}
