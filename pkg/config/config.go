// Package config reads runtime settings from the environment, optionally seeded by a .env file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/unowned-ai/remember/pkg/utils"
)

const (
	EnvDBPath   = "REMEMBER_DB"
	EnvWAL      = "REMEMBER_WAL"
	EnvSync     = "REMEMBER_SYNC"
	EnvLogDir   = "REMEMBER_LOG_DIR"
	EnvLogLevel = "REMEMBER_LOG_LEVEL"
	EnvTimeZone = "REMEMBER_TZ"
)

type Config struct {
	Database DatabaseConfig
	Log      LogConfig
	// TimeZone is the location contacts are grouped by day in.
	TimeZone string
}

type DatabaseConfig struct {
	Path string
	WAL  bool
	Sync string
}

type LogConfig struct {
	Dir   string
	Level string
}

// Load reads the configuration. A .env file in the working directory is loaded first when
// present; variables already set in the environment take precedence over it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	wal, err := strconv.ParseBool(getEnv(EnvWAL, "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", EnvWAL, err)
	}

	cfg := &Config{
		Database: DatabaseConfig{
			Path: getEnv(EnvDBPath, ""),
			WAL:  wal,
			Sync: strings.ToUpper(getEnv(EnvSync, "NORMAL")),
		},
		Log: LogConfig{
			Dir:   getEnv(EnvLogDir, filepath.Join(utils.GetDefaultDataDir(), "logs")),
			Level: strings.ToLower(getEnv(EnvLogLevel, "info")),
		},
		TimeZone: getEnv(EnvTimeZone, ""),
	}

	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Location resolves TimeZone. An empty value means the system's local time.
func (c *Config) Location() (*time.Location, error) {
	if c.TimeZone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", EnvTimeZone, c.TimeZone, err)
	}
	return loc, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
