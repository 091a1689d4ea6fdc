/*
config.go - Server configuration from a TOML file

PURPOSE:
  One file configures the server, the database, background compaction and
  logging. Every key is optional; DefaultConfig supplies the rest. Command
  line flags override the file (see cmd/server/main.go).

FILE FORMAT:
  [server]
  host = "127.0.0.1"
  port = 8080
  allowed_origins = ["http://localhost:5173"]

  [database]
  path = "./quest.db"

  [compaction]
  enabled = true
  retention_days = 14
  interval = "6h"

  [log]
  level = "info"
  file = "./logs/quest.log"
  max_size_mb = 10
  max_backups = 3
  max_age_days = 28
  quiet = false

SEE ALSO:
  - logging/logger.go: Consumes the [log] section
  - api/scheduler.go:  Consumes the [compaction] section
*/
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/warp/quest-engine/daylog"
	"github.com/warp/quest-engine/logging"
)

// Config is the whole configuration file.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Database   DatabaseConfig   `toml:"database"`
	Compaction CompactionConfig `toml:"compaction"`
	Log        LogConfig        `toml:"log"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host           string   `toml:"host"`
	Port           int      `toml:"port"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// DatabaseConfig configures the SQLite store.
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// CompactionConfig configures history compaction.
type CompactionConfig struct {
	Enabled       bool   `toml:"enabled"`
	RetentionDays int    `toml:"retention_days"`
	Interval      string `toml:"interval"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Quiet      bool   `toml:"quiet"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8080,
		},
		Database: DatabaseConfig{
			Path: "./quest.db",
		},
		Compaction: CompactionConfig{
			Enabled:       true,
			RetentionDays: daylog.DefaultRetentionDays,
			Interval:      "6h",
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load reads path over the defaults. An empty path yields the defaults.
// Unknown keys are an error so typos don't silently fall back.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if c.Compaction.RetentionDays < 0 {
		errs = append(errs, errors.New("compaction.retention_days must be >= 0"))
	}
	if _, err := c.CompactionInterval(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Addr is the listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// CompactionInterval parses compaction.interval.
func (c Config) CompactionInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.Compaction.Interval)
	if err != nil {
		return 0, fmt.Errorf("compaction.interval: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("compaction.interval must be positive, got %s", d)
	}
	return d, nil
}

// Logging converts the [log] section for logging.Init.
func (c Config) Logging() logging.Config {
	return logging.Config{
		Level:      c.Log.Level,
		File:       c.Log.File,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
		Quiet:      c.Log.Quiet,
	}
}
