/*
logger.go - Process-wide structured logger

PURPOSE:
  One logger for the server, the scheduler and the household service.
  Output goes to stderr and, when a file is configured, to a rotating log
  file. Until Init is called every helper is a silent no-op, so packages
  can log unconditionally and tests need no setup.

USAGE:
  logging.Init(logging.Config{Level: "debug", File: "./logs/quest.log"})
  logging.Info("ledger created", "child", childID, "date", date)

SEE ALSO:
  - config/config.go: [log] section feeding Config
*/
package logging

import (
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the global logger. Nil until Init.
var Logger *log.Logger

// Config holds logger configuration.
type Config struct {
	Level      string // debug, info, warn, error
	File       string // empty = stderr only
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Quiet      bool // suppress stderr when a file is set
}

// Init builds the global logger from cfg.
func Init(cfg Config) error {
	var writers []io.Writer
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return err
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    orDefault(cfg.MaxSizeMB, 10),
			MaxBackups: orDefault(cfg.MaxBackups, 3),
			MaxAge:     orDefault(cfg.MaxAgeDays, 28),
			Compress:   true,
		})
	}
	if cfg.File == "" || !cfg.Quiet {
		writers = append(writers, os.Stderr)
	}

	level := ParseLevel(cfg.Level)
	Logger = log.NewWithOptions(io.MultiWriter(writers...), log.Options{
		ReportCaller:    level == log.DebugLevel,
		ReportTimestamp: true,
		Level:           level,
		Prefix:          "quest",
	})
	return nil
}

// ParseLevel maps a config string to a level. Unknown values mean info.
func ParseLevel(s string) log.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// Debug logs a debug message.
func Debug(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Debug(msg, keyvals...)
	}
}

// Info logs an info message.
func Info(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Info(msg, keyvals...)
	}
}

// Warn logs a warning message.
func Warn(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Warn(msg, keyvals...)
	}
}

// Error logs an error message.
func Error(msg string, keyvals ...interface{}) {
	if Logger != nil {
		Logger.Error(msg, keyvals...)
	}
}

// StdWriter adapts the global logger for packages that want an io.Writer,
// such as http.Server.ErrorLog. Falls back to stderr before Init.
func StdWriter() io.Writer {
	if Logger == nil {
		return os.Stderr
	}
	return Logger.StandardLog(log.StandardLogOptions{ForceLevel: log.ErrorLevel}).Writer()
}

// StdLogger adapts the global logger at info level for packages that take
// a *log.Logger, such as chi's request logger. Discards before Init.
func StdLogger() *stdlog.Logger {
	if Logger == nil {
		return stdlog.New(io.Discard, "", 0)
	}
	return Logger.StandardLog(log.StandardLogOptions{ForceLevel: log.InfoLevel})
}
