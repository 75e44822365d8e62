// Package utils provides structured logging for scc-safety-net.
package utils

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// EnvLogLevel overrides the configured log level.
const EnvLogLevel = "SCC_SAFETY_NET_LOG_LEVEL"

// LoggerOptions configures the logger.
type LoggerOptions struct {
	// Level is the minimum log level (debug, info, warn, error)
	Level string
	// Output is the writer for log output (default: os.Stderr)
	Output io.Writer
	// Prefix is the component name prefix
	Prefix string
	// TimeFormat is the time format string (default: RFC3339)
	TimeFormat string
	// ReportCaller adds file:line to log entries
	ReportCaller bool
	// ReportTimestamp adds timestamps to log entries
	ReportTimestamp bool
}

// DefaultLoggerOptions returns the options used by CLI subcommands.
func DefaultLoggerOptions() LoggerOptions {
	return LoggerOptions{
		Level:           "warn",
		Output:          os.Stderr,
		Prefix:          "scc-safety-net",
		TimeFormat:      time.RFC3339,
		ReportTimestamp: false,
	}
}

// parseLevel converts a string level to log.Level.
func parseLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

// InitLogger creates a new logger with the given options. The level from
// SCC_SAFETY_NET_LOG_LEVEL wins over opts.Level.
func InitLogger(opts LoggerOptions) *log.Logger {
	if level := os.Getenv(EnvLogLevel); level != "" {
		opts.Level = level
	}
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	return log.NewWithOptions(opts.Output, log.Options{
		Level:           parseLevel(opts.Level),
		Prefix:          opts.Prefix,
		TimeFormat:      opts.TimeFormat,
		ReportCaller:    opts.ReportCaller,
		ReportTimestamp: opts.ReportTimestamp,
	})
}

// InitFileLogger creates a logger that appends to a file.
func InitFileLogger(path string, opts LoggerOptions) (*log.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return nil, err
	}
	opts.Output = f
	return InitLogger(opts), nil
}

// InitHookLogger creates the logger for hook mode, where stderr belongs to the
// host protocol. It writes to path when set and discards otherwise. A file that
// cannot be opened also falls back to discarding.
func InitHookLogger(path, level string) *log.Logger {
	opts := LoggerOptions{
		Level:           level,
		Prefix:          "hook",
		TimeFormat:      time.RFC3339,
		ReportTimestamp: true,
	}
	if path != "" {
		if logger, err := InitFileLogger(path, opts); err == nil {
			return logger
		}
	}
	opts.Output = io.Discard
	return InitLogger(opts)
}
