// Package logging provides structured logging setup for uisweep.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// Options configures the logger.
type Options struct {
	// Level is the minimum log level (debug, info, warn, error)
	Level string
	// Output is the writer for log output (default: os.Stderr)
	Output io.Writer
	// Prefix is the component name prefix
	Prefix string
	// TimeFormat is the time format string (default: 15:04:05)
	TimeFormat string
	// ReportTimestamp adds timestamps to log entries
	ReportTimestamp bool
}

// DefaultOptions returns sensible defaults, respecting UISWEEP_LOG_LEVEL.
func DefaultOptions() Options {
	opts := Options{
		Level:           "info",
		Output:          os.Stderr,
		TimeFormat:      "15:04:05",
		ReportTimestamp: true,
	}
	if level := os.Getenv("UISWEEP_LOG_LEVEL"); level != "" {
		opts.Level = level
	}
	return opts
}

// New creates a logger with the given options. There is no package-level
// default: every run constructs its own logger and hands sub-loggers to its
// components via WithPrefix.
func New(opts Options) *log.Logger {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	return log.NewWithOptions(opts.Output, log.Options{
		Level:           parseLevel(opts.Level),
		Prefix:          opts.Prefix,
		TimeFormat:      opts.TimeFormat,
		ReportTimestamp: opts.ReportTimestamp,
	})
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
