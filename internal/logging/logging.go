// Package logging configures the charmbracelet/log loggers used across
// projcal.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// Options holds configuration for a logger.
type Options struct {
	Level           log.Level
	Formatter       log.Formatter
	ReportTimestamp bool
	Prefix          string
}

// DefaultOptions returns the options used for CLI commands.
func DefaultOptions() Options {
	return Options{
		Level:           log.InfoLevel,
		Formatter:       log.TextFormatter,
		ReportTimestamp: true,
		Prefix:          "projcal",
	}
}

// New builds a logger writing to w.
func New(w io.Writer, opts Options) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           opts.Level,
		Formatter:       opts.Formatter,
		ReportTimestamp: opts.ReportTimestamp,
		Prefix:          opts.Prefix,
	})
}

// Discard returns a logger that drops everything (tests, --log-file=-).
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

// FileLogger owns a log file. The interactive calendar cannot log to the
// terminal it draws on, so it logs here instead.
type FileLogger struct {
	Logger *log.Logger
	Path   string
	file   *os.File
}

// OpenFile appends to path, creating parent directories.
func OpenFile(path string, opts Options) (*FileLogger, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("log file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	opts.Formatter = log.LogfmtFormatter
	return &FileLogger{Logger: New(f, opts), Path: path, file: f}, nil
}

// Close closes the log file.
func (l *FileLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// ParseLevel converts a string to a log level (info when empty or
// unrecognised). "warning" is accepted as an alias for warn.
func ParseLevel(level string) log.Level {
	lv, err := parseLevel(level)
	if err != nil {
		return log.InfoLevel
	}
	return lv
}

// ValidLevel reports whether level is one ParseLevel understands.
func ValidLevel(level string) bool {
	_, err := parseLevel(level)
	return err == nil
}

func parseLevel(level string) (log.Level, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	switch level {
	case "":
		return log.InfoLevel, nil
	case "warning":
		level = "warn"
	}
	return log.ParseLevel(level)
}
