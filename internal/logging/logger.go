// Package logging provides the minimal Logger interface used across the
// module plus adapters over log/slog.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is the logging surface components depend on.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps *slog.Logger to implement Logger.
type SlogAdapter struct {
	*slog.Logger
}

func (s *SlogAdapter) Debug(msg string, args ...any) { s.Logger.Debug(msg, args...) }

func (s *SlogAdapter) Info(msg string, args ...any) { s.Logger.Info(msg, args...) }

func (s *SlogAdapter) Warn(msg string, args ...any) { s.Logger.Warn(msg, args...) }

func (s *SlogAdapter) Error(msg string, args ...any) { s.Logger.Error(msg, args...) }

func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// Config selects the handler built by New.
type Config struct {
	Level  string // debug, info, warn or error
	Format string // text or json
	Output io.Writer
}

// New builds a slog-backed Logger. An empty level means info and an empty
// format means text.
func New(cfg Config) (Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", "text":
		handler = slog.NewTextHandler(out, opts)
	case "json":
		handler = slog.NewJSONHandler(out, opts)
	default:
		return nil, fmt.Errorf("unsupported log format: %s", cfg.Format)
	}
	return NewSlogAdapter(slog.New(handler)), nil
}

func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unsupported log level: %s", s)
	}
}

// NoOpLogger discards all log messages.
type NoOpLogger struct{}

func (NoOpLogger) Debug(string, ...any) {}

func (NoOpLogger) Info(string, ...any) {}

func (NoOpLogger) Warn(string, ...any) {}

func (NoOpLogger) Error(string, ...any) {}
