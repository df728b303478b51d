// Package logging configures the process-wide slog logger: a
// colorized tint handler for local development, or plain JSON when
// LogFormat is set to "json" for machine-consumed log aggregation.
package logging

import (
	"io"
	"log/slog"

	"github.com/lmittmann/tint"
)

// Config controls the logger's level, format, and source annotation.
type Config struct {
	Level     slog.Level
	Format    string // "json" or "" (tint, colorized)
	AddSource bool
}

// New builds a logger writing to out per cfg.
func New(cfg Config, out io.Writer) *slog.Logger {
	return slog.New(newHandler(cfg, out))
}

func newHandler(cfg Config, out io.Writer) slog.Handler {
	opts := &slog.HandlerOptions{
		Level:     cfg.Level,
		AddSource: cfg.AddSource,
	}

	switch cfg.Format {
	case "json":
		return slog.NewJSONHandler(out, opts)
	default:
		return tint.NewHandler(out, &tint.Options{
			Level:      cfg.Level,
			AddSource:  cfg.AddSource,
			TimeFormat: "15:04:05",
		})
	}
}
