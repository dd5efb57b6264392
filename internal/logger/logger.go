package logger

import (
	"io"
	"log/slog"

	"github.com/mestre-rpg/mestre/internal/config"
)

// Setup configures the global slog logger. The writer is the caller's
// choice: a terminal client logs to a file so the UI stays clean.
func Setup(cfg *config.Config, w io.Writer) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel(),
	}

	if cfg.Environment == "production" {
		// JSON format for production
		handler = slog.NewJSONHandler(w, opts)
	} else {
		// Text format for development
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// WithError adds error to logger context
func WithError(logger *slog.Logger, err error) *slog.Logger {
	return logger.With("error", err.Error())
}
