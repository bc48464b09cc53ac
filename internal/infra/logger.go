package infra

import (
	"log/slog"
	"os"
	"strings"
)

// NewLogger builds the application logger from the configured level.
// Unknown levels fall back to info rather than failing startup.
func NewLogger(cfg *Config) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Logging.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(
		"app", cfg.App.Name,
		"mode", cfg.Trading.Mode,
	)
}
