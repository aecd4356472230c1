package app

import (
	"log/slog"
	"os"
)

// NewLogger builds the process-wide logger. JSON output suits aggregated
// environments; the text handler is the default because it reads better on a
// terminal during local runs.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true}
	if cfg != nil && cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
