package modelfleet

import (
	"log/slog"
	"os"
)

// LoggingConfig configures the logger handed to provider clients.
type LoggingConfig struct {
	// Logger overrides the constructed logger if provided.
	Logger *slog.Logger

	// Handler is used to build a logger if Logger is nil.
	Handler slog.Handler

	// Level is used when creating a default handler if Logger and Handler
	// are nil.
	Level slog.Level

	// JSON selects JSON output for the default handler.
	JSON bool
}

// NewLogger resolves a logger from the config, falling back to a text
// handler on stderr at the configured level.
func NewLogger(cfg LoggingConfig) *slog.Logger {
	if cfg.Logger != nil {
		return cfg.Logger
	}
	if cfg.Handler != nil {
		return slog.New(cfg.Handler)
	}
	opts := &slog.HandlerOptions{Level: cfg.Level}
	if cfg.JSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
