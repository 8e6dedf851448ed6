package observability

import (
	"context"
	"log/slog"
	"os"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/education-choropleth/internal/config"
)

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// installs it as the slog default.
func NewLogger(cfg *config.Config) *slog.Logger {
	return sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
}

// NewCLILogger returns a text logger on stderr so one-shot commands keep
// stdout for their output. The level is resolved the same way as NewLogger.
func NewCLILogger(level string) *slog.Logger {
	lvl := enabledLevel(sharedobs.NewLogger(level, "text").Handler())
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger
}

// enabledLevel reports the lowest level h accepts.
func enabledLevel(h slog.Handler) slog.Level {
	for _, l := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn} {
		if h.Enabled(context.Background(), l) {
			return l
		}
	}
	return slog.LevelError
}
