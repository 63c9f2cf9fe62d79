package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Setup builds the process logger (text lines on stderr) and installs it as
// the slog default. The level string comes from HEARTH_LOG_LEVEL.
func Setup(level string) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(level),
	}))
	slog.SetDefault(logger)
	return logger
}

// parseLevel maps "debug", "warn", and "error" (case-insensitive) to their
// slog levels; anything else, including empty, is info.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
