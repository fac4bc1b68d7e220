// Package logger installs the process-wide structured logger.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Init creates a slog.Logger tagged with service and sets it as the default,
// so package-level slog.Info() calls share the same handler.
// format "text" selects a text handler; anything else writes JSON.
func Init(service string, level slog.Level, format string) *slog.Logger {
	return initTo(os.Stdout, service, level, format)
}

func initTo(w io.Writer, service string, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if strings.EqualFold(format, "text") {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}

	logger := slog.New(h).With(slog.String("service", service))
	slog.SetDefault(logger)
	return logger
}

// ParseLevel maps debug|info|warn|error to a slog.Level. Unknown values yield info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
