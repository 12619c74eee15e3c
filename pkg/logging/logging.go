// Package logging configures the process-wide slog logger.
//
// Console output goes through tint (colored, human readable); "json" switches
// to slog's JSON handler for log shipping.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Setup installs the default logger for the given level and format and
// returns it.
func Setup(level, format string) *slog.Logger {
	l := New(os.Stderr, ParseLevel(level), format)
	slog.SetDefault(l)
	return l
}

// New builds a logger writing to w without touching the default logger.
func New(w io.Writer, level slog.Level, format string) *slog.Logger {
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.DateTime,
	}))
}

// ParseLevel maps debug/info/warn/error, defaulting to info.
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
