// Package logging builds the core's shared structured logger. The teacher
// codebase's own event bus takes a *slog.Logger (see events.WithLogger); this
// package is the one place that constructs it so every subsystem logs
// through the same handler and level.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// New builds a slog.Logger at the given level ("debug"|"info"|"warn"|"error")
// writing to os.Stderr, either as text or JSON.
func New(level, format string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}

// Nop returns a logger that discards everything, for tests that don't want
// log noise on stderr.
func Nop() *slog.Logger {
	return slog.New(slog.NewTextHandler(discard{}, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
