package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New builds the application logger. Development gets a readable text
// handler at debug level, everything else JSON at info level. level, when
// set, overrides the environment default.
func New(env, level string) *slog.Logger {
	return NewWithWriter(os.Stdout, env, level)
}

func NewWithWriter(w io.Writer, env, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var handler slog.Handler
	if env == "development" {
		opts.Level = slog.LevelDebug
		if lvl, ok := parseLevel(level); ok {
			opts.Level = lvl
		}
		handler = slog.NewTextHandler(w, opts)
	} else {
		if lvl, ok := parseLevel(level); ok {
			opts.Level = lvl
		}
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler)
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}
