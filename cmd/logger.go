package cmd

import (
	"io"
	"log/slog"

	console "github.com/phsym/console-slog"
)

func parseLevel(level string) slog.Level {
	switch level {
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

// newLogger builds the process logger. "console" gives colored,
// human-oriented output for bench work; anything else is JSON.
func newLogger(w io.Writer, level, format string) *slog.Logger {
	lvl := parseLevel(level)

	var handler slog.Handler
	if format == "console" {
		handler = console.NewHandler(w, &console.HandlerOptions{
			AddSource: lvl == slog.LevelDebug,
			Level:     lvl,
		})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	}
	return slog.New(handler)
}
