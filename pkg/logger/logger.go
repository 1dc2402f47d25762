package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New builds the process logger. Production environments log JSON, every
// other environment logs human readable text.
func New(lvl string, addSource bool, enviroment string) *slog.Logger {
	return NewWithWriter(os.Stdout, lvl, addSource, enviroment)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, lvl string, addSource bool, enviroment string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     ParseLevel(lvl),
		AddSource: addSource,
	}

	var handler slog.Handler
	if strings.ToLower(enviroment) == "prod" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler).With(
		slog.String("environment", enviroment),
		slog.String("service", "audio-relay"),
	)
}

// Discard returns a logger that drops every record. Handy for tests and for
// one-shot CLI runs where only the JSON output matters.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
