package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options configures Init.
type Options struct {
	// Level is a LOG_LEVEL style string; empty means info.
	Level string
	// EnableOTel additionally exports records through the global OTel
	// logger provider.
	EnableOTel bool
	// Output defaults to stdout.
	Output io.Writer
}

// Init builds the JSON logger and installs it as slog's default. Records
// logged with a context carry its request-scoped keys.
func Init(opts Options) *slog.Logger {
	level := ParseLevel(opts.Level)
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	var handler slog.Handler = NewTraceContextHandler(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level}))
	if opts.EnableOTel {
		handler = NewMultiHandler(handler, NewOTelHandler(level))
	}

	logger := slog.New(handler).With("service", "wework-hub")
	slog.SetDefault(logger)

	return logger
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
