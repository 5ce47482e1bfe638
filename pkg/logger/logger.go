package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var defaultLogger *slog.Logger

// Options selects handler and level; zero values fall back to a text debug logger.
type Options struct {
	Env    string
	Level  string
	Format string
	Output io.Writer
}

func Init(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	level := ParseLevel(opts.Level)
	format := opts.Format
	if format == "" {
		format = "text"
		if opts.Env == "production" {
			format = "json"
		}
	}
	if opts.Level == "" && opts.Env == "production" {
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(out, handlerOpts)
	} else {
		handler = slog.NewTextHandler(out, handlerOpts)
	}

	defaultLogger = slog.New(handler).With("env", envOrDefault(opts.Env))
	slog.SetDefault(defaultLogger)
	return defaultLogger
}

// ParseLevel maps debug/info/warn/error onto slog levels; unknown values mean debug.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}

func envOrDefault(env string) string {
	if env == "" {
		return "development"
	}
	return env
}

func LoggerWrapper() *slog.Logger {
	if defaultLogger == nil {
		// lazy initialize a development logger to avoid nil pointer panics
		Init(Options{Env: "development"})
	}
	return defaultLogger
}
