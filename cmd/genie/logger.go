package main

import (
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
)

// createCLILogger creates a logger for CLI commands that writes to stderr
func createCLILogger(logLevel string, noColor bool) *slog.Logger {
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:   parseLogLevel(logLevel),
		NoColor: noColor,
	}))
}

// createServerLogger honours logging.format for `genie serve`
func createServerLogger(logLevel, format string, noColor bool) *slog.Logger {
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: parseLogLevel(logLevel),
		}))
	}
	return createCLILogger(logLevel, noColor)
}

// parseLogLevel converts string log level to slog.Level
func parseLogLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
