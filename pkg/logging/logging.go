// Package logging configures colored structured logging with tint.
//
// Usage:
//
//	logging.Setup("info")                    // level name from config
//	logging.SetupWithLevel(slog.LevelDebug)  // explicit level override
package logging

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Setup configures colored logging at the named level (debug, info,
// warn, error; default info) and returns the logger it installed.
func Setup(level string) *slog.Logger {
	return SetupWithLevel(parseLevel(level))
}

// SetupWithLevel configures colored logging at the given level.
func SetupWithLevel(level slog.Level) *slog.Logger {
	logger := slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
			AddSource:  true,
		}),
	)
	slog.SetDefault(logger)
	return logger
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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
