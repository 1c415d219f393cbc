// Package logger configures the process-wide structured logger.
//
// Every command calls Setup once at startup; after that, code anywhere in the
// program logs through the slog default (slog.Info, slog.Warn, ...). The
// handler is tint writing to stderr, with color disabled when stderr is not a
// terminal or NO_COLOR is set.
package logger

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Setup installs the default slog logger and returns it. Unknown level names
// fall back to info; callers that care should lint the level up front
// (config.ValidateConfig does).
func Setup(level string) *slog.Logger {
	ll := &slog.LevelVar{}
	ll.Set(ParseLevel(level))

	noColor := os.Getenv("NO_COLOR") != "" || !isatty.IsTerminal(os.Stderr.Fd())
	logger := slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      ll,
		TimeFormat: "15:04:05.000", // time.TimeOnly plus milliseconds
		NoColor:    noColor,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Drop zero-valued attrs to keep progress lines compact.
			switch v := a.Value.Any().(type) {
			case string:
				if v == "" {
					return slog.Attr{}
				}
			case time.Duration:
				if v == 0 {
					return slog.Attr{}
				}
			case nil:
				return slog.Attr{}
			}
			return a
		},
	}))
	slog.SetDefault(logger)
	return logger
}

// ParseLevel maps a level name to its slog level. Empty or unknown names map
// to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
