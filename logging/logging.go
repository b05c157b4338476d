// Package logging sets up the node's structured logger: log/slog. Without a
// log file it writes slog's plain text format to stdout through
// github.com/mattn/go-colorable, and github.com/mattn/go-isatty decides only
// whether source locations are added (when stdout is a terminal); no ANSI
// color is emitted. With a log file it writes JSON, rotated through
// gopkg.in/natefinch/lumberjack.v2.
package logging

import (
	"log/slog"
	"os"
	"strings"

	colorable "github.com/mattn/go-colorable"
	isatty "github.com/mattn/go-isatty"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup builds the root logger for the process. level is one of
// "debug", "info", "warn", "error" (case-insensitive, defaults to info).
// When logFile is non-empty, output goes to a rotating file instead of the
// terminal.
func Setup(level, logFile string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	if logFile != "" {
		writer := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    100, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		}
		handler = slog.NewJSONHandler(writer, opts)
	} else {
		out := colorable.NewColorable(os.Stdout)
		opts.AddSource = isatty.IsTerminal(os.Stdout.Fd())
		handler = slog.NewTextHandler(out, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// Component returns a child logger tagged with a "component" attribute,
// mirroring the teacher's slog.With("component", ...) convention.
func Component(logger *slog.Logger, name string) *slog.Logger {
	return logger.With("component", name)
}
