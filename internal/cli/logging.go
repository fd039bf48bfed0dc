package cli

import (
	"io"
	"log/slog"
	"strconv"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/felixgeelhaar/covergate/internal/application"
)

const (
	logMaxSize    = 10
	logMaxBackups = 3
	logMaxAge     = 28
)

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Allow numeric slog levels as well (e.g. -4 for debug).
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger builds the process logger. Logs go to a rotating file when
// one is configured, to stderr when only verbose is set, and nowhere
// otherwise. The returned func releases the log file.
func configureLogger(cfg application.LogConfig, verbose bool, stderr io.Writer) (*slog.Logger, func() error) {
	logLevel := parseSlogLevel(cfg.Level, slog.LevelInfo)
	if verbose {
		logLevel = slog.LevelDebug
	}

	var (
		out     io.Writer = io.Discard
		closeFn           = func() error { return nil }
	)
	switch {
	case strings.TrimSpace(cfg.Filename) != "":
		logWriter := &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    logMaxSize,
			MaxBackups: logMaxBackups,
			MaxAge:     logMaxAge,
			Compress:   true,
		}
		out = logWriter
		closeFn = logWriter.Close
	case verbose:
		out = stderr
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{
		AddSource: logLevel <= slog.LevelDebug,
		Level:     logLevel,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, closeFn
}
