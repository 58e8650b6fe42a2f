package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"HuntScanner/internal/config"
)

// New creates a console slog.Logger with the provided level string.
func New(level string) *slog.Logger {
	return newWithWriter(os.Stdout, level)
}

// NewFromConfig builds the logger; when a file is configured, output
// goes to both stdout and a size-rotated log file.
func NewFromConfig(cfg config.LoggingConfig) *slog.Logger {
	if cfg.File == "" {
		return New(cfg.Level)
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}
	return newWithWriter(io.MultiWriter(os.Stdout, rotator), cfg.Level)
}

func newWithWriter(w io.Writer, level string) *slog.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: levelFromString(level),
	})
	return slog.New(handler)
}

func levelFromString(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "error":
		return slog.LevelError
	case "warn", "warning":
		return slog.LevelWarn
	case "info":
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}
