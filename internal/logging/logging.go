// Package logging provides structured logging infrastructure for
// SakuraTree.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakura-stack/sakura-tree/internal/config"
)

// NewFromConfig creates a new slog.Logger based on configuration.
func NewFromConfig(cfg *config.Config, baseDir string) (*slog.Logger, io.Closer, error) {
	level := parseLevel(cfg.Logging.Level)
	handler := newHandler(cfg.Logging.Format, os.Stderr, level)

	var closer io.Closer
	if logPath := cfg.LogFile(baseDir); logPath != "" {
		if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
			return nil, nil, err
		}

		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, err
		}
		closer = file

		multi := io.MultiWriter(os.Stderr, file)
		handler = newHandler(cfg.Logging.Format, multi, level)
	}

	return slog.New(handler), closer, nil
}

// NewDefault creates a default logger writing to stderr.
func NewDefault() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// NewForTest creates a silent logger for tests.
func NewForTest() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// parseLevel converts the config log level to slog.Level.
func parseLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogLevelDebug:
		return slog.LevelDebug
	case config.LogLevelInfo:
		return slog.LevelInfo
	case config.LogLevelWarn:
		return slog.LevelWarn
	case config.LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newHandler creates a slog.Handler based on format.
func newHandler(format config.LogFormat, w io.Writer, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}

	switch format {
	case config.LogFormatJSON:
		return slog.NewJSONHandler(w, opts)
	case config.LogFormatText:
		return slog.NewTextHandler(w, opts)
	default:
		return slog.NewTextHandler(w, opts)
	}
}

// WithTree returns a logger with tree context.
func WithTree(logger *slog.Logger, treeID string) *slog.Logger {
	return logger.With("tree_id", treeID)
}

// WithBlossom returns a logger with blossom context.
func WithBlossom(logger *slog.Logger, groupType, blossomType string) *slog.Logger {
	return logger.With("blossom_group", groupType, "blossom_type", blossomType)
}
