// Package logging sets up the debug log. The terminal belongs to the UI, so log
// records only ever go to a file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Discard returns a logger that drops every record.
func Discard() *zap.Logger {
	return zap.NewNop()
}

// ParseLevel maps a config level name to a zap level. Unknown names fall back
// to info.
func ParseLevel(name string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// Open returns a logger appending console-encoded records to path. An empty
// path yields a discarding logger. The returned closer flushes the logger and
// closes the file; it must be called on shutdown.
func Open(path, level string) (*zap.Logger, io.Closer, error) {
	if path == "" {
		return Discard(), closerFunc(func() error { return nil }), nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	core := zapcore.NewCore(encoder, zapcore.AddSync(f), ParseLevel(level))
	logger := zap.New(core)

	return logger, closerFunc(func() error {
		_ = logger.Sync()
		return f.Close()
	}), nil
}
