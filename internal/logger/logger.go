// Package logger wraps zap logger construction for the client and the server.
package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Logger holds the process logger. Log is a no-op logger until Init succeeds.
type Logger struct {
	Log *zap.Logger
}

// New returns a Logger backed by a no-op zap logger.
func New() *Logger {
	return &Logger{Log: zap.NewNop()}
}

// Init builds a JSON zap logger at the given level ("debug", "Info", ...),
// case-insensitively.
// Outputs are zap sink paths; stdout is used when none are given.
func (l *Logger) Init(level string, outputs ...string) error {
	lvl, err := zap.ParseAtomicLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	cfg.Sampling = nil
	if len(outputs) > 0 {
		cfg.OutputPaths = outputs
	}

	zl, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	l.Log = zl
	return nil
}
