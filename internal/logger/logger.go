// Package logger wraps zap construction behind a small, level-configurable
// facade shared by the binary and the tests.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger carries the configured zap logger.
type Logger struct {
	// Log is the underlying structured logger.
	Log *zap.Logger
}

// New returns a Logger with a no-op zap logger; call Init to configure it.
func New() *Logger {
	return &Logger{Log: zap.NewNop()}
}

// Init builds a production zap logger at the given level ("debug", "info",
// "warn", "error") and replaces the current one.
func (l *Logger) Init(level string) error {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("parse log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	log, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	l.Log = log
	return nil
}
