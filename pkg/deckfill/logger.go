package deckfill

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a production zap logger at the given level. Level accepts
// the usual zap names: debug, info, warn, error.
func NewLogger(level string) (*zap.Logger, error) {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parsed)
	return cfg.Build()
}

// ensureLogger returns a usable logger, falling back to the production
// default when the caller passed nil.
func ensureLogger(logger *zap.Logger) *zap.Logger {
	if logger != nil {
		return logger
	}
	logger, _ = zap.NewProduction()
	return logger
}
