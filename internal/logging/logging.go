// Package logging owns the process-wide zap logger shared by the bot and console front-ends.
package logging

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects level and encoding for the process logger.
type Options struct {
	Level   string
	Console bool
}

var (
	once    sync.Once
	logger  *zap.Logger
	initErr error
)

// Init builds the process logger. Only the first call has effect; later calls
// return the logger built by the first one.
func Init(opts Options) (*zap.Logger, error) {
	once.Do(func() {
		logger, initErr = build(opts)
	})
	return logger, initErr
}

// L returns the process logger, or a no-op logger before Init has run.
func L() *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func build(opts Options) (*zap.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	var cfg zap.Config
	if opts.Console {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}

	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return l, nil
}

// ParseLevel maps a textual level to a zap level. Empty means info.
func ParseLevel(raw string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", raw)
	}
}
