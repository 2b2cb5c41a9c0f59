// Package logging carries a zap logger through contexts.
package logging

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type loggerKey struct{}

var (
	defaultLogger     *zap.SugaredLogger
	defaultLoggerOnce sync.Once
)

// NewLogger builds a JSON production logger; debug lowers the level to debug.
func NewLogger(debug bool) *zap.SugaredLogger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.MessageKey = "message"
	config.EncoderConfig.LevelKey = "severity"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if debug {
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	logger, err := config.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return logger.Sugar()
}

// DefaultLogger returns the process-wide fallback logger.
func DefaultLogger() *zap.SugaredLogger {
	defaultLoggerOnce.Do(func() {
		defaultLogger = NewLogger(false).Named("default")
	})
	return defaultLogger
}

func WithLogger(ctx context.Context, logger *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger stored in ctx, or DefaultLogger.
func FromContext(ctx context.Context) *zap.SugaredLogger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerKey{}).(*zap.SugaredLogger); ok {
			return logger
		}
	}
	return DefaultLogger()
}
