package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Fields holds structured log fields
type Fields map[string]any

// Logger is the logging interface used throughout the application
type Logger interface {
	Debug(msg string, fields ...Fields)
	Info(msg string, fields ...Fields)
	Warn(msg string, fields ...Fields)
	Error(msg string, fields ...Fields)
	WithFields(fields Fields) Logger
}

// zapLogger implements Logger on top of a zap.SugaredLogger
type zapLogger struct {
	sugar *zap.SugaredLogger
}

// NewDefaultLogger creates a logger writing human-readable output to stderr
// at info level
func NewDefaultLogger() Logger {
	return NewLogger("info")
}

// NewLogger creates a logger at the given level (debug, info, warn, error)
func NewLogger(level string) Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.Lock(os.Stderr),
		parseLevel(level),
	)

	return &zapLogger{sugar: zap.New(core).Sugar()}
}

// WithFields returns a logger that includes the given fields on every entry
func WithFields(fields Fields) Logger {
	return NewDefaultLogger().WithFields(fields)
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *zapLogger) Debug(msg string, fields ...Fields) {
	l.sugar.Debugw(msg, flatten(fields)...)
}

func (l *zapLogger) Info(msg string, fields ...Fields) {
	l.sugar.Infow(msg, flatten(fields)...)
}

func (l *zapLogger) Warn(msg string, fields ...Fields) {
	l.sugar.Warnw(msg, flatten(fields)...)
}

func (l *zapLogger) Error(msg string, fields ...Fields) {
	l.sugar.Errorw(msg, flatten(fields)...)
}

func (l *zapLogger) WithFields(fields Fields) Logger {
	return &zapLogger{sugar: l.sugar.With(flatten([]Fields{fields})...)}
}

// flatten converts Fields maps to zap's alternating key/value form
func flatten(fields []Fields) []any {
	var kv []any
	for _, f := range fields {
		for k, v := range f {
			kv = append(kv, k, v)
		}
	}
	return kv
}
