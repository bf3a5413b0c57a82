// Package logging provides the injectable leveled logger every index
// component accepts. It is backed by zap but exposed as a small interface
// so callers never need to import zap themselves, and a no-op
// implementation is the default when nothing is configured.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the leveled logging surface threaded through every build,
// search and mutation path.
type Logger interface {
	Trace(msg string, fields ...zap.Field)
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	With(fields ...zap.Field) Logger
}

type zapLogger struct {
	sugar *zap.Logger
}

// Trace has no dedicated zap level; it is mapped to Debug so it still
// shows up when callers enable debug-level logging.
func (l *zapLogger) Trace(msg string, fields ...zap.Field) { l.sugar.Debug(msg, fields...) }
func (l *zapLogger) Debug(msg string, fields ...zap.Field) { l.sugar.Debug(msg, fields...) }
func (l *zapLogger) Info(msg string, fields ...zap.Field)  { l.sugar.Info(msg, fields...) }
func (l *zapLogger) Warn(msg string, fields ...zap.Field)  { l.sugar.Warn(msg, fields...) }
func (l *zapLogger) Error(msg string, fields ...zap.Field) { l.sugar.Error(msg, fields...) }
func (l *zapLogger) With(fields ...zap.Field) Logger {
	return &zapLogger{sugar: l.sugar.With(fields...)}
}

type noopLogger struct{}

func (noopLogger) Trace(string, ...zap.Field)   {}
func (noopLogger) Debug(string, ...zap.Field)   {}
func (noopLogger) Info(string, ...zap.Field)    {}
func (noopLogger) Warn(string, ...zap.Field)    {}
func (noopLogger) Error(string, ...zap.Field)   {}
func (noopLogger) With(...zap.Field) Logger     { return noopLogger{} }

// NoOp returns a Logger that discards everything. It is the default for
// every component so that embedding this module never forces a logging
// dependency on the caller.
func NoOp() Logger { return noopLogger{} }

// FileConfig configures a rotating file sink for New.
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// New builds a zap-backed Logger at the given level ("debug", "info",
// "warn", "error"). When file is non-nil, output is routed through a
// lumberjack rolling writer instead of stderr.
func New(level string, file *FileConfig) (Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderCfg)

	var sink zapcore.WriteSyncer
	if file != nil {
		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename:   file.Path,
			MaxSize:    file.MaxSizeMB,
			MaxBackups: file.MaxBackups,
			MaxAge:     file.MaxAgeDays,
			Compress:   file.Compress,
		})
	} else {
		sink = zapcore.Lock(os.Stderr)
	}

	core := zapcore.NewCore(encoder, sink, lvl)
	return &zapLogger{sugar: zap.New(core)}, nil
}
