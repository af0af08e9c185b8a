package logging

import (
	"context"
	"maps"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultLogger is a zap-backed logger
// Debug/Info -> stdout
// Warn/Error/Fatal -> stderr (colored levels on a terminal)
type DefaultLogger struct {
	zl     *zap.Logger
	level  zap.AtomicLevel
	fields Fields
}

// NewDefaultLogger creates a new default logger writing console-encoded entries
func NewDefaultLogger() *DefaultLogger {
	return newZapLogger(isTerminal())
}

// NewDefaultLoggerFromZap wraps an existing zap logger. SetLevel filters
// entries before they reach the wrapped core.
func NewDefaultLoggerFromZap(zl *zap.Logger) *DefaultLogger {
	return &DefaultLogger{
		zl:     zl,
		level:  zap.NewAtomicLevelAt(zapcore.DebugLevel),
		fields: make(Fields),
	}
}

func newZapLogger(useColors bool) *DefaultLogger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	if useColors {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	encoder := zapcore.NewConsoleEncoder(encCfg)

	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)

	low := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return level.Enabled(l) && l < zapcore.WarnLevel
	})
	high := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return level.Enabled(l) && l >= zapcore.WarnLevel
	})

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), low),
		zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), high),
	)

	return &DefaultLogger{
		zl:     zap.New(core),
		level:  level,
		fields: make(Fields),
	}
}

// isTerminal checks if stdout is a character device
func isTerminal() bool {
	if fileInfo, _ := os.Stdout.Stat(); fileInfo != nil {
		return (fileInfo.Mode() & os.ModeCharDevice) != 0
	}
	return false
}

func toZapLevel(level Level) zapcore.Level {
	switch level {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	case FatalLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func (d *DefaultLogger) zapFields(err error, fields ...Fields) []zap.Field {
	allFields := make(Fields, len(d.fields))
	maps.Copy(allFields, d.fields)
	for _, f := range fields {
		maps.Copy(allFields, f)
	}

	out := make([]zap.Field, 0, len(allFields)+1)
	if err != nil {
		out = append(out, zap.Error(err))
	}
	for k, v := range allFields {
		out = append(out, zap.Any(k, v))
	}
	return out
}

func (d *DefaultLogger) Debug(msg string, fields ...Fields) {
	if !d.level.Enabled(zapcore.DebugLevel) {
		return
	}
	d.zl.Debug(msg, d.zapFields(nil, fields...)...)
}

func (d *DefaultLogger) Info(msg string, fields ...Fields) {
	if !d.level.Enabled(zapcore.InfoLevel) {
		return
	}
	d.zl.Info(msg, d.zapFields(nil, fields...)...)
}

func (d *DefaultLogger) Warn(msg string, fields ...Fields) {
	if !d.level.Enabled(zapcore.WarnLevel) {
		return
	}
	d.zl.Warn(msg, d.zapFields(nil, fields...)...)
}

func (d *DefaultLogger) Error(err error, msg string, fields ...Fields) {
	if !d.level.Enabled(zapcore.ErrorLevel) {
		return
	}
	d.zl.Error(msg, d.zapFields(err, fields...)...)
}

func (d *DefaultLogger) Fatal(err error, msg string, fields ...Fields) {
	d.zl.Fatal(msg, d.zapFields(err, fields...)...)
}

func (d *DefaultLogger) WithFields(fields Fields) Logger {
	newFields := make(Fields)
	maps.Copy(newFields, d.fields)
	maps.Copy(newFields, fields)

	return &DefaultLogger{
		zl:     d.zl,
		level:  d.level,
		fields: newFields,
	}
}

func (d *DefaultLogger) WithContext(ctx context.Context) Logger {
	if fields, ok := fieldsFromContext(ctx); ok {
		return d.WithFields(fields)
	}
	return d
}

// SetLevel changes the level shared by this logger and every logger derived from it
func (d *DefaultLogger) SetLevel(level Level) {
	d.level.SetLevel(toZapLevel(level))
}

// Sync flushes buffered entries
func (d *DefaultLogger) Sync() error {
	return d.zl.Sync()
}

// NoOpLogger is a logger that does nothing, used in tests and when logging is disabled
type NoOpLogger struct{}

func (n *NoOpLogger) Debug(msg string, fields ...Fields)            {}
func (n *NoOpLogger) Info(msg string, fields ...Fields)             {}
func (n *NoOpLogger) Warn(msg string, fields ...Fields)             {}
func (n *NoOpLogger) Error(err error, msg string, fields ...Fields) {}
func (n *NoOpLogger) Fatal(err error, msg string, fields ...Fields) {}
func (n *NoOpLogger) WithFields(fields Fields) Logger               { return n }
func (n *NoOpLogger) WithContext(ctx context.Context) Logger        { return n }
func (n *NoOpLogger) SetLevel(level Level)                          {}
