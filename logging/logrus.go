package logging

import (
	"context"
	"maps"

	"github.com/sirupsen/logrus"
)

// LogrusLogger adapts a logrus logger to the Logger interface
type LogrusLogger struct {
	base   *logrus.Logger
	fields Fields
}

// NewLogrusLogger wraps base, or a text-formatted stderr logger when base is nil
func NewLogrusLogger(base *logrus.Logger) *LogrusLogger {
	if base == nil {
		base = logrus.New()
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return &LogrusLogger{
		base:   base,
		fields: make(Fields),
	}
}

func (l *LogrusLogger) entry(fields ...Fields) *logrus.Entry {
	allFields := make(logrus.Fields, len(l.fields))
	maps.Copy(allFields, l.fields)
	for _, f := range fields {
		maps.Copy(allFields, f)
	}
	return l.base.WithFields(allFields)
}

func (l *LogrusLogger) Debug(msg string, fields ...Fields) {
	l.entry(fields...).Debug(msg)
}

func (l *LogrusLogger) Info(msg string, fields ...Fields) {
	l.entry(fields...).Info(msg)
}

func (l *LogrusLogger) Warn(msg string, fields ...Fields) {
	l.entry(fields...).Warn(msg)
}

func (l *LogrusLogger) Error(err error, msg string, fields ...Fields) {
	l.entry(fields...).WithError(err).Error(msg)
}

func (l *LogrusLogger) Fatal(err error, msg string, fields ...Fields) {
	l.entry(fields...).WithError(err).Fatal(msg)
}

func (l *LogrusLogger) WithFields(fields Fields) Logger {
	newFields := make(Fields)
	maps.Copy(newFields, l.fields)
	maps.Copy(newFields, fields)
	return &LogrusLogger{base: l.base, fields: newFields}
}

func (l *LogrusLogger) WithContext(ctx context.Context) Logger {
	if fields, ok := fieldsFromContext(ctx); ok {
		return l.WithFields(fields)
	}
	return l
}

func (l *LogrusLogger) SetLevel(level Level) {
	switch level {
	case DebugLevel:
		l.base.SetLevel(logrus.DebugLevel)
	case InfoLevel:
		l.base.SetLevel(logrus.InfoLevel)
	case WarnLevel:
		l.base.SetLevel(logrus.WarnLevel)
	case ErrorLevel:
		l.base.SetLevel(logrus.ErrorLevel)
	case FatalLevel:
		l.base.SetLevel(logrus.FatalLevel)
	}
}
