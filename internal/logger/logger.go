package logger

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field is a structured log field.
type Field = zap.Field

// Logger is the structured logger shared by every component.
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	Fatal(msg string, fields ...zap.Field)

	Debugf(template string, args ...interface{})
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Errorf(template string, args ...interface{})
	Fatalf(template string, args ...interface{})

	// With returns a child logger that adds fields to every entry.
	With(fields ...zap.Field) Logger

	Sync() error
}

type loggerImpl struct {
	base    *zap.Logger
	sugared *zap.SugaredLogger
}

func New(level string, pretty bool) Logger {
	var cfg zap.Config
	if pretty {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
	}

	if lvl := parseLevel(level); lvl != nil {
		cfg.Level = zap.NewAtomicLevelAt(*lvl)
	}

	base, err := cfg.Build(
		zap.AddStacktrace(zapcore.FatalLevel),
		zap.AddCallerSkip(1), // report the caller of the wrapper methods
		zap.Fields(zap.String("service", "pulsepage")),
	)
	if err != nil {
		panic(err)
	}

	return &loggerImpl{
		base:    base,
		sugared: base.Sugar(),
	}
}

// NewNop returns a Logger that discards everything. Used by tests.
func NewNop() Logger {
	base := zap.NewNop()
	return &loggerImpl{base: base, sugared: base.Sugar()}
}

// parseLevel returns nil for an unknown level so the mode default applies.
func parseLevel(lvl string) *zapcore.Level {
	if lvl == "" {
		return nil
	}
	l, err := zapcore.ParseLevel(lvl)
	if err != nil {
		return nil
	}
	return &l
}

func (l *loggerImpl) Debug(msg string, fields ...zap.Field) { l.base.Debug(msg, fields...) }
func (l *loggerImpl) Info(msg string, fields ...zap.Field)  { l.base.Info(msg, fields...) }
func (l *loggerImpl) Warn(msg string, fields ...zap.Field)  { l.base.Warn(msg, fields...) }
func (l *loggerImpl) Error(msg string, fields ...zap.Field) { l.base.Error(msg, fields...) }
func (l *loggerImpl) Fatal(msg string, fields ...zap.Field) { l.base.Fatal(msg, fields...) }

func (l *loggerImpl) Debugf(t string, args ...interface{}) { l.sugared.Debugf(t, args...) }
func (l *loggerImpl) Infof(t string, args ...interface{})  { l.sugared.Infof(t, args...) }
func (l *loggerImpl) Warnf(t string, args ...interface{})  { l.sugared.Warnf(t, args...) }
func (l *loggerImpl) Errorf(t string, args ...interface{}) { l.sugared.Errorf(t, args...) }
func (l *loggerImpl) Fatalf(t string, args ...interface{}) { l.sugared.Fatalf(t, args...) }

func (l *loggerImpl) With(fields ...zap.Field) Logger {
	base := l.base.With(fields...)
	return &loggerImpl{base: base, sugared: base.Sugar()}
}

func (l *loggerImpl) Sync() error { return l.base.Sync() }

// Field constructors, so callers rarely import zap themselves.
func String(key, val string) zap.Field                 { return zap.String(key, val) }
func Strings(key string, val []string) zap.Field       { return zap.Strings(key, val) }
func Int(key string, val int) zap.Field                { return zap.Int(key, val) }
func Int64(key string, val int64) zap.Field            { return zap.Int64(key, val) }
func Bool(key string, val bool) zap.Field              { return zap.Bool(key, val) }
func Duration(key string, val time.Duration) zap.Field { return zap.Duration(key, val) }
func Time(key string, val time.Time) zap.Field         { return zap.Time(key, val) }
func Error(err error) zap.Field                        { return zap.Error(err) }
func Component(name string) zap.Field                  { return zap.String("component", name) }
