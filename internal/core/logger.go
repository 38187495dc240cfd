package core

import (
	"context"
	"fmt"
	"log/slog"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logger used across the service layer. Arguments
// are alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// NoopLogger discards everything.
func NoopLogger() Logger { return noopLogger{} }

type zapLogger struct {
	s *zap.SugaredLogger
}

// NewZapLogger adapts a zap logger.
func NewZapLogger(l *zap.Logger) Logger {
	if l == nil {
		return noopLogger{}
	}
	return zapLogger{s: l.Sugar()}
}

func (z zapLogger) Debug(msg string, args ...any) { z.s.Debugw(msg, args...) }
func (z zapLogger) Info(msg string, args ...any)  { z.s.Infow(msg, args...) }
func (z zapLogger) Warn(msg string, args ...any)  { z.s.Warnw(msg, args...) }
func (z zapLogger) Error(msg string, args ...any) { z.s.Errorw(msg, args...) }

// BuildZap returns a production zap logger at the named level.
func BuildZap(level string) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("log level %q: %w", level, err)
		}
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

type slogLogger struct {
	l *slog.Logger
}

// NewSlogLogger adapts a log/slog logger.
func NewSlogLogger(l *slog.Logger) Logger {
	if l == nil {
		return noopLogger{}
	}
	return slogLogger{l: l}
}

func (s slogLogger) Debug(msg string, args ...any) { s.l.Log(context.Background(), slog.LevelDebug, msg, args...) }
func (s slogLogger) Info(msg string, args ...any)  { s.l.Log(context.Background(), slog.LevelInfo, msg, args...) }
func (s slogLogger) Warn(msg string, args ...any)  { s.l.Log(context.Background(), slog.LevelWarn, msg, args...) }
func (s slogLogger) Error(msg string, args ...any) { s.l.Log(context.Background(), slog.LevelError, msg, args...) }
