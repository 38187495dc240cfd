package core

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNoopLogger(_ *testing.T) {
	logger := NoopLogger()
	logger.Debug("debug", "key", "value")
	logger.Info("info", "key", "value")
	logger.Warn("warn", "key", "value")
	logger.Error("error", "key", "value")
}

func TestZapLoggerForwardsFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewZapLogger(zap.New(core))

	logger.Debug("debug", "kind", "food")
	logger.Info("info", "id", int64(7))
	logger.Warn("warn")
	logger.Error("error", "err", "boom")

	entries := logs.AllUntimed()
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}
	wantLevels := []zapcore.Level{zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel}
	for i, e := range entries {
		if e.Level != wantLevels[i] {
			t.Fatalf("entry %d level %v, want %v", i, e.Level, wantLevels[i])
		}
	}
	if got := entries[1].ContextMap()["id"]; got != int64(7) {
		t.Fatalf("unexpected id field %v", got)
	}
	if NewZapLogger(nil) != NoopLogger() {
		t.Fatalf("nil zap logger must fall back to noop")
	}
}

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	logger.Debug("debug msg", "kind", "place")
	logger.Warn("warn msg")
	out := buf.String()
	if !strings.Contains(out, "debug msg") || !strings.Contains(out, "kind=place") || !strings.Contains(out, "level=WARN") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestBuildZap(t *testing.T) {
	l, err := BuildZap("debug")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !l.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("debug level not enabled")
	}
	if _, err := BuildZap("loud"); err == nil {
		t.Fatalf("expected level error")
	}
}
