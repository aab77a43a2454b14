package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger_Environments(t *testing.T) {
	for _, env := range []string{"prod", "local", "dev", "docker", "test"} {
		l, err := NewLogger(env, Options{})
		if err != nil {
			t.Errorf("NewLogger(%q): %v", env, err)
		}
		if l == nil {
			t.Errorf("NewLogger(%q) returned nil logger", env)
		}
	}
}

func TestNewLogger_UnknownEnv(t *testing.T) {
	if _, err := NewLogger("staging", Options{}); err == nil {
		t.Fatal("expected error for unknown env")
	}
}

func TestNewLogger_LevelOverride(t *testing.T) {
	l, err := NewLogger("prod", Options{Level: "warn"})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	if l.Core().Enabled(zapcore.InfoLevel) {
		t.Error("info must be disabled at warn level")
	}
	if _, err := NewLogger("prod", Options{Level: "loud"}); err == nil {
		t.Error("expected error for invalid level")
	}
}

func TestNewLogger_Format(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		if _, err := NewLogger("local", Options{Format: format}); err != nil {
			t.Errorf("format %q: %v", format, err)
		}
	}
	if _, err := NewLogger("local", Options{Format: "xml"}); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestFromContext_DefaultsToNop(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("expected nop logger, got nil")
	}
}

func TestWith_AddsFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := ContextWithLogger(context.Background(), zap.New(core))

	ctx = With(ctx, zap.String("layout", "60%"))
	FromContext(ctx).Info("search")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].ContextMap()["layout"] != "60%" {
		t.Errorf("expected layout field, got %v", entries[0].ContextMap())
	}
}
