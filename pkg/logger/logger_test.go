package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestFromEnv(t *testing.T) {
	dev := FromEnv("development", "")
	if !dev.IsDevelopment || dev.Encoding != "console" || dev.Level != "debug" {
		t.Fatalf("unexpected development config %+v", dev)
	}

	prod := FromEnv("production", "warn")
	if prod.IsDevelopment || prod.Encoding != "json" || prod.Level != "warn" {
		t.Fatalf("unexpected production config %+v", prod)
	}
}

func TestNewFallsBackToInfo(t *testing.T) {
	log, err := New(Config{Level: "chatty"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if !log.Core().Enabled(zapcore.InfoLevel) || log.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("expected info level")
	}
}
