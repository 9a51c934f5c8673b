package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestConsoleHandlerRendersComponentPrefix(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, levelVar))

	logger = logger.With(String(FieldComponent, "syncer"))
	logger.Info("pass complete", Int("delivered", 2))

	line := buf.String()
	if !strings.Contains(line, "INFO syncer: pass complete") {
		t.Fatalf("unexpected console line: %q", line)
	}
	if !strings.Contains(line, "delivered=2") {
		t.Fatalf("expected delivered attr in line: %q", line)
	}
}

func TestConsoleHandlerQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, levelVar))

	logger.Warn("delivery failed", String("reason", "connection refused"))

	if !strings.Contains(buf.String(), `reason="connection refused"`) {
		t.Fatalf("expected quoted value, got %q", buf.String())
	}
}

func TestConsoleHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelWarn)
	handler := newConsoleHandler(&buf, levelVar)

	if handler.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("debug should be disabled at warn level")
	}
	if !handler.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("error should be enabled at warn level")
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	if got := parseLevel("verbose"); got != slog.LevelInfo {
		t.Fatalf("expected info fallback, got %v", got)
	}
	if got := parseLevel("debug"); got != slog.LevelDebug {
		t.Fatalf("expected debug, got %v", got)
	}
}
