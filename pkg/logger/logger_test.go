package logger

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	log := New(Config{})
	if log == nil {
		t.Fatal("New() returned nil")
	}

	// Should not panic with any call.
	log.Debug("debug message")
	log.Info("info message", "key", "value")
	log.Warn("warn message")
	log.Error("error message", "error", "test")
}

func TestNew_FileOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	logFile := filepath.Join(dir, "diag.log")

	log := New(Config{
		Level:  "info",
		Output: logFile,
		Format: "text",
	})

	log.Info("test message", "component", "pricing")

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	if !strings.Contains(string(data), "test message") {
		t.Errorf("log file missing message, got: %s", string(data))
	}
	if !strings.Contains(string(data), "component=pricing") {
		t.Errorf("log file missing field, got: %s", string(data))
	}
}

func TestNew_JSONFormat(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	logFile := filepath.Join(dir, "diag.json")

	log := New(Config{
		Level:  "info",
		Output: logFile,
		Format: "json",
	})

	log.Info("json test", "count", 42)

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	if !strings.Contains(string(data), `"msg":"json test"`) {
		t.Errorf("expected JSON output, got: %s", string(data))
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	logFile := filepath.Join(dir, "diag.log")

	log := New(Config{
		Level:  "warn",
		Output: logFile,
	})

	log.Debug("should not appear")
	log.Info("should not appear either")
	log.Warn("should appear")

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	out := string(data)
	if strings.Contains(out, "should not appear") {
		t.Errorf("level filtering failed, got: %s", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Errorf("warn message missing, got: %s", out)
	}
}

func TestWith_AddsFields(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	logFile := filepath.Join(dir, "diag.log")

	log := New(Config{
		Level:  "info",
		Output: logFile,
	})

	child := log.With("session", "abc-123")
	child.Info("with context")

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	if !strings.Contains(string(data), "session=abc-123") {
		t.Errorf("context field missing, got: %s", string(data))
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"", slog.LevelWarn},
		{"bogus", slog.LevelWarn},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestGetWriter_StdoutRemapped(t *testing.T) {
	t.Parallel()

	// stdout carries the statusline, so "stdout" must resolve to stderr.
	w, err := getWriter("stdout")
	if err != nil {
		t.Fatalf("getWriter(stdout) error: %v", err)
	}
	if w != os.Stderr {
		t.Error("getWriter(stdout) did not remap to stderr")
	}
}

func TestNoop_DiscardsEverything(t *testing.T) {
	t.Parallel()

	log := Noop()
	log.Debug("discarded")
	log.Info("discarded")
	log.Warn("discarded")
	log.Error("discarded")
	log.With("key", "value").Info("discarded")
}

func TestDefault(t *testing.T) {
	t.Parallel()

	log := Default()
	if log == nil {
		t.Fatal("Default() returned nil")
	}
}
