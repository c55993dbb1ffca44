package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(envListenAddr, "")
	t.Setenv(envDBPath, "")
	t.Setenv(envSocketPath, "")
	t.Setenv(envTimeoutMS, "")
	t.Setenv(envScale, "")
	t.Setenv(envLogLevel, "")

	cfg := Load()

	if cfg.ListenAddr != defaultListenAddr {
		t.Errorf("ListenAddr = %q, want %q", cfg.ListenAddr, defaultListenAddr)
	}
	if cfg.DBPath != defaultDBPath {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, defaultDBPath)
	}
	if cfg.SocketPath != defaultSocketPath {
		t.Errorf("SocketPath = %q, want %q", cfg.SocketPath, defaultSocketPath)
	}
	if cfg.BaseTimeout != defaultTimeoutMS*time.Millisecond {
		t.Errorf("BaseTimeout = %v, want %v", cfg.BaseTimeout, defaultTimeoutMS*time.Millisecond)
	}
	if cfg.AnimatorScale != 1.0 {
		t.Errorf("AnimatorScale = %v, want 1.0", cfg.AnimatorScale)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want %v", cfg.LogLevel, slog.LevelInfo)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv(envListenAddr, ":9090")
	t.Setenv(envDBPath, "/tmp/test.db")
	t.Setenv(envSocketPath, "/tmp/test.sock")
	t.Setenv(envTimeoutMS, "5000")
	t.Setenv(envScale, "2.5")
	t.Setenv(envLogLevel, "debug")

	cfg := Load()

	if cfg.ListenAddr != ":9090" {
		t.Errorf("ListenAddr = %q, want %q", cfg.ListenAddr, ":9090")
	}
	if cfg.DBPath != "/tmp/test.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "/tmp/test.db")
	}
	if cfg.SocketPath != "/tmp/test.sock" {
		t.Errorf("SocketPath = %q, want %q", cfg.SocketPath, "/tmp/test.sock")
	}
	if cfg.BaseTimeout != 5*time.Second {
		t.Errorf("BaseTimeout = %v, want 5s", cfg.BaseTimeout)
	}
	if cfg.AnimatorScale != 2.5 {
		t.Errorf("AnimatorScale = %v, want 2.5", cfg.AnimatorScale)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want %v", cfg.LogLevel, slog.LevelDebug)
	}
}

func TestLoadRejectsInvalidNumbers(t *testing.T) {
	t.Setenv(envTimeoutMS, "not-a-number")
	t.Setenv(envScale, "-1")

	cfg := Load()

	if cfg.BaseTimeout != defaultTimeoutMS*time.Millisecond {
		t.Errorf("BaseTimeout = %v, want default %v", cfg.BaseTimeout, defaultTimeoutMS*time.Millisecond)
	}
	if cfg.AnimatorScale != 1.0 {
		t.Errorf("AnimatorScale = %v, want default 1.0", cfg.AnimatorScale)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		got := parseLogLevel(tt.input)
		if got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNewLoggerOutputsJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo)
	if logger == nil {
		t.Fatal("NewLogger returned nil")
	}

	logger.Info("test message", "key", "value")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("logger output is not valid JSON: %v\noutput: %s", err, buf.String())
	}

	for _, key := range []string{"time", "level", "msg"} {
		if _, ok := entry[key]; !ok {
			t.Errorf("JSON output missing expected key %q", key)
		}
	}
	if entry["msg"] != "test message" {
		t.Errorf("msg = %v, want %q", entry["msg"], "test message")
	}
	if entry["key"] != "value" {
		t.Errorf("key = %v, want %q", entry["key"], "value")
	}
}
