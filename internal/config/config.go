package config

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultListenAddr = ":8080"
	defaultDBPath     = "marionette.db"
	defaultSocketPath = "/tmp/marionette.sock"
	defaultTimeoutMS  = 2000

	envListenAddr = "MARIONETTE_LISTEN_ADDR"
	envDBPath     = "MARIONETTE_DB_PATH"
	envSocketPath = "MARIONETTE_SOCKET_PATH"
	envTimeoutMS  = "MARIONETTE_TIMEOUT_MS"
	envScale      = "MARIONETTE_ANIMATOR_SCALE"
	envLogLevel   = "MARIONETTE_LOG_LEVEL"
)

// Config holds daemon configuration loaded from environment variables.
type Config struct {
	ListenAddr    string
	DBPath        string
	SocketPath    string
	BaseTimeout   time.Duration
	AnimatorScale float64
	LogLevel      slog.Level
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	cfg := Config{
		ListenAddr:    defaultListenAddr,
		DBPath:        defaultDBPath,
		SocketPath:    defaultSocketPath,
		BaseTimeout:   defaultTimeoutMS * time.Millisecond,
		AnimatorScale: 1.0,
		LogLevel:      slog.LevelInfo,
	}

	if v := os.Getenv(envListenAddr); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv(envDBPath); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv(envSocketPath); v != "" {
		cfg.SocketPath = v
	}
	if v := os.Getenv(envTimeoutMS); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.BaseTimeout = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv(envScale); v != "" {
		if scale, err := strconv.ParseFloat(v, 64); err == nil && scale >= 0 {
			cfg.AnimatorScale = scale
		}
	}
	if v := os.Getenv(envLogLevel); v != "" {
		cfg.LogLevel = parseLogLevel(v)
	}

	return cfg
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a structured JSON logger writing to w at the configured level.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}
