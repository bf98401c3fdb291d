// Package config holds server configuration read from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/evcraddock/gatepass/internal/backend"
)

const defaultDialRate = 6

// Config holds server configuration.
type Config struct {
	DevMode     bool
	LogLevel    slog.Level
	BackendURL  string
	DialWebhook string // empty means calls are only logged
	DialRate    int    // calls per minute
	Location    *time.Location
}

// Dir returns the directory holding the gate database and CLI config:
// $GATE_HOME if set, otherwise ~/.config/gate.
func Dir() (string, error) {
	if v := os.Getenv("GATE_HOME"); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "gate"), nil
}

// LoadDotEnv loads variables from path into the environment without
// overriding ones already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// FromEnv creates a Config from environment variables.
func FromEnv() (Config, error) {
	cfg := Config{
		DevMode:     os.Getenv("GATE_DEV_MODE") == "true",
		BackendURL:  envOrDefault("GATE_BACKEND_URL", backend.DefaultBaseURL),
		DialWebhook: os.Getenv("GATE_DIAL_WEBHOOK"),
		DialRate:    defaultDialRate,
	}

	cfg.LogLevel = slog.LevelInfo
	if cfg.DevMode {
		cfg.LogLevel = slog.LevelDebug
	}
	if v := os.Getenv("GATE_LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return Config{}, fmt.Errorf("GATE_LOG_LEVEL: %w", err)
		}
	}

	if v := os.Getenv("GATE_DIAL_RATE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("GATE_DIAL_RATE must be a positive integer, got %q", v)
		}
		cfg.DialRate = n
	}

	loc, err := time.LoadLocation(envOrDefault("GATE_TIMEZONE", "Local"))
	if err != nil {
		return Config{}, fmt.Errorf("loading GATE_TIMEZONE: %w", err)
	}
	cfg.Location = loc

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
