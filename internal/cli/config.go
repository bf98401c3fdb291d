package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/evcraddock/gatepass/internal/config"
)

const (
	cliConfigFile    = "config.yaml"
	defaultServerURL = "http://localhost:8080"
)

// CLIConfig is what `gate login` remembers between runs.
type CLIConfig struct {
	ServerURL string `yaml:"server_url,omitempty"`
	APIKey    string `yaml:"api_key,omitempty"`
}

// configPath returns cliConfigFile inside the gate directory, next to
// the database.
func configPath() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, cliConfigFile), nil
}

// loadConfig reads the saved CLI config. A missing file yields the zero value.
func loadConfig() (CLIConfig, error) {
	path, err := configPath()
	if err != nil {
		return CLIConfig{}, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return CLIConfig{}, nil
	}
	if err != nil {
		return CLIConfig{}, fmt.Errorf("reading %s: %w", path, err)
	}

	var cfg CLIConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return CLIConfig{}, fmt.Errorf("parsing %s: %w", path, err)
	}

	return cfg, nil
}

// saveConfig writes cfg owner-only, since it holds the API key.
func saveConfig(cfg CLIConfig) error {
	path, err := configPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating gate directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding CLI config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	return nil
}

// getServerURL resolves the server: GATE_SERVER_URL, then the saved
// config, then defaultServerURL.
func getServerURL() string {
	if v := os.Getenv("GATE_SERVER_URL"); v != "" {
		return v
	}
	if cfg, err := loadConfig(); err == nil && cfg.ServerURL != "" {
		return cfg.ServerURL
	}
	return defaultServerURL
}

// getAPIKey resolves the resident's key: GATE_API_KEY, then the saved config.
func getAPIKey() string {
	if v := os.Getenv("GATE_API_KEY"); v != "" {
		return v
	}
	if cfg, err := loadConfig(); err == nil {
		return cfg.APIKey
	}
	return ""
}
