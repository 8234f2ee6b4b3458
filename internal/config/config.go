// Package config resolves platform configuration for the flowctl CLI.
// Values layer in order: built-in defaults, then ~/.flowctl/config.yaml,
// then FLOWCTL_* environment variables. Command-line flags override all
// of these at the call site.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// PlatformConfig holds the connection and default-target settings for the
// remote orchestration service.
type PlatformConfig struct {
	Endpoint string `yaml:"endpoint"` // service base URL
	Project  string `yaml:"project"`  // default project for registrations and executions
	Domain   string `yaml:"domain"`   // default domain
}

// Default returns the built-in configuration.
func Default() PlatformConfig {
	return PlatformConfig{
		Endpoint: "http://localhost:8080",
		Project:  "flytesnacks",
		Domain:   "development",
	}
}

// Auto resolves the platform configuration from defaults, the user config
// file, and the environment.
func Auto() (PlatformConfig, error) {
	cfg := Default()

	path, err := configPath()
	if err == nil {
		if data, readErr := os.ReadFile(path); readErr == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return PlatformConfig{}, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	if v := os.Getenv("FLOWCTL_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv("FLOWCTL_PROJECT"); v != "" {
		cfg.Project = v
	}
	if v := os.Getenv("FLOWCTL_DOMAIN"); v != "" {
		cfg.Domain = v
	}

	return cfg, nil
}

// configPath returns ~/.flowctl/config.yaml.
func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".flowctl", "config.yaml"), nil
}

// HistoryDBPath returns the default location of the local execution
// history database, creating the parent directory if needed.
func HistoryDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".flowctl")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}
