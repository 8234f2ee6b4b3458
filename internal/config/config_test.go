package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Endpoint != "http://localhost:8080" {
		t.Errorf("endpoint = %q", cfg.Endpoint)
	}
	if cfg.Project != "flytesnacks" || cfg.Domain != "development" {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestAutoEnvOverride(t *testing.T) {
	t.Setenv("FLOWCTL_ENDPOINT", "https://flows.example.com")
	t.Setenv("FLOWCTL_PROJECT", "analytics")
	t.Setenv("FLOWCTL_DOMAIN", "staging")

	cfg, err := Auto()
	if err != nil {
		t.Fatalf("Auto: %v", err)
	}
	if cfg.Endpoint != "https://flows.example.com" {
		t.Errorf("endpoint = %q", cfg.Endpoint)
	}
	if cfg.Project != "analytics" || cfg.Domain != "staging" {
		t.Errorf("config = %+v", cfg)
	}
}

func TestAutoConfigFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("FLOWCTL_ENDPOINT", "")
	t.Setenv("FLOWCTL_PROJECT", "")
	t.Setenv("FLOWCTL_DOMAIN", "")

	// No config file: defaults survive.
	cfg, err := Auto()
	if err != nil {
		t.Fatalf("Auto: %v", err)
	}
	if cfg.Project != "flytesnacks" {
		t.Errorf("project = %q", cfg.Project)
	}

	// Config file overrides defaults.
	if err := os.MkdirAll(filepath.Join(home, ".flowctl"), 0o755); err != nil {
		t.Fatal(err)
	}
	data := []byte("endpoint: https://file.example.com\nproject: fromfile\n")
	if err := os.WriteFile(filepath.Join(home, ".flowctl", "config.yaml"), data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err = Auto()
	if err != nil {
		t.Fatalf("Auto: %v", err)
	}
	if cfg.Endpoint != "https://file.example.com" || cfg.Project != "fromfile" {
		t.Errorf("config = %+v", cfg)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Domain != "development" {
		t.Errorf("domain = %q", cfg.Domain)
	}
}
