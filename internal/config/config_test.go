package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Server.BaseURL != "http://127.0.0.1:8002" {
		t.Errorf("BaseURL = %q", cfg.Server.BaseURL)
	}
	if cfg.Server.WSURL != "ws://127.0.0.1:8002" {
		t.Errorf("WSURL = %q", cfg.Server.WSURL)
	}
	if cfg.Poll.Presence != 15*time.Second || cfg.Poll.GreyTicks != 5*time.Second {
		t.Errorf("poll intervals = %+v", cfg.Poll)
	}
	if cfg.State.Dir == "" {
		t.Error("state dir should default to a non-empty path")
	}
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.BaseURL != Default().Server.BaseURL {
		t.Errorf("empty path should yield defaults, got %q", cfg.Server.BaseURL)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "server:\n  base_url: https://sim.example.com\npoll:\n  presence: 30s\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.BaseURL != "https://sim.example.com" {
		t.Errorf("BaseURL = %q", cfg.Server.BaseURL)
	}
	if cfg.Poll.Presence != 30*time.Second {
		t.Errorf("Presence = %v, want 30s", cfg.Poll.Presence)
	}
	if cfg.Poll.Notifications != 60*time.Second {
		t.Errorf("unset field lost its default: %v", cfg.Poll.Notifications)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("missing file should error")
	}
}
