package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const appDirName = "investerm"

type Config struct {
	Server ServerConfig `yaml:"server"`
	Poll   PollConfig   `yaml:"poll"`
	State  StateConfig  `yaml:"state"`
	Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	BaseURL string `yaml:"base_url"`
	WSURL   string `yaml:"ws_url"`
}

type PollConfig struct {
	Presence      time.Duration `yaml:"presence"`
	GreyTicks     time.Duration `yaml:"grey_ticks"`
	Notifications time.Duration `yaml:"notifications"`
	ChatPresence  time.Duration `yaml:"chat_presence"`
}

type StateConfig struct {
	Dir string `yaml:"dir"`
}

type LogConfig struct {
	File string `yaml:"file"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			BaseURL: "http://127.0.0.1:8002",
			WSURL:   "ws://127.0.0.1:8002",
		},
		Poll: PollConfig{
			Presence:      15 * time.Second,
			GreyTicks:     5 * time.Second,
			Notifications: 60 * time.Second,
			ChatPresence:  5 * time.Second,
		},
		State: StateConfig{
			Dir: defaultStateDir(),
		},
	}
}

// Load reads a YAML config file, applying defaults for missing fields.
// An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// defaultStateDir returns ~/.local/state/investerm, respecting
// XDG_STATE_HOME if set.
func defaultStateDir() string {
	if base := os.Getenv("XDG_STATE_HOME"); base != "" {
		return filepath.Join(base, appDirName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return filepath.Join(home, ".local", "state", appDirName)
}
