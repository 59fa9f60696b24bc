// Package config loads and persists the homedeck configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the main configuration, stored as TOML.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Theme   ThemeConfig   `toml:"theme"`
	Cameras CamerasConfig `toml:"cameras"`
	Events  EventsConfig  `toml:"events"`
}

// ServerConfig holds the Home Assistant connection settings.
type ServerConfig struct {
	// URL is the base address, e.g. http://homeassistant.local:8123.
	URL string `toml:"url"`
	// Token is a long-lived access token.
	Token string `toml:"token"`
}

// ThemeConfig selects the theme settings document.
type ThemeConfig struct {
	Name string `toml:"name"`
}

// CamerasConfig configures the read-only camera HTTP endpoints.
type CamerasConfig struct {
	ListenAddr string `toml:"listen_addr"`
}

// EventsConfig configures the connection lifecycle log.
type EventsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Default returns the configuration used when no file exists or loading
// fails.
func Default() *Config {
	return &Config{
		Server:  ServerConfig{URL: "http://homeassistant.local:8123"},
		Theme:   ThemeConfig{Name: "default"},
		Cameras: CamerasConfig{ListenAddr: "127.0.0.1:8787"},
		Events:  EventsConfig{Enabled: true},
	}
}

// DefaultPath returns the config file location.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/homedeck/config.toml.
func DefaultPath() string {
	cfgDir := os.Getenv("XDG_CONFIG_HOME")
	if cfgDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		cfgDir = filepath.Join(home, ".config")
	}
	return filepath.Join(cfgDir, "homedeck", "config.toml")
}

// Load reads the config at path, or the default path when empty. A missing
// file yields the defaults without error; a malformed file is an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to path, creating parent directories.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = DefaultPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: creating directory: %w", err)
	}
	var buf strings.Builder
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("config: encoding: %w", err)
	}
	if err := os.WriteFile(path, []byte(buf.String()), 0o600); err != nil {
		return fmt.Errorf("config: writing %s: %w", path, err)
	}
	return nil
}

// WebSocketURL derives the websocket API endpoint from the server URL.
func (c *Config) WebSocketURL() string {
	u := strings.TrimSuffix(c.Server.URL, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/api/websocket"
}
