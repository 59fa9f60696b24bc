package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.URL != Default().Server.URL {
		t.Errorf("URL = %q, want default", cfg.Server.URL)
	}
}

func TestLoad_MalformedFileFails(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[server\nurl="), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load on malformed TOML succeeded")
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.toml")
	in := Default()
	in.Server.URL = "http://ha.example:8123"
	in.Server.Token = "secret"
	in.Theme.Name = "night"

	if err := Save(in, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	out, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if out.Server.URL != in.Server.URL || out.Server.Token != in.Server.Token || out.Theme.Name != in.Theme.Name {
		t.Errorf("round trip lost fields: %+v", out)
	}
}

func TestWebSocketURL(t *testing.T) {
	t.Parallel()

	cases := []struct{ in, want string }{
		{"http://ha.local:8123", "ws://ha.local:8123/api/websocket"},
		{"https://ha.example.com", "wss://ha.example.com/api/websocket"},
		{"http://ha.local:8123/", "ws://ha.local:8123/api/websocket"},
	}
	for _, tc := range cases {
		cfg := &Config{Server: ServerConfig{URL: tc.in}}
		if got := cfg.WebSocketURL(); got != tc.want {
			t.Errorf("WebSocketURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestWatch_ReloadsOnChange(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := Save(Default(), path); err != nil {
		t.Fatal(err)
	}

	got := make(chan *Config, 2)
	stop, err := Watch(path, func(cfg *Config) { got <- cfg })
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer stop()

	next := Default()
	next.Theme.Name = "changed"
	if err := Save(next, path); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-got:
		if cfg.Theme.Name != "changed" {
			t.Errorf("reloaded theme = %q, want changed", cfg.Theme.Name)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watch never delivered the reload")
	}
}
