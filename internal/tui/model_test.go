package tui

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Dicklesworthstone/homedeck/internal/app"
	"github.com/Dicklesworthstone/homedeck/internal/config"
	"github.com/Dicklesworthstone/homedeck/internal/persist"
	"github.com/Dicklesworthstone/homedeck/internal/theme"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	docs := persist.Open(t.TempDir())
	a := app.New(config.Default(), docs)
	t.Cleanup(a.Close)
	return New(a, theme.Default)
}

func TestUpdate_NoticeShownInStatusBar(t *testing.T) {
	t.Parallel()

	m := newTestModel(t)
	next, _ := m.Update(NoticeMsg("server settings changed; restart to apply"))
	m = next.(Model)
	if !strings.Contains(m.renderStatusBar(), "restart to apply") {
		t.Error("status bar missing the config-change notice")
	}
}

func TestWatchConfig_ServerChangePromptsRestart(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	cfg := config.Default()
	if err := config.Save(cfg, path); err != nil {
		t.Fatal(err)
	}

	msgs := make(chan tea.Msg, 4)
	stop, err := watchConfig(path, cfg, func(m tea.Msg) { msgs <- m })
	if err != nil {
		t.Fatalf("watchConfig: %v", err)
	}
	defer stop()

	next := config.Default()
	next.Server.URL = "http://hass.example:8123"
	if err := config.Save(next, path); err != nil {
		t.Fatal(err)
	}

	select {
	case m := <-msgs:
		n, ok := m.(NoticeMsg)
		if !ok || !strings.Contains(string(n), "restart") {
			t.Errorf("msg = %#v, want a restart notice", m)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("config edit produced no notice")
	}
}
