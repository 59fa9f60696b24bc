package app

import (
	"testing"

	"github.com/Dicklesworthstone/homedeck/internal/config"
	"github.com/Dicklesworthstone/homedeck/internal/dashboard"
	"github.com/Dicklesworthstone/homedeck/internal/entity"
	"github.com/Dicklesworthstone/homedeck/internal/events"
	"github.com/Dicklesworthstone/homedeck/internal/hass"
	"github.com/Dicklesworthstone/homedeck/internal/persist"
)

func newTestApp(t *testing.T) (*App, *persist.Store) {
	t.Helper()
	docs := persist.Open(t.TempDir())
	a := New(config.Default(), docs)
	t.Cleanup(a.Close)
	return a, docs
}

func TestNew_FallsBackToDefaultLayout(t *testing.T) {
	t.Parallel()

	a, _ := newTestApp(t)
	cfg := a.Layout.Config()
	if len(cfg.TabOrder) != 1 || cfg.TabOrder[0] != "home" {
		t.Errorf("tab order = %v, want [home]", cfg.TabOrder)
	}
}

func TestNew_LoadsPersistedLayout(t *testing.T) {
	t.Parallel()

	docs := persist.Open(t.TempDir())
	saved := dashboard.DefaultConfig()
	tab := saved.Tabs["home"]
	tab.Title = "Ground Floor"
	saved.Tabs["home"] = tab
	if err := docs.Set(persist.KeyLayout, saved); err != nil {
		t.Fatal(err)
	}

	a := New(config.Default(), docs)
	t.Cleanup(a.Close)
	if got := a.Layout.Config().Tabs["home"].Title; got != "Ground Floor" {
		t.Errorf("title = %q, want Ground Floor", got)
	}
}

func TestLayoutMutationsPersist(t *testing.T) {
	t.Parallel()

	a, docs := newTestApp(t)
	id := a.Layout.AddTab("Bedroom")

	var stored dashboard.Config
	if err := docs.Get(persist.KeyLayout, &stored); err != nil {
		t.Fatalf("layout not persisted: %v", err)
	}
	if _, ok := stored.Tabs[id]; !ok {
		t.Errorf("persisted layout missing tab %q", id)
	}
}

func TestLifecycleEvent(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name                string
		status              hass.Status
		everOpen, exhausted bool
		want                events.EventType
		logged              bool
	}{
		{"initial connecting is silent", hass.StatusConnecting, false, false, "", false},
		{"connecting after open is a reconnect", hass.StatusConnecting, true, false, events.EventReconnect, true},
		{"open logs auth ok", hass.StatusOpen, true, false, events.EventAuthOK, true},
		{"disconnect", hass.StatusDisconnected, true, false, events.EventDisconnect, true},
		{"error before first open", hass.StatusError, false, false, events.EventError, true},
		{"transient retry failure", hass.StatusError, true, false, events.EventError, true},
		{"spent attempt budget gives up", hass.StatusError, true, true, events.EventReconnectGave, true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, logged := lifecycleEvent(tc.status, tc.everOpen, tc.exhausted)
			if logged != tc.logged || got != tc.want {
				t.Errorf("lifecycleEvent(%s, %v, %v) = (%q, %v), want (%q, %v)",
					tc.status, tc.everOpen, tc.exhausted, got, logged, tc.want, tc.logged)
			}
		})
	}
}

func TestEnsureActiveTab_ProvisionsOnce(t *testing.T) {
	t.Parallel()

	a, _ := newTestApp(t)
	ents := []entity.Entity{
		{ID: "light.desk", State: "on"},
		{ID: "sensor.temp", State: "21.5"},
	}

	a.EnsureActiveTab("office", ents)
	tab, ok := a.Layout.Tab("office")
	if !ok {
		t.Fatal("tab not created")
	}
	if len(tab.Cards) != 2 {
		t.Fatalf("cards = %d, want 2", len(tab.Cards))
	}

	// A second pass must not duplicate cards.
	a.EnsureActiveTab("office", ents)
	tab, _ = a.Layout.Tab("office")
	if len(tab.Cards) != 2 {
		t.Errorf("reprovisioned: cards = %d, want 2", len(tab.Cards))
	}
}
