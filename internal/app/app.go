// Package app wires the connection client, entity store, layout store, and
// editor into one explicitly-constructed application instance. No globals:
// everything the UI needs hangs off App.
package app

import (
	"context"
	"errors"
	"log"
	"sync/atomic"

	"github.com/Dicklesworthstone/homedeck/internal/config"
	"github.com/Dicklesworthstone/homedeck/internal/dashboard"
	"github.com/Dicklesworthstone/homedeck/internal/editor"
	"github.com/Dicklesworthstone/homedeck/internal/entity"
	"github.com/Dicklesworthstone/homedeck/internal/events"
	"github.com/Dicklesworthstone/homedeck/internal/hass"
	"github.com/Dicklesworthstone/homedeck/internal/persist"
)

// App owns one instance of every core subsystem.
type App struct {
	Cfg      *config.Config
	Client   *hass.Client
	Entities *entity.Store
	Layout   *dashboard.Store
	Editor   *editor.Editor
	Docs     *persist.Store
	Log      *events.Logger
}

// layoutPersister adapts the document store to the layout store's
// persistence contract.
type layoutPersister struct {
	docs *persist.Store
}

func (p layoutPersister) SaveLayout(cfg dashboard.Config) error {
	return p.docs.Set(persist.KeyLayout, cfg)
}

// New builds an App from configuration. The layout document is loaded from
// the document store; a missing or invalid document falls back to the
// default single-tab layout.
func New(cfg *config.Config, docs *persist.Store) *App {
	var layoutCfg dashboard.Config
	if err := docs.Get(persist.KeyLayout, &layoutCfg); err != nil {
		if !errors.Is(err, persist.ErrNotFound) {
			log.Printf("app: loading layout document: %v", err)
		}
		layoutCfg = dashboard.DefaultConfig()
	}

	layout := dashboard.NewStore(layoutCfg, layoutPersister{docs: docs})

	var logger *events.Logger
	if cfg.Events.Enabled {
		path := cfg.Events.Path
		if path == "" {
			path = events.DefaultPath()
		}
		var err error
		logger, err = events.NewLogger(path)
		if err != nil {
			log.Printf("app: lifecycle log disabled: %v", err)
		}
	}

	a := &App{
		Cfg:      cfg,
		Client:   hass.NewClient(cfg.WebSocketURL(), cfg.Server.Token),
		Entities: entity.NewStore(),
		Layout:   layout,
		Editor:   nil, // set below, needs the layout store
		Docs:     docs,
		Log:      logger,
	}
	a.Editor = editor.New(a.Layout)

	FeedEntityStore(a.Client, a.Entities)

	var everOpen atomic.Bool
	a.Client.OnStatusChange(func(s hass.Status) {
		exhausted := a.Client.ReconnectAttempts() >= hass.MaxReconnectAttempts
		if ev, ok := lifecycleEvent(s, everOpen.Load(), exhausted); ok {
			_ = a.Log.Log(ev, cfg.Server.URL, nil)
		}
		if s == hass.StatusOpen {
			everOpen.Store(true)
		}
	})

	return a
}

// lifecycleEvent maps a connection status transition to the event it is
// logged as. Context changes the meaning: a connecting state after a
// previous open is a reconnect attempt, and an error state with the
// attempt budget spent means the backoff gave up.
func lifecycleEvent(s hass.Status, everOpen, exhausted bool) (events.EventType, bool) {
	switch s {
	case hass.StatusConnecting:
		if everOpen {
			return events.EventReconnect, true
		}
		return "", false // initial connect is logged by Connect itself
	case hass.StatusOpen:
		return events.EventAuthOK, true
	case hass.StatusDisconnected:
		return events.EventDisconnect, true
	case hass.StatusError:
		if everOpen && exhausted {
			return events.EventReconnectGave, true
		}
		return events.EventError, true
	}
	return "", false
}

// FeedEntityStore ties an entity store's lifecycle to a client's: every
// open connection triggers a full snapshot refetch and a fresh
// state_changed subscription (both die with the physical connection), and
// disconnects clear the store.
func FeedEntityStore(client *hass.Client, store *entity.Store) {
	client.OnStateChanged(func(sc hass.StateChange) {
		if sc.NewState == nil {
			return // entity removed; it ages out on the next bulk load
		}
		store.ApplyEvent(*sc.NewState)
	})
	client.OnStatusChange(func(s hass.Status) {
		switch s {
		case hass.StatusOpen:
			go refreshEntityStore(context.Background(), client, store)
		case hass.StatusDisconnected, hass.StatusError:
			store.Teardown()
		}
	})
}

// refreshEntityStore loads the full entity snapshot and subscribes to
// state changes. Failures leave the previous store state intact and are
// logged, not propagated.
func refreshEntityStore(ctx context.Context, client *hass.Client, store *entity.Store) {
	states, err := client.GetStates(ctx)
	if err != nil {
		log.Printf("app: fetching states: %v", err)
		return
	}
	store.BulkLoad(states)

	if _, err := client.SubscribeStateChanges(ctx); err != nil {
		log.Printf("app: subscribing to state changes: %v", err)
	}
}

// Connect opens the connection and waits for auth to complete. The entity
// snapshot loads asynchronously once the connection reports open.
func (a *App) Connect(ctx context.Context) error {
	_ = a.Log.Log(events.EventConnect, a.Cfg.Server.URL, nil)
	if err := a.Client.Connect(ctx); err != nil {
		if errors.Is(err, hass.ErrAuthFailed) {
			_ = a.Log.Log(events.EventAuthFailed, a.Cfg.Server.URL, map[string]any{"error": err.Error()})
		}
		return err
	}
	return nil
}

// EnsureActiveTab makes sure the given tab exists, auto-provisioning it
// from the relevant live entities exactly once.
func (a *App) EnsureActiveTab(tabID string, relevant []entity.Entity) {
	a.Layout.EnsureTab(tabID)
	a.Layout.SyncEntitiesToGrid(tabID, relevant)
}

// Close disconnects and releases resources.
func (a *App) Close() {
	a.Client.Disconnect()
	a.Entities.Teardown()
	_ = a.Log.Close()
}
