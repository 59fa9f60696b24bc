package dashboard

import (
	"errors"
	"log"
	"math"

	"github.com/google/uuid"

	"github.com/Dicklesworthstone/homedeck/internal/entity"
	"github.com/Dicklesworthstone/homedeck/internal/state"
)

// ErrInvalidConfig marks a layout document that fails invariant checks.
var ErrInvalidConfig = errors.New("dashboard: invalid layout document")

// Persister saves the layout document. Persistence failures are logged, not
// surfaced: the in-memory document has already updated and stays the source
// of truth for the session.
type Persister interface {
	SaveLayout(Config) error
}

// Store is the durable source of truth for tab and card layout.
type Store struct {
	container *state.Container[Config]
	persister Persister
}

// NewStore creates a layout store seeded from cfg, or the default document
// if cfg fails validation.
func NewStore(cfg Config, p Persister) *Store {
	if err := cfg.Validate(); err != nil {
		cfg = DefaultConfig()
	}
	return &Store{container: state.New(cfg), persister: p}
}

// Config returns the current document snapshot.
func (s *Store) Config() Config {
	return s.container.Get()
}

// Tab returns one tab's config by id.
func (s *Store) Tab(id string) (TabConfig, bool) {
	tab, ok := s.container.Get().Tabs[id]
	return tab, ok
}

// Subscribe registers a listener notified after every mutation.
func (s *Store) Subscribe(fn func(Config)) state.UnsubscribeFunc {
	return s.container.Subscribe(fn)
}

// mutate clones the document, applies fn, publishes, then persists.
func (s *Store) mutate(fn func(*Config)) {
	next := s.container.Update(func(cur Config) Config {
		doc := cur.clone()
		fn(&doc)
		return doc
	})
	if s.persister != nil {
		if err := s.persister.SaveLayout(next); err != nil {
			log.Printf("dashboard: persisting layout: %v", err)
		}
	}
}

// EnsureTab creates a default 8×6 unprovisioned tab when none exists under
// the given id. Existing tabs are untouched.
func (s *Store) EnsureTab(id string) {
	if _, ok := s.container.Get().Tabs[id]; ok {
		return
	}
	s.mutate(func(doc *Config) {
		if _, ok := doc.Tabs[id]; ok {
			return
		}
		tab := newTab(id, id)
		doc.Tabs[tab.ID] = tab
		doc.TabOrder = append(doc.TabOrder, tab.ID)
	})
}

// AddTab appends a new empty tab and returns its generated id.
func (s *Store) AddTab(title string) string {
	id := uuid.NewString()
	s.mutate(func(doc *Config) {
		tab := newTab(id, title)
		doc.Tabs[id] = tab
		doc.TabOrder = append(doc.TabOrder, id)
	})
	return id
}

// DeleteTab removes a tab. The last remaining tab is never deleted.
func (s *Store) DeleteTab(id string) {
	s.mutate(func(doc *Config) {
		if len(doc.TabOrder) <= 1 {
			return
		}
		if _, ok := doc.Tabs[id]; !ok {
			return
		}
		delete(doc.Tabs, id)
		order := doc.TabOrder[:0]
		for _, tid := range doc.TabOrder {
			if tid != id {
				order = append(order, tid)
			}
		}
		doc.TabOrder = order
	})
}

// RenameTab sets a tab's title.
func (s *Store) RenameTab(id, title string) {
	s.mutate(func(doc *Config) {
		tab, ok := doc.Tabs[id]
		if !ok {
			return
		}
		tab.Title = title
		doc.Tabs[id] = tab
	})
}

// ClearTab empties a tab's cards and marks it provisioned so auto-fill
// never recurs.
func (s *Store) ClearTab(id string) {
	s.mutate(func(doc *Config) {
		tab, ok := doc.Tabs[id]
		if !ok {
			return
		}
		tab.Cards = []CardConfig{}
		tab.Provisioned = true
		doc.Tabs[id] = tab
	})
}

// UpdateTabSettings changes a tab's grid dimensions.
func (s *Store) UpdateTabSettings(id string, cols, rows int) {
	s.mutate(func(doc *Config) {
		tab, ok := doc.Tabs[id]
		if !ok {
			return
		}
		if cols > 0 {
			tab.GridColumns = cols
		}
		if rows > 0 {
			tab.GridRows = rows
		}
		doc.Tabs[id] = tab
	})
}

// SaveTemplate inserts or replaces a card template.
func (s *Store) SaveTemplate(tpl CardTemplate) string {
	if tpl.ID == "" {
		tpl.ID = uuid.NewString()
	}
	s.mutate(func(doc *Config) {
		doc.Templates[tpl.ID] = tpl
	})
	return tpl.ID
}

// DeleteTemplate removes a template. Cards keep their now-dangling
// template id; resolving that to "no template" is the view layer's job.
func (s *Store) DeleteTemplate(id string) {
	s.mutate(func(doc *Config) {
		delete(doc.Templates, id)
	})
}

// ReplaceTabCards atomically replaces a tab's whole card list. This is the
// editor's commit path: cards omitted from the new list are gone.
func (s *Store) ReplaceTabCards(tabID string, cards []CardConfig) {
	s.mutate(func(doc *Config) {
		tab, ok := doc.Tabs[tabID]
		if !ok {
			return
		}
		tab.Cards = append([]CardConfig(nil), cards...)
		tab.Provisioned = true
		doc.Tabs[tabID] = tab
	})
}

// AddCard places a new 1×1 card for the entity at the first free integer
// cell, scanning row-major. With no free cell it appends at (0, gridRows),
// below the visible grid. Returns the generated card id.
func (s *Store) AddCard(tabID, entityID string) string {
	id := uuid.NewString()
	s.mutate(func(doc *Config) {
		tab, ok := doc.Tabs[tabID]
		if !ok {
			return
		}
		pos := firstFreeCell(tab.Cards, tab.GridColumns, tab.GridRows)
		tab.Cards = append(tab.Cards, CardConfig{ID: id, EntityID: entityID, Position: pos})
		tab.Provisioned = true
		doc.Tabs[tabID] = tab
	})
	return id
}

// DeleteCard removes one card from a tab.
func (s *Store) DeleteCard(tabID, cardID string) {
	s.mutate(func(doc *Config) {
		tab, ok := doc.Tabs[tabID]
		if !ok {
			return
		}
		cards := tab.Cards[:0]
		for _, c := range tab.Cards {
			if c.ID != cardID {
				cards = append(cards, c)
			}
		}
		tab.Cards = cards
		tab.Provisioned = true
		doc.Tabs[tabID] = tab
	})
}

// SyncEntitiesToGrid auto-populates an unprovisioned tab once. Existing
// cards keep their positions; missing entities are appended 1×1 from a
// cursor starting at the row below the lowest existing card, wrapping at
// the tab's column count. The tab is marked provisioned afterward whether
// or not anything was added, so a transiently empty entity list cannot
// cause retry storms.
func (s *Store) SyncEntitiesToGrid(tabID string, entities []entity.Entity) {
	tab, ok := s.Tab(tabID)
	if !ok || tab.Provisioned {
		return
	}
	s.mutate(func(doc *Config) {
		tab, ok := doc.Tabs[tabID]
		if !ok || tab.Provisioned {
			return
		}

		present := make(map[string]struct{}, len(tab.Cards))
		bottom := 0.0
		for _, c := range tab.Cards {
			present[c.EntityID] = struct{}{}
			if edge := c.Position.Row + c.Position.H; edge > bottom {
				bottom = edge
			}
		}

		row := math.Ceil(bottom)
		col := 0.0
		for _, e := range entities {
			if _, ok := present[e.ID]; ok {
				continue
			}
			if col+1 > float64(tab.GridColumns) {
				col = 0
				row++
			}
			tab.Cards = append(tab.Cards, CardConfig{
				ID:       uuid.NewString(),
				EntityID: e.ID,
				Position: GridRect{Col: col, Row: row, W: 1, H: 1},
			})
			col++
		}
		tab.Provisioned = true
		doc.Tabs[tabID] = tab
	})
}

// firstFreeCell scans integer cells row-major for a 1×1 spot not covered by
// any existing card. Falls back to (0, rows) below the grid.
func firstFreeCell(cards []CardConfig, cols, rows int) GridRect {
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			candidate := GridRect{Col: float64(col), Row: float64(row), W: 1, H: 1}
			free := true
			for _, c := range cards {
				if candidate.Overlaps(c.Position) {
					free = false
					break
				}
			}
			if free {
				return candidate
			}
		}
	}
	return GridRect{Col: 0, Row: float64(rows), W: 1, H: 1}
}
