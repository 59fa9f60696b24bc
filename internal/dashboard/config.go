// Package dashboard owns the persisted dashboard layout document: tabs,
// cards, card templates, and grid geometry. All mutations are whole-document
// copy-on-write; the in-memory document updates synchronously and is then
// handed to the persister.
package dashboard

import (
	"math"

	"github.com/google/uuid"
)

// ConfigVersion is the current schema version of the layout document.
const ConfigVersion = 1

// Default grid size for newly created tabs.
const (
	DefaultGridColumns = 8
	DefaultGridRows    = 6
)

// GridRect is a card's placement in grid units. All fields are multiples of
// 0.5 (half-unit grid).
type GridRect struct {
	Col float64 `json:"col"`
	Row float64 `json:"row"`
	W   float64 `json:"w"`
	H   float64 `json:"h"`
}

// Snap quantizes a grid coordinate to the half-unit grid.
func Snap(v float64) float64 {
	return math.Round(v*2) / 2
}

// Snapped returns the rect with every field quantized to half units.
func (r GridRect) Snapped() GridRect {
	return GridRect{Col: Snap(r.Col), Row: Snap(r.Row), W: Snap(r.W), H: Snap(r.H)}
}

// WithinBounds reports whether the rect lies fully inside a cols×rows grid.
func (r GridRect) WithinBounds(cols, rows int) bool {
	return r.Col >= 0 && r.Row >= 0 &&
		r.Col+r.W <= float64(cols) && r.Row+r.H <= float64(rows)
}

// Overlaps reports strict intersection on both axes. Touching edges do not
// count. Comparison runs on half-unit-scaled integers to avoid float fuzz.
func (r GridRect) Overlaps(o GridRect) bool {
	ax1, ay1, ax2, ay2 := half(r.Col), half(r.Row), half(r.Col+r.W), half(r.Row+r.H)
	bx1, by1, bx2, by2 := half(o.Col), half(o.Row), half(o.Col+o.W), half(o.Row+o.H)
	return ax1 < bx2 && bx1 < ax2 && ay1 < by2 && by1 < ay2
}

func half(v float64) int {
	return int(math.Round(v * 2))
}

// CardConfig is one placed card. ID is generated at creation and stable
// across moves; EntityID binds the card to a live entity.
type CardConfig struct {
	ID         string   `json:"id"`
	EntityID   string   `json:"entity_id"`
	Position   GridRect `json:"position"`
	TemplateID string   `json:"template_id,omitempty"`
}

// CardTemplate is a reusable card appearance definition. The core treats it
// as an opaque named blob; rendering interprets Options.
type CardTemplate struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Options map[string]any `json:"options,omitempty"`
}

// TabConfig is one dashboard tab. Provisioned=false marks the tab eligible
// for one-time auto-population from live entities; any explicit card
// mutation or a completed auto-sync sets it true permanently.
type TabConfig struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Icon        string       `json:"icon,omitempty"`
	GridColumns int          `json:"grid_columns"`
	GridRows    int          `json:"grid_rows"`
	Cards       []CardConfig `json:"cards"`
	Provisioned bool         `json:"provisioned"`
}

// Config is the root persisted layout document.
type Config struct {
	Version   int                     `json:"version"`
	TabOrder  []string                `json:"tab_order"`
	Tabs      map[string]TabConfig    `json:"tabs"`
	Templates map[string]CardTemplate `json:"templates,omitempty"`
}

// DefaultConfig returns a document with a single empty home tab.
func DefaultConfig() Config {
	tab := newTab("home", "Home")
	return Config{
		Version:   ConfigVersion,
		TabOrder:  []string{tab.ID},
		Tabs:      map[string]TabConfig{tab.ID: tab},
		Templates: map[string]CardTemplate{},
	}
}

func newTab(id, title string) TabConfig {
	if id == "" {
		id = uuid.NewString()
	}
	return TabConfig{
		ID:          id,
		Title:       title,
		GridColumns: DefaultGridColumns,
		GridRows:    DefaultGridRows,
		Cards:       []CardConfig{},
	}
}

// clone produces a deep copy of the document. Every store mutation works on
// a clone so snapshots held by consumers never change underneath them.
func (c Config) clone() Config {
	out := Config{
		Version:   c.Version,
		TabOrder:  append([]string(nil), c.TabOrder...),
		Tabs:      make(map[string]TabConfig, len(c.Tabs)),
		Templates: make(map[string]CardTemplate, len(c.Templates)),
	}
	for id, tab := range c.Tabs {
		t := tab
		t.Cards = append([]CardConfig(nil), tab.Cards...)
		out.Tabs[id] = t
	}
	for id, tpl := range c.Templates {
		out.Templates[id] = tpl
	}
	return out
}

// Validate checks the document invariants: version set, every tab in
// TabOrder present in Tabs, at least one tab.
func (c Config) Validate() error {
	if c.Version <= 0 {
		return ErrInvalidConfig
	}
	if len(c.TabOrder) == 0 || len(c.Tabs) == 0 {
		return ErrInvalidConfig
	}
	seen := make(map[string]struct{}, len(c.TabOrder))
	for _, id := range c.TabOrder {
		if _, dup := seen[id]; dup {
			return ErrInvalidConfig
		}
		seen[id] = struct{}{}
		if _, ok := c.Tabs[id]; !ok {
			return ErrInvalidConfig
		}
	}
	return nil
}
