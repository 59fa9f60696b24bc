// Package editor implements the dashboard's direct-manipulation edit mode.
//
// All speculative edits live in a draft layer seeded from the persisted
// layout when a session starts. The persisted layout is untouched until
// Commit; Cancel discards everything. One exception, preserved on purpose:
// MoveCardToTab writes the card into the target tab immediately, while the
// removal from the source tab stays in the draft session. Cancelling after
// a cross-tab move therefore leaves the card present on both tabs.
package editor

import (
	"math"

	"github.com/google/uuid"

	"github.com/Dicklesworthstone/homedeck/internal/dashboard"
)

// MaxHistory bounds the undo stack; the oldest entry is dropped beyond it.
const MaxHistory = 100

// DragStartThresholdPx is the pointer travel below which a drag has not
// started, so plain clicks never nudge a card.
const DragStartThresholdPx = 5.0

// GridMetrics maps between pixels and grid units for the active tab.
type GridMetrics struct {
	HalfUnitSizePx float64
	Cols           int
	Rows           int
}

// cellSizePx is the pixel size of one full grid unit.
func (m GridMetrics) cellSizePx() float64 {
	return m.HalfUnitSizePx * 2
}

// HistoryCmd records one committed gesture for undo/redo.
type HistoryCmd struct {
	TabID  string
	CardID string
	From   dashboard.GridRect
	To     dashboard.GridRect
}

// Editor is the grid edit session state machine. Not safe for concurrent
// use; all calls arrive on the UI event loop, and the single-active-pointer
// invariant means at most one gesture mutates drafts at a time.
type Editor struct {
	layout *dashboard.Store

	enabled  bool
	tabID    string
	selected string
	metrics  GridMetrics
	op       pointerOp

	drafts            map[string]dashboard.GridRect
	cardOrder         []string
	cardEntities      map[string]string
	persistedTpls     map[string]string
	templateOverrides map[string]string
	collision         bool

	undo []HistoryCmd
	redo []HistoryCmd
}

// New creates an editor bound to the layout store.
func New(layout *dashboard.Store) *Editor {
	return &Editor{layout: layout}
}

// InitSession loads the persisted layout for tabID into a fresh draft
// session. Calling it again resets the session; nothing carries over.
func (e *Editor) InitSession(tabID string) {
	e.enabled = true
	e.tabID = tabID
	e.selected = ""
	e.op = pointerOp{}
	e.collision = false
	e.drafts = map[string]dashboard.GridRect{}
	e.cardOrder = nil
	e.cardEntities = map[string]string{}
	e.persistedTpls = map[string]string{}
	e.templateOverrides = map[string]string{}
	e.undo = nil
	e.redo = nil

	tab, ok := e.layout.Tab(tabID)
	if !ok {
		return
	}
	e.metrics.Cols = tab.GridColumns
	e.metrics.Rows = tab.GridRows
	for _, c := range tab.Cards {
		e.drafts[c.ID] = c.Position
		e.cardOrder = append(e.cardOrder, c.ID)
		e.cardEntities[c.ID] = c.EntityID
		if c.TemplateID != "" {
			e.persistedTpls[c.ID] = c.TemplateID
		}
	}
}

// Enabled reports whether an edit session is active.
func (e *Editor) Enabled() bool { return e.enabled }

// TabID returns the tab the session edits.
func (e *Editor) TabID() string { return e.tabID }

// Selected returns the selected card id, if any.
func (e *Editor) Selected() string { return e.selected }

// Collision reports the advisory collision flag for the active gesture.
func (e *Editor) Collision() bool { return e.collision }

// SetGridMetrics updates the pixel geometry used for pointer math.
func (e *Editor) SetGridMetrics(m GridMetrics) {
	if m.Cols == 0 {
		m.Cols = e.metrics.Cols
	}
	if m.Rows == 0 {
		m.Rows = e.metrics.Rows
	}
	e.metrics = m
}

// Select marks a card as selected without starting a gesture.
func (e *Editor) Select(cardID string) {
	if !e.enabled {
		return
	}
	if _, ok := e.drafts[cardID]; ok {
		e.selected = cardID
	}
}

// Draft returns a card's current draft rect.
func (e *Editor) Draft(cardID string) (dashboard.GridRect, bool) {
	r, ok := e.drafts[cardID]
	return r, ok
}

// Session is a read-only copy of the draft layer for rendering.
type Session struct {
	Enabled           bool
	TabID             string
	Selected          string
	Collision         bool
	CardOrder         []string
	Drafts            map[string]dashboard.GridRect
	CardEntities      map[string]string
	TemplateOverrides map[string]string
}

// Snapshot copies the session state for consumers outside the editor.
func (e *Editor) Snapshot() Session {
	s := Session{
		Enabled:           e.enabled,
		TabID:             e.tabID,
		Selected:          e.selected,
		Collision:         e.collision,
		CardOrder:         append([]string(nil), e.cardOrder...),
		Drafts:            make(map[string]dashboard.GridRect, len(e.drafts)),
		CardEntities:      make(map[string]string, len(e.cardEntities)),
		TemplateOverrides: make(map[string]string, len(e.templateOverrides)),
	}
	for id, r := range e.drafts {
		s.Drafts[id] = r
	}
	for id, ent := range e.cardEntities {
		s.CardEntities[id] = ent
	}
	for id, tpl := range e.templateOverrides {
		s.TemplateOverrides[id] = tpl
	}
	return s
}

// SetTemplateOverride assigns a template to a card for this session only.
// An empty id overrides to "no template"; the override wins over whatever
// the persisted card carries.
func (e *Editor) SetTemplateOverride(cardID, templateID string) {
	if !e.enabled {
		return
	}
	if _, ok := e.drafts[cardID]; !ok {
		return
	}
	e.templateOverrides[cardID] = templateID
}

// effectiveTemplate resolves override-if-present, else the persisted id.
func (e *Editor) effectiveTemplate(cardID string) string {
	if tpl, ok := e.templateOverrides[cardID]; ok {
		return tpl
	}
	return e.persistedTpls[cardID]
}

// AddCard places a new 1×1 draft card at the first free integer cell,
// scanning row-major against the other drafts. With no free cell it
// appends below the lowest occupied row. The new card becomes selected.
func (e *Editor) AddCard(entityID string) string {
	if !e.enabled {
		return ""
	}
	id := uuid.NewString()
	rect := e.firstFreeDraftCell()
	e.drafts[id] = rect
	e.cardOrder = append(e.cardOrder, id)
	e.cardEntities[id] = entityID
	e.selected = id
	return id
}

// DuplicateCard clones a draft shifted down by its own height, carrying the
// entity binding and the effective template assignment. Selects the clone.
func (e *Editor) DuplicateCard(cardID string) string {
	if !e.enabled {
		return ""
	}
	src, ok := e.drafts[cardID]
	if !ok {
		return ""
	}
	id := uuid.NewString()
	clone := src
	clone.Row += src.H
	e.drafts[id] = clone
	e.cardOrder = append(e.cardOrder, id)
	e.cardEntities[id] = e.cardEntities[cardID]
	if tpl := e.effectiveTemplate(cardID); tpl != "" {
		e.templateOverrides[id] = tpl
	}
	e.selected = id
	return id
}

// DeleteCard removes a card from the draft session.
func (e *Editor) DeleteCard(cardID string) {
	if !e.enabled {
		return
	}
	if _, ok := e.drafts[cardID]; !ok {
		return
	}
	delete(e.drafts, cardID)
	delete(e.cardEntities, cardID)
	delete(e.templateOverrides, cardID)
	delete(e.persistedTpls, cardID)
	order := e.cardOrder[:0]
	for _, id := range e.cardOrder {
		if id != cardID {
			order = append(order, id)
		}
	}
	e.cardOrder = order
	if e.selected == cardID {
		e.selected = ""
	}
}

// MoveCardToTab persists the card into the target tab right away through
// the layout store, then removes it from the draft session. Cross-tab moves
// are not draftable; the target-side write survives Cancel.
func (e *Editor) MoveCardToTab(cardID, targetTabID string) {
	if !e.enabled || targetTabID == e.tabID {
		return
	}
	rect, ok := e.drafts[cardID]
	if !ok {
		return
	}
	e.layout.EnsureTab(targetTabID)
	target, ok := e.layout.Tab(targetTabID)
	if !ok {
		return
	}
	card := dashboard.CardConfig{
		ID:         cardID,
		EntityID:   e.cardEntities[cardID],
		Position:   rect,
		TemplateID: e.effectiveTemplate(cardID),
	}
	e.layout.ReplaceTabCards(targetTabID, append(target.Cards, card))
	e.DeleteCard(cardID)
}

// Commit reconstructs the full card list from the draft layer, resolving
// each card's template as override-if-present else persisted, and replaces
// the tab's cards atomically. The session then resets.
func (e *Editor) Commit() {
	if !e.enabled {
		return
	}
	cards := make([]dashboard.CardConfig, 0, len(e.cardOrder))
	for _, id := range e.cardOrder {
		rect, ok := e.drafts[id]
		if !ok {
			continue
		}
		cards = append(cards, dashboard.CardConfig{
			ID:         id,
			EntityID:   e.cardEntities[id],
			Position:   rect,
			TemplateID: e.effectiveTemplate(id),
		})
	}
	e.layout.ReplaceTabCards(e.tabID, cards)
	e.reset()
}

// Cancel discards the draft session without touching the layout store.
func (e *Editor) Cancel() {
	if !e.enabled {
		return
	}
	e.reset()
}

func (e *Editor) reset() {
	e.enabled = false
	e.tabID = ""
	e.selected = ""
	e.op = pointerOp{}
	e.collision = false
	e.drafts = nil
	e.cardOrder = nil
	e.cardEntities = nil
	e.persistedTpls = nil
	e.templateOverrides = nil
	e.undo = nil
	e.redo = nil
}

// firstFreeDraftCell scans integer cells row-major for a 1×1 spot clear of
// every draft, falling back to the row below the lowest occupied edge.
func (e *Editor) firstFreeDraftCell() dashboard.GridRect {
	for row := 0; row < e.metrics.Rows; row++ {
		for col := 0; col < e.metrics.Cols; col++ {
			candidate := dashboard.GridRect{Col: float64(col), Row: float64(row), W: 1, H: 1}
			if !e.collides(candidate, "") {
				return candidate
			}
		}
	}
	bottom := 0.0
	for _, r := range e.drafts {
		if edge := r.Row + r.H; edge > bottom {
			bottom = edge
		}
	}
	return dashboard.GridRect{Col: 0, Row: math.Ceil(bottom), W: 1, H: 1}
}

// collides reports whether rect overlaps any draft other than excludeID.
func (e *Editor) collides(rect dashboard.GridRect, excludeID string) bool {
	for id, other := range e.drafts {
		if id == excludeID {
			continue
		}
		if rect.Overlaps(other) {
			return true
		}
	}
	return false
}

// validate recomputes the advisory collision flag for a gesture rect.
func (e *Editor) validate(cardID string, rect dashboard.GridRect) {
	e.collision = !rect.WithinBounds(e.metrics.Cols, e.metrics.Rows) ||
		e.collides(rect, cardID)
}
