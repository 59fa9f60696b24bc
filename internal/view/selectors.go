// Package view derives renderable card lists from entity state, layout
// config, and the editor's draft layer. Everything here is a pure function
// of its inputs; no state is kept.
package view

import (
	"sort"
	"strings"

	"github.com/Dicklesworthstone/homedeck/internal/dashboard"
	"github.com/Dicklesworthstone/homedeck/internal/editor"
	"github.com/Dicklesworthstone/homedeck/internal/entity"
)

// DashboardDomains is the allowlist of entity domains shown on dashboards.
var DashboardDomains = map[string]struct{}{
	"light":         {},
	"switch":        {},
	"sensor":        {},
	"binary_sensor": {},
	"climate":       {},
	"cover":         {},
	"fan":           {},
	"lock":          {},
	"media_player":  {},
	"camera":        {},
	"scene":         {},
	"script":        {},
	"vacuum":        {},
	"person":        {},
	"weather":       {},
}

// SortKey selects the comparator for entity sorting.
type SortKey string

// Supported sort keys.
const (
	SortByName        SortKey = "name"
	SortByDomain      SortKey = "domain"
	SortByState       SortKey = "state"
	SortByLastChanged SortKey = "last_changed"
)

// Card is one renderable dashboard card: layout joined with live state.
type Card struct {
	ID       string
	EntityID string
	Position dashboard.GridRect
	Template *dashboard.CardTemplate
	Entity   entity.Entity
	Live     bool // entity present in the current snapshot
	Problem  bool // entity unavailable/unknown
	Draft    bool // rect comes from the editor's draft layer
}

// RelevantEntities filters a snapshot down to allowlisted dashboard domains.
func RelevantEntities(snap entity.Snapshot) []entity.Entity {
	out := make([]entity.Entity, 0, len(snap.Entities))
	for _, e := range snap.Entities {
		if _, ok := DashboardDomains[e.Domain()]; ok {
			out = append(out, e)
		}
	}
	// Map iteration is unordered; pin a deterministic base order.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// MatchesTab implements the fuzzy "virtual room" filter: the tab id is
// split on underscores and the entity matches when any token appears in
// its friendly name or id, case-insensitively. The home tab matches all.
func MatchesTab(tabID string, e entity.Entity) bool {
	if tabID == "" || tabID == "home" {
		return true
	}
	name := strings.ToLower(e.FriendlyName())
	id := strings.ToLower(e.ID)
	for _, token := range strings.Split(strings.ToLower(tabID), "_") {
		if token == "" {
			continue
		}
		if strings.Contains(name, token) || strings.Contains(id, token) {
			return true
		}
	}
	return false
}

// SortEntities orders entities by the given key. The sort is stable: ties
// keep their incoming order.
func SortEntities(entities []entity.Entity, key SortKey, descending bool) []entity.Entity {
	out := append([]entity.Entity(nil), entities...)
	less := func(a, b entity.Entity) bool {
		switch key {
		case SortByDomain:
			return a.Domain() < b.Domain()
		case SortByState:
			return a.State < b.State
		case SortByLastChanged:
			return a.LastChanged.Before(b.LastChanged)
		default:
			return strings.ToLower(a.FriendlyName()) < strings.ToLower(b.FriendlyName())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if descending {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

// Inputs gathers everything card derivation reads.
type Inputs struct {
	Entities  entity.Snapshot
	Layout    dashboard.Config
	Session   editor.Session
	ActiveTab string
}

// Cards builds the exact card list to render for the active tab.
//
// When an edit session is active for this tab the list is built entirely
// from the draft layer (drafts + entity bindings + template overrides), so
// in-progress edits are visible without being saved. Otherwise the
// persisted tab cards are emitted in their stored order.
func Cards(in Inputs) []Card {
	if in.Session.Enabled && in.Session.TabID == in.ActiveTab {
		return draftCards(in)
	}
	return persistedCards(in)
}

func persistedCards(in Inputs) []Card {
	tab, ok := in.Layout.Tabs[in.ActiveTab]
	if !ok {
		return nil
	}
	out := make([]Card, 0, len(tab.Cards))
	for _, c := range tab.Cards {
		out = append(out, buildCard(in, c.ID, c.EntityID, c.Position, c.TemplateID, false))
	}
	return out
}

func draftCards(in Inputs) []Card {
	s := in.Session
	out := make([]Card, 0, len(s.Drafts))
	emitted := make(map[string]struct{}, len(s.Drafts))

	// Stored card order first, then any unordered leftovers in
	// deterministic id order.
	for _, id := range s.CardOrder {
		rect, ok := s.Drafts[id]
		if !ok {
			continue
		}
		out = append(out, buildCard(in, id, s.CardEntities[id], rect, draftTemplate(in, id), true))
		emitted[id] = struct{}{}
	}
	rest := make([]string, 0, len(s.Drafts))
	for id := range s.Drafts {
		if _, ok := emitted[id]; !ok {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	for _, id := range rest {
		out = append(out, buildCard(in, id, s.CardEntities[id], s.Drafts[id], draftTemplate(in, id), true))
	}
	return out
}

// draftTemplate resolves a draft card's template: session override if
// present, else whatever the persisted card carries.
func draftTemplate(in Inputs, cardID string) string {
	if tpl, ok := in.Session.TemplateOverrides[cardID]; ok {
		return tpl
	}
	if tab, ok := in.Layout.Tabs[in.Session.TabID]; ok {
		for _, c := range tab.Cards {
			if c.ID == cardID {
				return c.TemplateID
			}
		}
	}
	return ""
}

func buildCard(in Inputs, id, entityID string, rect dashboard.GridRect, templateID string, draft bool) Card {
	c := Card{ID: id, EntityID: entityID, Position: rect, Draft: draft}
	if e, ok := in.Entities.Get(entityID); ok {
		c.Entity = e
		c.Live = true
		c.Problem = in.Entities.HasProblem(entityID)
	}
	// A dangling template id resolves to no template here, not in the store.
	if tpl, ok := in.Layout.Templates[templateID]; ok {
		c.Template = &tpl
	}
	return c
}
