// Package entity holds the live snapshot of Home Assistant entity state.
package entity

import (
	"strings"
	"time"
)

// Entity is one Home Assistant entity as reported by the backend.
type Entity struct {
	ID          string         `json:"entity_id"`
	State       string         `json:"state"`
	Attributes  map[string]any `json:"attributes"`
	LastChanged time.Time      `json:"last_changed"`
	LastUpdated time.Time      `json:"last_updated"`
}

// Domain returns the entity's domain, the id segment before the first dot.
// "light.kitchen" -> "light". An id with no dot is its own domain.
func (e Entity) Domain() string {
	return DomainOf(e.ID)
}

// FriendlyName returns the friendly_name attribute, falling back to the id.
func (e Entity) FriendlyName() string {
	if v, ok := e.Attributes["friendly_name"]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return e.ID
}

// Unavailable reports whether the entity is in a problem state.
func (e Entity) Unavailable() bool {
	return e.State == StateUnavailable || e.State == StateUnknown
}

// Problem states as reported by Home Assistant.
const (
	StateUnavailable = "unavailable"
	StateUnknown     = "unknown"
)

// DomainOf extracts the domain from an entity id.
func DomainOf(id string) string {
	if i := strings.Index(id, "."); i >= 0 {
		return id[:i]
	}
	return id
}
