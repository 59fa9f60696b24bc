// Package hass implements the Home Assistant WebSocket API client: one
// persistent connection carrying an auth handshake, id-correlated
// request/response commands, and multiplexed event subscriptions.
package hass

import (
	"encoding/json"

	"github.com/Dicklesworthstone/homedeck/internal/entity"
)

// Server → client message types.
const (
	msgAuthRequired = "auth_required"
	msgAuthOK       = "auth_ok"
	msgAuthInvalid  = "auth_invalid"
	msgResult       = "result"
	msgEvent        = "event"
	msgPong         = "pong"
)

// Client → server message types.
const (
	msgAuth              = "auth"
	msgGetStates         = "get_states"
	msgSubscribeEvents   = "subscribe_events"
	msgUnsubscribeEvents = "unsubscribe_events"
	msgCallService       = "call_service"
)

// EventStateChanged is the event type carrying entity state transitions.
const EventStateChanged = "state_changed"

// serverMessage is the discriminated union of everything the backend sends.
// Unknown Type values are ignored by the dispatcher, never fatal.
type serverMessage struct {
	Type      string          `json:"type"`
	ID        int64           `json:"id,omitempty"`
	HAVersion string          `json:"ha_version,omitempty"`
	Message   string          `json:"message,omitempty"`
	Success   bool            `json:"success,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     *ResultError    `json:"error,omitempty"`
	Event     *Event          `json:"event,omitempty"`
}

// ResultError is the server-supplied failure detail on a result message.
type ResultError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Event is one routed subscription event.
type Event struct {
	EventType string          `json:"event_type"`
	Data      json.RawMessage `json:"data"`
}

// StateChange is the payload of a state_changed event. Old and new state
// may be nil when an entity appears or is removed.
type StateChange struct {
	EntityID string         `json:"entity_id"`
	OldState *entity.Entity `json:"old_state"`
	NewState *entity.Entity `json:"new_state"`
}

// EventHandler receives events routed to one subscription.
type EventHandler func(Event)

// StateChangeHandler receives decoded state_changed events.
type StateChangeHandler func(StateChange)
