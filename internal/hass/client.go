package hass

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Dicklesworthstone/homedeck/internal/entity"
)

// Status is the connection lifecycle state.
type Status string

// Connection states.
const (
	StatusDisconnected   Status = "disconnected"
	StatusConnecting     Status = "connecting"
	StatusAuthenticating Status = "authenticating"
	StatusOpen           Status = "open"
	StatusError          Status = "error"
)

// Reconnect policy: the delay before attempt n (1-based) is
// min(baseBackoff * 2^n, maxBackoff), giving up after
// MaxReconnectAttempts. The counter resets on every successful auth.
const (
	baseBackoff = time.Second
	maxBackoff  = 30 * time.Second

	// MaxReconnectAttempts caps the backoff retries between successful
	// auths.
	MaxReconnectAttempts = 5
)

var (
	// ErrConnectionClosed rejects pending requests when the socket closes.
	ErrConnectionClosed = errors.New("hass: connection closed")

	// ErrAuthFailed marks a rejected access token. Fatal: no retry.
	ErrAuthFailed = errors.New("hass: authentication failed")

	// ErrNotConnected is returned for requests sent with no open socket.
	ErrNotConnected = errors.New("hass: not connected")

	// errDial wraps transport-level dial failures, as opposed to
	// failures during the auth phase of an established connection.
	errDial = errors.New("hass: dial")
)

type callResult struct {
	result json.RawMessage
	err    error
}

// Client is the Home Assistant WebSocket connection. One Client owns one
// logical connection; it reconnects itself after abnormal closes unless
// Disconnect was called.
//
// There is no per-request timeout: a request hangs until its result
// arrives, its context is cancelled, or the connection closes. A live but
// silent server therefore hangs callers that pass no deadline. Known
// limitation of the upstream protocol handling, kept as-is.
type Client struct {
	url   string
	token string

	mu       sync.Mutex
	conn     *websocket.Conn
	pending  map[int64]chan callResult
	handlers map[int64]EventHandler
	status   Status
	attempts int
	authDone chan error

	writeMu sync.Mutex

	nextID atomic.Int64
	forced atomic.Bool

	listenerMu      sync.Mutex
	stateListeners  []StateChangeHandler
	statusListeners []func(Status)
}

// NewClient creates a client for the given websocket URL and access token.
// The URL is the full API endpoint, e.g. ws://host:8123/api/websocket.
func NewClient(url, token string) *Client {
	return &Client{
		url:      url,
		token:    token,
		pending:  map[int64]chan callResult{},
		handlers: map[int64]EventHandler{},
		status:   StatusDisconnected,
	}
}

// Status returns the current connection state.
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// ReconnectAttempts returns the number of reconnect attempts consumed
// since the last successful auth.
func (c *Client) ReconnectAttempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

// OnStatusChange registers a listener for connection state transitions.
func (c *Client) OnStatusChange(fn func(Status)) {
	c.listenerMu.Lock()
	defer c.listenerMu.Unlock()
	c.statusListeners = append(c.statusListeners, fn)
}

// OnStateChanged registers a process-wide listener invoked for every routed
// state_changed event. Multiple listeners are supported.
func (c *Client) OnStateChanged(fn StateChangeHandler) {
	c.listenerMu.Lock()
	defer c.listenerMu.Unlock()
	c.stateListeners = append(c.stateListeners, fn)
}

func (c *Client) setStatus(s Status) {
	c.mu.Lock()
	c.status = s
	c.mu.Unlock()

	c.listenerMu.Lock()
	listeners := append(([]func(Status))(nil), c.statusListeners...)
	c.listenerMu.Unlock()
	for _, fn := range listeners {
		fn(s)
	}
}

// Connect opens the transport and runs the auth handshake. It returns once
// the server accepts the credentials, or with an error on rejection or any
// transport failure before acceptance. An unreachable server is not fatal:
// Connect returns the dial error but keeps retrying in the background with
// the usual backoff. Auth rejection is fatal: the client will not
// reconnect until Connect is called again.
func (c *Client) Connect(ctx context.Context) error {
	c.forced.Store(false)
	err := c.dial(ctx)
	if err != nil && errors.Is(err, errDial) {
		c.scheduleReconnect()
	}
	return err
}

func (c *Client) dial(ctx context.Context) error {
	c.setStatus(StatusConnecting)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		c.setStatus(StatusError)
		return fmt.Errorf("%w %s: %w", errDial, c.url, err)
	}

	authDone := make(chan error, 1)
	c.mu.Lock()
	c.conn = conn
	c.authDone = authDone
	c.mu.Unlock()
	c.setStatus(StatusAuthenticating)

	go c.readLoop(conn)

	select {
	case err := <-authDone:
		if err != nil {
			return err
		}
		return nil
	case <-ctx.Done():
		conn.Close()
		return ctx.Err()
	}
}

// Disconnect force-closes the connection. Pending requests are rejected
// and no reconnect follows.
func (c *Client) Disconnect() {
	c.forced.Store(true)
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

// readLoop owns the inbound side of one physical connection. It exits when
// the transport errors, then runs close handling and reconnect scheduling.
func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleClose(conn)
			return
		}
		var msg serverMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue // malformed frame, skip
		}
		c.dispatch(&msg)
	}
}

// dispatch routes one inbound message by its type discriminator.
func (c *Client) dispatch(msg *serverMessage) {
	switch msg.Type {
	case msgAuthRequired:
		// Reply with credentials; auth messages carry no id.
		if err := c.send(map[string]any{"type": msgAuth, "access_token": c.token}); err != nil {
			c.finishAuth(fmt.Errorf("hass: sending credentials: %w", err))
		}

	case msgAuthOK:
		c.mu.Lock()
		c.attempts = 0
		c.mu.Unlock()
		c.setStatus(StatusOpen)
		c.finishAuth(nil)

	case msgAuthInvalid:
		// Fatal: force-close so the close handler does not schedule a retry.
		c.forced.Store(true)
		c.setStatus(StatusError)
		c.finishAuth(fmt.Errorf("%w: %s", ErrAuthFailed, msg.Message))
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn != nil {
			conn.Close()
		}

	case msgResult:
		c.mu.Lock()
		ch := c.pending[msg.ID]
		delete(c.pending, msg.ID)
		c.mu.Unlock()
		if ch == nil {
			return // fire-and-forget or late result
		}
		if !msg.Success {
			errMsg := "command failed"
			if msg.Error != nil {
				errMsg = msg.Error.Message
			}
			ch <- callResult{err: errors.New(errMsg)}
			return
		}
		ch <- callResult{result: msg.Result}

	case msgEvent:
		// The id on an event frame is the subscribe command's id; the
		// backend reuses it as the subscription id.
		c.mu.Lock()
		handler := c.handlers[msg.ID]
		c.mu.Unlock()
		if handler != nil && msg.Event != nil {
			handler(*msg.Event)
		}

	case msgPong:
		// Heartbeat reply, nothing to route.

	default:
		// Unknown message types are ignored, not fatal.
	}
}

func (c *Client) finishAuth(err error) {
	c.mu.Lock()
	done := c.authDone
	c.authDone = nil
	c.mu.Unlock()
	if done != nil {
		done <- err
	}
}

// handleClose rejects all pending requests, then schedules a reconnect
// unless the close was forced.
func (c *Client) handleClose(conn *websocket.Conn) {
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return // an older connection's loop exiting late
	}
	c.conn = nil
	pending := c.pending
	c.pending = map[int64]chan callResult{}
	c.handlers = map[int64]EventHandler{}
	c.mu.Unlock()

	for _, ch := range pending {
		ch <- callResult{err: ErrConnectionClosed}
	}
	c.finishAuth(ErrConnectionClosed)

	if c.forced.Load() {
		c.setStatus(StatusDisconnected)
		return
	}
	c.scheduleReconnect()
}

// scheduleReconnect applies exponential backoff, giving up silently (via
// error status, not an exception) after the attempt cap.
func (c *Client) scheduleReconnect() {
	c.mu.Lock()
	if c.attempts >= MaxReconnectAttempts {
		c.mu.Unlock()
		c.setStatus(StatusError)
		return
	}
	c.attempts++
	delay := backoffDelay(c.attempts)
	c.mu.Unlock()

	c.setStatus(StatusDisconnected)
	time.AfterFunc(delay, func() {
		// The forced flag is re-checked at fire time so Disconnect during
		// the wait cancels the retry.
		if c.forced.Load() {
			return
		}
		if err := c.dial(context.Background()); err != nil && !errors.Is(err, ErrAuthFailed) {
			// Dial failures re-enter the backoff path directly; auth
			// rejection stays fatal.
			if !c.forced.Load() {
				c.scheduleReconnect()
			}
		}
	})
}

// backoffDelay is the wait before reconnect attempt n (1-based).
func backoffDelay(attempt int) time.Duration {
	d := baseBackoff << attempt
	if d > maxBackoff || d <= 0 {
		d = maxBackoff
	}
	return d
}

// send serializes one outbound frame. Writes are serialized by writeMu;
// gorilla/websocket allows only one concurrent writer.
func (c *Client) send(payload map[string]any) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteJSON(payload)
}

// Call sends one id-correlated command and blocks until its result
// arrives, ctx is cancelled, or the connection closes. A success result
// with no payload yields a nil RawMessage; the returned id still
// identifies the command (the subscribe path relies on that).
func (c *Client) Call(ctx context.Context, msgType string, fields map[string]any) (json.RawMessage, int64, error) {
	id := c.nextID.Add(1)
	ch := make(chan callResult, 1)

	c.mu.Lock()
	if c.conn == nil {
		c.mu.Unlock()
		return nil, id, ErrNotConnected
	}
	c.pending[id] = ch
	c.mu.Unlock()

	payload := map[string]any{"type": msgType, "id": id}
	for k, v := range fields {
		payload[k] = v
	}
	if err := c.send(payload); err != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, id, err
	}

	select {
	case r := <-ch:
		return r.result, id, r.err
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, id, ctx.Err()
	}
}

// GetStates fetches the full entity snapshot.
func (c *Client) GetStates(ctx context.Context) ([]entity.Entity, error) {
	raw, _, err := c.Call(ctx, msgGetStates, nil)
	if err != nil {
		return nil, err
	}
	var out []entity.Entity
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("hass: decoding states: %w", err)
	}
	return out, nil
}

// CallService invokes a domain service, e.g. light.turn_on.
func (c *Client) CallService(ctx context.Context, domain, service string, data map[string]any) error {
	fields := map[string]any{"domain": domain, "service": service}
	if len(data) > 0 {
		fields["service_data"] = data
	}
	_, _, err := c.Call(ctx, msgCallService, fields)
	return err
}

// SubscribeEvents subscribes to a server event type and returns the
// subscription id — which is the command id, reused by the backend for all
// events it routes to this subscription. The handler is registered BEFORE
// the command is sent so events racing the result are never dropped.
func (c *Client) SubscribeEvents(ctx context.Context, eventType string, h EventHandler) (int64, error) {
	id := c.nextID.Add(1)
	ch := make(chan callResult, 1)

	c.mu.Lock()
	if c.conn == nil {
		c.mu.Unlock()
		return 0, ErrNotConnected
	}
	c.pending[id] = ch
	c.handlers[id] = h
	c.mu.Unlock()

	payload := map[string]any{"type": msgSubscribeEvents, "id": id}
	if eventType != "" {
		payload["event_type"] = eventType
	}
	if err := c.send(payload); err != nil {
		c.removeSubscription(id)
		return 0, err
	}

	select {
	case r := <-ch:
		if r.err != nil {
			c.removeSubscription(id)
			return 0, r.err
		}
		return id, nil
	case <-ctx.Done():
		c.removeSubscription(id)
		return 0, ctx.Err()
	}
}

// Unsubscribe cancels server-side delivery for a subscription. Fire and
// forget: the local handler is removed whether or not the server ever
// acknowledges.
func (c *Client) Unsubscribe(subscriptionID int64) {
	c.removeSubscription(subscriptionID)

	id := c.nextID.Add(1)
	_ = c.send(map[string]any{
		"type":         msgUnsubscribeEvents,
		"id":           id,
		"subscription": subscriptionID,
	})
}

func (c *Client) removeSubscription(id int64) {
	c.mu.Lock()
	delete(c.pending, id)
	delete(c.handlers, id)
	c.mu.Unlock()
}

// SubscribeStateChanges subscribes to state_changed events and fans each
// decoded change out to every OnStateChanged listener.
func (c *Client) SubscribeStateChanges(ctx context.Context) (int64, error) {
	return c.SubscribeEvents(ctx, EventStateChanged, func(ev Event) {
		if ev.EventType != EventStateChanged {
			return
		}
		var change StateChange
		if err := json.Unmarshal(ev.Data, &change); err != nil {
			return
		}
		c.listenerMu.Lock()
		listeners := append([]StateChangeHandler(nil), c.stateListeners...)
		c.listenerMu.Unlock()
		for _, fn := range listeners {
			fn(change)
		}
	})
}
