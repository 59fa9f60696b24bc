// Package events logs connection lifecycle events to a JSONL file for
// diagnostics: connects, auth results, reconnect attempts, give-ups.
package events

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType classifies a lifecycle event.
type EventType string

// Lifecycle event types.
const (
	EventConnect       EventType = "connect"
	EventAuthOK        EventType = "auth_ok"
	EventAuthFailed    EventType = "auth_failed"
	EventDisconnect    EventType = "disconnect"
	EventReconnect     EventType = "reconnect"
	EventReconnectGave EventType = "reconnect_gave_up"
	EventError         EventType = "error"
)

// Event is one logged lifecycle record.
type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	Type      EventType      `json:"type"`
	Server    string         `json:"server,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// Logger appends events to a JSONL file. A nil Logger is a valid no-op.
type Logger struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// NewLogger opens (creating if needed) the log at path. An empty path
// returns a disabled logger.
func NewLogger(path string) (*Logger, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("events: creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("events: opening log file: %w", err)
	}
	return &Logger{path: path, file: f}, nil
}

// Log appends one event. Safe on a nil receiver.
func (l *Logger) Log(eventType EventType, server string, data map[string]any) error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}

	ev := Event{Timestamp: time.Now().UTC(), Type: eventType, Server: server, Data: data}
	line, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("events: encoding: %w", err)
	}
	_, err = l.file.Write(append(line, '\n'))
	return err
}

// Close flushes and closes the log file. Safe on a nil receiver.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// DefaultPath returns the standard lifecycle log location under the data
// directory.
func DefaultPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "events.jsonl"
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "homedeck", "events.jsonl")
}
