package events

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestLogger_AppendsJSONL(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "events.jsonl")
	l, err := NewLogger(path)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	defer l.Close()

	if err := l.Log(EventConnect, "ha.local", nil); err != nil {
		t.Fatal(err)
	}
	if err := l.Log(EventAuthOK, "ha.local", map[string]any{"attempts": 0}); err != nil {
		t.Fatal(err)
	}
	l.Close()

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var lines []Event
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var ev Event
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			t.Fatalf("line not valid JSON: %v", err)
		}
		lines = append(lines, ev)
	}
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0].Type != EventConnect || lines[1].Type != EventAuthOK {
		t.Errorf("event types = %s, %s", lines[0].Type, lines[1].Type)
	}
	if lines[0].Timestamp.IsZero() {
		t.Error("timestamp not set")
	}
}

func TestLogger_NilIsNoOp(t *testing.T) {
	t.Parallel()

	var l *Logger
	if err := l.Log(EventError, "", nil); err != nil {
		t.Errorf("nil logger Log: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("nil logger Close: %v", err)
	}
}

func TestNewLogger_EmptyPathDisabled(t *testing.T) {
	t.Parallel()

	l, err := NewLogger("")
	if err != nil {
		t.Fatal(err)
	}
	if l != nil {
		t.Error("empty path should return nil logger")
	}
}
