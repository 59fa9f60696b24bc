// Package persist stores the app's local documents (dashboard layout,
// theme settings) as JSON blobs in a diskv-backed key-value store. The
// core treats every document as an opaque get/set; schema knowledge stays
// with the owning package.
package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/peterbourgon/diskv/v3"
)

// Well-known document keys.
const (
	KeyLayout = "dashboard_layout"
	KeyTheme  = "theme_settings"
)

// ErrNotFound is returned when a document does not exist yet.
var ErrNotFound = errors.New("persist: document not found")

// Store is a JSON document store on top of diskv.
type Store struct {
	d *diskv.Diskv
}

// DefaultBasePath returns the data directory for persisted documents.
// Uses XDG_DATA_HOME if set, otherwise ~/.local/share/homedeck.
func DefaultBasePath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "homedeck-data" // fallback to current dir
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "homedeck")
}

// Open creates a document store rooted at basePath.
func Open(basePath string) *Store {
	return &Store{d: diskv.New(diskv.Options{
		BasePath:     basePath,
		CacheSizeMax: 1024 * 1024, // 1MB
	})}
}

// Get reads and decodes a document into out.
func (s *Store) Get(key string, out any) error {
	data, err := s.d.Read(key)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("persist: reading %s: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("persist: decoding %s: %w", key, err)
	}
	return nil
}

// GetRaw reads a document's raw bytes.
func (s *Store) GetRaw(key string) ([]byte, error) {
	data, err := s.d.Read(key)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("persist: reading %s: %w", key, err)
	}
	return data, nil
}

// Set encodes and writes a document.
func (s *Store) Set(key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("persist: encoding %s: %w", key, err)
	}
	if err := s.d.Write(key, data); err != nil {
		return fmt.Errorf("persist: writing %s: %w", key, err)
	}
	return nil
}

// SetRaw writes raw document bytes.
func (s *Store) SetRaw(key string, data []byte) error {
	if err := s.d.Write(key, data); err != nil {
		return fmt.Errorf("persist: writing %s: %w", key, err)
	}
	return nil
}

// Delete removes a document. Missing documents are not an error.
func (s *Store) Delete(key string) error {
	err := s.d.Erase(key)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("persist: deleting %s: %w", key, err)
	}
	return nil
}

// Has reports whether a document exists.
func (s *Store) Has(key string) bool {
	return s.d.Has(key)
}
