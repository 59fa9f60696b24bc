// Package backup exports and imports the app's persisted documents as a
// zip bundle with a provenance manifest.
package backup

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Dicklesworthstone/homedeck/internal/dashboard"
)

// AppName tags bundles produced by this application.
const AppName = "homedeck"

// ManifestVersion is the current bundle format version.
const ManifestVersion = 1

// Bundle entry names.
const (
	EntryManifest = "manifest.json"
	EntryLayout   = "layout.json"
	EntryTheme    = "theme.yaml"
)

var (
	// ErrNoManifest marks an archive without a manifest entry.
	ErrNoManifest = errors.New("backup: bundle has no manifest")

	// ErrBadProvenance marks a manifest from a different app or a newer
	// format version.
	ErrBadProvenance = errors.New("backup: bundle provenance rejected")

	// ErrNoLayout marks a bundle without a layout document. Import is
	// all-or-nothing; a bundle that carries nothing to apply is rejected
	// rather than allowed to blank the existing layout.
	ErrNoLayout = errors.New("backup: bundle has no layout document")
)

// Manifest is the provenance tag validated on import.
type Manifest struct {
	Version    int       `json:"version"`
	ExportedAt time.Time `json:"exportedAt"`
	App        string    `json:"app"`
}

// Documents are the named payloads carried in a bundle.
type Documents struct {
	Layout []byte // JSON layout document
	Theme  []byte // YAML theme settings, optional
}

// Export writes a bundle containing the given documents to w.
func Export(w io.Writer, docs Documents) error {
	zw := zip.NewWriter(w)

	manifest, err := json.MarshalIndent(Manifest{
		Version:    ManifestVersion,
		ExportedAt: time.Now().UTC(),
		App:        AppName,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("backup: encoding manifest: %w", err)
	}

	entries := []struct {
		name string
		data []byte
	}{
		{EntryManifest, manifest},
		{EntryLayout, docs.Layout},
		{EntryTheme, docs.Theme},
	}
	for _, e := range entries {
		if e.data == nil {
			continue
		}
		f, err := zw.Create(e.name)
		if err != nil {
			return fmt.Errorf("backup: creating entry %s: %w", e.name, err)
		}
		if _, err := f.Write(e.data); err != nil {
			return fmt.Errorf("backup: writing entry %s: %w", e.name, err)
		}
	}
	return zw.Close()
}

// Import reads a bundle, validates its manifest and layout document, and
// returns the documents. Nothing is applied here; a validation failure
// means no partial state anywhere.
func Import(r io.ReaderAt, size int64) (Documents, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return Documents{}, fmt.Errorf("backup: opening bundle: %w", err)
	}

	entries := map[string][]byte{}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return Documents{}, fmt.Errorf("backup: opening entry %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return Documents{}, fmt.Errorf("backup: reading entry %s: %w", f.Name, err)
		}
		entries[f.Name] = data
	}

	rawManifest, ok := entries[EntryManifest]
	if !ok {
		return Documents{}, ErrNoManifest
	}
	var m Manifest
	if err := json.Unmarshal(rawManifest, &m); err != nil {
		return Documents{}, fmt.Errorf("backup: decoding manifest: %w", err)
	}
	if m.App != AppName || m.Version <= 0 || m.Version > ManifestVersion {
		return Documents{}, fmt.Errorf("%w: app=%q version=%d", ErrBadProvenance, m.App, m.Version)
	}

	docs := Documents{Layout: entries[EntryLayout], Theme: entries[EntryTheme]}
	if docs.Layout == nil {
		return Documents{}, ErrNoLayout
	}
	if _, err := DecodeLayout(docs.Layout); err != nil {
		return Documents{}, err
	}
	return docs, nil
}

// DecodeLayout parses and validates a layout document. Malformed JSON or
// failed invariants reject the whole document.
func DecodeLayout(data []byte) (dashboard.Config, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var cfg dashboard.Config
	if err := dec.Decode(&cfg); err != nil {
		return dashboard.Config{}, fmt.Errorf("backup: decoding layout: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return dashboard.Config{}, fmt.Errorf("backup: layout invalid: %w", err)
	}
	return cfg, nil
}
