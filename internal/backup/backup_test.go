package backup

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Dicklesworthstone/homedeck/internal/dashboard"
)

func exportBundle(t *testing.T, docs Documents) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := Export(&buf, docs); err != nil {
		t.Fatalf("Export: %v", err)
	}
	return buf.Bytes()
}

func layoutJSON(t *testing.T) []byte {
	t.Helper()
	data, err := json.Marshal(dashboard.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestExportImport_RoundTrip(t *testing.T) {
	t.Parallel()

	layout := layoutJSON(t)
	theme := []byte("name: night\n")
	data := exportBundle(t, Documents{Layout: layout, Theme: theme})

	docs, err := Import(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if !bytes.Equal(docs.Layout, layout) {
		t.Error("layout document changed in transit")
	}
	if !bytes.Equal(docs.Theme, theme) {
		t.Error("theme document changed in transit")
	}
}

func TestImport_MissingManifest(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, _ := zw.Create(EntryLayout)
	f.Write(layoutJSON(t))
	zw.Close()

	_, err := Import(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if !errors.Is(err, ErrNoManifest) {
		t.Errorf("err = %v, want ErrNoManifest", err)
	}
}

func TestImport_ManifestOnlyRejected(t *testing.T) {
	t.Parallel()

	// A valid manifest with no layout document carries nothing to apply;
	// accepting it would let the import path blank the stored layout.
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	mf, _ := zw.Create(EntryManifest)
	m, _ := json.Marshal(Manifest{Version: ManifestVersion, ExportedAt: time.Now(), App: AppName})
	mf.Write(m)
	zw.Close()

	_, err := Import(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if !errors.Is(err, ErrNoLayout) {
		t.Errorf("err = %v, want ErrNoLayout", err)
	}
}

func TestImport_WrongAppRejected(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	mf, _ := zw.Create(EntryManifest)
	m, _ := json.Marshal(Manifest{Version: 1, ExportedAt: time.Now(), App: "otherapp"})
	mf.Write(m)
	zw.Close()

	_, err := Import(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if !errors.Is(err, ErrBadProvenance) {
		t.Errorf("err = %v, want ErrBadProvenance", err)
	}
}

func TestImport_MalformedLayoutRejected(t *testing.T) {
	t.Parallel()

	data := exportBundle(t, Documents{Layout: []byte("{broken")})
	if _, err := Import(bytes.NewReader(data), int64(len(data))); err == nil {
		t.Error("malformed layout accepted")
	}
}

func TestImport_InvalidLayoutInvariantsRejected(t *testing.T) {
	t.Parallel()

	// tab_order references a tab that does not exist.
	bad, _ := json.Marshal(dashboard.Config{
		Version:  1,
		TabOrder: []string{"ghost"},
		Tabs:     map[string]dashboard.TabConfig{},
	})
	data := exportBundle(t, Documents{Layout: bad})
	if _, err := Import(bytes.NewReader(data), int64(len(data))); err == nil {
		t.Error("layout violating invariants accepted")
	}
}

func TestDecodeLayout_Valid(t *testing.T) {
	t.Parallel()

	cfg, err := DecodeLayout(layoutJSON(t))
	if err != nil {
		t.Fatalf("DecodeLayout: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("decoded layout invalid: %v", err)
	}
}

func TestPreviewDiff(t *testing.T) {
	t.Parallel()

	a := []byte("{\n  \"version\": 1\n}\n")
	b := []byte("{\n  \"version\": 2\n}\n")

	same := PreviewDiff(a, a)
	if same.Similarity != 1.0 {
		t.Errorf("identical docs similarity = %v, want 1.0", same.Similarity)
	}
	if same.UnifiedDiff != "" {
		t.Errorf("identical docs produced a diff: %q", same.UnifiedDiff)
	}

	diff := PreviewDiff(a, b)
	if diff.Similarity >= 1.0 {
		t.Error("different docs reported identical")
	}
	if diff.UnifiedDiff == "" {
		t.Error("different docs produced no diff text")
	}
}
