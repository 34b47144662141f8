package sqlite

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mesh-intelligence/bibshelf/pkg/library"
	"github.com/mesh-intelligence/bibshelf/pkg/types"
)

const fixture = `shelf: 1
collections:
  - name: fabrics
    doc: woven things
    members: [smith2020]
    children: [notes]
  - name: notes
    kind: subcollection
    members: [doe2019]
  - name: dyes
    children: [notes]
entries:
  - name: smith2020
    type: article
    collections: [fabrics]
    items:
      author: John Smith and Jane Doe
      title: A Study
      journal: J. Things
      year: 2020
      pages: 1--10
      volume: 3
  - name: doe2019
    type: misc
    doc: read twice
    items:
      title: Notes on Dye
      howpublished: web
      year: 2019
      month: mar
`

func testConfig(t *testing.T) types.Config {
	t.Helper()
	return types.Config{
		Library:    filepath.Join(t.TempDir(), "library"),
		Layout:     types.LayoutDirectory,
		CatalogDir: t.TempDir(),
	}
}

func loadFixture(t *testing.T) *types.Collection {
	t.Helper()
	m := types.NewMaster()
	if _, err := library.LoadReader(m, strings.NewReader(fixture), "fixture.shelf.yaml", library.LoadOptions{}); err != nil {
		t.Fatalf("loading fixture: %v", err)
	}
	return m
}

func attached(t *testing.T) *Catalog {
	t.Helper()
	c := NewCatalog()
	if err := c.Attach(testConfig(t)); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	t.Cleanup(func() { c.Detach() })
	return c
}

func TestCatalog_Attach(t *testing.T) {
	config := testConfig(t)
	c := NewCatalog()
	if err := c.Attach(config); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	defer c.Detach()

	if _, err := os.Stat(filepath.Join(config.CatalogDir, DBFile)); err != nil {
		t.Errorf("%s not created: %v", DBFile, err)
	}
	if err := c.Attach(config); !errors.Is(err, types.ErrAlreadyAttached) {
		t.Errorf("expected ErrAlreadyAttached, got %v", err)
	}
}

func TestCatalog_AttachInvalidConfig(t *testing.T) {
	c := NewCatalog()
	err := c.Attach(types.Config{Layout: types.LayoutDirectory})
	if !errors.Is(err, types.ErrLibraryEmpty) {
		t.Errorf("expected ErrLibraryEmpty, got %v", err)
	}
}

func TestCatalog_Detach(t *testing.T) {
	c := NewCatalog()
	if err := c.Attach(testConfig(t)); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	if err := c.Detach(); err != nil {
		t.Fatalf("Detach failed: %v", err)
	}
	if err := c.Detach(); err != nil {
		t.Errorf("second Detach should not error, got %v", err)
	}

	if _, err := c.Fetch(nil); !errors.Is(err, types.ErrCatalogDetached) {
		t.Errorf("Fetch: expected ErrCatalogDetached, got %v", err)
	}
	if err := c.Sync(types.NewMaster()); !errors.Is(err, types.ErrCatalogDetached) {
		t.Errorf("Sync: expected ErrCatalogDetached, got %v", err)
	}
	if _, err := c.Snapshot(); !errors.Is(err, types.ErrCatalogDetached) {
		t.Errorf("Snapshot: expected ErrCatalogDetached, got %v", err)
	}
	if _, err := c.Path(); !errors.Is(err, types.ErrCatalogDetached) {
		t.Errorf("Path: expected ErrCatalogDetached, got %v", err)
	}
}

func TestCatalog_SnapshotRebuildsLibrary(t *testing.T) {
	m := loadFixture(t)
	c := attached(t)
	if err := c.Sync(m); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	u, err := c.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	rebuilt := types.NewMaster()
	report, err := library.LoadUnit(rebuilt, u, "catalog", library.LoadOptions{})
	if err != nil {
		t.Fatalf("LoadUnit failed: %v", err)
	}
	if report.Warnings() != 0 {
		t.Errorf("unexpected diagnostics: %v", report.Diagnostics)
	}

	want, err := library.BuildUnit(m)
	if err != nil {
		t.Fatal(err)
	}
	got, err := library.BuildUnit(rebuilt)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestCatalog_SyncReplaces(t *testing.T) {
	c := attached(t)
	if err := c.Sync(loadFixture(t)); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if err := c.Sync(types.NewMaster()); err != nil {
		t.Fatalf("second Sync failed: %v", err)
	}
	names, err := c.Fetch(nil)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("expected an empty catalog, got %v", names)
	}
}

func TestCatalog_Fetch(t *testing.T) {
	c := attached(t)
	if err := c.Sync(loadFixture(t)); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	tests := []struct {
		name    string
		filter  types.Filter
		want    []string
		wantErr error
	}{
		{name: "all", filter: nil, want: []string{"doe2019", "smith2020"}},
		{name: "kind", filter: types.Filter{"kind": "article"}, want: []string{"smith2020"}},
		{name: "collection", filter: types.Filter{"collection": "notes"}, want: []string{"doe2019"}},
		{name: "direct members only", filter: types.Filter{"collection": "dyes"}, want: []string{}},
		{name: "item year", filter: types.Filter{"item.year": "2019"}, want: []string{"doe2019"}},
		{name: "item month text", filter: types.Filter{"item.month": "Mar"}, want: []string{"doe2019"}},
		{name: "item authors", filter: types.Filter{"item.author": "John Smith and Jane Doe"}, want: []string{"smith2020"}},
		{name: "combined", filter: types.Filter{"kind": "misc", "item.year": "2020"}, want: []string{}},
		{name: "unknown key", filter: types.Filter{"color": "red"}, wantErr: types.ErrInvalidFilter},
		{name: "bare item prefix", filter: types.Filter{"item.": "x"}, wantErr: types.ErrInvalidFilter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Fetch(tt.filter)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Fetch failed: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Fetch mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEncodeValueRoundTrip(t *testing.T) {
	values := []any{
		"2001",
		42,
		[]string{"a", "b"},
		[][]string{{"John", "Smith"}, {"Jane", "Doe"}},
		map[string]any{"month": 3, "full": true},
	}
	for _, v := range values {
		s, err := encodeValue(v)
		if err != nil {
			t.Fatalf("encodeValue(%v): %v", v, err)
		}
		got, err := decodeValue(s)
		if err != nil {
			t.Fatalf("decodeValue(%q): %v", s, err)
		}
		if diff := cmp.Diff(v, got); diff != "" {
			t.Errorf("round trip of %v (-want +got):\n%s", v, diff)
		}
	}
}
