package library

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/bibshelf/pkg/types"
)

// article returns a complete, posted article.
func article(t *testing.T, name, author string, year int) *types.Entry {
	t.Helper()
	e := types.NewEntry(name, types.KindArticle)
	e.SetItem("author", author)
	e.SetItem("title", "On "+name)
	e.SetItem("journal", "J. Things")
	e.SetItem("year", year)
	e.SetItem("pages", "1--10")
	e.SetItem("volume", 3)
	_, err := e.Post(types.PostOptions{})
	require.NoError(t, err)
	return e
}

// nodeShape is a comparable description of one collection node.
type nodeShape struct {
	ID       string
	Name     string
	Kind     types.CollectionKind
	Doc      string
	Members  []string
	Children []string
}

// shape describes the graph under master: its top-level order, every
// reachable node top-down, and every entry record.
func shape(t *testing.T, master *types.Collection) ([]string, []nodeShape, []types.EntryRecord) {
	t.Helper()
	var top []string
	for _, c := range master.Children() {
		top = append(top, c.ID())
	}
	var nodes []nodeShape
	for node := range master.Collections(types.Walk{SkipSelf: true}) {
		ns := nodeShape{ID: node.ID(), Name: node.Name(), Kind: node.Kind(), Doc: node.Doc}
		for _, e := range node.Members() {
			ns.Members = append(ns.Members, e.Name)
		}
		for _, c := range node.Children() {
			ns.Children = append(ns.Children, c.ID())
		}
		nodes = append(nodes, ns)
	}
	u, err := BuildUnit(master)
	require.NoError(t, err)
	return top, nodes, u.Entries
}

func assertSameGraph(t *testing.T, want, got *types.Collection) {
	t.Helper()
	wantTop, wantNodes, wantEntries := shape(t, want)
	gotTop, gotNodes, gotEntries := shape(t, got)
	assert.Equal(t, wantTop, gotTop, "top-level order")
	if diff := cmp.Diff(wantNodes, gotNodes); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantEntries, gotEntries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

// sampleGraph builds a library with nested, shared and same-named nodes
// and a cycle.
func sampleGraph(t *testing.T) *types.Collection {
	t.Helper()
	m := types.NewMaster()
	smith := article(t, "smith2020", "John Smith", 2020)
	doe := article(t, "doe2019", "Jane Doe", 2019)
	lee := article(t, "lee2021", "Ann Lee", 2021)
	smith.Nominate("fabrics")

	fabrics := types.NewCollection("fabrics")
	fabrics.Doc = "woven things"
	dyes := types.NewCollection("dyes")
	require.NoError(t, m.AddChild(fabrics))
	require.NoError(t, m.AddChild(dyes))

	weaving := types.NewSubCollection("notes")
	shared := types.NewSubCollection("shared")
	dyeNotes := types.NewSubCollection("notes")
	require.NoError(t, fabrics.AddChild(weaving))
	require.NoError(t, fabrics.AddChild(shared))
	require.NoError(t, dyes.AddChild(dyeNotes))
	require.NoError(t, dyes.AddChild(shared))
	require.NoError(t, shared.AddChild(fabrics))

	require.NoError(t, fabrics.Add(smith))
	require.NoError(t, weaving.Add(doe))
	require.NoError(t, shared.Add(lee))
	require.NoError(t, dyeNotes.Add(smith))
	return m
}

func TestLoadSelfNomination(t *testing.T) {
	unit := `shelf: 1
entries:
  - name: smith2020
    type: article
    collections: [x]
    items:
      author: John Smith
      title: A Study
      journal: J. Things
      year: 2020
      pages: 1--10
      volume: 3
`
	m := types.NewMaster()
	report, err := LoadReader(m, strings.NewReader(unit), "mem.shelf.yaml", LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"x"}, report.Created)
	assert.Equal(t, 1, report.Warnings())
	assert.Contains(t, report.Diagnostics[0].Message, `"x"`)

	x := m.GetChild("x", false)
	require.NotNil(t, x)
	e := m.Get("smith2020", false)
	require.NotNil(t, e)
	assert.Same(t, e, x.Get("smith2020", false))
	assert.Equal(t, "mem.shelf.yaml", e.SourceFile)
}

func TestLoadNominatesExistingCollection(t *testing.T) {
	unit := `collections:
  - name: top
    children: [inner]
  - name: inner
    kind: subcollection
entries:
  - name: doe
    type: misc
    collections: [inner]
    items: {title: T, howpublished: web, year: 2001}
`
	m := types.NewMaster()
	report, err := LoadReader(m, strings.NewReader(unit), "u", LoadOptions{})
	require.NoError(t, err)
	assert.Empty(t, report.Created)
	assert.Equal(t, 2, report.Collections)

	inner := m.GetChild("inner", true)
	require.NotNil(t, inner)
	assert.True(t, inner.Has("doe", false))
	assert.False(t, m.HasChild("inner", false))
}

func TestLoadRelax(t *testing.T) {
	unit := `entries:
  - name: broken
    type: article
    items: {title: No Author}
  - name: odd
    type: nosuchkind
  - name: fine
    type: misc
    items: {title: T, howpublished: web, year: 2001}
`
	_, err := LoadReader(types.NewMaster(), strings.NewReader(unit), "u", LoadOptions{})
	assert.ErrorIs(t, err, types.ErrSchemaViolation)

	m := types.NewMaster()
	report, err := LoadReader(m, strings.NewReader(unit), "u", LoadOptions{Relax: true})
	require.NoError(t, err)
	assert.True(t, m.Has("broken", false))
	assert.False(t, m.Has("odd", false))
	assert.True(t, m.Has("fine", false))
	assert.Equal(t, 2, report.Entries)
	assert.NotZero(t, report.Warnings())
}

func TestLoadWarnings(t *testing.T) {
	unit := `collections:
  - name: a
    members: [ghost]
  - name: a
  - name: orphan
    kind: subcollection
entries:
  - name: doe
    type: misc
    items: {title: T, howpublished: web, year: 2001}
  - name: doe
    type: misc
    items: {title: Other, howpublished: web, year: 2002}
`
	m := types.NewMaster()
	report, err := LoadReader(m, strings.NewReader(unit), "u", LoadOptions{})
	require.NoError(t, err)

	var msgs []string
	for _, d := range report.Diagnostics {
		msgs = append(msgs, d.Message)
	}
	assert.Len(t, msgs, 4, "%v", msgs)
	assert.Equal(t, "T", m.Get("doe", false).Item("title"), "first definition wins")
	assert.Len(t, m.Children(), 1)
	assert.Nil(t, m.GetChild("orphan", true))
}

func TestLoadTargetMustBeMaster(t *testing.T) {
	_, err := LoadReader(types.NewCollection("c"), strings.NewReader(""), "u", LoadOptions{})
	assert.ErrorIs(t, err, types.ErrNotMaster)
	_, err = BuildUnit(types.NewCollection("c"))
	assert.ErrorIs(t, err, types.ErrNotMaster)
}

func TestLoadAcrossUnits(t *testing.T) {
	dir := t.TempDir()
	first := `collections:
  - name: top
entries:
  - name: doe
    type: misc
    items: {title: T, howpublished: web, year: 2001}
`
	second := `collections:
  - name: more
    kind: subcollection
    members: [doe]
  - name: host
    children: [top, more]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a"+UnitExt), []byte(first), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b"+UnitExt), []byte(second), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("not a unit"), 0o644))

	m := types.NewMaster()
	report, err := Load(m, dir, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Units)
	host := m.GetChild("host", false)
	require.NotNil(t, host)
	assert.Same(t, m.GetChild("top", false), host.GetChild("top", false))
	assert.True(t, host.Has("doe", true))

	m = types.NewMaster()
	report, err = Load(m, dir, LoadOptions{Shallow: true})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Units)
	assert.Nil(t, m.GetChild("host", false))
}

func TestSaveFileRoundTrip(t *testing.T) {
	m := sampleGraph(t)
	path := filepath.Join(t.TempDir(), "all"+UnitExt)
	require.NoError(t, SaveFile(m, path))

	loaded := types.NewMaster()
	report, err := Load(loaded, path, LoadOptions{})
	require.NoError(t, err)
	assert.Zero(t, report.Warnings(), "%v", report.Diagnostics)
	assertSameGraph(t, m, loaded)

	// Saving the reloaded graph reproduces the file byte for byte.
	var a, b bytes.Buffer
	require.NoError(t, Encode(&a, m))
	require.NoError(t, Encode(&b, loaded))
	assert.Equal(t, a.String(), b.String())
}

func TestSaveAfterRemovalRoundTrip(t *testing.T) {
	unit := `shelf: 1
entries:
  - name: smith2020
    type: article
    collections: [fabrics, dyes]
    items: {author: John Smith, title: A Study, journal: J. Things, year: 2020, pages: 1--10, volume: 3}
  - name: doe2019
    type: article
    collections: [dyes]
    items: {author: Jane Doe, title: Dyes, journal: J. Things, year: 2019, pages: 5, volume: 1}
`
	m := types.NewMaster()
	report, err := LoadReader(m, strings.NewReader(unit), "mem.shelf.yaml", LoadOptions{})
	require.NoError(t, err)
	require.Equal(t, []string{"fabrics", "dyes"}, report.Created)

	fabrics := m.GetChild("fabrics", false)
	require.NotNil(t, fabrics)
	require.NoError(t, fabrics.Remove("smith2020"))
	require.NoError(t, m.RemoveChild("dyes"))

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, m))

	back := types.NewMaster()
	report, err = LoadReader(back, &buf, "saved.shelf.yaml", LoadOptions{})
	require.NoError(t, err)
	assert.Empty(t, report.Created)
	assert.Empty(t, report.Diagnostics)

	fabricsBack := back.GetChild("fabrics", false)
	require.NotNil(t, fabricsBack)
	assert.Empty(t, fabricsBack.Members())
	assert.Nil(t, back.GetChild("dyes", true))
	assert.Equal(t, 2, back.Len())
	assertSameGraph(t, m, back)

	rec, err := BuildUnit(back)
	require.NoError(t, err)
	for _, e := range rec.Entries {
		assert.Empty(t, e.Collections, e.Name)
	}
}

func TestSaveKeepsHeldNominations(t *testing.T) {
	m := sampleGraph(t)
	u, err := BuildUnit(m)
	require.NoError(t, err)
	var smith types.EntryRecord
	for _, rec := range u.Entries {
		if rec.Name == "smith2020" {
			smith = rec
		}
	}
	assert.Equal(t, []string{"fabrics"}, smith.Collections)
}

func TestSaveDirRoundTrip(t *testing.T) {
	m := sampleGraph(t)
	dir := t.TempDir()
	files, err := SaveDir(m, dir, SaveOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{CollectionsUnit, "doe2019" + UnitExt, "lee2021" + UnitExt, "smith2020" + UnitExt}, files)

	loaded := types.NewMaster()
	report, err := Load(loaded, dir, LoadOptions{})
	require.NoError(t, err)
	assert.Zero(t, report.Warnings(), "%v", report.Diagnostics)
	assertSameGraph(t, m, loaded)
}

func TestSaveDirPurge(t *testing.T) {
	m := types.NewMaster()
	require.NoError(t, m.Add(article(t, "smith2020", "John Smith", 2020)))

	dir := t.TempDir()
	stale := filepath.Join(dir, "gone"+UnitExt)
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(stale, []byte("entries: []\n"), 0o644))
	require.NoError(t, os.WriteFile(other, []byte("keep"), 0o644))

	_, err := SaveDir(m, dir, SaveOptions{Keep: true})
	require.NoError(t, err)
	assert.FileExists(t, stale)

	_, err = SaveDir(m, dir, SaveOptions{})
	require.NoError(t, err)
	assert.NoFileExists(t, stale)
	assert.FileExists(t, other)
	assert.FileExists(t, filepath.Join(dir, "smith2020"+UnitExt))
}

func TestUniqueFileName(t *testing.T) {
	taken := map[string]bool{}
	assert.Equal(t, "a_b"+UnitExt, uniqueFileName("a/b", taken))
	assert.Equal(t, "a_b_1"+UnitExt, uniqueFileName("a b", taken))
	assert.Equal(t, "A_B_2"+UnitExt, uniqueFileName("A:B", taken))
	assert.Equal(t, "entry", SanitizeName(""))
}

func TestSaveBib(t *testing.T) {
	m := types.NewMaster()
	c := types.NewCollection("c")
	require.NoError(t, m.AddChild(c))
	require.NoError(t, c.Add(article(t, "b", "Bea Brown", 2021)))
	require.NoError(t, c.Add(article(t, "a", "Al Adams", 2019)))
	require.NoError(t, m.Add(article(t, "z", "Zed Zane", 2000)))

	var buf bytes.Buffer
	require.NoError(t, SaveBib(&buf, c, "year"))
	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "@ARTICLE{"))
	assert.Less(t, strings.Index(out, "@ARTICLE{a,"), strings.Index(out, "@ARTICLE{b,"))
	assert.NotContains(t, out, "@ARTICLE{z,")

	path := filepath.Join(t.TempDir(), "out.bib")
	require.NoError(t, SaveBibFile(path, m, "name"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(data), "@ARTICLE{"))
	assert.True(t, strings.HasPrefix(string(data), "@ARTICLE{a,"))
}

func TestImportBib(t *testing.T) {
	src := `@string{jt = "J. Things"}
@article{smith2020,
  author = {John Smith and Jane Doe},
  title = {A Study},
  journal = jt,
  year = 2020,
  volume = 3,
  pages = {1--10},
}
@conference{doe2019, author = {Jane Doe}, title = {Talk}, booktitle = {Conf}, year = {2019}, month = mar}
`
	m := types.NewMaster()
	report, err := ImportBib(m, strings.NewReader(src), "refs.bib", ImportOptions{Collection: "imported"})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Entries)
	assert.Equal(t, []string{"imported"}, report.Created)

	smith := m.Get("smith2020", false)
	require.NotNil(t, smith)
	assert.Equal(t, 2020, smith.Item("year"))
	assert.Equal(t, "J. Things", smith.Item("journal"))
	authors, ok := smith.Item("author").(types.AuthorList)
	require.True(t, ok)
	assert.Equal(t, 2, authors.Len())

	doe := m.Get("doe2019", false)
	require.NotNil(t, doe)
	assert.Equal(t, types.KindConference, doe.Kind)
	assert.Equal(t, types.Month{Index: 3}, doe.Item("month"))

	imported := m.GetChild("imported", false)
	require.NotNil(t, imported)
	assert.Equal(t, 2, imported.Len())
}

func TestImportBibErrors(t *testing.T) {
	src := "@unknown{k, title = {x}}\n@misc{m, title = {T}, howpublished = {web}, year = 2001}\n"
	_, err := ImportBib(types.NewMaster(), strings.NewReader(src), "x.bib", ImportOptions{})
	assert.ErrorIs(t, err, types.ErrUnknownKind)

	m := types.NewMaster()
	report, err := ImportBib(m, strings.NewReader(src), "x.bib", ImportOptions{LoadOptions: LoadOptions{Relax: true}})
	require.NoError(t, err)
	assert.True(t, m.Has("m", false))
	assert.Equal(t, 1, report.Warnings())

	_, err = ImportBib(types.NewMaster(), strings.NewReader("@misc{k, title = {x"), "x.bib", ImportOptions{})
	assert.ErrorIs(t, err, types.ErrParse)
}
