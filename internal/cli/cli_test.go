package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/bibshelf/pkg/library"
	"github.com/mesh-intelligence/bibshelf/pkg/types"
)

const refsBib = `@article{smith2020,
  author = {John Smith and Jane Doe},
  title = {A Study of Looms},
  journal = {J. Things},
  year = 2020,
  volume = 3,
  pages = {1--10},
}

@conference{doe2019,
  author = {Jane Doe},
  title = {Dyes},
  booktitle = {Proc. Color},
  year = 2019,
  month = mar,
}
`

// shelfEnv isolates one CLI invocation sequence in temp directories.
type shelfEnv struct {
	configDir string
	library   string
	catalog   string
}

func newShelfEnv(t *testing.T) *shelfEnv {
	t.Helper()
	return &shelfEnv{
		configDir: t.TempDir(),
		library:   filepath.Join(t.TempDir(), "library"),
		catalog:   t.TempDir(),
	}
}

func (e *shelfEnv) run(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	root := NewRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	full := append(args, "--config-dir", e.configDir, "--library", e.library, "--catalog-dir", e.catalog)
	code := run(root, full, &stderr)
	return stdout.String(), stderr.String(), code
}

func (e *shelfEnv) importRefs(t *testing.T) {
	t.Helper()
	bib := filepath.Join(t.TempDir(), "refs.bib")
	require.NoError(t, os.WriteFile(bib, []byte(refsBib), 0o644))
	out, stderr, code := e.run(t, "import", bib, "--collection", "inbox")
	require.Equal(t, exitSuccess, code, stderr)
	require.Contains(t, out, "Imported 2 entries")
	require.Contains(t, out, "created collection inbox")
}

func TestVersion(t *testing.T) {
	e := newShelfEnv(t)
	out, _, code := e.run(t, "version")
	assert.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "shelf v"+Version)
}

func TestInit(t *testing.T) {
	e := newShelfEnv(t)
	out, stderr, code := e.run(t, "init")
	require.Equal(t, exitSuccess, code, stderr)
	assert.Contains(t, out, "Shelf initialized successfully")
	assert.FileExists(t, filepath.Join(e.configDir, configFileExt))
	assert.FileExists(t, filepath.Join(e.library, library.CollectionsUnit))

	out, _, code = e.run(t, "init")
	assert.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "already initialized")
}

func TestImportThenQuery(t *testing.T) {
	e := newShelfEnv(t)
	e.importRefs(t)

	out, _, code := e.run(t, "list", "--by", "year", "--json")
	require.Equal(t, exitSuccess, code)
	var names []string
	require.NoError(t, json.Unmarshal([]byte(out), &names))
	assert.Equal(t, []string{"doe2019", "smith2020"}, names)

	out, _, code = e.run(t, "list", "--by", "month", "--desc", "--json")
	require.Equal(t, exitSuccess, code)
	require.NoError(t, json.Unmarshal([]byte(out), &names))
	assert.Equal(t, []string{"doe2019", "smith2020"}, names)

	out, _, code = e.run(t, "list", "--by", "month", "--omit", "--json")
	require.Equal(t, exitSuccess, code)
	names = nil
	require.NoError(t, json.Unmarshal([]byte(out), &names))
	assert.Equal(t, []string{"doe2019"}, names)

	out, _, code = e.run(t, "list", "--by", "year", "--desc", "--json")
	require.Equal(t, exitSuccess, code)
	require.NoError(t, json.Unmarshal([]byte(out), &names))
	assert.Equal(t, []string{"smith2020", "doe2019"}, names)

	out, _, code = e.run(t, "children", "--members")
	require.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "inbox [collection, 2 entries]")
	assert.Contains(t, out, "smith2020")

	out, _, code = e.run(t, "show", "smith2020", "--bib")
	require.Equal(t, exitSuccess, code)
	assert.True(t, strings.HasPrefix(out, "@ARTICLE{smith2020,\n"), out)

	out, _, code = e.run(t, "show", "doe2019", "--json")
	require.Equal(t, exitSuccess, code)
	var shown map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Equal(t, "conference", shown["type"])
	assert.Equal(t, []any{"inbox"}, shown["collections"])

	_, stderr, code := e.run(t, "show", "nobody")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, stderr, "not found")

	bib := filepath.Join(t.TempDir(), "out.bib")
	_, _, code = e.run(t, "export", "inbox", "-o", bib, "--by", "name")
	require.Equal(t, exitSuccess, code)
	data, err := os.ReadFile(bib)
	require.NoError(t, err)
	assert.Contains(t, string(data), "@INPROCEEDINGS{doe2019,")
	assert.Contains(t, string(data), "@ARTICLE{smith2020,")

	out, _, code = e.run(t, "duplicates")
	require.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "No duplicates found")
}

func TestCatalogQuery(t *testing.T) {
	e := newShelfEnv(t)
	e.importRefs(t)

	out, stderr, code := e.run(t, "catalog", "query", "kind=article")
	require.Equal(t, exitSuccess, code, stderr)
	assert.Equal(t, "smith2020\n", out)

	out, _, code = e.run(t, "catalog", "query", "collection=inbox", "item.year=2019")
	require.Equal(t, exitSuccess, code)
	assert.Equal(t, "doe2019\n", out)

	out, _, code = e.run(t, "catalog", "sync")
	require.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "2 entries")

	_, _, code = e.run(t, "catalog", "query", "color=red")
	assert.Equal(t, exitUserError, code)
	_, _, code = e.run(t, "catalog", "query", "novalue")
	assert.Equal(t, exitUserError, code)
}

func TestCheckAndRelax(t *testing.T) {
	e := newShelfEnv(t)
	require.NoError(t, os.MkdirAll(e.library, 0o755))
	unit := `entries:
  - name: broken
    type: article
    items: {title: Half Done}
`
	require.NoError(t, os.WriteFile(filepath.Join(e.library, "broken"+library.UnitExt), []byte(unit), 0o644))

	out, _, code := e.run(t, "check")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, out, "warning:")
	assert.Contains(t, out, "1 entry")

	_, stderr, code := e.run(t, "list")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, stderr, types.ErrSchemaViolation.Error())

	out, _, code = e.run(t, "list", "--relax")
	assert.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "broken")
}

func TestSaveSingle(t *testing.T) {
	e := newShelfEnv(t)
	e.importRefs(t)

	path := filepath.Join(t.TempDir(), "all"+library.UnitExt)
	out, _, code := e.run(t, "save", "--single", path)
	require.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "Saved 2 entries")

	m := types.NewMaster()
	_, err := library.Load(m, path, library.LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, m.Len())
	assert.NotNil(t, m.GetChild("inbox", false))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitSysError, exitCode(sysError(errors.New("disk full"))))
	assert.Equal(t, exitSysError, exitCode(&fs.PathError{Op: "open", Path: "x", Err: fs.ErrPermission}))
	assert.Equal(t, exitUserError, exitCode(types.ErrNotFound))
	assert.Nil(t, sysError(nil))
}
