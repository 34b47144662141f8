package library

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/bibshelf/pkg/types"
)

// SaveOptions configure SaveDir.
type SaveOptions struct {
	// Keep leaves unit files that the save did not write in place. By
	// default they are removed after every new file is written.
	Keep bool
}

// BuildUnit converts the graph under master into one unit: every reachable
// collection in top-down order, then every indexed entry by name. An entry
// keeps only the nominations the graph still honors, so loading the unit
// back adds no membership or collection that was removed.
func BuildUnit(master *types.Collection) (types.Unit, error) {
	if master == nil || !master.IsMaster() {
		return types.Unit{}, fmt.Errorf("%w: save source must be a master collection", types.ErrNotMaster)
	}
	u := types.Unit{Version: types.UnitVersion}
	u.Collections = collectionRecords(master)
	for _, e := range sortedEntries(master) {
		rec, err := e.Record()
		if err != nil {
			return types.Unit{}, err
		}
		rec.Collections = heldNominations(master, e, rec.Collections)
		u.Entries = append(u.Entries, rec)
	}
	return u, nil
}

// heldNominations returns the names whose collection, as the load's
// nomination pass would find it, has e as a direct member.
func heldNominations(master *types.Collection, e *types.Entry, names []string) []string {
	var out []string
	for _, name := range names {
		if c := master.GetChild(name, true); c != nil && c.Get(e.Name, false) == e {
			out = append(out, name)
		}
	}
	return out
}

func sortedEntries(master *types.Collection) []*types.Entry {
	entries := master.Members()
	sort.Slice(entries, func(i, j int) bool { return entries[i].Less(entries[j]) })
	return entries
}

// collectionRecords describes every node reachable from master. Children
// are referenced by name when the name is unique among the saved nodes and
// by ID otherwise.
func collectionRecords(master *types.Collection) []types.CollectionRecord {
	var nodes []*types.Collection
	count := map[string]int{}
	for node := range master.Collections(types.Walk{SkipSelf: true}) {
		nodes = append(nodes, node)
		count[node.Name()]++
	}
	ref := func(n *types.Collection) string {
		if count[n.Name()] == 1 {
			return n.Name()
		}
		return n.ID()
	}
	top := map[*types.Collection]bool{}
	for _, c := range master.Children() {
		top[c] = true
	}

	records := make([]types.CollectionRecord, 0, len(nodes))
	for _, node := range nodes {
		rec := types.CollectionRecord{
			Name:     node.Name(),
			ID:       node.ID(),
			Kind:     node.Kind(),
			Detached: node.Kind() == types.KindCollectionNode && !top[node],
			Doc:      node.Doc,
		}
		for _, e := range node.Members() {
			rec.Members = append(rec.Members, e.Name)
		}
		for _, child := range node.Children() {
			rec.Children = append(rec.Children, ref(child))
		}
		records = append(records, rec)
	}
	return records
}

// Encode writes the whole graph under master as a single unit.
func Encode(w io.Writer, master *types.Collection) error {
	u, err := BuildUnit(master)
	if err != nil {
		return err
	}
	return types.EncodeUnit(w, u)
}

// SaveFile writes the whole graph under master to one unit file, atomically.
func SaveFile(master *types.Collection, path string) error {
	u, err := BuildUnit(master)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, func(w io.Writer) error {
		return types.EncodeUnit(w, u)
	})
}

// SaveDir writes one unit file per entry, named after the entry, and one
// collections unit, into dir. Unit files at the top of dir that this save
// did not write are removed afterwards unless opts.Keep is set. It returns
// the written file names.
func SaveDir(master *types.Collection, dir string, opts SaveOptions) ([]string, error) {
	u, err := BuildUnit(master)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}

	written := map[string]bool{}
	var files []string
	write := func(name string, unit types.Unit) error {
		written[name] = true
		files = append(files, name)
		return writeFileAtomic(filepath.Join(dir, name), func(w io.Writer) error {
			return types.EncodeUnit(w, unit)
		})
	}

	if err := write(CollectionsUnit, types.Unit{Version: types.UnitVersion, Collections: u.Collections}); err != nil {
		return nil, err
	}
	taken := map[string]bool{strings.ToLower(CollectionsUnit): true}
	for _, rec := range u.Entries {
		name := uniqueFileName(rec.Name, taken)
		if err := write(name, types.Unit{Version: types.UnitVersion, Entries: []types.EntryRecord{rec}}); err != nil {
			return nil, err
		}
	}

	if !opts.Keep {
		if err := purgeUnits(dir, written); err != nil {
			return files, err
		}
	}
	return files, nil
}

// uniqueFileName derives a unit file name from an entry name. Characters
// other than letters, digits, '_' and '-' become '_'; a numeric suffix
// separates names that collide, ignoring case.
func uniqueFileName(entry string, taken map[string]bool) string {
	base := SanitizeName(entry)
	name := base + UnitExt
	for i := 1; taken[strings.ToLower(name)]; i++ {
		name = base + "_" + strconv.Itoa(i) + UnitExt
	}
	taken[strings.ToLower(name)] = true
	return name
}

// SanitizeName maps an entry name to a file name stem.
func SanitizeName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "entry"
	}
	return b.String()
}

// purgeUnits removes unit files at the top of dir that are not in keep.
func purgeUnits(dir string, keep map[string]bool) error {
	list, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", dir, err)
	}
	for _, de := range list {
		if de.IsDir() || keep[de.Name()] || !strings.HasSuffix(de.Name(), UnitExt) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, de.Name())); err != nil {
			return fmt.Errorf("removing stale unit: %w", err)
		}
	}
	return nil
}
