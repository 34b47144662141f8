package sqlite

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mesh-intelligence/bibshelf/pkg/types"
)

// Snapshot returns the stored library as one unit. Child references are
// collection IDs.
func (c *Catalog) Snapshot() (types.Unit, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.attached {
		return types.Unit{}, types.ErrCatalogDetached
	}

	u := types.Unit{Version: types.UnitVersion}
	var err error
	if u.Entries, err = c.readEntries(); err != nil {
		return types.Unit{}, err
	}
	if u.Collections, err = c.readCollections(); err != nil {
		return types.Unit{}, err
	}
	return u, nil
}

func (c *Catalog) readEntries() ([]types.EntryRecord, error) {
	rows, err := c.db.Query("SELECT name, kind, doc, docfile FROM entries ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("reading entries: %w", err)
	}
	var records []types.EntryRecord
	for rows.Next() {
		var rec types.EntryRecord
		var kind string
		if err := rows.Scan(&rec.Name, &kind, &rec.Doc, &rec.DocFile); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		rec.Type = types.Kind(kind)
		records = append(records, rec)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range records {
		rec := &records[i]
		if rec.Items, err = c.readItems(rec.Name); err != nil {
			return nil, err
		}
		if rec.Collections, err = c.column(
			"SELECT collection FROM nominations WHERE entry_name = ? ORDER BY ordinal", rec.Name); err != nil {
			return nil, err
		}
	}
	return records, nil
}

func (c *Catalog) readItems(entry string) (types.Items, error) {
	rows, err := c.db.Query("SELECT name, value FROM items WHERE entry_name = ? ORDER BY ordinal", entry)
	if err != nil {
		return nil, fmt.Errorf("reading items of %q: %w", entry, err)
	}
	defer rows.Close()

	var items types.Items
	for rows.Next() {
		var name, raw string
		if err := rows.Scan(&name, &raw); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		v, err := decodeValue(raw)
		if err != nil {
			return nil, &types.ItemError{Entry: entry, Item: name, Err: err}
		}
		items = append(items, types.ItemValue{Name: name, Value: v})
	}
	return items, rows.Err()
}

func (c *Catalog) readCollections() ([]types.CollectionRecord, error) {
	rows, err := c.db.Query("SELECT collection_id, name, kind, detached, doc FROM collections ORDER BY ordinal")
	if err != nil {
		return nil, fmt.Errorf("reading collections: %w", err)
	}
	var records []types.CollectionRecord
	for rows.Next() {
		var rec types.CollectionRecord
		var kind string
		if err := rows.Scan(&rec.ID, &rec.Name, &kind, &rec.Detached, &rec.Doc); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning collection: %w", err)
		}
		rec.Kind = types.CollectionKind(kind)
		records = append(records, rec)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range records {
		rec := &records[i]
		if rec.Members, err = c.column(
			"SELECT entry_name FROM members WHERE collection_id = ? ORDER BY ordinal", rec.ID); err != nil {
			return nil, err
		}
		if rec.Children, err = c.column(
			"SELECT child_id FROM children WHERE parent_id = ? ORDER BY ordinal", rec.ID); err != nil {
			return nil, err
		}
	}
	return records, nil
}

// column runs a single-column query.
func (c *Catalog) column(query string, args ...any) ([]string, error) {
	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying catalog: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Fetch returns the names of entries matching every filter key, sorted.
// Keys are "kind", "collection" (a direct member of any node with that
// name), and "item.<name>" (the item's BibTeX text). Other keys return
// ErrInvalidFilter.
func (c *Catalog) Fetch(filter types.Filter) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.attached {
		return nil, types.ErrCatalogDetached
	}

	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	query := "SELECT name FROM entries"
	var conditions []string
	var args []any
	for _, k := range keys {
		v := filter[k]
		switch {
		case k == types.FilterKind:
			conditions = append(conditions, "kind = ?")
			args = append(args, v)
		case k == types.FilterCollection:
			conditions = append(conditions,
				"name IN (SELECT m.entry_name FROM members m JOIN collections c ON c.collection_id = m.collection_id WHERE c.name = ?)")
			args = append(args, v)
		case strings.HasPrefix(k, types.FilterItem) && len(k) > len(types.FilterItem):
			conditions = append(conditions,
				"name IN (SELECT entry_name FROM items WHERE name = ? AND text = ?)")
			args = append(args, strings.TrimPrefix(k, types.FilterItem), v)
		default:
			return nil, fmt.Errorf("%w: %q", types.ErrInvalidFilter, k)
		}
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY name"

	names, err := c.column(query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetching entries: %w", err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}
