package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/bibshelf/pkg/library"
	"github.com/mesh-intelligence/bibshelf/pkg/types"
)

// Sync replaces the catalog contents with the graph under master. Writing
// is transactional: on failure the previous snapshot remains.
func (c *Catalog) Sync(master *types.Collection) error {
	u, err := library.BuildUnit(master)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.attached {
		return types.ErrCatalogDetached
	}

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning sync transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range tablesForReset {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	for _, rec := range u.Entries {
		if err := insertEntry(tx, master.Get(rec.Name, false), rec); err != nil {
			return err
		}
	}
	if err := insertCollections(tx, u.Collections); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing sync transaction: %w", err)
	}
	return nil
}

func insertEntry(tx *sql.Tx, e *types.Entry, rec types.EntryRecord) error {
	if e == nil {
		return fmt.Errorf("%w: entry %q", types.ErrNotFound, rec.Name)
	}
	if _, err := tx.Exec(
		"INSERT INTO entries (name, kind, doc, docfile, sourcefile) VALUES (?, ?, ?, ?, ?)",
		rec.Name, string(rec.Type), rec.Doc, rec.DocFile, e.SourceFile,
	); err != nil {
		return fmt.Errorf("inserting entry %q: %w", rec.Name, err)
	}
	for i, iv := range rec.Items {
		value, err := encodeValue(iv.Value)
		if err != nil {
			return &types.ItemError{Entry: rec.Name, Item: iv.Name, Err: err}
		}
		text, err := e.Format(iv.Name)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(
			"INSERT INTO items (entry_name, name, ordinal, value_type, value, text) VALUES (?, ?, ?, ?, ?, ?)",
			rec.Name, iv.Name, i, types.ValueTypeOf(e.Item(iv.Name)), value, text,
		); err != nil {
			return fmt.Errorf("inserting item %q of %q: %w", iv.Name, rec.Name, err)
		}
	}
	for i, name := range rec.Collections {
		if _, err := tx.Exec(
			"INSERT INTO nominations (entry_name, collection, ordinal) VALUES (?, ?, ?)",
			rec.Name, name, i,
		); err != nil {
			return fmt.Errorf("inserting nomination of %q: %w", rec.Name, err)
		}
	}
	return nil
}

// insertCollections stores collection records. Child references are stored
// as IDs whether the record named the child or gave its ID.
func insertCollections(tx *sql.Tx, records []types.CollectionRecord) error {
	ids := map[string]string{}
	count := map[string]int{}
	for _, rec := range records {
		ids[rec.ID] = rec.ID
		count[rec.Name]++
	}
	for _, rec := range records {
		if count[rec.Name] == 1 {
			ids[rec.Name] = rec.ID
		}
	}

	for i, rec := range records {
		if _, err := tx.Exec(
			"INSERT INTO collections (collection_id, name, kind, detached, doc, ordinal) VALUES (?, ?, ?, ?, ?, ?)",
			rec.ID, rec.Name, string(rec.Kind), rec.Detached, rec.Doc, i,
		); err != nil {
			return fmt.Errorf("inserting collection %q: %w", rec.Name, err)
		}
	}
	for _, rec := range records {
		for i, ref := range rec.Children {
			id, ok := ids[ref]
			if !ok {
				return fmt.Errorf("collection %q: %w: child %q", rec.Name, types.ErrNotFound, ref)
			}
			if _, err := tx.Exec(
				"INSERT INTO children (parent_id, child_id, ordinal) VALUES (?, ?, ?)",
				rec.ID, id, i,
			); err != nil {
				return fmt.Errorf("inserting child of %q: %w", rec.Name, err)
			}
		}
		for i, name := range rec.Members {
			if _, err := tx.Exec(
				"INSERT INTO members (collection_id, entry_name, ordinal) VALUES (?, ?, ?)",
				rec.ID, name, i,
			); err != nil {
				return fmt.Errorf("inserting member %q of %q: %w", name, rec.Name, err)
			}
		}
	}
	return nil
}

// encodeValue stores a code-form item value as YAML text.
func encodeValue(v any) (string, error) {
	out, err := yaml.Marshal(v)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(string(out), "\n"), nil
}

// decodeValue reverses encodeValue.
func decodeValue(s string) (any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(s), &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return nil, fmt.Errorf("%w: empty item value", types.ErrInvalidUnit)
	}
	return types.DecodeValue(doc.Content[0])
}
