// Package sqlite implements the library catalog on SQLite. The unit files
// remain the source of truth; the catalog holds a snapshot of a loaded
// library so that entries can be selected with SQL.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/bibshelf/pkg/types"
)

// DBFile is the catalog database file name inside the catalog directory.
const DBFile = "catalog.db"

// Catalog implements types.Catalog.
type Catalog struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
}

// NewCatalog creates a detached catalog. Call Attach to open it.
func NewCatalog() *Catalog {
	return &Catalog{}
}

// Attach creates the catalog directory if needed and opens a fresh database
// in it. A database left by an earlier run is discarded.
// Returns ErrAlreadyAttached if already attached.
func (c *Catalog) Attach(config types.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dir := config.CatalogDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating catalog directory: %w", err)
	}

	dbPath := filepath.Join(dir, DBFile)
	_ = os.Remove(dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("opening catalog: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := createSchema(db); err != nil {
		db.Close()
		return err
	}

	c.db = db
	c.config = config
	c.attached = true
	return nil
}

func createSchema(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("enabling foreign keys: %w", err)
	}
	for _, stmt := range schemaDDL {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	for _, stmt := range indexDDL {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("creating index: %w", err)
		}
	}
	return nil
}

// Detach closes the database. Detach is idempotent.
func (c *Catalog) Detach() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.attached {
		return nil
	}
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			return err
		}
		c.db = nil
	}
	c.attached = false
	return nil
}

// Path returns the database file of an attached catalog.
func (c *Catalog) Path() (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.attached {
		return "", types.ErrCatalogDetached
	}
	dir := c.config.CatalogDir
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, DBFile), nil
}

var _ types.Catalog = (*Catalog)(nil)
