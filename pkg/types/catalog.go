package types

import "errors"

// Catalog errors.
var (
	ErrCatalogDetached = errors.New("catalog is detached")
	ErrAlreadyAttached = errors.New("catalog is already attached")
	ErrInvalidFilter   = errors.New("invalid filter")
)

// Filter keys understood by Catalog.Fetch. An item filter is FilterItem
// followed by the item name, as in "item.year".
const (
	FilterKind       = "kind"
	FilterCollection = "collection"
	FilterItem       = "item."
)

// Filter selects entries by exact match. Every key must match.
type Filter map[string]string

// Catalog is a query index over a library. The unit files stay the source
// of truth; a catalog holds a snapshot taken by Sync.
type Catalog interface {
	// Attach opens the catalog under config.CatalogDir.
	Attach(config Config) error

	// Detach releases the catalog. It is idempotent.
	Detach() error

	// Sync replaces the stored snapshot with the graph under master.
	Sync(master *Collection) error

	// Snapshot returns the stored snapshot as a single unit.
	Snapshot() (Unit, error)

	// Fetch returns the names of the entries matching filter, sorted.
	Fetch(filter Filter) ([]string, error)
}
