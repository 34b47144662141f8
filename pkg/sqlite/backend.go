// Package sqlite provides the public API for the SQLite library catalog.
// This package exposes the factory function while keeping implementation
// details internal.
package sqlite

import (
	"github.com/mesh-intelligence/bibshelf/internal/sqlite"
	"github.com/mesh-intelligence/bibshelf/pkg/types"
)

// NewCatalog creates a new SQLite catalog instance.
// The catalog is not attached; call Attach with a Config to open it.
//
// Example:
//
//	catalog := sqlite.NewCatalog()
//	err := catalog.Attach(types.Config{
//	    Library:    ".shelf-library",
//	    Layout:     types.LayoutDirectory,
//	    CatalogDir: ".shelf-catalog",
//	})
//	defer catalog.Detach()
//	err = catalog.Sync(master)
//	names, err := catalog.Fetch(types.Filter{"kind": "article"})
func NewCatalog() types.Catalog {
	return sqlite.NewCatalog()
}
