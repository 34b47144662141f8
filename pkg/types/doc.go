// Package types defines the bibliography model for bibshelf: entries and
// their item rules, the typed values stored in items (AuthorList, Month),
// the collection graph with its master index, the declarative unit records
// that persist them, and the standard errors shared by every layer.
package types
