package sqlite

// Schema DDL for all tables.
const (
	createEntries = `CREATE TABLE entries (
    name TEXT PRIMARY KEY,
    kind TEXT NOT NULL,
    doc TEXT NOT NULL,
    docfile TEXT NOT NULL,
    sourcefile TEXT NOT NULL
);`

	createItems = `CREATE TABLE items (
    entry_name TEXT NOT NULL,
    name TEXT NOT NULL,
    ordinal INTEGER NOT NULL,
    value_type TEXT NOT NULL,
    value TEXT NOT NULL,
    text TEXT NOT NULL,
    PRIMARY KEY (entry_name, name),
    FOREIGN KEY (entry_name) REFERENCES entries(name) ON DELETE CASCADE
);`

	createNominations = `CREATE TABLE nominations (
    entry_name TEXT NOT NULL,
    collection TEXT NOT NULL,
    ordinal INTEGER NOT NULL,
    PRIMARY KEY (entry_name, collection),
    FOREIGN KEY (entry_name) REFERENCES entries(name) ON DELETE CASCADE
);`

	createCollections = `CREATE TABLE collections (
    collection_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    kind TEXT NOT NULL,
    detached INTEGER NOT NULL,
    doc TEXT NOT NULL,
    ordinal INTEGER NOT NULL
);`

	createChildren = `CREATE TABLE children (
    parent_id TEXT NOT NULL,
    child_id TEXT NOT NULL,
    ordinal INTEGER NOT NULL,
    PRIMARY KEY (parent_id, child_id),
    FOREIGN KEY (parent_id) REFERENCES collections(collection_id) ON DELETE CASCADE,
    FOREIGN KEY (child_id) REFERENCES collections(collection_id) ON DELETE CASCADE
);`

	createMembers = `CREATE TABLE members (
    collection_id TEXT NOT NULL,
    entry_name TEXT NOT NULL,
    ordinal INTEGER NOT NULL,
    PRIMARY KEY (collection_id, entry_name),
    FOREIGN KEY (collection_id) REFERENCES collections(collection_id) ON DELETE CASCADE,
    FOREIGN KEY (entry_name) REFERENCES entries(name) ON DELETE CASCADE
);`
)

// Index DDL for common queries.
const (
	idxEntriesKind     = `CREATE INDEX idx_entries_kind ON entries(kind);`
	idxItemsNameText   = `CREATE INDEX idx_items_name_text ON items(name, text);`
	idxCollectionsName = `CREATE INDEX idx_collections_name ON collections(name);`
	idxMembersEntry    = `CREATE INDEX idx_members_entry ON members(entry_name);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createEntries,
	createItems,
	createNominations,
	createCollections,
	createChildren,
	createMembers,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxEntriesKind,
	idxItemsNameText,
	idxCollectionsName,
	idxMembersEntry,
}

// tablesForReset lists tables in the order Sync clears them.
var tablesForReset = []string{"members", "children", "collections", "nominations", "items", "entries"}
