package types

import (
	"fmt"

	"github.com/google/uuid"
)

// CollectionKind tags a collection node.
type CollectionKind string

// Collection node kinds. A master holds the authority index of every entry
// reachable from it and accepts only collection-kind children. Collections
// and subcollections differ only in where the master accepts them.
const (
	KindMasterCollection CollectionKind = "master"
	KindCollectionNode   CollectionKind = "collection"
	KindSubCollection    CollectionKind = "subcollection"
)

// MasterName is the name of every master collection.
const MasterName = "main"

// validCollectionKinds is the set of recognized node kinds.
var validCollectionKinds = map[CollectionKind]bool{
	KindMasterCollection: true,
	KindCollectionNode:   true,
	KindSubCollection:    true,
}

// Collection is a node of the collection graph. Nodes reference entries by
// name and other nodes as children; the children relation may contain
// cycles and shared nodes. Every traversal tracks visited nodes.
type Collection struct {
	id         string
	kind       CollectionKind
	name       string
	Doc        string
	SourceFile string

	master   *Collection
	children ordered[*Collection]
	entries  ordered[*Entry]

	version uint64
	sorted  map[string]sortCache
}

// NewMaster creates an empty master collection.
func NewMaster() *Collection {
	return newNode(KindMasterCollection, MasterName, "")
}

// NewCollection creates an empty top-level collection.
func NewCollection(name string) *Collection {
	return newNode(KindCollectionNode, name, "")
}

// NewSubCollection creates an empty subcollection.
func NewSubCollection(name string) *Collection {
	return newNode(KindSubCollection, name, "")
}

// RestoreCollection creates a node with a known ID, as loaders do. An empty
// id generates a new one.
func RestoreCollection(kind CollectionKind, name, id string) (*Collection, error) {
	if kind == "" {
		kind = KindCollectionNode
	}
	if !validCollectionKinds[kind] {
		return nil, fmt.Errorf("%w: unknown collection kind %q", ErrStructural, kind)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: collection name must not be empty", ErrInvalidName)
	}
	if id != "" {
		if _, err := uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("%w: collection %q has a malformed id %q", ErrInvalidName, name, id)
		}
	}
	return newNode(kind, name, id), nil
}

func newNode(kind CollectionKind, name, id string) *Collection {
	if id == "" {
		id = generateID()
	}
	return &Collection{
		id:       id,
		kind:     kind,
		name:     name,
		children: newOrdered[*Collection](),
		entries:  newOrdered[*Entry](),
	}
}

// generateID returns a new UUID v7, falling back to a random UUID if the
// clock source fails.
func generateID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// ID returns the node's stable identifier.
func (c *Collection) ID() string { return c.id }

// Name returns the node's name.
func (c *Collection) Name() string { return c.name }

// Kind returns the node kind.
func (c *Collection) Kind() CollectionKind { return c.kind }

// IsMaster reports whether c is a master collection.
func (c *Collection) IsMaster() bool { return c.kind == KindMasterCollection }

// Master returns the master that owns c: c itself for a master, nil for a
// detached node.
func (c *Collection) Master() *Collection {
	if c.IsMaster() {
		return c
	}
	return c.master
}

// Children returns the direct children in insertion order.
func (c *Collection) Children() []*Collection {
	return c.children.values()
}

// Members returns the direct entries in insertion order. For a master
// these are all indexed entries.
func (c *Collection) Members() []*Entry {
	return c.entries.values()
}

// Len returns the number of direct entries.
func (c *Collection) Len() int {
	return c.entries.len()
}

func (c *Collection) String() string {
	return fmt.Sprintf("%s(%q)", c.kind, c.name)
}

// touch records a mutation and drops sort results.
func (c *Collection) touch() {
	c.version++
	c.sorted = nil
}

// Add makes e a direct member of c. When c belongs to a master, the master
// indexes e first; a different entry already indexed under the same name
// returns ErrEntryConflict and leaves c unchanged. Adding an entry that is
// already a member is a no-op.
func (c *Collection) Add(e *Entry) error {
	if e == nil || e.Name == "" {
		return fmt.Errorf("%w: entry must have a name", ErrInvalidName)
	}
	if existing, ok := c.entries.get(e.Name); ok {
		if existing == e {
			return nil
		}
		return fmt.Errorf("%s: %w: %q", c, ErrEntryConflict, e.Name)
	}
	if c.master != nil {
		if err := c.master.Add(e); err != nil {
			return err
		}
	}
	c.entries.set(e.Name, e)
	c.touch()
	return nil
}

// Remove drops the named entry from c's direct members. Removing from a
// master also removes the entry from every node the master reaches.
// Returns ErrNotFound if c has no such member.
func (c *Collection) Remove(name string) error {
	if !c.entries.has(name) {
		return fmt.Errorf("%s: %w: entry %q", c, ErrNotFound, name)
	}
	if c.IsMaster() {
		for node := range c.Collections(Walk{SkipSelf: true}) {
			if node.entries.del(name) {
				node.touch()
			}
		}
	}
	c.entries.del(name)
	c.touch()
	return nil
}

// RemoveDeep drops the named entry from c and every node c reaches.
// Returns ErrNotFound if no node held it.
func (c *Collection) RemoveDeep(name string) error {
	found := false
	for node := range c.Collections(Walk{}) {
		if node.entries.del(name) {
			node.touch()
			found = true
		}
	}
	if !found {
		return fmt.Errorf("%s: %w: entry %q", c, ErrNotFound, name)
	}
	return nil
}

// AddChild links child under c. A master accepts only collection-kind
// children and no node accepts a master. Sibling names are unique. When c
// belongs to a master, the child's whole subgraph joins that master and
// all its entries are indexed; conflicts are detected before anything
// changes.
func (c *Collection) AddChild(child *Collection) error {
	if child == nil {
		return fmt.Errorf("%w: nil child", ErrStructural)
	}
	if child.IsMaster() {
		return fmt.Errorf("%w: %s cannot be a child", ErrStructural, child)
	}
	if c.IsMaster() && child.kind != KindCollectionNode {
		return fmt.Errorf("%w: a master accepts only collections, got %s", ErrStructural, child)
	}
	if existing, ok := c.children.get(child.name); ok {
		if existing == child {
			return nil
		}
		return fmt.Errorf("%s: %w: child %q", c, ErrDuplicateName, child.name)
	}
	m := c.Master()
	if child.master != nil && child.master != m {
		return fmt.Errorf("%w: adding %s to %s", ErrMasterMismatch, child, c)
	}
	if m != nil {
		if err := m.checkAdopt(child); err != nil {
			return err
		}
	}
	c.children.set(child.name, child)
	c.touch()
	if m != nil {
		m.adopt(child)
	}
	return nil
}

// checkAdopt verifies that the subgraph under root can join master c.
func (c *Collection) checkAdopt(root *Collection) error {
	m := c
	pending := map[string]*Entry{}
	for node := range root.Collections(Walk{}) {
		if node.master != nil && node.master != m {
			return fmt.Errorf("%w: %s belongs to another master", ErrMasterMismatch, node)
		}
		for _, e := range node.entries.values() {
			if prior, ok := m.entries.get(e.Name); ok && prior != e {
				return fmt.Errorf("%s: %w: %q", node, ErrEntryConflict, e.Name)
			}
			if prior, ok := pending[e.Name]; ok && prior != e {
				return fmt.Errorf("%s: %w: %q", node, ErrEntryConflict, e.Name)
			}
			pending[e.Name] = e
		}
	}
	return nil
}

// adopt points every node under root at master c and indexes its entries.
// checkAdopt must have succeeded.
func (c *Collection) adopt(root *Collection) {
	m := c
	for node := range root.Collections(Walk{}) {
		node.master = m
		for _, e := range node.entries.values() {
			if !m.entries.has(e.Name) {
				m.entries.set(e.Name, e)
				m.touch()
			}
		}
	}
}

// RemoveChild unlinks the named direct child. Returns ErrNotFound if c has
// no such child. Nodes a master can no longer reach are detached from it.
func (c *Collection) RemoveChild(name string) error {
	child, ok := c.children.get(name)
	if !ok {
		return fmt.Errorf("%s: %w: child %q", c, ErrNotFound, name)
	}
	c.children.del(name)
	c.touch()
	if m := c.Master(); m != nil {
		reachable := map[*Collection]bool{}
		for node := range m.Collections(Walk{}) {
			reachable[node] = true
		}
		for node := range child.Collections(Walk{}) {
			if !reachable[node] && node.master == m {
				node.master = nil
			}
		}
	}
	return nil
}

// CreateChild makes a new subcollection, links it under c and returns it.
func (c *Collection) CreateChild(name string) (*Collection, error) {
	child := NewSubCollection(name)
	if err := c.AddChild(child); err != nil {
		return nil, err
	}
	return child, nil
}

// Has reports whether c holds the named entry, directly or, when deep is
// set, anywhere below. A master answers from its index.
func (c *Collection) Has(name string, deep bool) bool {
	return c.Get(name, deep) != nil
}

// Get returns the named entry, looking in c directly or, when deep is set,
// through every reachable node top-down. A master answers from its index.
// Returns nil when not found.
func (c *Collection) Get(name string, deep bool) *Entry {
	if e, ok := c.entries.get(name); ok {
		return e
	}
	if !deep || c.IsMaster() {
		return nil
	}
	for node := range c.Collections(Walk{SkipSelf: true}) {
		if e, ok := node.entries.get(name); ok {
			return e
		}
	}
	return nil
}

// HasChild reports whether a child with the given name exists directly
// under c or, when deep is set, anywhere below.
func (c *Collection) HasChild(name string, deep bool) bool {
	return c.GetChild(name, deep) != nil
}

// GetChild returns the first node with the given name among c's direct
// children or, when deep is set, among all reachable nodes top-down.
// Returns nil when not found.
func (c *Collection) GetChild(name string, deep bool) *Collection {
	if child, ok := c.children.get(name); ok {
		return child
	}
	if !deep {
		return nil
	}
	for node := range c.Collections(Walk{SkipSelf: true}) {
		if node.name == name {
			return node
		}
	}
	return nil
}

// Flatten makes every entry reachable from c a direct member of c. Children
// are left in place.
func (c *Collection) Flatten() error {
	if c.IsMaster() {
		return nil
	}
	var add []*Entry
	seen := map[string]*Entry{}
	for e := range c.Entries() {
		if prior, ok := seen[e.Name]; ok {
			if prior != e {
				return fmt.Errorf("%s: %w: %q", c, ErrEntryConflict, e.Name)
			}
			continue
		}
		seen[e.Name] = e
		if !c.entries.has(e.Name) {
			add = append(add, e)
		}
	}
	for _, e := range add {
		c.entries.set(e.Name, e)
	}
	if len(add) > 0 {
		c.touch()
	}
	return nil
}

// Copy returns a structural copy of c: new nodes with new IDs and the same
// names, docs, entry references and child links. Shared and cyclic links
// are reproduced. A copied master indexes the same entries; copies of other
// nodes are detached from any master.
func (c *Collection) Copy() *Collection {
	memo := map[*Collection]*Collection{}
	var clone func(n *Collection) *Collection
	clone = func(n *Collection) *Collection {
		if cp, ok := memo[n]; ok {
			return cp
		}
		cp := newNode(n.kind, n.name, "")
		cp.Doc = n.Doc
		cp.SourceFile = n.SourceFile
		memo[n] = cp
		for _, e := range n.entries.values() {
			cp.entries.set(e.Name, e)
		}
		for _, child := range n.children.values() {
			cp.children.set(child.name, clone(child))
		}
		return cp
	}
	out := clone(c)
	if out.IsMaster() {
		for node := range out.Collections(Walk{SkipSelf: true}) {
			node.master = out
		}
	}
	return out
}
