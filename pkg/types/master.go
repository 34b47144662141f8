package types

import (
	"errors"
	"fmt"
	"sort"
)

// Merge moves the contents of another master into c. Entries and top-level
// collections present in both under the same name but as different objects
// are conflicts: without overwrite Merge returns ErrEntryConflict or
// ErrDuplicateName and changes nothing; with overwrite the incoming
// definitions replace the existing ones everywhere in c.
func (c *Collection) Merge(other *Collection, overwrite bool) error {
	if !c.IsMaster() || other == nil || !other.IsMaster() {
		return fmt.Errorf("%w: merge needs two masters", ErrNotMaster)
	}
	if other == c {
		return nil
	}
	var entryConflicts, childConflicts []string
	for _, e := range other.entries.values() {
		if prior, ok := c.entries.get(e.Name); ok && prior != e {
			entryConflicts = append(entryConflicts, e.Name)
		}
	}
	for _, child := range other.children.values() {
		if prior, ok := c.children.get(child.name); ok && prior != child {
			childConflicts = append(childConflicts, child.name)
		}
	}
	if !overwrite && len(entryConflicts)+len(childConflicts) > 0 {
		sort.Strings(entryConflicts)
		sort.Strings(childConflicts)
		var errs []error
		if len(entryConflicts) > 0 {
			errs = append(errs, fmt.Errorf("%w: entries %q", ErrEntryConflict, entryConflicts))
		}
		if len(childConflicts) > 0 {
			errs = append(errs, fmt.Errorf("%w: collections %q", ErrDuplicateName, childConflicts))
		}
		return fmt.Errorf("merge: %w", errors.Join(errs...))
	}

	replaced := map[string]*Entry{}
	for _, e := range other.entries.values() {
		if prior, ok := c.entries.get(e.Name); ok && prior != e {
			replaced[e.Name] = e
		}
		c.entries.set(e.Name, e)
	}
	for _, child := range other.children.values() {
		c.children.set(child.name, child)
	}
	for node := range c.Collections(Walk{SkipSelf: true}) {
		if node.master == other || node.master == nil {
			node.master = c
		}
		for name, e := range replaced {
			if node.entries.has(name) {
				node.entries.set(name, e)
				node.touch()
			}
		}
	}
	c.touch()
	return nil
}
