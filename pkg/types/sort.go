package types

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// DefaultSortKey is the item Sort orders by when callers have no preference.
const DefaultSortKey = "author"

// sortCache holds one Sort result with the versions of the nodes it was
// computed from. The first keyed entries carry the sort item.
type sortCache struct {
	entries  []*Entry
	keyed    int
	versions map[*Collection]uint64
}

func (sc sortCache) valid() bool {
	for node, v := range sc.versions {
		if node.version != v {
			return false
		}
	}
	return true
}

// SortOptions adjust the order Sort returns.
type SortOptions struct {
	Descending bool // Reverse the entries that have the item; the rest stay last.
	Omit       bool // Drop entries that lack the item.
}

// Sort returns the entries reachable from c, each once, in ascending order
// of the value of the named item or built-in attribute. Entries lacking it
// come last in their original order. Values of different types cannot be
// ordered and return ErrTypeMismatch. Results are cached until any
// reachable node changes.
func (c *Collection) Sort(by string) ([]*Entry, error) {
	return c.SortWith(by, SortOptions{})
}

// SortWith is Sort with ordering options. Every option shares the cached
// ascending order.
func (c *Collection) SortWith(by string, opts SortOptions) ([]*Entry, error) {
	sc, err := c.sortCached(by)
	if err != nil {
		return nil, err
	}
	out := slices.Clone(sc.entries)
	if opts.Descending {
		slices.Reverse(out[:sc.keyed])
	}
	if opts.Omit {
		out = out[:sc.keyed]
	}
	return out, nil
}

func (c *Collection) sortCached(by string) (sortCache, error) {
	if sc, ok := c.sorted[by]; ok && sc.valid() {
		return sc, nil
	}
	versions := map[*Collection]uint64{}
	if c.IsMaster() {
		versions[c] = c.version
	} else {
		for node := range c.Collections(Walk{}) {
			versions[node] = node.version
		}
	}

	var keyed, missing []*Entry
	keys := map[*Entry]any{}
	for _, e := range c.Unique() {
		v, err := e.Get(by)
		if err != nil {
			missing = append(missing, e)
			continue
		}
		keys[e] = v
		keyed = append(keyed, e)
	}
	var cmpErr error
	slices.SortStableFunc(keyed, func(a, b *Entry) int {
		n, err := compareValues(keys[a], keys[b])
		if err != nil && cmpErr == nil {
			cmpErr = fmt.Errorf("sorting by %q: entries %q and %q: %w", by, a.Name, b.Name, err)
		}
		return n
	})
	if cmpErr != nil {
		return sortCache{}, cmpErr
	}
	sc := sortCache{entries: append(keyed, missing...), keyed: len(keyed), versions: versions}
	if c.sorted == nil {
		c.sorted = map[string]sortCache{}
	}
	c.sorted[by] = sc
	return sc, nil
}

// compareValues orders two item values of the same type.
func compareValues(a, b any) (int, error) {
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y), nil
		}
	case Kind:
		if y, ok := b.(Kind); ok {
			return strings.Compare(string(x), string(y)), nil
		}
	case int:
		if y, ok := b.(int); ok {
			return cmp.Compare(x, y), nil
		}
	case AuthorList:
		if y, ok := b.(AuthorList); ok {
			return x.Compare(y), nil
		}
	case Month:
		if y, ok := b.(Month); ok {
			return x.Compare(y), nil
		}
	}
	return 0, fmt.Errorf("%w: cannot order %T against %T", ErrTypeMismatch, a, b)
}

// Duplicates groups the distinct entries reachable from c that appear to
// describe the same work: the same first-author surname and title after
// reducing both to lower-case letters. Groups are ordered by that
// fingerprint and entries within a group by name.
func (c *Collection) Duplicates() [][]*Entry {
	type keyed struct {
		fp string
		e  *Entry
	}
	var list []keyed
	for _, e := range c.Unique() {
		if fp := duplicateFingerprint(e); fp != "" {
			list = append(list, keyed{fp, e})
		}
	}
	slices.SortFunc(list, func(a, b keyed) int {
		if n := strings.Compare(a.fp, b.fp); n != 0 {
			return n
		}
		return strings.Compare(a.e.Name, b.e.Name)
	})
	var groups [][]*Entry
	for i := 0; i < len(list); {
		j := i + 1
		for j < len(list) && list[j].fp == list[i].fp {
			j++
		}
		if j-i > 1 {
			group := make([]*Entry, 0, j-i)
			for _, k := range list[i:j] {
				group = append(group, k.e)
			}
			groups = append(groups, group)
		}
		i = j
	}
	return groups
}

func duplicateFingerprint(e *Entry) string {
	surname := ""
	if v, ok := e.Bib["author"]; ok {
		if al, err := ParseAuthors(v); err == nil {
			surname = al.FirstSurname()
		}
	}
	title := ""
	if v, ok := e.Bib["title"]; ok {
		title = formatValue(v)
	}
	return fingerprint(surname + title)
}
