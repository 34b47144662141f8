package types

import "iter"

// Walk selects how Collections visits the graph. The zero value visits c
// and every reachable node top-down.
type Walk struct {
	// DepthFirst yields children before their parents. The default yields
	// each node before the children it discovered.
	DepthFirst bool
	// SkipSelf leaves the starting node out.
	SkipSelf bool
	// Shallow visits only the direct children.
	Shallow bool
}

// Collections yields the nodes reachable from c, each exactly once even
// when the graph is cyclic or shared. The sequence is computed lazily and
// may be ranged over any number of times.
func (c *Collection) Collections(w Walk) iter.Seq[*Collection] {
	return func(yield func(*Collection) bool) {
		if w.Shallow {
			c.walkShallow(w, yield)
			return
		}
		visited := map[*Collection]bool{c: true}
		if w.DepthFirst {
			c.walkBottomUp(visited, w.SkipSelf, yield)
			return
		}
		if !w.SkipSelf && !yield(c) {
			return
		}
		c.walkTopDown(visited, yield)
	}
}

func (c *Collection) walkShallow(w Walk, yield func(*Collection) bool) {
	if !w.DepthFirst && !w.SkipSelf && !yield(c) {
		return
	}
	for _, child := range c.children.values() {
		if child == c {
			continue
		}
		if !yield(child) {
			return
		}
	}
	if w.DepthFirst && !w.SkipSelf {
		yield(c)
	}
}

// walkTopDown yields every child not yet visited, then descends into those
// same children in order. A node is entered only by the parent that
// discovered it, so cycles end.
func (c *Collection) walkTopDown(visited map[*Collection]bool, yield func(*Collection) bool) bool {
	var found []*Collection
	for _, child := range c.children.values() {
		if visited[child] {
			continue
		}
		visited[child] = true
		found = append(found, child)
		if !yield(child) {
			return false
		}
	}
	for _, child := range found {
		if !child.walkTopDown(visited, yield) {
			return false
		}
	}
	return true
}

// walkBottomUp yields nodes in post-order.
func (c *Collection) walkBottomUp(visited map[*Collection]bool, skip bool, yield func(*Collection) bool) bool {
	for _, child := range c.children.values() {
		if visited[child] {
			continue
		}
		visited[child] = true
		if !child.walkBottomUp(visited, false, yield) {
			return false
		}
	}
	if skip {
		return true
	}
	return yield(c)
}

// Entries yields every entry reachable from c, node by node in top-down
// order. An entry held by several nodes is yielded once per node. A master
// yields its index.
func (c *Collection) Entries() iter.Seq[*Entry] {
	return func(yield func(*Entry) bool) {
		if c.IsMaster() {
			for _, e := range c.entries.values() {
				if !yield(e) {
					return
				}
			}
			return
		}
		for node := range c.Collections(Walk{}) {
			for _, e := range node.entries.values() {
				if !yield(e) {
					return
				}
			}
		}
	}
}

// Unique returns the entries reachable from c without repeats, in first
// seen order.
func (c *Collection) Unique() []*Entry {
	seen := map[*Entry]bool{}
	var out []*Entry
	for e := range c.Entries() {
		if !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	return out
}
