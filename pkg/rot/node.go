package rot

import "sort"

// node is either a leaf bucket of entries or an internal bucket of child
// nodes, sorted ascending by newest. Sealed nodes are immutable; every
// mutation below produces a fresh node instead of editing one in place.
type node struct {
	leaf     bool
	size     int
	count    int
	newest   ID
	hash     *Digest
	entries  []Entry // leaf only
	children []*node // internal only, sorted ascending by newest
}

func emptyLeaf(size int) *node {
	return &node{leaf: true, size: size}
}

// selectChildIndex finds the child with the smallest newest >= id,
// falling back to the greatest child when none qualifies.
func selectChildIndex(n *node, id ID) int {
	for i, c := range n.children {
		if c.newest >= id {
			return i
		}
	}
	return len(n.children) - 1
}

// insertLeafUnsealed inserts e into an unsealed leaf's sorted entries,
// sealing it the instant it reaches capacity. Duplicate (id, payload)
// pairs are no-ops.
func insertLeafUnsealed(n *node, e Entry) *node {
	idx := sort.Search(len(n.entries), func(i int) bool { return !entryLess(n.entries[i], e) })
	if idx < len(n.entries) && entryEqual(n.entries[idx], e) {
		return n
	}

	entries := make([]Entry, 0, len(n.entries)+1)
	entries = append(entries, n.entries[:idx]...)
	entries = append(entries, e)
	entries = append(entries, n.entries[idx:]...)

	nn := &node{
		leaf:    true,
		size:    n.size,
		count:   len(entries),
		entries: entries,
		newest:  entries[len(entries)-1].ID,
	}
	if len(entries) == n.size {
		d := leafDigest(entries)
		nn.hash = &d
	}
	return nn
}

// splitSealedLeaf implements spec Case L2: a sealed leaf demotes its
// smallest entry to make room, re-sealing the remaining size entries.
func splitSealedLeaf(n *node, e Entry) addOutcome {
	idx := sort.Search(len(n.entries), func(i int) bool { return !entryLess(n.entries[i], e) })
	if idx < len(n.entries) && entryEqual(n.entries[idx], e) {
		return addOutcome{node: n}
	}

	combined := make([]Entry, 0, len(n.entries)+1)
	combined = append(combined, n.entries[:idx]...)
	combined = append(combined, e)
	combined = append(combined, n.entries[idx:]...)

	smallest := combined[0]
	rest := combined[1:]
	d := leafDigest(rest)
	newLeaf := &node{
		leaf:    true,
		size:    n.size,
		count:   len(rest),
		entries: rest,
		newest:  rest[len(rest)-1].ID,
		hash:    &d,
	}
	return addOutcome{node: newLeaf, promoted: &smallest}
}

// rebuildInternal recomputes newest and, once count reaches size and
// every child is itself sealed, the node's own digest.
func rebuildInternal(size int, children []*node) *node {
	n := &node{
		leaf:     false,
		size:     size,
		count:    len(children),
		children: children,
		newest:   children[len(children)-1].newest,
	}
	if len(children) == size {
		sealed := true
		for _, c := range children {
			if c.hash == nil {
				sealed = false
				break
			}
		}
		if sealed {
			d := internalDigest(children)
			n.hash = &d
		}
	}
	return n
}

// value flattens a node's transitively contained entries in id order.
func value(n *node) []Entry {
	if n.leaf {
		out := make([]Entry, len(n.entries))
		copy(out, n.entries)
		return out
	}
	var out []Entry
	for _, c := range n.children {
		out = append(out, value(c)...)
	}
	return out
}

// full lists every sealed node's handle, recursing into children even
// when the node itself is unsealed - a fully unsealed subtree is the
// only thing that contributes nothing.
func full(n *node) []Handle {
	var out []Handle
	if n.hash != nil {
		out = append(out, Handle{Newest: n.newest, Digest: *n.hash})
	}
	if !n.leaf {
		for _, c := range n.children {
			out = append(out, full(c)...)
		}
	}
	return out
}

// remove locates the sealed subtree matching h, returning its flattened
// entries and a replacement for the node it was found under. A nil
// replacement with found=true means the matched child should be excised
// from its parent entirely.
func remove(h Handle, n *node) (removed []Entry, replacement *node, found bool) {
	if n.hash != nil && n.newest == h.Newest && *n.hash == h.Digest {
		return value(n), nil, true
	}
	if n.leaf {
		return nil, n, false
	}

	for i, c := range n.children {
		entries, repl, ok := remove(h, c)
		if !ok {
			continue
		}

		children := make([]*node, 0, len(n.children))
		children = append(children, n.children[:i]...)
		if repl != nil {
			children = append(children, repl)
		}
		children = append(children, n.children[i+1:]...)

		if len(children) == 0 {
			return entries, emptyLeaf(n.size), true
		}
		// A node rebuilt out of a removal is never considered sealed:
		// its content no longer matches whatever digest, if any, a
		// peer may have observed for it.
		newNode := &node{
			leaf:     false,
			size:     n.size,
			count:    len(children),
			children: children,
			newest:   children[len(children)-1].newest,
		}
		return entries, newNode, true
	}
	return nil, n, false
}
