// Package rot implements the Range-Ordered Tree: a self-balancing,
// content-addressed tree of time-ordered buckets. Every operation is a
// pure function from one tree value to another - there is no I/O and no
// shared mutable state, only structural sharing between old and new
// trees.
package rot

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// ErrCapacity is returned by New when size < 2.
var ErrCapacity = fmt.Errorf("rot: size must be at least 2")

// ROT is an immutable, content-addressed tree of capacity-size buckets.
type ROT struct {
	size int
	root *node
}

// New returns an empty ROT with the given bucket capacity.
func New(size int) (*ROT, error) {
	if size < 2 {
		return nil, ErrCapacity
	}
	return &ROT{size: size, root: emptyLeaf(size)}, nil
}

// Size reports the tree's fixed bucket capacity.
func (t *ROT) Size() int { return t.size }

// addOutcome is the result of inserting into a single node: either a
// plain replacement, or a replacement plus one entry displaced upward
// for the caller to reinsert into a sibling (spec's Ok/Branch split).
type addOutcome struct {
	node     *node
	promoted *Entry
}

// radd implements the insertion algorithm: Case L1/L2 for leaves, Case I
// for internal nodes. Overflow never grows a node's child count; it
// cascades a single displaced entry leftward through siblings until one
// absorbs it, or it bubbles out of the node entirely.
func radd(e Entry, n *node) addOutcome {
	if n.leaf {
		if n.hash == nil {
			return addOutcome{node: insertLeafUnsealed(n, e)}
		}
		return splitSealedLeaf(n, e)
	}

	idx := selectChildIndex(n, e.ID)
	children, bubbled := insertAt(n.children, idx, e)
	return addOutcome{node: rebuildInternal(n.size, children), promoted: bubbled}
}

// insertAt inserts e at children[idx], cascading any displaced entry
// into the next-lower sibling (idx-1), and the one below that, and so
// on, until a sibling absorbs it without overflowing or there are no
// more siblings to try - in which case the entry bubbles out to the
// caller.
func insertAt(children []*node, idx int, e Entry) ([]*node, *Entry) {
	out := make([]*node, len(children))
	copy(out, children)

	cur := idx
	pending := &e
	for pending != nil && cur >= 0 {
		o := radd(*pending, out[cur])
		out[cur] = o.node
		pending = o.promoted
		cur--
	}
	return out, pending
}

// Add inserts entry into the tree and returns the resulting tree.
// Duplicate (id, payload) pairs are no-ops.
func (t *ROT) Add(e Entry) *ROT {
	out := radd(e, t.root)
	newRoot := out.node

	if out.promoted != nil {
		fresh := emptyLeaf(t.size)
		fr := radd(*out.promoted, fresh)

		// The promoted entry is always the smallest displaced out of
		// newRoot, so it belongs in the lower-ranged child: children
		// stay ascending by newest, per node.go's invariant.
		children := []*node{fr.node, newRoot}
		newest := children[0].newest
		if children[1].newest > newest {
			newest = children[1].newest
		}
		root := &node{leaf: false, size: t.size, count: 2, children: children, newest: newest}
		if t.size == 2 && children[0].hash != nil && children[1].hash != nil {
			d := internalDigest(children)
			root.hash = &d
		}
		newRoot = root
	}

	return &ROT{size: t.size, root: newRoot}
}

// Value returns every entry in the tree, in ascending id order.
func (t *ROT) Value() []Entry {
	return value(t.root)
}

// Full lists every sealed node's (newest, digest) handle.
func (t *ROT) Full() []Handle {
	return full(t.root)
}

// Remove excises the sealed subtree matching h, returning its entries
// and the resulting tree. If no sealed subtree matches, it is a no-op:
// the tree is returned unchanged and found is false.
func (t *ROT) Remove(h Handle) (entries []Entry, result *ROT, found bool) {
	removed, repl, ok := remove(h, t.root)
	if !ok {
		return nil, t, false
	}
	if repl == nil {
		repl = emptyLeaf(t.size)
	}
	return removed, &ROT{size: t.size, root: repl}, true
}

// Merge returns the set-union of a and b: every entry present in either
// input is present in the result. Sealed subtrees present in both
// inputs are not guaranteed to survive: replaying one of b's entries
// into a can split a sealed leaf of a (for example when the entry is
// greater than everything in a and lands in a's last, sealed leaf).
//
// Before replaying b's entries into a, Merge skips any of b's sealed
// subtrees whose digest already appears among a's sealed handles - that
// subtree's entries are already known to be present in a, so walking
// and reinserting them one at a time would be wasted work. Digests are
// keyed through xxhash for the membership check; the SHA-1 digest
// itself remains the source of truth for equality.
func Merge(a, b *ROT) *ROT {
	known := make(map[uint64]bool, 64)
	for _, h := range a.Full() {
		known[xxhash.Sum64(h.Digest[:])] = true
	}

	result := a
	for _, e := range collectNew(b.root, known) {
		result = result.Add(e)
	}
	return result
}

// collectNew walks n's subtree and returns every entry not covered by a
// sealed node whose digest is already in known.
func collectNew(n *node, known map[uint64]bool) []Entry {
	if n.hash != nil && known[xxhash.Sum64(n.hash[:])] {
		return nil
	}
	if n.leaf {
		return append([]Entry(nil), n.entries...)
	}
	var out []Entry
	for _, c := range n.children {
		out = append(out, collectNew(c, known)...)
	}
	return out
}
