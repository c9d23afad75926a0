// Package bloom provides a small probabilistic set-membership filter,
// adapted from the teacher's engine-level key filter into a fast
// negative-check for GSET's remove path: a remove of an element that
// was never added skips the full effective-value scan entirely.
package bloom

import "hash/fnv"

// Filter is a probabilistic data structure over opaque byte elements.
type Filter struct {
	bitset []bool
	k      int
}

// New creates a new Bloom Filter with the given bit-array size and hash
// count.
func New(size, k int) *Filter {
	if k <= 0 {
		k = 1
	}
	if size <= 0 {
		size = 1
	}
	return &Filter{
		bitset: make([]bool, size),
		k:      k,
	}
}

// Add records element as (probably) present.
func (b *Filter) Add(element []byte) {
	for i := 0; i < b.k; i++ {
		idx := b.hash(element, i) % uint64(len(b.bitset))
		b.bitset[idx] = true
	}
}

// Clone returns an independent copy of b, so callers building a new
// persistent value on top of b can mutate the copy without disturbing
// whatever still references the original.
func (b *Filter) Clone() *Filter {
	bitset := make([]bool, len(b.bitset))
	copy(bitset, b.bitset)
	return &Filter{bitset: bitset, k: b.k}
}

// Union returns a filter that may-contain everything either b or o
// may-contain. Both filters must share the same size and hash count.
func (b *Filter) Union(o *Filter) *Filter {
	merged := b.Clone()
	for i, set := range o.bitset {
		if set {
			merged.bitset[i] = true
		}
	}
	return merged
}

// MayContain reports whether element could have been added. A false
// result is certain; a true result may be a false positive.
func (b *Filter) MayContain(element []byte) bool {
	for i := 0; i < b.k; i++ {
		idx := b.hash(element, i) % uint64(len(b.bitset))
		if !b.bitset[idx] {
			return false
		}
	}
	return true
}

func (b *Filter) hash(element []byte, seed int) uint64 {
	h := fnv.New64a()
	h.Write(element)
	val := h.Sum64()
	return val + uint64(seed)*0x9e3779b9
}
