// Package gset implements the Garbage-collectable OR-Set: an
// Observed-Remove Set whose tombstone store is a rot.ROT. Like pkg/rot,
// every operation is a pure function from one GSET value to another.
package gset

import (
	"bytes"

	"github.com/mirkobrombin/go-foundation/pkg/options"
	"github.com/mirkobrombin/go-rotset/pkg/bloom"
	"github.com/mirkobrombin/go-rotset/pkg/orderedset"
	"github.com/mirkobrombin/go-rotset/pkg/rot"
)

type addRecord struct {
	id      rot.ID
	element []byte
}

func addLess(a, b addRecord) bool {
	if a.id != b.id {
		return a.id < b.id
	}
	return bytes.Compare(a.element, b.element) < 0
}

func addEqual(a, b addRecord) bool {
	return a.id == b.id && bytes.Equal(a.element, b.element)
}

// Option configures a GSET at construction time, following the
// teacher's functional-option pattern (pkg/engine/options.go).
type Option = options.Option[GSET]

// WithBloomFilter overrides the size/hash-count of the internal bloom
// filter used to fast-path Remove on elements never added.
func WithBloomFilter(size, hashes int) Option {
	return func(g *GSET) {
		g.bloomFilter = bloom.New(size, hashes)
	}
}

// GSET is an immutable garbage-collectable OR-Set.
type GSET struct {
	size int

	adds    *orderedset.Set[addRecord]
	removes *rot.ROT
	gced    *rot.ROT

	bloomFilter *bloom.Filter

	lastAddID  rot.ID
	lastTombID rot.ID
}

// New returns an empty GSET whose removes/gced ROTs use the given
// bucket size.
func New(size int, opts ...Option) (*GSET, error) {
	removes, err := rot.New(size)
	if err != nil {
		return nil, ErrCapacity
	}
	gced, err := rot.New(size)
	if err != nil {
		return nil, ErrCapacity
	}

	g := &GSET{
		size:        size,
		adds:        orderedset.New(addLess, addEqual),
		removes:     removes,
		gced:        gced,
		bloomFilter: bloom.New(1<<20, 7),
	}
	options.Apply(g, opts...)
	return g, nil
}

// Add inserts (id, element) into the add-set. id must be strictly
// greater than any id previously passed to Add on this GSET value's
// lineage.
func (g *GSET) Add(id rot.ID, element []byte) (*GSET, error) {
	if id <= g.lastAddID {
		return g, ErrNonMonotonicID
	}

	filter := g.bloomFilter.Clone()
	filter.Add(element)

	return &GSET{
		size:        g.size,
		adds:        g.adds.Add(addRecord{id: id, element: element}),
		removes:     g.removes,
		gced:        g.gced,
		bloomFilter: filter,
		lastAddID:   id,
		lastTombID:  g.lastTombID,
	}, nil
}

// Remove tombstones every currently-observed add-record of element:
// for each (id, element) pair in the effective value of the set, it
// inserts a tombstone (tombID, (id, element)) into removes. tombID is
// conventionally now_us().
func (g *GSET) Remove(tombID rot.ID, element []byte) (*GSET, error) {
	if tombID <= g.lastTombID {
		return g, ErrNonMonotonicID
	}

	next := &GSET{
		size:        g.size,
		adds:        g.adds,
		removes:     g.removes,
		gced:        g.gced,
		bloomFilter: g.bloomFilter,
		lastAddID:   g.lastAddID,
		lastTombID:  tombID,
	}

	if !g.bloomFilter.MayContain(element) {
		return next, nil
	}

	tombstoned := observedTombstones(g.removes)
	removes := g.removes
	for _, a := range g.adds.Values() {
		if !bytes.Equal(a.element, element) {
			continue
		}
		if tombstoned[tombKey(a.id, a.element)] {
			continue
		}
		removes = removes.Add(rot.Entry{ID: tombID, Payload: encodeTomb(a.id, a.element)})
	}

	next.removes = removes
	return next, nil
}

type tombKeyT struct {
	id  rot.ID
	elt string
}

func tombKey(id rot.ID, element []byte) tombKeyT {
	return tombKeyT{id: id, elt: string(element)}
}

// observedTombstones returns the set of (add_id, element) pairs already
// tombstoned in removes.
func observedTombstones(removes *rot.ROT) map[tombKeyT]bool {
	out := make(map[tombKeyT]bool)
	for _, e := range removes.Value() {
		addID, elt := decodeTomb(e.Payload)
		out[tombKey(addID, elt)] = true
	}
	return out
}

// Value projects the effective set - adds minus every tombstoned
// add-record - down to the surviving payloads.
func (g *GSET) Value() *orderedset.Set[string] {
	tombstoned := observedTombstones(g.removes)

	live := g.adds.Query().Filter(func(a addRecord) bool {
		return !tombstoned[tombKey(a.id, a.element)]
	}).All()

	result := orderedset.New(func(a, b string) bool { return a < b }, func(a, b string) bool { return a == b })
	for _, a := range live {
		result = result.Add(string(a.element))
	}
	return result
}

func handleLess(a, b rot.Handle) bool {
	if a.Newest != b.Newest {
		return a.Newest < b.Newest
	}
	return bytes.Compare(a.Digest[:], b.Digest[:]) < 0
}

func handleEqual(a, b rot.Handle) bool {
	return a.Newest == b.Newest && a.Digest == b.Digest
}

// Gcable returns the union of sealed-bucket handles from both removes
// and gced: the set of handles this replica could safely GC, pending
// intersection against what its peers also report. Deduplication falls
// out of orderedset.Set's own Add semantics rather than a hand-rolled
// seen-map.
func (g *GSET) Gcable() []rot.Handle {
	handles := orderedset.New(handleLess, handleEqual)
	for _, h := range g.removes.Full() {
		handles = handles.Add(h)
	}
	for _, h := range g.gced.Full() {
		handles = handles.Add(h)
	}
	return handles.Query().All()
}
