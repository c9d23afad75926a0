package gset

import (
	"sort"
	"testing"
)

func replicaWith(t *testing.T, size int, adds map[rotID][]byte) *GSET {
	t.Helper()
	g := mustNew(t, size)
	ids := make([]rotID, 0, len(adds))
	for id := range adds {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		var err error
		g, err = g.Add(int64(id), adds[id])
		if err != nil {
			t.Fatal(err)
		}
	}
	return g
}

type rotID = int64

func TestMerge_Commutative(t *testing.T) {
	a := replicaWith(t, 3, map[rotID][]byte{1: []byte("x"), 3: []byte("z")})
	b := replicaWith(t, 3, map[rotID][]byte{2: []byte("y")})

	ab := Merge(a, b)
	ba := Merge(b, a)

	sameElements(t, valueStrings(ab), valueStrings(ba))
}

func TestMerge_Associative(t *testing.T) {
	a := replicaWith(t, 3, map[rotID][]byte{1: []byte("x")})
	b := replicaWith(t, 3, map[rotID][]byte{2: []byte("y")})
	c := replicaWith(t, 3, map[rotID][]byte{3: []byte("z")})

	left := Merge(Merge(a, b), c)
	right := Merge(a, Merge(b, c))

	sameElements(t, valueStrings(left), valueStrings(right))
}

func TestMerge_Idempotent(t *testing.T) {
	a := replicaWith(t, 3, map[rotID][]byte{1: []byte("x"), 2: []byte("y")})
	a, _ = a.Remove(10, []byte("x"))

	once := Merge(a, a)
	twice := Merge(once, a)

	sameElements(t, valueStrings(once), valueStrings(a))
	sameElements(t, valueStrings(twice), valueStrings(a))
}

// GC neutrality: a replica that has GC'd a handle converges identically
// with one that has not, once merged.
func TestMerge_GCNeutrality(t *testing.T) {
	size := 3
	g := mustNew(t, size)
	for i := rotID(1); i <= 4; i++ {
		var err error
		g, err = g.Add(int64(i), []byte{byte('a' + i)})
		if err != nil {
			t.Fatal(err)
		}
	}
	for i := rotID(1); i <= 4; i++ {
		var err error
		g, err = g.Remove(int64(100+i), []byte{byte('a' + i)})
		if err != nil {
			t.Fatal(err)
		}
	}

	handles := g.Gcable()
	if len(handles) == 0 {
		t.Fatalf("expected gc-able handles")
	}

	gced := g.GC(handles[0])

	other := mustNew(t, size)
	other, _ = other.Add(200, []byte("w"))

	mergedFromRaw := Merge(g, other)
	mergedFromGCed := Merge(gced, other)

	sameElements(t, valueStrings(mergedFromRaw), valueStrings(mergedFromGCed))
}

// naiveORSet is a reference model with no garbage collection: tombstones
// accumulate forever in a plain map. GSET's Value must match it exactly
// for any sequence of operations applied identically to both.
type naiveORSet struct {
	adds    map[rotID]string
	tombs   map[rotID]bool
	nextAdd rotID
	nextTom rotID
}

func newNaiveORSet() *naiveORSet {
	return &naiveORSet{adds: make(map[rotID]string), tombs: make(map[rotID]bool)}
}

func (n *naiveORSet) add(element string) {
	n.nextAdd++
	n.adds[n.nextAdd] = element
}

func (n *naiveORSet) remove(element string) {
	n.nextTom++
	for id, v := range n.adds {
		if v == element && !n.tombs[id] {
			n.tombs[id] = true
		}
	}
}

func (n *naiveORSet) value() []string {
	var out []string
	for id, v := range n.adds {
		if !n.tombs[id] {
			out = append(out, v)
		}
	}
	return out
}

func TestGSET_MatchesNaiveORSetReference(t *testing.T) {
	g := mustNew(t, 3)
	naive := newNaiveORSet()

	var nextID rotID = 1
	step := func(op string, element string) {
		switch op {
		case "add":
			var err error
			g, err = g.Add(int64(nextID), []byte(element))
			if err != nil {
				t.Fatal(err)
			}
			naive.add(element)
		case "remove":
			var err error
			g, err = g.Remove(int64(nextID), []byte(element))
			if err != nil {
				t.Fatal(err)
			}
			naive.remove(element)
		}
		nextID++
	}

	step("add", "a")
	step("add", "b")
	step("remove", "a")
	step("add", "a")
	step("add", "c")
	step("remove", "b")
	step("remove", "missing")

	sameElements(t, valueStrings(g), naive.value())
}
