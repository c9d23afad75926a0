package gset

import "github.com/mirkobrombin/go-rotset/pkg/rot"

// GC applies one garbage-collection step for handle h: h's tombstone
// entries are excised from removes, the add-records they covered are
// dropped from adds, and h is recorded in gced. Before recording, any
// sealed bucket of gced whose own handle is h is excised; recording h a
// second time is a no-op because ROT.Add ignores duplicate entries, so
// repeated GC of the same handle is idempotent.
//
// A handle matching nothing in removes is not an error - it is treated
// as replaying GC work a peer has already done further than this
// replica has observed, and is still recorded in gced so the trail
// stays convergent (spec's UnknownHandle: not fatal).
func (g *GSET) GC(h rot.Handle) *GSET {
	removedTombs, removes, _ := g.removes.Remove(h)

	adds := g.adds
	if len(removedTombs) > 0 {
		victims := make(map[tombKeyT]bool, len(removedTombs))
		for _, e := range removedTombs {
			addID, elt := decodeTomb(e.Payload)
			victims[tombKey(addID, elt)] = true
		}
		adds = adds.Remove(func(a addRecord) bool { return victims[tombKey(a.id, a.element)] })
	}

	_, strippedGced, _ := g.gced.Remove(h)
	gced := strippedGced.Add(handleEntry(h))

	return &GSET{
		size:        g.size,
		adds:        adds,
		removes:     removes,
		gced:        gced,
		bloomFilter: g.bloomFilter,
		lastAddID:   g.lastAddID,
		lastTombID:  g.lastTombID,
	}
}
