package gset

import "github.com/mirkobrombin/go-rotset/pkg/rot"

// Merge reconciles two replicas. Each side first replays the other's GC
// trail (gced) onto itself - this order is load-bearing: union first
// would resurrect entries one side has already garbage collected. Only
// after both sides have caught up on each other's GC work are adds
// unioned and removes merged.
func Merge(a, b *GSET) *GSET {
	aPrime := a
	for _, h := range handlesFromTrail(b.gced) {
		aPrime = aPrime.GC(h)
	}

	bPrime := b
	for _, h := range handlesFromTrail(a.gced) {
		bPrime = bPrime.GC(h)
	}

	lastAddID := aPrime.lastAddID
	if bPrime.lastAddID > lastAddID {
		lastAddID = bPrime.lastAddID
	}
	lastTombID := aPrime.lastTombID
	if bPrime.lastTombID > lastTombID {
		lastTombID = bPrime.lastTombID
	}

	return &GSET{
		size:        a.size,
		adds:        aPrime.adds.Union(bPrime.adds),
		removes:     rot.Merge(aPrime.removes, bPrime.removes),
		gced:        aPrime.gced,
		bloomFilter: aPrime.bloomFilter.Union(bPrime.bloomFilter),
		lastAddID:   lastAddID,
		lastTombID:  lastTombID,
	}
}
