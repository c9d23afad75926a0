package rot

import "bytes"

// ID is the total order every entry and handle is keyed by. Replicas are
// expected to hand the tree strictly increasing values from their own
// fresh_id/now_us source; ROT itself only ever compares them.
type ID = int64

// Entry is a single leaf element: an opaque payload tagged with its
// totally-ordered id. Entries are immutable once created.
type Entry struct {
	ID      ID
	Payload []byte
}

func entryLess(a, b Entry) bool {
	if a.ID != b.ID {
		return a.ID < b.ID
	}
	return bytes.Compare(a.Payload, b.Payload) < 0
}

func entryEqual(a, b Entry) bool {
	return a.ID == b.ID && bytes.Equal(a.Payload, b.Payload)
}
