package gset

import (
	"encoding/binary"

	"github.com/mirkobrombin/go-rotset/pkg/rot"
)

// encodeTomb packs the (add_id, element) pair a tombstone covers into a
// single payload, in the same fixed-endian, length-implicit framing
// style as wal.EncodeEntry: [addID:8][element:N].
func encodeTomb(addID rot.ID, element []byte) []byte {
	buf := make([]byte, 8+len(element))
	binary.BigEndian.PutUint64(buf[:8], uint64(addID))
	copy(buf[8:], element)
	return buf
}

func decodeTomb(payload []byte) (addID rot.ID, element []byte) {
	addID = rot.ID(binary.BigEndian.Uint64(payload[:8]))
	element = payload[8:]
	return addID, element
}

// handlesFromTrail reads a gced ROT's raw entries back out as handles:
// each entry's id is the originating bucket's newest, its payload the
// raw digest bytes.
func handlesFromTrail(trail *rot.ROT) []rot.Handle {
	entries := trail.Value()
	out := make([]rot.Handle, len(entries))
	for i, e := range entries {
		var d rot.Digest
		copy(d[:], e.Payload)
		out[i] = rot.Handle{Newest: e.ID, Digest: d}
	}
	return out
}

func handleEntry(h rot.Handle) rot.Entry {
	return rot.Entry{ID: h.Newest, Payload: h.Digest[:]}
}
