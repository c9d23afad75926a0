package rot

import (
	"crypto/sha1"
	"encoding/binary"
)

// DigestSize is the width of a sealed node's content hash.
const DigestSize = sha1.Size

// Digest is a SHA-1 content hash over a sealed node's contents.
type Digest [DigestSize]byte

// Handle uniquely identifies a sealed subtree across replicas: the
// greatest id it transitively contains, plus the digest over its
// contents. Two replicas holding the same handle are known to agree on
// every entry underneath it.
type Handle struct {
	Newest ID
	Digest Digest
}

// encodeEntries canonically serializes a sorted entry list for leaf
// hashing: a fixed-endian, length-prefixed framing in the style of
// wal.EncodeEntry - [count:4]{[id:8][payloadLen:4][payload:N]}*.
func encodeEntries(entries []Entry) []byte {
	size := 4
	for _, e := range entries {
		size += 8 + 4 + len(e.Payload)
	}
	buf := make([]byte, size)
	binary.BigEndian.PutUint32(buf, uint32(len(entries)))
	off := 4
	for _, e := range entries {
		binary.BigEndian.PutUint64(buf[off:], uint64(e.ID))
		off += 8
		binary.BigEndian.PutUint32(buf[off:], uint32(len(e.Payload)))
		off += 4
		copy(buf[off:], e.Payload)
		off += len(e.Payload)
	}
	return buf
}

// leafDigest hashes a sealed leaf's canonical entry serialization.
func leafDigest(entries []Entry) Digest {
	return sha1.Sum(encodeEntries(entries))
}

// internalDigest feeds sealed children's digests, left to right
// (smallest newest first, which is how children are always kept
// sorted), into a single SHA-1 run.
func internalDigest(children []*node) Digest {
	h := sha1.New()
	for _, c := range children {
		h.Write(c.hash[:])
	}
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}
