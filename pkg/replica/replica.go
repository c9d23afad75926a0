// Package replica wires a gset.GSET into the ambient gossip loop that
// drives garbage collection across a mesh of replicas, adapted from the
// teacher's pkg/sync.Manager. Unlike the pure gset/rot core, everything
// here is mutable and concurrency-safe: one Replica owns one GSET
// lineage and serializes access to it behind a mutex, exactly as
// engine.Engine serializes access to its WAL-backed state.
package replica

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/mirkobrombin/go-rotset/pkg/gset"
	"github.com/mirkobrombin/go-rotset/pkg/rot"
	"github.com/mirkobrombin/go-warp/v1/cache"
	"github.com/mirkobrombin/go-warp/v1/syncbus"
)

// Replica wraps a gset.GSET lineage with a gossip loop that periodically
// broadcasts gc-able handles to the mesh and applies handles reported by
// peers, so that garbage collection only fires once every replica that
// has seen the relevant tombstones agrees the bucket can go.
type Replica struct {
	mu   sync.RWMutex
	set  *gset.GSET
	bus  syncbus.Bus
	id   string
	seen cache.Cache[bool]

	interval time.Duration

	encPool *sync.Pool
	decPool *sync.Pool
}

// New returns a Replica gossiping on bus under the given replica id, with
// an empty GSET of the given bucket size.
func New(id string, size int, bus syncbus.Bus, interval time.Duration, opts ...gset.Option) (*Replica, error) {
	set, err := gset.New(size, opts...)
	if err != nil {
		return nil, err
	}
	return &Replica{
		set:      set,
		bus:      bus,
		id:       id,
		seen:     cache.NewInMemory[bool](cache.WithMaxEntries[bool](100000)),
		interval: interval,
		encPool: &sync.Pool{
			New: func() any {
				enc, _ := zstd.NewWriter(nil)
				return enc
			},
		},
		decPool: &sync.Pool{
			New: func() any {
				dec, _ := zstd.NewReader(nil)
				return dec
			},
		},
	}, nil
}

// Add inserts (id, element) into the replica's GSET.
func (r *Replica) Add(id rot.ID, element []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	next, err := r.set.Add(id, element)
	if err != nil {
		return err
	}
	r.set = next
	return nil
}

// Remove tombstones element as of tombID.
func (r *Replica) Remove(tombID rot.ID, element []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	next, err := r.set.Remove(tombID, element)
	if err != nil {
		return err
	}
	r.set = next
	return nil
}

// Value returns the replica's current effective set.
func (r *Replica) Value() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.set.Value().Values()
}

// MergeRemote folds other's state into this replica's, in place.
func (r *Replica) MergeRemote(other *gset.GSET) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.set = gset.Merge(r.set, other)
}

// Snapshot returns the replica's current GSET value for handing to a
// peer (e.g. over MergeRemote, or for inspection in tests).
func (r *Replica) Snapshot() *gset.GSET {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.set
}

// Start begins the background gossip loop: every interval, the replica
// publishes its gc-able handles to the mesh.
func (r *Replica) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.GossipGcable(ctx)
		}
	}
}

// GossipGcable broadcasts the replica's currently gc-able handles, each
// zstd-compressed and published on its own. A handle whose key is still
// in this replica's seen cache is not published again; the key stays
// local and is not sent to peers.
func (r *Replica) GossipGcable(ctx context.Context) {
	if r.bus == nil {
		return
	}

	r.mu.RLock()
	handles := r.set.Gcable()
	r.mu.RUnlock()

	for _, h := range handles {
		key := fmt.Sprintf("rotset:gcable:%s:%x", r.id, h.Digest)
		if seen, ok, _ := r.seen.Get(ctx, key); ok && seen {
			continue
		}

		payload := encodeHandle(h)
		enc := r.encPool.Get().(*zstd.Encoder)
		compressed := enc.EncodeAll(payload, nil)
		r.encPool.Put(enc)

		if err := r.bus.Publish(ctx, string(compressed)); err != nil {
			slog.Error("rotset: failed to gossip gc-able handle", "replica", r.id, "error", err)
			continue
		}
		_ = r.seen.Set(ctx, key, true, 0)
	}
}

// ApplyGC applies a single gc-able handle to this replica directly,
// without going through the gossip wire encoding - the local-process
// counterpart to HandlePeerHandle.
func (r *Replica) ApplyGC(h rot.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.set = r.set.GC(h)
}

// HandlePeerHandle applies a handle reported by a peer as safe to
// collect: GC is only ever a narrowing operation (spec's GC neutrality),
// so applying a peer's handle early is always safe, never a correctness
// hazard - at worst it is a no-op if this replica has not observed the
// tombstones yet.
func (r *Replica) HandlePeerHandle(raw []byte) error {
	dec := r.decPool.Get().(*zstd.Decoder)
	defer r.decPool.Put(dec)

	decompressed, err := dec.DecodeAll(raw, nil)
	if err != nil {
		return fmt.Errorf("rotset: decompress gossip payload: %w", err)
	}

	h, err := decodeHandle(decompressed)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.set = r.set.GC(h)
	return nil
}

func encodeHandle(h rot.Handle) []byte {
	buf := make([]byte, 8+rot.DigestSize)
	binary.BigEndian.PutUint64(buf[:8], uint64(h.Newest))
	copy(buf[8:], h.Digest[:])
	return buf
}

func decodeHandle(buf []byte) (rot.Handle, error) {
	if len(buf) != 8+rot.DigestSize {
		return rot.Handle{}, fmt.Errorf("rotset: malformed gossip handle payload")
	}
	var h rot.Handle
	h.Newest = rot.ID(binary.BigEndian.Uint64(buf[:8]))
	copy(h.Digest[:], buf[8:])
	return h, nil
}
