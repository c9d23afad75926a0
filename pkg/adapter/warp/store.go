// Package warp is a go-warp adapter.Store/adapter.Batcher implementation
// over a GSET-backed replica, adapted from the teacher's
// pkg/adapter/warp.Store.
package warp

import (
	"context"

	"github.com/mirkobrombin/go-rotset/pkg/ids"
	"github.com/mirkobrombin/go-rotset/pkg/replica"
	"github.com/mirkobrombin/go-warp/v1/adapter"
)

// Store is a go-warp adapter over a Replica. Values carry no payload of
// their own - membership in the set is the only thing a key's presence
// records - so Store is parameterized over struct{}.
type Store struct {
	replica *replica.Replica
	addIDs  *ids.Monotonic
	clock   *ids.Clock
}

// NewStore returns a new Store adapter, minting ids scoped to
// replicaOrd.
func NewStore(r *replica.Replica, replicaOrd uint32) *Store {
	return &Store{
		replica: r,
		addIDs:  ids.NewMonotonic(replicaOrd),
		clock:   ids.NewClock(),
	}
}

// Get implements adapter.Store.Get: presence in the set's effective
// value.
func (s *Store) Get(ctx context.Context, key string) (struct{}, bool, error) {
	for _, v := range s.replica.Value() {
		if v == key {
			return struct{}{}, true, nil
		}
	}
	return struct{}{}, false, nil
}

// Set implements adapter.Store.Set.
func (s *Store) Set(ctx context.Context, key string, _ struct{}) error {
	return s.replica.Add(s.addIDs.Next(), []byte(key))
}

// Keys implements adapter.Store.Keys.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	return s.replica.Value(), nil
}

// Batch implements adapter.Batcher.Batch. Unlike engine.Engine's
// transactional Begin, a GSET batch has no isolation to offer - adds and
// removes land on the replica as they are issued, and Commit is a no-op
// that only exists to satisfy the interface.
func (s *Store) Batch(ctx context.Context) (adapter.Batch[struct{}], error) {
	return &batch{store: s}, nil
}

type batch struct {
	store *Store
}

func (b *batch) Set(ctx context.Context, key string, value struct{}) error {
	return b.store.Set(ctx, key, value)
}

func (b *batch) Delete(ctx context.Context, key string) error {
	return b.store.replica.Remove(b.store.clock.NowMicros(), []byte(key))
}

func (b *batch) Commit(ctx context.Context) error {
	return nil
}

var _ adapter.Store[struct{}] = (*Store)(nil)
var _ adapter.Batcher[struct{}] = (*Store)(nil)
