// Package adapter exposes a Replica as a go-warp-compatible store,
// adapted from the teacher's pkg/adapter.WarpAdapter: element membership
// stands in for WarpAdapter's key/value Get/Set/Delete, since a GSET has
// no values of its own - only elements that are present or absent.
package adapter

import (
	"context"

	"github.com/mirkobrombin/go-rotset/pkg/ids"
	"github.com/mirkobrombin/go-rotset/pkg/replica"
)

// Adapter wraps a Replica, minting add/remove ids from its own
// Monotonic/Clock generators so callers never have to reason about
// GSET's id monotonicity requirement directly.
type Adapter struct {
	replica *replica.Replica
	addIDs  *ids.Monotonic
	clock   *ids.Clock
}

// NewAdapter returns an Adapter over r, minting ids scoped to replicaOrd.
func NewAdapter(r *replica.Replica, replicaOrd uint32) *Adapter {
	return &Adapter{
		replica: r,
		addIDs:  ids.NewMonotonic(replicaOrd),
		clock:   ids.NewClock(),
	}
}

// Get reports whether element is a member of the set.
func (a *Adapter) Get(ctx context.Context, element string) (bool, error) {
	for _, v := range a.replica.Value() {
		if v == element {
			return true, nil
		}
	}
	return false, nil
}

// Set adds element to the set.
func (a *Adapter) Set(ctx context.Context, element string) error {
	return a.replica.Add(a.addIDs.Next(), []byte(element))
}

// Delete removes element from the set.
func (a *Adapter) Delete(ctx context.Context, element string) error {
	return a.replica.Remove(a.clock.NowMicros(), []byte(element))
}
