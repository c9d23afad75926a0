package gset

import "fmt"

// ErrNonMonotonicID is returned by Add/Remove when the supplied id is
// not strictly greater than the replica's previously used id for that
// operation. The call is rejected; the GSET is returned unchanged.
var ErrNonMonotonicID = fmt.Errorf("gset: id is not greater than the last one used")

// ErrCapacity mirrors rot.ErrCapacity for callers that only import gset.
var ErrCapacity = fmt.Errorf("gset: size must be at least 2")
