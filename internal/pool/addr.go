// Package pool implements the fixed-capacity packet store shared by every
// TMTC component: the TC distributor allocates a slot per incoming frame,
// service handlers read/write it in place, the TM funnel frees it once the
// bytes are on the wire. Nothing in this package blocks on I/O; it is pure
// bookkeeping over pre-sized byte buckets.
package pool

import "fmt"

// StoreAddr is an opaque handle into a Pool. It carries no guarantee the
// slot it names is still occupied by the caller's data — Pool validates
// that on every access via the generation counter embedded in the handle.
type StoreAddr struct {
	bucket     uint16
	slot       uint16
	generation uint32
}

// Nil is the zero StoreAddr; never a valid allocation result.
var Nil = StoreAddr{}

func (a StoreAddr) IsNil() bool {
	return a == Nil
}

func (a StoreAddr) String() string {
	return fmt.Sprintf("%d:%d:%d", a.bucket, a.slot, a.generation)
}
