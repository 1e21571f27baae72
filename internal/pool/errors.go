package pool

import "errors"

var (
	// ErrOutOfSlots is returned when every bucket large enough for a
	// requested allocation is fully occupied.
	ErrOutOfSlots = errors.New("pool: out of slots for requested size")
	// ErrSlotTooSmall is returned when no configured bucket size is large
	// enough to hold the requested allocation at all.
	ErrSlotTooSmall = errors.New("pool: no bucket large enough for requested size")
	// ErrUnknownAddress is returned when a StoreAddr's generation does not
	// match the slot's current occupant, or the bucket/slot indices are out
	// of range. Covers both stale (already-freed) and forged handles.
	ErrUnknownAddress = errors.New("pool: unknown or stale store address")
	// ErrDoubleFree is returned by Free when the address has already been
	// released.
	ErrDoubleFree = errors.New("pool: address already freed")
	// ErrPoisoned is returned by every SharedPool accessor once a prior
	// critical section has panicked, unless the caller opted into
	// IgnorePoison.
	ErrPoisoned = errors.New("pool: shared pool poisoned by a prior panic")
)
