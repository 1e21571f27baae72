package pool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCfgs() []BucketConfig {
	return []BucketConfig{
		{SlotSize: 16, NumSlots: 2},
		{SlotSize: 64, NumSlots: 2},
	}
}

func TestAllocBestFit(t *testing.T) {
	p := New(testCfgs())

	addr, err := p.Alloc(10)
	require.NoError(t, err)

	occ := p.Occupancy()
	require.Len(t, occ, 2)
	assert.Equal(t, 1, occ[0].InUse, "a 10-byte request should land in the 16-byte bucket")
	assert.Equal(t, 0, occ[1].InUse)

	require.NoError(t, p.WriteBytes(addr, []byte("helloworld")))
	data, err := p.Read(addr)
	require.NoError(t, err)
	assert.Equal(t, "helloworld", string(data))
}

func TestAllocTooLarge(t *testing.T) {
	p := New(testCfgs())
	_, err := p.Alloc(1000)
	assert.ErrorIs(t, err, ErrSlotTooSmall)
}

func TestAllocOutOfSlots(t *testing.T) {
	p := New([]BucketConfig{{SlotSize: 16, NumSlots: 1}})
	_, err := p.Alloc(4)
	require.NoError(t, err)
	_, err = p.Alloc(4)
	assert.ErrorIs(t, err, ErrOutOfSlots)
}

func TestFreeAndReuse(t *testing.T) {
	p := New([]BucketConfig{{SlotSize: 16, NumSlots: 1}})
	a1, err := p.Alloc(4)
	require.NoError(t, err)
	require.NoError(t, p.Free(a1))

	// Double free on a released address.
	assert.ErrorIs(t, p.Free(a1), ErrDoubleFree)

	a2, err := p.Alloc(4)
	require.NoError(t, err)
	assert.NotEqual(t, a1, a2, "reused slot must carry a fresh generation")

	_, err = p.Read(a1)
	assert.ErrorIs(t, err, ErrUnknownAddress, "stale handle into a reallocated slot must not resolve")
}

func TestFreeZeroesSlot(t *testing.T) {
	p := New([]BucketConfig{{SlotSize: 16, NumSlots: 1}})
	a1, err := p.Alloc(16)
	require.NoError(t, err)
	require.NoError(t, p.WriteBytes(a1, []byte("secretpayload!!!")))
	require.NoError(t, p.Free(a1))

	a2, err := p.Alloc(16)
	require.NoError(t, err)
	data, err := p.Read(a2)
	require.NoError(t, err)
	assert.Equal(t, 0, len(data), "a fresh alloc reports zero used length until written")

	raw := p.buckets[a2.bucket].slots[a2.slot].data
	for _, b := range raw {
		assert.Equal(t, byte(0), b, "freed slot must not carry the previous tenant's bytes")
	}
}

func TestUnknownAddress(t *testing.T) {
	p := New(testCfgs())
	_, err := p.Read(StoreAddr{bucket: 99, slot: 0, generation: 1})
	assert.ErrorIs(t, err, ErrUnknownAddress)
}

func TestSharedPoolConcurrentAllocFree(t *testing.T) {
	sp := NewShared(New([]BucketConfig{{SlotSize: 32, NumSlots: 64}}))
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			addr, err := sp.Alloc(8)
			if err != nil {
				return
			}
			_ = sp.WriteBytes(addr, []byte("concurrentx"))
			_ = sp.WithRead(addr, false, func(data []byte) error { return nil })
			_ = sp.Free(addr)
		}()
	}
	wg.Wait()

	occ, err := sp.Occupancy()
	require.NoError(t, err)
	assert.Equal(t, 0, occ[0].InUse)
}

func TestSharedPoolPoisonsOnPanic(t *testing.T) {
	sp := NewShared(New([]BucketConfig{{SlotSize: 16, NumSlots: 1}}))
	addr, err := sp.Alloc(4)
	require.NoError(t, err)

	assert.Panics(t, func() {
		_ = sp.WithWrite(addr, false, func(data []byte) error {
			panic("simulated critical-section panic")
		})
	})

	_, err = sp.Occupancy()
	assert.ErrorIs(t, err, ErrPoisoned)

	sp.IgnorePoison(true)
	_, err = sp.Occupancy()
	assert.NoError(t, err)
}
