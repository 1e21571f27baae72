package scheduler

import (
	"testing"

	"github.com/skyhaven-space/obsw/internal/pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addr(n uint16) pool.StoreAddr {
	p := pool.New([]pool.BucketConfig{{SlotSize: 8, NumSlots: int(n) + 1}})
	var last pool.StoreAddr
	for i := uint16(0); i <= n; i++ {
		a, err := p.Alloc(1)
		if err != nil {
			panic(err)
		}
		last = a
	}
	return last
}

func TestInsertRejectsBeyondMargin(t *testing.T) {
	s := New(100, 50)
	require.True(t, s.InsertTC(140, addr(0)))
	require.False(t, s.InsertTC(151, addr(1)))
}

func TestReleaseDueInTimeOrder(t *testing.T) {
	s := New(0, 1000)
	a1, a2, a3 := addr(0), addr(1), addr(2)
	require.True(t, s.InsertTC(10, a2))
	require.True(t, s.InsertTC(5, a1))
	require.True(t, s.InsertTC(20, a3))

	s.UpdateTime(12)

	var released []pool.StoreAddr
	s.ReleaseDue(func(enabled bool, a pool.StoreAddr) {
		assert.True(t, enabled)
		released = append(released, a)
	})

	assert.Equal(t, []pool.StoreAddr{a1, a2}, released)
	assert.Equal(t, 1, s.NumScheduled())
}

func TestDisabledSchedulerStillReleasesButReportsDisabled(t *testing.T) {
	s := New(0, 1000)
	a := addr(0)
	require.True(t, s.InsertTC(5, a))
	s.Disable()
	s.UpdateTime(10)

	called := false
	s.ReleaseDue(func(enabled bool, addr pool.StoreAddr) {
		called = true
		assert.False(t, enabled)
	})
	assert.True(t, called)
}

func TestResetClearsWithoutFreeing(t *testing.T) {
	s := New(0, 1000)
	require.True(t, s.InsertTC(5, addr(0)))
	require.True(t, s.InsertTC(6, addr(1)))

	addrs := s.Reset()
	assert.Len(t, addrs, 2)
	assert.Equal(t, 0, s.NumScheduled())
	assert.False(t, s.IsEnabled(), "reset disables the scheduler, not just empties it")
}
