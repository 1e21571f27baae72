package funnel

import (
	"context"
	"encoding/binary"
	"sync"
	"testing"
	"time"

	"github.com/skyhaven-space/obsw/internal/pool"
	"github.com/skyhaven-space/obsw/internal/pusframe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collectingEgress struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (e *collectingEgress) Send(payload []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.payloads = append(e.payloads, append([]byte(nil), payload...))
	return nil
}

func (e *collectingEgress) snapshot() [][]byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([][]byte(nil), e.payloads...)
}

func TestFunnelAssignsMonotonicSharedSequence(t *testing.T) {
	sp := pool.NewShared(pool.New([]pool.BucketConfig{{SlotSize: 64, NumSlots: 8}}))
	egress := &collectingEgress{}
	f := New(sp, 0x42, egress, 8)

	ctx, cancel := context.WithCancel(context.Background())
	go f.Run(ctx)
	defer cancel()

	var addrs []pool.StoreAddr
	for i := 0; i < 4; i++ {
		raw := pusframe.EncodeTM(0x42, 1, uint8(i+1), 0, nil, []byte{byte(i)})
		a, err := sp.Alloc(len(raw))
		require.NoError(t, err)
		require.NoError(t, sp.WriteBytes(a, raw))
		addrs = append(addrs, a)
		require.NoError(t, f.Offer(a))
	}

	require.Eventually(t, func() bool { return len(egress.snapshot()) == 4 }, time.Second, time.Millisecond)

	payloads := egress.snapshot()
	for i, p := range payloads {
		seq := binary.BigEndian.Uint16(p[2:4]) & 0x3FFF
		assert.Equal(t, uint16(i), seq, "ccsds sequence must be shared and monotonic across arrivals")
		msg := binary.BigEndian.Uint16(p[9:11])
		assert.Equal(t, uint16(i), msg, "msg count is a single shared counter, not per-service")
	}
}
