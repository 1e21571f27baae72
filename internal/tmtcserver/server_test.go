package tmtcserver

import (
	"net"
	"sync"
	"testing"
	"time"

	"github.com/skyhaven-space/obsw/internal/cobs"
	"github.com/skyhaven-space/obsw/internal/parsers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recvFunc func(packet []byte)

func (f recvFunc) ReceiveTc(packet []byte) { f(packet) }

type queueSource struct {
	mu    sync.Mutex
	queue [][]byte
}

func (q *queueSource) push(p []byte) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.queue = append(q.queue, p)
}

func (q *queueSource) NextTm() ([]byte, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.queue) == 0 {
		return nil, false
	}
	p := q.queue[0]
	q.queue = q.queue[1:]
	return p, true
}

func TestHandleConnParsesTcAndDrainsTm(t *testing.T) {
	client, server := net.Pipe()

	var received [][]byte
	var mu sync.Mutex
	recv := recvFunc(func(packet []byte) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, append([]byte(nil), packet...))
	})

	src := &queueSource{}
	src.push([]byte{0xAA, 0xBB})

	s := &Server{
		cfg:    Config{InnerLoopDelay: 20 * time.Millisecond, TcBufferSize: 256},
		parser: CobsTcParser{},
		framer: CobsTmFramer{},
		tcRecv: recv,
		tmSrc:  src,
	}

	done := make(chan error, 1)
	go func() { done <- s.handleConn(server) }()

	frame := append([]byte{0}, append(cobs.Encode([]byte{1, 2, 3}), 0)...)
	_, err := client.Write(frame)
	require.NoError(t, err)

	readBuf := make([]byte, 64)
	client.SetReadDeadline(time.Now().Add(time.Second))
	n, err := client.Read(readBuf)
	require.NoError(t, err)
	assert.Greater(t, n, 0)

	client.Close()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("handleConn did not exit after peer close")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	assert.Equal(t, []byte{1, 2, 3}, received[0])
}

var _ parsers.TcReceiver = recvFunc(nil)
