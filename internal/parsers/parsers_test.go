package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collectingReceiver struct {
	packets [][]byte
}

func (c *collectingReceiver) ReceiveTc(packet []byte) {
	c.packets = append(c.packets, append([]byte(nil), packet...))
}

func TestParseCobsFramesSimplePacket(t *testing.T) {
	recv := &collectingReceiver{}
	buf := append([]byte{0x00}, append(encodeForTest(t, []byte{1, 2, 3}), 0x00)...)
	count, next := ParseCobsFrames(buf, recv)
	assert.Equal(t, 1, count)
	assert.Equal(t, 0, next)
	require.Len(t, recv.packets, 1)
	assert.Equal(t, []byte{1, 2, 3}, recv.packets[0])
}

func TestParseCobsFramesConsecutivePacketsShareSentinel(t *testing.T) {
	recv := &collectingReceiver{}
	var buf []byte
	buf = append(buf, 0x00)
	buf = append(buf, encodeForTest(t, []byte{1, 2})...)
	buf = append(buf, 0x00)
	buf = append(buf, encodeForTest(t, []byte{3, 4})...)
	buf = append(buf, 0x00)

	count, next := ParseCobsFrames(buf, recv)
	assert.Equal(t, 2, count)
	assert.Equal(t, 0, next)
	require.Len(t, recv.packets, 2)
	assert.Equal(t, []byte{1, 2}, recv.packets[0])
	assert.Equal(t, []byte{3, 4}, recv.packets[1])
}

func TestParseCobsFramesIncompleteTailCompacted(t *testing.T) {
	recv := &collectingReceiver{}
	var buf []byte
	buf = append(buf, 0x00)
	buf = append(buf, encodeForTest(t, []byte{1, 2})...)
	buf = append(buf, 0x00)
	tail := encodeForTest(t, []byte{5, 6})
	buf = append(buf, 0x00)
	buf = append(buf, tail...) // no closing sentinel yet

	count, next := ParseCobsFrames(buf, recv)
	assert.Equal(t, 1, count)
	require.Equal(t, 1+len(tail), next)
	assert.Equal(t, byte(0x00), buf[0], "compacted remainder starts at the unterminated sentinel")
}

func encodeForTest(t *testing.T, data []byte) []byte {
	t.Helper()
	encoded, err := roundTripEncode(data)
	require.NoError(t, err)
	return encoded
}

func TestParseCcsdsFramesExactFitCountsAsComplete(t *testing.T) {
	recv := &collectingReceiver{}
	pkt := buildCcsdsPacket(t, 0x1234, []byte{0xAA, 0xBB})
	count, next := ParseCcsdsFrames(pkt, nil, recv)
	assert.Equal(t, 1, count)
	assert.Equal(t, 0, next)
}

func TestParseCcsdsFramesIncompleteTailCompacted(t *testing.T) {
	recv := &collectingReceiver{}
	pkt := buildCcsdsPacket(t, 0x1234, []byte{0xAA, 0xBB, 0xCC})
	truncated := pkt[:len(pkt)-1]
	count, next := ParseCcsdsFrames(truncated, nil, recv)
	assert.Equal(t, 0, count)
	assert.Equal(t, len(truncated), next)
}

func TestParseCcsdsFramesSkipsUnknownPacketID(t *testing.T) {
	recv := &collectingReceiver{}
	garbage := []byte{0xFF, 0xFF, 0, 0, 0, 0}
	good := buildCcsdsPacket(t, 0x1234, []byte{1})
	buf := append(garbage, good...)

	lookup := NewPacketIDSet(0x1234)
	count, next := ParseCcsdsFrames(buf, lookup, recv)
	assert.Equal(t, 1, count)
	assert.Equal(t, 0, next)
}
