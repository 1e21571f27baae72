package parsers

import (
	"encoding/binary"
	"testing"

	"github.com/skyhaven-space/obsw/internal/cobs"
)

func roundTripEncode(data []byte) ([]byte, error) {
	return cobs.Encode(data), nil
}

func buildCcsdsPacket(t *testing.T, packetID uint16, payload []byte) []byte {
	t.Helper()
	buf := make([]byte, ccsdsPrimaryHeaderLen+len(payload))
	binary.BigEndian.PutUint16(buf[0:2], packetID)
	binary.BigEndian.PutUint16(buf[2:4], 0xC000)
	binary.BigEndian.PutUint16(buf[4:6], uint16(len(payload)-1))
	copy(buf[6:], payload)
	return buf
}
