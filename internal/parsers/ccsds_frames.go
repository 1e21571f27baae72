package parsers

import "encoding/binary"

const ccsdsPrimaryHeaderLen = 6

// PacketIDLookup filters which CCSDS packet ids the parser should treat as
// valid frame starts. Passing a nil lookup accepts every packet id, relying
// solely on the length field for resynchronization.
type PacketIDLookup interface {
	Contains(packetID uint16) bool
}

// PacketIDSet is the obvious map-backed PacketIDLookup.
type PacketIDSet map[uint16]struct{}

func NewPacketIDSet(ids ...uint16) PacketIDSet {
	s := make(PacketIDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s PacketIDSet) Contains(id uint16) bool {
	_, ok := s[id]
	return ok
}

// ParseCcsdsFrames scans buf for back-to-back CCSDS space packets (no
// delimiter, length-prefixed per the primary header's data-length field) and
// hands each complete one to recv. Bytes that don't begin with a packet id
// lookup accepts are skipped one at a time to resynchronize after corruption,
// the same way a COBS parser resyncs on the next sentinel.
//
// A packet that exactly fills the remaining buffer counts as complete, not
// as an incomplete tail — unlike a parser that treats an exact fit as
// ambiguous with a still-arriving packet, this implementation only defers a
// packet to the next read when its declared length would genuinely exceed
// what has arrived so far.
func ParseCcsdsFrames(buf []byte, lookup PacketIDLookup, recv TcReceiver) (packetsFound int, nextWriteIdx int) {
	idx := 0
	for {
		remaining := len(buf) - idx
		if remaining < ccsdsPrimaryHeaderLen {
			break
		}
		packetID := binary.BigEndian.Uint16(buf[idx : idx+2])
		if lookup != nil && !lookup.Contains(packetID) {
			idx++
			continue
		}
		dataLen := binary.BigEndian.Uint16(buf[idx+4 : idx+6])
		packetSize := ccsdsPrimaryHeaderLen + int(dataLen) + 1
		if packetSize > remaining {
			break
		}
		recv.ReceiveTc(buf[idx : idx+packetSize])
		packetsFound++
		idx += packetSize
	}
	if idx == len(buf) {
		return packetsFound, 0
	}
	n := copy(buf, buf[idx:])
	return packetsFound, n
}
