package verification

import "encoding/binary"

// RequestID identifies one telecommand across its whole verification
// lifecycle. It packs the CCSDS version (3 bits), the 13-bit packet id
// (type + secondary header flag + APID, i.e. the primary header's first
// word with the version bits stripped) and the 16-bit packet sequence
// control into a single 32-bit value — the same three fields every PUS
// verification TM carries back to the ground so it can be matched against
// the original command.
type RequestID uint32

// NewRequestID packs the three fields. packetID13 is expected to already
// exclude the version bits (i.e. the primary header's first word masked
// with 0x1FFF); see distributor.ParseTcHeader.
func NewRequestID(version uint8, packetID13 uint16, psc uint16) RequestID {
	return RequestID(uint32(version&0x7)<<29 | uint32(packetID13&0x1FFF)<<16 | uint32(psc))
}

func (r RequestID) Version() uint8             { return uint8((r >> 29) & 0x7) }
func (r RequestID) PacketID13() uint16         { return uint16((r >> 16) & 0x1FFF) }
func (r RequestID) SequenceControl() uint16    { return uint16(r) }

// Bytes returns the big-endian wire form embedded at the front of every
// verification TM's source data.
func (r RequestID) Bytes() [4]byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(r))
	return b
}
