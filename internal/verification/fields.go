package verification

import "encoding/binary"

// EnumField is a fixed-width failure code. Missions pick the width that
// matches their failure code table; the byte layout is the only thing that
// matters to the wire format.
type EnumField interface {
	enumBytes() []byte
}

type EnumU8 uint8

func (e EnumU8) enumBytes() []byte { return []byte{byte(e)} }

type EnumU16 uint16

func (e EnumU16) enumBytes() []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, uint16(e))
	return b
}

type EnumU32 uint32

func (e EnumU32) enumBytes() []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(e))
	return b
}

// FailParams bundles everything a failure-report TM needs beyond the
// request id: the time stamp, a failure code, and optional free-form
// diagnostic data appended after it.
type FailParams struct {
	TimeStamp   []byte
	FailureCode EnumField
	FailureData []byte
}

// Config is the per-reporter apid/destination pair every verification TM is
// addressed with.
type Config struct {
	Apid   uint16
	DestID uint16
}
