// Package pusframe encodes and rewrites the CCSDS/PUS byte layout used on
// the wire. No ECSS/CCSDS codec library turned up anywhere in the retrieved
// dependency corpus, and the reference design treats the codec as an
// external collaborator outside its own scope — there is nothing to adopt
// from the examples here, and fabricating a dependency that doesn't exist in
// the ecosystem is worse than a small, well-tested internal encoder (see
// DESIGN.md). This package only ever produces and rewrites frames this
// module itself generates; it is not a general-purpose CCSDS library.
package pusframe

import (
	"encoding/binary"
	"errors"
)

const (
	primaryHeaderLen        = 6
	secondaryHeaderFixedLen = 7 // pus version/spare, service, subservice, msg count (2), dest id (2)
	crcLen                  = 2
)

var ErrFrameTooShort = errors.New("pusframe: frame too short for field rewrite")

// EncodeTM builds a complete TM frame: a 6-byte CCSDS primary header, a
// 7-byte fixed PUS TM secondary header, the caller-supplied time stamp and
// source data, and a trailing CRC-16/CCITT-FALSE. The sequence count and
// (inside the secondary header) the message count are written as zero
// placeholders — RewriteSeqAndMsgCount fills in the real values once the
// funnel assigns them.
func EncodeTM(apid uint16, service, subservice uint8, destID uint16, timeStamp, sourceData []byte) []byte {
	bodyLen := secondaryHeaderFixedLen + len(timeStamp) + len(sourceData)
	total := primaryHeaderLen + bodyLen + crcLen
	buf := make([]byte, total)

	packetID := uint16(1)<<11 | (apid & 0x07FF) // type=0 (TM), secondary header flag=1
	binary.BigEndian.PutUint16(buf[0:2], packetID)
	binary.BigEndian.PutUint16(buf[2:4], 0xC000) // unsegmented, sequence count placeholder 0
	binary.BigEndian.PutUint16(buf[4:6], uint16(bodyLen+crcLen-1))

	idx := primaryHeaderLen
	buf[idx] = 0x10 // PUS version 1
	idx++
	buf[idx] = service
	idx++
	buf[idx] = subservice
	idx++
	binary.BigEndian.PutUint16(buf[idx:idx+2], 0) // msg count placeholder
	idx += 2
	binary.BigEndian.PutUint16(buf[idx:idx+2], destID)
	idx += 2
	idx += copy(buf[idx:], timeStamp)
	idx += copy(buf[idx:], sourceData)

	crc := crc16CcittFalse(buf[:idx])
	binary.BigEndian.PutUint16(buf[idx:idx+crcLen], crc)
	return buf
}

// Service extracts the PUS service id from an encoded TM frame.
func Service(buf []byte) (uint8, error) {
	if len(buf) < primaryHeaderLen+1 {
		return 0, ErrFrameTooShort
	}
	return buf[primaryHeaderLen+1], nil
}

// RewriteSeqAndMsgCount overwrites the CCSDS sequence count (primary header)
// and the PUS message count (secondary header) of a frame built by EncodeTM,
// recomputing the trailing CRC exactly once afterward.
func RewriteSeqAndMsgCount(buf []byte, apid uint16, seqCount uint16, msgCount uint16) error {
	if len(buf) < primaryHeaderLen+secondaryHeaderFixedLen+crcLen {
		return ErrFrameTooShort
	}
	packetID := uint16(1)<<11 | (apid & 0x07FF)
	binary.BigEndian.PutUint16(buf[0:2], packetID)
	binary.BigEndian.PutUint16(buf[2:4], 0xC000|(seqCount&0x3FFF))
	binary.BigEndian.PutUint16(buf[primaryHeaderLen+3:primaryHeaderLen+5], msgCount)

	crc := crc16CcittFalse(buf[:len(buf)-crcLen])
	binary.BigEndian.PutUint16(buf[len(buf)-crcLen:], crc)
	return nil
}

func crc16CcittFalse(data []byte) uint16 {
	var crc uint16 = 0xFFFF
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
