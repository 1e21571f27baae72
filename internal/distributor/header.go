// Package distributor routes accepted telecommands to the per-service
// handler registered for their PUS service id, after emitting the PUS
// Service 1 acceptance report.
package distributor

import (
	"encoding/binary"
	"errors"

	"github.com/skyhaven-space/obsw/internal/verification"
)

var ErrNotEnoughAppData = errors.New("distributor: telecommand shorter than the fixed CCSDS+PUS header")

const minTcHeaderLen = 6 + 3 // 6-byte CCSDS primary header + pus version/service/subservice

// TcHeader is the parsed CCSDS primary header plus the fixed part of the PUS
// TC secondary header every service handler needs before looking at its own
// application data.
type TcHeader struct {
	Version    uint8
	Apid       uint16
	PacketID13 uint16 // primary header's first word with the version bits stripped
	SeqCtrl    uint16
	Service    uint8
	Subservice uint8
	AppData    []byte
	ReqID      verification.RequestID
}

// ParseTcHeader decodes raw's CCSDS primary header and the fixed three bytes
// of the PUS TC secondary header (version/ack flags, service, subservice),
// leaving everything after byte 9 as AppData. Source id/ack-flag bits are
// not modeled — no testable property in scope depends on them.
func ParseTcHeader(raw []byte) (TcHeader, error) {
	if len(raw) < minTcHeaderLen {
		return TcHeader{}, ErrNotEnoughAppData
	}
	word0 := binary.BigEndian.Uint16(raw[0:2])
	version := uint8((word0 >> 13) & 0x7)
	apid := word0 & 0x07FF
	packetID13 := word0 & 0x1FFF
	seqCtrl := binary.BigEndian.Uint16(raw[2:4])

	service := raw[7]
	subservice := raw[8]
	appData := raw[9:]

	return TcHeader{
		Version:    version,
		Apid:       apid,
		PacketID13: packetID13,
		SeqCtrl:    seqCtrl,
		Service:    service,
		Subservice: subservice,
		AppData:    appData,
		ReqID:      verification.NewRequestID(version, packetID13, seqCtrl),
	}, nil
}
