// Package tmtcserver implements the framed TCP server telecommands arrive
// on and telemetry leaves through: one connection, read tc bytes off the
// wire, hand complete frames to the distributor, drain any pending TM back
// out, repeat.
package tmtcserver

import (
	"io"

	"github.com/skyhaven-space/obsw/internal/cobs"
	"github.com/skyhaven-space/obsw/internal/parsers"
)

// TcParser extracts complete telecommand frames from buf, handing each to
// recv, and reports how many bytes of an incomplete trailing frame were
// compacted to the front of buf (0 if fully consumed).
type TcParser interface {
	Parse(buf []byte, recv parsers.TcReceiver) (packets int, nextWriteIdx int)
}

type CobsTcParser struct{}

func (CobsTcParser) Parse(buf []byte, recv parsers.TcReceiver) (int, int) {
	return parsers.ParseCobsFrames(buf, recv)
}

type CcsdsTcParser struct {
	Lookup parsers.PacketIDLookup
}

func (p CcsdsTcParser) Parse(buf []byte, recv parsers.TcReceiver) (int, int) {
	return parsers.ParseCcsdsFrames(buf, p.Lookup, recv)
}

// TmPacketSource yields the next pending, already wire-encoded TM payload.
type TmPacketSource interface {
	NextTm() (payload []byte, ok bool)
}

// TmFramer writes every pending payload from src to w, applying whatever
// framing the wire format needs, and reports how many were sent.
type TmFramer interface {
	Drain(src TmPacketSource, w io.Writer) (sent int, err error)
}

// CobsTmFramer wraps each payload in 0x00 sentinels around its COBS
// encoding.
type CobsTmFramer struct{}

func (CobsTmFramer) Drain(src TmPacketSource, w io.Writer) (int, error) {
	sent := 0
	for {
		payload, ok := src.NextTm()
		if !ok {
			return sent, nil
		}
		encoded := cobs.Encode(payload)
		frame := make([]byte, 0, len(encoded)+2)
		frame = append(frame, 0)
		frame = append(frame, encoded...)
		frame = append(frame, 0)
		if _, err := w.Write(frame); err != nil {
			return sent, err
		}
		sent++
	}
}

// CcsdsTmFramer writes each payload as-is: CCSDS frames are already
// self-delimiting via their length field, so no additional framing is added.
type CcsdsTmFramer struct{}

func (CcsdsTmFramer) Drain(src TmPacketSource, w io.Writer) (int, error) {
	sent := 0
	for {
		payload, ok := src.NextTm()
		if !ok {
			return sent, nil
		}
		if _, err := w.Write(payload); err != nil {
			return sent, err
		}
		sent++
	}
}
