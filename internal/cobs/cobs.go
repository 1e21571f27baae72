// Package cobs implements Consistent Overhead Byte Stuffing encode/decode.
// No ecosystem COBS library surfaced anywhere in the retrieved dependency
// corpus, and the algorithm is a dozen lines either direction — a perfect
// fit for a small internal package on the standard library rather than
// pulling in an unrelated, unvetted dependency for it (see DESIGN.md).
package cobs

import "errors"

var ErrZeroInInput = errors.New("cobs: encoded frame must not contain 0x00 bytes except as the terminator")

// Encode returns the COBS encoding of data. The result never contains a
// 0x00 byte; framing code is responsible for wrapping it with the 0x00
// sentinels on either side.
func Encode(data []byte) []byte {
	out := make([]byte, 0, len(data)+len(data)/254+2)
	// codeIdx points at the not-yet-written length byte for the current run.
	codeIdx := 0
	out = append(out, 0) // placeholder
	code := byte(1)

	for _, b := range data {
		if b == 0 {
			out[codeIdx] = code
			codeIdx = len(out)
			out = append(out, 0) // placeholder for next run
			code = 1
			continue
		}
		out = append(out, b)
		code++
		if code == 0xFF {
			out[codeIdx] = code
			codeIdx = len(out)
			out = append(out, 0)
			code = 1
		}
	}
	out[codeIdx] = code
	return out
}

// Decode reverses Encode. frame must not itself contain the 0x00 frame
// delimiters a transport wraps it with — strip those before calling Decode.
func Decode(frame []byte) ([]byte, error) {
	out := make([]byte, 0, len(frame))
	i := 0
	for i < len(frame) {
		code := frame[i]
		if code == 0 {
			return nil, ErrZeroInInput
		}
		i++
		runEnd := i + int(code) - 1
		if runEnd > len(frame) {
			return nil, errors.New("cobs: truncated run")
		}
		out = append(out, frame[i:runEnd]...)
		i = runEnd
		if code < 0xFF && i < len(frame) {
			out = append(out, 0)
		}
	}
	return out, nil
}
