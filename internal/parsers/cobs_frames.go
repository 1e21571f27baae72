package parsers

import "github.com/skyhaven-space/obsw/internal/cobs"

// ParseCobsFrames scans buf for 0x00-delimited COBS frames, decodes each and
// hands it to recv. It returns the number of complete packets extracted and
// the number of bytes of an incomplete trailing frame that were compacted to
// the front of buf (0 if buf was fully consumed). A consecutive pair of
// frames may share a single 0x00 byte as the first frame's terminator and the
// second's starter — that sentinel is not double-counted or duplicated. A
// final 0x00 that terminated the last frame counts as consumed and is not
// kept as the starter of a next frame.
//
// Malformed frames (one that fails COBS decoding) are dropped without being
// reported to recv or the caller; scanning resumes at the next sentinel
// rather than aborting the whole buffer.
func ParseCobsFrames(buf []byte, recv TcReceiver) (packetsFound int, nextWriteIdx int) {
	idx := 0
	lastTerminator := -1
	for {
		start := indexOfZero(buf, idx)
		if start == -1 {
			return packetsFound, 0
		}
		end := indexOfZero(buf, start+1)
		if end == -1 {
			if start == lastTerminator && start == len(buf)-1 {
				return packetsFound, 0
			}
			n := copy(buf, buf[start:])
			return packetsFound, n
		}
		if end > start+1 {
			if decoded, err := cobs.Decode(buf[start+1 : end]); err == nil {
				recv.ReceiveTc(decoded)
				packetsFound++
			}
			lastTerminator = end
		}
		idx = end
	}
}

func indexOfZero(buf []byte, from int) int {
	for i := from; i < len(buf); i++ {
		if buf[i] == 0 {
			return i
		}
	}
	return -1
}
