// Package fixture builds synthetic containers and model packages for tests.
package fixture

import "encoding/binary"

const (
	magicCHNK = 0x4B4E4843
	align     = 16
)

// Entry describes one record of a synthetic chunk. When Children is non-nil the
// payload is a nested chunk built from them and Data is ignored.
type Entry struct {
	Context  uint32
	Version  uint8
	Data     []byte
	Children []Entry
}

// Chunk encodes entries as a version 3 chunk with 16-byte aligned payloads.
func Chunk(entries ...Entry) []byte {
	payloads := make([][]byte, len(entries))
	for i, e := range entries {
		if e.Children != nil {
			payloads[i] = Chunk(e.Children...)
		} else {
			payloads[i] = e.Data
		}
	}

	off := pad(16 + 16*len(entries))
	offsets := make([]int, len(entries))
	for i, p := range payloads {
		offsets[i] = off
		off = pad(off + len(p))
	}

	out := make([]byte, off)
	binary.LittleEndian.PutUint32(out[0:], magicCHNK)
	binary.LittleEndian.PutUint32(out[4:], uint32(off))
	binary.LittleEndian.PutUint32(out[8:], uint32(len(entries)))
	binary.LittleEndian.PutUint32(out[12:], 3)
	for i, e := range entries {
		d := out[16+16*i:]
		binary.LittleEndian.PutUint32(d[0:], e.Context)
		binary.LittleEndian.PutUint32(d[4:], uint32(offsets[i]))
		d[8] = e.Version
		binary.LittleEndian.PutUint16(d[10:], align)
		binary.LittleEndian.PutUint32(d[12:], uint32(len(payloads[i])))
		copy(out[offsets[i]:], payloads[i])
	}
	return out
}

func pad(n int) int {
	return (n + align - 1) &^ (align - 1)
}
