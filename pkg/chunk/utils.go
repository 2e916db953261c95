package chunk

import (
	"encoding/binary"
	"fmt"
)

func isChunk(data []byte) bool {
	return len(data) >= 4 && binary.LittleEndian.Uint32(data) == MagicCHNK
}

func decodeHeader(b []byte) (Header, bool) {
	if len(b) < headerSize {
		return Header{}, false
	}
	return Header{
		Magic:   binary.LittleEndian.Uint32(b[0:]),
		Size:    binary.LittleEndian.Uint32(b[4:]),
		Count:   binary.LittleEndian.Uint32(b[8:]),
		Version: binary.LittleEndian.Uint32(b[12:]),
	}, true
}

func decodeEntry(b []byte) (Entry, bool) {
	if len(b) < entrySize {
		return Entry{}, false
	}
	return Entry{
		Context:   binary.LittleEndian.Uint32(b[0:]),
		Offset:    binary.LittleEndian.Uint32(b[4:]),
		Version:   b[8],
		Strategy:  b[9],
		Alignment: binary.LittleEndian.Uint16(b[10:]),
		Size:      binary.LittleEndian.Uint32(b[12:]),
	}, true
}

// FourCC renders a context id as its four ASCII characters when printable,
// otherwise as a hex literal.
func FourCC(v uint32) string {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	for _, c := range b {
		if c < 0x20 || c > 0x7E {
			return fmt.Sprintf("0x%08X", v)
		}
	}
	return string(b[:])
}
