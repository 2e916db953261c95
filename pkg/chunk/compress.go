package chunk

import (
	"bytes"
	"fmt"
	"io"

	"github.com/DataDog/zstd"
)

// zstdMagic is the little-endian frame magic 0xFD2FB528.
var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// IsCompressed reports whether data starts with a zstd frame.
func IsCompressed(data []byte) bool {
	return bytes.HasPrefix(data, zstdMagic)
}

// Compress encodes a container for storage with the given zstd level.
func Compress(data []byte, level int) ([]byte, error) {
	return zstd.CompressLevel(nil, data, level)
}

// MaxSize is the largest plain container a chunk header can describe.
const MaxSize int64 = 1<<32 - 1

// decompress inflates a zstd container, failing once more than limit bytes come out.
func decompress(data []byte, limit int64) ([]byte, error) {
	zr := zstd.NewReader(bytes.NewReader(data))
	defer func() { _ = zr.Close() }()

	out, err := io.ReadAll(io.LimitReader(zr, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %v", ErrMalformedContainer, err)
	}
	if int64(len(out)) > limit {
		return nil, fmt.Errorf("%w: decompressed container exceeds %d bytes", ErrMalformedContainer, limit)
	}
	return out, nil
}

// Probe reports whether head, the first bytes of a file, looks like a plain or
// zstd-compressed container.
func Probe(head []byte) bool {
	return isChunk(head) || IsCompressed(head)
}
