package chunk

import (
	"bytes"
	"fmt"
	"strings"
)

// Buffer is one record of the container tree.
//
// Data is a zero-copy view into the container bytes; callers must not retain it
// after File.Close when the file was opened with Open.
type Buffer struct {
	Context   uint32
	Version   uint8
	Strategy  uint8
	Alignment uint16

	// Offset is the absolute position of the payload in the container.
	Offset uint64
	// Size is the payload length declared by the entry directory.
	Size uint32
	Data []byte

	// Parent is nil for top-level entries. It never owns the child.
	Parent   *Buffer
	Children []*Buffer
}

// IsChunk reports whether the payload is itself a nested chunk.
func (b *Buffer) IsChunk() bool {
	return b != nil && isChunk(b.Data)
}

func (b *Buffer) End() uint64 {
	return b.Offset + uint64(b.Size)
}

// Reader returns a seekable stream over the payload without copying it.
func (b *Buffer) Reader() *bytes.Reader {
	if b == nil {
		return bytes.NewReader(nil)
	}
	return bytes.NewReader(b.Data)
}

// Depth returns the nesting level, 0 for top-level entries.
func (b *Buffer) Depth() int {
	d := 0
	for p := b.Parent; p != nil; p = p.Parent {
		d++
	}
	return d
}

// Path renders the context chain from the top level down to b, e.g. "0x00000002/GMC2".
func (b *Buffer) Path() string {
	var parts []string
	for p := b; p != nil; p = p.Parent {
		parts = append(parts, FourCC(p.Context))
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}

func (b *Buffer) String() string {
	return fmt.Sprintf("%s @ 0x%X (%d bytes)", FourCC(b.Context), b.Offset, b.Size)
}
