// Package chunk implements the spooler container format used by the Driver engine.
//
// A container is a tree of typed records. Each chunk starts with a fixed header
// followed by an entry directory; an entry whose payload begins with the chunk
// magic is itself a chunk and its entries become children of that entry.
package chunk

// Container format constants must never change.
const (
	// MagicCHNK is the chunk magic 'CHNK' read as a little-endian u32.
	MagicCHNK uint32 = 0x4B4E4843

	// Version3 is the chunk version written by Driv3r and Driver: Parallel Lines.
	Version3 uint32 = 3

	headerSize = 16
	entrySize  = 16

	// maxDepth bounds nesting so a self-referencing container cannot recurse forever.
	maxDepth = 64
)

// Header is the fixed 16-byte chunk header.
type Header struct {
	Magic   uint32
	Size    uint32
	Count   uint32
	Version uint32
}

// Entry is one 16-byte record of a chunk's entry directory.
type Entry struct {
	Context   uint32
	Offset    uint32
	Version   uint8
	Strategy  uint8
	Alignment uint16
	Size      uint32
}
