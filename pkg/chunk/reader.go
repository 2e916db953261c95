package chunk

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"golang.org/x/sys/unix"
)

// ErrStopWalk can be returned from a WalkFunc to end a walk early without error.
var ErrStopWalk = errors.New("stop walk")

type File struct {
	Data    []byte
	Header  Header
	Buffers []*Buffer
	mmapped bool
}

// WalkFunc is called for every buffer in depth-first order.
type WalkFunc func(b *Buffer) error

// Open maps a container file read-only and parses its tree.
// If mmap is unavailable, it falls back to ReadAt-based loading.
// The returned file must be closed to release any mapping.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	size64 := stat.Size()
	if size64 < headerSize || size64 > int64(int(^uint(0)>>1)) {
		return nil, fmt.Errorf("%w: file size %d", ErrMalformedContainer, size64)
	}
	size := int(size64)

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err == nil && IsCompressed(data) {
		plain, derr := decompress(data, MaxSize)
		_ = unix.Munmap(data)
		if derr != nil {
			return nil, derr
		}
		return parse(plain, false)
	}
	if err == nil {
		cf, parseErr := parse(data, true)
		if parseErr != nil {
			_ = unix.Munmap(data)
			return nil, parseErr
		}
		return cf, nil
	}

	data, err = readAllAt(f, size)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// OpenReaderAt loads and parses a container from a random-access reader without mmap.
func OpenReaderAt(r io.ReaderAt, size int64) (*File, error) {
	if size < 0 || size > int64(int(^uint(0)>>1)) {
		return nil, fmt.Errorf("%w: size %d", ErrMalformedContainer, size)
	}
	data, err := readAllAt(r, int(size))
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse builds the container tree over data. The buffers alias data unless
// it is a zstd-compressed container, which is decompressed first.
func Parse(data []byte) (*File, error) {
	return ParseLimit(data, MaxSize)
}

// ParseLimit is Parse with a cap on the decompressed size of a compressed container.
func ParseLimit(data []byte, limit int64) (*File, error) {
	if IsCompressed(data) {
		plain, err := decompress(data, limit)
		if err != nil {
			return nil, err
		}
		data = plain
	}
	return parse(data, false)
}

func readAllAt(r io.ReaderAt, size int) ([]byte, error) {
	if size == 0 {
		return []byte{}, nil
	}
	out := make([]byte, size)
	var off int64
	for off < int64(size) {
		n, err := r.ReadAt(out[off:], off)
		off += int64(n)
		if err == nil {
			continue
		}
		if err == io.EOF && off == int64(size) {
			break
		}
		return nil, err
	}
	return out, nil
}

func parse(data []byte, mmapped bool) (*File, error) {
	hdr, buffers, err := parseChunk(data, 0, nil, 0)
	if err != nil {
		return nil, err
	}
	return &File{
		Data:    data,
		Header:  hdr,
		Buffers: buffers,
		mmapped: mmapped,
	}, nil
}

// parseChunk decodes the chunk starting at data[0]; base is its absolute offset.
func parseChunk(data []byte, base uint64, parent *Buffer, depth int) (Header, []*Buffer, error) {
	if depth > maxDepth {
		return Header{}, nil, fmt.Errorf("%w: nesting deeper than %d at 0x%X", ErrMalformedContainer, maxDepth, base)
	}
	hdr, ok := decodeHeader(data)
	if !ok {
		return Header{}, nil, fmt.Errorf("%w: truncated header at 0x%X (%d bytes available)", ErrMalformedContainer, base, len(data))
	}
	if hdr.Magic != MagicCHNK {
		return Header{}, nil, fmt.Errorf("%w: %w: bad magic at 0x%X: expected %s, found %s",
			ErrMalformedContainer, ErrNotChunk, base, FourCC(MagicCHNK), FourCC(hdr.Magic))
	}
	if hdr.Size < headerSize || uint64(hdr.Size) > uint64(len(data)) {
		return Header{}, nil, fmt.Errorf("%w: chunk at 0x%X declares %d bytes, %d available",
			ErrMalformedContainer, base, hdr.Size, len(data))
	}
	data = data[:hdr.Size]

	dirEnd := uint64(headerSize) + uint64(hdr.Count)*entrySize
	if dirEnd > uint64(hdr.Size) {
		return Header{}, nil, fmt.Errorf("%w: chunk at 0x%X declares %d entries, directory overruns chunk",
			ErrMalformedContainer, base, hdr.Count)
	}

	entries := make([]Entry, hdr.Count)
	for i := range entries {
		start := headerSize + i*entrySize
		e, _ := decodeEntry(data[start : start+entrySize])

		end := uint64(e.Offset) + uint64(e.Size)
		if end > uint64(hdr.Size) {
			return Header{}, nil, fmt.Errorf("%w: entry %d (%s) at 0x%X declares %d bytes at +0x%X, chunk holds %d",
				ErrMalformedContainer, i, FourCC(e.Context), base+uint64(start), e.Size, e.Offset, hdr.Size)
		}
		entries[i] = e
	}
	if err := checkOverlap(entries, dirEnd, base); err != nil {
		return Header{}, nil, err
	}

	buffers := make([]*Buffer, 0, hdr.Count)
	for _, e := range entries {
		end := uint64(e.Offset) + uint64(e.Size)

		b := &Buffer{
			Context:   e.Context,
			Version:   e.Version,
			Strategy:  e.Strategy,
			Alignment: e.Alignment,
			Offset:    base + uint64(e.Offset),
			Size:      e.Size,
			Data:      data[e.Offset:end],
			Parent:    parent,
		}
		if isChunk(b.Data) {
			_, children, err := parseChunk(b.Data, b.Offset, b, depth+1)
			if err != nil {
				return Header{}, nil, err
			}
			b.Children = children
		}
		buffers = append(buffers, b)
	}
	return hdr, buffers, nil
}

// checkOverlap requires non-empty payloads to sit after the directory and not share
// bytes with each other, so every nested chunk is parsed once.
func checkOverlap(entries []Entry, dirEnd, base uint64) error {
	order := make([]int, 0, len(entries))
	for i, e := range entries {
		if e.Size > 0 {
			order = append(order, i)
		}
	}
	slices.SortFunc(order, func(a, b int) int {
		return cmp.Compare(entries[a].Offset, entries[b].Offset)
	})

	prevEnd := dirEnd
	for _, i := range order {
		e := entries[i]
		if uint64(e.Offset) < prevEnd {
			return fmt.Errorf("%w: entry %d (%s) at +0x%X overlaps the directory or a previous entry in chunk at 0x%X",
				ErrMalformedContainer, i, FourCC(e.Context), e.Offset, base)
		}
		prevEnd = uint64(e.Offset) + uint64(e.Size)
	}
	return nil
}

// Close releases file resources and any mmap backing.
func (f *File) Close() error {
	if f == nil {
		return nil
	}
	var err error
	if f.Data != nil && f.mmapped {
		err = unix.Munmap(f.Data)
	}
	f.Data = nil
	f.Buffers = nil
	f.mmapped = false
	return err
}

// Walk visits every buffer depth-first, parents before children.
func (f *File) Walk(fn WalkFunc) error {
	if f == nil {
		return nil
	}
	err := walk(f.Buffers, fn)
	if errors.Is(err, ErrStopWalk) {
		return nil
	}
	return err
}

func walk(buffers []*Buffer, fn WalkFunc) error {
	for _, b := range buffers {
		if err := fn(b); err != nil {
			return err
		}
		if err := walk(b.Children, fn); err != nil {
			return err
		}
	}
	return nil
}

// FindAll returns every buffer tagged with context, in container order.
func (f *File) FindAll(context uint32) []*Buffer {
	var out []*Buffer
	_ = f.Walk(func(b *Buffer) error {
		if b.Context == context {
			out = append(out, b)
		}
		return nil
	})
	return out
}

// Count returns the total number of buffers in the tree.
func (f *File) Count() int {
	n := 0
	_ = f.Walk(func(*Buffer) error {
		n++
		return nil
	})
	return n
}
