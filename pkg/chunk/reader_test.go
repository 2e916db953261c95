package chunk

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/samcharles93/dscript/internal/fixture"
)

const ctxGMC2 = 0x32434D47

func testContainer() []byte {
	return fixture.Chunk(
		fixture.Entry{Context: 0x1, Data: []byte("header")},
		fixture.Entry{Context: 0x2, Children: []fixture.Entry{
			{Context: ctxGMC2, Version: 1, Data: []byte("GMC2 payload bytes")},
			{Context: 0x3, Data: []byte{1, 2, 3}},
		}},
		fixture.Entry{Context: 0x4, Data: []byte{}},
	)
}

func TestParseNestedTree(t *testing.T) {
	t.Parallel()

	f, err := Parse(testContainer())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if f.Header.Version != Version3 {
		t.Fatalf("version: got %d want %d", f.Header.Version, Version3)
	}
	if len(f.Buffers) != 3 {
		t.Fatalf("top-level count: got %d want 3", len(f.Buffers))
	}
	if got := f.Count(); got != 5 {
		t.Fatalf("total count: got %d want 5", got)
	}

	nested := f.Buffers[1]
	if !nested.IsChunk() {
		t.Fatalf("entry 1 should be a nested chunk")
	}
	if len(nested.Children) != 2 {
		t.Fatalf("children: got %d want 2", len(nested.Children))
	}
	gmc2 := nested.Children[0]
	if gmc2.Parent != nested {
		t.Fatalf("child parent link not set")
	}
	if gmc2.Depth() != 1 {
		t.Fatalf("depth: got %d want 1", gmc2.Depth())
	}
	if gmc2.Version != 1 {
		t.Fatalf("entry version: got %d want 1", gmc2.Version)
	}
	if got := gmc2.Path(); got != "0x00000002/GMC2" {
		t.Fatalf("path: got %q", got)
	}
	if !bytes.Equal(gmc2.Data, []byte("GMC2 payload bytes")) {
		t.Fatalf("payload mismatch: %q", gmc2.Data)
	}
	if f.Buffers[0].Parent != nil {
		t.Fatalf("top-level buffer must not have a parent")
	}
}

func TestParseDeclaredLengthsRoundTrip(t *testing.T) {
	t.Parallel()

	data := testContainer()
	f, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	err = f.Walk(func(b *Buffer) error {
		if uint32(len(b.Data)) != b.Size {
			t.Errorf("%s: payload length %d != declared %d", b, len(b.Data), b.Size)
		}
		if !bytes.Equal(data[b.Offset:b.End()], b.Data) {
			t.Errorf("%s: payload does not alias container bytes", b)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
}

func TestWalkOrderParentsFirst(t *testing.T) {
	t.Parallel()

	f, err := Parse(testContainer())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var got []uint32
	seen := map[*Buffer]bool{}
	_ = f.Walk(func(b *Buffer) error {
		if b.Parent != nil && !seen[b.Parent] {
			t.Errorf("%s visited before its parent", b)
		}
		seen[b] = true
		got = append(got, b.Context)
		return nil
	})
	want := []uint32{0x1, 0x2, ctxGMC2, 0x3, 0x4}
	if len(got) != len(want) {
		t.Fatalf("walk order: got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("walk order: got %v want %v", got, want)
		}
	}
}

func TestWalkStop(t *testing.T) {
	t.Parallel()

	f, err := Parse(testContainer())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	n := 0
	err = f.Walk(func(b *Buffer) error {
		n++
		if b.Context == ctxGMC2 {
			return ErrStopWalk
		}
		return nil
	})
	if err != nil {
		t.Fatalf("stop walk should not surface an error: %v", err)
	}
	if n != 3 {
		t.Fatalf("visited %d buffers, want 3", n)
	}
}

func TestFindAll(t *testing.T) {
	t.Parallel()

	f, err := Parse(testContainer())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	found := f.FindAll(ctxGMC2)
	if len(found) != 1 {
		t.Fatalf("found %d GMC2 buffers, want 1", len(found))
	}
	if len(f.FindAll(0xDEADBEEF)) != 0 {
		t.Fatalf("unexpected match for unknown context")
	}
}

func TestParseRejectsOverlengthEntry(t *testing.T) {
	t.Parallel()

	data := testContainer()
	// entry 0 size field
	binary.LittleEndian.PutUint32(data[16+12:], 0xFFFF)

	_, err := Parse(data)
	if !errors.Is(err, ErrMalformedContainer) {
		t.Fatalf("expected ErrMalformedContainer, got %v", err)
	}
}

func TestParseRejectsOverlengthChunk(t *testing.T) {
	t.Parallel()

	data := testContainer()
	binary.LittleEndian.PutUint32(data[4:], uint32(len(data)+1))

	_, err := Parse(data)
	if !errors.Is(err, ErrMalformedContainer) {
		t.Fatalf("expected ErrMalformedContainer, got %v", err)
	}
}

func TestParseRejectsBadInput(t *testing.T) {
	t.Parallel()

	cases := map[string][]byte{
		"empty":     nil,
		"truncated": {0x43, 0x48, 0x4E},
		"magic":     make([]byte, 32),
	}
	for name, data := range cases {
		if _, err := Parse(data); !errors.Is(err, ErrMalformedContainer) {
			t.Fatalf("%s: expected ErrMalformedContainer, got %v", name, err)
		}
	}
	if _, err := Parse(make([]byte, 32)); !errors.Is(err, ErrNotChunk) {
		t.Fatalf("bad magic: expected ErrNotChunk, got %v", err)
	}

	dir := testContainer()
	binary.LittleEndian.PutUint32(dir[8:], 1000)
	if _, err := Parse(dir); !errors.Is(err, ErrMalformedContainer) {
		t.Fatalf("directory overrun: expected ErrMalformedContainer, got %v", err)
	}
}

// aliasChunk wraps child in a chunk whose two entries both point at it.
func aliasChunk(child []byte) []byte {
	const dirEnd = headerSize + 2*entrySize
	out := make([]byte, dirEnd+len(child))
	binary.LittleEndian.PutUint32(out[0:], MagicCHNK)
	binary.LittleEndian.PutUint32(out[4:], uint32(len(out)))
	binary.LittleEndian.PutUint32(out[8:], 2)
	binary.LittleEndian.PutUint32(out[12:], Version3)
	for i := 0; i < 2; i++ {
		d := out[headerSize+i*entrySize:]
		binary.LittleEndian.PutUint32(d[0:], uint32(0x10+i))
		binary.LittleEndian.PutUint32(d[4:], dirEnd)
		binary.LittleEndian.PutUint32(d[12:], uint32(len(child)))
	}
	copy(out[dirEnd:], child)
	return out
}

func TestParseRejectsAliasedEntries(t *testing.T) {
	t.Parallel()

	data := fixture.Chunk(fixture.Entry{Context: 0x1, Data: []byte("leaf")})
	for i := 0; i < 40; i++ {
		data = aliasChunk(data)
	}
	if len(data) > 4096 {
		t.Fatalf("container should stay small, got %d bytes", len(data))
	}

	done := make(chan error, 1)
	go func() {
		_, err := Parse(data)
		done <- err
	}()
	select {
	case err := <-done:
		if !errors.Is(err, ErrMalformedContainer) {
			t.Fatalf("expected ErrMalformedContainer, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("parse of %d-byte container did not finish", len(data))
	}
}

func TestParseRejectsEntryOverDirectory(t *testing.T) {
	t.Parallel()

	data := testContainer()
	// entry 0 offset points into the directory
	binary.LittleEndian.PutUint32(data[16+4:], 8)

	if _, err := Parse(data); !errors.Is(err, ErrMalformedContainer) {
		t.Fatalf("expected ErrMalformedContainer, got %v", err)
	}
}

func TestParseAllowsEmptyEntriesAnywhere(t *testing.T) {
	t.Parallel()

	data := testContainer()
	// entry 2 is empty; pointing it at the directory is harmless
	binary.LittleEndian.PutUint32(data[16+2*16+4:], 0)

	f, err := Parse(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(f.Buffers[2].Data) != 0 {
		t.Fatalf("empty entry should stay empty")
	}
}

func TestBufferReaderIsSeekable(t *testing.T) {
	t.Parallel()

	f, err := Parse(testContainer())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	r := f.Buffers[1].Children[0].Reader()
	if _, err := r.Seek(5, io.SeekStart); err != nil {
		t.Fatalf("seek: %v", err)
	}
	rest, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(rest) != "payload bytes" {
		t.Fatalf("read after seek: got %q", rest)
	}
}

func TestOpenAndOpenReaderAt(t *testing.T) {
	t.Parallel()

	data := testContainer()
	path := filepath.Join(t.TempDir(), "test.chnk")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if got := f.Count(); got != 5 {
		t.Fatalf("count: got %d want 5", got)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if f.Buffers != nil {
		t.Fatalf("close should drop buffers")
	}

	rf, err := OpenReaderAt(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open readerat: %v", err)
	}
	defer func() { _ = rf.Close() }()
	if rf.mmapped {
		t.Fatalf("OpenReaderAt should not mmap")
	}
	if len(rf.FindAll(ctxGMC2)) != 1 {
		t.Fatalf("missing GMC2 buffer")
	}
}

func TestFourCC(t *testing.T) {
	t.Parallel()

	if got := FourCC(ctxGMC2); got != "GMC2" {
		t.Fatalf("got %q want GMC2", got)
	}
	if got := FourCC(MagicCHNK); got != "CHNK" {
		t.Fatalf("got %q want CHNK", got)
	}
	if got := FourCC(7); got != "0x00000007" {
		t.Fatalf("got %q", got)
	}
}

func TestCompressedContainer(t *testing.T) {
	t.Parallel()

	packed, err := Compress(testContainer(), 3)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	if !IsCompressed(packed) {
		t.Fatalf("compressed container should carry the zstd magic")
	}

	f, err := Parse(packed)
	if err != nil {
		t.Fatalf("parse compressed: %v", err)
	}
	if got := f.Count(); got != 5 {
		t.Fatalf("count: got %d want 5", got)
	}

	path := filepath.Join(t.TempDir(), "test.chnk.zst")
	if err := os.WriteFile(path, packed, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	of, err := Open(path)
	if err != nil {
		t.Fatalf("open compressed: %v", err)
	}
	defer func() { _ = of.Close() }()
	if of.mmapped || len(of.FindAll(ctxGMC2)) != 1 {
		t.Fatalf("compressed open should parse a heap copy")
	}

	bad := append(append([]byte{}, zstdMagic...), 0xFF, 0xFF, 0xFF, 0xFF)
	if _, err := Parse(bad); !errors.Is(err, ErrMalformedContainer) {
		t.Fatalf("corrupt frame: expected ErrMalformedContainer, got %v", err)
	}
}

func TestParseLimitCapsDecompressedSize(t *testing.T) {
	t.Parallel()

	bomb, err := Compress(make([]byte, 4<<20), 19)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	if len(bomb) > 64<<10 {
		t.Fatalf("zeros should compress well, got %d bytes", len(bomb))
	}
	if _, err := ParseLimit(bomb, 1<<20); !errors.Is(err, ErrMalformedContainer) {
		t.Fatalf("expected ErrMalformedContainer, got %v", err)
	}

	plain := testContainer()
	packed, err := Compress(plain, 3)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	f, err := ParseLimit(packed, int64(len(plain)))
	if err != nil {
		t.Fatalf("container at the limit: %v", err)
	}
	if f.Count() != 5 {
		t.Fatalf("count: got %d want 5", f.Count())
	}
	if _, err := ParseLimit(packed, int64(len(plain)-1)); !errors.Is(err, ErrMalformedContainer) {
		t.Fatalf("container over the limit: expected ErrMalformedContainer, got %v", err)
	}
}

func TestProbe(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		head []byte
		want bool
	}{
		"chunk": {[]byte("CHNK\x00\x00"), true},
		"zstd":  {zstdMagic, true},
		"short": {[]byte("CH"), false},
		"other": {[]byte("RIFF"), false},
		"empty": {nil, false},
	}
	for name, tc := range cases {
		if got := Probe(tc.head); got != tc.want {
			t.Fatalf("%s: got %v want %v", name, got, tc.want)
		}
	}
}
