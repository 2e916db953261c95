package model

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// reader gives bounds-checked access to fixed-size records of a package payload.
type reader struct {
	data  []byte
	order binary.ByteOrder
	// claimed counts payload bytes consumed by the model tree and by copies.
	claimed *uint64
}

func newReader(data []byte, order binary.ByteOrder) reader {
	return reader{data: data, order: order, claimed: new(uint64)}
}

// claim charges n bytes against the payload. Tables shared between records
// would decode more than the payload holds and are rejected.
func (r reader) claim(name string, n uint64) error {
	*r.claimed += n
	if *r.claimed > uint64(len(r.data)) {
		return fmt.Errorf("%w: %s tables decode %d bytes from a %d-byte payload, tables overlap",
			ErrMalformedPackage, name, *r.claimed, len(r.data))
	}
	return nil
}

// table checks that count records of size bytes starting at off fit in the payload.
func (r reader) table(name string, off, count, size uint32) error {
	end := uint64(off) + uint64(count)*uint64(size)
	if end > uint64(len(r.data)) {
		return fmt.Errorf("%w: %s table at 0x%X needs %d bytes (%d x %d), payload is %d",
			ErrMalformedPackage, name, off, end-uint64(off), count, size, len(r.data))
	}
	return nil
}

// record returns the size-byte record at off.
func (r reader) record(name string, off uint64, size uint32) (record, error) {
	end := off + uint64(size)
	if end > uint64(len(r.data)) {
		return record{}, fmt.Errorf("%w: %s record at 0x%X overruns payload of %d bytes",
			ErrMalformedPackage, name, off, len(r.data))
	}
	return record{b: r.data[off:end], order: r.order, off: off}, nil
}

// bytes returns a copy of n bytes at off.
func (r reader) bytes(name string, off, n uint32) ([]byte, error) {
	end := uint64(off) + uint64(n)
	if end > uint64(len(r.data)) {
		return nil, fmt.Errorf("%w: %s at 0x%X needs %d bytes, payload is %d",
			ErrMalformedPackage, name, off, n, len(r.data))
	}
	if err := r.claim(name, uint64(n)); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, r.data[off:end])
	return out, nil
}

// indices reads count u32 values at off, each of which must be below limit.
func (r reader) indices(name string, off, count uint32, limit int) ([]int, error) {
	if err := r.table(name, off, count, 4); err != nil {
		return nil, err
	}
	if err := r.claim(name, uint64(count)*4); err != nil {
		return nil, err
	}
	out := make([]int, count)
	for i := range out {
		v := r.order.Uint32(r.data[off+uint32(i)*4:])
		if uint64(v) >= uint64(limit) {
			return nil, fmt.Errorf("%w: %s[%d] = %d at 0x%X, only %d entries",
				ErrMalformedPackage, name, i, v, off+uint32(i)*4, limit)
		}
		out[i] = int(v)
	}
	return out, nil
}

// record is a fixed-size slice of the payload; field reads are unchecked.
type record struct {
	b     []byte
	order binary.ByteOrder
	off   uint64
}

func (r record) u8(at int) uint8   { return r.b[at] }
func (r record) u16(at int) uint16 { return r.order.Uint16(r.b[at:]) }
func (r record) u32(at int) uint32 { return r.order.Uint32(r.b[at:]) }
func (r record) u64(at int) uint64 { return r.order.Uint64(r.b[at:]) }

func (r record) f32(at int) float32 {
	return math.Float32frombits(r.u32(at))
}

func (r record) vec3(at int) mgl32.Vec3 {
	return mgl32.Vec3{r.f32(at), r.f32(at + 4), r.f32(at + 8)}
}

func (r record) vec4(at int) mgl32.Vec4 {
	return mgl32.Vec4{r.f32(at), r.f32(at + 4), r.f32(at + 8), r.f32(at + 12)}
}

// mat4 reads 16 floats stored row by row.
func (r record) mat4(at int) mgl32.Mat4 {
	return mgl32.Mat4FromRows(r.vec4(at), r.vec4(at+16), r.vec4(at+32), r.vec4(at+48))
}
