package fixture

import (
	"encoding/binary"
	"math"
)

// Package describes a synthetic model package. Tables are laid out in the order
// vertex buffers, indices, models, textures, substances, materials, texture data.
type Package struct {
	Order   binary.ByteOrder
	Magic   uint32
	Version uint32
	UID     uint32
	Flags   uint32

	// PS2 selects VIF sub model data and the PS2 texture record.
	PS2 bool
	// SubstanceSize and TextureSize default to 0x10 and 0x20.
	SubstanceSize int
	TextureSize   int

	VertexBuffers []VertexBuffer
	Indices       []uint16
	Models        []Model
	Textures      []Texture
	Substances    []Substance
	Materials     []Material
	TextureData   []byte
}

type VertexBuffer struct {
	Count, Stride, Type uint32
	Data                []byte
}

type Model struct {
	UID, Handle  uint32
	Type         uint8
	VertexBuffer uint8
	Transform1   [3]float32
	Transform2   [3]float32
	Lods         []Lod
}

type Lod struct {
	Mask      uint32
	Instances []Instance
}

type Instance struct {
	Handle    uint16
	SubModels []SubModel
}

type SubModel struct {
	Type, Flags              uint16
	TextureID, TextureSource uint16

	// Data is the VIF stream on PS2.
	Data []byte

	IndexOffset, IndexCount, VertexBase uint32

	V1, V2    [3]float32
	Transform [16]float32
}

type Material struct {
	Flags      uint32
	Speed      float32
	Substances []uint32
}

type Substance struct {
	Bin, Flags, Mode, Type uint8
	Textures               []uint32
}

type Texture struct {
	UID                  uint64
	Hash                 uint32
	DataOffset, DataSize uint32
	Type                 uint16
	Width, Height, Flags uint16

	Modes uint8
	CLUTs []uint32
}

type writer struct {
	b []byte
	o binary.ByteOrder
}

func (w *writer) alloc(n int) int {
	off := len(w.b)
	w.b = append(w.b, make([]byte, n)...)
	return off
}

func (w *writer) u8(at int, v uint8)   { w.b[at] = v }
func (w *writer) u16(at int, v uint16) { w.o.PutUint16(w.b[at:], v) }
func (w *writer) u32(at int, v uint32) { w.o.PutUint32(w.b[at:], v) }
func (w *writer) u64(at int, v uint64) { w.o.PutUint64(w.b[at:], v) }
func (w *writer) f32(at int, v float32) {
	w.u32(at, math.Float32bits(v))
}

func (w *writer) floats(v ...float32) int {
	off := w.alloc(4 * len(v))
	for i, f := range v {
		w.f32(off+4*i, f)
	}
	return off
}

func (w *writer) refs(v []uint32) int {
	off := w.alloc(4 * len(v))
	for i, r := range v {
		w.u32(off+4*i, r)
	}
	return off
}

func (w *writer) blob(v []byte) int {
	off := w.alloc(len(v))
	copy(w.b[off:], v)
	return off
}

// Bytes encodes p as a package payload.
func (p Package) Bytes() []byte {
	order := p.Order
	if order == nil {
		order = binary.LittleEndian
	}
	subSize := p.SubstanceSize
	if subSize == 0 {
		subSize = 0x10
	}
	texSize := p.TextureSize
	if texSize == 0 {
		texSize = 0x20
	}

	w := &writer{o: order}
	w.alloc(0x48)
	w.u32(0x00, p.Magic)
	w.u32(0x04, p.Version)
	w.u32(0x08, p.UID)
	w.u32(0x0C, p.Flags)

	vbs := w.alloc(0x10 * len(p.VertexBuffers))
	for i, vb := range p.VertexBuffers {
		data := w.blob(vb.Data)
		at := vbs + 0x10*i
		w.u32(at+0x00, vb.Count)
		w.u32(at+0x04, vb.Stride)
		w.u32(at+0x08, uint32(data))
		w.u32(at+0x0C, vb.Type)
	}
	w.u32(0x30, uint32(len(p.VertexBuffers)))
	w.u32(0x34, uint32(vbs))

	idx := w.alloc(2 * len(p.Indices))
	for i, v := range p.Indices {
		w.u16(idx+2*i, v)
	}
	w.u32(0x38, uint32(len(p.Indices)))
	w.u32(0x3C, uint32(idx))

	models := w.alloc(0x30 * len(p.Models))
	for i, m := range p.Models {
		at := models + 0x30*i
		w.u32(at+0x00, m.UID)
		w.u32(at+0x04, m.Handle)
		w.u8(at+0x08, m.Type)
		w.u8(at+0x09, m.VertexBuffer)
		w.u16(at+0x0E, uint16(len(m.Lods)))
		for j := 0; j < 3; j++ {
			w.f32(at+0x10+4*j, m.Transform1[j])
			w.f32(at+0x1C+4*j, m.Transform2[j])
		}
		w.u32(at+0x28, uint32(w.lods(m.Lods, p.PS2)))
	}
	w.u32(0x10, uint32(len(p.Models)))
	w.u32(0x14, uint32(models))

	texs := w.alloc(texSize * len(p.Textures))
	for i, t := range p.Textures {
		at := texs + texSize*i
		w.u64(at+0x00, t.UID)
		if p.PS2 {
			w.u8(at+0x08, uint8(t.Type))
			w.u8(at+0x09, t.Modes)
			w.u16(at+0x0A, t.Flags)
			w.u16(at+0x0C, t.Width)
			w.u16(at+0x0E, t.Height)
			w.u32(at+0x14, t.DataOffset)
			w.u32(at+0x1C, uint32(w.refs(t.CLUTs)))
			continue
		}
		w.u32(at+0x08, t.Hash)
		w.u32(at+0x0C, t.DataOffset)
		w.u32(at+0x10, t.DataSize)
		w.u16(at+0x14, t.Type)
		w.u16(at+0x16, t.Width)
		w.u16(at+0x18, t.Height)
		w.u16(at+0x1A, t.Flags)
	}
	w.u32(0x28, uint32(len(p.Textures)))
	w.u32(0x2C, uint32(texs))

	subs := w.alloc(subSize * len(p.Substances))
	for i, s := range p.Substances {
		at := subs + subSize*i
		w.u8(at+0x00, s.Bin)
		w.u8(at+0x01, s.Flags)
		w.u8(at+0x02, s.Mode)
		w.u8(at+0x03, s.Type)
		w.u32(at+0x04, uint32(w.refs(s.Textures)))
		w.u32(at+0x08, uint32(len(s.Textures)))
	}
	w.u32(0x20, uint32(len(p.Substances)))
	w.u32(0x24, uint32(subs))

	mats := w.alloc(0x10 * len(p.Materials))
	for i, m := range p.Materials {
		at := mats + 0x10*i
		w.u32(at+0x00, uint32(w.refs(m.Substances)))
		w.u32(at+0x04, uint32(len(m.Substances)))
		w.u32(at+0x08, m.Flags)
		w.f32(at+0x0C, m.Speed)
	}
	w.u32(0x18, uint32(len(p.Materials)))
	w.u32(0x1C, uint32(mats))

	if len(p.TextureData) > 0 {
		w.u32(0x40, uint32(w.blob(p.TextureData)))
		w.u32(0x44, uint32(len(p.TextureData)))
	}
	return w.b
}

func (w *writer) lods(lods []Lod, ps2 bool) int {
	off := w.alloc(0x10 * len(lods))
	for i, l := range lods {
		at := off + 0x10*i
		w.u32(at+0x00, l.Mask)
		w.u16(at+0x04, uint16(len(l.Instances)))

		insts := w.alloc(0x10 * len(l.Instances))
		w.u32(at+0x08, uint32(insts))
		for j, inst := range l.Instances {
			iat := insts + 0x10*j
			w.u16(iat+0x00, inst.Handle)
			w.u16(iat+0x02, uint16(len(inst.SubModels)))
			w.u32(iat+0x04, uint32(w.subModels(inst.SubModels, ps2)))
		}
	}
	return off
}

func (w *writer) subModels(subs []SubModel, ps2 bool) int {
	off := w.alloc(0x20 * len(subs))
	for i, s := range subs {
		at := off + 0x20*i
		w.u16(at+0x00, s.Type)
		w.u16(at+0x02, s.Flags)
		w.u16(at+0x08, s.TextureID)
		w.u16(at+0x0A, s.TextureSource)
		if ps2 {
			w.u32(at+0x0C, uint32(w.blob(s.Data)))
			w.u32(at+0x10, uint32(len(s.Data)))
		} else {
			w.u32(at+0x0C, s.IndexOffset)
			w.u32(at+0x10, s.IndexCount)
			w.u32(at+0x18, s.VertexBase)
		}

		extra := len(w.b)
		if s.Flags&1 != 0 {
			w.floats(s.V1[0], s.V1[1], s.V1[2], s.V2[0], s.V2[1], s.V2[2])
		}
		if s.Flags&2 != 0 {
			w.floats(s.Transform[:]...)
		}
		w.u32(at+0x14, uint32(extra))
	}
	return off
}
