package model

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/samcharles93/dscript/internal/logger"
	"github.com/samcharles93/dscript/pkg/chunk"
	"github.com/samcharles93/dscript/pkg/platform"
)

// Decoder turns a model package buffer into a Package.
type Decoder interface {
	Platform() platform.Type
	Version() int
	Load(buf *chunk.Buffer) (*Package, error)
	Compile(p *Package) ([]byte, error)
}

type Option func(*options)

type options struct {
	log logger.Logger
}

// WithLogger sets the logger used for non-fatal decode warnings.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// NewDecoder returns the decoder for platform and version. Combinations without
// a concrete layout get a decoder whose Load returns ErrNotImplemented.
func NewDecoder(p platform.Type, version int, opts ...Option) Decoder {
	o := options{log: logger.Discard()}
	for _, opt := range opts {
		opt(&o)
	}

	var l *layout
	switch p {
	case platform.PS2:
		l = layoutPS2
	case platform.Xbox:
		l = layoutXbox
	case platform.PC:
		switch version {
		case 1:
			l = layoutPCXN
		case 6:
			l = layoutPC
		}
	case platform.Wii:
		l = layoutWii
	}
	if l == nil {
		return baseDecoder{platform: p, version: version}
	}
	return &variantDecoder{
		layout:  l,
		version: version,
		log:     o.log.With("decoder", l.name),
	}
}

// baseDecoder has no layout; every operation fails.
type baseDecoder struct {
	platform platform.Type
	version  int
}

func (d baseDecoder) Platform() platform.Type { return d.platform }
func (d baseDecoder) Version() int            { return d.version }

func (d baseDecoder) Load(*chunk.Buffer) (*Package, error) {
	return nil, fmt.Errorf("%w: load %s v%d", ErrNotImplemented, d.platform, d.version)
}

func (d baseDecoder) Compile(*Package) ([]byte, error) {
	return nil, fmt.Errorf("%w: compile %s v%d", ErrNotImplemented, d.platform, d.version)
}

type variantDecoder struct {
	layout  *layout
	version int
	log     logger.Logger
}

func (d *variantDecoder) Platform() platform.Type { return d.layout.platform }
func (d *variantDecoder) Version() int            { return d.version }

// Compile is not supported: packages are decoded, never written back.
func (d *variantDecoder) Compile(*Package) ([]byte, error) {
	return nil, fmt.Errorf("%w: compile %s", ErrNotImplemented, d.layout.name)
}

// Load validates buf against the platform and decodes it.
func (d *variantDecoder) Load(buf *chunk.Buffer) (*Package, error) {
	if buf == nil {
		return nil, fmt.Errorf("%w: nil buffer", ErrMalformedPackage)
	}
	if err := platform.Validate(d.layout.platform, d.version, buf.Context); err != nil {
		return nil, err
	}
	p, err := d.decode(buf.Data)
	if err != nil {
		return nil, fmt.Errorf("%s at 0x%X: %w", d.layout.name, buf.Offset, err)
	}
	return p, nil
}

type header struct {
	magic   uint32
	version uint32
	uid     uint32
	flags   uint32

	modelCount, modelsOffset         uint32
	materialCount, materialsOffset   uint32
	substanceCount, substancesOffset uint32
	textureCount, texturesOffset     uint32
	vertexBufferCount, vertexOffset  uint32
	indexCount, indicesOffset        uint32
	textureDataOffset                uint32
	textureDataSize                  uint32
}

func (d *variantDecoder) decode(data []byte) (*Package, error) {
	r := newReader(data, d.layout.order)

	rec, err := r.record("header", 0, headerSize)
	if err != nil {
		return nil, err
	}
	h := header{
		magic:             rec.u32(0x00),
		version:           rec.u32(0x04),
		uid:               rec.u32(0x08),
		flags:             rec.u32(0x0C),
		modelCount:        rec.u32(0x10),
		modelsOffset:      rec.u32(0x14),
		materialCount:     rec.u32(0x18),
		materialsOffset:   rec.u32(0x1C),
		substanceCount:    rec.u32(0x20),
		substancesOffset:  rec.u32(0x24),
		textureCount:      rec.u32(0x28),
		texturesOffset:    rec.u32(0x2C),
		vertexBufferCount: rec.u32(0x30),
		vertexOffset:      rec.u32(0x34),
		indexCount:        rec.u32(0x38),
		indicesOffset:     rec.u32(0x3C),
		textureDataOffset: rec.u32(0x40),
		textureDataSize:   rec.u32(0x44),
	}
	if h.magic != d.layout.magic {
		return nil, fmt.Errorf("%w: expected %s (0x%08X), found %s (0x%08X) at 0x0",
			ErrBadMagic, chunk.FourCC(d.layout.magic), d.layout.magic, chunk.FourCC(h.magic), h.magic)
	}

	p := &Package{
		Magic:    h.magic,
		UID:      h.uid,
		Platform: d.layout.platform,
		Version:  h.version,
		Flags:    h.flags,
	}
	defaultDetails(p)

	if err := d.decodeBuffers(r, h, p); err != nil {
		return nil, err
	}
	if err := d.decodeModels(r, h, p); err != nil {
		return nil, err
	}
	if err := d.decodeMaterials(r, h, p); err != nil {
		return nil, err
	}

	d.log.Debug("decoded model package",
		"uid", p.UID,
		"version", p.Version,
		"models", len(p.Models),
		"sub_models", len(p.SubModels),
		"materials", len(p.Materials),
		"textures", len(p.Textures),
	)
	return p, nil
}

func (d *variantDecoder) decodeBuffers(r reader, h header, p *Package) error {
	if err := r.table("vertex buffer", h.vertexOffset, h.vertexBufferCount, vertexBufferSize); err != nil {
		return err
	}
	p.VertexBuffers = make([]VertexBuffer, 0, h.vertexBufferCount)
	for i := uint32(0); i < h.vertexBufferCount; i++ {
		rec, err := r.record("vertex buffer", uint64(h.vertexOffset)+uint64(i)*vertexBufferSize, vertexBufferSize)
		if err != nil {
			return err
		}
		vb := VertexBuffer{
			Count:      rec.u32(0x00),
			Stride:     rec.u32(0x04),
			VertexType: VertexType(rec.u32(0x0C)),
		}
		size := uint64(vb.Count) * uint64(vb.Stride)
		if size > uint64(len(r.data)) {
			return fmt.Errorf("%w: vertex buffer %d declares %d bytes, payload is %d",
				ErrMalformedPackage, i, size, len(r.data))
		}
		vb.Data, err = r.bytes("vertex data", rec.u32(0x08), uint32(size))
		if err != nil {
			return err
		}
		p.VertexBuffers = append(p.VertexBuffers, vb)
	}

	if err := r.table("index buffer", h.indicesOffset, h.indexCount, 2); err != nil {
		return err
	}
	ib := &IndexBuffer{Indices: make([]uint16, h.indexCount)}
	for i := range ib.Indices {
		ib.Indices[i] = r.order.Uint16(r.data[h.indicesOffset+uint32(i)*2:])
	}
	p.IndexBuffer = ib
	return nil
}

func (d *variantDecoder) decodeModels(r reader, h header, p *Package) error {
	if err := r.table("model", h.modelsOffset, h.modelCount, modelSize); err != nil {
		return err
	}
	p.Models = make([]Model, 0, h.modelCount)

	for i := uint32(0); i < h.modelCount; i++ {
		rec, err := r.record("model", uint64(h.modelsOffset)+uint64(i)*modelSize, modelSize)
		if err != nil {
			return err
		}
		m := Model{
			UID:          rec.u32(0x00),
			Handle:       rec.u32(0x04),
			Type:         rec.u8(0x08),
			VertexBuffer: -1,
			Unknown1:     rec.u16(0x0A),
			Unknown2:     rec.u16(0x0C),
			Transform1:   rec.vec3(0x10),
			Transform2:   rec.vec3(0x1C),
		}
		if vb := rec.u8(0x09); vb != noVertexBuffer {
			if int(vb) >= len(p.VertexBuffers) {
				return fmt.Errorf("%w: model %d at 0x%X references vertex buffer %d of %d",
					ErrMalformedPackage, i, rec.off, vb, len(p.VertexBuffers))
			}
			m.VertexBuffer = int(vb)
		}
		lodCount := uint32(rec.u16(0x0E))
		lodsOffset := rec.u32(0x28)

		mi := len(p.Models)
		p.Models = append(p.Models, m)

		if err := r.table("lod", lodsOffset, lodCount, lodSize); err != nil {
			return err
		}
		if err := r.claim("lod", uint64(lodCount)*lodSize); err != nil {
			return err
		}
		for l := uint32(0); l < lodCount; l++ {
			if err := d.decodeLod(r, uint64(lodsOffset)+uint64(l)*lodSize, mi, p); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *variantDecoder) decodeLod(r reader, off uint64, mi int, p *Package) error {
	rec, err := r.record("lod", off, lodSize)
	if err != nil {
		return err
	}
	count := uint32(rec.u16(0x04))
	instancesOffset := rec.u32(0x08)

	li := len(p.Lods)
	p.Lods = append(p.Lods, Lod{Mask: rec.u32(0x00), Model: mi})
	p.Models[mi].Lods = append(p.Models[mi].Lods, li)

	if err := r.table("lod instance", instancesOffset, count, lodInstanceSize); err != nil {
		return err
	}
	if err := r.claim("lod instance", uint64(count)*lodInstanceSize); err != nil {
		return err
	}
	for n := uint32(0); n < count; n++ {
		irec, err := r.record("lod instance", uint64(instancesOffset)+uint64(n)*lodInstanceSize, lodInstanceSize)
		if err != nil {
			return err
		}
		subCount := uint32(irec.u16(0x02))
		subsOffset := irec.u32(0x04)

		ii := len(p.LodInstances)
		p.LodInstances = append(p.LodInstances, LodInstance{Handle: irec.u16(0x00), Lod: li, Model: mi})
		p.Lods[li].Instances = append(p.Lods[li].Instances, ii)

		if err := r.table("sub model", subsOffset, subCount, subModelSize); err != nil {
			return err
		}
		if err := r.claim("sub model", uint64(subCount)*subModelSize); err != nil {
			return err
		}
		for s := uint32(0); s < subCount; s++ {
			sm, err := d.decodeSubModel(r, uint64(subsOffset)+uint64(s)*subModelSize)
			if err != nil {
				return err
			}
			sm.LodInstance = ii
			sm.Model = mi

			si := len(p.SubModels)
			p.SubModels = append(p.SubModels, sm)
			p.LodInstances[ii].SubModels = append(p.LodInstances[ii].SubModels, si)
		}
	}
	return nil
}

func (d *variantDecoder) decodeSubModel(r reader, off uint64) (SubModel, error) {
	rec, err := r.record("sub model", off, subModelSize)
	if err != nil {
		return SubModel{}, err
	}
	sm := SubModel{
		Type:          rec.u16(0x00),
		Flags:         rec.u16(0x02),
		Unknown1:      rec.u16(0x04),
		Unknown2:      rec.u16(0x06),
		TextureID:     rec.u16(0x08),
		TextureSource: rec.u16(0x0A),
		Transform:     mgl32.Ident4(),
	}

	if d.layout.vifData {
		sm.ModelData, err = r.bytes("sub model data", rec.u32(0x0C), rec.u32(0x10))
		if err != nil {
			return SubModel{}, err
		}
	} else {
		sm.IndexOffset = rec.u32(0x0C)
		sm.IndexCount = rec.u32(0x10)
		sm.VertexBase = rec.u32(0x18)
	}

	extra := uint64(rec.u32(0x14))
	if sm.HasVectorData() {
		vrec, err := r.record("sub model vectors", extra, vectorDataSize)
		if err != nil {
			return SubModel{}, err
		}
		sm.V1 = vrec.vec3(0)
		sm.V2 = vrec.vec3(12)
		extra += vectorDataSize
	}
	if sm.HasTransform() {
		trec, err := r.record("sub model transform", extra, transformSize)
		if err != nil {
			return SubModel{}, err
		}
		sm.Transform = trec.mat4(0)
	}
	return sm, nil
}
