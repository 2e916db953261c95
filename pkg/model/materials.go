package model

import (
	"fmt"

	"github.com/samcharles93/dscript/pkg/platform"
)

// WildcardUID in a material handle matches any package.
const WildcardUID uint16 = 0xFFFD

// MaterialHandle references a material by owning package uid and local index.
type MaterialHandle struct {
	UID   uint16
	Index uint16
}

// HandleFromUint32 unpacks a handle stored as (uid << 16) | index.
func HandleFromUint32(v uint32) MaterialHandle {
	return MaterialHandle{UID: uint16(v >> 16), Index: uint16(v)}
}

func (h MaterialHandle) String() string {
	return fmt.Sprintf("%04X:%d", h.UID, h.Index)
}

// LookupResult is the outcome of FindMaterial.
type LookupResult int

const (
	// NotOwned means the handle belongs to another package; try elsewhere.
	NotOwned LookupResult = 0
	// Found means the material was returned.
	Found LookupResult = 1
	// Missing means the handle is owned by this package but the entry is absent.
	Missing LookupResult = -1
)

func (r LookupResult) String() string {
	switch r {
	case Found:
		return "found"
	case Missing:
		return "missing"
	default:
		return "not_owned"
	}
}

// FindMaterial resolves h against the package's material table.
func (p *Package) FindMaterial(h MaterialHandle) (*Material, LookupResult) {
	if h.UID != WildcardUID && uint32(h.UID) != p.UID {
		return nil, NotOwned
	}
	if p.HasMaterials() && int(h.Index) < len(p.Materials) {
		return &p.Materials[h.Index], Found
	}
	return nil, Missing
}

func (d *variantDecoder) decodeMaterials(r reader, h header, p *Package) error {
	if platform.MaterialPackage(d.layout.platform) == platform.MaterialUnknown {
		if h.materialCount > 0 || h.textureCount > 0 {
			p.MaterialsSkipped = true
			d.log.Warn("material tables left undecoded: no layout for platform",
				"platform", d.layout.platform.String(),
				"materials", h.materialCount,
				"textures", h.textureCount,
			)
		}
		return nil
	}

	if h.textureDataSize > 0 {
		data, err := r.bytes("texture data", h.textureDataOffset, h.textureDataSize)
		if err != nil {
			return err
		}
		p.TextureData = data
	}

	if err := d.decodeTextures(r, h, p); err != nil {
		return err
	}
	if err := d.decodeSubstances(r, h, p); err != nil {
		return err
	}

	if err := r.table("material", h.materialsOffset, h.materialCount, materialSize); err != nil {
		return err
	}
	p.Materials = make([]Material, 0, h.materialCount)
	for i := uint32(0); i < h.materialCount; i++ {
		rec, err := r.record("material", uint64(h.materialsOffset)+uint64(i)*materialSize, materialSize)
		if err != nil {
			return err
		}
		subs, err := r.indices("material substances", rec.u32(0x00), rec.u32(0x04), len(p.Substances))
		if err != nil {
			return err
		}
		mi := len(p.Materials)
		p.Materials = append(p.Materials, Material{
			Flags:          rec.u32(0x08),
			AnimationSpeed: rec.f32(0x0C),
			Substances:     subs,
		})
		for _, s := range subs {
			if p.Substances[s].Material < 0 {
				p.Substances[s].Material = mi
			}
		}
	}
	return nil
}

func (d *variantDecoder) decodeSubstances(r reader, h header, p *Package) error {
	size := d.layout.substanceSize
	if err := r.table("substance", h.substancesOffset, h.substanceCount, size); err != nil {
		return err
	}
	p.Substances = make([]Substance, 0, h.substanceCount)
	for i := uint32(0); i < h.substanceCount; i++ {
		rec, err := r.record("substance", uint64(h.substancesOffset)+uint64(i)*uint64(size), size)
		if err != nil {
			return err
		}
		texs, err := r.indices("substance textures", rec.u32(0x04), rec.u32(0x08), len(p.Textures))
		if err != nil {
			return err
		}
		si := len(p.Substances)
		p.Substances = append(p.Substances, Substance{
			Bin:      rec.u8(0x00),
			Flags:    rec.u8(0x01),
			Mode:     rec.u8(0x02),
			Type:     rec.u8(0x03),
			Material: -1,
			Textures: texs,
		})
		for _, t := range texs {
			if p.Textures[t].Substance < 0 {
				p.Textures[t].Substance = si
			}
		}
	}
	return nil
}

func (d *variantDecoder) decodeTextures(r reader, h header, p *Package) error {
	size := d.layout.textureSize
	if err := r.table("texture", h.texturesOffset, h.textureCount, size); err != nil {
		return err
	}
	p.Textures = make([]Texture, 0, h.textureCount)
	for i := uint32(0); i < h.textureCount; i++ {
		rec, err := r.record("texture", uint64(h.texturesOffset)+uint64(i)*uint64(size), size)
		if err != nil {
			return err
		}

		tex := decodeTexture(rec)
		if d.layout.ps2Textures {
			if tex, err = decodeTexturePS2(r, rec); err != nil {
				return err
			}
		}
		tex.Substance = -1

		if err := p.attachTextureData(&tex, d.layout.ps2Textures); err != nil {
			return fmt.Errorf("texture %d: %w", i, err)
		}
		p.Textures = append(p.Textures, tex)
	}
	return nil
}

func decodeTexture(rec record) Texture {
	return Texture{
		UID:        rec.u64(0x00),
		Hash:       rec.u32(0x08),
		DataOffset: rec.u32(0x0C),
		DataSize:   rec.u32(0x10),
		Type:       rec.u16(0x14),
		Width:      rec.u16(0x16),
		Height:     rec.u16(0x18),
		Flags:      rec.u16(0x1A),
	}
}

func decodeTexturePS2(r reader, rec record) (Texture, error) {
	tex := Texture{
		UID:        rec.u64(0x00),
		Type:       uint16(rec.u8(0x08)),
		Modes:      rec.u8(0x09),
		Flags:      rec.u16(0x0A),
		Width:      rec.u16(0x0C),
		Height:     rec.u16(0x0E),
		Unknown1:   rec.u32(0x10),
		DataOffset: rec.u32(0x14),
		Unknown2:   rec.u32(0x18),
	}
	cluts := rec.u32(0x1C)
	if err := r.table("texture cluts", cluts, uint32(tex.Modes), 4); err != nil {
		return Texture{}, err
	}
	tex.CLUTs = make([]uint32, tex.Modes)
	for i := range tex.CLUTs {
		tex.CLUTs[i] = r.order.Uint32(r.data[cluts+uint32(i)*4:])
	}
	return tex, nil
}

// attachTextureData points tex.Data into the shared texture data block. PS2
// records carry no size, so their view runs to the end of the block, and PS2
// packages without a block keep their textures in a sibling chunk.
func (p *Package) attachTextureData(tex *Texture, open bool) error {
	n := uint64(len(p.TextureData))
	if open && n == 0 {
		return nil
	}
	start := uint64(tex.DataOffset)
	end := start + uint64(tex.DataSize)
	if open {
		end = n
	}
	if start > n || end > n {
		return fmt.Errorf("%w: data 0x%X+0x%X outside texture block of %d bytes",
			ErrMalformedPackage, tex.DataOffset, tex.DataSize, n)
	}
	if start == end {
		return nil
	}
	tex.Data = p.TextureData[start:end:end]
	return nil
}
