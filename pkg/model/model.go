// Package model decodes Driver-engine model packages.
//
// A package is decoded once into flat tables owned by Package. Ownership between
// levels (model → lod → lod instance → sub model, material → substance → texture)
// is stored as index lists on the owner; back-references are plain indices and
// are -1 when unset.
package model

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/samcharles93/dscript/pkg/platform"
)

// FlagsSentinel is reported by DetailFlags for version 9 packages written with
// zero flags by the original toolchain.
const FlagsSentinel uint32 = 0xBADC0DE

type Package struct {
	Magic    uint32
	UID      uint32
	Platform platform.Type
	Version  uint32
	Flags    uint32

	// Details holds the detail-provider view of the header.
	Details Details

	// ChangesPending blocks FreeModels and FreeMaterials while an external
	// editor still tracks the graph.
	ChangesPending bool

	// MaterialsSkipped is set when the platform has no known material layout
	// and the material tables were left undecoded.
	MaterialsSkipped bool

	Models       []Model
	Lods         []Lod
	LodInstances []LodInstance
	SubModels    []SubModel

	VertexBuffers []VertexBuffer
	IndexBuffer   *IndexBuffer

	Materials   []Material
	Substances  []Substance
	Textures    []Texture
	TextureData []byte
}

// Details are platform-dependent header values. Decoders fill them after the
// generic header decode and variants may override individual fields.
type Details struct {
	Version uint32
	Flags   uint32
}

// DetailFlags returns the flags as seen through the detail provider.
func (p *Package) DetailFlags() uint32 {
	return p.Details.Flags
}

func (p *Package) HasModels() bool {
	return len(p.Models) > 0 && p.VertexBuffers != nil && p.IndexBuffer != nil
}

func (p *Package) HasMaterials() bool {
	return len(p.Materials) > 0
}

func (p *Package) HasTextures() bool {
	return len(p.Textures) > 0
}

// MaterialPackage returns the material layout of the package's platform.
func (p *Package) MaterialPackage() platform.MaterialPackageType {
	return platform.MaterialPackage(p.Platform)
}

// Model returns model i, or nil when out of range.
func (p *Package) Model(i int) *Model {
	if i < 0 || i >= len(p.Models) {
		return nil
	}
	return &p.Models[i]
}

// SubModelsOf returns the sub model indices reachable from model i, in decode order.
func (p *Package) SubModelsOf(i int) []int {
	if i < 0 || i >= len(p.Models) {
		return nil
	}
	var out []int
	for _, l := range p.Models[i].Lods {
		for _, inst := range p.Lods[l].Instances {
			out = append(out, p.LodInstances[inst].SubModels...)
		}
	}
	return out
}

type Model struct {
	UID    uint32
	Handle uint32
	// Type packs the primary type in the low nibble and the secondary in the high nibble.
	Type     uint8
	Unknown1 uint16
	Unknown2 uint16

	Transform1 mgl32.Vec3
	Transform2 mgl32.Vec3

	VertexBuffer int
	Lods         []int
}

func (m *Model) PrimaryType() uint8   { return m.Type & 0xF }
func (m *Model) SecondaryType() uint8 { return (m.Type >> 4) & 0xF }

type Lod struct {
	Mask      uint32
	Model     int
	Instances []int
}

type LodInstance struct {
	Handle    uint16
	Lod       int
	Model     int
	SubModels []int
}

// Sub model flag bits.
const (
	SubModelVectorData uint16 = 1 << 0
	SubModelTransform  uint16 = 1 << 1
)

type SubModel struct {
	Type          uint16
	Flags         uint16
	Unknown1      uint16
	Unknown2      uint16
	TextureID     uint16
	TextureSource uint16

	V1        mgl32.Vec3
	V2        mgl32.Vec3
	Transform mgl32.Mat4

	// ModelData is the raw VIF stream on PS2; it is decoded on demand by package vif.
	ModelData []byte

	IndexOffset uint32
	IndexCount  uint32
	VertexBase  uint32

	LodInstance int
	Model       int
}

func (s *SubModel) HasVectorData() bool { return s.Flags&SubModelVectorData != 0 }
func (s *SubModel) HasTransform() bool  { return s.Flags&SubModelTransform != 0 }

type VertexType uint32

const (
	// Vertex12 carries position, normal and texture coordinates only.
	Vertex12 VertexType = iota
	Vertex15
	Vertex16
)

func (t VertexType) String() string {
	switch t {
	case Vertex12:
		return "Vertex12"
	case Vertex15:
		return "Vertex15"
	case Vertex16:
		return "Vertex16"
	default:
		return "VertexUnknown"
	}
}

type VertexBuffer struct {
	Count      uint32
	Stride     uint32
	VertexType VertexType
	Data       []byte
}

func (v *VertexBuffer) HasBlendWeights() bool {
	return v.VertexType != Vertex12
}

type IndexBuffer struct {
	Indices []uint16
}

// Material flag bits.
const (
	MaterialAnimated uint32 = 1 << 0
)

type Material struct {
	Flags          uint32
	AnimationSpeed float32
	Substances     []int
}

func (m *Material) Animated() bool { return m.Flags&MaterialAnimated != 0 }

type Substance struct {
	Bin      uint8
	Flags    uint8
	Mode     uint8
	Type     uint8
	Material int
	Textures []int
}

type Texture struct {
	UID        uint64
	Hash       uint32
	Type       uint16
	Flags      uint16
	Width      uint16
	Height     uint16
	DataOffset uint32
	DataSize   uint32

	// PS2 only.
	Modes    uint8
	Unknown1 uint32
	Unknown2 uint32
	CLUTs    []uint32

	Substance int
	// Data views Package.TextureData; it is not owned by the texture.
	Data []byte
}
