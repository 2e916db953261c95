// Package report renders decoded containers and model packages for people and
// for tools.
package report

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/samcharles93/dscript/pkg/chunk"
	"github.com/samcharles93/dscript/pkg/model"
	"github.com/samcharles93/dscript/pkg/vif"
)

// BufferInfo is one node of a container listing.
type BufferInfo struct {
	Path     string       `json:"path"`
	Context  string       `json:"context"`
	ID       uint32       `json:"id"`
	Version  uint8        `json:"version"`
	Offset   uint64       `json:"offset"`
	Size     uint32       `json:"size"`
	Children []BufferInfo `json:"children,omitempty"`
}

// Tree lists every buffer of f.
func Tree(f *chunk.File) []BufferInfo {
	return bufferInfos(f.Buffers)
}

func bufferInfos(bufs []*chunk.Buffer) []BufferInfo {
	out := make([]BufferInfo, 0, len(bufs))
	for _, b := range bufs {
		out = append(out, BufferInfo{
			Path:     b.Path(),
			Context:  chunk.FourCC(b.Context),
			ID:       b.Context,
			Version:  b.Version,
			Offset:   b.Offset,
			Size:     b.Size,
			Children: bufferInfos(b.Children),
		})
	}
	return out
}

// Package is the structured view of a decoded model package.
type Package struct {
	Path             string     `json:"path,omitempty"`
	Platform         string     `json:"platform"`
	Magic            string     `json:"magic"`
	UID              uint32     `json:"uid"`
	Version          uint32     `json:"version"`
	Flags            uint32     `json:"flags"`
	DetailFlags      uint32     `json:"detail_flags"`
	MaterialsSkipped bool       `json:"materials_skipped,omitempty"`
	Models           []Model    `json:"models"`
	Materials        []Material `json:"materials,omitempty"`
	Textures         []Texture  `json:"textures,omitempty"`
}

type Model struct {
	UID          uint32     `json:"uid"`
	Handle       uint32     `json:"handle"`
	Type         [2]uint8   `json:"type"`
	Unknown      [2]uint16  `json:"unknown"`
	Transform1   [3]float32 `json:"transform1"`
	Transform2   [3]float32 `json:"transform2"`
	VertexBuffer int        `json:"vertex_buffer"`
	SubModels    []SubModel `json:"sub_models"`
}

type SubModel struct {
	Index         int          `json:"index"`
	Type          uint16       `json:"type"`
	Flags         uint16       `json:"flags"`
	Unknown       [2]uint16    `json:"unknown"`
	TextureID     uint16       `json:"texture_id"`
	TextureSource uint16       `json:"texture_source"`
	V1            *[3]float32  `json:"v1,omitempty"`
	V2            *[3]float32  `json:"v2,omitempty"`
	Transform     *[16]float32 `json:"transform,omitempty"`
	DataSize      int          `json:"data_size,omitempty"`
	IndexOffset   uint32       `json:"index_offset,omitempty"`
	IndexCount    uint32       `json:"index_count,omitempty"`

	VIF      []vif.Instruction `json:"vif,omitempty"`
	VIFError string            `json:"vif_error,omitempty"`
}

type Material struct {
	Flags          uint32  `json:"flags"`
	Animated       bool    `json:"animated"`
	AnimationSpeed float32 `json:"animation_speed"`
	Substances     []int   `json:"substances"`
}

type Texture struct {
	UID        uint64   `json:"uid"`
	Hash       uint32   `json:"hash,omitempty"`
	Type       uint16   `json:"type"`
	Flags      uint16   `json:"flags"`
	Width      uint16   `json:"width"`
	Height     uint16   `json:"height"`
	DataOffset uint32   `json:"data_offset"`
	DataSize   int      `json:"data_size"`
	CLUTs      []uint32 `json:"cluts,omitempty"`
	Substance  int      `json:"substance"`
}

// Options selects the optional parts of a package report.
type Options struct {
	// VIF disassembles PS2 sub model data.
	VIF        bool
	VIFOptions []vif.Option
}

// Summarize builds the structured view of p.
func Summarize(p *model.Package, opts Options) Package {
	out := Package{
		Platform:         p.Platform.String(),
		Magic:            chunk.FourCC(p.Magic),
		UID:              p.UID,
		Version:          p.Version,
		Flags:            p.Flags,
		DetailFlags:      p.DetailFlags(),
		MaterialsSkipped: p.MaterialsSkipped,
		Models:           make([]Model, 0, len(p.Models)),
	}

	for i := range p.Models {
		m := &p.Models[i]
		rm := Model{
			UID:          m.UID,
			Handle:       m.Handle,
			Type:         [2]uint8{m.PrimaryType(), m.SecondaryType()},
			Unknown:      [2]uint16{m.Unknown1, m.Unknown2},
			Transform1:   m.Transform1,
			Transform2:   m.Transform2,
			VertexBuffer: m.VertexBuffer,
		}
		for _, si := range p.SubModelsOf(i) {
			rm.SubModels = append(rm.SubModels, summarizeSubModel(si, &p.SubModels[si], opts))
		}
		out.Models = append(out.Models, rm)
	}

	for i := range p.Materials {
		out.Materials = append(out.Materials, SummarizeMaterial(&p.Materials[i]))
	}
	for _, t := range p.Textures {
		out.Textures = append(out.Textures, Texture{
			UID:        t.UID,
			Hash:       t.Hash,
			Type:       t.Type,
			Flags:      t.Flags,
			Width:      t.Width,
			Height:     t.Height,
			DataOffset: t.DataOffset,
			DataSize:   len(t.Data),
			CLUTs:      t.CLUTs,
			Substance:  t.Substance,
		})
	}
	return out
}

func SummarizeMaterial(m *model.Material) Material {
	return Material{
		Flags:          m.Flags,
		Animated:       m.Animated(),
		AnimationSpeed: m.AnimationSpeed,
		Substances:     m.Substances,
	}
}

func summarizeSubModel(i int, sm *model.SubModel, opts Options) SubModel {
	out := SubModel{
		Index:         i,
		Type:          sm.Type,
		Flags:         sm.Flags,
		Unknown:       [2]uint16{sm.Unknown1, sm.Unknown2},
		TextureID:     sm.TextureID,
		TextureSource: sm.TextureSource,
		DataSize:      len(sm.ModelData),
		IndexOffset:   sm.IndexOffset,
		IndexCount:    sm.IndexCount,
	}
	if sm.HasVectorData() {
		v1, v2 := [3]float32(sm.V1), [3]float32(sm.V2)
		out.V1, out.V2 = &v1, &v2
	}
	if sm.HasTransform() {
		t := rowMajor(sm.Transform)
		out.Transform = &t
	}
	if opts.VIF && sm.ModelData != nil {
		insts, err := vif.Decode(sm.ModelData, opts.VIFOptions...)
		out.VIF = insts
		if err != nil {
			out.VIFError = err.Error()
		}
	}
	return out
}

func rowMajor(m mgl32.Mat4) [16]float32 {
	var out [16]float32
	for r := 0; r < 4; r++ {
		row := m.Row(r)
		copy(out[r*4:], row[:])
	}
	return out
}
