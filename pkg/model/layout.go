package model

import (
	"encoding/binary"

	"github.com/samcharles93/dscript/pkg/platform"
)

// Record sizes shared by every layout.
const (
	headerSize       = 0x48
	modelSize        = 0x30
	lodSize          = 0x10
	lodInstanceSize  = 0x10
	subModelSize     = 0x20
	vertexBufferSize = 0x10
	materialSize     = 0x10

	vectorDataSize = 24
	transformSize  = 64

	noVertexBuffer = 0xFF
)

// layout is the closed set of per-platform binary differences.
type layout struct {
	name     string
	platform platform.Type
	magic    uint32
	order    binary.ByteOrder

	// vifData marks sub model data fields as a VIF stream slice rather than an index range.
	vifData bool

	substanceSize uint32
	textureSize   uint32
	ps2Textures   bool
}

var (
	layoutPS2 = &layout{
		name:          "ps2",
		platform:      platform.PS2,
		magic:         platform.MagicPS2,
		order:         binary.LittleEndian,
		vifData:       true,
		substanceSize: 0x10,
		textureSize:   0x20,
		ps2Textures:   true,
	}
	layoutXbox = &layout{
		name:          "xbox",
		platform:      platform.Xbox,
		magic:         platform.MagicXbox,
		order:         binary.LittleEndian,
		substanceSize: 0x0C,
		textureSize:   0x20,
	}
	layoutPCXN = &layout{
		name:          "pc-v1",
		platform:      platform.PC,
		magic:         platform.MagicXN,
		order:         binary.LittleEndian,
		substanceSize: 0x10,
		textureSize:   0x1C,
	}
	layoutPC = &layout{
		name:          "pc-v6",
		platform:      platform.PC,
		magic:         platform.MagicPC,
		order:         binary.LittleEndian,
		substanceSize: 0x10,
		textureSize:   0x20,
	}
	layoutWii = &layout{
		name:     "wii",
		platform: platform.Wii,
		magic:    platform.MagicWii,
		order:    binary.BigEndian,
	}
)

// defaultDetails reports a sentinel for version 9 packages whose flags were
// written as zero. Every platform shares it.
func defaultDetails(p *Package) {
	p.Details = Details{Version: p.Version, Flags: p.Flags}
	if p.Flags == 0 && p.Version == 9 {
		p.Details.Flags = FlagsSentinel
	}
}
