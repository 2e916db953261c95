package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/samcharles93/dscript/pkg/chunk"
	"github.com/samcharles93/dscript/pkg/model"
	"github.com/samcharles93/dscript/pkg/platform"
	"github.com/samcharles93/dscript/pkg/vif"
)

// WriteTree prints an indented container listing.
func WriteTree(w io.Writer, f *chunk.File) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "CHNK v%d, %d bytes, %d buffers\n", f.Header.Version, f.Header.Size, f.Count())
	_ = f.Walk(func(b *chunk.Buffer) error {
		fmt.Fprintf(bw, "%s%-10s offset=0x%08X size=0x%08X version=%d\n",
			strings.Repeat("  ", b.Depth()+1), chunk.FourCC(b.Context), b.Offset, b.Size, b.Version)
		return nil
	})
	return bw.Flush()
}

// WriteModelInfo prints every model and sub model of p. When opts.VIF is set,
// PS2 sub model data is disassembled below each sub model; a stream that fails
// to decode is reported and the dump moves on to the next sub model.
func WriteModelInfo(w io.Writer, p *model.Package, opts Options) error {
	bw := bufio.NewWriter(w)
	for i := range p.Models {
		m := &p.Models[i]
		fmt.Fprintf(bw, "**** Model %d / %d *****\n", i+1, len(p.Models))
		fmt.Fprintf(bw, "Type: (%d, %d)\n", m.PrimaryType(), m.SecondaryType())
		fmt.Fprintf(bw, "UID: %08X\n", m.UID)
		fmt.Fprintf(bw, "Handle: %08X\n", m.Handle)
		fmt.Fprintf(bw, "Unknown: (%04X,%04X)\n", m.Unknown1, m.Unknown2)
		fmt.Fprintf(bw, "Transform1: (%.4f,%.4f,%.4f)\n", m.Transform1[0], m.Transform1[1], m.Transform1[2])
		fmt.Fprintf(bw, "Transform2: (%.4f,%.4f,%.4f)\n", m.Transform2[0], m.Transform2[1], m.Transform2[2])

		subs := p.SubModelsOf(i)
		for n, si := range subs {
			sm := &p.SubModels[si]
			fmt.Fprintf(bw, "******** Sub model %d / %d *********\n", n+1, len(subs))
			fmt.Fprintf(bw, "Type: %d\n", sm.Type)
			fmt.Fprintf(bw, "Flags: %d\n", sm.Flags)
			fmt.Fprintf(bw, "Unknown: (%d,%d)\n", sm.Unknown1, sm.Unknown2)
			fmt.Fprintf(bw, "TexId: %d\n", sm.TextureID)
			fmt.Fprintf(bw, "TexSource: %04X\n", sm.TextureSource)
			if sm.HasVectorData() {
				fmt.Fprintf(bw, "V1: (%.4f,%.4f,%.4f)\n", sm.V1[0], sm.V1[1], sm.V1[2])
				fmt.Fprintf(bw, "V2: (%.4f,%.4f,%.4f)\n", sm.V2[0], sm.V2[1], sm.V2[2])
			}
			if sm.HasTransform() {
				for r, axis := range []string{"X", "Y", "Z"} {
					row := sm.Transform.Row(r)
					fmt.Fprintf(bw, "Transform %s: (%.4f,%.4f,%.4f,%.4f)\n", axis, row[0], row[1], row[2], row[3])
				}
			}
			if sm.ModelData == nil {
				fmt.Fprintf(bw, "Indices: %d @ %d, base %d\n", sm.IndexCount, sm.IndexOffset, sm.VertexBase)
			} else if opts.VIF {
				insts, err := vif.Decode(sm.ModelData, opts.VIFOptions...)
				if terr := vif.Trace(bw, insts); terr != nil {
					return terr
				}
				if err != nil {
					fmt.Fprintf(bw, "!! %v\n", err)
				}
			}
			fmt.Fprintln(bw)
		}
		fmt.Fprintln(bw)
	}
	return bw.Flush()
}

// WriteTextures prints the texture table of p.
func WriteTextures(w io.Writer, p *model.Package) error {
	bw := bufio.NewWriter(w)
	ps2 := p.MaterialPackage() == platform.MaterialPS2
	for _, t := range p.Textures {
		fmt.Fprintf(bw, "texture %016X {\n", t.UID)
		fmt.Fprintf(bw, "  type = %d;\n", t.Type)
		fmt.Fprintf(bw, "  flags = 0x%X;\n", t.Flags)
		fmt.Fprintf(bw, "  width = %d;\n", t.Width)
		fmt.Fprintf(bw, "  height = %d;\n", t.Height)
		if ps2 {
			fmt.Fprintf(bw, "  unknown1 = 0x%X;\n", t.Unknown1)
			fmt.Fprintf(bw, "  dataOffset = 0x%X;\n", t.DataOffset)
			fmt.Fprintf(bw, "  unknown2 = 0x%X;\n", t.Unknown2)
			fmt.Fprintf(bw, "  cluts[%d] = [\n", t.Modes)
			for _, c := range t.CLUTs {
				fmt.Fprintf(bw, "    0x%X,\n", c)
			}
			fmt.Fprintln(bw, "  ];")
		} else {
			fmt.Fprintf(bw, "  hash = 0x%08X;\n", t.Hash)
			fmt.Fprintf(bw, "  dataOffset = 0x%X;\n", t.DataOffset)
			fmt.Fprintf(bw, "  dataSize = 0x%X;\n", t.DataSize)
		}
		fmt.Fprintln(bw, "}")
	}
	return bw.Flush()
}
