package model

import (
	"github.com/samcharles93/dscript/pkg/chunk"
	"github.com/samcharles93/dscript/pkg/platform"
)

// Result is the outcome of decoding one package buffer.
type Result struct {
	Buffer  *chunk.Buffer
	Package *Package
	Err     error
}

// Scan decodes every buffer in f stored under the context d expects. A failure
// is recorded on its own Result and does not stop the remaining packages.
func Scan(f *chunk.File, d Decoder) []Result {
	bufs := f.FindAll(platform.ChunkID(d.Platform(), d.Version()))
	out := make([]Result, 0, len(bufs))
	for _, b := range bufs {
		p, err := d.Load(b)
		out = append(out, Result{Buffer: b, Package: p, Err: err})
	}
	return out
}
