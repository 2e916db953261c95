package report

import (
	"io"
	"os"

	"github.com/DataDog/zstd"
	"github.com/goccy/go-json"
)

// CompressionLevel is the zstd level used for compressed reports.
const CompressionLevel = zstd.DefaultCompression

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Output is a report destination. Close flushes any compressed frame and closes
// the underlying file.
type Output struct {
	io.Writer
	closers []io.Closer
}

// Create opens path for a report, or stdout when path is empty or "-". With
// compress set the report is written as a zstd stream.
func Create(path string, compress bool) (*Output, error) {
	out := &Output{}
	var w io.Writer = os.Stdout
	if path != "" && path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		w = f
		out.closers = append(out.closers, f)
	}
	if compress {
		zw := zstd.NewWriterLevel(w, CompressionLevel)
		w = zw
		// compressed frame first, then the file
		out.closers = append([]io.Closer{zw}, out.closers...)
	}
	out.Writer = w
	return out, nil
}

func (o *Output) Close() error {
	var first error
	for _, c := range o.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	o.closers = nil
	return first
}
