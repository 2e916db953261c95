package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cheggaaa/pb"

	"github.com/samcharles93/dscript/internal/logger"
	"github.com/samcharles93/dscript/internal/report"
	"github.com/samcharles93/dscript/pkg/chunk"
	"github.com/samcharles93/dscript/pkg/model"
	"github.com/samcharles93/dscript/pkg/platform"
)

// failure records a package that did not decode.
type failure struct {
	Index int    `json:"index"`
	Path  string `json:"path"`
	Error string `json:"error"`
}

// newDecoder builds the decoder selected by --platform and --version.
func newDecoder(log logger.Logger) (model.Decoder, error) {
	p, err := platform.ParseType(platformName)
	if err != nil {
		return nil, err
	}
	if p == platform.Any {
		return nil, fmt.Errorf("--platform must name a single platform")
	}
	if packageVersion < 0 {
		return nil, fmt.Errorf("--version must not be negative")
	}
	return model.NewDecoder(p, int(packageVersion), model.WithLogger(log)), nil
}

// selectPackages decodes the packages chosen by --index/--all from f. Every
// decode failure is logged and returned next to the successes.
func selectPackages(log logger.Logger, f *chunk.File, d model.Decoder) []model.Result {
	if allPackages {
		results := model.Scan(f, d)
		for i, r := range results {
			if r.Err != nil {
				log.Error("package decode failed", "index", i, "path", r.Buffer.Path(), "error", r.Err)
			}
		}
		return results
	}

	bufs := f.FindAll(platform.ChunkID(d.Platform(), d.Version()))
	if packageIndex < 0 || packageIndex >= int64(len(bufs)) {
		log.Warn("package index out of range",
			"index", packageIndex,
			"packages", len(bufs),
			"context", chunk.FourCC(platform.ChunkID(d.Platform(), d.Version())),
		)
		return nil
	}
	b := bufs[packageIndex]
	p, err := d.Load(b)
	if err != nil {
		log.Error("package decode failed", "index", packageIndex, "path", b.Path(), "error", err)
	}
	return []model.Result{{Buffer: b, Package: p, Err: err}}
}

// resultIndex is the package index of the i-th selected result.
func resultIndex(i int) int {
	if allPackages {
		return i
	}
	return int(packageIndex)
}

// sink routes reports either to one shared output or, when --out names an
// existing directory, to one file per container.
type sink struct {
	dir    string
	shared *report.Output
}

func newSink() (*sink, error) {
	if outPath != "" {
		if st, err := os.Stat(outPath); err == nil && st.IsDir() {
			return &sink{dir: outPath}, nil
		}
	}
	out, err := report.Create(outPath, compressOutput)
	if err != nil {
		return nil, err
	}
	return &sink{shared: out}, nil
}

// writer returns the destination for input and a function releasing it.
func (s *sink) writer(input string) (io.Writer, func() error, error) {
	if s.shared != nil {
		return s.shared, func() error { return nil }, nil
	}
	out, err := report.Create(outputPath(s.dir, input, jsonOutput, compressOutput), compressOutput)
	if err != nil {
		return nil, nil, err
	}
	return out, out.Close, nil
}

func (s *sink) Close() error {
	if s.shared != nil {
		return s.shared.Close()
	}
	return nil
}

// eachContainer opens every input in turn and calls fn with it. A progress bar
// is shown on stderr when several containers are written to a file.
func eachContainer(log logger.Logger, files []string, fn func(path string, f *chunk.File) error) error {
	var bar *pb.ProgressBar
	if len(files) > 1 && outPath != "" {
		bar = pb.New(len(files))
		bar.Output = os.Stderr
		bar.SetRefreshRate(time.Second / 10)
		bar.Prefix("containers ")
		bar.Start()
		defer bar.Finish()
	}

	failed := 0
	for _, path := range files {
		f, err := chunk.Open(path)
		if err != nil {
			log.Error("open container failed", "path", path, "error", err)
			failed++
		} else {
			err = fn(path, f)
			_ = f.Close()
			if err != nil {
				return err
			}
		}
		if bar != nil {
			bar.Increment()
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d containers could not be opened", failed, len(files))
	}
	return nil
}
