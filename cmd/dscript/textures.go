package main

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/dscript/internal/logger"
	"github.com/samcharles93/dscript/internal/report"
	"github.com/samcharles93/dscript/pkg/chunk"
	"github.com/samcharles93/dscript/pkg/model"
)

type textureReport struct {
	File     string            `json:"file"`
	Packages []packageTextures `json:"packages"`
	Failures []failure         `json:"failures,omitempty"`
}

type packageTextures struct {
	Index    int              `json:"index"`
	Path     string           `json:"path"`
	Skipped  bool             `json:"materials_skipped,omitempty"`
	Textures []report.Texture `json:"textures"`
}

func texturesCmd() *cli.Command {
	return &cli.Command{
		Name:      "textures",
		Usage:     "Dump the texture tables of model packages",
		ArgsUsage: "[container...]",
		Flags:     append(packageFlags(), outputFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyPackageConfig(cmd, cfg)

			files, err := resolveInputs(inputFiles, cmd.Args().Slice())
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			d, err := newDecoder(log)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			out, err := newSink()
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			defer func() { _ = out.Close() }()

			return eachContainer(log, files, func(path string, f *chunk.File) error {
				w, done, err := out.writer(path)
				if err != nil {
					return err
				}
				err = writeTextures(w, path, selectPackages(log, f, d))
				if cerr := done(); err == nil {
					err = cerr
				}
				return err
			})
		},
	}
}

func writeTextures(w io.Writer, path string, results []model.Result) error {
	if jsonOutput {
		rep := textureReport{File: path, Packages: []packageTextures{}}
		for i, r := range results {
			if r.Err != nil {
				rep.Failures = append(rep.Failures, failure{Index: resultIndex(i), Path: r.Buffer.Path(), Error: r.Err.Error()})
				continue
			}
			s := report.Summarize(r.Package, report.Options{})
			rep.Packages = append(rep.Packages, packageTextures{
				Index:    resultIndex(i),
				Path:     r.Buffer.Path(),
				Skipped:  s.MaterialsSkipped,
				Textures: s.Textures,
			})
		}
		return report.WriteJSON(w, rep)
	}

	for i, r := range results {
		if _, err := fmt.Fprintf(w, "==== %s [%d] %s ====\n", path, resultIndex(i), r.Buffer.Path()); err != nil {
			return err
		}
		if r.Err != nil {
			if _, err := fmt.Fprintf(w, "!! %v\n\n", r.Err); err != nil {
				return err
			}
			continue
		}
		if r.Package.MaterialsSkipped {
			if _, err := fmt.Fprintln(w, "(material tables not decoded for this platform)"); err != nil {
				return err
			}
			continue
		}
		if err := report.WriteTextures(w, r.Package); err != nil {
			return err
		}
	}
	return nil
}
