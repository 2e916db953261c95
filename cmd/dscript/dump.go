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
	"github.com/samcharles93/dscript/pkg/vif"
)

type dumpReport struct {
	File     string           `json:"file"`
	Platform string           `json:"platform"`
	Version  int              `json:"version"`
	Packages []report.Package `json:"packages"`
	Failures []failure        `json:"failures,omitempty"`
}

func dumpCmd() *cli.Command {
	var showVIF bool

	return &cli.Command{
		Name:      "dump",
		Usage:     "Dump model packages and their PS2 VIF programs",
		ArgsUsage: "[container...]",
		Flags: append(append(packageFlags(), outputFlags()...),
			&cli.BoolFlag{
				Name:        "vif",
				Usage:       "disassemble PS2 sub model VIF data",
				Destination: &showVIF,
			},
		),
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

			opts := report.Options{
				VIF:        showVIF,
				VIFOptions: []vif.Option{vif.WithLogger(log)},
			}
			return eachContainer(log, files, func(path string, f *chunk.File) error {
				w, done, err := out.writer(path)
				if err != nil {
					return err
				}
				err = writeDump(w, path, selectPackages(log, f, d), d, opts)
				if cerr := done(); err == nil {
					err = cerr
				}
				return err
			})
		},
	}
}

func writeDump(w io.Writer, path string, results []model.Result, d model.Decoder, opts report.Options) error {
	if jsonOutput {
		rep := dumpReport{
			File:     path,
			Platform: d.Platform().String(),
			Version:  d.Version(),
			Packages: []report.Package{},
		}
		for i, r := range results {
			if r.Err != nil {
				rep.Failures = append(rep.Failures, failure{Index: resultIndex(i), Path: r.Buffer.Path(), Error: r.Err.Error()})
				continue
			}
			s := report.Summarize(r.Package, opts)
			s.Path = r.Buffer.Path()
			rep.Packages = append(rep.Packages, s)
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
		if err := report.WriteModelInfo(w, r.Package, opts); err != nil {
			return err
		}
	}
	return nil
}
