package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/dscript/internal/logger"
	"github.com/samcharles93/dscript/internal/report"
	"github.com/samcharles93/dscript/pkg/chunk"
)

type treeReport struct {
	File    string              `json:"file"`
	Version uint32              `json:"version"`
	Buffers int                 `json:"buffers"`
	Tree    []report.BufferInfo `json:"tree"`
}

func chunksCmd() *cli.Command {
	return &cli.Command{
		Name:      "chunks",
		Aliases:   []string{"tree"},
		Usage:     "List the buffer tree of chunk containers",
		ArgsUsage: "[container...]",
		Flags:     append(inputFlags(), outputFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)

			files, err := resolveInputs(inputFiles, cmd.Args().Slice())
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
				if jsonOutput {
					err = report.WriteJSON(w, treeReport{
						File:    path,
						Version: f.Header.Version,
						Buffers: f.Count(),
						Tree:    report.Tree(f),
					})
				} else {
					if _, err = fmt.Fprintf(w, "%s\n", path); err == nil {
						err = report.WriteTree(w, f)
					}
				}
				if cerr := done(); err == nil {
					err = cerr
				}
				return err
			})
		},
	}
}
