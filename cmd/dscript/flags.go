package main

import "github.com/urfave/cli/v3"

var (
	configFile string
	logLevel   string
	logFormat  string
	debug      bool

	inputFiles     []string
	platformName   string
	packageVersion int64
	packageIndex   int64
	allPackages    bool
	jsonOutput     bool
	outPath        string
	compressOutput bool
)

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to config.yaml (defaults to the user config dir)",
			Destination: &configFile,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

func inputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "file",
			Aliases:     []string{"f"},
			Usage:       "container file or directory of containers (repeatable; positional args also accepted)",
			Destination: &inputFiles,
		},
	}
}

func packageFlags() []cli.Flag {
	return append(inputFlags(),
		&cli.StringFlag{
			Name:        "platform",
			Aliases:     []string{"p"},
			Usage:       "package platform (pc, ps2, xbox, wii)",
			Value:       "ps2",
			Destination: &platformName,
		},
		&cli.Int64Flag{
			Name:        "version",
			Usage:       "package version (selects the PC layout: 1 or 6)",
			Value:       0,
			Destination: &packageVersion,
		},
		&cli.Int64Flag{
			Name:        "index",
			Aliases:     []string{"i"},
			Usage:       "package index within each container",
			Value:       0,
			Destination: &packageIndex,
		},
		&cli.BoolFlag{
			Name:        "all",
			Aliases:     []string{"a"},
			Usage:       "process every package in each container",
			Destination: &allPackages,
		},
	)
}

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "write a JSON report instead of text",
			Destination: &jsonOutput,
		},
		&cli.StringFlag{
			Name:        "out",
			Aliases:     []string{"o"},
			Usage:       "output file (default stdout)",
			Destination: &outPath,
		},
		&cli.BoolFlag{
			Name:        "compress",
			Aliases:     []string{"z"},
			Usage:       "zstd-compress the output",
			Destination: &compressOutput,
		},
	}
}
