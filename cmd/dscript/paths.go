package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samcharles93/dscript/pkg/chunk"
)

const envDscriptPath = "DSCRIPT_PATH"

// resolveInputs expands the --file values and positional args into container
// paths. Directories contribute every regular file that probes as a container,
// sorted by name. With no inputs, $DSCRIPT_PATH is used.
func resolveInputs(files, args []string) ([]string, error) {
	inputs := make([]string, 0, len(files)+len(args))
	for _, v := range append(append([]string{}, files...), args...) {
		if v = strings.TrimSpace(v); v != "" {
			inputs = append(inputs, v)
		}
	}
	if len(inputs) == 0 {
		if env := strings.TrimSpace(os.Getenv(envDscriptPath)); env != "" {
			inputs = append(inputs, env)
		}
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("--file is required unless %s is set", envDscriptPath)
	}

	var out []string
	for _, in := range inputs {
		st, err := os.Stat(in)
		if err != nil {
			return nil, err
		}
		if !st.IsDir() {
			out = append(out, filepath.Clean(in))
			continue
		}
		found, err := discoverContainers(in)
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			return nil, fmt.Errorf("no containers found in %s", in)
		}
		out = append(out, found...)
	}
	return out, nil
}

func discoverContainers(dir string) ([]string, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("container directory is empty")
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var found []string
	for _, e := range ents {
		if !e.Type().IsRegular() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		ok, err := probeFile(path)
		if err != nil {
			return nil, err
		}
		if ok {
			found = append(found, path)
		}
	}
	sort.Strings(found)
	return found, nil
}

func probeFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer func() { _ = f.Close() }()

	head := make([]byte, 4)
	if _, err := io.ReadFull(f, head); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return false, nil
		}
		return false, err
	}
	return chunk.Probe(head), nil
}

// outputPath derives the report path for input when several containers are
// written to the directory named by out.
func outputPath(out, input string, json, compress bool) string {
	ext := ".txt"
	if json {
		ext = ".json"
	}
	if compress {
		ext += ".zst"
	}
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(out, base+ext)
}
