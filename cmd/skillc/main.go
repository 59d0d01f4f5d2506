// Command skillc compiles YAML behavior graphs into a binary tree document.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/zeusync/skilltree/internal/core/graph"
	"github.com/zeusync/skilltree/internal/core/ir/codec"
	"github.com/zeusync/skilltree/internal/core/observability/log"
)

// ExitError carries the process exit code for a failed run.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }
func (e *ExitError) Unwrap() error { return e.Err }

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		code := 1
		var exit *ExitError
		if errors.As(err, &exit) {
			code = exit.Code
		}
		fmt.Fprintln(os.Stderr, "skillc:", err)
		os.Exit(code)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("skillc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, `
skillc - compile behavior graphs into a tree document.

Usage:
  skillc [options] PATH...

Arguments:
  PATH
    A .yaml/.yml graph file or a directory of them.

Options:
`)
		fs.PrintDefaults()
	}
	out := fs.String("out", ".", "Directory the document is written to.")
	name := fs.String("name", "trees", "Document name; the file is <out>/<name>.bytes.")
	workers := fs.Int("workers", 0, "Graphs compiled in parallel. 0 means one per graph.")
	verify := fs.Bool("verify", true, "Read the written document back and check it.")
	level := fs.String("log-level", "warn", "Log level: debug, info, warn or error.")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return &ExitError{Code: 2, Err: err}
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return &ExitError{Code: 2, Err: errors.New("no input paths")}
	}

	logger := log.New(log.Config{Level: log.ParseLevel(*level), Development: true, OutputPaths: []string{"stderr"}})
	defer func() { _ = logger.Sync() }()

	files, err := collect(fs.Args())
	if err != nil {
		return err
	}
	graphs := make([]*graph.Graph, 0, len(files))
	for _, f := range files {
		g, err := graph.LoadFile(f)
		if err != nil {
			return err
		}
		logger.Debug("graph loaded", log.String("file", f), log.String("graph", g.Name))
		graphs = append(graphs, g)
	}

	doc, err := graph.NewCompiler(graph.WithLogger(logger)).CompileAll(ctx, graphs, *workers)
	if err != nil {
		return err
	}
	target := codec.PathFor(*out, *name)
	if err := codec.WriteFile(target, doc); err != nil {
		return err
	}
	if *verify {
		back, err := codec.ReadFile(target)
		if err != nil {
			return fmt.Errorf("verify: %w", err)
		}
		if len(back.Trees) != len(doc.Trees) {
			return fmt.Errorf("verify: wrote %d trees, read %d", len(doc.Trees), len(back.Trees))
		}
	}
	logger.Info("document written", log.String("path", target), log.Int("trees", len(doc.Trees)))
	fmt.Fprintf(stdout, "compiled %d trees into %s\n", len(doc.Trees), target)
	return nil
}

// collect expands directories into their YAML files, sorted.
func collect(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			ext := strings.ToLower(filepath.Ext(e.Name()))
			if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
				files = append(files, filepath.Join(p, e.Name()))
			}
		}
	}
	slices.Sort(files)
	if len(files) == 0 {
		return nil, errors.New("no graph files found")
	}
	return files, nil
}
