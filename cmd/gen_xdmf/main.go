// Copyright (c) 2025 SciGo HDF5 Library Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.

// Command gen_xdmf writes an XDMF 3.0 sidecar describing the datasets of an
// EPPIC HDF5 output file, so that ParaView or VisIt can open it.
//
// Usage:
//
//	gen_xdmf <hdf5_path> [--output <xdmf_path>] [--grid shape|dataset] [--absolute] [--inspect] [--verbose]
//
// Exit status: 0 success, 1 input missing or unreadable, 2 input is not
// HDF5, 3 output not writable, 4 internal or usage error.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/scigolib/eppic-xdmf/internal/h5meta"
	"github.com/scigolib/eppic-xdmf/internal/utils"
	"github.com/scigolib/eppic-xdmf/internal/xdmf"
)

const progName = "gen_xdmf"

// Exit codes.
const (
	exitOK       = 0
	exitInput    = 1
	exitFormat   = 2
	exitWrite    = 3
	exitInternal = 4
)

type options struct {
	output   string
	grid     string
	absolute bool
	inspect  bool
	verbose  bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command with args and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCommand(stdout, stderr)
	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", progName, err)
		return exitCode(err)
	}
	return exitOK
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   progName + " <hdf5_path>",
		Short: "Generate an XDMF sidecar for an EPPIC HDF5 file",
		Long: `gen_xdmf reads dataset metadata (paths, shapes, element types and
attributes) from an HDF5 file and writes an XDMF 3.0 document that references
those datasets, so visualization tools can load the file directly.

No array data is read or copied.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, args []string) error {
			return generate(args[0], opts, stdout, newLogger(stderr, opts.verbose))
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.Flags()
	flags.StringVarP(&opts.output, "output", "o", "", "destination XDMF path (default: input path with a .xdmf extension)")
	flags.StringVar(&opts.grid, "grid", xdmf.GridByShape.String(), "grid granularity: shape (one grid per distinct shape) or dataset")
	flags.BoolVar(&opts.absolute, "absolute", false, "reference the HDF5 file by absolute path")
	flags.BoolVar(&opts.inspect, "inspect", false, "print the extracted metadata as YAML instead of writing XDMF")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	return cmd
}

// newLogger returns a text logger on w without timestamps.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}

func generate(input string, opts *options, stdout io.Writer, log *slog.Logger) error {
	mode, err := xdmf.ParseGridMode(opts.grid)
	if err != nil {
		return err
	}

	meta, err := h5meta.Extract(input, h5meta.WithLogger(log))
	if err != nil {
		return err
	}
	if meta.Empty() {
		log.Warn(utils.EmptyInput.String()+": no datasets found", slog.String("path", input))
	}

	if opts.inspect {
		return inspect(meta, stdout)
	}

	output := opts.output
	if output == "" {
		output = defaultOutput(input)
	}
	if err := checkOutput(input, output); err != nil {
		return err
	}

	doc, err := xdmf.Build(meta, xdmf.Options{
		OutputPath: output,
		Absolute:   opts.absolute,
		Grid:       mode,
		Logger:     log,
	})
	if err != nil {
		return err
	}

	data, err := xdmf.Encode(doc)
	if err != nil {
		return err
	}
	if err := xdmf.WriteFile(output, data); err != nil {
		return err
	}

	log.Info("wrote XDMF",
		slog.String("path", output),
		slog.Int("grids", len(doc.Domain.Grids)),
		slog.Int("references", doc.References()),
	)
	return nil
}

func inspect(meta *h5meta.FileMetadata, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(meta); err != nil {
		return utils.NewError(utils.InternalError, meta.Source, utils.WrapError("YAML encoding failed", err))
	}
	return enc.Close()
}

// defaultOutput replaces the extension of input with ".xdmf".
func defaultOutput(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + ".xdmf"
}

// checkOutput rejects an output path that names the input file.
func checkOutput(input, output string) error {
	inAbs, err := filepath.Abs(input)
	if err != nil {
		return utils.NewError(utils.InternalError, input, err)
	}
	outAbs, err := filepath.Abs(output)
	if err != nil {
		return utils.NewError(utils.WriteError, output, err)
	}
	same := inAbs == outAbs
	if !same {
		inInfo, inErr := os.Stat(inAbs)
		outInfo, outErr := os.Stat(outAbs)
		same = inErr == nil && outErr == nil && os.SameFile(inInfo, outInfo)
	}
	if same {
		return utils.NewError(utils.WriteError, output, errors.New("output would overwrite the input file"))
	}
	return nil
}

func exitCode(err error) int {
	switch utils.KindOf(err) {
	case utils.FileNotFound, utils.NotReadable:
		return exitInput
	case utils.InvalidFormat:
		return exitFormat
	case utils.WriteError:
		return exitWrite
	default:
		return exitInternal
	}
}
