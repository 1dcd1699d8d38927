// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/unitypackage/cmd/unitypackage/cli"
	"github.com/bureau-foundation/unitypackage/lib/codec"
	"github.com/bureau-foundation/unitypackage/lib/unitypackage"
)

type manifestParams struct {
	settings
	Output   string `flag:"output,o" desc:"file to write the CBOR manifest to"`
	Diagnose bool   `flag:"diag" desc:"print CBOR diagnostic notation to stdout instead of writing a file"`
}

func manifestCommand() *cli.Command {
	var params manifestParams

	return &cli.Command{
		Name:    "manifest",
		Summary: "Write a content manifest of a .unitypackage",
		Description: `Hash every entry of <file> and write the result as deterministic CBOR.

Each manifest entry records the GUID, path, size, a BLAKE3 digest of the
asset bytes, and a digest of the metadata document. Compression and
record timestamps do not affect the entries, so two packages with the
same content have the same entries regardless of how they were built.`,
		Usage: "unitypackage manifest <file> -o <out.cbor> [flags]",
		Examples: []cli.Example{
			{
				Description: "Write a manifest file",
				Command:     "unitypackage manifest shapes.unitypackage -o shapes.cbor",
			},
			{
				Description: "Inspect the manifest structure",
				Command:     "unitypackage manifest shapes.unitypackage --diag",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("manifest", &params)
		},
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("manifest requires exactly one container file")
			}
			if params.Output == "" && !params.Diagnose {
				return fmt.Errorf("--output is required unless --diag is set")
			}

			cfg, err := params.load()
			if err != nil {
				return err
			}
			logger := params.logger(cfg, "manifest")

			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			data, entries, err := buildManifest(file, cfg.ReaderOptions(logger))
			if err != nil {
				return err
			}
			if params.Diagnose {
				return writeDiagnostic(os.Stdout, data)
			}
			if err := os.WriteFile(params.Output, data, 0o644); err != nil {
				return err
			}
			logger.Info("wrote manifest", "path", params.Output, "entries", entries)
			return nil
		},
	}
}

// buildManifest inspects the container on source and returns its
// encoded manifest and entry count.
func buildManifest(source io.Reader, options unitypackage.ReaderOptions) ([]byte, int, error) {
	manifest, err := unitypackage.Inspect(source, options)
	if err != nil {
		return nil, 0, err
	}
	data, err := manifest.EncodeCBOR()
	if err != nil {
		return nil, 0, fmt.Errorf("encoding manifest: %w", err)
	}
	return data, len(manifest.Entries), nil
}

func writeDiagnostic(w io.Writer, data []byte) error {
	notation, err := codec.Diagnose(data)
	if err != nil {
		return fmt.Errorf("diagnose manifest: %w", err)
	}
	_, err = fmt.Fprintln(w, notation)
	return err
}
