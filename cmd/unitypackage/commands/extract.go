// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/unitypackage/cmd/unitypackage/cli"
	"github.com/bureau-foundation/unitypackage/lib/config"
	"github.com/bureau-foundation/unitypackage/lib/unitypackage"
)

type extractParams struct {
	settings
	Overwrite   bool                     `flag:"overwrite" desc:"replace existing files (overrides extract.overwrite)"`
	Compression unitypackage.Compression `flag:"compression,c" desc:"force the container framing instead of detecting it"`
}

// extractOptions merges explicit flags over the extract and limits
// sections of cfg.
func (p *extractParams) extractOptions(ctx context.Context, cfg *config.Config, logger *slog.Logger) unitypackage.ExtractOptions {
	options := unitypackage.ExtractOptions{
		Reader:    cfg.ReaderOptions(logger),
		Overwrite: cfg.Extract.Overwrite,
	}
	options.Reader.Compression = p.Compression
	if cli.FlagChanged(ctx, "overwrite") {
		options.Overwrite = p.Overwrite
	}
	return options
}

func extractCommand() *cli.Command {
	var params extractParams

	return &cli.Command{
		Name:    "extract",
		Summary: "Extract a .unitypackage into a directory",
		Description: `Write every entry of <file> to "<dir>/<path>" and its metadata to
"<dir>/<path>.meta".

<dir> defaults to extract.destination from the configuration, which
defaults to the current directory. Entry paths that are absolute or
leave <dir> are rejected before anything is written for them. Existing
files are never replaced unless --overwrite is given.`,
		Usage: "unitypackage extract <file> [dir] [flags]",
		Examples: []cli.Example{
			{
				Description: "Extract into a project",
				Command:     "unitypackage extract shapes.unitypackage MyProject",
			},
			{
				Description: "Re-import over an earlier extraction",
				Command:     "unitypackage extract shapes.unitypackage MyProject --overwrite",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("extract", &params)
		},
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) < 1 || len(args) > 2 {
				return fmt.Errorf("extract requires a container file and an optional directory")
			}

			cfg, err := params.load()
			if err != nil {
				return err
			}
			destination := cfg.Extract.Destination
			if len(args) == 2 {
				destination = args[1]
			}
			logger := params.logger(cfg, "extract")

			count, err := extractFile(args[0], destination, params.extractOptions(ctx, cfg, logger))
			if err != nil {
				return err
			}
			logger.Info("extracted container",
				"path", args[0],
				"destination", destination,
				"entries", count,
			)
			return nil
		},
	}
}

// extractFile extracts the container at source into destination.
func extractFile(source, destination string, options unitypackage.ExtractOptions) (int, error) {
	file, err := os.Open(source)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	if err := os.MkdirAll(destination, 0o755); err != nil {
		return 0, err
	}
	count, err := unitypackage.ExtractToDirectory(file, osfs.New(destination), ".", options)
	if err != nil {
		return count, fmt.Errorf("extracting %s after %d entries: %w", source, count, err)
	}
	return count, nil
}
