// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/unitypackage/cmd/unitypackage/cli"
	"github.com/bureau-foundation/unitypackage/lib/config"
	"github.com/bureau-foundation/unitypackage/lib/unitypackage"
)

type packParams struct {
	settings
	Output         string                   `flag:"output,o" desc:"container file to write (required)"`
	Compression    unitypackage.Compression `flag:"compression,c" desc:"auto, gzip, zstd, lz4, or none (overrides pack.compression)"`
	Level          int                      `flag:"level" desc:"compression level, 0 for the codec default (overrides pack.level)"`
	IncludeFolders bool                     `flag:"include-folders" desc:"write folder entries for directories with a .meta file"`
}

// packOptions merges explicit flags over the pack section of cfg.
func (p *packParams) packOptions(ctx context.Context, cfg *config.Config) (unitypackage.PackOptions, error) {
	compression := p.Compression
	if !cli.FlagChanged(ctx, "compression") {
		configured, err := cfg.Compression()
		if err != nil {
			return unitypackage.PackOptions{}, err
		}
		compression = configured
	}
	level := p.Level
	if !cli.FlagChanged(ctx, "level") {
		level = cfg.Pack.Level
	}
	includeFolders := p.IncludeFolders
	if !cli.FlagChanged(ctx, "include-folders") {
		includeFolders = cfg.Pack.IncludeFolders
	}

	return unitypackage.PackOptions{
		Writer: unitypackage.WriterOptions{
			Compression: compression,
			Level:       level,
			ModTime:     recordTime(),
		},
		IncludeFolders: includeFolders,
	}, nil
}

func packCommand() *cli.Command {
	var params packParams

	return &cli.Command{
		Name:    "pack",
		Summary: "Pack a directory into a .unitypackage",
		Description: `Write every file under <dir> as a package entry.

Each file must have a "<name>.meta" sibling; the entry's GUID comes from
that metadata and its path is the file's path relative to <dir>. Pack
from the project root so paths start with "Assets/". Files are visited
in lexical order, and with SOURCE_DATE_EPOCH set the output is
byte-for-byte reproducible.`,
		Usage: "unitypackage pack <dir> -o <file> [flags]",
		Examples: []cli.Example{
			{
				Description: "Pack a project with the configured compression",
				Command:     "unitypackage pack MyProject -o shapes.unitypackage",
			},
			{
				Description: "Pack with zstd and keep folder GUIDs",
				Command:     "unitypackage pack MyProject -o shapes.unitypackage -c zstd --include-folders",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("pack", &params)
		},
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("pack requires exactly one directory argument")
			}
			if params.Output == "" {
				return fmt.Errorf("--output is required")
			}

			cfg, err := params.load()
			if err != nil {
				return err
			}
			options, err := params.packOptions(ctx, cfg)
			if err != nil {
				return err
			}
			logger := params.logger(cfg, "pack")
			options.Writer.Logger = logger

			result, err := packDirectory(args[0], params.Output, options)
			if err != nil {
				return err
			}
			logger.Info("packed container",
				"path", params.Output,
				"entries", result.Entries,
				"folders", result.Folders,
				"compression", options.Writer.Compression.String(),
			)
			return nil
		},
	}
}

// packDirectory writes the tree at source to a new container file at
// output. A partially written file is removed on failure.
func packDirectory(source, output string, options unitypackage.PackOptions) (unitypackage.PackResult, error) {
	info, err := os.Stat(source)
	if err != nil {
		return unitypackage.PackResult{}, err
	}
	if !info.IsDir() {
		return unitypackage.PackResult{}, fmt.Errorf("%s is not a directory", source)
	}
	if inside, err := isWithin(source, output); err != nil {
		return unitypackage.PackResult{}, err
	} else if inside {
		return unitypackage.PackResult{}, fmt.Errorf("output %s is inside the directory being packed", output)
	}

	file, err := os.OpenFile(output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return unitypackage.PackResult{}, err
	}

	result, err := unitypackage.CreateFromDirectory(osfs.New(source), ".", file, options)
	if err != nil {
		file.Close()
		return result, errors.Join(err, os.Remove(output))
	}
	return result, nil
}

// isWithin reports whether target lies under directory.
func isWithin(directory, target string) (bool, error) {
	absoluteDirectory, err := filepath.Abs(directory)
	if err != nil {
		return false, err
	}
	absoluteTarget, err := filepath.Abs(target)
	if err != nil {
		return false, err
	}
	relative, err := filepath.Rel(absoluteDirectory, absoluteTarget)
	if err != nil {
		return false, nil
	}
	return relative != ".." && !strings.HasPrefix(relative, ".."+string(filepath.Separator)), nil
}
