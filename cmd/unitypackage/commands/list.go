// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/unitypackage/cmd/unitypackage/cli"
	"github.com/bureau-foundation/unitypackage/lib/unitypackage"
)

type listParams struct {
	settings
	cli.JSONOutput
	Check bool `flag:"check" desc:"exit 1 if entries disagree on GUIDs or collide on paths"`
}

func listCommand() *cli.Command {
	var params listParams

	return &cli.Command{
		Name:    "list",
		Summary: "List the entries of a .unitypackage",
		Description: `Print the GUID, size, and path of every entry in <file>, in archive
order. Entry data is hashed as it streams past and never extracted.

With --check, also report entries whose .meta declares a GUID other
than the container's, and paths that collide on a case-insensitive
filesystem. Problems are printed to stderr and the command exits 1.`,
		Usage: "unitypackage list <file> [flags]",
		Examples: []cli.Example{
			{
				Description: "List entries as a table",
				Command:     "unitypackage list shapes.unitypackage",
			},
			{
				Description: "Select paths with jq",
				Command:     "unitypackage list shapes.unitypackage --json | jq -r '.[].path'",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("list", &params)
		},
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("list requires exactly one container file")
			}

			cfg, err := params.load()
			if err != nil {
				return err
			}
			logger := params.logger(cfg, "list")

			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer file.Close()

			return listContainer(file, cfg.ReaderOptions(logger), &params, os.Stdout, os.Stderr)
		},
	}
}

// listContainer writes the entries of the container on source to
// stdout and, with --check, its problems to stderr.
func listContainer(source io.Reader, options unitypackage.ReaderOptions, params *listParams, stdout, stderr io.Writer) error {
	manifest, err := unitypackage.Inspect(source, options)
	if err != nil {
		return err
	}

	if done, err := params.EmitJSON(stdout, manifest.Entries); done {
		if err != nil {
			return err
		}
	} else {
		writer := tabwriter.NewWriter(stdout, 2, 0, 3, ' ', 0)
		fmt.Fprintln(writer, "GUID\tSIZE\tPATH")
		for _, entry := range manifest.Entries {
			fmt.Fprintf(writer, "%s\t%d\t%s\n", entry.GUID, entry.Size, entry.PathName)
		}
		if err := writer.Flush(); err != nil {
			return err
		}
	}

	if !params.Check {
		return nil
	}
	problems := checkManifest(manifest)
	for _, problem := range problems {
		fmt.Fprintln(stderr, problem)
	}
	if len(problems) > 0 {
		return &cli.ExitError{Code: 1}
	}
	return nil
}

// checkManifest returns one line per entry whose metadata declared a
// different GUID and per pair of paths equal under case folding.
func checkManifest(manifest *unitypackage.Manifest) []string {
	var problems []string
	seen := map[string]string{}
	for _, entry := range manifest.Entries {
		if entry.SourceGUID != "" {
			problems = append(problems, fmt.Sprintf("%s: .meta declares guid %s, container uses %s",
				entry.PathName, entry.SourceGUID, entry.GUID))
		}
		folded := strings.ToLower(entry.PathName)
		if previous, ok := seen[folded]; ok {
			problems = append(problems, fmt.Sprintf("%s: collides with %s", entry.PathName, previous))
			continue
		}
		seen[folded] = entry.PathName
	}
	return problems
}
