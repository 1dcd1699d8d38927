// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the unitypackage CLI command tree.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/bureau-foundation/unitypackage/cmd/unitypackage/cli"
	"github.com/bureau-foundation/unitypackage/lib/version"
)

// Root builds and returns the complete CLI command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "unitypackage",
		Description: `unitypackage: create, inspect, and extract Unity packages.

A .unitypackage file is a compressed tar archive holding one record
group per asset: the asset bytes, its .meta document, and its project
path, all keyed by the asset's GUID.`,
		Subcommands: []*cli.Command{
			packCommand(),
			extractCommand(),
			listCommand(),
			manifestCommand(),
			scaffoldCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(_ context.Context, args []string, _ *slog.Logger) error {
					if len(args) > 0 {
						return fmt.Errorf("version takes no arguments, got %q", args[0])
					}
					fmt.Fprintf(os.Stdout, "unitypackage %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Pack a project directory (every file needs a .meta sibling)",
				Command:     "unitypackage pack MyProject -o shapes.unitypackage",
			},
			{
				Description: "List what a package contains",
				Command:     "unitypackage list shapes.unitypackage",
			},
			{
				Description: "Extract into another project",
				Command:     "unitypackage extract shapes.unitypackage OtherProject",
			},
			{
				Description: "Write a content manifest for comparison",
				Command:     "unitypackage manifest shapes.unitypackage -o shapes.cbor",
			},
		},
	}
}
