// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/unitypackage/cmd/unitypackage/cli"
	"github.com/bureau-foundation/unitypackage/lib/unity"
	"github.com/bureau-foundation/unitypackage/lib/unitypackage"
)

func scaffoldCommand() *cli.Command {
	return &cli.Command{
		Name:    "scaffold",
		Summary: "Generate packages holding new assets",
		Subcommands: []*cli.Command{
			scriptableObjectCommand(),
		},
	}
}

type scriptableObjectParams struct {
	settings
	Output      string                   `flag:"output,o" desc:"container file to write (required)"`
	ScriptGUID  string                   `flag:"script-guid" desc:"GUID of the MonoScript the object instantiates (required)"`
	Set         []string                 `flag:"set" desc:"serialized field values as name=value, repeatable"`
	Compression unitypackage.Compression `flag:"compression,c" desc:"auto, gzip, zstd, lz4, or none (overrides pack.compression)"`
}

func scriptableObjectCommand() *cli.Command {
	var params scriptableObjectParams

	return &cli.Command{
		Name:    "scriptable-object",
		Summary: "Package a new ScriptableObject asset",
		Description: `Write a package with a single ScriptableObject .asset at <path>.

The asset instantiates the MonoScript whose GUID is --script-guid (the
guid in the script's .cs.meta). Its m_Name is the file name without the
extension, and it gets a fresh GUID, printed on stdout. --set assigns
scalar serialized fields.`,
		Usage: "unitypackage scaffold scriptable-object <path> --script-guid <hex> -o <file> [flags]",
		Examples: []cli.Example{
			{
				Description: "Create a configuration asset",
				Command:     "unitypackage scaffold scriptable-object Assets/Config/Game.asset --script-guid 0a1b2c3d4e5f60718293a4b5c6d7e8f9 -o game.unitypackage",
			},
			{
				Description: "Set serialized fields",
				Command:     "unitypackage scaffold scriptable-object Assets/Fruits/Apple.asset --script-guid 0a1b2c3d4e5f60718293a4b5c6d7e8f9 --set calories=52 --set color=red -o apple.unitypackage",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("scriptable-object", &params)
		},
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("scriptable-object requires exactly one asset path")
			}
			if params.Output == "" {
				return fmt.Errorf("--output is required")
			}
			if params.ScriptGUID == "" {
				return fmt.Errorf("--script-guid is required")
			}
			script, err := unity.ParseGUID(params.ScriptGUID)
			if err != nil {
				return fmt.Errorf("--script-guid: %w", err)
			}
			fields, err := parseAssignments(params.Set)
			if err != nil {
				return err
			}

			cfg, err := params.load()
			if err != nil {
				return err
			}
			compression := params.Compression
			if !cli.FlagChanged(ctx, "compression") {
				if compression, err = cfg.Compression(); err != nil {
					return err
				}
			}
			logger := params.logger(cfg, "scaffold scriptable-object")

			file, err := os.OpenFile(params.Output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
			if err != nil {
				return err
			}
			guid, err := writeScriptableObject(file, args[0], script, fields, unitypackage.WriterOptions{
				Compression: compression,
				Level:       cfg.Pack.Level,
				ModTime:     recordTime(),
				Logger:      logger,
			})
			if err != nil {
				file.Close()
				return errors.Join(err, os.Remove(params.Output))
			}
			fmt.Fprintln(os.Stdout, guid)
			logger.Info("wrote scriptable object", "path", params.Output, "asset", args[0], "guid", guid.String())
			return nil
		},
	}
}

// assignment is one --set name=value pair.
type assignment struct {
	name  string
	value string
}

func parseAssignments(values []string) ([]assignment, error) {
	var assignments []assignment
	for _, value := range values {
		name, fieldValue, ok := strings.Cut(value, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("--set %q: expected name=value", value)
		}
		if name == "m_Script" || name == "m_Name" {
			return nil, fmt.Errorf("--set %q: %s is managed by the scaffold", value, name)
		}
		assignments = append(assignments, assignment{name: name, value: fieldValue})
	}
	return assignments, nil
}

// writeScriptableObject writes a container holding one new
// ScriptableObject at pathName to destination and returns the asset's
// GUID. The writer closes destination.
func writeScriptableObject(destination io.Writer, pathName string, script unity.GUID, fields []assignment, options unitypackage.WriterOptions) (unity.GUID, error) {
	object := unity.NewScriptableObject(pathName, script)
	for _, field := range fields {
		object.Behaviour.SetScalar(field.name, field.value)
	}

	entry, err := unitypackage.Combine(object.Asset, object.Metadata)
	if err != nil {
		return unity.GUID{}, err
	}

	writer, err := unitypackage.NewWriter(destination, options)
	if err != nil {
		return unity.GUID{}, err
	}
	if err := writer.WriteEntry(entry); err != nil {
		writer.Close()
		return unity.GUID{}, err
	}
	if err := writer.Close(); err != nil {
		return unity.GUID{}, err
	}
	return entry.GUID(), nil
}
