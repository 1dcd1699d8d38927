// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/osfs"

	"github.com/bureau-foundation/unitypackage/lib/testutil"
	"github.com/bureau-foundation/unitypackage/lib/unitypackage"
)

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

const (
	squareGUIDText  = "0a1b2c3d4e5f60718293a4b5c6d7e8f9"
	hexagonGUIDText = "f9e8d7c6b5a4938271605f4e3d2c1b0a"
)

func metaText(guid string) string {
	return "fileFormatVersion: 2\nguid: " + guid + "\nDefaultImporter:\n  userData: keep\n"
}

func shapesProject() map[string]string {
	return map[string]string{
		"Assets/Shapes/Square.png":       "square pixels",
		"Assets/Shapes/Square.png.meta":  metaText(squareGUIDText),
		"Assets/Shapes/Hexagon.png":      "hexagon pixels",
		"Assets/Shapes/Hexagon.png.meta": metaText(hexagonGUIDText),
	}
}

// packShapes writes the shapes project to a temporary directory and
// packs it, returning the container path.
func packShapes(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	project := filepath.Join(root, "project")
	testutil.WriteTree(t, osfs.New(project), ".", shapesProject())

	output := filepath.Join(root, "shapes.unitypackage")
	options := unitypackage.PackOptions{Writer: unitypackage.WriterOptions{ModTime: fixedTime}}
	if _, err := packDirectory(project, output, options); err != nil {
		t.Fatalf("packDirectory: %v", err)
	}
	return output
}
