// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/bureau-foundation/unitypackage/cmd/unitypackage/cli"
	"github.com/bureau-foundation/unitypackage/lib/unitypackage"
)

func openContainer(t *testing.T, path string) *os.File {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { file.Close() })
	return file
}

func TestListContainer_Table(t *testing.T) {
	var stdout, stderr bytes.Buffer
	params := listParams{}
	if err := listContainer(openContainer(t, packShapes(t)), unitypackage.ReaderOptions{}, &params, &stdout, &stderr); err != nil {
		t.Fatalf("listContainer: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("output has %d lines, want header and 2 entries:\n%s", len(lines), stdout.String())
	}
	if fields := strings.Fields(lines[0]); len(fields) != 3 || fields[0] != "GUID" {
		t.Errorf("header = %q", lines[0])
	}
	want := []string{hexagonGUIDText, "14", "Assets/Shapes/Hexagon.png"}
	if fields := strings.Fields(lines[1]); strings.Join(fields, " ") != strings.Join(want, " ") {
		t.Errorf("first row = %q, want fields %v", lines[1], want)
	}
	if stderr.Len() != 0 {
		t.Errorf("stderr = %q, want nothing without --check", stderr.String())
	}
}

func TestListContainer_JSON(t *testing.T) {
	var stdout bytes.Buffer
	params := listParams{JSONOutput: cli.JSONOutput{OutputJSON: true}}
	if err := listContainer(openContainer(t, packShapes(t)), unitypackage.ReaderOptions{}, &params, &stdout, &bytes.Buffer{}); err != nil {
		t.Fatalf("listContainer: %v", err)
	}

	var entries []map[string]any
	if err := json.Unmarshal(stdout.Bytes(), &entries); err != nil {
		t.Fatalf("output is not a JSON array: %v\n%s", err, stdout.String())
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[1]["guid"] != squareGUIDText || entries[1]["path"] != "Assets/Shapes/Square.png" {
		t.Errorf("second entry = %v", entries[1])
	}
	if digest, _ := entries[1]["digest"].(string); len(digest) != 64 {
		t.Errorf("digest = %v, want 64 hex characters", entries[1]["digest"])
	}
}

func TestListContainer_Check(t *testing.T) {
	var stdout, stderr bytes.Buffer
	params := listParams{Check: true}
	if err := listContainer(openContainer(t, packShapes(t)), unitypackage.ReaderOptions{}, &params, &stdout, &stderr); err != nil {
		t.Fatalf("listContainer on a clean container: %v", err)
	}

	var container bytes.Buffer
	writer, err := unitypackage.NewWriter(&container, unitypackage.WriterOptions{ModTime: fixedTime})
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	for _, pathName := range []string{"Assets/Readme.txt", "Assets/README.txt"} {
		entry := unitypackage.NewEmptyEntry(pathName)
		entry.SetData(strings.NewReader(pathName))
		if err := writer.WriteEntry(entry); err != nil {
			t.Fatalf("WriteEntry: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	stdout.Reset()
	stderr.Reset()
	err = listContainer(bytes.NewReader(container.Bytes()), unitypackage.ReaderOptions{}, &params, &stdout, &stderr)
	var exitError *cli.ExitError
	if !errors.As(err, &exitError) || exitError.ExitCode() != 1 {
		t.Fatalf("listContainer: got %v, want exit code 1", err)
	}
	if !strings.Contains(stderr.String(), "Assets/README.txt: collides with Assets/Readme.txt") {
		t.Errorf("stderr = %q, want the collision", stderr.String())
	}
}

func TestCheckManifest_SourceGUID(t *testing.T) {
	manifest := &unitypackage.Manifest{
		Entries: []unitypackage.ManifestEntry{
			{PathName: "Assets/Square.png", SourceGUID: hexagonGUIDText},
		},
	}
	problems := checkManifest(manifest)
	if len(problems) != 1 || !strings.Contains(problems[0], "declares guid "+hexagonGUIDText) {
		t.Errorf("problems = %q", problems)
	}
}
