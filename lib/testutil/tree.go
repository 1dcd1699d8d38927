// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// TB is the subset of testing.TB the helpers need.
type TB interface {
	Helper()
	Fatalf(format string, args ...any)
}

// WriteTree creates every file in files under root, creating parent
// directories as needed. Keys are slash-separated paths relative to
// root.
//
//	testutil.WriteTree(t, filesystem, "project", map[string]string{
//		"Assets/readme.txt":      "hello",
//		"Assets/readme.txt.meta": metaText,
//	})
func WriteTree(t TB, filesystem billy.Filesystem, root string, files map[string]string) {
	t.Helper()
	for _, relative := range SortedKeys(files) {
		target := filesystem.Join(root, filepath.FromSlash(relative))
		if err := filesystem.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			t.Fatalf("creating directory for %s: %v", relative, err)
		}
		file, err := filesystem.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
		if err != nil {
			t.Fatalf("creating %s: %v", relative, err)
		}
		if _, err := io.WriteString(file, files[relative]); err != nil {
			file.Close()
			t.Fatalf("writing %s: %v", relative, err)
		}
		if err := file.Close(); err != nil {
			t.Fatalf("closing %s: %v", relative, err)
		}
	}
}

// ReadTree returns every regular file under root, keyed by its
// slash-separated path relative to root. Directories are implied by
// the paths and not listed.
func ReadTree(t TB, filesystem billy.Filesystem, root string) map[string]string {
	t.Helper()
	files := map[string]string{}
	err := util.Walk(filesystem, root, func(filePath string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		relative, err := filepath.Rel(filepath.Clean(root), filepath.Clean(filePath))
		if err != nil {
			return err
		}
		data, err := util.ReadFile(filesystem, filePath)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(relative)] = string(data)
		return nil
	})
	if err != nil {
		t.Fatalf("reading tree %s: %v", root, err)
	}
	return files
}

// SortedKeys returns the keys of m in lexical order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
