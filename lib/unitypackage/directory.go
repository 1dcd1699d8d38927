// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package unitypackage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/bureau-foundation/unitypackage/lib/unity"
)

// FileExtension is the conventional suffix of a container file.
const FileExtension = ".unitypackage"

// stagingPrefix names the temporary files ExtractToDirectory stages
// asset data in. The path name record follows the data, so the target
// is not known until the data has been read.
const stagingPrefix = ".unitypackage-staging-"

// PackOptions configures CreateFromDirectory.
type PackOptions struct {
	// Writer configures the container written to the destination.
	Writer WriterOptions

	// IncludeFolders also writes a folder group for every directory
	// that has its own .meta file, so Unity restores folder GUIDs.
	IncludeFolders bool
}

// PackResult counts what CreateFromDirectory wrote.
type PackResult struct {
	Entries int
	Folders int
}

// CreateFromDirectory writes every file under root in filesystem as an
// entry of a new container on destination. Each file must have a
// "<name>.meta" sibling (ErrMissingMetaFile); the GUID comes from that
// metadata and the path name is the file's slash-separated path
// relative to root. Two files whose relative paths differ only in case
// fail with ErrDuplicatePath, since Unity projects live on
// case-insensitive filesystems.
//
// Files are visited in lexical order, so the same tree always produces
// the same container.
func CreateFromDirectory(filesystem billy.Filesystem, root string, destination io.Writer, options PackOptions) (PackResult, error) {
	logger := options.Writer.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	tree, err := scanTree(filesystem, root)
	if err != nil {
		return PackResult{}, err
	}
	for _, asset := range tree.assets {
		if !tree.metas[asset+unity.MetaExtension] {
			return PackResult{}, fmt.Errorf("%w: %s", ErrMissingMetaFile, asset)
		}
	}

	writer, err := NewWriter(destination, options.Writer)
	if err != nil {
		return PackResult{}, err
	}

	var result PackResult
	for _, item := range tree.order {
		if item.directory {
			if !options.IncludeFolders || !tree.metas[item.relative+unity.MetaExtension] {
				continue
			}
			if err := packFolder(filesystem, root, item.relative, writer); err != nil {
				writer.Close()
				return result, err
			}
			result.Folders++
			continue
		}
		if err := packFile(filesystem, root, item, writer); err != nil {
			writer.Close()
			return result, err
		}
		result.Entries++
	}

	for meta := range tree.metas {
		if !tree.claimed(meta) {
			logger.Debug("ignoring .meta without a matching file", "path", meta)
		}
	}

	if err := writer.Close(); err != nil {
		return result, err
	}
	return result, nil
}

type treeItem struct {
	relative  string
	size      int64
	directory bool
}

type projectTree struct {
	order  []treeItem
	assets []string
	dirs   map[string]bool
	metas  map[string]bool
}

func (t *projectTree) claimed(meta string) bool {
	owner := strings.TrimSuffix(meta, unity.MetaExtension)
	if t.dirs[owner] {
		return true
	}
	for _, asset := range t.assets {
		if asset == owner {
			return true
		}
	}
	return false
}

// scanTree walks root and sorts its contents into assets, directories,
// and .meta files, rejecting case-insensitive duplicates.
func scanTree(filesystem billy.Filesystem, root string) (*projectTree, error) {
	tree := &projectTree{dirs: map[string]bool{}, metas: map[string]bool{}}
	seenAssets := map[string]string{}
	seenMetas := map[string]string{}

	err := util.Walk(filesystem, root, func(filePath string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return fmt.Errorf("unitypackage: scanning %s: %w", filePath, walkErr)
		}
		relative, err := relativePath(root, filePath)
		if err != nil {
			return err
		}
		if relative == "." {
			return nil
		}

		switch {
		case info.IsDir():
			tree.dirs[relative] = true
			tree.order = append(tree.order, treeItem{relative: relative, directory: true})
			return nil
		case !info.Mode().IsRegular():
			return nil
		}

		seen := seenAssets
		if strings.HasSuffix(relative, unity.MetaExtension) {
			seen = seenMetas
		}
		folded := strings.ToLower(relative)
		if previous, ok := seen[folded]; ok {
			return fmt.Errorf("%w: %q and %q", ErrDuplicatePath, previous, relative)
		}
		seen[folded] = relative

		if strings.HasSuffix(relative, unity.MetaExtension) {
			tree.metas[relative] = true
			return nil
		}
		tree.assets = append(tree.assets, relative)
		tree.order = append(tree.order, treeItem{relative: relative, size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tree, nil
}

func relativePath(root, filePath string) (string, error) {
	relative, err := filepath.Rel(filepath.Clean(root), filepath.Clean(filePath))
	if err != nil {
		return "", fmt.Errorf("unitypackage: %s is outside %s: %w", filePath, root, err)
	}
	return filepath.ToSlash(relative), nil
}

func packFile(filesystem billy.Filesystem, root string, item treeItem, writer *Writer) error {
	entry, err := readSidecar(filesystem, root, item.relative)
	if err != nil {
		return err
	}

	file, err := filesystem.Open(filesystem.Join(root, filepath.FromSlash(item.relative)))
	if err != nil {
		return fmt.Errorf("unitypackage: opening %s: %w", item.relative, err)
	}
	defer file.Close()

	entry.attach(file, item.size)
	return writer.WriteEntry(entry)
}

func packFolder(filesystem billy.Filesystem, root, relative string, writer *Writer) error {
	entry, err := readSidecar(filesystem, root, relative)
	if err != nil {
		return err
	}
	return writer.WriteFolder(entry.Metadata())
}

func readSidecar(filesystem billy.Filesystem, root, relative string) (*Entry, error) {
	metaPath := filesystem.Join(root, filepath.FromSlash(relative+unity.MetaExtension))
	file, err := filesystem.Open(metaPath)
	if err != nil {
		return nil, fmt.Errorf("unitypackage: opening %s: %w", relative+unity.MetaExtension, err)
	}
	defer file.Close()
	return EntryFromMetadata(relative, file)
}

// ExtractOptions configures ExtractToDirectory.
type ExtractOptions struct {
	// Reader configures how the container is read.
	Reader ReaderOptions

	// Overwrite replaces existing files. Without it, an existing asset
	// or .meta file fails the extraction with ErrFileExists.
	Overwrite bool
}

// ExtractToDirectory reads every entry from source and writes its data
// to "<root>/<path name>" and its metadata to "<root>/<path name>.meta"
// in filesystem, creating directories as needed. It returns the number
// of entries written.
//
// Path names come from untrusted input: absolute paths and paths that
// leave root fail with ErrUnsafePath before anything is written for
// that entry.
func ExtractToDirectory(source io.Reader, filesystem billy.Filesystem, root string, options ExtractOptions) (int, error) {
	reader, err := NewReader(source, options.Reader)
	if err != nil {
		return 0, err
	}
	defer reader.Close()

	if err := filesystem.MkdirAll(root, 0o755); err != nil {
		return 0, fmt.Errorf("unitypackage: creating %s: %w", root, err)
	}

	extracted := 0
	for {
		entry, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return extracted, nil
		}
		if err != nil {
			return extracted, err
		}
		if err := extractEntry(reader, entry, filesystem, root, options.Overwrite); err != nil {
			return extracted, err
		}
		extracted++
	}
}

func extractEntry(reader *Reader, entry *Entry, filesystem billy.Filesystem, root string, overwrite bool) error {
	staged, err := util.TempFile(filesystem, root, stagingPrefix)
	if err != nil {
		return fmt.Errorf("unitypackage: staging %s: %w", entry.GUID(), err)
	}
	stagedName := staged.Name()
	defer filesystem.Remove(stagedName)

	_, copyErr := io.Copy(staged, entry.Data())
	if closeErr := staged.Close(); copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		return fmt.Errorf("unitypackage: staging %s: %w", entry.GUID(), copyErr)
	}

	metadata, err := reader.Metadata(entry)
	if err != nil {
		return err
	}
	target, err := safeTarget(filesystem, root, metadata.PathName())
	if err != nil {
		return err
	}
	metaTarget := target + unity.MetaExtension

	if !overwrite {
		for _, candidate := range []string{target, metaTarget} {
			if _, statErr := filesystem.Lstat(candidate); statErr == nil {
				return fmt.Errorf("%w: %s", ErrFileExists, candidate)
			} else if !errors.Is(statErr, fs.ErrNotExist) {
				return fmt.Errorf("unitypackage: checking %s: %w", candidate, statErr)
			}
		}
	}

	if err := filesystem.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("unitypackage: creating directory for %s: %w", metadata.PathName(), err)
	}

	source, err := filesystem.Open(stagedName)
	if err != nil {
		return fmt.Errorf("unitypackage: reopening staged %s: %w", entry.GUID(), err)
	}
	defer source.Close()
	if err := createFile(filesystem, target, overwrite, func(w io.Writer) error {
		_, err := io.Copy(w, source)
		return err
	}); err != nil {
		return err
	}
	return createFile(filesystem, metaTarget, overwrite, metadata.Save)
}

// createFile creates name with fill's output. Without overwrite an
// existing file fails with ErrFileExists.
func createFile(filesystem billy.Filesystem, name string, overwrite bool, fill func(io.Writer) error) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	file, err := filesystem.OpenFile(name, flags, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrFileExists, name)
		}
		return fmt.Errorf("unitypackage: creating %s: %w", name, err)
	}
	fillErr := fill(file)
	if closeErr := file.Close(); fillErr == nil {
		fillErr = closeErr
	}
	if fillErr != nil {
		return fmt.Errorf("unitypackage: writing %s: %w", name, fillErr)
	}
	return nil
}

// safeTarget maps an untrusted slash-separated path name to a path
// under root.
func safeTarget(filesystem billy.Filesystem, root, pathName string) (string, error) {
	if pathName == "" || strings.ContainsRune(pathName, 0) || strings.Contains(pathName, `\`) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, pathName)
	}
	cleaned := path.Clean(pathName)
	if !filepath.IsLocal(filepath.FromSlash(cleaned)) || cleaned == "." {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, pathName)
	}
	return filesystem.Join(root, filepath.FromSlash(cleaned)), nil
}
