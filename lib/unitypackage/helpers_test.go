// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package unitypackage

import (
	"archive/tar"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/unitypackage/lib/unity"
)

// fixedTime stamps records in tests so output is reproducible.
var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

const (
	squareGUIDText  = "0a1b2c3d4e5f60718293a4b5c6d7e8f9"
	hexagonGUIDText = "f9e8d7c6b5a4938271605f4e3d2c1b0a"
)

// metaText is the canonical serialization of a minimal .meta document.
func metaText(guid string) string {
	return "fileFormatVersion: 2\n" +
		"guid: " + guid + "\n" +
		"DefaultImporter:\n" +
		"  userData: keep\n"
}

// newTestEntry returns an entry with the given identity, path, and data.
func newTestEntry(t *testing.T, guidText, pathName, data string) *Entry {
	t.Helper()
	metadata, err := unity.ReadMetadata(strings.NewReader(metaText(guidText)))
	if err != nil {
		t.Fatalf("ReadMetadata: %v", err)
	}
	metadata.SetPathName(pathName)
	entry := NewEntry(metadata.GUID())
	entry.SetData(strings.NewReader(data))
	entry.SetMetadata(metadata)
	return entry
}

// writeContainer writes entries into an in-memory container.
func writeContainer(t *testing.T, options WriterOptions, entries ...*Entry) []byte {
	t.Helper()
	if options.ModTime.IsZero() {
		options.ModTime = fixedTime
	}
	var buffer bytes.Buffer
	writer, err := NewWriter(&buffer, options)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	for _, entry := range entries {
		if err := writer.WriteEntry(entry); err != nil {
			t.Fatalf("WriteEntry(%s): %v", entry.GUID(), err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return buffer.Bytes()
}

// readEntry is one entry read back from a container.
type readEntry struct {
	guid     unity.GUID
	pathName string
	data     string
	metadata *unity.Metadata
}

// readContainer reads every entry, data first, then metadata.
func readContainer(t *testing.T, data []byte, options ReaderOptions) []readEntry {
	t.Helper()
	reader, err := NewReader(bytes.NewReader(data), options)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer reader.Close()

	var entries []readEntry
	for {
		entry, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return entries
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		content, err := io.ReadAll(entry.Data())
		if err != nil {
			t.Fatalf("reading data for %s: %v", entry.GUID(), err)
		}
		metadata, err := reader.Metadata(entry)
		if err != nil {
			t.Fatalf("Metadata(%s): %v", entry.GUID(), err)
		}
		entries = append(entries, readEntry{
			guid:     entry.GUID(),
			pathName: metadata.PathName(),
			data:     string(content),
			metadata: metadata,
		})
	}
}

// rawRecord is one raw tar record for hand-built archives.
type rawRecord struct {
	name     string
	typeflag byte
	body     string
}

func dirRecord(name string) rawRecord { return rawRecord{name: name, typeflag: tar.TypeDir} }

func fileRecord(name, body string) rawRecord { return rawRecord{name: name, typeflag: tar.TypeReg, body: body} }

// entryRecords returns the four records of a well-formed entry.
func entryRecords(guid, pathName, data string) []rawRecord {
	return []rawRecord{
		dirRecord(guid + "/"),
		fileRecord(guid+"/asset", data),
		fileRecord(guid+"/asset.meta", metaText(guid)),
		fileRecord(guid+"/pathname", pathName),
	}
}

// rawArchive builds an uncompressed tar archive from records.
func rawArchive(t *testing.T, records ...rawRecord) []byte {
	t.Helper()
	var buffer bytes.Buffer
	archive := tar.NewWriter(&buffer)
	for _, r := range records {
		header := &tar.Header{
			Name:     r.name,
			Typeflag: r.typeflag,
			Mode:     0o644,
			ModTime:  fixedTime,
			Size:     int64(len(r.body)),
		}
		if r.typeflag == tar.TypeDir || r.typeflag == tar.TypeSymlink {
			header.Mode = 0o755
			header.Size = 0
		}
		if r.typeflag == tar.TypeSymlink {
			header.Linkname = r.body
		}
		if err := archive.WriteHeader(header); err != nil {
			t.Fatalf("WriteHeader(%s): %v", r.name, err)
		}
		if header.Size > 0 {
			if _, err := io.WriteString(archive, r.body); err != nil {
				t.Fatalf("writing %s: %v", r.name, err)
			}
		}
	}
	if err := archive.Close(); err != nil {
		t.Fatalf("closing archive: %v", err)
	}
	return buffer.Bytes()
}

// trackingCloser records whether Close was called.
type trackingCloser struct {
	io.Reader
	io.Writer
	closed bool
}

func (c *trackingCloser) Close() error {
	c.closed = true
	return nil
}
