// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package unitypackage

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/bureau-foundation/unitypackage/lib/unity"
)

func TestReadSingleEntry(t *testing.T) {
	entry := NewEmptyEntry("Assets/test.txt")
	entry.SetData(strings.NewReader("Hello, Unity Package!"))
	guid := entry.GUID()

	data := writeContainer(t, WriterOptions{}, entry)

	reader, err := NewReader(bytes.NewReader(data), ReaderOptions{})
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer reader.Close()

	if reader.Compression() != CompressionGzip {
		t.Errorf("Compression = %s, want gzip", reader.Compression())
	}

	got, err := reader.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got.GUID() != guid {
		t.Errorf("GUID = %s, want %s", got.GUID(), guid)
	}
	if got.DataState() != DataFresh {
		t.Errorf("DataState = %s, want fresh", got.DataState())
	}
	if got.Metadata() != nil {
		t.Error("entry has metadata before Metadata was called")
	}

	content, err := io.ReadAll(got.Data())
	if err != nil {
		t.Fatalf("reading data: %v", err)
	}
	if string(content) != "Hello, Unity Package!" {
		t.Errorf("data = %q, want %q", content, "Hello, Unity Package!")
	}

	metadata, err := reader.Metadata(got)
	if err != nil {
		t.Fatalf("Metadata: %v", err)
	}
	if metadata.PathName() != "Assets/test.txt" {
		t.Errorf("PathName = %q, want %q", metadata.PathName(), "Assets/test.txt")
	}
	if metadata.GUID() != guid {
		t.Errorf("metadata GUID = %s, want %s", metadata.GUID(), guid)
	}
	if got.Metadata() != metadata {
		t.Error("Metadata did not attach the metadata to the entry")
	}

	if _, err := reader.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("Next after last entry: got %v, want io.EOF", err)
	}
	if _, err := reader.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("Next after exhaustion: got %v, want io.EOF", err)
	}
	if reader.EntriesRead() != 1 {
		t.Errorf("EntriesRead = %d, want 1", reader.EntriesRead())
	}
}

func TestReadEntriesInArchiveOrder(t *testing.T) {
	data := writeContainer(t, WriterOptions{},
		newTestEntry(t, squareGUIDText, "Assets/Square.png", "square"),
		newTestEntry(t, hexagonGUIDText, "Assets/Hexagon.png", "hexagon"),
	)

	entries := readContainer(t, data, ReaderOptions{})
	if len(entries) != 2 {
		t.Fatalf("read %d entries, want 2", len(entries))
	}
	want := []struct{ guid, pathName, data string }{
		{squareGUIDText, "Assets/Square.png", "square"},
		{hexagonGUIDText, "Assets/Hexagon.png", "hexagon"},
	}
	for i, w := range want {
		if entries[i].guid.String() != w.guid {
			t.Errorf("entry %d GUID = %s, want %s", i, entries[i].guid, w.guid)
		}
		if entries[i].pathName != w.pathName {
			t.Errorf("entry %d PathName = %q, want %q", i, entries[i].pathName, w.pathName)
		}
		if entries[i].data != w.data {
			t.Errorf("entry %d data = %q, want %q", i, entries[i].data, w.data)
		}
	}
}

func TestReadEmptyContainer(t *testing.T) {
	data := writeContainer(t, WriterOptions{})
	if entries := readContainer(t, data, ReaderOptions{}); len(entries) != 0 {
		t.Errorf("read %d entries from an empty container", len(entries))
	}

	// A zero-length stream is an empty bare archive.
	if entries := readContainer(t, nil, ReaderOptions{}); len(entries) != 0 {
		t.Errorf("read %d entries from an empty stream", len(entries))
	}
}

func TestMetadataRequiresCurrentEntry(t *testing.T) {
	data := writeContainer(t, WriterOptions{},
		newTestEntry(t, squareGUIDText, "Assets/Square.png", "square"),
		newTestEntry(t, hexagonGUIDText, "Assets/Hexagon.png", "hexagon"),
	)
	reader, err := NewReader(bytes.NewReader(data), ReaderOptions{})
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer reader.Close()

	first, err := reader.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if _, err := reader.Metadata(NewEntry(first.GUID())); !errors.Is(err, ErrNotCurrentEntry) {
		t.Errorf("Metadata(lookalike): got %v, want ErrNotCurrentEntry", err)
	}
	if _, err := reader.Metadata(nil); !errors.Is(err, ErrNotCurrentEntry) {
		t.Errorf("Metadata(nil): got %v, want ErrNotCurrentEntry", err)
	}

	second, err := reader.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if _, err := reader.Metadata(first); !errors.Is(err, ErrNotCurrentEntry) {
		t.Errorf("Metadata(previous): got %v, want ErrNotCurrentEntry", err)
	}

	// ErrNotCurrentEntry is a caller error, not a stream error.
	metadata, err := reader.Metadata(second)
	if err != nil {
		t.Fatalf("Metadata(current): %v", err)
	}
	if metadata.PathName() != "Assets/Hexagon.png" {
		t.Errorf("PathName = %q, want Assets/Hexagon.png", metadata.PathName())
	}

	again, err := reader.Metadata(second)
	if err != nil {
		t.Fatalf("second Metadata call: %v", err)
	}
	if again != metadata {
		t.Error("second Metadata call returned a different value")
	}
}

func TestDataConsumedByMetadata(t *testing.T) {
	data := writeContainer(t, WriterOptions{}, newTestEntry(t, squareGUIDText, "Assets/Square.png", "square"))
	reader, err := NewReader(bytes.NewReader(data), ReaderOptions{})
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer reader.Close()

	entry, err := reader.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	stream := entry.Data()
	if _, err := reader.Metadata(entry); err != nil {
		t.Fatalf("Metadata: %v", err)
	}

	if entry.DataState() != DataConsumed {
		t.Errorf("DataState = %s, want consumed", entry.DataState())
	}
	if _, err := stream.Read(make([]byte, 1)); !errors.Is(err, ErrDataConsumed) {
		t.Errorf("reading stale stream: got %v, want ErrDataConsumed", err)
	}
	if _, err := entry.Data().Read(make([]byte, 1)); !errors.Is(err, ErrDataConsumed) {
		t.Errorf("reading consumed entry: got %v, want ErrDataConsumed", err)
	}
}

func TestNextWithoutMetadata(t *testing.T) {
	data := writeContainer(t, WriterOptions{},
		newTestEntry(t, squareGUIDText, "Assets/Square.png", strings.Repeat("s", 5000)),
		newTestEntry(t, hexagonGUIDText, "Assets/Hexagon.png", "hexagon"),
	)
	reader, err := NewReader(bytes.NewReader(data), ReaderOptions{})
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer reader.Close()

	first, err := reader.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	// Read part of the data, then move on without metadata.
	if _, err := first.Data().Read(make([]byte, 10)); err != nil {
		t.Fatalf("partial read: %v", err)
	}

	second, err := reader.Next()
	if err != nil {
		t.Fatalf("second Next: %v", err)
	}
	if second.GUID().String() != hexagonGUIDText {
		t.Errorf("second GUID = %s, want %s", second.GUID(), hexagonGUIDText)
	}
	if first.DataState() != DataConsumed {
		t.Errorf("skipped entry DataState = %s, want consumed", first.DataState())
	}
	metadata, err := reader.Metadata(second)
	if err != nil {
		t.Fatalf("Metadata: %v", err)
	}
	if metadata.PathName() != "Assets/Hexagon.png" {
		t.Errorf("PathName = %q, want Assets/Hexagon.png", metadata.PathName())
	}
}

func TestReaderSkipsFoldersAndStrayRecords(t *testing.T) {
	folderGUID := "11112222333344445555666677778888"
	var records []rawRecord
	records = append(records,
		fileRecord("README", "not part of any entry"),
		dirRecord("./"),
		dirRecord(folderGUID+"/"),
		fileRecord(folderGUID+"/asset.meta", metaText(folderGUID)),
		fileRecord(folderGUID+"/pathname", "Assets/Shapes"),
	)
	records = append(records, entryRecords(squareGUIDText, "Assets/Shapes/Square.png", "square")...)
	records = append(records, fileRecord("trailer.txt", "ignored"))

	var logs bytes.Buffer
	options := ReaderOptions{Logger: slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))}

	reader, err := NewReader(bytes.NewReader(rawArchive(t, records...)), options)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer reader.Close()
	if reader.Compression() != CompressionNone {
		t.Errorf("Compression = %s, want none", reader.Compression())
	}

	entry, err := reader.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if entry.GUID().String() != squareGUIDText {
		t.Errorf("GUID = %s, want %s", entry.GUID(), squareGUIDText)
	}
	if _, err := reader.Metadata(entry); err != nil {
		t.Fatalf("Metadata: %v", err)
	}
	if _, err := reader.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("Next: got %v, want io.EOF", err)
	}
	if reader.FoldersSkipped() != 1 {
		t.Errorf("FoldersSkipped = %d, want 1", reader.FoldersSkipped())
	}
	if !strings.Contains(logs.String(), "skipping folder entry") {
		t.Errorf("log does not mention the skipped folder:\n%s", logs.String())
	}
}

func TestReaderStructureErrors(t *testing.T) {
	guid := squareGUIDText
	tests := []struct {
		name    string
		records []rawRecord
		// inNext reports whether the error surfaces from Next rather
		// than Metadata.
		inNext bool
		want   []error
	}{
		{
			name:    "directory followed by directory",
			records: []rawRecord{dirRecord(guid + "/"), dirRecord(guid + "/nested/")},
			inNext:  true,
			want:    []error{ErrUnexpectedRecordType},
		},
		{
			name:    "directory at end of archive",
			records: []rawRecord{dirRecord(guid + "/")},
			inNext:  true,
			want:    []error{ErrUnexpectedRecordType},
		},
		{
			name:    "directory name is not a guid",
			records: []rawRecord{dirRecord("Assets/"), fileRecord("Assets/asset", "x")},
			inNext:  true,
			want:    []error{unity.ErrInvalidIdentifier},
		},
		{
			name:    "asset followed by pathname",
			records: []rawRecord{dirRecord(guid + "/"), fileRecord(guid+"/asset", "x"), fileRecord(guid+"/pathname", "Assets/x")},
			want:    []error{ErrMissingMetadataRecord},
		},
		{
			name:    "archive ends after asset",
			records: []rawRecord{dirRecord(guid + "/"), fileRecord(guid+"/asset", "x")},
			want:    []error{ErrMissingMetadataRecord, ErrUnexpectedRecordType},
		},
		{
			name: "archive ends after metadata",
			records: []rawRecord{
				dirRecord(guid + "/"),
				fileRecord(guid+"/asset", "x"),
				fileRecord(guid+"/asset.meta", metaText(guid)),
			},
			want: []error{ErrMissingPathnameRecord, ErrUnexpectedRecordType},
		},
		{
			name: "metadata followed by directory",
			records: []rawRecord{
				dirRecord(guid + "/"),
				fileRecord(guid+"/asset", "x"),
				fileRecord(guid+"/asset.meta", metaText(guid)),
				dirRecord(hexagonGUIDText + "/"),
			},
			want: []error{ErrMissingPathnameRecord, ErrUnexpectedRecordType},
		},
		{
			name: "metadata for another guid",
			records: []rawRecord{
				dirRecord(guid + "/"),
				fileRecord(guid+"/asset", "x"),
				fileRecord(hexagonGUIDText+"/asset.meta", metaText(hexagonGUIDText)),
			},
			want: []error{ErrMissingMetadataRecord},
		},
		{
			name: "metadata is not a mapping",
			records: []rawRecord{
				dirRecord(guid + "/"),
				fileRecord(guid+"/asset", "x"),
				fileRecord(guid+"/asset.meta", "- a\n- b\n"),
				fileRecord(guid+"/pathname", "Assets/x"),
			},
			want: []error{unity.ErrMalformedMetadata},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			reader, err := NewReader(bytes.NewReader(rawArchive(t, test.records...)), ReaderOptions{})
			if err != nil {
				t.Fatalf("NewReader: %v", err)
			}
			defer reader.Close()

			entry, err := reader.Next()
			if !test.inNext {
				if err != nil {
					t.Fatalf("Next: %v", err)
				}
				_, err = reader.Metadata(entry)
			}
			if err == nil {
				t.Fatal("expected an error")
			}
			for _, want := range test.want {
				if !errors.Is(err, want) {
					t.Errorf("error %v does not match %v", err, want)
				}
			}

			// Structural errors are sticky.
			if _, next := reader.Next(); next != err {
				t.Errorf("Next after failure: got %v, want %v", next, err)
			}
		})
	}
}

func TestReaderRecordLimits(t *testing.T) {
	data := rawArchive(t, entryRecords(squareGUIDText, "Assets/Square.png", "square")...)

	tests := []struct {
		name    string
		options ReaderOptions
	}{
		{"metadata", ReaderOptions{MaxMetadataSize: 16}},
		{"pathname", ReaderOptions{MaxPathnameSize: 4}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			reader, err := NewReader(bytes.NewReader(data), test.options)
			if err != nil {
				t.Fatalf("NewReader: %v", err)
			}
			defer reader.Close()
			entry, err := reader.Next()
			if err != nil {
				t.Fatalf("Next: %v", err)
			}
			if _, err := reader.Metadata(entry); !errors.Is(err, ErrRecordTooLarge) {
				t.Errorf("Metadata: got %v, want ErrRecordTooLarge", err)
			}
		})
	}
}

func TestReaderContainerGUIDWins(t *testing.T) {
	records := []rawRecord{
		dirRecord(squareGUIDText + "/"),
		fileRecord(squareGUIDText+"/asset", "square"),
		fileRecord(squareGUIDText+"/asset.meta", metaText(hexagonGUIDText)),
		fileRecord(squareGUIDText+"/pathname", "Assets/Square.png"),
	}
	var logs bytes.Buffer
	options := ReaderOptions{Logger: slog.New(slog.NewTextHandler(&logs, nil))}

	reader, err := NewReader(bytes.NewReader(rawArchive(t, records...)), options)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	defer reader.Close()
	entry, err := reader.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	metadata, err := reader.Metadata(entry)
	if err != nil {
		t.Fatalf("Metadata: %v", err)
	}

	if metadata.GUID().String() != squareGUIDText {
		t.Errorf("GUID = %s, want the directory's %s", metadata.GUID(), squareGUIDText)
	}
	if metadata.SourceGUID() != hexagonGUIDText {
		t.Errorf("SourceGUID = %q, want %q", metadata.SourceGUID(), hexagonGUIDText)
	}
	saved, err := metadata.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if string(saved) != metaText(squareGUIDText) {
		t.Errorf("saved metadata:\n%s\nwant:\n%s", saved, metaText(squareGUIDText))
	}
	if !strings.Contains(logs.String(), "metadata guid overwritten by container guid") {
		t.Errorf("no warning logged:\n%s", logs.String())
	}
}

func TestReaderPathnameNormalization(t *testing.T) {
	tests := []struct {
		name     string
		recorded string
		want     string
	}{
		{"plain", "Assets/a.txt", "Assets/a.txt"},
		{"trailing newline", "Assets/a.txt\n", "Assets/a.txt"},
		{"trailing CRLF", "Assets/a.txt\r\n", "Assets/a.txt"},
		{"invalid utf-8", "Assets/\xffa.txt", "Assets/\uFFFDa.txt"},
		{"multibyte", "Assets/テクスチャ.png", "Assets/テクスチャ.png"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			data := rawArchive(t, entryRecords(squareGUIDText, test.recorded, "x")...)
			entries := readContainer(t, data, ReaderOptions{})
			if len(entries) != 1 {
				t.Fatalf("read %d entries, want 1", len(entries))
			}
			if entries[0].pathName != test.want {
				t.Errorf("PathName = %q, want %q", entries[0].pathName, test.want)
			}
		})
	}
}

func TestReaderAcceptsDotSlashNames(t *testing.T) {
	var records []rawRecord
	for _, r := range entryRecords(squareGUIDText, "Assets/Square.png", "square") {
		r.name = "./" + r.name
		records = append(records, r)
	}
	entries := readContainer(t, rawArchive(t, records...), ReaderOptions{})
	if len(entries) != 1 || entries[0].data != "square" {
		t.Errorf("entries = %+v, want one square entry", entries)
	}
}

func TestReaderEmptyMetadataRecord(t *testing.T) {
	records := []rawRecord{
		dirRecord(squareGUIDText + "/"),
		fileRecord(squareGUIDText+"/asset", "square"),
		fileRecord(squareGUIDText+"/asset.meta", ""),
		fileRecord(squareGUIDText+"/pathname", "Assets/Square.png"),
	}
	entries := readContainer(t, rawArchive(t, records...), ReaderOptions{})
	if len(entries) != 1 {
		t.Fatalf("read %d entries, want 1", len(entries))
	}
	if entries[0].metadata.GUID().String() != squareGUIDText {
		t.Errorf("GUID = %s, want %s", entries[0].metadata.GUID(), squareGUIDText)
	}
}

func TestReaderClose(t *testing.T) {
	data := writeContainer(t, WriterOptions{}, newTestEntry(t, squareGUIDText, "Assets/Square.png", "square"))

	source := &trackingCloser{Reader: bytes.NewReader(data)}
	reader, err := NewReader(source, ReaderOptions{})
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	entry, err := reader.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if err := reader.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !source.closed {
		t.Error("Close did not close the source")
	}
	if entry.DataState() != DataConsumed {
		t.Errorf("DataState after Close = %s, want consumed", entry.DataState())
	}
	if _, err := reader.Next(); !errors.Is(err, ErrClosed) {
		t.Errorf("Next after Close: got %v, want ErrClosed", err)
	}
	if _, err := reader.Metadata(entry); !errors.Is(err, ErrClosed) {
		t.Errorf("Metadata after Close: got %v, want ErrClosed", err)
	}
	if err := reader.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("second Close: got %v, want ErrClosed", err)
	}
}

func TestReaderLeaveOpen(t *testing.T) {
	data := writeContainer(t, WriterOptions{})
	source := &trackingCloser{Reader: bytes.NewReader(data)}
	reader, err := NewReader(source, ReaderOptions{LeaveOpen: true})
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if err := reader.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if source.closed {
		t.Error("Close closed the source despite LeaveOpen")
	}
}

func TestReaderRejectsCorruptFraming(t *testing.T) {
	// Gzip magic followed by garbage.
	data := []byte{0x1f, 0x8b, 0x00, 0x00, 0xde, 0xad, 0xbe, 0xef}
	if _, err := NewReader(bytes.NewReader(data), ReaderOptions{}); err == nil {
		t.Error("NewReader accepted a corrupt gzip header")
	}
}
