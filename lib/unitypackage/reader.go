// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package unitypackage

import (
	"archive/tar"
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/bureau-foundation/unitypackage/lib/unity"
)

// Record names inside a GUID directory.
const (
	recordAsset    = "asset"
	recordMetadata = "asset.meta"
	recordPathname = "pathname"
)

// Default bounds on records the Reader buffers in memory. Asset data
// is streamed and never buffered by the Reader.
const (
	DefaultMaxMetadataSize = 16 << 20
	DefaultMaxPathnameSize = 64 << 10
)

// ReaderOptions configures a Reader. The zero value detects the
// compression, closes the source on Close, and applies the default
// record limits.
type ReaderOptions struct {
	// Compression forces a framing. CompressionAuto detects it from the
	// stream's magic bytes.
	Compression Compression

	// LeaveOpen keeps the source open after Close. Without it, Close
	// closes the source if it implements io.Closer.
	LeaveOpen bool

	// MaxMetadataSize bounds an asset.meta record. Zero means
	// DefaultMaxMetadataSize.
	MaxMetadataSize int64

	// MaxPathnameSize bounds a pathname record. Zero means
	// DefaultMaxPathnameSize.
	MaxPathnameSize int64

	// Logger receives debug messages for skipped records and a warning
	// when a metadata document's own guid is overwritten. If nil, a
	// no-op logger is used.
	Logger *slog.Logger
}

// Reader pulls entries from a container stream.
//
// Use Next to advance to each asset, optionally read the entry's data,
// then call Metadata for that entry. Calling Next without fetching
// metadata is allowed; the skipped records are discarded.
//
// Any structural error is sticky: every later call returns it. After
// Close every call returns ErrClosed.
type Reader struct {
	source       io.Reader
	decompressor decompressor
	archive      *tar.Reader
	compression  Compression

	logger          *slog.Logger
	leaveOpen       bool
	maxMetadataSize int64
	maxPathnameSize int64

	current         *Entry
	currentMetadata *unity.Metadata
	entries         int
	folders         int

	err       error
	exhausted bool
	closed    bool
}

// NewReader starts reading a container from source. When detection is
// requested, the framing is identified before NewReader returns. On
// error the source is left open.
func NewReader(source io.Reader, options ReaderOptions) (*Reader, error) {
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	buffered := bufio.NewReader(source)
	compression := options.Compression
	if compression == CompressionAuto {
		detected, err := DetectCompression(buffered)
		if err != nil {
			return nil, fmt.Errorf("unitypackage: %w", err)
		}
		compression = detected
	}

	decompressor, err := newDecompressor(buffered, compression)
	if err != nil {
		return nil, fmt.Errorf("unitypackage: %w", err)
	}

	reader := &Reader{
		source:          source,
		decompressor:    decompressor,
		archive:         tar.NewReader(decompressor),
		compression:     compression,
		logger:          logger,
		leaveOpen:       options.LeaveOpen,
		maxMetadataSize: options.MaxMetadataSize,
		maxPathnameSize: options.MaxPathnameSize,
	}
	if reader.maxMetadataSize <= 0 {
		reader.maxMetadataSize = DefaultMaxMetadataSize
	}
	if reader.maxPathnameSize <= 0 {
		reader.maxPathnameSize = DefaultMaxPathnameSize
	}
	return reader, nil
}

// Compression returns the framing in use, after detection.
func (r *Reader) Compression() Compression { return r.compression }

// EntriesRead returns how many entries Next has returned.
func (r *Reader) EntriesRead() int { return r.entries }

// FoldersSkipped returns how many folder groups Next has passed over.
func (r *Reader) FoldersSkipped() int { return r.folders }

// Next advances to the next asset and returns an entry holding only its
// data stream. It returns (nil, io.EOF) once the archive is exhausted.
//
// Records before a GUID directory are skipped, as are folder groups
// whose first file is not an asset record. A GUID directory followed by
// anything other than a regular file fails with ErrUnexpectedRecordType.
// The previous entry's data becomes consumed.
func (r *Reader) Next() (*Entry, error) {
	if err := r.check(); err != nil {
		return nil, err
	}
	if r.exhausted {
		return nil, io.EOF
	}
	r.release()

	skipped := 0
	for {
		header, err := r.archive.Next()
		if errors.Is(err, io.EOF) {
			r.exhausted = true
			r.logger.Debug("archive exhausted", "records_skipped", skipped)
			return nil, io.EOF
		}
		if err != nil {
			return nil, r.fail(fmt.Errorf("unitypackage: reading archive record: %w", err))
		}

		if header.Typeflag != tar.TypeDir {
			skipped++
			r.logger.Debug("skipping record outside an entry", "name", header.Name, "type", string(header.Typeflag))
			continue
		}

		name := strings.TrimSuffix(cleanName(header.Name), "/")
		if name == "" || name == "." {
			skipped++
			continue
		}
		guid, err := unity.ParseGUID(name)
		if err != nil {
			return nil, r.fail(fmt.Errorf("unitypackage: directory record %q: %w", header.Name, err))
		}

		first, err := r.nextRegularFile(guid)
		if err != nil {
			return nil, r.fail(err)
		}
		if !isRecord(first.Name, guid, recordAsset) {
			skipped++
			r.folders++
			r.logger.Debug("skipping folder entry", "guid", guid.String(), "record", first.Name)
			continue
		}

		entry := NewEntry(guid)
		entry.attach(r.archive, first.Size)
		r.current = entry
		r.currentMetadata = nil
		r.entries++
		return entry, nil
	}
}

// Metadata reads the metadata and path name for entry, which must be
// the entry most recently returned by Next (ErrNotCurrentEntry
// otherwise). The entry's data becomes consumed, and the metadata is
// attached to the entry. Calling Metadata again for the same entry
// returns the same value.
//
// The metadata's guid is always the entry's GUID. If the document
// carried a different guid it is overwritten and a warning is logged;
// the original text remains available from SourceGUID.
func (r *Reader) Metadata(entry *Entry) (*unity.Metadata, error) {
	if err := r.check(); err != nil {
		return nil, err
	}
	if entry == nil || entry != r.current {
		return nil, ErrNotCurrentEntry
	}
	if r.currentMetadata != nil {
		return r.currentMetadata, nil
	}

	entry.consume()
	guid := entry.GUID()

	metaHeader, err := r.nextRegularFile(guid)
	if err != nil {
		if errors.Is(err, ErrUnexpectedRecordType) {
			err = fmt.Errorf("%w: %w", ErrMissingMetadataRecord, err)
		}
		return nil, r.fail(err)
	}
	if !isRecord(metaHeader.Name, guid, recordMetadata) {
		return nil, r.fail(fmt.Errorf("%w: guid %s: found %q", ErrMissingMetadataRecord, guid, metaHeader.Name))
	}
	metaBytes, err := r.readRecord(metaHeader, r.maxMetadataSize)
	if err != nil {
		return nil, r.fail(err)
	}
	metadata, err := unity.ReadMetadataFor(bytes.NewReader(metaBytes), guid)
	if err != nil {
		return nil, r.fail(fmt.Errorf("unitypackage: metadata for %s: %w", guid, err))
	}
	if source := metadata.SourceGUID(); source != "" && !strings.EqualFold(source, guid.String()) {
		r.logger.Warn("metadata guid overwritten by container guid",
			"guid", guid.String(),
			"source_guid", source,
		)
	}

	pathHeader, err := r.nextRegularFile(guid)
	if err != nil {
		if errors.Is(err, ErrUnexpectedRecordType) {
			err = fmt.Errorf("%w: %w", ErrMissingPathnameRecord, err)
		}
		return nil, r.fail(err)
	}
	if !isRecord(pathHeader.Name, guid, recordPathname) {
		return nil, r.fail(fmt.Errorf("%w: guid %s: found %q", ErrMissingPathnameRecord, guid, pathHeader.Name))
	}
	pathBytes, err := r.readRecord(pathHeader, r.maxPathnameSize)
	if err != nil {
		return nil, r.fail(err)
	}
	pathName := strings.ToValidUTF8(string(pathBytes), "\uFFFD")
	metadata.SetPathName(strings.TrimRight(pathName, "\r\n"))

	entry.SetMetadata(metadata)
	r.currentMetadata = metadata
	return metadata, nil
}

// Close releases the decompressor and, unless LeaveOpen was set, closes
// the source. The current entry's data becomes consumed. A second Close
// returns ErrClosed.
func (r *Reader) Close() error {
	if r.closed {
		return ErrClosed
	}
	r.closed = true
	r.release()

	var errs []error
	if err := r.decompressor.Close(); err != nil {
		errs = append(errs, fmt.Errorf("unitypackage: closing decompressor: %w", err))
	}
	if !r.leaveOpen {
		if closer, ok := r.source.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("unitypackage: closing source: %w", err))
			}
		}
	}
	return errors.Join(errs...)
}

func (r *Reader) check() error {
	if r.closed {
		return ErrClosed
	}
	return r.err
}

func (r *Reader) fail(err error) error {
	r.release()
	r.err = err
	return err
}

func (r *Reader) release() {
	if r.current != nil {
		r.current.consume()
	}
	r.current = nil
	r.currentMetadata = nil
}

// nextRegularFile reads the next record header, which must be a regular
// file. The end of the archive is also an unexpected record.
func (r *Reader) nextRegularFile(guid unity.GUID) (*tar.Header, error) {
	header, err := r.archive.Next()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: guid %s: archive ends", ErrUnexpectedRecordType, guid)
	}
	if err != nil {
		return nil, fmt.Errorf("unitypackage: reading archive record: %w", err)
	}
	if header.Typeflag != tar.TypeReg {
		return nil, fmt.Errorf("%w: guid %s: %q has type %q", ErrUnexpectedRecordType, guid, header.Name, string(header.Typeflag))
	}
	return header, nil
}

func (r *Reader) readRecord(header *tar.Header, limit int64) ([]byte, error) {
	if header.Size > limit {
		return nil, fmt.Errorf("%w: %q is %d bytes, limit %d", ErrRecordTooLarge, header.Name, header.Size, limit)
	}
	data, err := io.ReadAll(r.archive)
	if err != nil {
		return nil, fmt.Errorf("unitypackage: reading %q: %w", header.Name, err)
	}
	return data, nil
}

// cleanName strips a leading "./", which some tar producers add.
func cleanName(name string) string {
	return strings.TrimPrefix(name, "./")
}

// isRecord reports whether name is exactly "<guid>/<record>".
func isRecord(name string, guid unity.GUID, record string) bool {
	directory, base, ok := strings.Cut(cleanName(name), "/")
	if !ok || base != record {
		return false
	}
	parsed, err := unity.ParseGUID(directory)
	return err == nil && parsed == guid
}
