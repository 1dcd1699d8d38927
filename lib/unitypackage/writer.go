// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package unitypackage

import (
	"archive/tar"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/bureau-foundation/unitypackage/lib/unity"
)

// Record permissions. Unity ignores them; these match what tar
// producers conventionally write.
const (
	directoryMode = 0o755
	fileMode      = 0o644
)

// WriterOptions configures a Writer. The zero value writes gzip at the
// default level with the current time on every record and closes the
// destination on Close.
type WriterOptions struct {
	// Compression selects the framing. CompressionAuto means gzip.
	Compression Compression

	// Level is the codec's compression level; zero selects its default.
	Level int

	// LeaveOpen keeps the destination open after Close. Without it,
	// Close closes the destination if it implements io.Closer.
	LeaveOpen bool

	// ModTime stamps every record. The zero value uses the time the
	// Writer was created; a fixed value makes output reproducible.
	ModTime time.Time

	// Logger receives a debug message per written group. If nil, a no-op
	// logger is used.
	Logger *slog.Logger
}

// Writer emits entries into a container stream.
//
// A failed write may leave a partial record group in the output; the
// Writer remains usable but the archive should be discarded.
type Writer struct {
	destination io.Writer
	compressor  io.WriteCloser
	archive     *tar.Writer

	leaveOpen bool
	modTime   time.Time
	logger    *slog.Logger

	entries int
	folders int
	closed  bool
}

// NewWriter starts a container on destination. Nothing is written
// until the first entry or Close.
func NewWriter(destination io.Writer, options WriterOptions) (*Writer, error) {
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	compressor, err := newCompressor(destination, options.Compression, options.Level)
	if err != nil {
		return nil, fmt.Errorf("unitypackage: %w", err)
	}

	modTime := options.ModTime
	if modTime.IsZero() {
		modTime = time.Now()
	}

	return &Writer{
		destination: destination,
		compressor:  compressor,
		archive:     tar.NewWriter(compressor),
		leaveOpen:   options.LeaveOpen,
		modTime:     modTime.Truncate(time.Second),
		logger:      logger,
	}, nil
}

// WriteEntry emits the four records for entry: the GUID directory, the
// asset data, the serialized metadata, and the path name. The entry
// needs both data and metadata, and the metadata's GUID must equal the
// entry's. The entry's data becomes consumed.
func (w *Writer) WriteEntry(entry *Entry) error {
	if w.closed {
		return ErrClosed
	}
	if entry == nil {
		return errors.New("unitypackage: nil entry")
	}
	metadata := entry.Metadata()
	if metadata == nil {
		return fmt.Errorf("%w: guid %s", ErrMissingMetadata, entry.GUID())
	}
	switch entry.DataState() {
	case DataAbsent:
		return fmt.Errorf("%w: guid %s", ErrMissingData, entry.GUID())
	case DataConsumed:
		return fmt.Errorf("%w: %w: guid %s", ErrMissingData, ErrDataConsumed, entry.GUID())
	}
	if entry.GUID() != metadata.GUID() {
		return fmt.Errorf("%w: entry %s, metadata %s", ErrIdentifierMismatch, entry.GUID(), metadata.GUID())
	}

	metaBytes, err := metadata.Bytes()
	if err != nil {
		return fmt.Errorf("unitypackage: serializing metadata for %s: %w", entry.GUID(), err)
	}

	stream := entry.stream
	entry.consume()
	source, size, err := sizedSource(stream)
	if err != nil {
		return fmt.Errorf("unitypackage: sizing data for %s: %w", entry.GUID(), err)
	}

	prefix := entry.GUID().String() + "/"
	if err := w.writeDirectory(prefix); err != nil {
		return err
	}
	if err := w.writeFile(prefix+recordAsset, source, size); err != nil {
		return err
	}
	if err := w.writeBytes(prefix+recordMetadata, metaBytes); err != nil {
		return err
	}
	if err := w.writeBytes(prefix+recordPathname, []byte(metadata.PathName())); err != nil {
		return err
	}

	w.entries++
	w.logger.Debug("wrote entry",
		"guid", entry.GUID().String(),
		"path", metadata.PathName(),
		"size", size,
	)
	return nil
}

// WriteFolder emits a folder group (directory, asset.meta, pathname)
// for a project directory's metadata. Unity uses these to restore
// folder GUIDs; Reader skips them.
func (w *Writer) WriteFolder(metadata *unity.Metadata) error {
	if w.closed {
		return ErrClosed
	}
	if metadata == nil {
		return ErrMissingMetadata
	}
	metaBytes, err := metadata.Bytes()
	if err != nil {
		return fmt.Errorf("unitypackage: serializing folder metadata for %s: %w", metadata.GUID(), err)
	}

	prefix := metadata.GUID().String() + "/"
	if err := w.writeDirectory(prefix); err != nil {
		return err
	}
	if err := w.writeBytes(prefix+recordMetadata, metaBytes); err != nil {
		return err
	}
	if err := w.writeBytes(prefix+recordPathname, []byte(metadata.PathName())); err != nil {
		return err
	}

	w.folders++
	w.logger.Debug("wrote folder", "guid", metadata.GUID().String(), "path", metadata.PathName())
	return nil
}

// Close writes the archive trailer, finishes the compression frame,
// and closes the destination unless LeaveOpen was set. A destination
// that is left open but has a Flush method is flushed. A second Close
// returns ErrClosed.
func (w *Writer) Close() error {
	if w.closed {
		return ErrClosed
	}
	w.closed = true

	var errs []error
	if err := w.archive.Close(); err != nil {
		errs = append(errs, fmt.Errorf("unitypackage: finishing archive: %w", err))
	}
	if err := w.compressor.Close(); err != nil {
		errs = append(errs, fmt.Errorf("unitypackage: finishing compression: %w", err))
	}

	if w.leaveOpen {
		if flusher, ok := w.destination.(interface{ Flush() error }); ok {
			if err := flusher.Flush(); err != nil {
				errs = append(errs, fmt.Errorf("unitypackage: flushing destination: %w", err))
			}
		}
	} else if closer, ok := w.destination.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("unitypackage: closing destination: %w", err))
		}
	}

	w.logger.Debug("container closed", "entries", w.entries, "folders", w.folders)
	return errors.Join(errs...)
}

func (w *Writer) writeDirectory(name string) error {
	header := &tar.Header{
		Typeflag: tar.TypeDir,
		Name:     name,
		Mode:     directoryMode,
		ModTime:  w.modTime,
		Format:   tar.FormatGNU,
	}
	if err := w.archive.WriteHeader(header); err != nil {
		return fmt.Errorf("unitypackage: writing record %q: %w", name, err)
	}
	return nil
}

func (w *Writer) writeFile(name string, source io.Reader, size int64) error {
	header := &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     name,
		Size:     size,
		Mode:     fileMode,
		ModTime:  w.modTime,
		Format:   tar.FormatGNU,
	}
	if err := w.archive.WriteHeader(header); err != nil {
		return fmt.Errorf("unitypackage: writing record %q: %w", name, err)
	}
	written, err := io.CopyN(w.archive, source, size)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("unitypackage: record %q: data ended after %d of %d bytes", name, written, size)
		}
		return fmt.Errorf("unitypackage: writing record %q: %w", name, err)
	}
	return nil
}

func (w *Writer) writeBytes(name string, data []byte) error {
	return w.writeFile(name, bytes.NewReader(data), int64(len(data)))
}

// sizedSource returns a reader over the stream's remaining bytes and
// their count. Tar headers carry the size up front, so a stream of
// unknown length is buffered.
func sizedSource(stream *dataStream) (io.Reader, int64, error) {
	source := stream.source
	if stream.size >= 0 {
		return source, stream.size, nil
	}

	switch typed := source.(type) {
	case interface{ Len() int }:
		return source, int64(typed.Len()), nil
	case *os.File:
		if size, ok := remainingFileSize(typed); ok {
			return source, size, nil
		}
	}

	var buffer bytes.Buffer
	if _, err := io.Copy(&buffer, source); err != nil {
		return nil, 0, err
	}
	return &buffer, int64(buffer.Len()), nil
}

func remainingFileSize(file *os.File) (int64, bool) {
	info, err := file.Stat()
	if err != nil || !info.Mode().IsRegular() {
		return 0, false
	}
	offset, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, false
	}
	return info.Size() - offset, true
}
