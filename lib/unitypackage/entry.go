// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package unitypackage

import (
	"fmt"
	"io"

	"github.com/bureau-foundation/unitypackage/lib/unity"
)

// DataState describes an entry's data stream.
type DataState uint8

const (
	// DataAbsent means the entry has no data stream.
	DataAbsent DataState = iota

	// DataFresh means the data stream has not been consumed by a reader
	// or writer and may still be read.
	DataFresh

	// DataConsumed means the stream was consumed. Reads through a
	// reader previously returned by Entry.Data fail with
	// ErrDataConsumed.
	DataConsumed
)

// String returns the lowercase state name.
func (s DataState) String() string {
	switch s {
	case DataAbsent:
		return "absent"
	case DataFresh:
		return "fresh"
	case DataConsumed:
		return "consumed"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// dataStream is one attached data source. Guards handed out by
// Entry.Data share it, so consuming the stream invalidates them all.
type dataStream struct {
	source   io.Reader
	size     int64 // -1 when unknown
	consumed bool
}

func (s *dataStream) Read(buffer []byte) (int, error) {
	if s.consumed {
		return 0, ErrDataConsumed
	}
	return s.source.Read(buffer)
}

// Entry is one asset in a container: its GUID, a single-pass data
// stream, and its metadata. Either of the latter two may be absent.
//
// An Entry is not safe for concurrent use.
type Entry struct {
	guid     unity.GUID
	stream   *dataStream
	metadata *unity.Metadata
}

// NewEntry returns an entry for guid with neither data nor metadata.
func NewEntry(guid unity.GUID) *Entry {
	return &Entry{guid: guid}
}

// GUID returns the entry's identifier.
func (e *Entry) GUID() unity.GUID { return e.guid }

// Data returns the entry's data stream, or nil when the entry has none.
// The returned reader fails with ErrDataConsumed once the entry's data
// is consumed.
func (e *Entry) Data() io.Reader {
	if e.stream == nil {
		return nil
	}
	return e.stream
}

// SetData attaches a data stream, replacing (and consuming) any
// previous one. A nil reader detaches the data. The entry reads from r
// but never closes it.
func (e *Entry) SetData(r io.Reader) {
	e.attach(r, -1)
}

// DataState reports whether the entry has data and whether it can
// still be read.
func (e *Entry) DataState() DataState {
	switch {
	case e.stream == nil:
		return DataAbsent
	case e.stream.consumed:
		return DataConsumed
	default:
		return DataFresh
	}
}

// Metadata returns the attached metadata, or nil.
func (e *Entry) Metadata() *unity.Metadata { return e.metadata }

// SetMetadata attaches metadata. The entry takes ownership.
func (e *Entry) SetMetadata(metadata *unity.Metadata) { e.metadata = metadata }

func (e *Entry) attach(r io.Reader, size int64) {
	e.consume()
	if r == nil {
		e.stream = nil
		return
	}
	e.stream = &dataStream{source: r, size: size}
}

// consume marks the current stream consumed. The stream stays attached
// so DataState reports DataConsumed rather than DataAbsent.
func (e *Entry) consume() {
	if e.stream != nil {
		e.stream.consumed = true
	}
}
