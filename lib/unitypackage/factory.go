// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package unitypackage

import (
	"fmt"
	"io"

	"github.com/bureau-foundation/unitypackage/lib/unity"
)

// NewEmptyEntry returns an entry with a fresh GUID and metadata for
// pathName, for example "Assets/Textures/Grass.png". The caller
// attaches data with SetData.
func NewEmptyEntry(pathName string) *Entry {
	metadata := unity.NewMetadata(unity.NewGUID())
	metadata.SetPathName(pathName)
	entry := NewEntry(metadata.GUID())
	entry.SetMetadata(metadata)
	return entry
}

// Combine returns an entry whose data is the serialized asset and whose
// metadata (and therefore GUID) is metadata.
func Combine(asset *unity.Asset, metadata *unity.Metadata) (*Entry, error) {
	data, err := asset.Reader()
	if err != nil {
		return nil, fmt.Errorf("unitypackage: serializing asset %s: %w", metadata.PathName(), err)
	}
	entry := NewEntry(metadata.GUID())
	entry.SetData(data)
	entry.SetMetadata(metadata)
	return entry, nil
}

// EntryFromMetadata reads a .meta document and returns an entry keyed by
// the GUID it declares, with pathName attached. The caller attaches
// data with SetData.
func EntryFromMetadata(pathName string, r io.Reader) (*Entry, error) {
	metadata, err := unity.ReadMetadata(r)
	if err != nil {
		return nil, fmt.Errorf("unitypackage: metadata for %s: %w", pathName, err)
	}
	metadata.SetPathName(pathName)
	entry := NewEntry(metadata.GUID())
	entry.SetMetadata(metadata)
	return entry, nil
}

// Builder collects entries for a container written in one pass.
type Builder struct {
	entries []*Entry
}

// NewEmptyEntry adds and returns an entry made by the package-level
// NewEmptyEntry.
func (b *Builder) NewEmptyEntry(pathName string) *Entry {
	entry := NewEmptyEntry(pathName)
	b.entries = append(b.entries, entry)
	return entry
}

// Add appends an entry.
func (b *Builder) Add(entry *Entry) {
	b.entries = append(b.entries, entry)
}

// Entries returns the collected entries in order.
func (b *Builder) Entries() []*Entry {
	return b.entries
}

// WriteAll writes every collected entry to writer in order. It stops at
// the first failure.
func (b *Builder) WriteAll(writer *Writer) error {
	for _, entry := range b.entries {
		if err := writer.WriteEntry(entry); err != nil {
			return err
		}
	}
	return nil
}
