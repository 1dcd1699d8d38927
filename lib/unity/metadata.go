// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package unity

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/bureau-foundation/unitypackage/lib/yamldoc"
)

const (
	// KeyFileFormatVersion and KeyGUID are the reserved identity keys
	// every metadata document starts with.
	KeyFileFormatVersion = "fileFormatVersion"
	KeyGUID              = "guid"

	// FileFormatVersion is the only .meta format version Unity writes.
	FileFormatVersion = "2"

	// MetaExtension is the suffix of a sidecar file's name.
	MetaExtension = ".meta"
)

// Metadata is an asset's .meta sidecar document. The root mapping
// always starts with fileFormatVersion and guid holding canonical
// values for the Metadata's GUID.
type Metadata struct {
	guid       GUID
	pathName   string
	root       *yamldoc.Mapping
	sourceGUID string
}

// NewMetadata returns metadata for guid with only the two identity
// keys.
func NewMetadata(guid GUID) *Metadata {
	metadata := &Metadata{guid: guid, root: yamldoc.NewMapping()}
	metadata.normalize()
	return metadata
}

// ReadMetadata parses a .meta document and takes its identity from the
// document's guid key.
//
// A stream with no YAML document is not an error: the result is fresh
// metadata with a newly generated GUID. A document whose root is not a
// mapping fails with [ErrMalformedMetadata], one without a guid key
// with [ErrMissingIdentifier], and one whose guid is not 32 hex digits
// with [ErrInvalidIdentifier].
func ReadMetadata(r io.Reader) (*Metadata, error) {
	document, err := yamldoc.Load(r)
	if errors.Is(err, yamldoc.ErrNoDocument) {
		return NewMetadata(NewGUID()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading metadata: %w", err)
	}

	root, err := document.RootMapping()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedMetadata, err)
	}

	if !root.Has(KeyGUID) {
		return nil, ErrMissingIdentifier
	}
	text, ok := root.ScalarValue(KeyGUID)
	if !ok {
		return nil, fmt.Errorf("%w: guid is not a scalar", ErrInvalidIdentifier)
	}
	guid, err := ParseGUID(text)
	if err != nil {
		return nil, err
	}

	metadata := &Metadata{guid: guid, root: root, sourceGUID: text}
	metadata.normalize()
	return metadata, nil
}

// ReadMetadataFor parses a .meta document whose identity is already
// known from context, such as the GUID directory it was stored under.
// The contextual GUID always wins: any guid in the document is
// overwritten, and the original text is kept in [Metadata.SourceGUID].
// A stream with no YAML document yields fresh metadata for guid.
func ReadMetadataFor(r io.Reader, guid GUID) (*Metadata, error) {
	document, err := yamldoc.Load(r)
	if errors.Is(err, yamldoc.ErrNoDocument) {
		return NewMetadata(guid), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading metadata for %s: %w", guid, err)
	}

	root, err := document.RootMapping()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedMetadata, err)
	}

	metadata := &Metadata{guid: guid, root: root}
	metadata.sourceGUID, _ = root.ScalarValue(KeyGUID)
	metadata.normalize()
	return metadata, nil
}

// normalize writes the canonical identity values. Missing keys are
// inserted at the front in fixed order; existing keys are replaced
// where they stand.
func (m *Metadata) normalize() {
	m.root.Insert(0, KeyFileFormatVersion, yamldoc.NewScalar(FileFormatVersion))
	m.root.Insert(1, KeyGUID, yamldoc.NewScalar(m.guid.String()))
}

// GUID returns the asset identifier.
func (m *Metadata) GUID() GUID { return m.guid }

// SourceGUID returns the guid text found in the loaded document before
// normalization. It is empty for freshly constructed metadata and for
// documents that had no scalar guid. When it differs from GUID().String()
// the document's identifier was overwritten.
func (m *Metadata) SourceGUID() string { return m.sourceGUID }

// PathName returns the project-relative path of the asset, such as
// "Assets/Sprites/Square.png".
func (m *Metadata) PathName() string { return m.pathName }

// SetPathName sets the project-relative path of the asset.
func (m *Metadata) SetPathName(pathName string) { m.pathName = pathName }

// Keys returns the top-level keys in document order.
func (m *Metadata) Keys() []string { return m.root.Keys() }

// Get returns a copy of the node stored under key.
func (m *Metadata) Get(key string) (yamldoc.Node, bool) {
	node, ok := m.root.Get(key)
	if !ok {
		return nil, false
	}
	return node.CloneNode(), true
}

// Set stores node under key, taking ownership of it. The identity keys
// are reserved and fail with [ErrReservedKey].
func (m *Metadata) Set(key string, node yamldoc.Node) error {
	if isReserved(key) {
		return fmt.Errorf("%w: %s", ErrReservedKey, key)
	}
	m.root.Set(key, node)
	return nil
}

// Delete removes key and reports whether it was present. The identity
// keys are reserved and fail with [ErrReservedKey].
func (m *Metadata) Delete(key string) (bool, error) {
	if isReserved(key) {
		return false, fmt.Errorf("%w: %s", ErrReservedKey, key)
	}
	return m.root.Delete(key), nil
}

// Document returns a deep copy of the metadata document.
func (m *Metadata) Document() *yamldoc.Document {
	return yamldoc.NewDocument(m.root.Clone())
}

// Clone returns an independent copy with the same identity, path name,
// and document content.
func (m *Metadata) Clone() *Metadata {
	return &Metadata{
		guid:       m.guid,
		pathName:   m.pathName,
		root:       m.root.Clone(),
		sourceGUID: m.sourceGUID,
	}
}

// Save writes the metadata document.
func (m *Metadata) Save(w io.Writer) error {
	return yamldoc.NewDocument(m.root).Save(w)
}

// Bytes returns the serialized metadata document.
func (m *Metadata) Bytes() ([]byte, error) {
	var buffer bytes.Buffer
	if err := m.Save(&buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// subtree returns the mapping under key, creating an empty one when the
// key is absent or holds another variant.
func (m *Metadata) subtree(key string) *yamldoc.Mapping {
	if mapping, ok := m.root.MappingAt(key); ok {
		return mapping
	}
	mapping := yamldoc.NewMapping()
	m.root.Set(key, mapping)
	return mapping
}

func isReserved(key string) bool {
	return key == KeyFileFormatVersion || key == KeyGUID
}
