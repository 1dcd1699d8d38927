// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package unitypackage

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/unitypackage/lib/codec"
	"github.com/bureau-foundation/unitypackage/lib/unity"
)

// Digest is a 32-byte keyed BLAKE3 hash of an asset's data or of its
// serialized metadata.
type Digest [32]byte

// String returns the lowercase hex encoding.
func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// IsZero reports whether d is the zero digest.
func (d Digest) IsZero() bool { return d == Digest{} }

// MarshalText implements encoding.TextMarshaler.
func (d Digest) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Digest) UnmarshalText(text []byte) error {
	parsed, err := ParseDigest(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDigest parses 64 hex characters.
func ParseDigest(text string) (Digest, error) {
	var d Digest
	if len(text) != hex.EncodedLen(len(d)) {
		return Digest{}, fmt.Errorf("unitypackage: digest %q: want %d hex characters", text, hex.EncodedLen(len(d)))
	}
	if _, err := hex.Decode(d[:], []byte(text)); err != nil {
		return Digest{}, fmt.Errorf("unitypackage: digest %q: %w", text, err)
	}
	return d, nil
}

// Domain keys separate asset digests from metadata digests, so equal
// bytes hash differently in each role. The bytes are the ASCII domain
// name, zero-padded to 32.
var (
	assetDomainKey = [32]byte{
		'u', 'n', 'i', 't', 'y', 'p', 'a', 'c', 'k', 'a', 'g', 'e', '.', 'a', 's', 's',
		'e', 't', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	metadataDomainKey = [32]byte{
		'u', 'n', 'i', 't', 'y', 'p', 'a', 'c', 'k', 'a', 'g', 'e', '.', 'm', 'e', 't',
		'a', 'd', 'a', 't', 'a', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
)

func newHasher(key [32]byte) *blake3.Hasher {
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		// Only reachable with a key that is not 32 bytes.
		panic("unitypackage: blake3 keyed hasher: " + err.Error())
	}
	return hasher
}

func sumHasher(hasher *blake3.Hasher) Digest {
	var d Digest
	copy(d[:], hasher.Sum(nil))
	return d
}

// HashAsset returns the asset-domain digest of r's remaining bytes and
// how many there were.
func HashAsset(r io.Reader) (Digest, int64, error) {
	hasher := newHasher(assetDomainKey)
	size, err := io.Copy(hasher, r)
	if err != nil {
		return Digest{}, size, err
	}
	return sumHasher(hasher), size, nil
}

// HashMetadata returns the metadata-domain digest of the metadata's
// serialized form.
func HashMetadata(metadata *unity.Metadata) (Digest, error) {
	data, err := metadata.Bytes()
	if err != nil {
		return Digest{}, err
	}
	hasher := newHasher(metadataDomainKey)
	hasher.Write(data)
	return sumHasher(hasher), nil
}

// Manifest summarizes a container without extracting it. Two containers
// with equal manifests hold the same assets with the same metadata at
// the same paths, regardless of compression or record timestamps.
type Manifest struct {
	Compression    Compression     `json:"compression" cbor:"compression"`
	Entries        []ManifestEntry `json:"entries" cbor:"entries"`
	FoldersSkipped int             `json:"folders_skipped" cbor:"folders_skipped"`
}

// ManifestEntry describes one entry of a Manifest.
type ManifestEntry struct {
	GUID           unity.GUID `json:"guid" cbor:"guid"`
	PathName       string     `json:"path" cbor:"path"`
	Size           int64      `json:"size" cbor:"size"`
	Digest         Digest     `json:"digest" cbor:"digest"`
	MetadataDigest Digest     `json:"metadata_digest" cbor:"metadata_digest"`

	// SourceGUID is set when the entry's metadata document declared a
	// guid other than the container's.
	SourceGUID string `json:"source_guid,omitempty" cbor:"source_guid,omitempty"`
}

// Inspect reads the whole container from source and returns its
// manifest. Entry data is streamed through the hasher and never
// buffered.
func Inspect(source io.Reader, options ReaderOptions) (*Manifest, error) {
	reader, err := NewReader(source, options)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	manifest := &Manifest{Compression: reader.Compression(), Entries: []ManifestEntry{}}
	for {
		entry, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		digest, size, err := HashAsset(entry.Data())
		if err != nil {
			return nil, fmt.Errorf("unitypackage: hashing %s: %w", entry.GUID(), err)
		}
		metadata, err := reader.Metadata(entry)
		if err != nil {
			return nil, err
		}
		metadataDigest, err := HashMetadata(metadata)
		if err != nil {
			return nil, fmt.Errorf("unitypackage: hashing metadata for %s: %w", entry.GUID(), err)
		}

		item := ManifestEntry{
			GUID:           entry.GUID(),
			PathName:       metadata.PathName(),
			Size:           size,
			Digest:         digest,
			MetadataDigest: metadataDigest,
		}
		if source := metadata.SourceGUID(); source != "" && !strings.EqualFold(source, entry.GUID().String()) {
			item.SourceGUID = source
		}
		manifest.Entries = append(manifest.Entries, item)
	}
	manifest.FoldersSkipped = reader.FoldersSkipped()
	return manifest, nil
}

// EncodeCBOR returns the manifest in deterministic CBOR. Equal
// manifests encode to identical bytes.
func (m *Manifest) EncodeCBOR() ([]byte, error) {
	return codec.Marshal(m)
}

// DecodeManifest parses a manifest produced by EncodeCBOR.
func DecodeManifest(data []byte) (*Manifest, error) {
	var manifest Manifest
	if err := codec.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("unitypackage: decoding manifest: %w", err)
	}
	return &manifest, nil
}

// Lookup returns the entry for guid.
func (m *Manifest) Lookup(guid unity.GUID) (ManifestEntry, bool) {
	for _, entry := range m.Entries {
		if entry.GUID == guid {
			return entry, true
		}
	}
	return ManifestEntry{}, false
}
