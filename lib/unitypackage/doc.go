// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package unitypackage reads and writes Unity's .unitypackage
// container: a compressed tar archive holding one record group per
// asset.
//
// After decompression every asset occupies four consecutive records:
//
//	<guid>/            directory
//	<guid>/asset       raw asset bytes
//	<guid>/asset.meta  YAML metadata document
//	<guid>/pathname    UTF-8 project-relative path
//
// where <guid> is the asset's 32-digit hexadecimal identifier. Folder
// groups (a directory record followed by asset.meta and pathname, with
// no asset) and stray non-directory records may appear between asset
// groups; the [Reader] skips both.
//
// The archive is consumed as a forward-only stream. [Reader.Next]
// yields an [Entry] whose data reader is positioned on the asset
// record; [Reader.Metadata] must then be called for that same entry
// before the next call to Next. Reading metadata moves past the asset
// record, so the entry's data becomes [DataConsumed] and any further
// read through it fails with [ErrDataConsumed].
//
// [Writer.WriteEntry] emits the four-record group for an entry that
// carries both data and metadata. The whole archive is framed with gzip
// by default, which is what Unity reads; zstd, lz4, and uncompressed
// framings are available for tooling pipelines, and the Reader detects
// all of them from their magic bytes.
//
// Readers and writers are not safe for concurrent use. Independent
// instances share no state.
//
// Above the codec, [CreateFromDirectory] and [ExtractToDirectory]
// convert between containers and project trees on any billy
// filesystem, and [Inspect] produces a content-addressed [Manifest].
package unitypackage
