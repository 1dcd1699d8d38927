// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package unitypackage

import "errors"

// Container structure errors returned by [Reader].
var (
	ErrUnexpectedRecordType  = errors.New("unitypackage: expected a regular file record")
	ErrMissingMetadataRecord = errors.New("unitypackage: missing asset.meta record")
	ErrMissingPathnameRecord = errors.New("unitypackage: missing pathname record")
	ErrNotCurrentEntry       = errors.New("unitypackage: entry is not the reader's current entry")
	ErrRecordTooLarge        = errors.New("unitypackage: record exceeds size limit")
)

// Entry validation errors returned by [Writer].
var (
	ErrMissingData        = errors.New("unitypackage: entry has no data")
	ErrMissingMetadata    = errors.New("unitypackage: entry has no metadata")
	ErrIdentifierMismatch = errors.New("unitypackage: entry guid does not match metadata guid")
)

// ErrClosed is returned by every Reader and Writer operation after
// Close.
var ErrClosed = errors.New("unitypackage: use of closed reader or writer")

// ErrDataConsumed is returned when reading an entry's data after the
// stream has been consumed, either by the reader advancing past it or
// by a writer copying it into an archive.
var ErrDataConsumed = errors.New("unitypackage: entry data already consumed")

// Directory conversion errors.
var (
	ErrMissingMetaFile = errors.New("unitypackage: asset has no .meta file")
	ErrDuplicatePath   = errors.New("unitypackage: duplicate asset path")
	ErrFileExists      = errors.New("unitypackage: destination file exists")
	ErrUnsafePath      = errors.New("unitypackage: path escapes destination")
)
