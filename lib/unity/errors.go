// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package unity

import "errors"

var (
	// ErrMalformedMetadata is returned when a metadata document parses
	// but its root is not a mapping.
	ErrMalformedMetadata = errors.New("unity: malformed metadata")

	// ErrMissingIdentifier is returned when a non-empty metadata
	// document has no guid key.
	ErrMissingIdentifier = errors.New("unity: metadata has no guid")

	// ErrInvalidIdentifier is returned for text that is not a
	// 32-digit hexadecimal GUID.
	ErrInvalidIdentifier = errors.New("unity: invalid guid")

	// ErrReservedKey is returned when a caller tries to set or delete
	// fileFormatVersion or guid through the Metadata API.
	ErrReservedKey = errors.New("unity: reserved metadata key")

	// ErrInvalidHeader is returned when an asset's third line is not
	// "--- !u!<classID> &<objectID>".
	ErrInvalidHeader = errors.New("unity: invalid asset header")

	// ErrMissingObjectID is returned by Asset.Save when the object ID is
	// empty or malformed.
	ErrMissingObjectID = errors.New("unity: asset object ID must be set and start with '&'")
)
