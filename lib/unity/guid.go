// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package unity

import (
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// GUIDLength is the length of a GUID's canonical text form.
const GUIDLength = 32

// GUID is the 128-bit identifier Unity assigns to every asset. Its
// canonical text form is 32 lowercase hexadecimal digits with no
// separators.
type GUID [16]byte

// NewGUID returns a random (version 4) GUID.
func NewGUID() GUID {
	return GUID(uuid.New())
}

// ParseGUID parses the 32-digit hexadecimal form. Upper-case digits are
// accepted; the hyphenated UUID form is not, since Unity never writes
// it.
func ParseGUID(text string) (GUID, error) {
	if len(text) != GUIDLength {
		return GUID{}, fmt.Errorf("%w: %q is %d characters, want %d hex digits",
			ErrInvalidIdentifier, text, len(text), GUIDLength)
	}
	parsed, err := uuid.Parse(text)
	if err != nil {
		return GUID{}, fmt.Errorf("%w: %q: %v", ErrInvalidIdentifier, text, err)
	}
	return GUID(parsed), nil
}

// MustParseGUID is ParseGUID for literals. It panics on invalid input.
func MustParseGUID(text string) GUID {
	guid, err := ParseGUID(text)
	if err != nil {
		panic(err)
	}
	return guid
}

// String returns the canonical form.
func (g GUID) String() string {
	return hex.EncodeToString(g[:])
}

// IsZero reports whether g is the all-zero GUID.
func (g GUID) IsZero() bool {
	return g == GUID{}
}

// MarshalText implements encoding.TextMarshaler so GUIDs serialize as
// their canonical string in JSON, CBOR, and YAML.
func (g GUID) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *GUID) UnmarshalText(text []byte) error {
	parsed, err := ParseGUID(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}
