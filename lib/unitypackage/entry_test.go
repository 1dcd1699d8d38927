// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package unitypackage

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/bureau-foundation/unitypackage/lib/unity"
)

func TestEntryDataStates(t *testing.T) {
	entry := NewEntry(unity.MustParseGUID(squareGUIDText))
	if entry.DataState() != DataAbsent {
		t.Errorf("new entry DataState = %s, want absent", entry.DataState())
	}
	if entry.Data() != nil {
		t.Error("new entry has a data stream")
	}
	if entry.Metadata() != nil {
		t.Error("new entry has metadata")
	}

	entry.SetData(strings.NewReader("first"))
	if entry.DataState() != DataFresh {
		t.Errorf("DataState = %s, want fresh", entry.DataState())
	}
	first := entry.Data()

	entry.SetData(strings.NewReader("second"))
	if _, err := first.Read(make([]byte, 1)); !errors.Is(err, ErrDataConsumed) {
		t.Errorf("replaced stream: got %v, want ErrDataConsumed", err)
	}
	content, err := io.ReadAll(entry.Data())
	if err != nil {
		t.Fatalf("reading replacement: %v", err)
	}
	if string(content) != "second" {
		t.Errorf("data = %q, want second", content)
	}

	entry.SetData(nil)
	if entry.DataState() != DataAbsent {
		t.Errorf("DataState after SetData(nil) = %s, want absent", entry.DataState())
	}
}

func TestEntryMetadata(t *testing.T) {
	guid := unity.MustParseGUID(squareGUIDText)
	entry := NewEntry(guid)
	metadata := unity.NewMetadata(guid)
	entry.SetMetadata(metadata)
	if entry.Metadata() != metadata {
		t.Error("Metadata did not return the attached value")
	}
	entry.SetMetadata(nil)
	if entry.Metadata() != nil {
		t.Error("SetMetadata(nil) did not detach")
	}
}

func TestDataStateString(t *testing.T) {
	tests := map[DataState]string{
		DataAbsent:    "absent",
		DataFresh:     "fresh",
		DataConsumed:  "consumed",
		DataState(99): "unknown(99)",
	}
	for state, want := range tests {
		if got := state.String(); got != want {
			t.Errorf("DataState(%d).String() = %q, want %q", uint8(state), got, want)
		}
	}
}
