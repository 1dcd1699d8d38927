// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package unity

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/bureau-foundation/unitypackage/lib/yamldoc"
)

// The two fixed lines that open every text-serialized Unity asset.
const (
	yamlDirective = "%YAML 1.1"
	tagDirective  = "%TAG !u! tag:unity3d.com,2011:"
	classTag      = "!u!"
)

// Asset is a YAML-serialized Unity asset: a class/object header line
// followed by a mapping body.
type Asset struct {
	// ClassID is the engine type written after "!u!" in the header.
	ClassID ClassID

	// ObjectID identifies the object within the file and must start
	// with '&', for example "&11400000".
	ObjectID string

	root *yamldoc.Mapping
}

// NewAsset returns an asset with an empty body.
func NewAsset(classID ClassID, objectID string) *Asset {
	return &Asset{ClassID: classID, ObjectID: objectID, root: yamldoc.NewMapping()}
}

// Root returns the body mapping. Callers populate it directly.
func (a *Asset) Root() *yamldoc.Mapping {
	if a.root == nil {
		a.root = yamldoc.NewMapping()
	}
	return a.root
}

// Header returns the class/object header line without a newline.
func (a *Asset) Header() string {
	return fmt.Sprintf("--- %s%d %s", classTag, uint32(a.ClassID), a.ObjectID)
}

// Save writes the three header lines and the body. The output is
// assembled in memory first, so on any error nothing reaches w.
func (a *Asset) Save(w io.Writer) error {
	data, err := a.Bytes()
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing asset: %w", err)
	}
	return nil
}

// Bytes returns the serialized asset.
func (a *Asset) Bytes() ([]byte, error) {
	if err := validateObjectID(a.ObjectID); err != nil {
		return nil, err
	}

	var buffer bytes.Buffer
	buffer.WriteString(yamlDirective + "\n")
	buffer.WriteString(tagDirective + "\n")
	buffer.WriteString(a.Header() + "\n")
	if err := yamldoc.NewDocument(a.Root()).Save(&buffer); err != nil {
		return nil, fmt.Errorf("serializing asset body: %w", err)
	}
	return buffer.Bytes(), nil
}

// Reader returns the serialized asset as a sized reader, suitable as an
// entry's data stream.
func (a *Asset) Reader() (*bytes.Reader, error) {
	data, err := a.Bytes()
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

// LoadAsset parses a serialized asset. The first two lines are skipped
// without validation; the third must be "--- !u!<classID> &<objectID>"
// or the load fails with [ErrInvalidHeader]. A missing body yields an
// empty mapping.
func LoadAsset(r io.Reader) (*Asset, error) {
	reader := bufio.NewReader(r)

	var header string
	for line := range 3 {
		text, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || text == "") {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: stream ends after %d lines", ErrInvalidHeader, line)
			}
			return nil, fmt.Errorf("reading asset header: %w", err)
		}
		header = text
	}

	classID, objectID, err := parseHeader(strings.TrimSpace(header))
	if err != nil {
		return nil, err
	}

	asset := &Asset{ClassID: classID, ObjectID: objectID}
	document, err := yamldoc.Load(reader)
	switch {
	case errors.Is(err, yamldoc.ErrNoDocument):
		asset.root = yamldoc.NewMapping()
		return asset, nil
	case err != nil:
		return nil, fmt.Errorf("reading asset body: %w", err)
	}

	root, err := document.RootMapping()
	if err != nil {
		return nil, fmt.Errorf("reading asset body: %w", err)
	}
	asset.root = root
	return asset, nil
}

func parseHeader(line string) (ClassID, string, error) {
	tokens := strings.Split(line, " ")
	if len(tokens) != 3 {
		return 0, "", fmt.Errorf("%w: %q has %d tokens, want 3", ErrInvalidHeader, line, len(tokens))
	}
	if tokens[0] != "---" {
		return 0, "", fmt.Errorf("%w: %q does not start with \"---\"", ErrInvalidHeader, line)
	}

	digits, ok := strings.CutPrefix(tokens[1], classTag)
	if !ok || digits == "" || strings.TrimLeft(digits, "0123456789") != "" {
		return 0, "", fmt.Errorf("%w: class tag %q is not %s<digits>", ErrInvalidHeader, tokens[1], classTag)
	}
	classID, err := strconv.ParseUint(digits, 10, 32)
	if err != nil {
		return 0, "", fmt.Errorf("%w: class ID %q: %v", ErrInvalidHeader, digits, err)
	}

	objectID := tokens[2]
	if len(objectID) < 2 || objectID[0] != '&' {
		return 0, "", fmt.Errorf("%w: object ID %q is not &<id>", ErrInvalidHeader, objectID)
	}
	return ClassID(classID), objectID, nil
}

func validateObjectID(objectID string) error {
	switch {
	case objectID == "":
		return ErrMissingObjectID
	case objectID[0] != '&' || len(objectID) == 1:
		return fmt.Errorf("%w: got %q", ErrMissingObjectID, objectID)
	case strings.ContainsFunc(objectID, unicode.IsSpace):
		return fmt.Errorf("%w: %q contains whitespace", ErrMissingObjectID, objectID)
	}
	return nil
}
