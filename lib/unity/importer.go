// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package unity

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/bureau-foundation/unitypackage/lib/yamldoc"
)

// Importer subtree keys shared by every importer kind.
const (
	keyExternalObjects    = "externalObjects"
	keyUserData           = "userData"
	keyAssetBundleName    = "assetBundleName"
	keyAssetBundleVariant = "assetBundleVariant"

	// ScriptedImporterKey is the metadata key holding a scripted
	// importer's settings.
	ScriptedImporterKey = "ScriptedImporter"

	// ScriptFileID is the local file ID Unity assigns to the MonoScript
	// object inside a .cs asset.
	ScriptFileID = "11500000"
)

// Importer edits the importer subtree of a Metadata document, such as
// TextureImporter or ScriptedImporter. It writes through to the
// metadata it was created from.
type Importer struct {
	metadata *Metadata
	key      string
}

// NewAssetImporter attaches settings for one of Unity's built-in
// importers. builtInType is the importer's class name, for example
// "TextureImporter". An existing subtree under that key is reused.
func NewAssetImporter(metadata *Metadata, builtInType string) (*Importer, error) {
	if metadata == nil {
		return nil, errors.New("unity: asset importer requires metadata")
	}
	if strings.TrimSpace(builtInType) == "" {
		return nil, errors.New("unity: asset importer type is empty")
	}
	if isReserved(builtInType) {
		return nil, fmt.Errorf("%w: %s", ErrReservedKey, builtInType)
	}
	metadata.subtree(builtInType)
	return &Importer{metadata: metadata, key: builtInType}, nil
}

// NewScriptedImporter attaches a ScriptedImporter subtree pointing at
// the importer script with the given GUID. Any existing ScriptedImporter
// subtree is replaced.
func NewScriptedImporter(metadata *Metadata, importerScript GUID) (*Importer, error) {
	if metadata == nil {
		return nil, errors.New("unity: scripted importer requires metadata")
	}

	script := yamldoc.NewMapping()
	script.SetScalar("fileID", ScriptFileID)
	script.SetScalar("guid", importerScript.String())

	root := yamldoc.NewMapping()
	root.Set(keyExternalObjects, yamldoc.NewMapping())
	root.SetScalar(keyUserData, "")
	root.SetScalar(keyAssetBundleName, "")
	root.SetScalar(keyAssetBundleVariant, "")
	root.Set("script", script)

	metadata.root.Set(ScriptedImporterKey, root)
	return &Importer{metadata: metadata, key: ScriptedImporterKey}, nil
}

// Key returns the metadata key this importer edits.
func (i *Importer) Key() string { return i.key }

// Set stores a setting in the importer subtree.
func (i *Importer) Set(key string, node yamldoc.Node) {
	i.metadata.subtree(i.key).Set(key, node)
}

// SetScalar stores a plain scalar setting in the importer subtree.
func (i *Importer) SetScalar(key, value string) {
	i.Set(key, yamldoc.NewScalar(value))
}

// Get returns a copy of a setting from the importer subtree.
func (i *Importer) Get(key string) (yamldoc.Node, bool) {
	node, ok := i.metadata.subtree(i.key).Get(key)
	if !ok {
		return nil, false
	}
	return node.CloneNode(), true
}

// WriteUserData serializes userData as JSON into the importer's
// userData field, where an AssetPostprocessor can read it back.
func (i *Importer) WriteUserData(userData map[string]any) error {
	if userData == nil {
		return errors.New("unity: user data is nil")
	}
	encoded, err := json.Marshal(userData)
	if err != nil {
		return fmt.Errorf("encoding importer user data: %w", err)
	}
	i.SetScalar(keyUserData, string(encoded))
	return nil
}

// ReadUserData decodes the JSON stored by WriteUserData. An absent or
// empty userData field yields an empty map.
func (i *Importer) ReadUserData() (map[string]any, error) {
	text, _ := i.metadata.subtree(i.key).ScalarValue(keyUserData)
	userData := map[string]any{}
	if text == "" {
		return userData, nil
	}
	if err := json.Unmarshal([]byte(text), &userData); err != nil {
		return nil, fmt.Errorf("decoding importer user data: %w", err)
	}
	return userData, nil
}
