// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package unity

import (
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/bureau-foundation/unitypackage/lib/yamldoc"
)

func TestNewAssetImporter(t *testing.T) {
	metadata := NewMetadata(MustParseGUID(testGUIDText))

	importer, err := NewAssetImporter(metadata, "TextureImporter")
	if err != nil {
		t.Fatalf("NewAssetImporter: %v", err)
	}
	importer.SetScalar("serializedVersion", "12")
	if err := importer.WriteUserData(map[string]any{"atlas": "ui", "padding": 2}); err != nil {
		t.Fatalf("WriteUserData: %v", err)
	}

	data, err := metadata.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	reloaded, err := ReadMetadata(strings.NewReader(string(data)))
	if err != nil {
		t.Fatalf("ReadMetadata: %v\n%s", err, data)
	}

	again, err := NewAssetImporter(reloaded, "TextureImporter")
	if err != nil {
		t.Fatalf("NewAssetImporter(reloaded): %v", err)
	}
	version, ok := again.Get("serializedVersion")
	if !ok || version.(*yamldoc.Scalar).Value != "12" {
		t.Errorf("serializedVersion = %#v, want 12", version)
	}
	userData, err := again.ReadUserData()
	if err != nil {
		t.Fatalf("ReadUserData: %v", err)
	}
	if userData["atlas"] != "ui" || userData["padding"] != float64(2) {
		t.Errorf("userData = %v, want atlas=ui padding=2", userData)
	}
}

func TestNewAssetImporterValidation(t *testing.T) {
	metadata := NewMetadata(NewGUID())
	if _, err := NewAssetImporter(nil, "TextureImporter"); err == nil {
		t.Error("NewAssetImporter(nil) succeeded")
	}
	if _, err := NewAssetImporter(metadata, "  "); err == nil {
		t.Error("NewAssetImporter with blank type succeeded")
	}
	if _, err := NewAssetImporter(metadata, KeyGUID); !errors.Is(err, ErrReservedKey) {
		t.Errorf("NewAssetImporter(guid) error = %v, want ErrReservedKey", err)
	}
}

func TestNewScriptedImporter(t *testing.T) {
	metadata := NewMetadata(NewGUID())
	script := MustParseGUID(otherGUIDText)

	importer, err := NewScriptedImporter(metadata, script)
	if err != nil {
		t.Fatalf("NewScriptedImporter: %v", err)
	}
	if importer.Key() != ScriptedImporterKey {
		t.Errorf("Key() = %q, want %q", importer.Key(), ScriptedImporterKey)
	}

	node, ok := metadata.Get(ScriptedImporterKey)
	if !ok {
		t.Fatal("ScriptedImporter subtree missing")
	}
	subtree := node.(*yamldoc.Mapping)
	want := []string{"externalObjects", "userData", "assetBundleName", "assetBundleVariant", "script"}
	if got := subtree.Keys(); !slices.Equal(got, want) {
		t.Errorf("ScriptedImporter keys = %v, want %v", got, want)
	}
	reference, _ := subtree.MappingAt("script")
	if guid, _ := reference.ScalarValue("guid"); guid != otherGUIDText {
		t.Errorf("script guid = %q, want %q", guid, otherGUIDText)
	}
	if fileID, _ := reference.ScalarValue("fileID"); fileID != ScriptFileID {
		t.Errorf("script fileID = %q, want %q", fileID, ScriptFileID)
	}

	userData, err := importer.ReadUserData()
	if err != nil || len(userData) != 0 {
		t.Errorf("ReadUserData on fresh importer = %v, %v; want empty, nil", userData, err)
	}
}

func TestNewScriptableObject(t *testing.T) {
	script := MustParseGUID(testGUIDText)
	scriptable := NewScriptableObject("Assets/Fruits/Apple.asset", script)

	if scriptable.Asset.ClassID != ClassMonoBehaviour || scriptable.Asset.ObjectID != ScriptableObjectID {
		t.Errorf("asset header = %q, want --- !u!114 &11400000", scriptable.Asset.Header())
	}
	if name, _ := scriptable.Behaviour.ScalarValue("m_Name"); name != "Apple" {
		t.Errorf("m_Name = %q, want Apple", name)
	}
	reference, _ := scriptable.Behaviour.MappingAt("m_Script")
	if guid, _ := reference.ScalarValue("guid"); guid != testGUIDText {
		t.Errorf("m_Script guid = %q, want %q", guid, testGUIDText)
	}

	behaviour, ok := scriptable.Asset.Root().MappingAt("MonoBehaviour")
	if !ok || behaviour != scriptable.Behaviour {
		t.Error("Behaviour is not the asset's MonoBehaviour mapping")
	}

	if scriptable.Metadata.PathName() != "Assets/Fruits/Apple.asset" {
		t.Errorf("PathName() = %q", scriptable.Metadata.PathName())
	}
	if got, want := scriptable.Metadata.Keys(), []string{KeyFileFormatVersion, KeyGUID, NativeFormatImporterKey}; !slices.Equal(got, want) {
		t.Errorf("metadata keys = %v, want %v", got, want)
	}

	data, err := scriptable.Asset.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	for _, fragment := range []string{
		"--- !u!114 &11400000\n",
		"m_GameObject: {fileID: 0}\n",
		"m_Script: {fileID: 11500000, guid: " + testGUIDText + ", type: 3}\n",
	} {
		if !strings.Contains(string(data), fragment) {
			t.Errorf("serialized asset lacks %q:\n%s", fragment, data)
		}
	}
}
