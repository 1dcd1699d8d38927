// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package unity

import (
	"path"
	"strings"

	"github.com/bureau-foundation/unitypackage/lib/yamldoc"
)

const (
	// ScriptableObjectID is the object ID of the single object in a
	// ScriptableObject .asset file.
	ScriptableObjectID = "&11400000"

	// NativeFormatImporterKey is the importer used for .asset files.
	NativeFormatImporterKey = "NativeFormatImporter"
)

// ScriptableObject bundles a new ScriptableObject asset with its
// metadata. Behaviour is the asset's MonoBehaviour mapping, where the
// script's serialized fields go.
type ScriptableObject struct {
	Asset     *Asset
	Metadata  *Metadata
	Behaviour *yamldoc.Mapping
}

// NewScriptableObject builds a ScriptableObject instance of the script
// with GUID script, to be stored at pathName (for example
// "Assets/Fruits/Apple.asset"). The object's m_Name is the file name
// without its extension. The metadata gets a fresh GUID.
func NewScriptableObject(pathName string, script GUID) *ScriptableObject {
	base := path.Base(pathName)
	name := strings.TrimSuffix(base, path.Ext(base))

	behaviour := yamldoc.NewMapping()
	behaviour.SetScalar("m_ObjectHideFlags", "0")
	behaviour.Set("m_CorrespondingSourceObject", fileIDReference("0"))
	behaviour.Set("m_PrefabInstance", fileIDReference("0"))
	behaviour.Set("m_PrefabAsset", fileIDReference("0"))
	behaviour.Set("m_GameObject", fileIDReference("0"))
	behaviour.SetScalar("m_Enabled", "1")
	behaviour.SetScalar("m_EditorHideFlags", "0")

	scriptReference := fileIDReference(ScriptFileID)
	scriptReference.SetScalar("guid", script.String())
	scriptReference.SetScalar("type", "3")
	behaviour.Set("m_Script", scriptReference)

	behaviour.SetScalar("m_Name", name)
	behaviour.SetScalar("m_EditorClassIdentifier", "")

	asset := NewAsset(ClassMonoBehaviour, ScriptableObjectID)
	asset.Root().Set("MonoBehaviour", behaviour)

	metadata := NewMetadata(NewGUID())
	metadata.SetPathName(pathName)

	importer := yamldoc.NewMapping()
	importer.Set(keyExternalObjects, yamldoc.NewMapping())
	importer.SetScalar("mainObjectFileID", strings.TrimPrefix(ScriptableObjectID, "&"))
	importer.SetScalar(keyUserData, "")
	importer.SetScalar(keyAssetBundleName, "")
	importer.SetScalar(keyAssetBundleVariant, "")
	metadata.root.Set(NativeFormatImporterKey, importer)

	return &ScriptableObject{Asset: asset, Metadata: metadata, Behaviour: behaviour}
}

// fileIDReference returns a flow mapping "{fileID: id}", the form Unity
// writes for object references.
func fileIDReference(id string) *yamldoc.Mapping {
	reference := yamldoc.NewMapping()
	reference.Flow = true
	reference.SetScalar("fileID", id)
	return reference
}
