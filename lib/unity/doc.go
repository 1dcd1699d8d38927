// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package unity models the two document kinds a Unity project stores
// beside and inside its assets.
//
// [Metadata] is the ".meta" sidecar: a mapping that always carries
// fileFormatVersion 2 and the asset's [GUID], plus an opaque importer
// subtree. The identity fields are rewritten to canonical values on
// every load and construction, so the GUID held by the Go value and
// the one persisted in the document never disagree.
//
// [Asset] is an engine-native YAML asset (.asset, .mat, .prefab and
// friends): three header lines naming the class ID and object ID,
// followed by a mapping body.
//
// Both types own their [yamldoc.Document] exclusively. Metadata exposes
// only controlled mutation: the reserved identity keys cannot be set or
// deleted through its API, and readers receive copies.
//
// The builders in this package ([NewScriptableObject],
// [NewAssetImporter], [NewScriptedImporter]) produce the subtrees Unity
// expects for common asset kinds.
package unity
