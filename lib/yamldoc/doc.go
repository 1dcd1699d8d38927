// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package yamldoc implements the minimal YAML document model used by
// Unity metadata (.meta) files and text-serialized Unity assets.
//
// A [Document] holds exactly one root [Node]. Nodes are a closed set of
// variants: [*Mapping] (ordered, unique string keys), [*Sequence], and
// [*Scalar] (an opaque string). Consumers match on the concrete type
// with a type switch; there is no implicit coercion between variants.
//
// Parsing is delegated to gopkg.in/yaml.v3 and the resulting yaml.Node
// tree is converted into this model. Mapping key order is preserved
// through load and save because Unity diffs and merges these files
// textually. Anchors are never emitted: aliases in the source are
// expanded during load (bounded by a node budget so that alias bombs
// fail instead of exhausting memory), and the save path builds a fresh
// yaml.Node tree with no anchor names.
//
// The model deliberately drops comments, explicit tags, and directives.
// Scalar presentation style (plain, quoted, block) is remembered so a
// load/save cycle stays close to the source text, but [Equal] ignores
// it.
//
// This package depends on no other packages in this module.
package yamldoc
