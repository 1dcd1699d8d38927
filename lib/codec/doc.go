// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the module's CBOR encoding configuration.
//
// JSON is used for human-facing output (the CLI's --json mode). CBOR
// is used for the machine-facing package manifest, where the same
// logical content must always produce identical bytes so manifests can
// be compared and hashed. The encoder uses Core Deterministic Encoding
// (RFC 8949 §4.2): sorted map keys, smallest integer encoding, no
// indefinite-length items.
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// [Diagnose] renders encoded bytes in CBOR diagnostic notation for
// debugging.
package codec
