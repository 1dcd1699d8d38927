// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Unitypackage is the command-line tool for Unity package files.
//
// It packs a project directory into a .unitypackage, extracts one into
// a directory, lists entries, writes content manifests, and scaffolds
// packages holding new assets. The command tree lives in
// cmd/unitypackage/commands; this binary only builds the root context
// and maps errors to exit codes.
package main
