// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [WriteTree] and [ReadTree] move a whole directory tree between a
// billy filesystem and a map of slash-separated relative paths to file
// contents, so a test can describe a project fixture as a literal and
// compare an extracted tree against it with one equality check.
//
// [UniqueID] generates monotonically increasing identifiers for test
// disambiguation. Use it instead of time.Now() when tests need unique
// file or directory names.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no dependencies on other packages in this module.
package testutil
