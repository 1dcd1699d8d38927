// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the
// unitypackage CLI.
//
// Configuration is loaded from a single file specified by either the
// UNITYPACKAGE_CONFIG environment variable (via [Load]) or a --config
// flag (via [LoadFile]). There is no ~/.config discovery and no
// automatic file search; with neither source, [Load] returns
// [Default]. Unknown keys are errors, so a misspelled setting is
// reported rather than silently ignored.
//
// Variable expansion is performed on path fields after loading:
// ${HOME} and ${VAR:-default} patterns are expanded. No other
// environment variables override config values. Command-line flags
// override the file.
//
// Key exports:
//
//   - [Config] -- master struct with Pack, Extract, Limits, Log
//   - [Default] -- returns a Config with built-in defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
package config
