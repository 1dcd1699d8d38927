// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/bureau-foundation/unitypackage/cmd/unitypackage/cli"
	"github.com/bureau-foundation/unitypackage/lib/config"
)

// settings holds the flags every command that reads configuration
// accepts. Embedded in each command's params struct.
type settings struct {
	ConfigPath string `flag:"config" desc:"configuration file (default: $UNITYPACKAGE_CONFIG)"`
	LogLevel   string `flag:"log-level" desc:"debug, info, warn, or error (overrides log.level)"`
}

// load returns the configuration named by --config, or by
// UNITYPACKAGE_CONFIG when the flag is absent, with --log-level
// applied.
func (s *settings) load() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if s.ConfigPath != "" {
		cfg, err = config.LoadFile(s.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if s.LogLevel != "" {
		cfg.Log.Level = s.LogLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// logger returns the command logger at the configured level.
func (s *settings) logger(cfg *config.Config, command string) *slog.Logger {
	// Validated in load.
	level, _ := cfg.LogLevel()
	return cli.NewCommandLogger(level).With("command", command)
}

// recordTime returns the timestamp written on every record: the
// SOURCE_DATE_EPOCH environment variable when set, so builds are
// reproducible, and the current time otherwise.
func recordTime() time.Time {
	if epoch := os.Getenv("SOURCE_DATE_EPOCH"); epoch != "" {
		if seconds, err := strconv.ParseInt(epoch, 10, 64); err == nil {
			return time.Unix(seconds, 0).UTC()
		}
	}
	return time.Now()
}
