// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/unitypackage/lib/unitypackage"
)

// EnvironmentVariable names the variable [Load] reads the config path
// from.
const EnvironmentVariable = "UNITYPACKAGE_CONFIG"

// Config is the master configuration for the CLI.
type Config struct {
	// Pack configures container creation.
	Pack PackConfig `yaml:"pack"`

	// Extract configures container extraction.
	Extract ExtractConfig `yaml:"extract"`

	// Limits bounds the records the reader buffers.
	Limits LimitsConfig `yaml:"limits"`

	// Log configures the command logger.
	Log LogConfig `yaml:"log"`
}

// PackConfig configures "unitypackage pack".
type PackConfig struct {
	// Compression is one of auto, gzip, zstd, lz4, none.
	// Default: gzip
	Compression string `yaml:"compression"`

	// Level is the codec's compression level; 0 selects its default.
	Level int `yaml:"level"`

	// IncludeFolders writes folder groups for directory .meta files.
	IncludeFolders bool `yaml:"include_folders"`
}

// ExtractConfig configures "unitypackage extract".
type ExtractConfig struct {
	// Overwrite replaces existing files instead of failing.
	Overwrite bool `yaml:"overwrite"`

	// Destination is the directory used when none is given on the
	// command line. ${VAR} patterns are expanded.
	// Default: .
	Destination string `yaml:"destination"`
}

// LimitsConfig bounds in-memory records when reading.
type LimitsConfig struct {
	// MaxMetadataBytes bounds an asset.meta record.
	MaxMetadataBytes int64 `yaml:"max_metadata_bytes"`

	// MaxPathnameBytes bounds a pathname record.
	MaxPathnameBytes int64 `yaml:"max_pathname_bytes"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	// Default: info
	Level string `yaml:"level"`
}

// Default returns the built-in configuration. Loaded files are merged
// over it, so keys a file omits keep these values.
func Default() *Config {
	return &Config{
		Pack: PackConfig{
			Compression: unitypackage.CompressionGzip.String(),
		},
		Extract: ExtractConfig{
			Destination: ".",
		},
		Limits: LimitsConfig{
			MaxMetadataBytes: unitypackage.DefaultMaxMetadataSize,
			MaxPathnameBytes: unitypackage.DefaultMaxPathnameSize,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the file named by UNITYPACKAGE_CONFIG.
// When the variable is unset, it returns [Default].
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return Default(), nil
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path, expands
// variables in path fields, and validates the result.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}

	cfg.expandVariables()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// loadFile decodes a single configuration file over the current
// values. An empty file changes nothing.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Extract.Destination = expandVars(c.Extract.Destination, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors. All problems are
// reported together.
func (c *Config) Validate() error {
	var errs []error

	if _, err := c.Compression(); err != nil {
		errs = append(errs, fmt.Errorf("pack.compression: %w", err))
	}
	if c.Pack.Level < 0 {
		errs = append(errs, fmt.Errorf("pack.level must not be negative, got %d", c.Pack.Level))
	}
	if c.Extract.Destination == "" {
		errs = append(errs, fmt.Errorf("extract.destination is required"))
	}
	if c.Limits.MaxMetadataBytes <= 0 {
		errs = append(errs, fmt.Errorf("limits.max_metadata_bytes must be positive, got %d", c.Limits.MaxMetadataBytes))
	}
	if c.Limits.MaxPathnameBytes <= 0 {
		errs = append(errs, fmt.Errorf("limits.max_pathname_bytes must be positive, got %d", c.Limits.MaxPathnameBytes))
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	return errors.Join(errs...)
}

// Compression returns the parsed pack.compression value.
func (c *Config) Compression() (unitypackage.Compression, error) {
	return unitypackage.ParseCompression(c.Pack.Compression)
}

// LogLevel returns the parsed log.level value.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}

// ReaderOptions returns reader options carrying the configured limits.
func (c *Config) ReaderOptions(logger *slog.Logger) unitypackage.ReaderOptions {
	return unitypackage.ReaderOptions{
		MaxMetadataSize: c.Limits.MaxMetadataBytes,
		MaxPathnameSize: c.Limits.MaxPathnameBytes,
		Logger:          logger,
	}
}
