// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package unitypackage

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the stream framing around the tar archive.
type Compression uint8

const (
	// CompressionAuto detects the framing from the stream's magic
	// bytes when reading and means gzip when writing.
	CompressionAuto Compression = iota

	// CompressionGzip is the framing Unity writes and reads.
	CompressionGzip

	// CompressionZstd frames the archive as a zstd stream.
	CompressionZstd

	// CompressionLZ4 frames the archive as an LZ4 frame stream.
	CompressionLZ4

	// CompressionNone stores a bare tar archive.
	CompressionNone
)

// String returns the name accepted by ParseCompression.
func (c Compression) String() string {
	switch c {
	case CompressionAuto:
		return "auto"
	case CompressionGzip:
		return "gzip"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	case CompressionNone:
		return "none"
	default:
		return fmt.Sprintf("unknown(%d)", c)
	}
}

// ParseCompression parses a compression name. The empty string parses
// as CompressionAuto.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "", "auto":
		return CompressionAuto, nil
	case "gzip":
		return CompressionGzip, nil
	case "zstd":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	case "none":
		return CompressionNone, nil
	default:
		return 0, fmt.Errorf("unknown compression %q (want auto, gzip, zstd, lz4, or none)", name)
	}
}

// Set implements pflag.Value.
func (c *Compression) Set(name string) error {
	parsed, err := ParseCompression(name)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Type implements pflag.Value.
func (c *Compression) Type() string { return "compression" }

// MarshalText implements encoding.TextMarshaler.
func (c Compression) MarshalText() ([]byte, error) {
	if c > CompressionNone {
		return nil, fmt.Errorf("unknown compression %d", uint8(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Compression) UnmarshalText(text []byte) error {
	return c.Set(string(text))
}

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// DetectCompression identifies the framing from the first bytes of
// source without consuming them. Anything unrecognized, including an
// empty stream, is treated as a bare tar archive.
func DetectCompression(source *bufio.Reader) (Compression, error) {
	head, err := source.Peek(4)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("detecting compression: %w", err)
	}
	switch {
	case bytes.HasPrefix(head, gzipMagic):
		return CompressionGzip, nil
	case bytes.HasPrefix(head, zstdMagic):
		return CompressionZstd, nil
	case bytes.HasPrefix(head, lz4Magic):
		return CompressionLZ4, nil
	default:
		return CompressionNone, nil
	}
}

// decompressor is a decompressing reader with an optional release
// function for decoder resources.
type decompressor struct {
	io.Reader
	release func() error
}

func (d decompressor) Close() error {
	if d.release == nil {
		return nil
	}
	return d.release()
}

func newDecompressor(source io.Reader, compression Compression) (decompressor, error) {
	switch compression {
	case CompressionGzip:
		reader, err := gzip.NewReader(source)
		if err != nil {
			return decompressor{}, fmt.Errorf("opening gzip stream: %w", err)
		}
		return decompressor{Reader: reader, release: reader.Close}, nil

	case CompressionZstd:
		decoder, err := zstd.NewReader(source, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return decompressor{}, fmt.Errorf("opening zstd stream: %w", err)
		}
		return decompressor{Reader: decoder, release: func() error {
			decoder.Close()
			return nil
		}}, nil

	case CompressionLZ4:
		return decompressor{Reader: lz4.NewReader(source)}, nil

	case CompressionNone:
		return decompressor{Reader: source}, nil

	default:
		return decompressor{}, fmt.Errorf("unsupported compression %s", compression)
	}
}

// nopWriteCloser passes writes through; Close does nothing because the
// destination's lifetime is managed by the Writer.
type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// newCompressor wraps destination in the requested framing. Level 0
// selects each codec's default; other values are codec-specific (gzip
// and lz4 accept 1-9, zstd accepts 1-22).
func newCompressor(destination io.Writer, compression Compression, level int) (io.WriteCloser, error) {
	switch compression {
	case CompressionAuto, CompressionGzip:
		if level == 0 {
			level = gzip.DefaultCompression
		} else if level < gzip.BestSpeed || level > gzip.BestCompression {
			return nil, fmt.Errorf("gzip level %d out of range [%d, %d]", level, gzip.BestSpeed, gzip.BestCompression)
		}
		writer, err := gzip.NewWriterLevel(destination, level)
		if err != nil {
			return nil, fmt.Errorf("creating gzip writer: %w", err)
		}
		return writer, nil

	case CompressionZstd:
		options := []zstd.EOption{zstd.WithEncoderConcurrency(1)}
		if level != 0 {
			if level < 1 || level > 22 {
				return nil, fmt.Errorf("zstd level %d out of range [1, 22]", level)
			}
			options = append(options, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
		}
		encoder, err := zstd.NewWriter(destination, options...)
		if err != nil {
			return nil, fmt.Errorf("creating zstd writer: %w", err)
		}
		return encoder, nil

	case CompressionLZ4:
		writer := lz4.NewWriter(destination)
		if level != 0 {
			if level < 1 || level > 9 {
				return nil, fmt.Errorf("lz4 level %d out of range [1, 9]", level)
			}
			if err := writer.Apply(lz4.CompressionLevelOption(lz4.Level1 << (level - 1))); err != nil {
				return nil, fmt.Errorf("configuring lz4 writer: %w", err)
			}
		}
		return writer, nil

	case CompressionNone:
		return nopWriteCloser{destination}, nil

	default:
		return nil, fmt.Errorf("unsupported compression %s", compression)
	}
}
