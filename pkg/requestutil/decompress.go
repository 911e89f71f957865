package requestutil

import (
	"compress/bzip2"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
)

// Compression is a compression format used for repository
// index files.
type Compression string

const (
	CompressionNone  Compression = "none"
	CompressionGzip  Compression = "gz"
	CompressionXZ    Compression = "xz"
	CompressionZstd  Compression = "zst"
	CompressionBzip2 Compression = "bz2"
	CompressionLZMA  Compression = "lzma"
)

// DefaultPreferredOrder lists compression formats from most to
// least preferred. Smaller formats come first, then the formats
// that every archive is expected to publish.
func DefaultPreferredOrder() []Compression {
	return []Compression{
		CompressionXZ,
		CompressionZstd,
		CompressionGzip,
		CompressionBzip2,
		CompressionLZMA,
		CompressionNone,
	}
}

// ParseCompression accepts a format name or file extension
// (with or without the leading '.').
func ParseCompression(s string) (Compression, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".") {
	case "", "none":
		return CompressionNone, nil
	case "gz", "gzip":
		return CompressionGzip, nil
	case "xz":
		return CompressionXZ, nil
	case "zst", "zstd":
		return CompressionZstd, nil
	case "bz2", "bzip2":
		return CompressionBzip2, nil
	case "lzma":
		return CompressionLZMA, nil
	default:
		return "", fmt.Errorf("unknown compression: %q", s)
	}
}

// Extension returns the file extension, including the '.', or
// an empty string for uncompressed files.
func (c Compression) Extension() string {
	if c == CompressionNone || c == "" {
		return ""
	}
	return "." + string(c)
}

func (c Compression) String() string {
	return string(c)
}

// NewReader wraps r so that reads return decompressed data.
func NewReader(c Compression, r io.Reader) (io.ReadCloser, error) {
	switch c {
	case CompressionNone, "":
		return io.NopCloser(r), nil
	case CompressionGzip:
		reader, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("opening gzip stream: %w", err)
		}
		return reader, nil
	case CompressionXZ:
		reader, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("opening xz stream: %w", err)
		}
		return io.NopCloser(reader), nil
	case CompressionZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("opening zstd stream: %w", err)
		}
		return dec.IOReadCloser(), nil
	case CompressionBzip2:
		return io.NopCloser(bzip2.NewReader(r)), nil
	case CompressionLZMA:
		reader, err := lzma.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("opening lzma stream: %w", err)
		}
		return io.NopCloser(reader), nil
	default:
		return nil, fmt.Errorf("unknown compression: %q", c)
	}
}

// FromFilename guesses the compression of a file by its extension.
func FromFilename(name string) Compression {
	for _, c := range DefaultPreferredOrder() {
		if c != CompressionNone && strings.HasSuffix(name, c.Extension()) {
			return c
		}
	}
	return CompressionNone
}
