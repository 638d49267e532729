package dump

import (
	"compress/bzip2"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression names the outer framing of a dump file, inferred from its
// extension unless a hint overrides it.
type Compression string

const (
	CompressionAuto Compression = "" // infer from extension
	CompressionNone Compression = "none"
	CompressionBzip2 Compression = "bz2"
	CompressionLZ4   Compression = "lz4"
	CompressionZstd  Compression = "zst"
)

// detect infers a Compression from a dump file's extension.
func detect(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bz2":
		return CompressionBzip2
	case ".lz4":
		return CompressionLZ4
	case ".zst":
		return CompressionZstd
	default:
		return CompressionNone
	}
}

// wrap returns a reader that decompresses r according to c, closing any
// resources it owns when the returned closer's Close is called (the zstd
// decoder in particular must be explicitly released).
func wrap(r io.Reader, c Compression) (io.Reader, func() error, error) {
	switch c {
	case CompressionNone, CompressionAuto:
		return r, func() error { return nil }, nil
	case CompressionBzip2:
		return bzip2.NewReader(r), func() error { return nil }, nil
	case CompressionLZ4:
		return lz4.NewReader(r), func() error { return nil }, nil
	case CompressionZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("open zstd stream: %w", err)
		}
		return zr, func() error { zr.Close(); return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown compression hint %q", c)
	}
}
