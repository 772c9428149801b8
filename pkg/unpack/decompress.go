package unpack

import (
	"compress/bzip2"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// openStream opens path and, when it starts with a supported compression
// magic, returns a reader over the decompressed content. The returned
// format is the compression found, or formatUnknown for a plain file.
func openStream(path string) (io.ReadCloser, format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, formatUnknown, err
	}

	header, err := readUpTo(f, tarBlockSize)
	if err != nil {
		_ = f.Close()
		return nil, formatUnknown, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		_ = f.Close()
		return nil, formatUnknown, err
	}

	compression := sniff(header)
	if !compression.isCompression() {
		return f, formatUnknown, nil
	}

	r, err := decompressor(f, compression)
	if err != nil {
		_ = f.Close()
		return nil, compression, err
	}
	return &stackedReader{Reader: r, closers: []io.Closer{closerOf(r), f}}, compression, nil
}

func decompressor(r io.Reader, compression format) (io.Reader, error) {
	switch compression {
	case formatGzip:
		return gzip.NewReader(r)
	case formatBzip2:
		return bzip2.NewReader(r), nil
	case formatXz:
		return xz.NewReader(r)
	case formatZstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	default:
		return r, nil
	}
}

// stackedReader closes the decompressor before the file beneath it.
type stackedReader struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedReader) Close() error {
	var first error
	for _, c := range s.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func closerOf(r io.Reader) io.Closer {
	if c, ok := r.(io.Closer); ok {
		return c
	}
	return nil
}

// containsTar reports whether path, after decompression, starts with a tar
// header.
func containsTar(path string) bool {
	rc, _, err := openStream(path)
	if err != nil {
		return false
	}
	defer func() { _ = rc.Close() }()

	header, err := readUpTo(rc, tarBlockSize)
	if err != nil {
		return false
	}
	return sniff(header) == formatTar
}
