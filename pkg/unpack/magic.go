package unpack

import (
	"io"
	"os"

	"github.com/gabriel-vasile/mimetype"
)

// format is a container or compression format recognised by its leading
// bytes.
type format int

const (
	formatUnknown format = iota
	formatGzip
	formatBzip2
	formatXz
	formatZstd
	formatZip
	formatTar
	format7z
	formatRar
	formatXar
	formatCpio
	formatLzip
)

var formatNames = map[format]string{
	formatUnknown: "unknown",
	formatGzip:    "gzip",
	formatBzip2:   "bzip2",
	formatXz:      "xz",
	formatZstd:    "zstd",
	formatZip:     "zip",
	formatTar:     "tar",
	format7z:      "7z",
	formatRar:     "rar",
	formatXar:     "xar",
	formatCpio:    "cpio",
	formatLzip:    "lzip",
}

func (f format) String() string { return formatNames[f] }

// tarBlockSize is the size of one tar header block.
const tarBlockSize = 512

// mimeFormats maps detected MIME types onto formats. Types derived from
// one of these (jar is a zip) resolve through their parent.
var mimeFormats = []struct {
	mime   string
	format format
}{
	{"application/x-tar", formatTar},
	{"application/gzip", formatGzip},
	{"application/x-bzip2", formatBzip2},
	{"application/x-xz", formatXz},
	{"application/zstd", formatZstd},
	{"application/zip", formatZip},
	{"application/x-7z-compressed", format7z},
	{"application/x-rar-compressed", formatRar},
	{"application/x-xar", formatXar},
	{"application/x-cpio", formatCpio},
	{"application/lzip", formatLzip},
}

// sniff identifies header, which should hold at least tarBlockSize bytes
// when available.
func sniff(header []byte) format {
	for m := mimetype.Detect(header); m != nil; m = m.Parent() {
		for _, mf := range mimeFormats {
			if m.Is(mf.mime) {
				return mf.format
			}
		}
	}
	return formatUnknown
}

// isCompression reports whether f wraps a single stream.
func (f format) isCompression() bool {
	switch f {
	case formatGzip, formatBzip2, formatXz, formatZstd:
		return true
	}
	return false
}

// readHeader returns up to n leading bytes of the regular file at path.
func readHeader(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return readUpTo(f, n)
}

func readUpTo(r io.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	read, err := io.ReadFull(r, buf)
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		err = nil
	}
	return buf[:read], err
}

// sniffFile identifies the file at path. Directories and unreadable paths
// are formatUnknown.
func sniffFile(path string) format {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return formatUnknown
	}
	header, err := readHeader(path, tarBlockSize)
	if err != nil {
		return formatUnknown
	}
	return sniff(header)
}
