package unpack

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/stager/pkg/errors"
	"github.com/arthur-debert/stager/pkg/logging"
	"github.com/arthur-debert/stager/pkg/types"
)

// Compressed decompresses a single gzip, bzip2, xz or zstd stream that does
// not hold a tar archive. The result is one file named after the source
// without its compression suffix.
type Compressed struct{}

// NewCompressed returns the single-stream decompression strategy.
func NewCompressed() *Compressed { return &Compressed{} }

func (c *Compressed) Name() string { return "compressed" }

func (c *Compressed) Kind() Kind { return KindFile }

func (c *Compressed) CanExtract(path string) bool {
	return sniffFile(path).isCompression() && !containsTar(path)
}

func (c *Compressed) Extract(ctx context.Context, req types.ExtractionRequest) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, errors.ErrCancelled, "extraction cancelled")
	}

	rc, compression, err := openStream(req.SourcePath)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileSystem, "cannot open %s", req.SourcePath)
	}
	defer func() { _ = rc.Close() }()

	name := decompressedName(filepath.Base(req.SourcePath), compression)
	target := filepath.Join(req.DestinationPath, name)

	logger := logging.GetLogger("unpack.compressed")
	logger.Debug().
		Str("source", req.SourcePath).
		Str("compression", compression.String()).
		Str("target", target).
		Msg("Decompressing file")

	if err := writeMember(target, rc, 0o644); err != nil {
		return err
	}

	info, err := os.Stat(req.SourcePath)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileSystem, "cannot read %s", req.SourcePath)
	}
	if err := os.Chtimes(target, info.ModTime(), info.ModTime()); err != nil {
		return errors.Wrapf(err, errors.ErrFileSystem, "cannot set times on %s", target)
	}
	return nil
}

var compressionSuffixes = map[format][]string{
	formatGzip:  {".gz", ".gzip", ".z"},
	formatBzip2: {".bz2", ".bz"},
	formatXz:    {".xz"},
	formatZstd:  {".zst", ".zstd"},
}

func decompressedName(base string, compression format) string {
	lower := strings.ToLower(base)
	for _, suffix := range compressionSuffixes[compression] {
		if strings.HasSuffix(lower, suffix) && len(base) > len(suffix) {
			return base[:len(base)-len(suffix)]
		}
	}
	return base
}
