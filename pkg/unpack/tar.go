package unpack

import (
	"archive/tar"
	"context"
	stderrors "errors"
	"io"
	"io/fs"
	"os"

	"github.com/arthur-debert/stager/pkg/errors"
	"github.com/arthur-debert/stager/pkg/logging"
	"github.com/arthur-debert/stager/pkg/types"
)

// Tar unpacks tar archives, plain or inside a gzip, bzip2, xz or zstd
// stream.
type Tar struct{}

// NewTar returns the tar strategy.
func NewTar() *Tar { return &Tar{} }

func (t *Tar) Name() string { return "tar" }

func (t *Tar) Kind() Kind { return KindArchive }

func (t *Tar) CanExtract(path string) bool {
	switch f := sniffFile(path); {
	case f == formatTar:
		return true
	case f.isCompression():
		return containsTar(path)
	default:
		return false
	}
}

func (t *Tar) Extract(ctx context.Context, req types.ExtractionRequest) error {
	rc, compression, err := openStream(req.SourcePath)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileSystem, "cannot open %s", req.SourcePath)
	}
	defer func() { _ = rc.Close() }()

	logger := logging.GetLogger("unpack.tar")
	logger.Debug().
		Str("source", req.SourcePath).
		Str("compression", compression.String()).
		Msg("Unpacking tar archive")

	return extractTar(ctx, rc, req.DestinationPath, req.Verbose)
}

func extractTar(ctx context.Context, r io.Reader, dest string, verbose bool) error {
	logger := logging.GetLogger("unpack.tar")
	tr := tar.NewReader(r)
	var dirs []dirAttrs

	for {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, errors.ErrCancelled, "extraction cancelled")
		}

		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if hdr != nil && stderrors.Is(err, tar.ErrInsecurePath) {
			return errors.Newf(errors.ErrUnsafePath, "archive member %q escapes the destination", hdr.Name).
				WithDetail("entry", hdr.Name)
		}
		if err != nil {
			return errors.Wrap(err, errors.ErrFileSystem, "cannot read tar header")
		}

		target, err := safeJoin(dest, hdr.Name)
		if err != nil {
			return err
		}
		if err := ensureInside(dest, target); err != nil {
			return err
		}
		if verbose {
			logger.Info().Str("entry", hdr.Name).Msg("Extracting entry")
		}

		mode := fs.FileMode(hdr.Mode).Perm()
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := makeDir(target, mode); err != nil {
				return err
			}
			dirs = append(dirs, dirAttrs{path: target, mode: mode, modTime: hdr.ModTime})

		case tar.TypeReg:
			if mode == 0 {
				mode = 0o644
			}
			if err := writeMember(target, tr, mode); err != nil {
				return err
			}
			if err := os.Chtimes(target, hdr.AccessTime, hdr.ModTime); err != nil {
				return errors.Wrapf(err, errors.ErrFileSystem, "cannot set times on %s", target)
			}

		case tar.TypeSymlink:
			if err := writeLink(target, hdr.Linkname); err != nil {
				return err
			}

		case tar.TypeLink:
			source, err := safeJoin(dest, hdr.Linkname)
			if err != nil {
				return err
			}
			if err := os.Link(source, target); err != nil {
				return errors.Wrapf(err, errors.ErrFileSystem, "cannot link %s to %s", target, source)
			}

		case tar.TypeXGlobalHeader:
			// pax metadata only

		default:
			logger.Debug().
				Str("entry", hdr.Name).
				Str("type", string(hdr.Typeflag)).
				Msg("Skipping unsupported tar entry")
		}
	}

	return finishDirs(dirs)
}
