package unpack

import (
	"archive/zip"
	"context"
	stderrors "errors"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/arthur-debert/stager/pkg/errors"
	"github.com/arthur-debert/stager/pkg/logging"
	"github.com/arthur-debert/stager/pkg/types"
)

// Zip unpacks zip archives.
type Zip struct{}

// NewZip returns the zip strategy.
func NewZip() *Zip { return &Zip{} }

func (z *Zip) Name() string { return "zip" }

func (z *Zip) Kind() Kind { return KindArchive }

func (z *Zip) CanExtract(path string) bool {
	return sniffFile(path) == formatZip
}

func (z *Zip) Extract(ctx context.Context, req types.ExtractionRequest) error {
	logger := logging.GetLogger("unpack.zip")

	zr, err := zip.OpenReader(req.SourcePath)
	if stderrors.Is(err, zip.ErrInsecurePath) {
		_ = zr.Close()
		return errors.Newf(errors.ErrUnsafePath, "zip %s has members outside the destination", req.SourcePath)
	}
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileSystem, "cannot open zip %s", req.SourcePath)
	}
	defer func() { _ = zr.Close() }()

	var dirs []dirAttrs
	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, errors.ErrCancelled, "extraction cancelled")
		}

		target, err := safeJoin(req.DestinationPath, f.Name)
		if err != nil {
			return err
		}
		if err := ensureInside(req.DestinationPath, target); err != nil {
			return err
		}
		if req.Verbose {
			logger.Info().Str("entry", f.Name).Msg("Extracting entry")
		}

		mode := f.Mode()
		switch {
		case mode.IsDir() || strings.HasSuffix(f.Name, "/"):
			if err := makeDir(target, mode.Perm()); err != nil {
				return err
			}
			dirs = append(dirs, dirAttrs{path: target, mode: dirPerm(mode), modTime: f.Modified})

		case mode&fs.ModeSymlink != 0:
			linkname, err := readMember(f)
			if err != nil {
				return err
			}
			if err := writeLink(target, string(linkname)); err != nil {
				return err
			}

		default:
			if err := extractZipFile(f, target, mode.Perm()); err != nil {
				return err
			}
		}
	}

	return finishDirs(dirs)
}

func dirPerm(mode fs.FileMode) fs.FileMode {
	if mode.Perm() == 0 {
		return 0o755
	}
	return mode.Perm()
}

func extractZipFile(f *zip.File, target string, perm fs.FileMode) error {
	rc, err := f.Open()
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileSystem, "cannot read zip member %s", f.Name)
	}
	defer func() { _ = rc.Close() }()

	if perm == 0 {
		perm = 0o644
	}
	if err := writeMember(target, rc, perm); err != nil {
		return err
	}
	if !f.Modified.IsZero() {
		if err := os.Chtimes(target, f.Modified, f.Modified); err != nil {
			return errors.Wrapf(err, errors.ErrFileSystem, "cannot set times on %s", target)
		}
	}
	return nil
}

func readMember(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileSystem, "cannot read zip member %s", f.Name)
	}
	defer func() { _ = rc.Close() }()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileSystem, "cannot read zip member %s", f.Name)
	}
	return content, nil
}
