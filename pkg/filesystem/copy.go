package filesystem

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/arthur-debert/stager/pkg/errors"
	"github.com/arthur-debert/stager/pkg/logging"
)

// modeBits are the permission bits carried across a copy.
const modeBits = fs.ModePerm | fs.ModeSetuid | fs.ModeSetgid | fs.ModeSticky

// CopyOptions controls attribute handling for copies and moves.
type CopyOptions struct {
	// MergeXattrs copies extended attributes from the source onto the
	// destination, keeping attributes the destination already has.
	MergeXattrs bool
}

// CopyTree copies every child of src into dst, the way `cp -pR src/. dst`
// does. Directories that already exist in dst receive the source's
// contents and attributes. A file over an existing directory, or a
// directory over an existing non-directory, is a structural conflict.
// dst itself keeps its own mode, times and extended attributes.
func CopyTree(ctx context.Context, src, dst string, opts CopyOptions) error {
	logger := logging.GetLogger("filesystem.copy")

	rootInfo, err := os.Lstat(src)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileSystem, "cannot read source %s", src)
	}
	if !rootInfo.IsDir() {
		return errors.Newf(errors.ErrInvalidInput, "copy source %s is not a directory", src)
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileSystem, "cannot list %s", src)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, errors.ErrCancelled, "copy cancelled")
		}
		if err := copyEntry(filepath.Join(src, entry.Name()), filepath.Join(dst, entry.Name()), opts); err != nil {
			return err
		}
	}

	logger.Trace().Str("source", src).Str("destination", dst).Int("entries", len(entries)).Msg("Copied tree")
	return nil
}

// CopyEntry copies a single file, symlink or directory tree from src to dst.
func CopyEntry(src, dst string, opts CopyOptions) error {
	return copyEntry(src, dst, opts)
}

func copyEntry(src, dst string, opts CopyOptions) error {
	info, err := os.Lstat(src)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileSystem, "cannot read %s", src)
	}

	switch {
	case info.Mode()&fs.ModeSymlink != 0:
		return copySymlink(src, dst, info)
	case info.IsDir():
		return copyDir(src, dst, info, opts)
	case info.Mode().IsRegular():
		return copyFile(src, dst, info, opts)
	default:
		return errors.Newf(errors.ErrFileSystem, "unsupported file type %s for %s", info.Mode().Type(), src).
			WithDetail("source", src)
	}
}

func copyDir(src, dst string, info fs.FileInfo, opts CopyOptions) error {
	dstInfo, err := os.Lstat(dst)
	switch {
	case err == nil && !dstInfo.IsDir():
		return conflict("Cannot copy directory %s over non-directory %s", src, dst)
	case err == nil:
		// existing directory: merge into it
	case os.IsNotExist(err):
		if err := os.Mkdir(dst, 0o700); err != nil {
			return errors.Wrapf(err, errors.ErrFileSystem, "cannot create %s", dst)
		}
	default:
		return errors.Wrapf(err, errors.ErrFileSystem, "cannot inspect %s", dst)
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileSystem, "cannot list %s", src)
	}
	for _, entry := range entries {
		if err := copyEntry(filepath.Join(src, entry.Name()), filepath.Join(dst, entry.Name()), opts); err != nil {
			return err
		}
	}

	// times last, writing children touches the directory
	return applyAttributes(src, dst, info, opts)
}

func copyFile(src, dst string, info fs.FileInfo, opts CopyOptions) error {
	if err := clearDestination(src, dst); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileSystem, "cannot open %s", src)
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileSystem, "cannot create %s", dst)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return errors.Wrapf(err, errors.ErrFileSystem, "cannot copy %s to %s", src, dst)
	}
	if err := out.Close(); err != nil {
		return errors.Wrapf(err, errors.ErrFileSystem, "cannot write %s", dst)
	}

	return applyAttributes(src, dst, info, opts)
}

func copySymlink(src, dst string, info fs.FileInfo) error {
	target, err := os.Readlink(src)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileSystem, "cannot read link %s", src)
	}
	if err := clearDestination(src, dst); err != nil {
		return err
	}
	if err := os.Symlink(target, dst); err != nil {
		return errors.Wrapf(err, errors.ErrFileSystem, "cannot create link %s", dst)
	}
	if err := lchtimes(dst, info.ModTime()); err != nil {
		return errors.Wrapf(err, errors.ErrFileSystem, "cannot set times on %s", dst)
	}
	return nil
}

// clearDestination removes a non-directory at dst so a file or link can
// take its place.
func clearDestination(src, dst string) error {
	dstInfo, err := os.Lstat(dst)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileSystem, "cannot inspect %s", dst)
	}
	if dstInfo.IsDir() {
		return conflict("Cannot copy non-directory %s over directory %s", src, dst)
	}
	if err := os.Remove(dst); err != nil {
		return errors.Wrapf(err, errors.ErrFileSystem, "cannot replace %s", dst)
	}
	return nil
}

func applyAttributes(src, dst string, info fs.FileInfo, opts CopyOptions) error {
	if err := os.Chmod(dst, info.Mode()&modeBits); err != nil {
		return errors.Wrapf(err, errors.ErrFileSystem, "cannot set mode on %s", dst)
	}
	if opts.MergeXattrs {
		if err := MergeXattrs(src, dst); err != nil {
			return errors.Wrapf(err, errors.ErrFileSystem, "cannot copy extended attributes to %s", dst)
		}
	}
	if err := os.Chtimes(dst, time0, info.ModTime()); err != nil {
		return errors.Wrapf(err, errors.ErrFileSystem, "cannot set times on %s", dst)
	}
	return nil
}

func conflict(format, src, dst string) error {
	return errors.Newf(errors.ErrStructuralConflict, format, src, dst).
		WithDetail("source", src).
		WithDetail("destination", dst)
}
