package filesystem

import (
	"context"
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"github.com/arthur-debert/stager/pkg/errors"
	"github.com/arthur-debert/stager/pkg/logging"
)

// MoveTree relocates the descendants of src into dst.
//
// Entries are visited parent before children. An entry whose destination
// does not exist is renamed into place and its subtree is not visited
// further. When both sides are real directories the entry is deferred and
// its children are visited instead. When both sides are non-directories the
// destination is replaced. Mixing a directory with a non-directory fails
// with a structural conflict naming both paths, before anything at the
// destination is removed.
//
// Whatever is left in src afterwards is merged with CopyTree, which carries
// the attributes of the deferred directories across.
func MoveTree(ctx context.Context, src, dst string, opts CopyOptions) error {
	logger := logging.GetLogger("filesystem.move")
	moved, deferred := 0, 0

	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return errors.Wrapf(walkErr, errors.ErrFileSystem, "cannot walk %s", path)
		}
		if path == src {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, errors.ErrCancelled, "move cancelled")
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return errors.Wrapf(err, errors.ErrInternal, "cannot relativize %s", path)
		}
		target := filepath.Join(dst, rel)
		srcIsDir := d.IsDir()

		dstInfo, err := os.Lstat(target)
		switch {
		case err == nil:
			dstIsDir := dstInfo.IsDir()
			switch {
			case srcIsDir && dstIsDir:
				deferred++
				return nil
			case srcIsDir:
				return conflict("Cannot move directory %s to non-directory %s", path, target)
			case dstIsDir:
				return conflict("Cannot move non-directory %s to directory %s", path, target)
			}
			if err := os.Remove(target); err != nil {
				return errors.Wrapf(err, errors.ErrFileSystem, "cannot replace %s", target)
			}
		case !os.IsNotExist(err):
			return errors.Wrapf(err, errors.ErrFileSystem, "cannot inspect %s", target)
		}

		if err := MoveEntry(path, target, opts); err != nil {
			return err
		}
		moved++
		if srcIsDir {
			return fs.SkipDir
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Debug().
		Str("source", src).
		Str("destination", dst).
		Int("moved", moved).
		Int("deferred", deferred).
		Msg("Moved tree")

	return CopyTree(ctx, src, dst, opts)
}

// MoveEntry renames src to dst, copying and removing when the two paths
// are on different devices.
func MoveEntry(src, dst string, opts CopyOptions) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}

	var linkErr *os.LinkError
	if !stderrors.As(err, &linkErr) || !stderrors.Is(linkErr.Err, syscall.EXDEV) {
		return errors.Wrapf(err, errors.ErrFileSystem, "cannot move %s to %s", src, dst)
	}

	if err := copyEntry(src, dst, opts); err != nil {
		return err
	}
	if err := os.RemoveAll(src); err != nil {
		return errors.Wrapf(err, errors.ErrFileSystem, "cannot remove %s after copying", src)
	}
	return nil
}
