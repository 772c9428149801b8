package unpack

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/arthur-debert/stager/pkg/errors"
	"github.com/arthur-debert/stager/pkg/types"
)

// safeJoin resolves an archive member name below dest. Names that are
// absolute or climb out of dest are rejected.
func safeJoin(dest, name string) (string, error) {
	trimmed := strings.TrimPrefix(filepath.ToSlash(name), "./")
	if trimmed == "" || trimmed == "." {
		return dest, nil
	}
	if !types.IsLocalPath(trimmed) {
		return "", errors.Newf(errors.ErrUnsafePath, "archive member %q escapes the destination", name).
			WithDetail("entry", name)
	}
	return filepath.Join(dest, filepath.FromSlash(trimmed)), nil
}

// ensureInside fails when a symlink extracted earlier makes the parent of
// target resolve outside dest.
func ensureInside(dest, target string) error {
	root, err := filepath.EvalSymlinks(dest)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileSystem, "cannot resolve %s", dest)
	}
	parent, err := filepath.EvalSymlinks(filepath.Dir(target))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, errors.ErrFileSystem, "cannot resolve %s", filepath.Dir(target))
	}
	rel, err := filepath.Rel(root, parent)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return errors.Newf(errors.ErrUnsafePath, "%s resolves outside the destination", target).
			WithDetail("entry", target)
	}
	return nil
}

// writeMember writes r to target with mode, replacing any non-directory
// already there.
func writeMember(target string, r io.Reader, mode fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errors.Wrapf(err, errors.ErrFileSystem, "cannot create %s", filepath.Dir(target))
	}
	if info, err := os.Lstat(target); err == nil {
		if info.IsDir() {
			return errors.Newf(errors.ErrStructuralConflict, "archive file %s would replace a directory", target).
				WithDetail("destination", target)
		}
		if err := os.Remove(target); err != nil {
			return errors.Wrapf(err, errors.ErrFileSystem, "cannot replace %s", target)
		}
	}

	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileSystem, "cannot create %s", target)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, errors.ErrFileSystem, "cannot write %s", target)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, errors.ErrFileSystem, "cannot write %s", target)
	}
	if err := os.Chmod(target, mode); err != nil {
		return errors.Wrapf(err, errors.ErrFileSystem, "cannot set mode on %s", target)
	}
	return nil
}

// writeLink creates a symlink at target, replacing any non-directory.
func writeLink(target, linkname string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errors.Wrapf(err, errors.ErrFileSystem, "cannot create %s", filepath.Dir(target))
	}
	if info, err := os.Lstat(target); err == nil {
		if info.IsDir() {
			return errors.Newf(errors.ErrStructuralConflict, "archive link %s would replace a directory", target).
				WithDetail("destination", target)
		}
		if err := os.Remove(target); err != nil {
			return errors.Wrapf(err, errors.ErrFileSystem, "cannot replace %s", target)
		}
	}
	if err := os.Symlink(linkname, target); err != nil {
		return errors.Wrapf(err, errors.ErrFileSystem, "cannot create link %s", target)
	}
	return nil
}

// dirAttrs records directory modes and times to apply once an archive has
// been fully written.
type dirAttrs struct {
	path    string
	mode    fs.FileMode
	modTime time.Time
}

func makeDir(target string, mode fs.FileMode) error {
	if info, err := os.Lstat(target); err == nil && !info.IsDir() {
		return errors.Newf(errors.ErrStructuralConflict, "archive directory %s would replace a non-directory", target).
			WithDetail("destination", target)
	}
	if err := os.MkdirAll(target, 0o755); err != nil {
		return errors.Wrapf(err, errors.ErrFileSystem, "cannot create %s", target)
	}
	return nil
}

// finishDirs applies recorded attributes deepest first.
func finishDirs(dirs []dirAttrs) error {
	for i := len(dirs) - 1; i >= 0; i-- {
		d := dirs[i]
		// keep the owner able to write, patches still need to land
		if err := os.Chmod(d.path, d.mode|0o700); err != nil {
			return errors.Wrapf(err, errors.ErrFileSystem, "cannot set mode on %s", d.path)
		}
		if !d.modTime.IsZero() {
			if err := os.Chtimes(d.path, time.Time{}, d.modTime); err != nil {
				return errors.Wrapf(err, errors.ErrFileSystem, "cannot set times on %s", d.path)
			}
		}
	}
	return nil
}
