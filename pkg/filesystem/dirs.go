package filesystem

import (
	"path/filepath"
	"time"

	"github.com/arthur-debert/stager/pkg/errors"
)

// time0 leaves a timestamp unchanged when passed to os.Chtimes.
var time0 time.Time

// DescendSingleDir returns the only child of root when root contains
// exactly one entry and that entry is a directory. Otherwise it returns
// root.
func DescendSingleDir(fsys FS, root string) (string, error) {
	entries, err := fsys.ReadDir(root)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrFileSystem, "cannot list %s", root)
	}
	if len(entries) != 1 {
		return root, nil
	}

	child := filepath.Join(root, entries[0].Name())
	info, err := fsys.Stat(child)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrFileSystem, "cannot inspect %s", child)
	}
	if !info.IsDir() {
		return root, nil
	}
	return child, nil
}

// IsEmptyDir reports whether path is a directory with no entries.
func IsEmptyDir(fsys FS, path string) (bool, error) {
	info, err := fsys.Stat(path)
	if err != nil {
		return false, errors.Wrapf(err, errors.ErrFileSystem, "cannot inspect %s", path)
	}
	if !info.IsDir() {
		return false, nil
	}
	entries, err := fsys.ReadDir(path)
	if err != nil {
		return false, errors.Wrapf(err, errors.ErrFileSystem, "cannot list %s", path)
	}
	return len(entries) == 0, nil
}
