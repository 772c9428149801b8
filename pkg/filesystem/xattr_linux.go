//go:build linux

package filesystem

import (
	stderrors "errors"
	"strings"

	"golang.org/x/sys/unix"
)

// MergeXattrs copies every extended attribute of src onto dst without
// following symlinks. Attributes already on dst that src lacks are kept.
// Filesystems without xattr support are treated as having none.
func MergeXattrs(src, dst string) error {
	names, err := ListXattrs(src)
	if err != nil {
		return err
	}
	for _, name := range names {
		value, err := GetXattr(src, name)
		if err != nil {
			if ignorableXattrErr(err) {
				continue
			}
			return err
		}
		if err := unix.Lsetxattr(dst, name, value, 0); err != nil {
			if ignorableXattrErr(err) {
				continue
			}
			return err
		}
	}
	return nil
}

// ListXattrs returns the extended attribute names set on path.
func ListXattrs(path string) ([]string, error) {
	size, err := unix.Llistxattr(path, nil)
	if err != nil {
		if ignorableXattrErr(err) {
			return nil, nil
		}
		return nil, err
	}
	if size == 0 {
		return nil, nil
	}

	buf := make([]byte, size)
	size, err = unix.Llistxattr(path, buf)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, name := range strings.Split(string(buf[:size]), "\x00") {
		if name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// GetXattr reads one extended attribute of path.
func GetXattr(path, name string) ([]byte, error) {
	size, err := unix.Lgetxattr(path, name, nil)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, size)
	size, err = unix.Lgetxattr(path, name, buf)
	if err != nil {
		return nil, err
	}
	return buf[:size], nil
}

// SetXattr writes one extended attribute of path.
func SetXattr(path, name string, value []byte) error {
	return unix.Lsetxattr(path, name, value, 0)
}

func ignorableXattrErr(err error) bool {
	return stderrors.Is(err, unix.ENOTSUP) ||
		stderrors.Is(err, unix.EOPNOTSUPP) ||
		stderrors.Is(err, unix.EPERM) ||
		stderrors.Is(err, unix.ENODATA)
}
