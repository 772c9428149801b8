//go:build !linux

package filesystem

import "errors"

var errXattrUnsupported = errors.New("extended attributes are not supported on this platform")

// MergeXattrs is a no-op where extended attributes are not supported.
func MergeXattrs(src, dst string) error { return nil }

// ListXattrs reports no attributes.
func ListXattrs(path string) ([]string, error) { return nil, nil }

// GetXattr always fails.
func GetXattr(path, name string) ([]byte, error) { return nil, errXattrUnsupported }

// SetXattr always fails.
func SetXattr(path, name string, value []byte) error { return errXattrUnsupported }
