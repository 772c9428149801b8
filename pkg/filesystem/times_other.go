//go:build !linux

package filesystem

import "time"

// lchtimes is a no-op where setting link times is not supported.
func lchtimes(path string, mtime time.Time) error { return nil }
