//go:build linux

package filesystem

import (
	"time"

	"golang.org/x/sys/unix"
)

// lchtimes sets the modification time of path without following a
// symlink. The access time is left alone.
func lchtimes(path string, mtime time.Time) error {
	ts := []unix.Timespec{
		{Sec: 0, Nsec: unix.UTIME_OMIT},
		unix.NsecToTimespec(mtime.UnixNano()),
	}
	return unix.UtimesNanoAt(unix.AT_FDCWD, path, ts, unix.AT_SYMLINK_NOFOLLOW)
}
