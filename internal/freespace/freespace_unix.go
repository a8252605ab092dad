//go:build !windows

package freespace

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// FreeKB reports the kibibytes available to unprivileged callers on the
// filesystem containing path.
func FreeKB(path string) (uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", path, err)
	}
	return st.Bavail * uint64(st.Bsize) / 1024, nil
}
