//go:build windows

package freespace

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// FreeKB reports the kibibytes available to the calling user on the volume
// containing path.
func FreeKB(path string) (uint64, error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, fmt.Errorf("encode path %s: %w", path, err)
	}
	var freeBytesAvailable, totalBytes, totalFreeBytes uint64
	if err := windows.GetDiskFreeSpaceEx(p, &freeBytesAvailable, &totalBytes, &totalFreeBytes); err != nil {
		return 0, fmt.Errorf("query free space for %s: %w", path, err)
	}
	return freeBytesAvailable / 1024, nil
}
