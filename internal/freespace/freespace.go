// Package freespace answers one question: does the filesystem holding the
// backup destination still have room for another cycle?
package freespace

import (
	"errors"
	"fmt"
)

// ErrInsufficient marks a failed free-space check. Callers treat it as a
// recoverable skip-this-cycle condition, not a daemon failure.
var ErrInsufficient = errors.New("insufficient free space")

// Check returns nil when the filesystem containing path has at least
// thresholdKB kibibytes available. Exactly equal counts as sufficient.
func Check(path string, thresholdKB uint64) error {
	free, err := FreeKB(path)
	if err != nil {
		return err
	}
	return evaluate(free, thresholdKB)
}

func evaluate(freeKB, thresholdKB uint64) error {
	if freeKB < thresholdKB {
		return fmt.Errorf("%w: %d KiB available, %d KiB required", ErrInsufficient, freeKB, thresholdKB)
	}
	return nil
}
