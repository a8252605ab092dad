package archive

import (
	"fmt"
	"time"
)

// entryNameLayout is the canonical backup name format: local wall-clock
// time as YYYYMMDD_HHMMSS. Every entry in every backend is named this way;
// the container backend also derives CreatedAt from it.
const entryNameLayout = "20060102_150405"

// FormatEntryName renders the canonical name for a cycle that started at t.
func FormatEntryName(t time.Time) string {
	return t.Format(entryNameLayout)
}

// ParseEntryName converts a canonical entry name back into the instant it
// encodes. The input must be exactly YYYYMMDD_HHMMSS; anything else is an
// explicit error, never a silent misparse. Callers skip (and log) entries
// whose names fail to parse rather than aborting a whole scan.
func ParseEntryName(name string) (time.Time, error) {
	if len(name) != len(entryNameLayout) {
		return time.Time{}, fmt.Errorf("entry name %q: expected YYYYMMDD_HHMMSS", name)
	}
	t, err := time.ParseInLocation(entryNameLayout, name, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("entry name %q: expected YYYYMMDD_HHMMSS: %w", name, err)
	}
	return t, nil
}
