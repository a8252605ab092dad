package retention

import (
	"sort"
	"time"

	"larder/internal/archive"
)

// Config holds the tiered policy windows, both in minutes. ShortWindow is
// the bucket width W; MaxAge is the history bound M. Valid configs satisfy
// 0 < W < M.
type Config struct {
	ShortWindowMinutes int
	MaxAgeMinutes      int
}

// Plan is a pure function returning the names of entries to delete under
// the tiered policy, given the clock reading now. It never mutates entries
// and holds no state; callers re-run it over a fresh listing every cycle,
// which makes an interrupted deletion self-correcting.
//
// Tiers, by entry age in whole rounded minutes:
//
//	age < W          fresh, always kept
//	age > M          expired, always deleted
//	W < age <= M     bucketed: within each half-open bucket (b*W, (b+1)*W]
//	                 for b = 1..M/W-1, only the single oldest entry
//	                 survives
//
// The half-open convention is lower-exclusive, upper-inclusive throughout;
// an entry aged exactly W falls in no tier and is left untouched.
func Plan(now time.Time, entries []archive.Entry, cfg Config) []string {
	w := cfg.ShortWindowMinutes
	m := cfg.MaxAgeMinutes
	if w <= 0 || m <= w {
		return nil
	}

	var doomed []string
	buckets := make(map[int][]archive.Entry)

	for _, entry := range entries {
		age := entry.Age(now)
		switch {
		case age < w:
			// Fresh tier: never a deletion candidate.
		case age > m:
			doomed = append(doomed, entry.Name)
		case age == w:
			// Exact lower boundary of bucket 1; in no tier by convention.
		default:
			b := (age - 1) / w
			buckets[b] = append(buckets[b], entry)
		}
	}

	for _, group := range buckets {
		if len(group) < 2 {
			continue
		}
		keep := oldest(group)
		for _, entry := range group {
			if entry.Name != keep.Name {
				doomed = append(doomed, entry.Name)
			}
		}
	}

	sort.Strings(doomed)
	return doomed
}

// oldest picks the bucket survivor: the entry with the smallest CreatedAt,
// ties broken by name so the plan is deterministic.
func oldest(group []archive.Entry) archive.Entry {
	keep := group[0]
	for _, entry := range group[1:] {
		if entry.CreatedAt.Before(keep.CreatedAt) ||
			(entry.CreatedAt.Equal(keep.CreatedAt) && entry.Name < keep.Name) {
			keep = entry
		}
	}
	return keep
}
