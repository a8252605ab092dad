// Package retention decides which backups die. It thins history into
// fixed-width age buckets: everything younger than one bucket width is
// kept, everything past the maximum age is dropped, and each bucket in
// between keeps exactly its oldest member. The decision is a pure function
// of the clock and an entry listing, so every cycle re-derives it from
// scratch and partial deletions converge on the next pass.
package retention
