// Package archive owns the persisted set of backup entries. The daemon
// speaks to one Store interface; the backing layout is either a directory
// of independent .tar.gz files (one per cycle) or a single zip container
// holding .tar entries. Entry names are canonical local timestamps and the
// only naming authority is timestamp.go.
package archive
