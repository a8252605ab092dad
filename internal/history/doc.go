// Package history keeps an append-only SQLite catalog of backup cycle
// outcomes inside the destination root. It exists for operators: `larder
// history` answers "when did the last backup run and did it work" without
// grepping the run log. The daemon treats it as advisory and never fails a
// cycle over a catalog error.
package history
