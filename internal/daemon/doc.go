// Package daemon runs the backup control loop: one cycle immediately on
// start, then one per scheduling interval until stopped. It owns the
// single-instance lock on the destination root and the shutdown contract
// (a stop request triggers exactly one more full cycle before exit).
package daemon
