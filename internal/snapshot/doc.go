// Package snapshot captures the configured source trees into a per-cycle
// staging directory, applying the per-source file size cap. Sources copy in
// parallel into disjoint subtrees and the capture joins before returning,
// which is the barrier the daemon relies on before archiving.
package snapshot
