// Package config loads, normalizes, and validates larder's TOML
// configuration. All path fields are tilde-expanded and absolute after Load,
// and derived locations inside the destination root (staging area, lock
// file, run log) are exposed as methods so other packages never assemble
// those paths themselves.
package config
