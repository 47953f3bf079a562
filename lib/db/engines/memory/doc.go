// Package memory provides an ephemeral db.KVDB backed by xsync.MapOf.
// It is used when the cache has no path configured and as a fast engine in
// tests. Swap maps to Compute, which is atomic per key.
package memory
