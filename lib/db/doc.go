// Package db provides a small interface for the key-value stores that back
// the response cache, so that the cache can run on a persistent engine or
// on a purely in-memory one without code changes.
//
// Key Components:
//
//   - KVDB Interface: Get, Swap, Delete, Flush, GetInfo and Close. Swap is
//     the only write and returns the value it replaced atomically, which
//     gives the cache its insert-returns-previous semantics.
//
//   - Implementation Identifiers: The Implementation type names the
//     available engines ("pebble" and "memory").
//
//   - Database Information: DatabaseInfo reports size, entry count, engine
//     and engine specific metadata. Values are estimates.
//
// Related Packages:
//
// The engines/pebble package provides the persistent engine on top of
// github.com/cockroachdb/pebble. Writes are not synced individually, a
// background ticker syncs the write-ahead log so a crash loses at most one
// flush interval.
//
// The engines/memory package provides an ephemeral engine on top of
// xsync.MapOf, used when no cache path is configured and in tests.
//
// The testing package provides a conformance suite (RunKVDBTests) and
// benchmarks (RunKVDBBenchmarks) every engine runs.
package db
