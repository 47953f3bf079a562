// Package pebble provides the persistent db.KVDB engine on top of
// github.com/cockroachdb/pebble.
//
// Writes use pebble.NoSync. A background loop syncs the write-ahead log
// every FlushInterval (1 second by default), so after a crash at most the
// writes of one interval are lost. The block cache is bounded by
// CacheSize (50 MiB by default).
//
// Swap reads the previous value and writes the new one while holding one
// of 64 key lock stripes, which makes the read-then-write atomic for
// concurrent callers on the same key. Pebble's own log output is routed to
// the "db" logger.
package pebble
