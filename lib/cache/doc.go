// Package cache provides the key-value cache handlers use to memoize
// responses.
//
// A Cache is an explicit handle created with New and passed to whoever
// needs it. The backing store is opened lazily on the first operation: a
// pebble database when a path is configured, an in-memory map otherwise.
//
// Values are opaque bytes. InsertMsg and GetMsg store protobuf messages;
// an entry that no longer decodes as the requested type reads as a miss,
// all other failures are returned as *Error. Empty keys are rejected with
// ErrEmptyKey.
package cache
