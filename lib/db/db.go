package db

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

type Implementation string

const (
	ImplPebble Implementation = "pebble"
	ImplMemory Implementation = "memory"
)

// DatabaseInfo describes the state of a database. For most implementations
// the size values are estimates since a precise calculation can be expensive.
// Entries is -1 if the engine cannot count its keys cheaply.
type DatabaseInfo struct {
	SizeBytes int64          `json:"size_bytes"`
	Entries   int64          `json:"entries"`
	DbType    Implementation `json:"db_type"`
	Metadata  interface{}    `json:"metadata"`
}

// --------------------------------------------------------------------------
// Database Interface
// --------------------------------------------------------------------------

// KVDB defines an interface for the key-value stores backing the cache.
// Keys are arbitrary non-empty strings, values are opaque byte slices.
// All methods must be safe for concurrent use.
type KVDB interface {

	// --------------------------------------------------------------------------
	// Write Operations
	// --------------------------------------------------------------------------

	// Swap stores value under key and returns the value it replaced.
	// Reading the previous value and writing the new one is a single atomic
	// step with respect to other calls for the same key.
	// The boolean return value indicates whether a previous value existed.
	Swap(key string, value []byte) (prev []byte, loaded bool, err error)

	// Delete removes the entry with the specified key.
	// The boolean return value indicates whether an entry was removed.
	Delete(key string) (loaded bool, err error)

	// --------------------------------------------------------------------------
	// Query Operations
	// --------------------------------------------------------------------------

	// Get retrieves the value for an exact key. The returned slice is a copy
	// owned by the caller.
	// The boolean return value indicates whether a value for the key was found.
	Get(key string) (value []byte, loaded bool, err error)

	// --------------------------------------------------------------------------
	// Persistence Operations
	// --------------------------------------------------------------------------

	// Flush makes all writes so far durable. Implementations without
	// persistence return nil.
	Flush() (err error)

	// GetInfo returns information about the database.
	GetInfo() (info DatabaseInfo)

	// Close flushes and closes the database. No method may be called afterwards.
	Close() (err error)
}
