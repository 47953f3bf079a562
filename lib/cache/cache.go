package cache

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/logicbridge/lib/db"
	"github.com/ValentinKolb/logicbridge/lib/db/engines/memory"
	"github.com/ValentinKolb/logicbridge/lib/db/engines/pebble"
	"github.com/VictoriaMetrics/metrics"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("cache")

var (
	hitsTotal   = metrics.NewCounter("logic_cache_hits_total")
	missesTotal = metrics.NewCounter("logic_cache_misses_total")
	writesTotal = metrics.NewCounter("logic_cache_writes_total")
	errorsTotal = metrics.NewCounter("logic_cache_errors_total")
)

// Config configures a Cache
type Config struct {
	Path          string        // Directory of the pebble store (empty = in-memory)
	CapacityBytes int64         // Block cache size of the pebble store
	FlushInterval time.Duration // Interval between durability flushes
	FS            vfs.FS        // Filesystem for the pebble store (nil = disk)
}

// Cache memoizes serialized messages under string keys. The backing store
// is opened on first use and stays open until Close.
//
// Thread-safety: all methods are safe for concurrent use
type Cache struct {
	mu       sync.Mutex // guards cfg and opened against SetPath
	cfg      Config
	opened   bool
	open     func() (db.KVDB, error)
	closed   atomic.Bool
	inflight sync.RWMutex // read-held by operations, write-held by Close
}

// New creates a cache handle. No file is touched before the first operation.
func New(cfg Config) *Cache {
	c := &Cache{cfg: cfg}
	c.open = sync.OnceValues(c.openStore)
	return c
}

// openStore is called exactly once. A failure is remembered, every later
// operation returns the same error.
func (c *Cache) openStore() (db.KVDB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opened = true

	if c.cfg.Path == "" {
		Logger.Infof("no cache path configured, using in-memory store")
		return memory.NewMemoryDB(), nil
	}

	store, err := pebble.NewPebbleDB(c.cfg.Path, &pebble.DBOptions{
		CacheSize:     c.cfg.CapacityBytes,
		FlushInterval: c.cfg.FlushInterval,
		FS:            c.cfg.FS,
	})
	if err != nil {
		Logger.Errorf("failed to open cache at %s: %v", c.cfg.Path, err)
		return nil, err
	}
	return store, nil
}

// SetPath changes the location of the backing store. It fails with
// ErrAlreadyOpen once the store has been opened.
func (c *Cache) SetPath(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.opened {
		if path == c.cfg.Path {
			return nil
		}
		return newError("configure", "", ErrAlreadyOpen)
	}
	c.cfg.Path = path
	Logger.Infof("cache path set to %q", path)
	return nil
}

// Path returns the configured location of the backing store
func (c *Cache) Path() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg.Path
}

// Opened reports whether the backing store has been opened
func (c *Cache) Opened() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opened
}

// acquire returns the opened store and a release function that has to be
// called once the operation is done with the store. Close waits for all
// acquired stores to be released.
func (c *Cache) acquire(op, key string) (db.KVDB, func(), error) {
	c.inflight.RLock()
	if c.closed.Load() {
		c.inflight.RUnlock()
		return nil, nil, newError(op, key, ErrClosed)
	}
	store, err := c.open()
	if err != nil {
		c.inflight.RUnlock()
		errorsTotal.Inc()
		return nil, nil, newError("open", "", err)
	}
	return store, c.inflight.RUnlock, nil
}

// --------------------------------------------------------------------------
// Raw Operations
// --------------------------------------------------------------------------

// Insert stores value under key and returns the value previously stored.
// The boolean return value indicates whether there was a previous value.
func (c *Cache) Insert(key string, value []byte) ([]byte, bool, error) {
	if key == "" {
		return nil, false, newError("insert", key, ErrEmptyKey)
	}
	store, release, err := c.acquire("insert", key)
	if err != nil {
		return nil, false, err
	}
	defer release()

	prev, loaded, err := store.Swap(key, value)
	if err != nil {
		errorsTotal.Inc()
		return nil, false, newError("insert", key, err)
	}
	writesTotal.Inc()
	Logger.Debugf("insert %q (%d bytes, replaced=%v)", key, len(value), loaded)
	return prev, loaded, nil
}

// Get returns the value stored under key.
// The boolean return value indicates whether a value was found.
func (c *Cache) Get(key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, newError("get", key, ErrEmptyKey)
	}
	store, release, err := c.acquire("get", key)
	if err != nil {
		return nil, false, err
	}
	defer release()

	value, ok, err := store.Get(key)
	if err != nil {
		errorsTotal.Inc()
		return nil, false, newError("get", key, err)
	}
	if ok {
		hitsTotal.Inc()
	} else {
		missesTotal.Inc()
	}
	return value, ok, nil
}

// Delete removes the entry for key.
// The boolean return value indicates whether an entry was removed.
func (c *Cache) Delete(key string) (bool, error) {
	if key == "" {
		return false, newError("delete", key, ErrEmptyKey)
	}
	store, release, err := c.acquire("delete", key)
	if err != nil {
		return false, err
	}
	defer release()

	loaded, err := store.Delete(key)
	if err != nil {
		errorsTotal.Inc()
		return false, newError("delete", key, err)
	}
	return loaded, nil
}

// Flush makes all inserts so far durable
func (c *Cache) Flush() error {
	store, release, err := c.acquire("flush", "")
	if err != nil {
		return err
	}
	defer release()
	if err := store.Flush(); err != nil {
		errorsTotal.Inc()
		return newError("flush", "", err)
	}
	return nil
}

// Info returns information about the backing store
func (c *Cache) Info() (db.DatabaseInfo, error) {
	store, release, err := c.acquire("info", "")
	if err != nil {
		return db.DatabaseInfo{}, err
	}
	defer release()
	return store.GetInfo(), nil
}

// Close flushes and closes the backing store once all running operations
// are done. Closing a cache that was never used does not open it.
func (c *Cache) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.inflight.Lock()
	defer c.inflight.Unlock()
	if !c.Opened() {
		return nil
	}
	store, err := c.open()
	if err != nil {
		// open failed, nothing to close
		return nil
	}
	if err := store.Close(); err != nil {
		return newError("close", "", errors.Wrap(err, "close store"))
	}
	return nil
}
