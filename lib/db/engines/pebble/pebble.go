package pebble

import (
	"sync"
	"time"

	"github.com/ValentinKolb/logicbridge/lib/db"
	"github.com/ValentinKolb/logicbridge/lib/db/util"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("db")

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	defaultCacheSize     = 50 << 20    // Block cache size (50 MiB)
	defaultFlushInterval = time.Second // Interval between WAL syncs
	lockStripes          = 64          // Number of key lock stripes for Swap
)

// --------------------------------------------------------------------------
// Core structure
// --------------------------------------------------------------------------

// pebbleImpl stores entries in a pebble LSM tree. Writes are not synced
// individually, a background loop syncs the WAL every flush interval.
type pebbleImpl struct {
	path  string
	db    *pebble.DB
	cache *pebble.Cache

	// Swap is a read followed by a write, the stripes make it atomic per key
	seed  uint64
	locks [lockStripes]sync.Mutex

	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// DBOptions configures the pebble engine
type DBOptions struct {
	CacheSize     int64         // Block cache size in bytes (0 = 50 MiB)
	FlushInterval time.Duration // Time between WAL syncs (0 = 1 sec, <0 = sync every write)
	FS            vfs.FS        // Filesystem (nil = disk)
}

// DefaultOptions returns the default options
func DefaultOptions() *DBOptions {
	return &DBOptions{
		CacheSize:     defaultCacheSize,
		FlushInterval: defaultFlushInterval,
	}
}

// --------------------------------------------------------------------------
// Initialization and Setup
// --------------------------------------------------------------------------

// NewPebbleDB opens (or creates) the database at path
func NewPebbleDB(path string, opts *DBOptions) (db.KVDB, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = defaultCacheSize
	}
	if opts.FlushInterval == 0 {
		opts.FlushInterval = defaultFlushInterval
	}

	cache := pebble.NewCache(opts.CacheSize)
	pebbleOpts := &pebble.Options{
		Cache:  cache,
		Logger: pebbleLogger{Logger},
	}
	if opts.FS != nil {
		pebbleOpts.FS = opts.FS
	}

	pdb, err := pebble.Open(path, pebbleOpts)
	if err != nil {
		cache.Unref()
		return nil, errors.Wrapf(err, "open pebble at %q", path)
	}

	newDB := &pebbleImpl{
		path:  path,
		db:    pdb,
		cache: cache,
		seed:  util.GenerateSeed(),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}

	go newDB.syncLoop(opts.FlushInterval)

	Logger.Infof("opened pebble database at %s (block cache %d bytes, flush interval %s)", path, opts.CacheSize, opts.FlushInterval)
	return newDB, nil
}

// syncLoop syncs the WAL periodically until Close is called. With a
// negative interval every write is synced and the loop only waits for Close.
func (p *pebbleImpl) syncLoop(interval time.Duration) {
	defer close(p.done)

	if interval < 0 {
		<-p.stop
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			if err := p.Flush(); err != nil {
				Logger.Errorf("periodic flush of %s failed: %v", p.path, err)
			}
		}
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see db.KVDB)
// --------------------------------------------------------------------------

func (p *pebbleImpl) Swap(key string, value []byte) ([]byte, bool, error) {
	mu := &p.locks[util.Stripe(key, p.seed, lockStripes)]
	mu.Lock()
	defer mu.Unlock()

	prev, loaded, err := p.Get(key)
	if err != nil {
		return nil, false, err
	}
	if err := p.db.Set([]byte(key), value, pebble.NoSync); err != nil {
		return nil, false, errors.Wrapf(err, "set %q", key)
	}
	return prev, loaded, nil
}

func (p *pebbleImpl) Delete(key string) (bool, error) {
	mu := &p.locks[util.Stripe(key, p.seed, lockStripes)]
	mu.Lock()
	defer mu.Unlock()

	_, loaded, err := p.Get(key)
	if err != nil || !loaded {
		return false, err
	}
	if err := p.db.Delete([]byte(key), pebble.NoSync); err != nil {
		return false, errors.Wrapf(err, "delete %q", key)
	}
	return true, nil
}

func (p *pebbleImpl) Get(key string) ([]byte, bool, error) {
	value, closer, err := p.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "get %q", key)
	}
	defer closer.Close()

	// value is only valid until closer is closed
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

func (p *pebbleImpl) Flush() error {
	if err := p.db.LogData(nil, pebble.Sync); err != nil {
		return errors.Wrap(err, "sync wal")
	}
	return nil
}

func (p *pebbleImpl) GetInfo() db.DatabaseInfo {
	m := p.db.Metrics()

	meta := &struct {
		Path            string `json:"path"`
		BlockCacheSize  int64  `json:"block_cache_size"`
		BlockCacheHits  int64  `json:"block_cache_hits"`
		BlockCacheMiss  int64  `json:"block_cache_misses"`
		MemtableSize    uint64 `json:"memtable_size"`
		WALSize         uint64 `json:"wal_size"`
		CompactionCount int64  `json:"compaction_count"`
	}{
		Path:            p.path,
		BlockCacheSize:  m.BlockCache.Size,
		BlockCacheHits:  m.BlockCache.Hits,
		BlockCacheMiss:  m.BlockCache.Misses,
		MemtableSize:    m.MemTable.Size,
		WALSize:         m.WAL.Size,
		CompactionCount: m.Compact.Count,
	}

	return db.DatabaseInfo{
		SizeBytes: int64(m.DiskSpaceUsage()),
		Entries:   -1,
		DbType:    db.ImplPebble,
		Metadata:  meta,
	}
}

func (p *pebbleImpl) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.stop)
		<-p.done

		err = p.Flush()
		if cerr := p.db.Close(); cerr != nil {
			err = errors.CombineErrors(err, errors.Wrap(cerr, "close pebble"))
		}
		p.cache.Unref()
		Logger.Infof("closed pebble database at %s", p.path)
	})
	return err
}

// --------------------------------------------------------------------------
// Logger Adapter
// --------------------------------------------------------------------------

// pebbleLogger routes pebble's log output into the named "db" logger
type pebbleLogger struct {
	l logger.ILogger
}

func (pl pebbleLogger) Infof(format string, args ...interface{}) {
	pl.l.Debugf(format, args...)
}

func (pl pebbleLogger) Fatalf(format string, args ...interface{}) {
	pl.l.Panicf(format, args...)
}
