package memory

import (
	"github.com/ValentinKolb/logicbridge/lib/db"
	"github.com/ValentinKolb/logicbridge/lib/db/util"
	"github.com/puzpuzpuz/xsync/v3"
)

// memoryImpl keeps all entries in a concurrent hash map. Nothing survives Close.
type memoryImpl struct {
	data *xsync.MapOf[string, []byte]
}

// NewMemoryDB creates an empty in-memory database
func NewMemoryDB() db.KVDB {
	return &memoryImpl{
		data: xsync.NewMapOf[string, []byte](),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see db.KVDB)
// --------------------------------------------------------------------------

func (m *memoryImpl) Swap(key string, value []byte) ([]byte, bool, error) {
	stored := make([]byte, len(value))
	copy(stored, value)

	var (
		prev   []byte
		loaded bool
	)
	// the replaced slice is no longer reachable through the map, so it can be
	// handed out without a copy
	m.data.Compute(key, func(old []byte, ok bool) ([]byte, bool) {
		prev, loaded = old, ok
		return stored, false
	})
	if !loaded {
		return nil, false, nil
	}
	return prev, true, nil
}

func (m *memoryImpl) Delete(key string) (bool, error) {
	_, loaded := m.data.LoadAndDelete(key)
	return loaded, nil
}

func (m *memoryImpl) Get(key string) ([]byte, bool, error) {
	value, ok := m.data.Load(key)
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

func (m *memoryImpl) Flush() error {
	return nil
}

func (m *memoryImpl) GetInfo() db.DatabaseInfo {
	histogram := util.NewSizeHistogram()
	m.data.Range(func(key string, value []byte) bool {
		histogram.AddSample(len(key) + len(value))
		return true
	})

	meta := &struct {
		AverageEntrySize int `json:"average_entry_size"`
		MedianEntrySize  int `json:"median_entry_size"`
	}{
		AverageEntrySize: histogram.AverageSize(),
		MedianEntrySize:  histogram.MedianEstimate(),
	}

	return db.DatabaseInfo{
		SizeBytes: histogram.Sum(),
		Entries:   histogram.Count(),
		DbType:    db.ImplMemory,
		Metadata:  meta,
	}
}

func (m *memoryImpl) Close() error {
	m.data.Clear()
	return nil
}
