package pebble

import (
	"bytes"
	"testing"

	"github.com/ValentinKolb/logicbridge/lib/db"
	dbtesting "github.com/ValentinKolb/logicbridge/lib/db/testing"
	"github.com/cockroachdb/pebble/vfs"
)

func newTestDB(t testing.TB) db.KVDB {
	database, err := NewPebbleDB("cache", &DBOptions{FS: vfs.NewMem()})
	if err != nil {
		t.Fatalf("failed to open pebble: %v", err)
	}
	return database
}

func Test(t *testing.T) {
	dbtesting.RunKVDBTests(t, "PebbleDB", newTestDB)
}

func Benchmark(b *testing.B) {
	dbtesting.RunKVDBBenchmarks(b, "PebbleDB", newTestDB)
}

// TestReopen tests that flushed entries survive closing and reopening
func TestReopen(t *testing.T) {
	fs := vfs.NewMem()

	first, err := NewPebbleDB("cache", &DBOptions{FS: fs})
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if _, _, err := first.Swap("topic:1", []byte("cached")); err != nil {
		t.Fatalf("swap failed: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	second, err := NewPebbleDB("cache", &DBOptions{FS: fs})
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer second.Close()

	value, ok, err := second.Get("topic:1")
	if err != nil || !ok {
		t.Fatalf("expected entry after reopen, ok=%v err=%v", ok, err)
	}
	if !bytes.Equal(value, []byte("cached")) {
		t.Errorf("unexpected value %q", value)
	}
}

// TestCloseTwice tests that Close is idempotent
func TestCloseTwice(t *testing.T) {
	database, err := NewPebbleDB("cache", &DBOptions{FS: vfs.NewMem(), FlushInterval: -1})
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := database.Close(); err != nil {
		t.Fatalf("first close failed: %v", err)
	}
	if err := database.Close(); err != nil {
		t.Errorf("second close returned %v", err)
	}
}

// TestInfo tests the engine specific info
func TestInfo(t *testing.T) {
	database := newTestDB(t)
	defer database.Close()

	info := database.GetInfo()
	if info.DbType != db.ImplPebble {
		t.Errorf("unexpected db type %s", info.DbType)
	}
	if info.Entries != -1 {
		t.Errorf("expected unknown entry count, got %d", info.Entries)
	}
}
