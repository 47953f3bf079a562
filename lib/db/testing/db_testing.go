package testing

import (
	"bytes"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ValentinKolb/logicbridge/lib/db"
)

// DBFactory is a function that creates a new, empty instance of a KVDB implementation
type DBFactory func(t testing.TB) db.KVDB

// RunKVDBTests runs the conformance test suite for a KVDB implementation.
func RunKVDBTests(t *testing.T, name string, factory DBFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Swap&Get", func(t *testing.T) {
			testSwapGet(t, factory(t))
		})

		t.Run("GetReturnsCopy", func(t *testing.T) {
			testGetReturnsCopy(t, factory(t))
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory(t))
		})

		t.Run("Flush", func(t *testing.T) {
			testFlush(t, factory(t))
		})

		t.Run("EdgeCases", func(t *testing.T) {
			testEdgeCases(t, factory(t))
		})

		t.Run("ConcurrentSwap", func(t *testing.T) {
			testConcurrentSwap(t, factory(t))
		})

		t.Run("RealisticUsage", func(t *testing.T) {
			testRealisticUsage(t, factory(t))
		})

		t.Run("Info", func(t *testing.T) {
			testInfo(t, factory(t))
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

func mustGet(t testing.TB, database db.KVDB, key string) ([]byte, bool) {
	t.Helper()
	value, ok, err := database.Get(key)
	if err != nil {
		t.Fatalf("Get(%q) failed: %v", key, err)
	}
	return value, ok
}

func mustSwap(t testing.TB, database db.KVDB, key string, value []byte) ([]byte, bool) {
	t.Helper()
	prev, ok, err := database.Swap(key, value)
	if err != nil {
		t.Fatalf("Swap(%q) failed: %v", key, err)
	}
	return prev, ok
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testSwapGet(t *testing.T, database db.KVDB) {
	defer database.Close()

	testKey := "test-key"
	testValue1 := []byte("test-value1")
	testValue2 := []byte("test-value2")

	prev, loaded := mustSwap(t, database, testKey, testValue1)
	if loaded || prev != nil {
		t.Errorf("Expected no previous value on first Swap, got %q", prev)
	}

	result, exists := mustGet(t, database, testKey)
	if !exists {
		t.Errorf("Expected key %s to exist after Swap", testKey)
	}
	if !bytes.Equal(result, testValue1) {
		t.Errorf("Expected value %s, got %s", testValue1, result)
	}

	prev, loaded = mustSwap(t, database, testKey, testValue2)
	if !loaded || !bytes.Equal(prev, testValue1) {
		t.Errorf("Expected previous value %s, got %s (loaded=%v)", testValue1, prev, loaded)
	}

	result, _ = mustGet(t, database, testKey)
	if !bytes.Equal(result, testValue2) {
		t.Errorf("Expected value %s, got %s", testValue2, result)
	}

	if _, exists = mustGet(t, database, "nonexistent-key"); exists {
		t.Errorf("Expected nonexistent key to return exists=false")
	}
}

func testGetReturnsCopy(t *testing.T, database db.KVDB) {
	defer database.Close()

	input := []byte("original")
	mustSwap(t, database, "key", input)
	input[0] = 'X'

	retrieved, _ := mustGet(t, database, "key")
	if !bytes.Equal(retrieved, []byte("original")) {
		t.Errorf("Swap should copy the value, got %s", retrieved)
	}

	retrieved[0] = 'Y'
	again, _ := mustGet(t, database, "key")
	if !bytes.Equal(again, []byte("original")) {
		t.Errorf("Get should return a copy, not a reference to the stored value")
	}
}

func testDelete(t *testing.T, database db.KVDB) {
	defer database.Close()

	mustSwap(t, database, "delete-key", []byte("value"))

	loaded, err := database.Delete("delete-key")
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !loaded {
		t.Errorf("Expected Delete to report an existing entry")
	}

	if _, exists := mustGet(t, database, "delete-key"); exists {
		t.Errorf("Key should not exist after Delete")
	}

	loaded, err = database.Delete("delete-key")
	if err != nil || loaded {
		t.Errorf("Deleting a missing key should be a no-op, got loaded=%v err=%v", loaded, err)
	}

	prev, loaded := mustSwap(t, database, "delete-key", []byte("new"))
	if loaded || prev != nil {
		t.Errorf("Swap after Delete should not return a previous value, got %q", prev)
	}
}

func testFlush(t *testing.T, database db.KVDB) {
	defer database.Close()

	for i := 0; i < 100; i++ {
		mustSwap(t, database, fmt.Sprintf("flush-key-%d", i), []byte("value"))
	}
	if err := database.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if _, exists := mustGet(t, database, "flush-key-99"); !exists {
		t.Errorf("Key should exist after Flush")
	}
}

func testEdgeCases(t *testing.T, database db.KVDB) {
	defer database.Close()

	mustSwap(t, database, "nil-value-key", nil)
	result, exists := mustGet(t, database, "nil-value-key")
	if !exists {
		t.Errorf("Key for nil value not found after Swap")
	} else if len(result) != 0 {
		t.Errorf("Nil value resulted in non-empty value: %v", result)
	}

	prev, loaded := mustSwap(t, database, "nil-value-key", []byte("x"))
	if !loaded || len(prev) != 0 {
		t.Errorf("Expected empty previous value, got %v (loaded=%v)", prev, loaded)
	}

	binaryKey := string([]byte{0, 1, 2, 255, 0})
	mustSwap(t, database, binaryKey, []byte("binary"))
	if result, _ = mustGet(t, database, binaryKey); !bytes.Equal(result, []byte("binary")) {
		t.Errorf("Value mismatch for binary key")
	}

	largeKey := string(bytes.Repeat([]byte("k"), 1000))
	mustSwap(t, database, largeKey, []byte("value for large key"))
	if result, _ = mustGet(t, database, largeKey); !bytes.Equal(result, []byte("value for large key")) {
		t.Errorf("Value mismatch for large key")
	}

	largeValue := make([]byte, 4*1024*1024)
	for i := range largeValue {
		largeValue[i] = byte(i % 256)
	}
	mustSwap(t, database, "large-value-key", largeValue)
	if result, _ = mustGet(t, database, "large-value-key"); !bytes.Equal(result, largeValue) {
		t.Errorf("Large value mismatch")
	}
}

// testConcurrentSwap checks that concurrent swaps on one key form a chain:
// every written value is either returned as previous value exactly once
// or is the final value.
func testConcurrentSwap(t *testing.T, database db.KVDB) {
	defer database.Close()

	const workers = 8
	const perWorker = 200

	var mu sync.Mutex
	seen := make(map[string]int)
	var wg sync.WaitGroup
	wg.Add(workers)

	for w := 0; w < workers; w++ {
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				prev, loaded, err := database.Swap("contended", []byte(fmt.Sprintf("%d-%d", worker, i)))
				if err != nil {
					t.Errorf("Swap failed: %v", err)
					return
				}
				if loaded {
					mu.Lock()
					seen[string(prev)]++
					mu.Unlock()
				}
			}
		}(w)
	}
	wg.Wait()

	final, _ := mustGet(t, database, "contended")
	seen[string(final)]++

	if len(seen) != workers*perWorker {
		t.Errorf("Expected %d distinct values, got %d", workers*perWorker, len(seen))
	}
	for value, count := range seen {
		if count != 1 {
			t.Errorf("Value %s observed %d times", value, count)
		}
	}
}

func testRealisticUsage(t *testing.T, database db.KVDB) {
	defer database.Close()

	numWorkers := 8
	opsPerWorker := 1_000

	var wg sync.WaitGroup
	wg.Add(numWorkers)
	var errorCount atomic.Int32

	for w := 0; w < numWorkers; w++ {
		go func(workerId int) {
			defer wg.Done()
			for i := 0; i < opsPerWorker; i++ {
				var key string
				if i%5 == 0 {
					key = fmt.Sprintf("hot-key-%d", i%50)
				} else {
					key = fmt.Sprintf("key-%d-%d", workerId, i)
				}

				var err error
				switch i % 10 {
				case 7, 8:
					_, _, err = database.Get(key)
				case 9:
					_, err = database.Delete(key)
				default:
					_, _, err = database.Swap(key, []byte(fmt.Sprintf("value-%d", i)))
				}
				if err != nil {
					errorCount.Add(1)
				}
			}
		}(w)
	}
	wg.Wait()

	if n := errorCount.Load(); n > 0 {
		t.Fatalf("Test had %d errors during parallel operations", n)
	}

	// keys written and never deleted by their own worker must still be readable
	for w := 0; w < numWorkers; w++ {
		key := fmt.Sprintf("key-%d-%d", w, 1)
		if value, exists := mustGet(t, database, key); !exists || !bytes.Equal(value, []byte("value-1")) {
			t.Errorf("Key %s should exist with value-1, got %q (exists=%v)", key, value, exists)
		}
	}
}

func testInfo(t *testing.T, database db.KVDB) {
	defer database.Close()

	for i := 0; i < 10; i++ {
		mustSwap(t, database, fmt.Sprintf("info-key-%d", i), []byte("value"))
	}

	info := database.GetInfo()
	if info.DbType == "" {
		t.Errorf("Expected a db type")
	}
	if info.Entries != -1 && info.Entries != 10 {
		t.Errorf("Expected 10 entries or -1, got %d", info.Entries)
	}
	if info.SizeBytes < 0 {
		t.Errorf("Expected non-negative size, got %d", info.SizeBytes)
	}
}
