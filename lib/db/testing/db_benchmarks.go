package testing

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/ValentinKolb/logicbridge/lib/db"
)

// RunKVDBBenchmarks runs all benchmarks for a key-value database implementation
func RunKVDBBenchmarks(b *testing.B, name string, factory DBFactory) {
	b.Run(name, func(b *testing.B) {
		b.Run("Swap", func(b *testing.B) {
			benchmarkSwap(b, factory(b))
		})

		b.Run("SwapExisting", func(b *testing.B) {
			benchmarkSwapExisting(b, factory(b))
		})

		b.Run("Get", func(b *testing.B) {
			benchmarkGet(b, factory(b))
		})

		b.Run("MixedUsage", func(b *testing.B) {
			benchmarkMixedUsage(b, factory(b))
		})
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

func prefill(b *testing.B, database db.KVDB, numKeys int) {
	for i := 0; i < numKeys; i++ {
		if _, _, err := database.Swap(fmt.Sprintf("test-key-%d", i), []byte(fmt.Sprintf("test-value-%d", i))); err != nil {
			b.Fatalf("prefill failed: %v", err)
		}
	}
}

// Benchmark for Swap on new keys
func benchmarkSwap(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		prefix := rand.Int63()
		counter := 0
		for pb.Next() {
			key := fmt.Sprintf("test-key-%d-%d", prefix, counter)
			database.Swap(key, []byte("test-value"))
			counter++
		}
	})
}

// Benchmark for Swap on existing keys
func benchmarkSwapExisting(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	numKeys := 10_000
	prefill(b, database, numKeys)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			key := fmt.Sprintf("test-key-%d", counter%numKeys)
			database.Swap(key, []byte("test-value"))
			counter++
		}
	})
}

// Parallel benchmarking for Get operation
func benchmarkGet(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	numKeys := 10_000
	prefill(b, database, numKeys)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			key := fmt.Sprintf("test-key-%d", counter%numKeys)
			database.Get(key)
			counter++
		}
	})
}

// Cache like workload: mostly reads, some writes, few deletes
func benchmarkMixedUsage(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	numKeys := 10_000
	prefill(b, database, numKeys)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(rand.Int63()))
		for pb.Next() {
			key := fmt.Sprintf("test-key-%d", r.Intn(numKeys))
			switch n := r.Intn(100); {
			case n < 80:
				database.Get(key)
			case n < 98:
				database.Swap(key, []byte("updated-value"))
			default:
				database.Delete(key)
			}
		}
	})
}
