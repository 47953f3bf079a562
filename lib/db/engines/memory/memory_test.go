package memory

import (
	"testing"

	"github.com/ValentinKolb/logicbridge/lib/db"
	dbtesting "github.com/ValentinKolb/logicbridge/lib/db/testing"
)

func Test(t *testing.T) {
	dbtesting.RunKVDBTests(t, "MemoryDB", func(t testing.TB) db.KVDB {
		return NewMemoryDB()
	})
}

func Benchmark(b *testing.B) {
	dbtesting.RunKVDBBenchmarks(b, "MemoryDB", func(t testing.TB) db.KVDB {
		return NewMemoryDB()
	})
}

// TestSwapDetached tests that Swap never hands out memory that is still
// referenced by the map
func TestSwapDetached(t *testing.T) {
	m := NewMemoryDB()
	defer m.Close()

	value := []byte("v1")
	prev, loaded, err := m.Swap("k", value)
	if err != nil || loaded || prev != nil {
		t.Fatalf("first swap: prev=%q loaded=%v err=%v", prev, loaded, err)
	}
	value[0] = 'X'

	prev, loaded, err = m.Swap("k", []byte("v2"))
	if err != nil || !loaded || string(prev) != "v1" {
		t.Fatalf("second swap: prev=%q loaded=%v err=%v", prev, loaded, err)
	}
	prev[0] = 'X'

	got, ok, err := m.Get("k")
	if err != nil || !ok || string(got) != "v2" {
		t.Errorf("get: value=%q ok=%v err=%v", got, ok, err)
	}
}
