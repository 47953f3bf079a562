// Package testing provides the conformance tests and benchmarks every
// db.KVDB engine runs.
//
// Example usage:
//
//	factory := func(t testing.TB) db.KVDB {
//		return NewMyDatabase()
//	}
//
//	dbtesting.RunKVDBTests(t, "MyDatabase", factory)
//	dbtesting.RunKVDBBenchmarks(b, "MyDatabase", factory)
package testing
