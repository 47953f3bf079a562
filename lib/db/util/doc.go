// Package util provides helpers shared by the db.KVDB engines.
//
// The package contains:
//   - functions: seeded string hashing used to stripe key locks
//   - statistics: a SizeHistogram for estimating value sizes without full scans
package util
