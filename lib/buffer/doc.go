// Package buffer implements the ownership protocol for byte sequences that
// cross the foreign function boundary between the bridge and its host.
//
// A Buffer is the raw (pointer, length, capacity, error) tuple of the C ABI.
// Buffers are created by a Protocol, which copies the payload once into
// memory obtained from an IAllocator and hands the result to the receiver.
// The receiver owns the buffer until it calls Release, which reconstructs the
// allocation from exactly the reported pointer and capacity. Nothing is freed
// implicitly: there are no finalizers, because the owner may be a runtime the
// Go garbage collector knows nothing about.
//
// Allocators:
//
//   - The C heap allocator lives in the c-shared library (cmd/libbridge).
//   - NewHeapAllocator serves Go heap memory for in-process hosts and tests.
//   - NewTrackingAllocator wraps either of them, logs every allocation and
//     release and detects double releases in development builds.
//
// When the allocator is out of memory the protocol returns an error buffer
// pointing at a static message (AllocFailureMessage). Release recognizes it
// by address and leaves it alone. Allocators whose memory is read by C code
// provide that message themselves through IStaticErrorProvider.
//
// Releasing a buffer twice, or releasing memory the protocol did not hand
// out, is a contract violation with undefined behavior for raw allocators.
package buffer
