package buffer

import (
	"sync/atomic"
	"unsafe"

	"github.com/puzpuzpuz/xsync/v3"
)

// IAllocator provides the memory that is handed across the boundary.
// Free is always called with the size that Alloc was called with.
type IAllocator interface {
	// Alloc returns size bytes of memory or nil if allocation failed
	Alloc(size int) unsafe.Pointer
	// Free releases memory previously returned by Alloc
	Free(ptr unsafe.Pointer, size int)
}

// IStaticErrorProvider is implemented by allocators whose memory is read by
// code that must not hold Go pointers. StaticError returns a NUL terminated
// message in memory that is never freed; the protocol hands it out when an
// error buffer cannot be allocated.
type IStaticErrorProvider interface {
	StaticError() unsafe.Pointer
}

// --------------------------------------------------------------------------
// Heap Allocator
// --------------------------------------------------------------------------

// NewHeapAllocator creates an allocator that serves memory from the Go heap.
// Allocations are pinned in a map until freed, so they stay reachable while
// the receiver owns them. Suitable for in-process hosts and tests, never for
// memory that C code keeps after the call returns.
func NewHeapAllocator() IAllocator {
	return &heapAllocator{pinned: xsync.NewMapOf[uintptr, []byte]()}
}

type heapAllocator struct {
	pinned *xsync.MapOf[uintptr, []byte]
}

func (a *heapAllocator) Alloc(size int) unsafe.Pointer {
	if size <= 0 {
		return nil
	}
	mem := make([]byte, size)
	ptr := unsafe.Pointer(&mem[0])
	a.pinned.Store(uintptr(ptr), mem)
	return ptr
}

func (a *heapAllocator) Free(ptr unsafe.Pointer, _ int) {
	a.pinned.Delete(uintptr(ptr))
}

// --------------------------------------------------------------------------
// Tracking Allocator
// --------------------------------------------------------------------------

// TrackingAllocator wraps another allocator, logs every allocation and
// release and keeps track of live allocations for leak diagnosis.
// Frees of unknown pointers (double release, foreign buffers) and frees with
// a wrong size are reported and not forwarded to the wrapped allocator.
type TrackingAllocator struct {
	inner  IAllocator
	live   *xsync.MapOf[uintptr, int]
	allocs atomic.Uint64
	frees  atomic.Uint64
	misuse atomic.Uint64
}

// NewTrackingAllocator wraps inner with allocation tracking
func NewTrackingAllocator(inner IAllocator) *TrackingAllocator {
	return &TrackingAllocator{
		inner: inner,
		live:  xsync.NewMapOf[uintptr, int](),
	}
}

func (a *TrackingAllocator) Alloc(size int) unsafe.Pointer {
	ptr := a.inner.Alloc(size)
	if ptr == nil {
		Logger.Warningf("alloc %d bytes failed", size)
		return nil
	}
	a.live.Store(uintptr(ptr), size)
	a.allocs.Add(1)
	Logger.Debugf("alloc %p (%d bytes), live=%d", ptr, size, a.live.Size())
	return ptr
}

func (a *TrackingAllocator) Free(ptr unsafe.Pointer, size int) {
	allocated, ok := a.live.LoadAndDelete(uintptr(ptr))
	if !ok {
		a.misuse.Add(1)
		Logger.Errorf("free of unknown pointer %p (%d bytes): double release or foreign buffer", ptr, size)
		return
	}
	if allocated != size {
		a.misuse.Add(1)
		Logger.Errorf("free of %p with size %d, allocated with %d", ptr, size, allocated)
		size = allocated
	}
	a.frees.Add(1)
	a.inner.Free(ptr, size)
	Logger.Debugf("free %p (%d bytes), live=%d", ptr, size, a.live.Size())
}

// StaticError forwards to the wrapped allocator
func (a *TrackingAllocator) StaticError() unsafe.Pointer {
	if p, ok := a.inner.(IStaticErrorProvider); ok {
		return p.StaticError()
	}
	return nil
}

// Live returns the number of allocations that were not freed yet
func (a *TrackingAllocator) Live() int {
	return a.live.Size()
}

// Stats returns the number of allocations, frees and detected misuses
func (a *TrackingAllocator) Stats() (allocs, frees, misuse uint64) {
	return a.allocs.Load(), a.frees.Load(), a.misuse.Load()
}
