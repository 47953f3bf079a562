package main

/*
#include <stdlib.h>

static const char logic_alloc_failure[] = "AllocationFailure: cannot allocate buffer memory";

static inline const char* logic_alloc_failure_message(void) {
	return logic_alloc_failure;
}
*/
import "C"

import (
	"unsafe"
)

// cAllocator serves buffers from the C heap, so the host may keep them
// after the call returned and free them from any thread
type cAllocator struct{}

func (cAllocator) Alloc(size int) unsafe.Pointer {
	if size <= 0 {
		return nil
	}
	return C.malloc(C.size_t(size))
}

func (cAllocator) Free(ptr unsafe.Pointer, _ int) {
	C.free(ptr)
}

// StaticError returns the allocation failure message from static C memory.
// Handing out the Go copy would return a Go pointer to the host.
func (cAllocator) StaticError() unsafe.Pointer {
	return unsafe.Pointer(C.logic_alloc_failure_message())
}
