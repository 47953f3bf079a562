package buffer

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("buffer")

// AllocFailureMessage is the error of buffers that had to be produced while
// the allocator was out of memory
const AllocFailureMessage = "AllocationFailure: cannot allocate buffer memory"

// allocFailure is the static error string for allocators that do not provide
// their own. It is never freed.
var allocFailure = []byte(AllocFailureMessage + "\x00")

// --------------------------------------------------------------------------
// Buffer
// --------------------------------------------------------------------------

// Buffer is the value that moves a byte sequence across the boundary.
// Its layout matches the C struct exported by the library:
//
//	typedef struct { const uint8_t* ptr; size_t len; size_t cap; const char* err; } LogicBuffer;
//
// Exactly one of the following holds for a valid Buffer:
//   - payload: Data != nil, Err == nil, Len <= Cap
//   - error:   Err != nil (NUL terminated), Data == nil, Len == Cap == 0
//
// A Buffer is a single use capability: it has to be released exactly once by
// whichever side owns it, and must not be touched afterwards.
type Buffer struct {
	Data unsafe.Pointer
	Len  int
	Cap  int
	Err  unsafe.Pointer
}

// IsError reports whether the error channel of the buffer is set
func (b Buffer) IsError() bool {
	return b.Err != nil
}

// Valid reports whether exactly one of payload and error is set
func (b Buffer) Valid() bool {
	if b.Err != nil {
		return b.Data == nil && b.Len == 0 && b.Cap == 0
	}
	return b.Data != nil && b.Len >= 0 && b.Len <= b.Cap
}

// Bytes returns a view of the payload. The slice is only valid until the
// buffer is released.
func (b Buffer) Bytes() []byte {
	if b.Data == nil {
		return nil
	}
	return unsafe.Slice((*byte)(b.Data), b.Len)
}

// ErrorMessage returns a copy of the error string or "" for payload buffers
func (b Buffer) ErrorMessage() string {
	if b.Err == nil {
		return ""
	}
	return string(unsafe.Slice((*byte)(b.Err), cStrLen(b.Err)))
}

func (b Buffer) String() string {
	return fmt.Sprintf("Buffer{ptr=%p len=%d cap=%d err=%p}", b.Data, b.Len, b.Cap, b.Err)
}

// --------------------------------------------------------------------------
// Protocol
// --------------------------------------------------------------------------

// Protocol creates and releases buffers with a fixed allocator. Callers
// never see pointer arithmetic: a buffer is either constructed and handed
// over (FromBytes, FromError, FromResult) or released.
//
// Thread-safety: Protocol is safe for concurrent use if the allocator is.
type Protocol struct {
	alloc  IAllocator
	static unsafe.Pointer // error string used when allocation fails
}

// NewProtocol creates a buffer protocol backed by the given allocator
func NewProtocol(alloc IAllocator) *Protocol {
	p := &Protocol{alloc: alloc, static: unsafe.Pointer(&allocFailure[0])}
	if provider, ok := alloc.(IStaticErrorProvider); ok {
		if static := provider.StaticError(); static != nil {
			p.static = static
		}
	}
	return p
}

// FromBytes copies b into boundary memory and transfers ownership of that
// memory to the receiver of the returned buffer. An empty payload still gets
// a one byte allocation so that the data pointer is never nil.
func (p *Protocol) FromBytes(b []byte) Buffer {
	size := len(b)
	if size == 0 {
		size = 1
	}

	ptr := p.alloc.Alloc(size)
	if ptr == nil {
		return p.FromError(fmt.Sprintf("buffer: cannot allocate %d bytes", size))
	}
	copy(unsafe.Slice((*byte)(ptr), size), b)

	buf := Buffer{Data: ptr, Len: len(b), Cap: size}
	Logger.Debugf("new buffer %s", buf)
	return buf
}

// FromError allocates a NUL terminated copy of msg and returns a buffer with
// only the error channel set.
func (p *Protocol) FromError(msg string) Buffer {
	// interior NUL bytes would silently truncate the message on the other side
	msg = strings.ReplaceAll(msg, "\x00", `\0`)

	ptr := p.alloc.Alloc(len(msg) + 1)
	if ptr == nil {
		Logger.Errorf("cannot allocate error buffer for %q, using static error", msg)
		return Buffer{Err: p.static}
	}
	mem := unsafe.Slice((*byte)(ptr), len(msg)+1)
	copy(mem, msg)
	mem[len(msg)] = 0

	buf := Buffer{Err: ptr}
	Logger.Debugf("new error buffer %s: %s", buf, msg)
	return buf
}

// FromResult converts the outcome of a call into a buffer
func (p *Protocol) FromResult(b []byte, err error) Buffer {
	if err != nil {
		return p.FromError(err.Error())
	}
	return p.FromBytes(b)
}

// Release frees both channels of the buffer using the originally reported
// capacity. Releasing a buffer twice or a buffer that was not produced by
// this protocol is undefined behavior (the tracking allocator reports it).
// The static allocation failure error is never freed.
func (p *Protocol) Release(b Buffer) {
	Logger.Debugf("free buffer %s", b)
	if b.Data != nil {
		p.alloc.Free(b.Data, b.Cap)
	}
	if b.Err != nil && b.Err != p.static {
		p.alloc.Free(b.Err, cStrLen(b.Err)+1)
	}
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// cStrLen returns the length of a NUL terminated string
func cStrLen(p unsafe.Pointer) int {
	n := 0
	for *(*byte)(unsafe.Add(p, n)) != 0 {
		n++
	}
	return n
}
