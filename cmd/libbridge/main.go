// Command libbridge builds the bridge as a C shared library:
//
//	go build -buildmode=c-shared -o liblogic.so ./cmd/libbridge
//
// The library reads its configuration from LOGIC_* environment variables
// (and .env files in the working directory) on the first call.
package main

/*
#include "logicbridge.h"
*/
import "C"

import (
	"sync"
	"unsafe"

	"github.com/ValentinKolb/logicbridge/lib/bridge"
	"github.com/ValentinKolb/logicbridge/lib/buffer"
	"github.com/ValentinKolb/logicbridge/rpc/common"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/sourcegraph/conc/panics"
)

var Logger = logger.GetLogger("bridge")

var (
	runtimeOnce sync.Once
	instance    *bridge.Bridge

	// fallback builds error buffers when the bridge itself is unavailable
	fallback = buffer.NewProtocol(cAllocator{})
)

// getBridge initializes the process wide bridge on first use. It returns
// nil if initialization failed.
func getBridge() *bridge.Bridge {
	runtimeOnce.Do(func() {
		if r := panics.Try(func() {
			config := common.LoadBridgeConfig()
			common.InitLoggers(config)
			instance = bridge.New(bridge.Config{
				Cache:          config.CacheConfig(),
				MaxConcurrency: config.MaxConcurrency,
				TrackBuffers:   config.TrackBuffers,
			},
				bridge.WithAllocator(cAllocator{}),
				bridge.WithLogLevelHook(common.SetLogLevel),
			)
			Logger.Infof("runtime initialized:%s", config.String())
		}); r != nil {
			Logger.Errorf("runtime initialization failed: %s", r.String())
			instance = nil
		}
	})
	return instance
}

// --------------------------------------------------------------------------
// Conversion
// --------------------------------------------------------------------------

func toC(b buffer.Buffer) C.LogicBuffer {
	return C.LogicBuffer{
		ptr: (*C.uint8_t)(b.Data),
		len: C.size_t(b.Len),
		cap: C.size_t(b.Cap),
		err: (*C.char)(b.Err),
	}
}

func fromC(b C.LogicBuffer) buffer.Buffer {
	return buffer.Buffer{
		Data: unsafe.Pointer(b.ptr),
		Len:  int(b.len),
		Cap:  int(b.cap),
		Err:  unsafe.Pointer(b.err),
	}
}

// view returns the request bytes without copying
func view(data *C.uint8_t, length C.size_t) []byte {
	if data == nil || length == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(data)), int(length))
}

// --------------------------------------------------------------------------
// Go entry points
// --------------------------------------------------------------------------

func call(req []byte) (out buffer.Buffer) {
	if r := panics.Try(func() {
		b := getBridge()
		if b == nil {
			out = fallback.FromError("bridge runtime is not initialized")
			return
		}
		out = b.CallBuffer(req)
	}); r != nil {
		Logger.Errorf("logic_call panicked: %s", r.String())
		out = fallback.FromError(r.String())
	}
	return out
}

func callAsync(req []byte, deliver func(buffer.Buffer)) {
	if r := panics.Try(func() {
		b := getBridge()
		if b == nil {
			deliver(fallback.FromError("bridge runtime is not initialized"))
			return
		}
		b.CallAsyncBuffer(req, deliver)
	}); r != nil {
		Logger.Errorf("logic_call_async panicked: %s", r.String())
	}
}

func release(buf buffer.Buffer) {
	if r := panics.Try(func() {
		if b := getBridge(); b != nil {
			b.Release(buf)
		} else {
			fallback.Release(buf)
		}
	}); r != nil {
		Logger.Errorf("logic_free panicked: %s", r.String())
	}
}

// --------------------------------------------------------------------------
// C exports
// --------------------------------------------------------------------------

//export logic_call
func logic_call(data *C.uint8_t, length C.size_t) C.LogicBuffer {
	return toC(call(view(data, length)))
}

//export logic_call_async
func logic_call_async(data *C.uint8_t, length C.size_t, cb C.LogicCallback, context unsafe.Pointer) {
	if cb == nil {
		Logger.Errorf("logic_call_async called without callback, request dropped")
		return
	}
	// the request is copied by the dispatcher before callAsync returns
	callAsync(view(data, length), func(buf buffer.Buffer) {
		invokeCallback(cb, context, toC(buf))
	})
}

//export logic_free
func logic_free(buf C.LogicBuffer) {
	release(fromC(buf))
}

//export logic_live_buffers
func logic_live_buffers() C.long {
	b := getBridge()
	if b == nil {
		return -1
	}
	return C.long(b.LiveBuffers())
}

func main() {}
