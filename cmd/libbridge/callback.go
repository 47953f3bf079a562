package main

/*
#include "logicbridge.h"

static inline void logic_invoke_callback(LogicCallback cb, void* context, LogicBuffer result) {
	cb(context, result);
}
*/
import "C"

import (
	"unsafe"
)

// invokeCallback hands result to a C callback
func invokeCallback(cb C.LogicCallback, context unsafe.Pointer, result C.LogicBuffer) {
	C.logic_invoke_callback(cb, context, result)
}
