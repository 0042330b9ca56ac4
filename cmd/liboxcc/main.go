// Command liboxcc builds the oxcc C library:
//
//	go build -buildmode=c-shared -o liboxcc.so ./cmd/liboxcc
//
// The exported functions are declared in oxcc.h.
package main

/*
#include <stdint.h>
#include <stdlib.h>
*/
import "C"

import (
	"unsafe"

	"github.com/maxleiko/oxcc/internal/ffi"
)

var registry = ffi.NewRegistry()

//export oxcc_transpiler__new
func oxcc_transpiler__new() C.uintptr_t {
	return C.uintptr_t(registry.New())
}

//export oxcc_transpiler__free
func oxcc_transpiler__free(h C.uintptr_t) {
	registry.Free(ffi.Handle(h))
}

//export oxcc_transpiler__transpile
func oxcc_transpiler__transpile(h C.uintptr_t, path *C.char, pathLen C.size_t, out **C.char, outLen *C.size_t) C.int {
	p, rc := ffi.PathArg(unsafe.Pointer(path), uintptr(pathLen), unsafe.Pointer(out))
	if rc != ffi.OK {
		return C.int(rc)
	}
	code, rc := registry.Transpile(ffi.Handle(h), p)
	return C.int(ffi.Deliver(code, rc, cmalloc, unsafe.Pointer(out), unsafe.Pointer(outLen)))
}

//export oxcc_string__free
func oxcc_string__free(p *C.char) {
	C.free(unsafe.Pointer(p))
}

//export oxcc__transpile
func oxcc__transpile(path *C.char, pathLen C.size_t, out **C.char, outLen *C.size_t) C.int {
	p, rc := ffi.PathArg(unsafe.Pointer(path), uintptr(pathLen), unsafe.Pointer(out))
	if rc != ffi.OK {
		return C.int(rc)
	}
	code, rc := ffi.TranspileOnce(p)
	return C.int(ffi.Deliver(code, rc, cmalloc, unsafe.Pointer(out), unsafe.Pointer(outLen)))
}

//export oxcc__free
func oxcc__free(p *C.char) {
	C.free(unsafe.Pointer(p))
}

// cmalloc allocates result strings the host releases with
// oxcc_string__free or oxcc__free.
func cmalloc(n uintptr) unsafe.Pointer {
	return C.malloc(C.size_t(n))
}

func main() {}
