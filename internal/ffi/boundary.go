package ffi

import (
	"bytes"
	"unsafe"

	"fortio.org/safecast"
)

// Alloc returns n bytes the host releases with its free function, or nil
// when out of memory.
type Alloc func(n uintptr) unsafe.Pointer

// PathArg copies the path argument of an entry point into Go memory. path
// points to n bytes; out is the caller's output slot, checked here so a
// call with nowhere to put its result fails before any work is done.
func PathArg(path unsafe.Pointer, n uintptr, out unsafe.Pointer) ([]byte, Code) {
	if path == nil || out == nil {
		return nil, Invalid
	}
	size, err := safecast.Conv[int](n)
	if err != nil {
		return nil, Invalid
	}
	return bytes.Clone(unsafe.Slice((*byte)(path), size)), OK
}

// Deliver hands a result to the caller. On OK it stores a NUL-terminated
// copy of code obtained from alloc in the char* slot out and, when outLen is
// not nil, the length of code without the terminator in the size_t slot
// outLen. For any other rc the slots are left untouched and rc is returned.
func Deliver(code string, rc Code, alloc Alloc, out, outLen unsafe.Pointer) Code {
	if rc != OK {
		return rc
	}
	if out == nil {
		return Invalid
	}
	n, err := safecast.Conv[uintptr](len(code))
	if err != nil {
		return IO
	}
	buf := alloc(n + 1)
	if buf == nil {
		return IO
	}
	dst := unsafe.Slice((*byte)(buf), len(code)+1)
	copy(dst, code)
	dst[len(code)] = 0
	*(*unsafe.Pointer)(out) = buf
	if outLen != nil {
		*(*uintptr)(outLen) = n
	}
	return OK
}
