package memory

import (
	"unsafe"
)

// Alias returns a slice of length bytes at addr+offset in process memory. The
// slice aliases that memory: nothing is copied and the Go garbage collector
// does not know about it, so it is only valid while the owner keeps the
// memory alive.
func Alias(addr uintptr, offset, length int) []byte {
	if addr == 0 || length <= 0 {
		return []byte{}
	}
	return unsafe.Slice((*byte)(unsafe.Add(unsafe.Pointer(addr), offset)), length)
}

// CStringBytes is Alias with the length discovered by scanning for the NUL
// terminator. It is the pure-Go equivalent of strlen.
func CStringBytes(addr uintptr, offset int) []byte {
	if addr == 0 {
		return []byte{}
	}
	ptr := unsafe.Add(unsafe.Pointer(addr), offset)
	var n int
	for *(*byte)(unsafe.Add(ptr, n)) != 0 {
		n++
	}
	return unsafe.Slice((*byte)(ptr), n)
}

// Process reads process memory. It is the Reader used by runtimes whose
// addresses are plain pointers.
type Process struct{}

var _ Reader = Process{}

func (Process) Read(addr uintptr, offset, length int) []byte {
	return Alias(addr, offset, length)
}

func (Process) ReadCString(addr uintptr, offset int) []byte {
	return CStringBytes(addr, offset)
}
