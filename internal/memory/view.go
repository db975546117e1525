// Package memory provides views over native memory and the ByteString value
// returned for cstring results.
//
// Views alias the memory they describe. Nothing here copies native bytes
// unless a method says so, and nothing can tell whether the memory is still
// alive: keeping it valid is the caller's contract.
package memory

import (
	"fmt"
	"sync"
)

// Reader is the runtime's raw memory primitive.
type Reader interface {
	// Read returns length bytes at addr+offset, aliasing native memory.
	Read(addr uintptr, offset, length int) []byte
	// ReadCString reads up to (not including) the NUL terminator.
	ReadCString(addr uintptr, offset int) []byte
}

// View describes length bytes at ptr+offset. The aliasing slice is
// materialized on first use and cached for the lifetime of the View, so
// repeated Bytes calls return the same slice.
type View struct {
	ptr    uintptr
	offset int
	length int

	rd   Reader
	once sync.Once
	buf  []byte
}

// NewView creates a view. A null address yields an owned, empty buffer that
// never aliases address 0, whatever offset and length say.
func NewView(rd Reader, addr uintptr, offset, length int) *View {
	if addr == 0 {
		v := &View{buf: make([]byte, 0)}
		v.once.Do(func() {})
		return v
	}
	if length < 0 {
		length = 0
	}
	return &View{ptr: addr, offset: offset, length: length, rd: rd}
}

// Bytes returns the aliasing slice, reading it through the Reader on first use.
func (v *View) Bytes() []byte {
	v.once.Do(func() {
		v.buf = v.rd.Read(v.ptr, v.offset, v.length)
	})
	return v.buf
}

// Ptr is the base address, 0 for a null view.
func (v *View) Ptr() uintptr { return v.ptr }

// Offset is the byte offset from Ptr.
func (v *View) Offset() int { return v.offset }

// Len is the length in bytes.
func (v *View) Len() int { return v.length }

// IsNull reports whether the view was created from a null address.
func (v *View) IsNull() bool { return v.ptr == 0 }

// Pointer returns the address of the first byte, so a View can be passed
// wherever a ptr argument is expected.
func (v *View) Pointer() uintptr {
	if v.ptr == 0 {
		return 0
	}
	return v.ptr + uintptr(v.offset)
}

func (v *View) String() string {
	if v.ptr == 0 {
		return "View(null)"
	}
	return fmt.Sprintf("View(0x%x+%d, %d bytes)", v.ptr, v.offset, v.length)
}
