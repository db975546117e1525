package memory

import (
	"reflect"
	"unsafe"
)

// Pointerer is implemented by values that designate native memory directly,
// such as View.
type Pointerer interface {
	Pointer() uintptr
}

// AddressOf returns the address of the memory backing a buffer-like Go value:
// a slice of fixed-size numeric elements, a pointer to an array of them, an
// unsafe.Pointer, or a Pointerer. ok is false for anything else.
//
// The caller must keep v reachable (runtime.KeepAlive) until the native code
// is done with the address.
func AddressOf(v any) (addr uintptr, ok bool) {
	switch x := v.(type) {
	case []byte:
		return uintptr(unsafe.Pointer(unsafe.SliceData(x))), true
	case unsafe.Pointer:
		return uintptr(x), true
	case Pointerer:
		return x.Pointer(), true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		if !plainElem(rv.Type().Elem().Kind()) {
			return 0, false
		}
		return rv.Pointer(), true
	case reflect.Pointer:
		t := rv.Type().Elem()
		if t.Kind() != reflect.Array || !plainElem(t.Elem().Kind()) {
			return 0, false
		}
		return rv.Pointer(), true
	}
	return 0, false
}

func plainElem(k reflect.Kind) bool {
	switch k {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.Uintptr:
		return true
	}
	return false
}
