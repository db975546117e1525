package native

import (
	"math"
	"reflect"

	"github.com/CosmWasm/goffi/types"
)

var (
	int8T    = reflect.TypeOf(int8(0))
	uint8T   = reflect.TypeOf(uint8(0))
	int16T   = reflect.TypeOf(int16(0))
	uint16T  = reflect.TypeOf(uint16(0))
	int32T   = reflect.TypeOf(int32(0))
	uint32T  = reflect.TypeOf(uint32(0))
	int64T   = reflect.TypeOf(int64(0))
	uint64T  = reflect.TypeOf(uint64(0))
	float32T = reflect.TypeOf(float32(0))
	float64T = reflect.TypeOf(float64(0))
	boolT    = reflect.TypeOf(false)
	uintptrT = reflect.TypeOf(uintptr(0))
)

// goType is the Go type purego marshals for tag. Void has none.
func goType(tag types.Tag) reflect.Type {
	switch tag {
	case types.Char, types.Int8:
		return int8T
	case types.Uint8:
		return uint8T
	case types.Int16:
		return int16T
	case types.Uint16:
		return uint16T
	case types.Int32:
		return int32T
	case types.Uint32:
		return uint32T
	case types.Int64, types.I64Fast:
		return int64T
	case types.Uint64, types.U64Fast:
		return uint64T
	case types.Float:
		return float32T
	case types.Double:
		return float64T
	case types.Bool:
		return boolT
	case types.Pointer, types.CString, types.Function:
		return uintptrT
	}
	return nil
}

// funcType is the Go func type matching sig.
func funcType(sig types.Signature) reflect.Type {
	in := make([]reflect.Type, len(sig.Args))
	for i, t := range sig.Args {
		in[i] = goType(t)
	}
	var out []reflect.Type
	if rt := goType(sig.Returns); rt != nil {
		out = []reflect.Type{rt}
	}
	return reflect.FuncOf(in, out, false)
}

// wordValue stores the raw word w into a new value of type t, truncating to
// the width of t.
func wordValue(t reflect.Type, w uint64) reflect.Value {
	v := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v.SetInt(int64(w))
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		v.SetUint(w)
	case reflect.Float32:
		v.SetFloat(float64(math.Float32frombits(uint32(w))))
	case reflect.Float64:
		v.SetFloat(math.Float64frombits(w))
	case reflect.Bool:
		v.SetBool(w != 0)
	}
	return v
}

// valueWord is the inverse of wordValue.
func valueWord(v reflect.Value) uint64 {
	switch v.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return uint64(v.Int())
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint()
	case reflect.Float32:
		return uint64(math.Float32bits(float32(v.Float())))
	case reflect.Float64:
		return math.Float64bits(v.Float())
	case reflect.Bool:
		if v.Bool() {
			return 1
		}
	}
	return 0
}
