package coerce

import (
	"math"
	"math/big"

	"github.com/CosmWasm/goffi/types"
)

// Bits packs a native-ready value into a 64-bit word the way the native ABI
// sees it: integers in two's complement (narrower tags are truncated by the
// consumer), floats as IEEE-754 bit patterns, booleans as 0 or 1.
func Bits(tag types.Tag, v any) uint64 {
	switch tag {
	case types.Void:
		return 0
	case types.Float:
		return uint64(math.Float32bits(float32(number(v))))
	case types.Double:
		return math.Float64bits(number(v))
	case types.Bool:
		if truthy(v) {
			return 1
		}
		return 0
	}
	switch x := v.(type) {
	case nil:
		return 0
	case bool:
		if x {
			return 1
		}
		return 0
	case float64:
		return floatWord(x)
	case float32:
		return floatWord(float64(x))
	case int64:
		return uint64(x)
	case uintptr:
		return uint64(x)
	}
	if b, ok := exactInt(v); ok {
		return new(big.Int).And(b, mask64).Uint64()
	}
	return 0
}

func floatWord(f float64) uint64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f < 0:
		if f <= math.MinInt64 {
			return 1 << 63
		}
		return uint64(int64(f))
	case f >= math.MaxUint64:
		return math.MaxUint64
	}
	return uint64(f)
}

// FromBits lifts a raw native return word into a managed value. This is the
// native call boundary's half of the conversion: integers up to 32 bits and
// floats become float64, 64-bit integers become *big.Int (the fast variants
// prefer float64 when exact), addresses become uintptr, and null addresses
// become nil.
func FromBits(tag types.Tag, w uint64) any {
	switch tag {
	case types.Char, types.Int8:
		return float64(int8(w))
	case types.Uint8:
		return float64(uint8(w))
	case types.Int16:
		return float64(int16(w))
	case types.Uint16:
		return float64(uint16(w))
	case types.Int32:
		return float64(int32(w))
	case types.Uint32:
		return float64(uint32(w))
	case types.Int64:
		return big.NewInt(int64(w))
	case types.Uint64:
		return new(big.Int).SetUint64(w)
	case types.I64Fast:
		if x := int64(w); x >= -maxSafeInteger && x <= maxSafeInteger {
			return float64(x)
		}
		return big.NewInt(int64(w))
	case types.U64Fast:
		if w <= maxSafeInteger {
			return float64(w)
		}
		return new(big.Int).SetUint64(w)
	case types.Float:
		return float64(math.Float32frombits(uint32(w)))
	case types.Double:
		return math.Float64frombits(w)
	case types.Bool:
		return uint8(w) != 0
	case types.Pointer, types.CString, types.Function:
		if w == 0 {
			return nil
		}
		return uintptr(w)
	}
	return nil
}
