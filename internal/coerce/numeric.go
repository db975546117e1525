package coerce

import (
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"
)

// maxSafeInteger is the largest integer n such that every integer in [-n, n]
// has an exact float64 representation.
const maxSafeInteger = 1<<53 - 1

var (
	bigZero    = big.NewInt(0)
	bigMaxSafe = big.NewInt(maxSafeInteger)
	bigMinSafe = big.NewInt(-maxSafeInteger)
	mask64     = new(big.Int).SetUint64(math.MaxUint64)
	bigMaxU64  = mask64
)

// number is the managed numeric cast: nil and false are 0, true is 1, text is
// parsed (empty text is 0), anything unparsable is NaN.
func number(v any) float64 {
	switch x := v.(type) {
	case nil:
		return 0
	case float64:
		return x
	case float32:
		return float64(x)
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	case *big.Int:
		if x == nil {
			return 0
		}
		f, _ := new(big.Float).SetInt(x).Float64()
		return f
	}
	if b, ok := exactInt(v); ok {
		f, _ := new(big.Float).SetInt(b).Float64()
		return f
	}
	return math.NaN()
}

// exactInt converts Go integer kinds without going through float64, so that
// 64-bit values keep every bit.
func exactInt(v any) (*big.Int, bool) {
	switch x := v.(type) {
	case int:
		return big.NewInt(int64(x)), true
	case int8:
		return big.NewInt(int64(x)), true
	case int16:
		return big.NewInt(int64(x)), true
	case int32:
		return big.NewInt(int64(x)), true
	case int64:
		return big.NewInt(x), true
	case uint:
		return new(big.Int).SetUint64(uint64(x)), true
	case uint8:
		return new(big.Int).SetUint64(uint64(x)), true
	case uint16:
		return new(big.Int).SetUint64(uint64(x)), true
	case uint32:
		return new(big.Int).SetUint64(uint64(x)), true
	case uint64:
		return new(big.Int).SetUint64(x), true
	case uintptr:
		return new(big.Int).SetUint64(uint64(x)), true
	case *big.Int:
		if x == nil {
			return nil, false
		}
		return x, true
	}
	return nil, false
}

// truthy mirrors managed truthiness: nil, false, 0, NaN, "", a zero big
// integer, and nil references are false; everything else is true.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case float32:
		return x != 0 && !math.IsNaN(float64(x))
	case string:
		return x != ""
	case *big.Int:
		return x != nil && x.Sign() != 0
	}
	if b, ok := exactInt(v); ok {
		return b.Sign() != 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Func, reflect.Interface, reflect.Chan, reflect.UnsafePointer:
		return !rv.IsNil()
	}
	return true
}

// clamp truncates f toward zero and limits it to [lo, hi]. NaN becomes 0.
func clamp(f, lo, hi float64) int64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f <= lo:
		return int64(lo)
	case f >= hi:
		return int64(hi)
	}
	return int64(f)
}

// wrap8 truncates f toward zero and keeps the low 8 bits as a signed value,
// the way a C compiler narrows an int to char.
func wrap8(f float64) int64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int64(int8(int64(math.Mod(math.Trunc(f), 256))))
}

// bigFromFloat truncates f to an integer. NaN and infinities become 0.
func bigFromFloat(f float64) *big.Int {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return new(big.Int)
	}
	i, _ := new(big.Float).SetFloat64(math.Trunc(f)).Int(nil)
	return i
}

func bigInRange(b, lo, hi *big.Int) bool {
	return b.Cmp(lo) >= 0 && b.Cmp(hi) <= 0
}

// clampBig limits b to [lo, hi]. b itself is returned when already in range.
func clampBig(b, lo, hi *big.Int) *big.Int {
	switch {
	case b.Cmp(lo) < 0:
		return new(big.Int).Set(lo)
	case b.Cmp(hi) > 0:
		return new(big.Int).Set(hi)
	}
	return b
}
