// Package coerce turns managed values into native-ready values for a given
// type tag, and lifts raw native words back into managed values.
//
// Native-ready values are: int64 for integer tags up to 32 bits, *big.Int for
// int64_t/uint64_t, float64 or *big.Int for the fast 64-bit tags, float64 for
// float/double, bool, and uintptr for ptr/cstring/function.
package coerce

import (
	"math"
	"math/big"

	"github.com/CosmWasm/goffi/internal/memory"
	"github.com/CosmWasm/goffi/types"
)

// Rule coerces one managed value for a fixed tag.
type Rule func(v any) (any, error)

// AddressFunc is the runtime's address-of primitive for buffer-like values.
type AddressFunc func(v any) (uintptr, bool)

// epsilon is added and subtracted by the double rule, which turns -0 into +0
// and flushes values far below it.
const epsilon = 0.00000000000001

// Table holds one Rule per tag. Rules that need the address-of primitive
// close over the one the table was created with.
type Table struct {
	addressOf AddressFunc
	rules     [numTags]Rule
}

const numTags = int(types.Function) + 1

// NewTable builds the rule table. addressOf may be nil, in which case no
// value is buffer-like.
func NewTable(addressOf AddressFunc) *Table {
	if addressOf == nil {
		addressOf = func(any) (uintptr, bool) { return 0, false }
	}
	t := &Table{addressOf: addressOf}
	t.rules = [numTags]Rule{
		types.Char:     toChar,
		types.Int8:     toChar,
		types.Uint8:    clamped(0, math.MaxUint8),
		types.Int16:    clamped(math.MinInt16, math.MaxInt16+1),
		types.Uint16:   clamped(0, math.MaxUint16),
		types.Int32:    clamped(math.MinInt32, math.MaxInt32),
		types.Uint32:   clamped(0, math.MaxUint32),
		types.Int64:    toInt64,
		types.Uint64:   toUint64,
		types.Double:   toDouble,
		types.Float:    toFloat,
		types.Bool:     toBool,
		types.Pointer:  t.toPointer(types.Pointer),
		types.Void:     toVoid,
		types.CString:  t.toPointer(types.CString),
		types.I64Fast:  toI64Fast,
		types.U64Fast:  toU64Fast,
		types.Function: toFunction,
	}
	return t
}

// Rule returns the rule for tag, or nil if tag is not a defined tag.
func (t *Table) Rule(tag types.Tag) Rule {
	if !tag.Valid() {
		return nil
	}
	return t.rules[tag]
}

// Coerce applies the rule for tag to v.
func (t *Table) Coerce(tag types.Tag, v any) (any, error) {
	rule := t.Rule(tag)
	if rule == nil {
		return nil, &types.BindError{Tag: tag.String(), Arg: -1}
	}
	return rule(v)
}

func clamped(lo, hi float64) Rule {
	return func(v any) (any, error) {
		return clamp(number(v), lo, hi), nil
	}
}

func toChar(v any) (any, error) {
	return wrap8(number(v)), nil
}

func toInt64(v any) (any, error) {
	if b, ok := exactInt(v); ok {
		return b, nil
	}
	return bigFromFloat(number(v)), nil
}

func toUint64(v any) (any, error) {
	if b, ok := exactInt(v); ok {
		return clampBig(b, bigZero, bigMaxU64), nil
	}
	f := number(v)
	if !(f > 0) {
		return new(big.Int), nil
	}
	return clampBig(bigFromFloat(f), bigZero, bigMaxU64), nil
}

// toI64Fast keeps integers within the exact float64 range as numbers and
// everything wider as *big.Int.
func toI64Fast(v any) (any, error) {
	if b, ok := exactInt(v); ok {
		if bigInRange(b, bigMinSafe, bigMaxSafe) {
			return float64(b.Int64()), nil
		}
		return b, nil
	}
	f := number(v)
	if math.IsNaN(f) {
		return float64(0), nil
	}
	return f, nil
}

// toU64Fast is toI64Fast clamped to [0, 2^64-1].
func toU64Fast(v any) (any, error) {
	if b, ok := exactInt(v); ok {
		b = clampBig(b, bigZero, bigMaxU64)
		if b.Cmp(bigMaxSafe) <= 0 {
			return float64(b.Int64()), nil
		}
		return b, nil
	}
	f := number(v)
	switch {
	case !(f > 0):
		return float64(0), nil
	case f >= math.MaxUint64:
		return new(big.Int).Set(bigMaxU64), nil
	}
	return f, nil
}

func toFloat(v any) (any, error) {
	return float64(float32(number(v))), nil
}

func toDouble(v any) (any, error) {
	if b, ok := v.(*big.Int); ok && b != nil {
		f, _ := new(big.Float).SetInt(b).Float64()
		if math.IsInf(f, 0) {
			// out of double range: the sign is dropped
			f = math.Abs(f)
		}
		return f + epsilon - epsilon, nil
	}
	if !truthy(v) {
		return float64(0), nil
	}
	f := number(v)
	return f + epsilon - epsilon, nil
}

func toBool(v any) (any, error) {
	return truthy(v), nil
}

func toVoid(any) (any, error) {
	return nil, nil
}

func (t *Table) toPointer(tag types.Tag) Rule {
	return func(v any) (any, error) {
		switch x := v.(type) {
		case nil:
			return uintptr(0), nil
		case uintptr:
			return x, nil
		case float64:
			return uintptr(int64(x)), nil
		case float32:
			return uintptr(int64(x)), nil
		case string:
			return nil, &types.ConversionError{Arg: -1, Tag: tag, Value: v, Msg: "to pass text as a pointer, encode it as a []byte first"}
		case *memory.ByteString:
			return nil, &types.ConversionError{Arg: -1, Tag: tag, Value: v, Msg: "to pass a native string as a pointer, use its Buffer() or Ptr()"}
		case *big.Int:
			if x == nil || x.Sign() == 0 {
				return uintptr(0), nil
			}
			return nil, &types.ConversionError{Arg: -1, Tag: tag, Value: v, Msg: "big integers are not addresses"}
		}
		if b, ok := exactInt(v); ok {
			return uintptr(new(big.Int).And(b, mask64).Uint64()), nil
		}
		if !truthy(v) {
			return uintptr(0), nil
		}
		if addr, ok := t.addressOf(v); ok {
			return addr, nil
		}
		return nil, &types.ConversionError{Arg: -1, Tag: tag, Value: v, Msg: "value is not buffer-like"}
	}
}

type addresser interface {
	Address() uintptr
}

func toFunction(v any) (any, error) {
	switch x := v.(type) {
	case uintptr:
		return x, nil
	case float64:
		return uintptr(int64(x)), nil
	case *big.Int:
		if x != nil {
			return uintptr(new(big.Int).And(x, mask64).Uint64()), nil
		}
	case addresser:
		if addr := x.Address(); addr != 0 {
			return addr, nil
		}
		return nil, &types.ConversionError{Arg: -1, Tag: types.Function, Value: v, Msg: "callback is closed"}
	}
	if b, ok := exactInt(v); ok {
		return uintptr(new(big.Int).And(b, mask64).Uint64()), nil
	}
	return nil, &types.ConversionError{Arg: -1, Tag: types.Function, Value: v, Msg: "expected a callback or an address"}
}
