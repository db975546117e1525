package coerce

import (
	"errors"
	"math"
	"math/big"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CosmWasm/goffi/internal/memory"
	"github.com/CosmWasm/goffi/types"
)

type handle uintptr

func (h handle) Address() uintptr { return uintptr(h) }

func TestIntegerRules(t *testing.T) {
	table := NewTable(memory.AddressOf)
	cases := []struct {
		tag  types.Tag
		in   any
		want int64
	}{
		{types.Uint8, -5, 0},
		{types.Uint8, 300, 255},
		{types.Uint8, 254.9, 254},
		{types.Int16, 40000, 32768},
		{types.Int16, -40000, -32768},
		{types.Uint16, 70000, 65535},
		{types.Int32, 1e12, math.MaxInt32},
		{types.Int32, -1e12, math.MinInt32},
		{types.Uint32, -1, 0},
		{types.Uint32, 1e12, math.MaxUint32},
		{types.Char, 200, -56},
		{types.Int8, 256, 0},
		{types.Int8, -129, 127},
		{types.Int32, "12", 12},
		{types.Int32, "twelve", 0},
		{types.Int32, nil, 0},
		{types.Int32, true, 1},
		{types.Int32, math.NaN(), 0},
		{types.Uint8, big.NewInt(1000), 255},
	}
	for _, tc := range cases {
		got, err := table.Coerce(tc.tag, tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "%s(%v)", tc.tag, tc.in)
	}
}

func TestWideIntegerRules(t *testing.T) {
	table := NewTable(nil)
	huge, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	safe := big.NewInt(1 << 40)
	unsafeInt := big.NewInt(1 << 60)

	cases := []struct {
		name string
		tag  types.Tag
		in   any
		want any
	}{
		{"int64 from number", types.Int64, 42.7, big.NewInt(42)},
		{"int64 keeps bits", types.Int64, int64(math.MaxInt64), big.NewInt(math.MaxInt64)},
		{"int64 from big", types.Int64, huge, huge},
		{"uint64 negative", types.Uint64, -3, big.NewInt(0)},
		{"uint64 max", types.Uint64, uint64(math.MaxUint64), new(big.Int).SetUint64(math.MaxUint64)},
		{"i64_fast safe big", types.I64Fast, safe, float64(1 << 40)},
		{"i64_fast unsafe big", types.I64Fast, unsafeInt, unsafeInt},
		{"i64_fast negative big", types.I64Fast, big.NewInt(-5), float64(-5)},
		{"uint64 negative big", types.Uint64, big.NewInt(-1), big.NewInt(0)},
		{"uint64 past max big", types.Uint64, new(big.Int).Lsh(big.NewInt(1), 70), new(big.Int).SetUint64(math.MaxUint64)},
		{"uint64 past max number", types.Uint64, 1e20, new(big.Int).SetUint64(math.MaxUint64)},
		{"u64_fast negative big", types.U64Fast, big.NewInt(-5), float64(0)},
		{"u64_fast negative int", types.U64Fast, -3, float64(0)},
		{"u64_fast negative number", types.U64Fast, -3.5, float64(0)},
		{"u64_fast past max number", types.U64Fast, 1e20, new(big.Int).SetUint64(math.MaxUint64)},
		{"i64_fast number", types.I64Fast, 3.5, 3.5},
		{"i64_fast nil", types.I64Fast, nil, float64(0)},
		{"u64_fast text", types.U64Fast, "x", float64(0)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := table.Coerce(tc.tag, tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFloatRules(t *testing.T) {
	table := NewTable(nil)

	got, err := table.Coerce(types.Float, 0.1)
	require.NoError(t, err)
	assert.Equal(t, float64(float32(0.1)), got)

	got, err = table.Coerce(types.Double, 0.1)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, got, 1e-15)

	got, err = table.Coerce(types.Double, math.Copysign(0, -1))
	require.NoError(t, err)
	assert.False(t, math.Signbit(got.(float64)), "negative zero is normalized")

	got, err = table.Coerce(types.Double, big.NewInt(-12))
	require.NoError(t, err)
	assert.Equal(t, float64(-12), got)

	got, err = table.Coerce(types.Double, new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 1100)))
	require.NoError(t, err)
	assert.Equal(t, math.Inf(1), got, "out of double range loses the sign")

	got, err = table.Coerce(types.Double, nil)
	require.NoError(t, err)
	assert.Equal(t, float64(0), got)
}

func TestBoolRule(t *testing.T) {
	table := NewTable(nil)
	var nilSlice []byte
	for _, v := range []any{false, 0, 0.0, math.NaN(), "", nil, big.NewInt(0), nilSlice} {
		got, err := table.Coerce(types.Bool, v)
		require.NoError(t, err)
		assert.Equal(t, false, got, "%#v", v)
	}
	for _, v := range []any{true, 1, -0.5, "false", big.NewInt(3), []byte{}, struct{}{}} {
		got, err := table.Coerce(types.Bool, v)
		require.NoError(t, err)
		assert.Equal(t, true, got, "%#v", v)
	}
}

func TestPointerRule(t *testing.T) {
	table := NewTable(memory.AddressOf)
	buf := []byte{1, 2, 3}
	words := make([]uint64, 2)

	for _, tag := range []types.Tag{types.Pointer, types.CString} {
		cases := []struct {
			in   any
			want uintptr
		}{
			{0, 0},
			{nil, 0},
			{big.NewInt(0), 0},
			{float64(4096), 4096},
			{uintptr(8192), 8192},
			{buf, uintptr(unsafe.Pointer(&buf[0]))},
			{words, uintptr(unsafe.Pointer(&words[0]))},
			{unsafe.Pointer(&buf[1]), uintptr(unsafe.Pointer(&buf[1]))},
		}
		for _, tc := range cases {
			got, err := table.Coerce(tag, tc.in)
			require.NoError(t, err, "%s(%#v)", tag, tc.in)
			assert.Equal(t, tc.want, got, "%s(%#v)", tag, tc.in)
		}

		for _, in := range []any{"abc", "", "0", big.NewInt(5), map[string]int{"a": 1}, []string{"x"}} {
			_, err := table.Coerce(tag, in)
			var ce *types.ConversionError
			require.True(t, errors.As(err, &ce), "%s(%#v) = %v", tag, in, err)
			assert.Equal(t, tag, ce.Tag)
			assert.Equal(t, -1, ce.Arg)
		}
	}
}

func TestPointerRejectsByteString(t *testing.T) {
	table := NewTable(memory.AddressOf)
	bs := memory.FromAddress(memory.Process{}, nil, 0, 0, 0)
	_, err := table.Coerce(types.Pointer, bs)
	require.ErrorContains(t, err, "Buffer()")

	got, err := table.Coerce(types.Pointer, bs.View())
	require.NoError(t, err, "views are buffer-like")
	assert.Equal(t, uintptr(0), got)
}

func TestFunctionRule(t *testing.T) {
	table := NewTable(nil)
	cases := []struct {
		in   any
		want uintptr
	}{
		{handle(0x4000), 0x4000},
		{float64(0x5000), 0x5000},
		{uintptr(0x6000), 0x6000},
		{big.NewInt(0x7000), 0x7000},
		{0x8000, 0x8000},
	}
	for _, tc := range cases {
		got, err := table.Coerce(types.Function, tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}

	_, err := table.Coerce(types.Function, handle(0))
	require.ErrorContains(t, err, "callback is closed")
	_, err = table.Coerce(types.Function, "f")
	var ce *types.ConversionError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, types.Function, ce.Tag)
}

func TestVoidAndUnknown(t *testing.T) {
	table := NewTable(nil)
	got, err := table.Coerce(types.Void, 12)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.Nil(t, table.Rule(types.Tag(200)))
	_, err = table.Coerce(types.Tag(200), 1)
	var be *types.BindError
	require.True(t, errors.As(err, &be))
}

func TestEveryTagHasARule(t *testing.T) {
	table := NewTable(nil)
	for tag := types.Tag(0); tag.Valid(); tag++ {
		assert.NotNil(t, table.Rule(tag), tag.String())
	}
}
