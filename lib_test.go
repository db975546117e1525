package goffi

import (
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"unsafe"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CosmWasm/goffi/internal/testrt"
	"github.com/CosmWasm/goffi/types"
)

func TestEngineCoerce(t *testing.T) {
	e, _ := withEngine(t)
	buf := []byte("abc")

	cases := []struct {
		tag  string
		in   any
		want any
	}{
		{"uint8_t", -5, int64(0)},
		{"uint8_t", 300, int64(255)},
		{"int16_t", 40000, int64(32768)},
		{"ptr", 0, uintptr(0)},
		{"ptr", nil, uintptr(0)},
		{"ptr", buf, uintptr(unsafe.Pointer(&buf[0]))},
		{"int64_t", 7, big.NewInt(7)},
		{"bool", "", false},
	}
	for _, tc := range cases {
		got, err := e.Coerce(tc.tag, tc.in)
		require.NoError(t, err, "%s(%v)", tc.tag, tc.in)
		assert.Equal(t, tc.want, got, "%s(%v)", tc.tag, tc.in)
	}

	_, err := e.Coerce("ptr", "abc")
	var ce *types.ConversionError
	require.True(t, errors.As(err, &ce))

	_, err = e.Coerce("uint9_t", 1)
	var be *types.BindError
	require.True(t, errors.As(err, &be))
}

func TestAddressOf(t *testing.T) {
	buf := make([]int32, 4)
	addr, ok := AddressOf(buf)
	require.True(t, ok)
	assert.Equal(t, uintptr(unsafe.Pointer(&buf[0])), addr)

	_, ok = AddressOf("text")
	assert.False(t, ok)

	e, _ := withEngine(t)
	got, err := e.AddressOf(buf)
	require.NoError(t, err)
	assert.Equal(t, addr, got)
	_, err = e.AddressOf(42)
	require.Error(t, err)
}

func TestFromAddress(t *testing.T) {
	e, _ := withEngine(t)

	for _, n := range []int{-1, 0, 1, 64} {
		bs := e.FromAddress(0, 0, n)
		assert.Equal(t, "", bs.String())
		assert.Len(t, bs.Buffer(), 0)
		assert.NotNil(t, bs.Buffer(), "owned empty buffer")
		assert.True(t, bs.View().IsNull())
	}

	raw := []byte("hello\x00world\x00")
	addr, _ := AddressOf(raw)
	assert.Equal(t, "hello", e.CString(addr).String())
	assert.Equal(t, "world", e.FromAddress(addr, 6, -1).String())
	assert.Equal(t, "ell", e.FromAddress(addr, 1, 3).String())

	view := e.Read(addr, 6, 5)
	assert.Equal(t, []byte("world"), view.Bytes())
	assert.Equal(t, addr+6, view.Pointer())
}

func TestEncoding(t *testing.T) {
	rt := testrt.New()
	e, err := NewEngineWithRuntime(rt, types.Config{Encoding: "latin1"}, zerolog.Nop())
	require.NoError(t, err)

	raw := []byte{'c', 'a', 'f', 0xe9, 0}
	addr, _ := AddressOf(raw)
	assert.Equal(t, "café", e.CString(addr).String())

	_, err = NewEngineWithRuntime(rt, types.Config{Encoding: "klingon"}, zerolog.Nop())
	require.Error(t, err)
}

func TestNewEngineConfig(t *testing.T) {
	_, err := NewEngine(types.Config{Backend: "jvm"}, zerolog.Nop())
	require.ErrorContains(t, err, "unknown backend")

	e, err := NewEngine(types.Config{}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, types.BackendNative, e.Config().Backend)
	assert.Equal(t, types.DefaultCallbackQueueSize, e.Config().Callbacks.QueueSize)
	require.NoError(t, e.Close())
}

// addWasm exports add(i32, i32) i32.
var addWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
	0x01, 0x07, 0x01, 0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f,
	0x03, 0x02, 0x01, 0x00,
	0x07, 0x07, 0x01, 0x03, 0x61, 0x64, 0x64, 0x00, 0x00,
	0x0a, 0x09, 0x01, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x6a, 0x0b,
}

func TestWasmBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "add.wasm")
	require.NoError(t, os.WriteFile(path, addWasm, 0o644))

	e, err := NewEngine(types.Config{Backend: "WASM"}, zerolog.Nop())
	require.NoError(t, err)
	defer e.Close()

	lib, err := e.Open(path, map[string]types.Symbol{"add": types.NewSymbol(types.Int32, types.Int32, types.Int32)})
	require.NoError(t, err)
	defer lib.Close()

	res, err := lib.Symbols()["add"].Call(2, 3)
	require.NoError(t, err)
	assert.Equal(t, float64(5), res)

	_, err = e.Register(sum, sumOpts)
	require.ErrorIs(t, err, types.ErrUnsupported)

	_, err = e.Open(path, map[string]types.Symbol{"mul": types.NewSymbol(types.Int32)})
	var le *types.LibraryError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "mul", le.Symbol)
}
