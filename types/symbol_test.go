package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSignature(t *testing.T) {
	sig, err := ParseSignature("qsort", Symbol{Args: []string{"ptr", "usize", "usize", "fn"}})
	require.NoError(t, err)
	assert.Equal(t, []Tag{Pointer, Uint64, Uint64, Function}, sig.Args)
	assert.Equal(t, Void, sig.Returns)

	_, err = ParseSignature("f", Symbol{Args: []string{"int", "long"}})
	var be *BindError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, BindError{Symbol: "f", Tag: "long", Arg: 1}, *be)
	assert.EqualError(t, err, `cannot bind "f": unknown type "long" for argument 1`)

	_, err = ParseSignature("g", Symbol{Returns: "quad"})
	require.True(t, errors.As(err, &be))
	assert.Equal(t, -1, be.Arg)
	assert.EqualError(t, err, `cannot bind "g": unknown return type "quad"`)
}

func TestShimmed(t *testing.T) {
	cases := []struct {
		sym  Symbol
		want bool
	}{
		{Symbol{}, false},
		{Symbol{Returns: "int32_t"}, false},
		{Symbol{Returns: "cstring"}, true},
		{Symbol{Args: []string{"int"}}, true},
	}
	for _, tc := range cases {
		sig, err := ParseSignature("s", tc.sym)
		require.NoError(t, err)
		assert.Equal(t, tc.want, sig.Shimmed(), "%+v", tc.sym)
	}
}

func TestNewSymbol(t *testing.T) {
	sym := NewSymbol(CString, Pointer, Int32)
	assert.Equal(t, Symbol{Args: []string{"ptr", "int32_t"}, Returns: "cstring"}, sym)
}
