package goffi

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/CosmWasm/goffi/internal/memory"
	"github.com/CosmWasm/goffi/internal/testrt"
	"github.com/CosmWasm/goffi/types"
)

const TESTING_LIBRARY = "libtesting.so"

// withEngine returns an engine over a fake runtime exporting add, fill and
// apply from TESTING_LIBRARY.
func withEngine(t *testing.T) (*Engine, *testrt.Runtime) {
	t.Helper()
	rt := testrt.New()
	add := rt.Define("add", func(args []any) any {
		return args[0].(int64) + args[1].(int64)
	})
	// fill writes "hi there" into the buffer it is given and returns it.
	fill := rt.Define("fill", func(args []any) any {
		p := args[0].(uintptr)
		copy(memory.Alias(p, 0, 9), "hi there\x00")
		return p
	})
	// apply enters the callback it is given with (20, 22).
	apply := rt.Define("apply", func(args []any) any {
		out, err := rt.Trigger(args[0].(uintptr), int32(20), int32(22))
		if err != nil {
			return int64(-1)
		}
		return out
	})
	rt.AddLibrary(TESTING_LIBRARY, map[string]uintptr{"add": add, "fill": fill, "apply": apply})

	e, err := NewEngineWithRuntime(rt, types.Config{}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e, rt
}

func testingDecls() map[string]types.Symbol {
	return map[string]types.Symbol{
		"add":   types.NewSymbol(types.Int32, types.Int32, types.Int32),
		"fill":  types.NewSymbol(types.CString, types.Pointer),
		"apply": types.NewSymbol(types.Int32, types.Function),
	}
}
