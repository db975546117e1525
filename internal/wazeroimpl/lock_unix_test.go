//go:build unix

package wazeroimpl

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/CosmWasm/goffi/types"
)

func TestCacheDirIsExclusive(t *testing.T) {
	dir := t.TempDir()
	cfg := types.WasmConfig{CacheDir: dir, MemoryLimitPages: 16}

	rt := newRuntime(t, cfg)
	lib, err := rt.Open(writeModule(t, "add.wasm", addWasm))
	require.NoError(t, err)
	require.NoError(t, lib.Close())

	_, err = New(context.Background(), cfg, zerolog.Nop())
	require.ErrorContains(t, err, "could not lock exclusive.lock")

	require.NoError(t, rt.Close())
	again, err := New(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, again.Close())
}
