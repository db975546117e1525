package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigJSON(t *testing.T) {
	config := Config{
		Backend:   BackendWasm,
		Callbacks: CallbackConfig{QueueSize: 8},
		Wasm:      WasmConfig{MemoryLimitPages: 16, CacheDir: "/tmp/goffi"},
	}
	expected := `{"backend":"wasm","callbacks":{"queue_size":8},"wasm":{"memory_limit_pages":16,"cache_dir":"/tmp/goffi"}}`

	bz, err := json.Marshal(config)
	require.NoError(t, err)
	assert.Equal(t, expected, string(bz))

	var back Config
	require.NoError(t, json.Unmarshal(bz, &back))
	assert.Equal(t, config, back)
}

func TestConfigValidate(t *testing.T) {
	var c Config
	require.NoError(t, c.Validate())
	assert.Equal(t, BackendNative, c.Backend)
	assert.Equal(t, DefaultCallbackQueueSize, c.Callbacks.QueueSize)
	assert.Empty(t, c.Encoding)

	c = Config{Backend: "WASM", Callbacks: CallbackConfig{QueueSize: 3}}
	require.NoError(t, c.Validate())
	assert.Equal(t, BackendWasm, c.Backend)
	assert.Equal(t, 3, c.Callbacks.QueueSize)

	bad := map[string]Config{
		"backend":      {Backend: "jvm"},
		"queue size":   {Callbacks: CallbackConfig{QueueSize: -1}},
		"memory pages": {Wasm: WasmConfig{MemoryLimitPages: 65537}},
	}
	for name, c := range bad {
		t.Run(name, func(t *testing.T) {
			require.Error(t, c.Validate())
		})
	}
}
