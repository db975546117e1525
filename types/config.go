package types

import (
	"fmt"
	"strings"
)

// Backend names accepted by Config.Backend.
const (
	BackendNative = "native"
	BackendWasm   = "wasm"
)

// Config configures an Engine.
type Config struct {
	// Backend selects the runtime: "native" (dlopen, the default) or "wasm".
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty" msgpack:"backend"`
	// Encoding is the text encoding of cstring returns, by WHATWG label.
	// Empty means utf-8.
	Encoding string `json:"encoding,omitempty" yaml:"encoding,omitempty" msgpack:"encoding"`
	Callbacks CallbackConfig `json:"callbacks" yaml:"callbacks" msgpack:"callbacks"`
	Wasm      WasmConfig     `json:"wasm" yaml:"wasm" msgpack:"wasm"`
}

// WasmConfig applies to the wasm backend only.
type WasmConfig struct {
	// MemoryLimitPages caps each module's linear memory, in 64KiB pages.
	// Zero keeps wazero's default.
	MemoryLimitPages uint32 `json:"memory_limit_pages,omitempty" yaml:"memory_limit_pages,omitempty" msgpack:"memory_limit_pages"`
	// CacheDir persists compiled modules across runs when set.
	CacheDir string `json:"cache_dir,omitempty" yaml:"cache_dir,omitempty" msgpack:"cache_dir"`
}

type CallbackConfig struct {
	// QueueSize is the buffer of each threadsafe callback dispatcher.
	// Native threads block once it is full.
	QueueSize int `json:"queue_size,omitempty" yaml:"queue_size,omitempty" msgpack:"queue_size"`
}

// DefaultCallbackQueueSize is used when CallbackConfig.QueueSize is zero.
const DefaultCallbackQueueSize = 64

// Validate checks c and fills in defaults.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Backend) {
	case "":
		c.Backend = BackendNative
	case BackendNative, BackendWasm:
		c.Backend = strings.ToLower(c.Backend)
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.Callbacks.QueueSize < 0 {
		return fmt.Errorf("callback queue size must not be negative, got %d", c.Callbacks.QueueSize)
	}
	if c.Wasm.MemoryLimitPages > 65536 {
		return fmt.Errorf("wasm memory limit must be at most 65536 pages, got %d", c.Wasm.MemoryLimitPages)
	}
	if c.Callbacks.QueueSize == 0 {
		c.Callbacks.QueueSize = DefaultCallbackQueueSize
	}
	return nil
}
