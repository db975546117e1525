// Package goffi binds native functions from declarations of their parameter
// and return types. Arguments are coerced from loosely typed Go values, calls
// block until the native function returns, and cstring results come back as
// ByteStrings over native memory.
package goffi

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/CosmWasm/goffi/internal/coerce"
	"github.com/CosmWasm/goffi/internal/memory"
	"github.com/CosmWasm/goffi/internal/native"
	"github.com/CosmWasm/goffi/internal/shim"
	"github.com/CosmWasm/goffi/internal/wazeroimpl"
	"github.com/CosmWasm/goffi/types"
)

// Func is a bound native symbol.
type Func = shim.Func

// ByteString is the value returned for cstring results.
type ByteString = memory.ByteString

// View is an aliasing view of native memory.
type View = memory.View

// Symbol declares the signature of one native function.
type Symbol = types.Symbol

// Engine is the main entry point to this library. It owns one runtime and
// everything bound through it.
type Engine struct {
	rt      types.Runtime
	cfg     types.Config
	table   *coerce.Table
	decoder *memory.Decoder
	builder *shim.Builder
	logger  zerolog.Logger

	// seq names ephemeral bindings.
	seq      atomic.Uint64
	bindings atomic.Int64
}

// NewEngine creates an engine on the runtime selected by cfg.Backend.
func NewEngine(cfg types.Config, logger zerolog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var rt types.Runtime
	switch cfg.Backend {
	case types.BackendWasm:
		w, err := wazeroimpl.New(context.Background(), cfg.Wasm, logger)
		if err != nil {
			return nil, err
		}
		rt = w
	default:
		rt = native.New(logger)
	}
	e, err := NewEngineWithRuntime(rt, cfg, logger)
	if err != nil {
		closeRuntime(rt)
		return nil, err
	}
	return e, nil
}

// NewEngineWithRuntime creates an engine on a caller-supplied runtime.
func NewEngineWithRuntime(rt types.Runtime, cfg types.Config, logger zerolog.Logger) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	dec, err := memory.NewDecoder(cfg.Encoding)
	if err != nil {
		return nil, err
	}
	table := coerce.NewTable(rt.AddressOf)
	e := &Engine{
		rt:      rt,
		cfg:     cfg,
		table:   table,
		decoder: dec,
		builder: &shim.Builder{Runtime: rt, Table: table, Decoder: dec},
		logger:  logger,
	}
	e.logger.Debug().Str("backend", cfg.Backend).Str("encoding", cfg.Encoding).Msg("engine created")
	return e, nil
}

// Close releases the runtime. Libraries and callbacks must not be used
// afterwards.
func (e *Engine) Close() error {
	return closeRuntime(e.rt)
}

func closeRuntime(rt types.Runtime) error {
	if c, ok := rt.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

// Runtime returns the underlying runtime.
func (e *Engine) Runtime() types.Runtime { return e.rt }

// Config returns the validated configuration.
func (e *Engine) Config() types.Config { return e.cfg }

// Coerce converts v the way an argument declared as tag would be.
func (e *Engine) Coerce(tag string, v any) (any, error) {
	t, ok := types.ParseTag(tag)
	if !ok {
		return nil, &types.BindError{Tag: tag, Arg: -1}
	}
	return e.table.Coerce(t, v)
}

// AddressOf returns the address a ptr argument would receive for v.
func (e *Engine) AddressOf(v any) (uintptr, error) {
	addr, ok := e.rt.AddressOf(v)
	if !ok {
		return 0, fmt.Errorf("%T is not buffer-like", v)
	}
	return addr, nil
}

// AddressOf returns the process address backing a buffer-like Go value. It is
// the address the native runtime passes for ptr arguments.
func AddressOf(v any) (uintptr, bool) {
	return memory.AddressOf(v)
}

// FromAddress reads a string at addr+offset. A negative length means the
// string is NUL-terminated.
func (e *Engine) FromAddress(addr uintptr, offset, length int) *ByteString {
	return memory.FromAddress(e.rt, e.decoder, addr, offset, length)
}

// CString reads the NUL-terminated string at addr.
func (e *Engine) CString(addr uintptr) *ByteString {
	return e.FromAddress(addr, 0, -1)
}

// Read returns a view of length bytes at addr+offset.
func (e *Engine) Read(addr uintptr, offset, length int) *View {
	return memory.NewView(e.rt, addr, offset, length)
}
