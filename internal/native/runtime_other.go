//go:build !(darwin || linux)

// Package native is the dlopen runtime. On this platform it is a stub whose
// operations fail with types.ErrUnsupported.
package native

import (
	"github.com/rs/zerolog"

	"github.com/CosmWasm/goffi/internal/memory"
	"github.com/CosmWasm/goffi/types"
)

type Runtime struct {
	memory.Process
}

var _ types.Runtime = (*Runtime)(nil)

func New(zerolog.Logger) *Runtime {
	return &Runtime{}
}

func (r *Runtime) Open(string) (types.Library, error) {
	return nil, types.ErrUnsupported
}

func (r *Runtime) Prepare(uintptr, types.Signature) (types.Invoker, error) {
	return nil, types.ErrUnsupported
}

func (r *Runtime) AddressOf(v any) (uintptr, bool) {
	return memory.AddressOf(v)
}

func (r *Runtime) NewCallback(types.Signature, bool, types.NativeCallback) (any, uintptr, error) {
	return nil, 0, types.ErrUnsupported
}

func (r *Runtime) ReleaseCallback(any) {}

func (r *Runtime) Live() int { return 0 }

func (r *Runtime) Slots() int { return 0 }
