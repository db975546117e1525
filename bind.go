package goffi

import (
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/CosmWasm/goffi/types"
)

// Binding is a single symbol linked under a generated name.
type Binding struct {
	*Func
	e      *Engine
	lib    *Library
	closed atomic.Bool
}

// BindOne links decl.Ptr as a one-symbol library and returns its Func. The
// binding should be closed explicitly; if it is collected first, a finalizer
// closes it at some unspecified point.
func (e *Engine) BindOne(decl types.Symbol) (*Binding, error) {
	name := fmt.Sprintf("goffi_bind_%d", e.seq.Add(1))
	lib, err := e.Link(map[string]types.Symbol{name: decl})
	if err != nil {
		return nil, err
	}
	fn, _ := lib.Lookup(name)
	b := &Binding{Func: fn, e: e, lib: lib}
	e.bindings.Add(1)
	runtime.SetFinalizer(b, finalizeBinding)
	return b, nil
}

func finalizeBinding(b *Binding) {
	b.lib.logger.Debug().Str("symbol", b.Name()).Msg("binding collected without Close")
	b.Close()
}

// Close releases the binding. The Func stays callable; closing twice is a
// no-op.
func (b *Binding) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	runtime.SetFinalizer(b, nil)
	b.e.bindings.Add(-1)
	return b.lib.Close()
}

// LiveBindings is the number of bindings from BindOne not yet closed,
// explicitly or by their finalizer.
func (e *Engine) LiveBindings() int64 { return e.bindings.Load() }

// Closed reports whether Close has run.
func (b *Binding) Closed() bool { return b.closed.Load() }
