// Package shim builds the per-symbol call wrappers: coerce every argument
// with the rule resolved for its position, invoke the native entry point,
// and wrap cstring results.
package shim

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/CosmWasm/goffi/internal/coerce"
	"github.com/CosmWasm/goffi/internal/memory"
	"github.com/CosmWasm/goffi/types"
)

// call is the uniform shape of every synthesized wrapper.
type call func(args []any) (any, error)

// Func is a bound native symbol.
type Func struct {
	name   string
	ptr    uintptr
	sig    types.Signature
	call   call
	native *Func
}

// Call invokes the symbol. Missing arguments are nil and extra arguments are
// ignored. It blocks until the native call returns. Buffers passed as
// arguments are kept reachable for the duration of the call.
func (f *Func) Call(args ...any) (any, error) {
	ret, err := f.call(args)
	runtime.KeepAlive(args)
	return ret, err
}

// Name is the diagnostic name the symbol was bound under.
func (f *Func) Name() string { return f.name }

// Ptr is the raw address of the native entry point.
func (f *Func) Ptr() uintptr { return f.ptr }

// Signature is the declared signature.
func (f *Func) Signature() types.Signature { return f.sig }

// Native returns the unmarshalled callable: arguments go to the native call
// boundary as given. For pass-through symbols this is f itself.
func (f *Func) Native() *Func { return f.native }

// Shimmed reports whether calls go through a marshalling shim.
func (f *Func) Shimmed() bool { return f.native != f }

func (f *Func) String() string {
	return fmt.Sprintf("%s@0x%x", f.name, f.ptr)
}

// Builder synthesizes Funcs against one runtime.
type Builder struct {
	Runtime types.Runtime
	Table   *coerce.Table
	Decoder *memory.Decoder
}

// Build validates decl and returns the Func for the entry point at addr. An
// unrecognized tag fails with *types.BindError before the runtime is asked
// for anything.
func (b *Builder) Build(name string, addr uintptr, decl types.Symbol) (*Func, error) {
	sig, err := types.ParseSignature(name, decl)
	if err != nil {
		return nil, err
	}
	inv, err := b.Runtime.Prepare(addr, sig)
	if err != nil {
		var be *types.BindError
		if errors.As(err, &be) {
			return nil, err
		}
		return nil, &types.BindError{Symbol: name, Msg: err.Error()}
	}

	raw := &Func{name: name, ptr: addr, sig: sig, call: call(inv)}
	raw.native = raw
	if !sig.Shimmed() {
		return raw, nil
	}

	rules := make([]coerce.Rule, len(sig.Args))
	for i, t := range sig.Args {
		rules[i] = b.Table.Rule(t)
	}
	var c call
	if len(rules) < len(fixed) {
		c = fixed[len(rules)](name, rules, inv)
	} else {
		c = variadic(name, rules, inv)
	}
	if sig.Returns == types.CString {
		c = b.wrapCString(c)
	}
	return &Func{name: name, ptr: addr, sig: sig, call: c, native: raw}, nil
}

func (b *Builder) wrapCString(c call) call {
	return func(args []any) (any, error) {
		ret, err := c(args)
		if err != nil {
			return nil, err
		}
		addr, _ := ret.(uintptr)
		return memory.FromAddress(b.Runtime, b.Decoder, addr, 0, -1), nil
	}
}

// argErr annotates a conversion failure with where it happened.
func argErr(name string, i int, err error) error {
	var ce *types.ConversionError
	if errors.As(err, &ce) {
		ce.Symbol = name
		ce.Arg = i
		return ce
	}
	return fmt.Errorf("%s: argument %d: %w", name, i, err)
}

func at(args []any, i int) any {
	if i < len(args) {
		return args[i]
	}
	return nil
}
