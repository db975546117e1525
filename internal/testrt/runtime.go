// Package testrt is an in-process Runtime for tests. Native functions are Go
// funcs registered under synthetic addresses, memory is process memory, and
// callbacks are entered explicitly with Trigger.
package testrt

import (
	"fmt"
	"sync"

	"github.com/CosmWasm/goffi/internal/coerce"
	"github.com/CosmWasm/goffi/internal/memory"
	"github.com/CosmWasm/goffi/types"
)

// Native stands in for a native function. It receives native-ready values
// and returns a native value (any Go number, bool, uintptr or nil).
type Native func(args []any) any

// Call records one invocation that reached the native side.
type Call struct {
	Addr uintptr
	Name string
	Args []any
}

type function struct {
	name string
	impl Native
}

type callback struct {
	sig      types.Signature
	fn       types.NativeCallback
	released bool
}

// Runtime implements types.Runtime.
type Runtime struct {
	memory.Process

	mu        sync.Mutex
	next      uintptr
	funcs     map[uintptr]*function
	libs      map[string]map[string]uintptr
	closed    map[string]int
	calls     []Call
	prepared  int
	callbacks map[uintptr]*callback
}

var _ types.Runtime = (*Runtime)(nil)

func New() *Runtime {
	return &Runtime{
		next:      0x1000,
		funcs:     make(map[uintptr]*function),
		libs:      make(map[string]map[string]uintptr),
		closed:    make(map[string]int),
		callbacks: make(map[uintptr]*callback),
	}
}

// Define registers impl and returns its synthetic address.
func (r *Runtime) Define(name string, impl Native) uintptr {
	r.mu.Lock()
	defer r.mu.Unlock()
	addr := r.next
	r.next += 0x10
	r.funcs[addr] = &function{name: name, impl: impl}
	return addr
}

// AddLibrary makes path openable, exporting the given name to address pairs.
func (r *Runtime) AddLibrary(path string, exports map[string]uintptr) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.libs[path] = exports
}

// Calls returns every invocation so far, in order.
func (r *Runtime) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Prepared is the number of Prepare calls so far.
func (r *Runtime) Prepared() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.prepared
}

// CloseCount is how often a library opened from path was closed.
func (r *Runtime) CloseCount(path string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed[path]
}

func (r *Runtime) Open(path string) (types.Library, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	exports, ok := r.libs[path]
	if !ok {
		return nil, fmt.Errorf("%s: cannot open shared object file: No such file or directory", path)
	}
	return &library{rt: r, path: path, exports: exports}, nil
}

func (r *Runtime) Prepare(addr uintptr, sig types.Signature) (types.Invoker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prepared++
	fn, ok := r.funcs[addr]
	if !ok {
		return nil, fmt.Errorf("no function at 0x%x", addr)
	}
	return func(args []any) (any, error) {
		r.mu.Lock()
		r.calls = append(r.calls, Call{Addr: addr, Name: fn.name, Args: append([]any(nil), args...)})
		r.mu.Unlock()
		out := fn.impl(args)
		return coerce.FromBits(sig.Returns, coerce.Bits(sig.Returns, out)), nil
	}, nil
}

func (r *Runtime) AddressOf(v any) (uintptr, bool) {
	return memory.AddressOf(v)
}

func (r *Runtime) NewCallback(sig types.Signature, _ bool, fn types.NativeCallback) (any, uintptr, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	addr := r.next
	r.next += 0x10
	r.callbacks[addr] = &callback{sig: sig, fn: fn}
	return addr, addr, nil
}

func (r *Runtime) ReleaseCallback(ctx any) {
	addr, _ := ctx.(uintptr)
	r.mu.Lock()
	defer r.mu.Unlock()
	if cb, ok := r.callbacks[addr]; ok {
		cb.released = true
	}
}

// Trigger enters the callback at addr the way native code would: args are
// raw native values, lifted per the callback's signature, and the result is
// lifted back from its native word. Calling a released callback is an error.
func (r *Runtime) Trigger(addr uintptr, args ...any) (any, error) {
	r.mu.Lock()
	cb, ok := r.callbacks[addr]
	released := ok && cb.released
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no callback at 0x%x", addr)
	}
	if released {
		return nil, fmt.Errorf("callback at 0x%x was released", addr)
	}
	in := make([]any, len(cb.sig.Args))
	for i, t := range cb.sig.Args {
		var a any
		if i < len(args) {
			a = args[i]
		}
		in[i] = coerce.FromBits(t, coerce.Bits(t, a))
	}
	out := cb.fn(in)
	return coerce.FromBits(cb.sig.Returns, coerce.Bits(cb.sig.Returns, out)), nil
}

type library struct {
	rt      *Runtime
	path    string
	exports map[string]uintptr
}

func (l *library) Lookup(name string) (uintptr, error) {
	addr, ok := l.exports[name]
	if !ok {
		return 0, fmt.Errorf("undefined symbol: %s", name)
	}
	return addr, nil
}

func (l *library) Close() error {
	l.rt.mu.Lock()
	defer l.rt.mu.Unlock()
	l.rt.closed[l.path]++
	return nil
}
