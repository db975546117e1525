//go:build darwin || linux

// Package native is the dlopen runtime. Calls and callbacks go through purego,
// so the package builds without cgo.
package native

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/ebitengine/purego"
	"github.com/rs/zerolog"

	"github.com/CosmWasm/goffi/internal/coerce"
	"github.com/CosmWasm/goffi/internal/memory"
	"github.com/CosmWasm/goffi/types"
)

// Runtime implements types.Runtime over the process address space.
type Runtime struct {
	memory.Process

	logger zerolog.Logger

	mu    sync.Mutex
	slots map[uintptr]*slot
	free  map[reflect.Type][]*slot
}

var _ types.Runtime = (*Runtime)(nil)

// New creates the runtime. It holds no resources until a library is opened.
func New(logger zerolog.Logger) *Runtime {
	return &Runtime{
		logger: logger.With().Str("runtime", "native").Logger(),
		slots:  make(map[uintptr]*slot),
		free:   make(map[reflect.Type][]*slot),
	}
}

func (r *Runtime) Open(path string) (types.Library, error) {
	h, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, err
	}
	r.logger.Debug().Str("path", path).Msg("library opened")
	return &library{path: path, h: h, logger: r.logger}, nil
}

func (r *Runtime) Prepare(addr uintptr, sig types.Signature) (inv types.Invoker, err error) {
	if addr == 0 {
		return nil, errors.New("null function address")
	}
	ft := funcType(sig)
	fptr := reflect.New(ft)
	defer func() {
		// RegisterFunc panics on signatures purego cannot express.
		if rec := recover(); rec != nil {
			inv, err = nil, fmt.Errorf("unsupported signature %s: %v", ft, rec)
		}
	}()
	purego.RegisterFunc(fptr.Interface(), addr)
	fn := fptr.Elem()

	return func(args []any) (any, error) {
		in := make([]reflect.Value, len(sig.Args))
		for i, t := range sig.Args {
			var a any
			if i < len(args) {
				a = args[i]
			}
			in[i] = wordValue(ft.In(i), coerce.Bits(t, a))
		}
		out := fn.Call(in)
		if len(out) == 0 {
			return nil, nil
		}
		return coerce.FromBits(sig.Returns, valueWord(out[0])), nil
	}, nil
}

func (r *Runtime) AddressOf(v any) (uintptr, bool) {
	return memory.AddressOf(v)
}

// slot is one purego trampoline. purego never frees trampolines and has a
// fixed number of them, so a released slot goes on a free list for its Go
// func type and is rebound by the next callback of the same shape. Until then
// it answers with the zero value. Native code still holding a released
// address enters whichever callback reuses the slot.
type slot struct {
	addr uintptr
	ft   reflect.Type
	cb   atomic.Pointer[bound]
}

type bound struct {
	sig types.Signature
	fn  types.NativeCallback
}

func (s *slot) enter(in []reflect.Value) []reflect.Value {
	var ret any
	var sig types.Signature
	if b := s.cb.Load(); b != nil {
		sig = b.sig
		args := make([]any, len(in))
		for i, v := range in {
			args[i] = coerce.FromBits(sig.Args[i], valueWord(v))
		}
		ret = b.fn(args)
	}
	if s.ft.NumOut() == 0 {
		return nil
	}
	var w uint64
	if ret != nil {
		w = coerce.Bits(sig.Returns, ret)
	}
	return []reflect.Value{wordValue(s.ft.Out(0), w)}
}

func (r *Runtime) NewCallback(sig types.Signature, threadsafe bool, fn types.NativeCallback) (ctx any, addr uintptr, err error) {
	ft := funcType(sig)
	b := &bound{sig: sig, fn: fn}

	r.mu.Lock()
	if free := r.free[ft]; len(free) > 0 {
		s := free[len(free)-1]
		r.free[ft] = free[:len(free)-1]
		s.cb.Store(b)
		r.mu.Unlock()
		r.logger.Debug().Uint64("addr", uint64(s.addr)).Bool("threadsafe", threadsafe).Msg("trampoline reused")
		return s, s.addr, nil
	}
	r.mu.Unlock()

	s := &slot{ft: ft}
	s.cb.Store(b)
	impl := reflect.MakeFunc(ft, s.enter)

	defer func() {
		// NewCallback panics past its trampoline limit and on unsupported
		// argument types.
		if rec := recover(); rec != nil {
			ctx, addr, err = nil, 0, fmt.Errorf("cannot create callback %s: %v", ft, rec)
		}
	}()
	s.addr = purego.NewCallback(impl.Interface())

	r.mu.Lock()
	r.slots[s.addr] = s
	n := len(r.slots)
	r.mu.Unlock()
	r.logger.Debug().Uint64("addr", uint64(s.addr)).Bool("threadsafe", threadsafe).Int("slots", n).Msg("trampoline created")
	return s, s.addr, nil
}

func (r *Runtime) ReleaseCallback(ctx any) {
	s, ok := ctx.(*slot)
	if !ok || s.cb.Swap(nil) == nil {
		return
	}
	r.mu.Lock()
	r.free[s.ft] = append(r.free[s.ft], s)
	r.mu.Unlock()
	r.logger.Debug().Uint64("addr", uint64(s.addr)).Msg("trampoline released")
}

// Live is the number of trampolines bound to a callback.
func (r *Runtime) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.slots {
		if s.cb.Load() != nil {
			n++
		}
	}
	return n
}

// Slots is the number of trampolines ever created, bound or free.
func (r *Runtime) Slots() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.slots)
}

type library struct {
	path   string
	h      uintptr
	closed atomic.Bool
	logger zerolog.Logger
}

func (l *library) Lookup(name string) (uintptr, error) {
	if l.closed.Load() {
		return 0, fmt.Errorf("%s: library is closed", l.path)
	}
	return purego.Dlsym(l.h, name)
}

func (l *library) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	l.logger.Debug().Str("path", l.path).Msg("library closed")
	return purego.Dlclose(l.h)
}
