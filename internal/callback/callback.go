// Package callback exposes managed functions to native code.
package callback

import (
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/CosmWasm/goffi/internal/coerce"
	"github.com/CosmWasm/goffi/types"
)

// Registration is a managed function reachable from native code through
// Address until Close. Close is idempotent.
//
// Native code that kept the address after Close holds a dangling pointer;
// entering it afterwards yields the zero value of the return type, but that
// depends on the runtime keeping the trampoline mapped.
type Registration struct {
	addr       atomic.Uintptr
	closed     atomic.Bool
	threadsafe bool

	rt     types.Runtime
	ctx    any
	fn     types.CallbackFunc
	ret    coerce.Rule
	zero   any
	disp   *dispatcher
	logger zerolog.Logger
}

// Register validates opts, wraps fn so its result is coerced to the declared
// return tag, and asks the runtime for a native-callable address.
// queueSize bounds the dispatcher of threadsafe registrations.
func Register(rt types.Runtime, table *coerce.Table, fn types.CallbackFunc, opts types.CallbackOptions, queueSize int, logger zerolog.Logger) (*Registration, error) {
	sig, err := types.ParseSignature("callback", types.Symbol{Args: opts.Args, Returns: opts.Returns})
	if err != nil {
		return nil, err
	}
	r := &Registration{
		threadsafe: opts.Threadsafe,
		rt:         rt,
		fn:         fn,
		ret:        table.Rule(sig.Returns),
		logger:     logger.With().Str("callback", sig.Returns.String()).Logger(),
	}
	if zero, err := r.ret(nil); err == nil {
		r.zero = zero
	}

	native := types.NativeCallback(r.invoke)
	if opts.Threadsafe {
		r.disp = newDispatcher(queueSize, r.invoke, r.zero)
		native = r.disp.submit
	}
	ctx, addr, err := rt.NewCallback(sig, opts.Threadsafe, native)
	if err != nil {
		if r.disp != nil {
			r.disp.stop()
		}
		return nil, err
	}
	r.ctx = ctx
	r.addr.Store(addr)
	r.logger.Debug().Uint64("addr", uint64(addr)).Bool("threadsafe", opts.Threadsafe).Msg("callback registered")
	return r, nil
}

// Address is the native entry point, or 0 once closed.
func (r *Registration) Address() uintptr { return r.addr.Load() }

// Threadsafe reports whether the registration accepts calls from any thread.
func (r *Registration) Threadsafe() bool { return r.threadsafe }

// Closed reports whether Close has been called.
func (r *Registration) Closed() bool { return r.closed.Load() }

// Close releases the native context and clears the address. It does not wait
// for invocations already running.
func (r *Registration) Close() {
	if !r.closed.CompareAndSwap(false, true) {
		return
	}
	addr := r.addr.Swap(0)
	r.rt.ReleaseCallback(r.ctx)
	if r.disp != nil {
		r.disp.stop()
	}
	r.logger.Debug().Uint64("addr", uint64(addr)).Msg("callback closed")
}

// invoke runs the managed function for one native call. Nothing can be
// returned to native code but a value, so failures are logged and answered
// with the zero value.
func (r *Registration) invoke(args []any) (ret any) {
	if r.closed.Load() {
		return r.zero
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().Interface("panic", rec).Msg("panic in callback")
			ret = r.zero
		}
	}()
	v, err := r.fn(args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("callback returned an error")
		return r.zero
	}
	out, err := r.ret(v)
	if err != nil {
		r.logger.Error().Err(err).Msg("callback result cannot be converted")
		return r.zero
	}
	return out
}
