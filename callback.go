package goffi

import (
	"github.com/CosmWasm/goffi/internal/callback"
	"github.com/CosmWasm/goffi/types"
)

// Callback is a Go function callable from native code. Pass it, or its
// Address, wherever a function argument is declared. Close is idempotent;
// afterwards Address is 0 and passing the Callback fails to convert.
type Callback struct {
	*callback.Registration
}

// Register makes fn callable from native code with the signature in opts.
// Arguments reach fn as managed values and its result is coerced to
// opts.Returns. Errors and panics in fn are logged and answered with the zero
// value of the return type.
func (e *Engine) Register(fn types.CallbackFunc, opts types.CallbackOptions) (*Callback, error) {
	reg, err := callback.Register(e.rt, e.table, fn, opts, e.cfg.Callbacks.QueueSize, e.logger)
	if err != nil {
		return nil, err
	}
	return &Callback{reg}, nil
}
