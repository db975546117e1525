package types

import (
	"errors"
	"fmt"
)

// ErrUnsupported is returned by runtimes that lack a capability, for example
// callbacks on the wasm runtime or every operation on platforms without dlopen.
var ErrUnsupported = errors.New("operation not supported by this runtime")

var (
	_ error = (*BindError)(nil)
	_ error = (*ConversionError)(nil)
	_ error = (*LibraryError)(nil)
)

// BindError is returned while building a call shim, before any native call is
// attempted. Either Tag names an unrecognized type tag (Arg is its parameter
// index, -1 for the return type) or Msg describes why the symbol can't be bound.
type BindError struct {
	Symbol string
	Tag    string
	Arg    int
	Msg    string
}

func (e *BindError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("cannot bind %q: %s", e.Symbol, e.Msg)
	}
	if e.Arg < 0 {
		return fmt.Sprintf("cannot bind %q: unknown return type %q", e.Symbol, e.Tag)
	}
	return fmt.Sprintf("cannot bind %q: unknown type %q for argument %d", e.Symbol, e.Tag, e.Arg)
}

// ConversionError reports a single value that could not be coerced for its
// declared tag. Symbol and Arg are filled in by the call shim; a bare Coerce
// leaves Symbol empty and Arg at -1.
type ConversionError struct {
	Symbol string
	Arg    int
	Tag    Tag
	Value  any
	Msg    string
}

func (e *ConversionError) Error() string {
	if e.Symbol == "" {
		return fmt.Sprintf("cannot convert %T to %s: %s", e.Value, e.Tag, e.Msg)
	}
	return fmt.Sprintf("%s: argument %d: cannot convert %T to %s: %s", e.Symbol, e.Arg, e.Value, e.Tag, e.Msg)
}

// LibraryError wraps a failure of the runtime to open a library or resolve one
// of its symbols. No library handle is produced.
type LibraryError struct {
	Path   string
	Symbol string
	Err    error
}

func (e *LibraryError) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("library %s: symbol %q: %v", e.Path, e.Symbol, e.Err)
	}
	return fmt.Sprintf("library %s: %v", e.Path, e.Err)
}

func (e *LibraryError) Unwrap() error {
	return e.Err
}
