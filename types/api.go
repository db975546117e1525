package types

type (
	// Invoker performs one native call. args are native-ready values produced
	// by the coercion rules, in parameter order. The result is already a
	// managed value (see coerce.FromBits); cstring returns come back as the raw
	// uintptr address.
	Invoker func(args []any) (any, error)

	// NativeCallback is what a runtime calls when native code enters a
	// registered callback. args are managed values; the result must be a
	// native-ready value for the declared return tag.
	NativeCallback func(args []any) any

	// CallbackFunc is a managed function exposed to native code.
	CallbackFunc func(args ...any) (any, error)
)

// Library is an opened native library as seen by a Runtime.
type Library interface {
	// Lookup resolves an exported symbol to its address.
	Lookup(name string) (uintptr, error)
	Close() error
}

// Runtime bundles the primitives the marshalling layer sits on: loading
// libraries, performing native calls, reading native memory, and creating
// native-callable trampolines. Different runtimes give "address" different
// meanings (process memory for dlopen, linear memory for wasm) but the engine
// never interprets them itself.
type Runtime interface {
	Open(path string) (Library, error)

	// Prepare returns an Invoker for the function at addr with signature sig.
	// It is called once per symbol at bind time.
	Prepare(addr uintptr, sig Signature) (Invoker, error)

	// AddressOf returns the backing address of a buffer-like value. ok is
	// false when v is not buffer-like for this runtime.
	AddressOf(v any) (addr uintptr, ok bool)

	// Read returns a view of length bytes at addr+offset that aliases native
	// memory. It is only valid as long as that memory is.
	Read(addr uintptr, offset, length int) []byte

	// ReadCString is Read with the length discovered by scanning for a NUL
	// terminator. The terminator is not included.
	ReadCString(addr uintptr, offset int) []byte

	// NewCallback makes fn callable from native code with signature sig.
	// The returned context is opaque and only passed back to ReleaseCallback.
	NewCallback(sig Signature, threadsafe bool, fn NativeCallback) (ctx any, addr uintptr, err error)
	ReleaseCallback(ctx any)
}

// CallbackOptions declares the native signature of a callback.
type CallbackOptions struct {
	Args    []string
	Returns string
	// Threadsafe callbacks may be entered from threads other than the one
	// that registered them; invocations are queued and run in arrival order.
	Threadsafe bool
}
