// Package wazeroimpl is the wasm runtime: WebAssembly modules stand in for
// shared libraries, their exported functions for symbols, and the linear
// memory of the most recently opened module for native memory.
package wazeroimpl

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"os"
	"sync"
	"unsafe"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/CosmWasm/goffi/internal/coerce"
	"github.com/CosmWasm/goffi/internal/memory"
	"github.com/CosmWasm/goffi/types"
)

// Function handles are synthetic addresses in the top maxExports slots of the
// address space. Guest memory offsets only reach them with a memory of almost
// 4GiB, which 32-bit hosts cannot back and which 64-bit hosts address below
// funcBase anyway.
const (
	maxExports         = 1 << 20
	funcBase   uintptr = ^uintptr(0) - maxExports + 1
)

// Runtime implements types.Runtime on top of one wazero runtime.
type Runtime struct {
	ctx     context.Context
	runtime wazero.Runtime
	logger  zerolog.Logger
	// lock holds the exclusive lock on the compilation cache dir, if any.
	lock interface{ Close() error }

	mu sync.Mutex
	// compiled modules by sha256 of their bytes
	compiled map[string]wazero.CompiledModule
	exports  []export
	handles  map[export]uintptr
	mem      api.Memory
}

// export names one exported function of an instantiated module.
type export struct {
	mod  api.Module
	name string
}

var _ types.Runtime = (*Runtime)(nil)

// New creates the wazero runtime with WASI preview 1 available to guests.
func New(ctx context.Context, cfg types.WasmConfig, logger zerolog.Logger) (*Runtime, error) {
	rc := wazero.NewRuntimeConfig()
	if cfg.MemoryLimitPages > 0 {
		rc = rc.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	var lock interface{ Close() error }
	if cfg.CacheDir != "" {
		if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
			return nil, fmt.Errorf("could not create cache directory: %w", err)
		}
		lf, err := lockDir(cfg.CacheDir)
		if err != nil {
			return nil, err
		}
		cache, err := wazero.NewCompilationCacheWithDir(cfg.CacheDir)
		if err != nil {
			lf.Close()
			return nil, fmt.Errorf("could not open compilation cache: %w", err)
		}
		rc = rc.WithCompilationCache(cache)
		lock = lf
	}
	r := wazero.NewRuntimeWithConfig(ctx, rc)
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, r); err != nil {
		r.Close(ctx)
		if lock != nil {
			lock.Close()
		}
		return nil, fmt.Errorf("could not instantiate wasi: %w", err)
	}
	return &Runtime{
		ctx:      ctx,
		runtime:  r,
		logger:   logger.With().Str("runtime", "wasm").Logger(),
		lock:     lock,
		compiled: make(map[string]wazero.CompiledModule),
		handles:  make(map[export]uintptr),
	}, nil
}

// Close releases the wazero runtime, every module opened through it, and the
// cache directory lock.
func (r *Runtime) Close() error {
	err := r.runtime.Close(r.ctx)
	if r.lock != nil {
		r.lock.Close()
	}
	return err
}

// Open reads, compiles and instantiates the module at path. Its memory
// becomes the memory this runtime reads from.
func (r *Runtime) Open(path string) (types.Library, error) {
	bin, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(bin)
	key := hex.EncodeToString(sum[:])

	r.mu.Lock()
	defer r.mu.Unlock()
	compiled, ok := r.compiled[key]
	if !ok {
		if compiled, err = r.runtime.CompileModule(r.ctx, bin); err != nil {
			return nil, err
		}
		r.compiled[key] = compiled
	}
	// instance names must be unique within the runtime
	name := key[:12] + "-" + uuid.NewString()
	mod, err := r.runtime.InstantiateModule(r.ctx, compiled, wazero.NewModuleConfig().WithName(name))
	if err != nil {
		return nil, err
	}
	if mem := mod.Memory(); mem != nil {
		r.mem = mem
	}
	r.logger.Debug().Str("path", path).Str("module", name).Msg("module instantiated")
	return &library{rt: r, path: path, mod: mod}, nil
}

// handle returns the synthetic address of e, assigning one on first use.
func (r *Runtime) handle(e export) (uintptr, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.handles[e]; ok {
		return h, nil
	}
	if len(r.exports) >= maxExports {
		return 0, fmt.Errorf("more than %d exported functions looked up", maxExports)
	}
	h := funcBase + uintptr(len(r.exports))
	r.exports = append(r.exports, e)
	r.handles[e] = h
	return h, nil
}

func (r *Runtime) export(addr uintptr) (export, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if addr < funcBase || addr-funcBase >= uintptr(len(r.exports)) {
		return export{}, false
	}
	return r.exports[addr-funcBase], true
}

// Prepare gives every prepared symbol its own api.Function. Those are not
// safe for concurrent use, so calls through one invoker are serialized.
func (r *Runtime) Prepare(addr uintptr, sig types.Signature) (types.Invoker, error) {
	e, ok := r.export(addr)
	if !ok {
		return nil, fmt.Errorf("no exported function at 0x%x", addr)
	}
	fn := e.mod.ExportedFunction(e.name)
	if fn == nil {
		return nil, fmt.Errorf("module %s no longer exports %q", e.mod.Name(), e.name)
	}
	var mu sync.Mutex
	def := fn.Definition()
	params, results := def.ParamTypes(), def.ResultTypes()
	if len(params) != len(sig.Args) {
		return nil, fmt.Errorf("%s takes %d parameters, declared with %d", def.Name(), len(params), len(sig.Args))
	}
	for i, t := range sig.Args {
		if err := compatible(t, params[i]); err != nil {
			return nil, fmt.Errorf("%s parameter %d: %w", def.Name(), i, err)
		}
	}
	switch {
	case sig.Returns == types.Void:
	case len(results) != 1:
		return nil, fmt.Errorf("%s returns %d values, declared with one", def.Name(), len(results))
	default:
		if err := compatible(sig.Returns, results[0]); err != nil {
			return nil, fmt.Errorf("%s result: %w", def.Name(), err)
		}
	}

	return func(args []any) (any, error) {
		stack := make([]uint64, len(params))
		for i, t := range sig.Args {
			var a any
			if i < len(args) {
				a = args[i]
			}
			stack[i] = encode(t, params[i], coerce.Bits(t, a))
		}
		mu.Lock()
		out, err := fn.Call(r.ctx, stack...)
		mu.Unlock()
		if err != nil {
			return nil, err
		}
		if sig.Returns == types.Void || len(out) == 0 {
			return nil, nil
		}
		return coerce.FromBits(sig.Returns, decode(sig.Returns, results[0], out[0])), nil
	}, nil
}

func compatible(t types.Tag, vt api.ValueType) error {
	isFloat := vt == api.ValueTypeF32 || vt == api.ValueTypeF64
	if t.IsFloat() != isFloat {
		return fmt.Errorf("%s cannot be passed as %s", t, api.ValueTypeName(vt))
	}
	return nil
}

// encode converts the native word w for tag into a wasm stack value.
func encode(t types.Tag, vt api.ValueType, w uint64) uint64 {
	switch vt {
	case api.ValueTypeI32:
		return uint64(uint32(w))
	case api.ValueTypeF32:
		if t == types.Double {
			return api.EncodeF32(float32(math.Float64frombits(w)))
		}
		return uint64(uint32(w))
	case api.ValueTypeF64:
		if t == types.Float {
			return api.EncodeF64(float64(math.Float32frombits(uint32(w))))
		}
		return w
	}
	return w
}

// decode converts a wasm result into the native word for tag.
func decode(t types.Tag, vt api.ValueType, v uint64) uint64 {
	switch vt {
	case api.ValueTypeI32:
		if t.Signed() {
			return uint64(int64(int32(v)))
		}
		return uint64(uint32(v))
	case api.ValueTypeF32:
		if t == types.Double {
			return math.Float64bits(float64(api.DecodeF32(v)))
		}
		return uint64(uint32(v))
	case api.ValueTypeF64:
		if t == types.Float {
			return uint64(math.Float32bits(float32(api.DecodeF64(v))))
		}
	}
	return v
}

// guest returns the current linear memory as a slice aliasing it.
func (r *Runtime) guest() []byte {
	r.mu.Lock()
	mem := r.mem
	r.mu.Unlock()
	if mem == nil {
		return nil
	}
	b, _ := mem.Read(0, mem.Size())
	return b
}

// AddressOf maps a slice of guest memory back to its guest offset. Go memory
// is not addressable from inside the guest.
func (r *Runtime) AddressOf(v any) (uintptr, bool) {
	switch x := v.(type) {
	case memory.Pointerer:
		return x.Pointer(), true
	case []byte:
		g := r.guest()
		if len(g) == 0 || cap(x) == 0 {
			return 0, false
		}
		base := uintptr(unsafe.Pointer(unsafe.SliceData(g)))
		p := uintptr(unsafe.Pointer(unsafe.SliceData(x)))
		if p < base || p >= base+uintptr(len(g)) {
			return 0, false
		}
		return p - base, true
	}
	return 0, false
}

func (r *Runtime) Read(addr uintptr, offset, length int) []byte {
	g := r.guest()
	start := int(addr) + offset
	if addr == 0 || length <= 0 || start < 0 || start+length > len(g) {
		return []byte{}
	}
	return g[start : start+length : start+length]
}

func (r *Runtime) ReadCString(addr uintptr, offset int) []byte {
	g := r.guest()
	start := int(addr) + offset
	if addr == 0 || start < 0 || start >= len(g) {
		return []byte{}
	}
	n := 0
	for start+n < len(g) && g[start+n] != 0 {
		n++
	}
	return g[start : start+n : start+n]
}

func (r *Runtime) NewCallback(types.Signature, bool, types.NativeCallback) (any, uintptr, error) {
	return nil, 0, types.ErrUnsupported
}

func (r *Runtime) ReleaseCallback(any) {}

type library struct {
	rt   *Runtime
	path string
	mod  api.Module

	once sync.Once
	err  error
}

func (l *library) Lookup(name string) (uintptr, error) {
	if l.mod.IsClosed() {
		return 0, fmt.Errorf("%s: module is closed", l.path)
	}
	if l.mod.ExportedFunction(name) == nil {
		return 0, fmt.Errorf("%s: no exported function %q", l.path, name)
	}
	return l.rt.handle(export{mod: l.mod, name: name})
}

func (l *library) Close() error {
	l.once.Do(func() {
		l.rt.mu.Lock()
		if mem := l.mod.Memory(); mem != nil && l.rt.mem == mem {
			l.rt.mem = nil
		}
		l.rt.mu.Unlock()
		l.err = l.mod.Close(l.rt.ctx)
		l.rt.logger.Debug().Str("path", l.path).Msg("module closed")
	})
	return l.err
}
