package goffi

import (
	"errors"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/CosmWasm/goffi/types"
)

// Library is a table of bound symbols, from Open or Link.
type Library struct {
	path   string
	lib    types.Library
	logger zerolog.Logger

	mu      sync.RWMutex
	symbols map[string]*Func
	closed  bool
}

// Open loads the library at path and binds every declared symbol. Load and
// lookup failures are *types.LibraryError; bad declarations are
// *types.BindError and are reported before the library is loaded.
func (e *Engine) Open(path string, decls map[string]types.Symbol) (*Library, error) {
	if err := validate(decls); err != nil {
		return nil, err
	}
	lib, err := e.rt.Open(path)
	if err != nil {
		return nil, &types.LibraryError{Path: path, Err: err}
	}
	addrs := make(map[string]uintptr, len(decls))
	for _, name := range sortedNames(decls) {
		addr, err := lib.Lookup(name)
		if err == nil && addr == 0 {
			err = errors.New("symbol resolved to null")
		}
		if err != nil {
			lib.Close()
			return nil, &types.LibraryError{Path: path, Symbol: name, Err: err}
		}
		addrs[name] = addr
	}
	l, err := e.bind(path, lib, decls, addrs)
	if err != nil {
		lib.Close()
		return nil, err
	}
	return l, nil
}

// Link binds symbols whose addresses the caller already has, in Symbol.Ptr.
// Nothing is loaded and Close releases nothing native.
func (e *Engine) Link(decls map[string]types.Symbol) (*Library, error) {
	if err := validate(decls); err != nil {
		return nil, err
	}
	addrs := make(map[string]uintptr, len(decls))
	for name, decl := range decls {
		if decl.Ptr == 0 {
			return nil, &types.BindError{Symbol: name, Msg: "no address to link"}
		}
		addrs[name] = decl.Ptr
	}
	return e.bind("", nil, decls, addrs)
}

func (e *Engine) bind(path string, lib types.Library, decls map[string]types.Symbol, addrs map[string]uintptr) (*Library, error) {
	symbols := make(map[string]*Func, len(decls))
	for _, name := range sortedNames(decls) {
		fn, err := e.builder.Build(name, addrs[name], decls[name])
		if err != nil {
			return nil, err
		}
		symbols[name] = fn
	}
	l := &Library{path: path, lib: lib, symbols: symbols, logger: e.logger}
	if path != "" {
		l.logger = e.logger.With().Str("library", path).Logger()
	}
	l.logger.Debug().Int("symbols", len(symbols)).Msg("library bound")
	return l, nil
}

func validate(decls map[string]types.Symbol) error {
	for _, name := range sortedNames(decls) {
		if _, err := types.ParseSignature(name, decls[name]); err != nil {
			return err
		}
	}
	return nil
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Path is the path the library was opened from, empty for Link.
func (l *Library) Path() string { return l.path }

// Symbols returns the bound symbols by name, or nil once closed.
func (l *Library) Symbols() map[string]*Func {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.symbols
}

// Lookup returns one bound symbol.
func (l *Library) Lookup(name string) (*Func, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	fn, ok := l.symbols[name]
	return fn, ok
}

// Names lists the bound symbols in sorted order.
func (l *Library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return sortedNames(l.symbols)
}

// Close unloads the library and drops the symbol table. Funcs obtained
// earlier point into unloaded code afterwards. Closing twice is a no-op.
func (l *Library) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	l.symbols = nil
	l.logger.Debug().Msg("library closed")
	if l.lib != nil {
		return l.lib.Close()
	}
	return nil
}
