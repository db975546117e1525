package types

// Symbol declares how one exported native function is called. Args and
// Returns hold tag names (see ParseTag). Ptr is only used by Link, where the
// caller already resolved the address; it never appears in manifests.
type Symbol struct {
	Args    []string `json:"args,omitempty" yaml:"args,omitempty" msgpack:"args"`
	Returns string   `json:"returns,omitempty" yaml:"returns,omitempty" msgpack:"returns"`
	Ptr     uintptr  `json:"-" yaml:"-" msgpack:"-"`
}

// NewSymbol builds a declaration from already-typed tags.
func NewSymbol(returns Tag, args ...Tag) Symbol {
	names := make([]string, len(args))
	for i, a := range args {
		names[i] = a.String()
	}
	return Symbol{Args: names, Returns: returns.String()}
}

// Signature is a validated Symbol: ordered parameter tags plus a return tag.
type Signature struct {
	Args    []Tag
	Returns Tag
}

// Shimmed reports whether calls need a marshalling shim. Signatures with no
// parameters and a non-cstring return are exposed as the raw callable.
func (s Signature) Shimmed() bool {
	return len(s.Args) > 0 || s.Returns == CString
}

// ParseSignature validates every tag name of sym. The returned error is always
// a *BindError naming the first unrecognized tag.
func ParseSignature(name string, sym Symbol) (Signature, error) {
	sig := Signature{Args: make([]Tag, len(sym.Args))}
	for i, a := range sym.Args {
		t, ok := ParseTag(a)
		if !ok {
			return Signature{}, &BindError{Symbol: name, Tag: a, Arg: i}
		}
		sig.Args[i] = t
	}
	ret, ok := ParseTag(sym.Returns)
	if !ok {
		return Signature{}, &BindError{Symbol: name, Tag: sym.Returns, Arg: -1}
	}
	sig.Returns = ret
	return sig, nil
}
