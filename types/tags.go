package types

import "fmt"

// Tag names one marshallable native type. The numeric values are stable and
// match the ids used by manifests written with numeric tags.
type Tag uint8

const (
	Char     Tag = 0
	Int8     Tag = 1
	Uint8    Tag = 2
	Int16    Tag = 3
	Uint16   Tag = 4
	Int32    Tag = 5
	Uint32   Tag = 6
	Int64    Tag = 7
	Uint64   Tag = 8
	Double   Tag = 9
	Float    Tag = 10
	Bool     Tag = 11
	Pointer  Tag = 12
	Void     Tag = 13
	CString  Tag = 14
	I64Fast  Tag = 15
	U64Fast  Tag = 16
	Function Tag = 17

	numTags = 18
)

var tagNames = [numTags]string{
	Char:     "char",
	Int8:     "int8_t",
	Uint8:    "uint8_t",
	Int16:    "int16_t",
	Uint16:   "uint16_t",
	Int32:    "int32_t",
	Uint32:   "uint32_t",
	Int64:    "int64_t",
	Uint64:   "uint64_t",
	Double:   "double",
	Float:    "float",
	Bool:     "bool",
	Pointer:  "ptr",
	Void:     "void",
	CString:  "cstring",
	I64Fast:  "i64_fast",
	U64Fast:  "u64_fast",
	Function: "function",
}

// tagAliases maps every accepted spelling to its tag.
var tagAliases = map[string]Tag{
	"char":     Char,
	"int8_t":   Int8,
	"i8":       Int8,
	"uint8_t":  Uint8,
	"u8":       Uint8,
	"int16_t":  Int16,
	"i16":      Int16,
	"uint16_t": Uint16,
	"u16":      Uint16,
	"int32_t":  Int32,
	"i32":      Int32,
	"int":      Int32,
	"uint32_t": Uint32,
	"u32":      Uint32,
	"int64_t":  Int64,
	"i64":      Int64,
	"uint64_t": Uint64,
	"u64":      Uint64,
	"usize":    Uint64,
	"double":   Double,
	"f64":      Double,
	"float":    Float,
	"f32":      Float,
	"bool":     Bool,
	"ptr":      Pointer,
	"pointer":  Pointer,
	"void":     Void,
	"cstring":  CString,
	"i64_fast": I64Fast,
	"u64_fast": U64Fast,
	"function": Function,
	"callback": Function,
	"fn":       Function,
}

// ParseTag resolves a tag name. The empty string is treated as void so that
// declarations may omit the return type.
func ParseTag(name string) (Tag, bool) {
	if name == "" {
		return Void, true
	}
	t, ok := tagAliases[name]
	return t, ok
}

// Valid reports whether t is one of the defined tags.
func (t Tag) Valid() bool {
	return t < numTags
}

func (t Tag) String() string {
	if !t.Valid() {
		return fmt.Sprintf("Tag(%d)", uint8(t))
	}
	return tagNames[t]
}

// Width returns the size in bits of the native representation, or 0 for void.
func (t Tag) Width() int {
	switch t {
	case Char, Int8, Uint8, Bool:
		return 8
	case Int16, Uint16:
		return 16
	case Int32, Uint32, Float:
		return 32
	case Void:
		return 0
	default:
		return 64
	}
}

// Signed reports whether t is a signed integer tag.
func (t Tag) Signed() bool {
	switch t {
	case Char, Int8, Int16, Int32, Int64, I64Fast:
		return true
	}
	return false
}

// IsInteger reports whether t is any of the integer tags, fast variants included.
func (t Tag) IsInteger() bool {
	return t <= Uint64 || t == I64Fast || t == U64Fast
}

// IsFloat reports whether t is float or double.
func (t Tag) IsFloat() bool {
	return t == Float || t == Double
}

// IsAddress reports whether values of t are native addresses.
func (t Tag) IsAddress() bool {
	return t == Pointer || t == CString || t == Function
}
