package schema

import (
	"fmt"

	"go.bytecodealliance.org/wit"
)

// Kind is the storage type of a field or the type of an operation
// parameter or result.
type Kind uint8

const (
	KindVoid Kind = iota
	KindBool
	KindU8
	KindS8
	KindU16
	KindS16
	KindU32
	KindS32
	KindU64
	KindS64
	KindF32
	KindF64
	KindChar
	KindString
	KindRecord
)

var kindNames = [...]string{
	KindVoid:   "void",
	KindBool:   "bool",
	KindU8:     "u8",
	KindS8:     "s8",
	KindU16:    "u16",
	KindS16:    "s16",
	KindU32:    "u32",
	KindS32:    "s32",
	KindU64:    "u64",
	KindS64:    "s64",
	KindF32:    "f32",
	KindF64:    "f64",
	KindChar:   "char",
	KindString: "string",
	KindRecord: "record",
}

var kindWidths = [...]uint64{
	KindBool: 1,
	KindU8:   1,
	KindS8:   1,
	KindU16:  2,
	KindS16:  2,
	KindU32:  4,
	KindS32:  4,
	KindU64:  8,
	KindS64:  8,
	KindF32:  4,
	KindF64:  8,
	KindChar: 4,
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsPrimitive reports whether values of k are stored inline as one scalar.
func (k Kind) IsPrimitive() bool {
	return k >= KindBool && k <= KindChar
}

// IsNumeric reports whether k supports increase and decrease.
func (k Kind) IsNumeric() bool {
	return k >= KindU8 && k <= KindF64
}

func (k Kind) IsFloat() bool {
	return k == KindF32 || k == KindF64
}

func (k Kind) IsSigned() bool {
	switch k {
	case KindS8, KindS16, KindS32, KindS64:
		return true
	}
	return false
}

// Width returns the storage width of a primitive kind, 0 otherwise.
func (k Kind) Width() uint64 {
	if int(k) < len(kindWidths) {
		return kindWidths[k]
	}
	return 0
}

// ParseKind resolves a type name. Primitive names follow WIT; "void"
// and "record" are accepted as well.
func ParseKind(name string) (Kind, error) {
	switch name {
	case "void", "":
		return KindVoid, nil
	case "record":
		return KindRecord, nil
	}
	t, err := wit.ParseType(name)
	if err != nil {
		return KindVoid, fmt.Errorf("parse type %q: %w", name, err)
	}
	k, ok := kindOfWIT(t)
	if !ok {
		return KindVoid, fmt.Errorf("type %q has no fixed-width storage", name)
	}
	return k, nil
}

// kindOfWIT maps a WIT primitive type to its kind.
func kindOfWIT(t wit.Type) (Kind, bool) {
	switch t.(type) {
	case wit.Bool:
		return KindBool, true
	case wit.U8:
		return KindU8, true
	case wit.S8:
		return KindS8, true
	case wit.U16:
		return KindU16, true
	case wit.S16:
		return KindS16, true
	case wit.U32:
		return KindU32, true
	case wit.S32:
		return KindS32, true
	case wit.U64:
		return KindU64, true
	case wit.S64:
		return KindS64, true
	case wit.F32:
		return KindF32, true
	case wit.F64:
		return KindF64, true
	case wit.Char:
		return KindChar, true
	case wit.String:
		return KindString, true
	default:
		return KindVoid, false
	}
}
