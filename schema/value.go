package schema

import (
	"math"
	"strconv"
)

// Value is an unboxed scalar tagged with its kind. The zero Value is void.
type Value struct {
	bits uint64
	kind Kind
}

// Scalar lists the Go types ValueOf accepts.
type Scalar interface {
	bool | int8 | uint8 | int16 | uint16 | int32 | uint32 | int64 | uint64 | int | uint | float32 | float64
}

// ValueOf wraps a Go scalar. int and uint map to 64-bit kinds; use Char
// for runes.
func ValueOf[T Scalar](v T) Value {
	switch x := any(v).(type) {
	case bool:
		return Bool(x)
	case int8:
		return Int(KindS8, int64(x))
	case uint8:
		return Uint(KindU8, uint64(x))
	case int16:
		return Int(KindS16, int64(x))
	case uint16:
		return Uint(KindU16, uint64(x))
	case int32:
		return Int(KindS32, int64(x))
	case uint32:
		return Uint(KindU32, uint64(x))
	case int64:
		return Int(KindS64, x)
	case uint64:
		return Uint(KindU64, x)
	case int:
		return Int(KindS64, int64(x))
	case uint:
		return Uint(KindU64, uint64(x))
	case float32:
		return Float(KindF32, float64(x))
	case float64:
		return Float(KindF64, x)
	}
	return Value{}
}

func Bool(b bool) Value {
	if b {
		return Value{bits: 1, kind: KindBool}
	}
	return Value{kind: KindBool}
}

func Char(r rune) Value {
	return Value{bits: uint64(uint32(r)), kind: KindChar}
}

// Int builds a value of kind k from a signed integer.
func Int(k Kind, v int64) Value {
	if k.IsFloat() {
		return Float(k, float64(v))
	}
	return Value{bits: uint64(v), kind: k}
}

// Uint builds a value of kind k from an unsigned integer.
func Uint(k Kind, v uint64) Value {
	if k.IsFloat() {
		return Float(k, float64(v))
	}
	return Value{bits: v, kind: k}
}

// Float builds a value of kind k from a float.
func Float(k Kind, v float64) Value {
	switch k {
	case KindF32, KindF64:
		return Value{bits: math.Float64bits(v), kind: k}
	case KindBool:
		return Bool(v != 0)
	case KindU8, KindU16, KindU32, KindU64:
		return Value{bits: uint64(v), kind: k}
	default:
		return Value{bits: uint64(int64(v)), kind: k}
	}
}

// FromBits rebuilds a value of kind k from its storage bits as read
// from memory (sign extension applies to signed kinds).
func FromBits(k Kind, bits uint64) Value {
	switch k {
	case KindS8:
		return Value{bits: uint64(int64(int8(bits))), kind: k}
	case KindS16:
		return Value{bits: uint64(int64(int16(bits))), kind: k}
	case KindS32:
		return Value{bits: uint64(int64(int32(bits))), kind: k}
	case KindF32:
		return Value{bits: math.Float64bits(float64(math.Float32frombits(uint32(bits)))), kind: k}
	case KindBool:
		return Bool(bits != 0)
	default:
		return Value{bits: bits, kind: k}
	}
}

// Bits returns the storage bits of v converted to kind k.
func (v Value) Bits(k Kind) uint64 {
	switch k {
	case KindF32:
		return uint64(math.Float32bits(float32(v.Float())))
	case KindF64:
		return math.Float64bits(v.Float())
	case KindBool:
		if v.Bool() {
			return 1
		}
		return 0
	default:
		if v.kind.IsFloat() {
			if k.IsSigned() {
				return uint64(int64(v.Float()))
			}
			return uint64(v.Float())
		}
		return v.bits
	}
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) IsVoid() bool {
	return v.kind == KindVoid
}

func (v Value) Int() int64 {
	if v.kind.IsFloat() {
		return int64(math.Float64frombits(v.bits))
	}
	return int64(v.bits)
}

func (v Value) Uint() uint64 {
	if v.kind.IsFloat() {
		return uint64(math.Float64frombits(v.bits))
	}
	return v.bits
}

func (v Value) Float() float64 {
	switch {
	case v.kind.IsFloat():
		return math.Float64frombits(v.bits)
	case v.kind.IsSigned():
		return float64(int64(v.bits))
	default:
		return float64(v.bits)
	}
}

func (v Value) Bool() bool {
	if v.kind.IsFloat() {
		return math.Float64frombits(v.bits) != 0
	}
	return v.bits != 0
}

func (v Value) Rune() rune {
	return rune(int32(v.bits))
}

// Add returns v + delta in v's kind; integers wrap.
func (v Value) Add(delta Value) Value {
	if v.kind.IsFloat() {
		return Float(v.kind, v.Float()+delta.Float())
	}
	return Value{bits: v.bits + delta.Bits(KindS64), kind: v.kind}
}

// Sub returns v - delta in v's kind; integers wrap.
func (v Value) Sub(delta Value) Value {
	if v.kind.IsFloat() {
		return Float(v.kind, v.Float()-delta.Float())
	}
	return Value{bits: v.bits - delta.Bits(KindS64), kind: v.kind}
}

func (v Value) String() string {
	switch v.kind {
	case KindVoid:
		return "void"
	case KindBool:
		return strconv.FormatBool(v.Bool())
	case KindChar:
		return strconv.QuoteRune(v.Rune())
	case KindF32:
		return strconv.FormatFloat(v.Float(), 'g', -1, 32)
	case KindF64:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64)
	case KindS8, KindS16, KindS32, KindS64:
		return strconv.FormatInt(v.Int(), 10)
	default:
		return strconv.FormatUint(v.bits, 10)
	}
}
