package schema

import (
	"math"
	"testing"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		name string
		want Kind
	}{
		{"bool", KindBool},
		{"u8", KindU8},
		{"s8", KindS8},
		{"u16", KindU16},
		{"s16", KindS16},
		{"u32", KindU32},
		{"s32", KindS32},
		{"u64", KindU64},
		{"s64", KindS64},
		{"f32", KindF32},
		{"f64", KindF64},
		{"char", KindChar},
		{"string", KindString},
		{"record", KindRecord},
		{"void", KindVoid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseKind(tt.name)
			if err != nil {
				t.Fatalf("ParseKind(%q): %v", tt.name, err)
			}
			if got != tt.want {
				t.Errorf("ParseKind(%q) = %v, want %v", tt.name, got, tt.want)
			}
			if got.String() != tt.name {
				t.Errorf("String() = %q, want %q", got.String(), tt.name)
			}
		})
	}

	if _, err := ParseKind("point"); err == nil {
		t.Error("expected error for a non-primitive name")
	}
}

func TestKindWidth(t *testing.T) {
	tests := []struct {
		kind Kind
		want uint64
	}{
		{KindBool, 1}, {KindU8, 1}, {KindS8, 1},
		{KindU16, 2}, {KindS16, 2},
		{KindU32, 4}, {KindS32, 4}, {KindF32, 4}, {KindChar, 4},
		{KindU64, 8}, {KindS64, 8}, {KindF64, 8},
		{KindString, 0}, {KindRecord, 0}, {KindVoid, 0},
	}
	for _, tt := range tests {
		if got := tt.kind.Width(); got != tt.want {
			t.Errorf("%v.Width() = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestKindClasses(t *testing.T) {
	if KindBool.IsNumeric() || KindChar.IsNumeric() || KindRecord.IsNumeric() {
		t.Error("bool, char and record must not be numeric")
	}
	if !KindU8.IsNumeric() || !KindF64.IsNumeric() {
		t.Error("integers and floats must be numeric")
	}
	if KindString.IsPrimitive() || KindRecord.IsPrimitive() {
		t.Error("string and record must not be primitive")
	}
}

func TestValueConversions(t *testing.T) {
	t.Run("sign extension", func(t *testing.T) {
		if got := FromBits(KindS8, 0xFF).Int(); got != -1 {
			t.Errorf("s8 0xff = %d, want -1", got)
		}
		if got := FromBits(KindS16, 0x8000).Int(); got != math.MinInt16 {
			t.Errorf("s16 0x8000 = %d, want %d", got, math.MinInt16)
		}
		if got := FromBits(KindS32, 0xFFFFFFFE).Int(); got != -2 {
			t.Errorf("s32 0xfffffffe = %d, want -2", got)
		}
		if got := FromBits(KindU8, 0xFF).Uint(); got != 255 {
			t.Errorf("u8 0xff = %d, want 255", got)
		}
	})

	t.Run("floats", func(t *testing.T) {
		v := ValueOf(float32(1.5))
		bits := v.Bits(KindF32)
		if got := FromBits(KindF32, bits).Float(); got != 1.5 {
			t.Errorf("f32 = %v, want 1.5", got)
		}
		if got := ValueOf(2.25).Bits(KindF64); got != math.Float64bits(2.25) {
			t.Errorf("f64 bits = %#x", got)
		}
	})

	t.Run("cross kind", func(t *testing.T) {
		if got := ValueOf(7).Bits(KindF64); math.Float64frombits(got) != 7 {
			t.Errorf("int as f64 = %v, want 7", math.Float64frombits(got))
		}
		if got := ValueOf(3.9).Bits(KindS32); got != 3 {
			t.Errorf("float as s32 = %d, want 3", got)
		}
		if got := ValueOf(int32(-3)).Bits(KindS32); uint32(got) != 0xFFFFFFFD {
			t.Errorf("s32 bits = %#x", got)
		}
	})

	t.Run("arithmetic", func(t *testing.T) {
		if got := ValueOf(int32(5)).Add(ValueOf(int32(-7))).Int(); got != -2 {
			t.Errorf("5 + -7 = %d", got)
		}
		if got := ValueOf(1.5).Sub(ValueOf(0.25)).Float(); got != 1.25 {
			t.Errorf("1.5 - 0.25 = %v", got)
		}
	})

	t.Run("strings", func(t *testing.T) {
		tests := []struct {
			v    Value
			want string
		}{
			{Bool(true), "true"},
			{Char('é'), "'é'"},
			{ValueOf(int16(-12)), "-12"},
			{ValueOf(uint64(math.MaxUint64)), "18446744073709551615"},
			{ValueOf(0.5), "0.5"},
			{Value{}, "void"},
		}
		for _, tt := range tests {
			if got := tt.v.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		}
	})
}

func TestParseAction(t *testing.T) {
	for _, a := range Actions() {
		got, ok := ParseAction(a.String())
		if !ok || got != a {
			t.Errorf("ParseAction(%q) = %v, %v", a.String(), got, ok)
		}
	}
	if _, ok := ParseAction("unknown"); ok {
		t.Error("unknown must not parse")
	}
	if !GetValueAt.IsIndexed() || GetValue.IsIndexed() {
		t.Error("IsIndexed mismatch")
	}
	if Copy.NeedsField() || !SetValue.NeedsField() {
		t.Error("NeedsField mismatch")
	}
}
