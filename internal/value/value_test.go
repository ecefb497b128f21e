package value

import (
	"errors"
	"math"
	"testing"
)

func TestBitwiseCoercion(t *testing.T) {
	tests := []struct {
		name string
		op   func(a, b Value) (Value, error)
		a, b Value
		want int64
	}{
		{"numeric strings and", BitAnd, Str("10"), Str("3"), 2},
		{"non-numeric string and", BitAnd, Str("abc"), Int(1), 0},
		{"leading numeric", BitAnd, Str("7 apples"), Int(3), 3},
		{"float truncates", BitOr, Float(4.9), Int(1), 5},
		{"bool", BitXor, Bool(true), Int(3), 2},
		{"null", BitOr, Null{}, Int(8), 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.op(tt.a, tt.b)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Kind() != KindInt || int64(got.(Int)) != tt.want {
				t.Errorf("got %s, want int %d", got.Inspect(), tt.want)
			}
		})
	}

	if _, err := BitAnd(NewArray(), Int(1)); !errors.Is(err, ErrUnsupportedOperand) {
		t.Errorf("array operand: err = %v", err)
	}
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name string
		op   func(a, b Value) (Value, error)
		a, b Value
		want Value
	}{
		{"int add", Add, Int(2), Int(3), Int(5)},
		{"add overflow", Add, Int(math.MaxInt64), Int(1), Float(math.Exp2(63))},
		{"string add", Add, Str("1.5"), Int(1), Float(2.5)},
		{"sub", Sub, Int(2), Int(5), Int(-3)},
		{"sub overflow", Sub, Int(math.MinInt64), Int(1), Float(-math.Exp2(63))},
		{"mul", Mul, Int(6), Int(7), Int(42)},
		{"mul overflow", Mul, Int(math.MaxInt64), Int(2), Float(math.Exp2(64))},
		{"exact div", Div, Int(6), Int(3), Int(2)},
		{"inexact div", Div, Int(7), Int(2), Float(3.5)},
		{"mod", Mod, Int(7), Int(3), Int(1)},
		{"negative mod", Mod, Int(-7), Int(3), Int(-1)},
		{"mod minus one", Mod, Int(math.MinInt64), Int(-1), Int(0)},
		{"int pow", Pow, Int(2), Int(10), Int(1024)},
		{"negative exponent", Pow, Int(2), Int(-1), Float(0.5)},
		{"pow overflow", Pow, Int(2), Int(64), Float(math.Exp2(64))},
		{"shl", Shl, Int(1), Int(3), Int(8)},
		{"shl wide", Shl, Int(1), Int(64), Int(0)},
		{"shr negative wide", Shr, Int(-8), Int(100), Int(-1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.op(tt.a, tt.b)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !StrictEquals(got, tt.want) {
				t.Errorf("got %s, want %s", got.Inspect(), tt.want.Inspect())
			}
		})
	}
}

func TestArithmeticErrors(t *testing.T) {
	tests := []struct {
		name string
		op   func(a, b Value) (Value, error)
		a, b Value
		want error
	}{
		{"div by zero", Div, Int(1), Int(0), ErrDivisionByZero},
		{"div by zero string", Div, Int(1), Str("0"), ErrDivisionByZero},
		{"div by zero float", Div, Int(1), Float(0), ErrDivisionByZero},
		{"mod by zero", Mod, Int(1), Null{}, ErrModuloByZero},
		{"array plus int", Add, NewArray(), Int(1), ErrUnsupportedOperand},
		{"int times array", Mul, Int(1), NewArray(), ErrUnsupportedOperand},
		{"negative shift", Shl, Int(1), Int(-1), ErrNegativeShift},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.op(tt.a, tt.b); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestArrayUnion(t *testing.T) {
	left := NewList(Str("a"))
	right := NewList(Str("b"), Str("c"))
	got, err := Add(left, right)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	arr := got.(Array)
	if arr.Size() != 2 || ToString(arr.Get(IntKey(0))) != "a" || ToString(arr.Get(IntKey(1))) != "c" {
		t.Errorf("union = %s", arr.Inspect())
	}
	if left.Size() != 1 {
		t.Errorf("left operand mutated")
	}
}

func TestParseNumericPrefix(t *testing.T) {
	tests := []struct {
		in   string
		want Value
		kind Numericness
	}{
		{"123", Int(123), Numeric},
		{" 12 ", Int(12), Numeric},
		{"-5", Int(-5), Numeric},
		{"12abc", Int(12), LeadingNumeric},
		{"abc", Int(0), NotNumeric},
		{"", Int(0), NotNumeric},
		{"-", Int(0), NotNumeric},
		{".5", Float(0.5), Numeric},
		{"1.", Float(1), Numeric},
		{"1.5e3", Float(1500), Numeric},
		{"1e", Int(1), LeadingNumeric},
		{"2E-2x", Float(0.02), LeadingNumeric},
		{"9223372036854775808", Float(9223372036854775808), Numeric},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, kind := ParseNumericPrefix(tt.in)
			if !StrictEquals(got, tt.want) || kind != tt.kind {
				t.Errorf("ParseNumericPrefix(%q) = %s, %d; want %s, %d", tt.in, got.Inspect(), kind, tt.want.Inspect(), tt.kind)
			}
		})
	}
}

func TestToBool(t *testing.T) {
	falsy := []Value{Null{}, Bool(false), Int(0), Float(0), Str(""), Str("0"), NewArray(), Unset}
	for _, v := range falsy {
		if ToBool(v) {
			t.Errorf("ToBool(%s) = true", v.Inspect())
		}
	}
	truthy := []Value{Bool(true), Int(-1), Float(0.1), Str("0.0"), Str(" "), NewList(Null{}), NewObject("stdClass")}
	for _, v := range truthy {
		if !ToBool(v) {
			t.Errorf("ToBool(%s) = false", v.Inspect())
		}
	}
}

func TestToString(t *testing.T) {
	tests := []struct {
		in   Value
		want string
	}{
		{Null{}, ""},
		{Bool(true), "1"},
		{Bool(false), ""},
		{Int(-42), "-42"},
		{Float(0.1 + 0.2), "0.3"},
		{Float(100), "100"},
		{Float(1.5), "1.5"},
		{Float(1e15), "1.0E+15"},
		{Float(0.00001), "1.0E-5"},
		{Float(-2.25), "-2.25"},
		{Float(math.Inf(1)), "INF"},
		{Float(math.NaN()), "NAN"},
		{NewArray(), "Array"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := ToString(tt.in); got != tt.want {
				t.Errorf("ToString(%s) = %q, want %q", tt.in.Inspect(), got, tt.want)
			}
		})
	}
}

func TestFormatFloatShortest(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0.1, "0.1"},
		{1.0 / 3.0, "0.3333333333333333"},
		{1e20, "1.0E+20"},
		{-0.0, "0"},
		{math.Copysign(0, -1), "-0"},
		{123456.0, "123456"},
	}
	for _, tt := range tests {
		if got := FormatFloat(tt.in, -1); got != tt.want {
			t.Errorf("FormatFloat(%v, -1) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToInt(t *testing.T) {
	tests := []struct {
		in   Value
		want int64
	}{
		{Str("12abc"), 12},
		{Str("abc"), 0},
		{Str("1e3"), 1000},
		{Float(-3.9), -3},
		{Float(math.NaN()), 0},
		{Bool(true), 1},
		{NewList(Int(1)), 1},
	}
	for _, tt := range tests {
		if got := ToInt(tt.in); got != tt.want {
			t.Errorf("ToInt(%s) = %d, want %d", tt.in.Inspect(), got, tt.want)
		}
	}
}

func TestLooseEquals(t *testing.T) {
	tests := []struct {
		a, b Value
		want bool
	}{
		{Null{}, Bool(false), true},
		{Null{}, Int(0), true},
		{Null{}, Str(""), true},
		{Null{}, NewArray(), true},
		{Null{}, Str("0"), false},
		{Null{}, NewList(Int(1)), false},
		{Int(0), Str("abc"), false},
		{Int(0), Str(""), false},
		{Str("1"), Str("01"), true},
		{Str("10"), Str("1e1"), true},
		{Int(100), Str("1e2"), true},
		{Str("abc"), Str("ABC"), false},
		{Float(1), Int(1), true},
		{Bool(true), Str("x"), true},
		{NewList(Int(1), Int(2)), NewList(Str("1"), Str("2")), true},
		{NewList(Int(1)), NewList(Int(2)), false},
	}
	for _, tt := range tests {
		if got := LooseEquals(tt.a, tt.b); got != tt.want {
			t.Errorf("LooseEquals(%s, %s) = %v, want %v", tt.a.Inspect(), tt.b.Inspect(), got, tt.want)
		}
	}
}

func TestStrictEquals(t *testing.T) {
	if StrictEquals(Int(1), Float(1)) {
		t.Errorf("1 === 1.0 must be false")
	}
	if !StrictEquals(Str("a"), Str("a")) {
		t.Errorf(`"a" === "a" must be true`)
	}
	a := NewArray()
	a.Put(StrKey("x"), Int(1))
	a.Put(StrKey("y"), Int(2))
	b := NewArray()
	b.Put(StrKey("y"), Int(2))
	b.Put(StrKey("x"), Int(1))
	if StrictEquals(a, b) {
		t.Errorf("arrays with different order must not be identical")
	}
	if !LooseEquals(a, b) {
		t.Errorf("arrays with same pairs must be loosely equal")
	}
	o := NewObject("stdClass")
	if StrictEquals(o, NewObject("stdClass")) || !StrictEquals(o, o) {
		t.Errorf("object identity comparison broken")
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b Value
		want int
	}{
		{Int(2), Int(10), -1},
		{Str("10"), Str("9"), 1},
		{Str("10"), Str("9a"), -1},
		{Str("abc"), Str("abd"), -1},
		{Float(1.5), Int(1), 1},
		{Null{}, Int(-1), -1},
		{NewList(Int(1)), Int(99), 1},
		{NewList(Int(1)), NewList(Int(1), Int(2)), -1},
		{Bool(false), Bool(true), -1},
	}
	for _, tt := range tests {
		if got := Compare(tt.a, tt.b); got != tt.want {
			t.Errorf("Compare(%s, %s) = %d, want %d", tt.a.Inspect(), tt.b.Inspect(), got, tt.want)
		}
	}
}

func TestSlotAliasing(t *testing.T) {
	s := NewSlot(Int(1))
	s.Retain()
	s.Retain()
	s.Set(Unset)
	if !IsNull(s.Get()) || s.Get().Kind() != KindNull {
		t.Errorf("Unset must be stored as Null, got %s", s.Get().Inspect())
	}
	if s.IsReference() {
		t.Errorf("unmarked slot reported as reference")
	}
	s.MarkReference()
	if !s.IsReference() {
		t.Errorf("marked shared slot not reported as reference")
	}
	s.Release()
	if s.IsReference() {
		t.Errorf("slot with one binder is not a reference entry")
	}
}

// selfReferencing builds the array left by $a = []; $a[0] = &$a;
func selfReferencing() *OrderedArray {
	arr := NewArray()
	s := NewSlot(arr)
	s.Retain()
	s.MarkReference()
	arr.PutSlot(IntKey(0), s)
	return arr
}

func nestedList(depth int) Value {
	var v Value = Int(1)
	for i := 0; i < depth; i++ {
		v = NewList(v)
	}
	return v
}

func TestSelfReferencingArrays(t *testing.T) {
	a, b := selfReferencing(), selfReferencing()
	checks := []struct {
		name string
		run  func() error
	}{
		{"loose", func() error { _, err := LooseEqualsChecked(a, b); return err }},
		{"strict", func() error { _, err := StrictEqualsChecked(a, b); return err }},
		{"compare", func() error { _, err := CompareChecked(a, b); return err }},
		{"too deep", func() error { _, err := LooseEqualsChecked(nestedList(MaxNestingDepth+1), nestedList(MaxNestingDepth+1)); return err }},
	}
	for _, tt := range checks {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !errors.Is(err, ErrNestingTooDeep) {
				t.Errorf("error = %v, want ErrNestingTooDeep", err)
			}
		})
	}

	t.Run("unchecked terminate", func(t *testing.T) {
		if LooseEquals(a, b) || StrictEquals(a, b) {
			t.Error("cyclic arrays reported equal")
		}
		_ = Compare(a, b)
	})

	t.Run("same array", func(t *testing.T) {
		eq, err := StrictEqualsChecked(a, a)
		if err != nil || !eq {
			t.Errorf("StrictEqualsChecked(a, a) = %v, %v", eq, err)
		}
	})

	t.Run("deep acyclic", func(t *testing.T) {
		eq, err := LooseEqualsChecked(nestedList(MaxNestingDepth-1), nestedList(MaxNestingDepth-1))
		if err != nil || !eq {
			t.Errorf("LooseEqualsChecked = %v, %v", eq, err)
		}
	})

	t.Run("inspect", func(t *testing.T) {
		if got := a.Inspect(); got != "[0 => *RECURSION*]" {
			t.Errorf("Inspect = %q", got)
		}
	})
}
