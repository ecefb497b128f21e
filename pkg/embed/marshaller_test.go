package funphp

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/funvibe/funphp/internal/value"
)

type point struct {
	X, Y   int
	Label  string
	hidden bool
}

func TestToValue(t *testing.T) {
	m := NewMarshaller()
	tests := []struct {
		name string
		in   interface{}
		want string
	}{
		{"nil", nil, "NULL"},
		{"int", int8(-3), "-3"},
		{"uint", uint16(7), "7"},
		{"float", float32(0.5), "0.5"},
		{"bytes", []byte("ab"), `"ab"`},
		{"nil slice", []int(nil), "NULL"},
		{"map sorted", map[string]int{"b": 2, "a": 1}, `["a" => 1, "b" => 2]`},
		{"int keys sorted", map[int]string{10: "x", 2: "y"}, `[2 => "y", 10 => "x"]`},
		{"struct", point{X: 1, Y: 2, Label: "p"}, `["X" => 1, "Y" => 2, "Label" => "p"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.ToValue(tt.in)
			if err != nil {
				t.Fatalf("ToValue: %v", err)
			}
			if got.Inspect() != tt.want {
				t.Errorf("ToValue = %s, want %s", got.Inspect(), tt.want)
			}
		})
	}
}

func TestToValueRejects(t *testing.T) {
	m := NewMarshaller()
	for name, in := range map[string]interface{}{
		"func":     func() {},
		"overflow": uint64(math.MaxUint64),
		"complex":  complex(1, 2),
	} {
		if _, err := m.ToValue(in); err == nil {
			t.Errorf("%s: ToValue accepted %T", name, in)
		}
	}
}

func TestToValueSelfReference(t *testing.T) {
	m := NewMarshaller()
	list := []interface{}{nil}
	list[0] = list
	nested := map[string]interface{}{}
	nested["self"] = nested
	for name, in := range map[string]interface{}{"slice": list, "map": nested} {
		t.Run(name, func(t *testing.T) {
			if _, err := m.ToValue(in); !errors.Is(err, value.ErrNestingTooDeep) {
				t.Errorf("ToValue = %v, want ErrNestingTooDeep", err)
			}
		})
	}
}

func TestFromValueTargets(t *testing.T) {
	m := NewMarshaller()
	arr := value.NewArray()
	arr.Put(value.StrKey("X"), value.Int(3))
	arr.Put(value.StrKey("Label"), value.Str("q"))

	got, err := m.FromValue(arr, reflect.TypeOf(point{}))
	if err != nil {
		t.Fatalf("FromValue struct: %v", err)
	}
	if p := got.(point); p.X != 3 || p.Y != 0 || p.Label != "q" {
		t.Errorf("struct = %+v", p)
	}

	list := value.NewList(value.Int(1), value.Float(2.5))
	floats, err := m.FromValue(list, reflect.TypeOf([]float64(nil)))
	if err != nil {
		t.Fatalf("FromValue slice: %v", err)
	}
	if !reflect.DeepEqual(floats, []float64{1, 2.5}) {
		t.Errorf("slice = %#v", floats)
	}

	byName, err := m.FromValue(list, reflect.TypeOf(map[string]int64(nil)))
	if err != nil {
		t.Fatalf("FromValue map: %v", err)
	}
	if !reflect.DeepEqual(byName, map[string]int64{"0": 1, "1": 2}) {
		t.Errorf("map = %#v", byName)
	}

	obj := value.NewObject("Point")
	obj.Props.Put(value.StrKey("Y"), value.Int(9))
	got, err = m.FromValue(obj, reflect.TypeOf(point{}))
	if err != nil || got.(point).Y != 9 {
		t.Errorf("object to struct = %v, %v", got, err)
	}

	p := &point{X: 1}
	res, _ := m.ToValue(p)
	back, err := m.FromValue(res, reflect.TypeOf(p))
	if err != nil || back.(*point) != p {
		t.Errorf("resource round trip = %v, %v", back, err)
	}

	bytes, err := m.FromValue(value.Str("hi"), reflect.TypeOf([]byte(nil)))
	if err != nil || string(bytes.([]byte)) != "hi" {
		t.Errorf("bytes = %v, %v", bytes, err)
	}
}
