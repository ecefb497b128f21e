package value

import (
	"errors"
	"strings"
)

// MaxNestingDepth bounds how deep comparison and serialization descend
// into nested arrays. Arrays that contain themselves through a reference
// reach it instead of recursing forever.
const MaxNestingDepth = 64

// ErrNestingTooDeep is returned when MaxNestingDepth is exceeded.
var ErrNestingTooDeep = errors.New("nesting level too deep - recursive dependency?")

// LooseEquals implements "==" with type juggling. Structures nested past
// MaxNestingDepth compare unequal; use LooseEqualsChecked to see why.
func LooseEquals(a, b Value) bool {
	eq, _ := looseEquals(a, b, 0)
	return eq
}

// LooseEqualsChecked is LooseEquals reporting ErrNestingTooDeep.
func LooseEqualsChecked(a, b Value) (bool, error) {
	return looseEquals(a, b, 0)
}

func looseEquals(a, b Value, depth int) (bool, error) {
	a, b = OrNull(a), OrNull(b)
	if la, ok := a.(Array); ok {
		if lb, ok := b.(Array); ok {
			return arraysLooseEqual(la, lb, depth)
		}
	}
	c, err := compare(a, b, depth)
	return c == 0, err
}

func arraysLooseEqual(a, b Array, depth int) (bool, error) {
	if a == b {
		return true, nil
	}
	if depth >= MaxNestingDepth {
		return false, ErrNestingTooDeep
	}
	if a.Size() != b.Size() {
		return false, nil
	}
	for k, v := range a.Iter() {
		w := b.Get(k)
		if IsUnset(w) {
			return false, nil
		}
		eq, err := looseEquals(v, w, depth+1)
		if err != nil || !eq {
			return false, err
		}
	}
	return true, nil
}

// StrictEquals implements "===": same variant and same value; arrays
// must hold identical pairs in the same order; objects must be the same
// handle.
func StrictEquals(a, b Value) bool {
	eq, _ := strictEquals(a, b, 0)
	return eq
}

// StrictEqualsChecked is StrictEquals reporting ErrNestingTooDeep.
func StrictEqualsChecked(a, b Value) (bool, error) {
	return strictEquals(a, b, 0)
}

func strictEquals(a, b Value, depth int) (bool, error) {
	a, b = OrNull(a), OrNull(b)
	if a.Kind() != b.Kind() {
		return false, nil
	}
	switch x := a.(type) {
	case Null:
		return true, nil
	case Bool:
		return x == b.(Bool), nil
	case Int:
		return x == b.(Int), nil
	case Float:
		return x == b.(Float), nil
	case String:
		return x.Value == b.(String).Value, nil
	case Array:
		y := b.(Array)
		if x == y {
			return true, nil
		}
		if depth >= MaxNestingDepth {
			return false, ErrNestingTooDeep
		}
		if x.Size() != y.Size() {
			return false, nil
		}
		ea, eb := x.Entries(), y.Entries()
		for i := range ea {
			if ea[i].Key != eb[i].Key {
				return false, nil
			}
			eq, err := strictEquals(ea[i].Value, eb[i].Value, depth+1)
			if err != nil || !eq {
				return false, err
			}
		}
		return true, nil
	default:
		return a == b, nil
	}
}

// Compare implements the loose ordering behind <, <=, >, >= and <=>.
// It returns -1, 0 or 1; structures nested past MaxNestingDepth order
// as equal. Use CompareChecked to see the error.
func Compare(a, b Value) int {
	c, _ := compare(a, b, 0)
	return c
}

// CompareChecked is Compare reporting ErrNestingTooDeep.
func CompareChecked(a, b Value) (int, error) {
	return compare(a, b, 0)
}

func compare(a, b Value, depth int) (int, error) {
	a, b = OrNull(a), OrNull(b)
	ka, kb := a.Kind(), b.Kind()

	switch {
	case ka == KindNull && kb == KindNull:
		return 0, nil
	case ka == KindBool || kb == KindBool || ka == KindNull && kb != KindString || kb == KindNull && ka != KindString:
		return compareBool(ToBool(a), ToBool(b)), nil
	case ka == KindNull:
		return compareStrings("", b.(String).Value), nil
	case kb == KindNull:
		return compareStrings(a.(String).Value, ""), nil
	}

	if ka == KindArray || kb == KindArray {
		la, lok := a.(Array)
		lb, rok := b.(Array)
		switch {
		case lok && rok:
			return compareArrays(la, lb, depth)
		case lok:
			return 1, nil
		default:
			return -1, nil
		}
	}
	if ka == KindObject || kb == KindObject {
		if a == b {
			return 0, nil
		}
		if ka == KindObject && kb == KindObject {
			return compareArrays(a.(*Object).Props, b.(*Object).Props, depth)
		}
		if ka == KindObject {
			return 1, nil
		}
		return -1, nil
	}

	if ka == KindString && kb == KindString {
		sa, sb := a.(String).Value, b.(String).Value
		na, kindA := ParseNumericPrefix(sa)
		nb, kindB := ParseNumericPrefix(sb)
		if kindA == Numeric && kindB == Numeric {
			return compareNumbers(na, nb), nil
		}
		return compareStrings(sa, sb), nil
	}

	na, aNum := numericOperand(a)
	nb, bNum := numericOperand(b)
	if aNum && bNum {
		return compareNumbers(na, nb), nil
	}
	return compareStrings(ToString(a), ToString(b)), nil
}

// numericOperand returns the number behind Int, Float, Resource and fully
// numeric strings.
func numericOperand(v Value) (Value, bool) {
	switch x := v.(type) {
	case Int, Float:
		return x, true
	case *Resource:
		return Int(x.ID), true
	case String:
		n, kind := ParseNumericPrefix(x.Value)
		return n, kind == Numeric
	}
	return nil, false
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return 1
	default:
		return -1
	}
}

func compareNumbers(a, b Value) int {
	ai, aInt := a.(Int)
	bi, bInt := b.(Int)
	if aInt && bInt {
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		}
		return 0
	}
	x, y := asFloat(a), asFloat(b)
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

func compareStrings(a, b string) int {
	c := strings.Compare(a, b)
	switch {
	case c < 0:
		return -1
	case c > 0:
		return 1
	}
	return 0
}

// compareArrays orders by size first, then by the values of a's keys.
// Arrays whose keys differ are uncomparable and order as 1.
func compareArrays(a, b Array, depth int) (int, error) {
	if a == b {
		return 0, nil
	}
	if depth >= MaxNestingDepth {
		return 0, ErrNestingTooDeep
	}
	if c := compareNumbers(Int(a.Size()), Int(b.Size())); c != 0 {
		return c, nil
	}
	for k, v := range a.Iter() {
		w := b.Get(k)
		if IsUnset(w) {
			return 1, nil
		}
		c, err := compare(v, w, depth+1)
		if err != nil || c != 0 {
			return c, err
		}
	}
	return 0, nil
}
