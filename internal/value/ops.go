package value

import (
	"errors"
	"math"
	"math/bits"
)

var (
	// ErrDivisionByZero is returned by Div and Mod.
	ErrDivisionByZero = errors.New("division by zero")
	// ErrModuloByZero is returned by Mod.
	ErrModuloByZero = errors.New("modulo by zero")
	// ErrUnsupportedOperand is returned when an array or object meets an
	// arithmetic operator.
	ErrUnsupportedOperand = errors.New("unsupported operand types")
	// ErrNegativeShift is returned by Shl/Shr with a negative count.
	ErrNegativeShift = errors.New("bit shift by negative number")
)

// ToNumber coerces v to Int or Float for arithmetic. Arrays and objects
// are not number-convertible.
func ToNumber(v Value) (Value, error) {
	switch x := OrNull(v).(type) {
	case Null:
		return Int(0), nil
	case Bool:
		if x {
			return Int(1), nil
		}
		return Int(0), nil
	case Int, Float:
		return x, nil
	case String:
		n, _ := ParseNumericPrefix(x.Value)
		return n, nil
	case *Resource:
		return Int(x.ID), nil
	default:
		return nil, ErrUnsupportedOperand
	}
}

// ToIntOperand coerces v to an integer for bitwise and modulo operators.
func ToIntOperand(v Value) (int64, error) {
	n, err := ToNumber(v)
	if err != nil {
		return 0, err
	}
	if f, ok := n.(Float); ok {
		return floatToInt(float64(f)), nil
	}
	return int64(n.(Int)), nil
}

func numbers(a, b Value) (Value, Value, error) {
	x, err := ToNumber(a)
	if err != nil {
		return nil, nil, err
	}
	y, err := ToNumber(b)
	if err != nil {
		return nil, nil, err
	}
	return x, y, nil
}

func asFloat(v Value) float64 {
	if f, ok := v.(Float); ok {
		return float64(f)
	}
	return float64(v.(Int))
}

// Add implements "+": numeric addition with overflow promotion to float,
// or key-preserving union when both operands are arrays.
func Add(a, b Value) (Value, error) {
	la, lok := a.(Array)
	rb, rok := b.(Array)
	if lok && rok {
		return union(la, rb), nil
	}
	x, y, err := numbers(a, b)
	if err != nil {
		return nil, err
	}
	xi, xInt := x.(Int)
	yi, yInt := y.(Int)
	if xInt && yInt {
		sum := xi + yi
		if (xi > 0 && yi > 0 && sum < 0) || (xi < 0 && yi < 0 && sum >= 0) {
			return Float(float64(xi) + float64(yi)), nil
		}
		return sum, nil
	}
	return Float(asFloat(x) + asFloat(y)), nil
}

func union(a, b Array) Value {
	out := a.Copy()
	for k, v := range b.Iter() {
		if !out.ContainsKey(k) {
			out = out.Put(k, CopyOnAssign(v))
		}
	}
	return out
}

func Sub(a, b Value) (Value, error) {
	x, y, err := numbers(a, b)
	if err != nil {
		return nil, err
	}
	xi, xInt := x.(Int)
	yi, yInt := y.(Int)
	if xInt && yInt {
		diff := xi - yi
		if (xi >= 0 && yi < 0 && diff < 0) || (xi < 0 && yi > 0 && diff >= 0) {
			return Float(float64(xi) - float64(yi)), nil
		}
		return diff, nil
	}
	return Float(asFloat(x) - asFloat(y)), nil
}

func Mul(a, b Value) (Value, error) {
	x, y, err := numbers(a, b)
	if err != nil {
		return nil, err
	}
	xi, xInt := x.(Int)
	yi, yInt := y.(Int)
	if xInt && yInt {
		if p, ok := mulInt(int64(xi), int64(yi)); ok {
			return Int(p), nil
		}
		return Float(float64(xi) * float64(yi)), nil
	}
	return Float(asFloat(x) * asFloat(y)), nil
}

func mulInt(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	neg := (a < 0) != (b < 0)
	ua, ub := absU(a), absU(b)
	hi, lo := bits.Mul64(ua, ub)
	if hi != 0 {
		return 0, false
	}
	if neg {
		if lo > 1<<63 {
			return 0, false
		}
		return int64(-lo), true
	}
	if lo > math.MaxInt64 {
		return 0, false
	}
	return int64(lo), true
}

func absU(n int64) uint64 {
	if n < 0 {
		return uint64(-n)
	}
	return uint64(n)
}

// Div implements "/". Integer operands that divide exactly stay integers.
func Div(a, b Value) (Value, error) {
	x, y, err := numbers(a, b)
	if err != nil {
		return nil, err
	}
	if asFloat(y) == 0 {
		return nil, ErrDivisionByZero
	}
	xi, xInt := x.(Int)
	yi, yInt := y.(Int)
	if xInt && yInt && !(xi == math.MinInt64 && yi == -1) && xi%yi == 0 {
		return xi / yi, nil
	}
	return Float(asFloat(x) / asFloat(y)), nil
}

// Mod implements "%" on integer-coerced operands.
func Mod(a, b Value) (Value, error) {
	x, err := ToIntOperand(a)
	if err != nil {
		return nil, err
	}
	y, err := ToIntOperand(b)
	if err != nil {
		return nil, err
	}
	if y == 0 {
		return nil, ErrModuloByZero
	}
	if y == -1 {
		return Int(0), nil
	}
	return Int(x % y), nil
}

// Pow implements "**".
func Pow(a, b Value) (Value, error) {
	x, y, err := numbers(a, b)
	if err != nil {
		return nil, err
	}
	xi, xInt := x.(Int)
	yi, yInt := y.(Int)
	if xInt && yInt && yi >= 0 {
		result := int64(1)
		base := int64(xi)
		exp := int64(yi)
		ok := true
		for exp > 0 && ok {
			if exp&1 == 1 {
				result, ok = mulInt(result, base)
			}
			exp >>= 1
			if exp > 0 && ok {
				base, ok = mulInt(base, base)
			}
		}
		if ok {
			return Int(result), nil
		}
	}
	return Float(math.Pow(asFloat(x), asFloat(y))), nil
}

// Neg implements unary minus.
func Neg(a Value) (Value, error) {
	n, err := ToNumber(a)
	if err != nil {
		return nil, err
	}
	if i, ok := n.(Int); ok {
		if i == math.MinInt64 {
			return Float(-float64(i)), nil
		}
		return -i, nil
	}
	return -n.(Float), nil
}

// Plus implements unary plus (numeric coercion).
func Plus(a Value) (Value, error) { return ToNumber(a) }

func bitwise(a, b Value, op func(x, y int64) int64) (Value, error) {
	x, err := ToIntOperand(a)
	if err != nil {
		return nil, err
	}
	y, err := ToIntOperand(b)
	if err != nil {
		return nil, err
	}
	return Int(op(x, y)), nil
}

// BitAnd coerces both operands to Int and returns their bitwise AND.
func BitAnd(a, b Value) (Value, error) {
	return bitwise(a, b, func(x, y int64) int64 { return x & y })
}

func BitOr(a, b Value) (Value, error) {
	return bitwise(a, b, func(x, y int64) int64 { return x | y })
}

func BitXor(a, b Value) (Value, error) {
	return bitwise(a, b, func(x, y int64) int64 { return x ^ y })
}

func BitNot(a Value) (Value, error) {
	x, err := ToIntOperand(a)
	if err != nil {
		return nil, err
	}
	return Int(^x), nil
}

func Shl(a, b Value) (Value, error) {
	x, err := ToIntOperand(a)
	if err != nil {
		return nil, err
	}
	y, err := ToIntOperand(b)
	if err != nil {
		return nil, err
	}
	switch {
	case y < 0:
		return nil, ErrNegativeShift
	case y >= 64:
		return Int(0), nil
	}
	return Int(x << uint(y)), nil
}

func Shr(a, b Value) (Value, error) {
	x, err := ToIntOperand(a)
	if err != nil {
		return nil, err
	}
	y, err := ToIntOperand(b)
	if err != nil {
		return nil, err
	}
	switch {
	case y < 0:
		return nil, ErrNegativeShift
	case y >= 64:
		if x < 0 {
			return Int(-1), nil
		}
		return Int(0), nil
	}
	return Int(x >> uint(y)), nil
}

// Concat implements ".".
func Concat(a, b Value) Value {
	return Str(ToString(a) + ToString(b))
}
