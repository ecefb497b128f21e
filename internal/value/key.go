package value

import (
	"errors"
	"math"
	"strconv"
)

// ErrIllegalOffset is returned when an array or object is used as a key.
var ErrIllegalOffset = errors.New("illegal offset type")

// Key is a normalized array key: either an integer or a string that is
// not the canonical decimal form of an integer.
type Key struct {
	str   string
	num   int64
	isStr bool
}

// IntKey builds an integer key.
func IntKey(i int64) Key { return Key{num: i} }

// StrKey builds a key from a string, normalizing canonical decimal
// integers ("10", "-3", "0") to integer keys. "010", "+1", "-0" and
// out-of-range digit strings stay string keys.
func StrKey(s string) Key {
	if n, ok := canonicalInt(s); ok {
		return Key{num: n}
	}
	return Key{str: s, isStr: true}
}

// KeyFromValue normalizes any scalar to a key: Null is "", booleans are
// 0/1, floats truncate toward zero.
func KeyFromValue(v Value) (Key, error) {
	switch x := OrNull(v).(type) {
	case Null:
		return Key{isStr: true}, nil
	case Bool:
		if x {
			return IntKey(1), nil
		}
		return IntKey(0), nil
	case Int:
		return IntKey(int64(x)), nil
	case Float:
		return IntKey(floatToInt(float64(x))), nil
	case String:
		return StrKey(x.Value), nil
	case *Resource:
		return IntKey(x.ID), nil
	default:
		return Key{}, ErrIllegalOffset
	}
}

func (k Key) IsInt() bool { return !k.isStr }
func (k Key) Int() int64  { return k.num }

// String renders the key the way it is seen by string contexts.
func (k Key) String() string {
	if k.isStr {
		return k.str
	}
	return strconv.FormatInt(k.num, 10)
}

// Value returns the key as an Int or String value.
func (k Key) Value() Value {
	if k.isStr {
		return Str(k.str)
	}
	return Int(k.num)
}

func (k Key) Inspect() string {
	if k.isStr {
		return strconv.Quote(k.str)
	}
	return strconv.FormatInt(k.num, 10)
}

func canonicalInt(s string) (int64, bool) {
	if s == "" || len(s) > 20 {
		return 0, false
	}
	i := 0
	if s[0] == '-' {
		i = 1
		if len(s) == 1 {
			return 0, false
		}
	}
	if s[i] == '0' && (len(s) > i+1 || i == 1) {
		return 0, false
	}
	for j := i; j < len(s); j++ {
		if s[j] < '0' || s[j] > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func floatToInt(f float64) int64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0
	}
	return int64(f)
}
