package value

import (
	"math"
	"strconv"
	"strings"
)

// Numericness classifies a string for arithmetic and comparison.
type Numericness int

const (
	// NotNumeric strings have no numeric prefix and coerce to 0.
	NotNumeric Numericness = iota
	// LeadingNumeric strings start with a number followed by other text.
	LeadingNumeric
	// Numeric strings are a number, optionally surrounded by whitespace.
	Numeric
)

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// ParseNumericPrefix parses the longest numeric prefix of s: optional
// leading whitespace, sign, digits, fraction and exponent. Integer
// prefixes that overflow int64 become floats. Without a numeric prefix the
// result is Int(0) and NotNumeric.
func ParseNumericPrefix(s string) (Value, Numericness) {
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	start := i
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	intDigits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		intDigits++
	}
	isFloat := false
	fracDigits := 0
	if i < len(s) && s[i] == '.' {
		j := i + 1
		for j < len(s) && isDigit(s[j]) {
			j++
			fracDigits++
		}
		if intDigits > 0 || fracDigits > 0 {
			isFloat = true
			i = j
		}
	}
	if intDigits == 0 && fracDigits == 0 {
		return Int(0), NotNumeric
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if j < len(s) && isDigit(s[j]) {
			for j < len(s) && isDigit(s[j]) {
				j++
			}
			isFloat = true
			i = j
		}
	}
	text := s[start:i]
	rest := i
	for rest < len(s) && isSpace(s[rest]) {
		rest++
	}
	kind := LeadingNumeric
	if rest == len(s) {
		kind = Numeric
	}
	if !isFloat {
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return Int(n), kind
		}
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil && !math.IsInf(f, 0) {
		return Int(0), NotNumeric
	}
	return Float(f), kind
}

// NumericnessOf classifies a string.
func NumericnessOf(s string) Numericness {
	_, kind := ParseNumericPrefix(s)
	return kind
}

// IsNumeric reports whether v is an Int, a Float, or a fully numeric string.
func IsNumeric(v Value) bool {
	switch x := v.(type) {
	case Int, Float:
		return true
	case String:
		return NumericnessOf(x.Value) == Numeric
	}
	return false
}

// ToBool applies truthiness: Null, false, 0, 0.0, "", "0" and the empty
// array are false.
func ToBool(v Value) bool {
	switch x := OrNull(v).(type) {
	case Null:
		return false
	case Bool:
		return bool(x)
	case Int:
		return x != 0
	case Float:
		return x != 0
	case String:
		return x.Value != "" && x.Value != "0"
	case Array:
		return x.Size() != 0
	default:
		return true
	}
}

// ToInt converts leniently: floats truncate, strings use their numeric
// prefix, arrays are 0 when empty and 1 otherwise.
func ToInt(v Value) int64 {
	switch x := OrNull(v).(type) {
	case Null:
		return 0
	case Bool:
		if x {
			return 1
		}
		return 0
	case Int:
		return int64(x)
	case Float:
		return floatToInt(float64(x))
	case String:
		n, _ := ParseNumericPrefix(x.Value)
		if f, ok := n.(Float); ok {
			return floatToInt(float64(f))
		}
		return int64(n.(Int))
	case Array:
		if x.Size() == 0 {
			return 0
		}
		return 1
	case *Resource:
		return x.ID
	default:
		return 1
	}
}

// ToFloat converts leniently, mirroring ToInt.
func ToFloat(v Value) float64 {
	switch x := OrNull(v).(type) {
	case Float:
		return float64(x)
	case String:
		n, _ := ParseNumericPrefix(x.Value)
		if f, ok := n.(Float); ok {
			return float64(f)
		}
		return float64(n.(Int))
	default:
		return float64(ToInt(v))
	}
}

// ToString renders v for string contexts (echo, concatenation).
func ToString(v Value) string {
	switch x := OrNull(v).(type) {
	case Null:
		return ""
	case Bool:
		if x {
			return "1"
		}
		return ""
	case Int:
		return strconv.FormatInt(int64(x), 10)
	case Float:
		return FormatFloat(float64(x), 14)
	case String:
		return x.Value
	case Array:
		return "Array"
	case *Object:
		return x.Class
	case *Resource:
		return "Resource id #" + strconv.FormatInt(x.ID, 10)
	default:
		return ""
	}
}

// FormatFloat renders f with the given number of significant digits,
// switching to exponent notation the way the runtime's printf %G does.
// precision < 0 selects the shortest round-tripping form.
func FormatFloat(f float64, precision int) string {
	switch {
	case math.IsNaN(f):
		return "NAN"
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	case f == 0:
		if math.Signbit(f) {
			return "-0"
		}
		return "0"
	}
	ndigit := precision
	var s string
	if precision < 0 {
		s = strconv.FormatFloat(f, 'e', -1, 64)
		ndigit = 17
	} else {
		s = strconv.FormatFloat(f, 'e', precision-1, 64)
	}
	neg := false
	if s[0] == '-' {
		neg = true
		s = s[1:]
	}
	e := strings.IndexByte(s, 'e')
	mant, expText := s[:e], s[e+1:]
	exp, _ := strconv.Atoi(expText)
	digits := strings.TrimRight(strings.Replace(mant, ".", "", 1), "0")
	if digits == "" {
		digits = "0"
	}

	var out string
	switch {
	case exp < -4 || exp >= ndigit:
		out = digits[:1] + "."
		if len(digits) > 1 {
			out += digits[1:]
		} else {
			out += "0"
		}
		if exp < 0 {
			out += "E-" + strconv.Itoa(-exp)
		} else {
			out += "E+" + strconv.Itoa(exp)
		}
	case exp < 0:
		out = "0." + strings.Repeat("0", -exp-1) + digits
	case len(digits) <= exp+1:
		out = digits + strings.Repeat("0", exp+1-len(digits))
	default:
		out = digits[:exp+1] + "." + digits[exp+1:]
	}
	if neg {
		return "-" + out
	}
	return out
}
