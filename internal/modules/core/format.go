package core

import (
	"math"
	"strconv"
	"strings"

	"github.com/funvibe/funphp/internal/diagnostics"
	"github.com/funvibe/funphp/internal/evaluator"
	"github.com/funvibe/funphp/internal/value"
)

const formatFlags = "-+ 0'"

func isAllowedFormatVerb(verb byte) bool {
	switch verb {
	case 'b', 'c', 'd', 'e', 'E', 'f', 'F', 'g', 'G', 'o', 's', 'u', 'x', 'X':
		return true
	default:
		return false
	}
}

// formatSpec is one parsed conversion: %[argnum$][flags][width][.precision]verb
type formatSpec struct {
	argnum    int
	left      bool
	plus      bool
	pad       byte
	width     int
	precision int
	verb      byte
}

// parseFormatSpec scans the conversion starting after '%' at fmtStr[i:].
// It returns the spec and the index of the verb.
func parseFormatSpec(fmtStr string, i int) (formatSpec, int, error) {
	spec := formatSpec{pad: ' ', precision: -1}
	j := i
	for j < len(fmtStr) && fmtStr[j] >= '0' && fmtStr[j] <= '9' {
		j++
	}
	if j > i && j < len(fmtStr) && fmtStr[j] == '$' {
		n, _ := strconv.Atoi(fmtStr[i:j])
		if n == 0 {
			return spec, 0, errArgnumZero
		}
		spec.argnum = n
		i = j + 1
	}
	j = i
	for j < len(fmtStr) && strings.IndexByte(formatFlags, fmtStr[j]) >= 0 {
		switch fmtStr[j] {
		case '-':
			spec.left = true
		case '+':
			spec.plus = true
		case '0':
			spec.pad = '0'
		case ' ':
			spec.pad = ' '
		case '\'':
			if j+1 >= len(fmtStr) {
				return spec, 0, errUnterminated
			}
			j++
			spec.pad = fmtStr[j]
		}
		j++
	}
	start := j
	for j < len(fmtStr) && fmtStr[j] >= '0' && fmtStr[j] <= '9' {
		j++
	}
	spec.width, _ = strconv.Atoi(fmtStr[start:j])
	if j < len(fmtStr) && fmtStr[j] == '.' {
		j++
		start = j
		for j < len(fmtStr) && fmtStr[j] >= '0' && fmtStr[j] <= '9' {
			j++
		}
		spec.precision, _ = strconv.Atoi(fmtStr[start:j])
	}
	if j >= len(fmtStr) {
		return spec, 0, errUnterminated
	}
	spec.verb = fmtStr[j]
	if !isAllowedFormatVerb(spec.verb) {
		return spec, 0, &unknownVerbError{verb: spec.verb}
	}
	return spec, j, nil
}

type formatError string

func (e formatError) Error() string { return string(e) }

const (
	errUnterminated formatError = "Missing format specifier at end of string"
	errArgnumZero   formatError = "Argument number specifier must be greater than zero and less than 2147483647"
)

type unknownVerbError struct{ verb byte }

func (e *unknownVerbError) Error() string {
	return "Unknown format specifier \"" + string(e.verb) + "\""
}

// formatArgs implements sprintf. Too few arguments is a call error.
func formatArgs(ctx *evaluator.CallContext, fmtStr string, args []value.Value) (string, error) {
	var sb strings.Builder
	next := 0
	for i := 0; i < len(fmtStr); i++ {
		if fmtStr[i] != '%' {
			sb.WriteByte(fmtStr[i])
			continue
		}
		if i+1 < len(fmtStr) && fmtStr[i+1] == '%' {
			sb.WriteByte('%')
			i++
			continue
		}
		spec, end, err := parseFormatSpec(fmtStr, i+1)
		if err != nil {
			return "", ctx.Errorf(diagnostics.ErrR005, "%s", err.Error())
		}
		idx := next
		if spec.argnum > 0 {
			idx = spec.argnum - 1
		} else {
			next++
		}
		if idx >= len(args) {
			return "", ctx.Errorf(diagnostics.ErrR005, "%d arguments are required, %d given", idx+2, len(args)+1)
		}
		sb.WriteString(spec.apply(args[idx]))
		i = end
	}
	return sb.String(), nil
}

func (s formatSpec) apply(v value.Value) string {
	var out string
	numeric := true
	switch s.verb {
	case 'd':
		n := value.ToInt(v)
		out = strconv.FormatInt(n, 10)
		if s.plus && n >= 0 {
			out = "+" + out
		}
	case 'u':
		out = strconv.FormatUint(uint64(value.ToInt(v)), 10)
	case 'f', 'F':
		out = strconv.FormatFloat(value.ToFloat(v), 'f', s.prec(6), 64)
		out = s.sign(v, out)
	case 'e', 'E':
		out = expNotation(value.ToFloat(v), s.prec(6), s.verb)
		out = s.sign(v, out)
	case 'g', 'G':
		f := value.ToFloat(v)
		p := s.prec(6)
		if p == 0 {
			p = 1
		}
		out = strconv.FormatFloat(f, s.verb, p, 64)
		if exp := strings.IndexAny(out, "eE"); exp >= 0 {
			out = expNotation(f, p-1, s.verb-'g'+'e')
		}
		out = s.sign(v, out)
	case 'x':
		out = strconv.FormatUint(uint64(value.ToInt(v)), 16)
	case 'X':
		out = strings.ToUpper(strconv.FormatUint(uint64(value.ToInt(v)), 16))
	case 'o':
		out = strconv.FormatUint(uint64(value.ToInt(v)), 8)
	case 'b':
		out = strconv.FormatUint(uint64(value.ToInt(v)), 2)
	case 'c':
		return string([]byte{byte(value.ToInt(v))})
	case 's':
		numeric = false
		out = value.ToString(v)
		if f, ok := v.(value.Float); ok {
			out = value.FormatFloat(float64(f), 14)
		}
		if s.precision >= 0 && s.precision < len(out) {
			out = out[:s.precision]
		}
	}
	return s.padTo(out, numeric)
}

func (s formatSpec) prec(def int) int {
	if s.precision < 0 {
		return def
	}
	return s.precision
}

func (s formatSpec) sign(v value.Value, out string) string {
	if s.plus && !math.Signbit(value.ToFloat(v)) {
		return "+" + out
	}
	return out
}

func (s formatSpec) padTo(out string, numeric bool) string {
	if len(out) >= s.width {
		return out
	}
	fill := strings.Repeat(string(s.pad), s.width-len(out))
	switch {
	case s.left:
		if s.pad == '0' {
			fill = strings.Repeat(" ", len(fill))
		}
		return out + fill
	case numeric && s.pad == '0' && out != "" && (out[0] == '-' || out[0] == '+'):
		return out[:1] + fill + out[1:]
	}
	return fill + out
}

// expNotation renders f as d.ddde+N with an unpadded exponent.
func expNotation(f float64, prec int, verb byte) string {
	s := strconv.FormatFloat(f, verb, prec, 64)
	e := strings.IndexAny(s, "eE")
	if e < 0 {
		return s
	}
	mant, exp := s[:e+2], strings.TrimLeft(s[e+2:], "0")
	if exp == "" {
		exp = "0"
	}
	return mant + exp
}
