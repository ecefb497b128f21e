package core

import (
	"crypto/md5"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"hash/crc32"
	"math"
	"strconv"
	"strings"

	"github.com/funvibe/funphp/internal/diagnostics"
	"github.com/funvibe/funphp/internal/evaluator"
	"github.com/funvibe/funphp/internal/value"
)

// stringFunc registers a function of one string argument.
func stringFunc(r *evaluator.Registry, name string, fn func(string) value.Value) {
	r.RegisterFunc(name, 1, 1, func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
		s, err := ctx.ToString(args[0])
		if err != nil {
			return nil, err
		}
		return fn(s), nil
	})
}

func registerStrings(r *evaluator.Registry) {
	stringFunc(r, "strlen", func(s string) value.Value { return value.Int(len(s)) })
	stringFunc(r, "strtoupper", func(s string) value.Value { return value.Str(asciiUpper(s)) })
	stringFunc(r, "strtolower", func(s string) value.Value { return value.Str(asciiLower(s)) })
	stringFunc(r, "strrev", func(s string) value.Value {
		b := []byte(s)
		for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
			b[i], b[j] = b[j], b[i]
		}
		return value.Str(string(b))
	})
	stringFunc(r, "ucfirst", func(s string) value.Value {
		if s == "" {
			return value.Str(s)
		}
		return value.Str(asciiUpper(s[:1]) + s[1:])
	})
	stringFunc(r, "lcfirst", func(s string) value.Value {
		if s == "" {
			return value.Str(s)
		}
		return value.Str(asciiLower(s[:1]) + s[1:])
	})
	stringFunc(r, "ucwords", func(s string) value.Value {
		b := []byte(s)
		for i := range b {
			if i == 0 || strings.IndexByte(" \t\r\n\f\v", b[i-1]) >= 0 {
				b[i] = asciiUpper(string(b[i]))[0]
			}
		}
		return value.Str(string(b))
	})
	stringFunc(r, "md5", func(s string) value.Value {
		sum := md5.Sum([]byte(s))
		return value.Str(hex.EncodeToString(sum[:]))
	})
	stringFunc(r, "sha1", func(s string) value.Value {
		sum := sha1.Sum([]byte(s))
		return value.Str(hex.EncodeToString(sum[:]))
	})
	stringFunc(r, "crc32", func(s string) value.Value { return value.Int(crc32.ChecksumIEEE([]byte(s))) })
	stringFunc(r, "bin2hex", func(s string) value.Value { return value.Str(hex.EncodeToString([]byte(s))) })
	stringFunc(r, "base64_encode", func(s string) value.Value { return value.Str(base64.StdEncoding.EncodeToString([]byte(s))) })
	stringFunc(r, "base64_decode", func(s string) value.Value {
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			if b, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "=")); err != nil {
				return value.Bool(false)
			}
		}
		return value.Str(string(b))
	})
	stringFunc(r, "htmlspecialchars", func(s string) value.Value { return value.Str(htmlEscaper.Replace(s)) })
	stringFunc(r, "nl2br", func(s string) value.Value { return value.Str(strings.ReplaceAll(s, "\n", "<br />\n")) })
	stringFunc(r, "ord", func(s string) value.Value {
		if s == "" {
			return value.Int(0)
		}
		return value.Int(s[0])
	})
	r.RegisterFunc("chr", 1, 1, func(_ *evaluator.CallContext, args []value.Value) (value.Value, error) {
		n := value.ToInt(args[0]) % 256
		if n < 0 {
			n += 256
		}
		return value.Str(string([]byte{byte(n)})), nil
	})

	r.RegisterFunc("str_repeat", 2, 2, func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
		n := value.ToInt(args[1])
		if n < 0 {
			return nil, ctx.Errorf(diagnostics.ErrR005, "Argument #2 ($times) must be greater than or equal to 0")
		}
		return value.Str(strings.Repeat(value.ToString(args[0]), int(n))), nil
	})

	implode := func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
		sep, pieces := args[0], value.Value(nil)
		if len(args) == 1 {
			sep, pieces = value.Str(""), args[0]
		} else {
			pieces = args[1]
			if _, ok := value.AsArray(sep); ok {
				sep, pieces = pieces, sep
			}
		}
		arr, ok := value.AsArray(pieces)
		if !ok {
			return nil, ctx.Errorf(diagnostics.ErrR005, "Argument #2 ($array) must be of type ?array, %s given", value.DebugType(pieces))
		}
		parts := make([]string, 0, arr.Size())
		for v := range arr.ValueIter() {
			s, err := ctx.ToString(v)
			if err != nil {
				return nil, err
			}
			parts = append(parts, s)
		}
		return value.Str(strings.Join(parts, value.ToString(sep))), nil
	}
	r.RegisterFunc("implode", 1, 2, implode)
	r.RegisterFunc("join", 1, 2, implode)

	r.RegisterFunc("explode", 2, 3, func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
		sep, s := value.ToString(args[0]), value.ToString(args[1])
		if sep == "" {
			return nil, ctx.Errorf(diagnostics.ErrR005, "Argument #1 ($separator) cannot be empty")
		}
		limit := optInt(args, 2, math.MaxInt64)
		var parts []string
		switch {
		case limit > 0:
			n := -1
			if limit < math.MaxInt32 {
				n = int(limit)
			}
			parts = strings.SplitN(s, sep, n)
		case limit < 0:
			parts = strings.Split(s, sep)
			if drop := int(-limit); drop < len(parts) {
				parts = parts[:len(parts)-drop]
			} else {
				parts = nil
			}
		default:
			parts = strings.SplitN(s, sep, 1)
		}
		out := value.NewArray()
		for _, p := range parts {
			out.Append(value.Str(p))
		}
		return out, nil
	})
	r.RegisterFunc("str_split", 1, 2, func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
		s := value.ToString(args[0])
		n := int(optInt(args, 1, 1))
		if n < 1 {
			return nil, ctx.Errorf(diagnostics.ErrR005, "Argument #2 ($length) must be greater than 0")
		}
		out := value.NewArray()
		if s == "" {
			out.Append(value.Str(""))
			return out, nil
		}
		for i := 0; i < len(s); i += n {
			out.Append(value.Str(s[i:min(i+n, len(s))]))
		}
		return out, nil
	})

	r.RegisterFunc("substr", 2, 3, func(_ *evaluator.CallContext, args []value.Value) (value.Value, error) {
		s := value.ToString(args[0])
		from, to := sliceBounds(len(s), value.ToInt(args[1]), args, 2)
		return value.Str(s[from:to]), nil
	})
	r.RegisterFunc("strpos", 2, 3, func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
		return position(ctx, args, false)
	})
	r.RegisterFunc("stripos", 2, 3, func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
		return position(ctx, args, true)
	})
	r.RegisterFunc("strrpos", 2, 2, func(_ *evaluator.CallContext, args []value.Value) (value.Value, error) {
		if i := strings.LastIndex(value.ToString(args[0]), value.ToString(args[1])); i >= 0 {
			return value.Int(i), nil
		}
		return value.Bool(false), nil
	})
	r.RegisterFunc("str_contains", 2, 2, func(_ *evaluator.CallContext, args []value.Value) (value.Value, error) {
		return value.Bool(strings.Contains(value.ToString(args[0]), value.ToString(args[1]))), nil
	})
	r.RegisterFunc("str_starts_with", 2, 2, func(_ *evaluator.CallContext, args []value.Value) (value.Value, error) {
		return value.Bool(strings.HasPrefix(value.ToString(args[0]), value.ToString(args[1]))), nil
	})
	r.RegisterFunc("str_ends_with", 2, 2, func(_ *evaluator.CallContext, args []value.Value) (value.Value, error) {
		return value.Bool(strings.HasSuffix(value.ToString(args[0]), value.ToString(args[1]))), nil
	})
	r.RegisterFunc("strcmp", 2, 2, func(_ *evaluator.CallContext, args []value.Value) (value.Value, error) {
		return value.Int(strings.Compare(value.ToString(args[0]), value.ToString(args[1]))), nil
	})

	r.RegisterFunc("str_replace", 3, 3, func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
		return replaceIn(ctx, args[0], args[1], args[2])
	})

	trim := func(name string, fn func(s, cut string) string) {
		r.RegisterFunc(name, 1, 2, func(_ *evaluator.CallContext, args []value.Value) (value.Value, error) {
			return value.Str(fn(value.ToString(args[0]), expandCharList(optString(args, 1, " \t\n\r\x00\x0B")))), nil
		})
	}
	trim("trim", strings.Trim)
	trim("ltrim", strings.TrimLeft)
	trim("rtrim", strings.TrimRight)
	trim("chop", strings.TrimRight)

	r.RegisterFunc("str_pad", 2, 4, func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
		s := value.ToString(args[0])
		width := int(value.ToInt(args[1]))
		padStr := optString(args, 2, " ")
		if padStr == "" {
			return nil, ctx.Errorf(diagnostics.ErrR005, "Argument #3 ($pad_string) must be a non-empty string")
		}
		if width <= len(s) {
			return value.Str(s), nil
		}
		total := width - len(s)
		fill := func(n int) string {
			return strings.Repeat(padStr, n/len(padStr)+1)[:n]
		}
		switch optInt(args, 3, 1) {
		case 0:
			return value.Str(fill(total) + s), nil
		case 2:
			left := total / 2
			return value.Str(fill(left) + s + fill(total-left)), nil
		}
		return value.Str(s + fill(total)), nil
	})
	r.RegisterConstant("STR_PAD_LEFT", value.Int(0))
	r.RegisterConstant("STR_PAD_RIGHT", value.Int(1))
	r.RegisterConstant("STR_PAD_BOTH", value.Int(2))

	r.RegisterFunc("number_format", 1, 4, func(_ *evaluator.CallContext, args []value.Value) (value.Value, error) {
		return value.Str(numberFormat(value.ToFloat(args[0]), int(optInt(args, 1, 0)), optString(args, 2, "."), optString(args, 3, ","))), nil
	})
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&#039;")

func asciiUpper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 32
		}
	}
	return string(b)
}

func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 32
		}
	}
	return string(b)
}

func position(ctx *evaluator.CallContext, args []value.Value, fold bool) (value.Value, error) {
	haystack, needle := value.ToString(args[0]), value.ToString(args[1])
	if fold {
		haystack, needle = asciiLower(haystack), asciiLower(needle)
	}
	offset := optInt(args, 2, 0)
	if offset < 0 {
		offset += int64(len(haystack))
	}
	if offset < 0 || offset > int64(len(haystack)) {
		return nil, ctx.Errorf(diagnostics.ErrR005, "Argument #3 ($offset) must be contained in argument #1 ($haystack)")
	}
	if i := strings.Index(haystack[offset:], needle); i >= 0 {
		return value.Int(int64(i) + offset), nil
	}
	return value.Bool(false), nil
}

// replaceIn implements str_replace for scalar or array search, replace
// and subject arguments.
func replaceIn(ctx *evaluator.CallContext, search, replace, subject value.Value) (value.Value, error) {
	if arr, ok := value.AsArray(subject); ok {
		out := value.NewArray()
		for k, v := range arr.Iter() {
			replaced, err := replaceIn(ctx, search, replace, v)
			if err != nil {
				return nil, err
			}
			out.Put(k, replaced)
		}
		return out, nil
	}
	s, err := ctx.ToString(subject)
	if err != nil {
		return nil, err
	}
	searches, ok := value.AsArray(search)
	if !ok {
		return value.Str(strings.ReplaceAll(s, value.ToString(search), value.ToString(replace))), nil
	}
	var replacements []value.Value
	replArr, replIsArr := value.AsArray(replace)
	if replIsArr {
		replacements = valuesOf(replArr)
	}
	i := 0
	for needle := range searches.ValueIter() {
		with := value.ToString(replace)
		if replIsArr {
			with = ""
			if i < len(replacements) {
				with = value.ToString(replacements[i])
			}
		}
		if n := value.ToString(needle); n != "" {
			s = strings.ReplaceAll(s, n, with)
		}
		i++
	}
	return value.Str(s), nil
}

// expandCharList expands "a..z" ranges in a trim character list.
func expandCharList(list string) string {
	if !strings.Contains(list, "..") {
		return list
	}
	var sb strings.Builder
	for i := 0; i < len(list); i++ {
		if i+3 < len(list) && list[i+1] == '.' && list[i+2] == '.' && list[i] <= list[i+3] {
			for c := int(list[i]); c <= int(list[i+3]); c++ {
				sb.WriteByte(byte(c))
			}
			i += 3
			continue
		}
		sb.WriteByte(list[i])
	}
	return sb.String()
}

// numberFormat rounds half away from zero and groups thousands.
func numberFormat(f float64, decimals int, point, sep string) string {
	if decimals < 0 {
		decimals = 0
	}
	p := math.Pow(10, float64(decimals))
	f = math.Round(f*p) / p
	s := strconv.FormatFloat(math.Abs(f), 'f', decimals, 64)
	intPart, frac := s, ""
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		intPart, frac = s[:dot], s[dot+1:]
	}
	var sb strings.Builder
	if f < 0 {
		sb.WriteByte('-')
	}
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			sb.WriteString(sep)
		}
		sb.WriteRune(c)
	}
	if decimals > 0 {
		sb.WriteString(point)
		sb.WriteString(frac)
	}
	return sb.String()
}
