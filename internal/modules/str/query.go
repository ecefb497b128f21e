// Package str holds the query-string functions: parse_str and the URL
// encoders that produce its input.
package str

import (
	"strings"

	"github.com/funvibe/funphp/internal/diagnostics"
	"github.com/funvibe/funphp/internal/evaluator"
	"github.com/funvibe/funphp/internal/value"
)

// Register installs the query-string functions into r.
func Register(r *evaluator.Registry) error {
	r.Register(&evaluator.Builtin{Name: "parse_str", MinArgs: 1, MaxArgs: 2, RefParams: []int{1}, Fn: parseStr})
	r.RegisterFunc("http_build_query", 1, 3, buildQuery)
	r.RegisterFunc("urlencode", 1, 1, func(_ *evaluator.CallContext, args []value.Value) (value.Value, error) {
		return value.Str(Encode(value.ToString(args[0]), false)), nil
	})
	r.RegisterFunc("rawurlencode", 1, 1, func(_ *evaluator.CallContext, args []value.Value) (value.Value, error) {
		return value.Str(Encode(value.ToString(args[0]), true)), nil
	})
	r.RegisterFunc("urldecode", 1, 1, func(_ *evaluator.CallContext, args []value.Value) (value.Value, error) {
		return value.Str(Decode(value.ToString(args[0]), true)), nil
	})
	r.RegisterFunc("rawurldecode", 1, 1, func(_ *evaluator.CallContext, args []value.Value) (value.Value, error) {
		return value.Str(Decode(value.ToString(args[0]), false)), nil
	})
	return nil
}

// parseStr decodes a query string into the by-reference result array.
// Called with one argument the variables land in the current scope.
func parseStr(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
	result := ParseQuery(value.ToString(args[0]))
	if slot := ctx.Ref(1); slot != nil {
		slot.Set(result)
		return value.Null{}, nil
	}
	for k, v := range result.Iter() {
		if k.IsInt() {
			continue
		}
		name := k.String()
		if existing, ok := ctx.Env.Lookup(name); ok {
			if dst, isArr := existing.Get().(*value.OrderedArray); isArr {
				if src, srcArr := v.(*value.OrderedArray); srcArr {
					mergeInto(dst, src)
					continue
				}
			}
		}
		ctx.Env.Assign(name, v)
	}
	return value.Null{}, nil
}

// ParseQuery splits s on '&' and stores each pair under its bracketed
// key path. Later pairs overwrite earlier ones; "name[]" appends.
func ParseQuery(s string) *value.OrderedArray {
	result := value.NewArray()
	for _, pair := range strings.Split(s, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawVal, _ := strings.Cut(pair, "=")
		key := Decode(rawKey, true)
		if key == "" {
			continue
		}
		addQueryValue(result, key, value.Str(Decode(rawVal, true)))
	}
	return result
}

// addQueryValue stores v under key, which may carry one or more
// "[index]" segments after the base name.
func addQueryValue(arr *value.OrderedArray, key string, v value.Value) {
	base, segments := splitQueryKey(key)
	if segments == nil {
		arr.Put(value.StrKey(base), v)
		return
	}

	container := arr
	k := value.StrKey(base)
	for _, seg := range segments {
		child, ok := container.Get(k).(*value.OrderedArray)
		if !ok {
			child = value.NewArray()
			container.Put(k, child)
		}
		container = child
		if seg == "" {
			next, err := container.NextKey()
			if err != nil {
				return
			}
			k = next
		} else {
			k = value.StrKey(seg)
		}
	}
	container.Put(k, v)
}

// splitQueryKey separates "a[b][]" into "a" and ["b", ""]. Spaces and
// dots in the base name become underscores. An unterminated bracket
// turns into an underscore and ends segment parsing.
func splitQueryKey(key string) (string, []string) {
	open := strings.IndexByte(key, '[')
	if open <= 0 {
		return normalizeName(key), nil
	}
	base, rest := key[:open], key[open:]
	var segments []string
	for strings.HasPrefix(rest, "[") {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			if segments == nil {
				return normalizeName(base) + "_" + rest[1:], nil
			}
			break
		}
		segments = append(segments, rest[1:end])
		rest = rest[end+1:]
	}
	return normalizeName(base), segments
}

func normalizeName(name string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '.' {
			return '_'
		}
		return r
	}, name)
}

func mergeInto(dst, src *value.OrderedArray) {
	for k, v := range src.Iter() {
		if d, ok := dst.Get(k).(*value.OrderedArray); ok {
			if s, ok := v.(*value.OrderedArray); ok {
				mergeInto(d, s)
				continue
			}
		}
		if k.IsInt() {
			dst.Append(v)
		} else {
			dst.Put(k, v)
		}
	}
}

func buildQuery(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
	arr, ok := value.AsArray(args[0])
	if !ok {
		return nil, ctx.Errorf(diagnostics.ErrR005, "Argument #1 ($data) must be of type array, %s given", value.DebugType(args[0]))
	}
	prefix := ""
	if len(args) > 1 {
		prefix = value.ToString(args[1])
	}
	sep := "&"
	if len(args) > 2 && value.ToString(args[2]) != "" {
		sep = value.ToString(args[2])
	}
	var parts []string
	appendQueryParts(&parts, arr, "", prefix)
	return value.Str(strings.Join(parts, sep)), nil
}

func appendQueryParts(parts *[]string, arr value.Array, outer, numericPrefix string) {
	for k, v := range arr.Iter() {
		name := k.String()
		if outer != "" {
			name = outer + "[" + name + "]"
		} else if k.IsInt() {
			name = numericPrefix + name
		}
		switch x := value.OrNull(v).(type) {
		case value.Array:
			appendQueryParts(parts, x, name, numericPrefix)
		case value.Null:
		case value.Bool:
			if x {
				*parts = append(*parts, Encode(name, false)+"=1")
			} else {
				*parts = append(*parts, Encode(name, false)+"=0")
			}
		default:
			*parts = append(*parts, Encode(name, false)+"="+Encode(value.ToString(x), false))
		}
	}
}

const hexDigits = "0123456789ABCDEF"

// Encode percent-encodes s. Letters, digits and "-_." pass through; raw
// mode also keeps '~' and encodes spaces as %20 instead of '+'.
func Encode(s string, raw bool) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '-', c == '_', c == '.':
			sb.WriteByte(c)
		case c == '~' && raw:
			sb.WriteByte(c)
		case c == ' ' && !raw:
			sb.WriteByte('+')
		default:
			sb.WriteByte('%')
			sb.WriteByte(hexDigits[c>>4])
			sb.WriteByte(hexDigits[c&15])
		}
	}
	return sb.String()
}

// Decode reverses Encode. Malformed escapes are kept literally.
func Decode(s string, plusIsSpace bool) string {
	if !strings.ContainsAny(s, "%+") {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '+' && plusIsSpace:
			sb.WriteByte(' ')
		case c == '%' && i+2 < len(s) && unhex(s[i+1]) >= 0 && unhex(s[i+2]) >= 0:
			sb.WriteByte(byte(unhex(s[i+1])<<4 | unhex(s[i+2])))
			i += 2
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

func unhex(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	}
	return -1
}
