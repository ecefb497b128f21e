package core

import (
	"github.com/funvibe/funphp/internal/evaluator"
	"github.com/funvibe/funphp/internal/value"
)

func registerTypes(r *evaluator.Registry) {
	r.RegisterFunc("gettype", 1, 1, func(_ *evaluator.CallContext, args []value.Value) (value.Value, error) {
		return value.Str(value.OrNull(args[0]).Kind().String()), nil
	})
	r.RegisterFunc("get_debug_type", 1, 1, func(_ *evaluator.CallContext, args []value.Value) (value.Value, error) {
		return value.Str(value.DebugType(args[0])), nil
	})

	kindCheck := func(name string, kinds ...value.Kind) {
		r.RegisterFunc(name, 1, 1, func(_ *evaluator.CallContext, args []value.Value) (value.Value, error) {
			k := value.OrNull(args[0]).Kind()
			for _, want := range kinds {
				if k == want {
					return value.Bool(true), nil
				}
			}
			return value.Bool(false), nil
		})
	}
	kindCheck("is_null", value.KindNull)
	kindCheck("is_bool", value.KindBool)
	kindCheck("is_int", value.KindInt)
	kindCheck("is_integer", value.KindInt)
	kindCheck("is_float", value.KindFloat)
	kindCheck("is_string", value.KindString)
	kindCheck("is_object", value.KindObject)
	kindCheck("is_resource", value.KindResource)
	kindCheck("is_scalar", value.KindBool, value.KindInt, value.KindFloat, value.KindString)

	r.RegisterFunc("is_array", 1, 1, func(_ *evaluator.CallContext, args []value.Value) (value.Value, error) {
		_, ok := args[0].(value.Array)
		return value.Bool(ok), nil
	})
	r.RegisterFunc("is_numeric", 1, 1, func(_ *evaluator.CallContext, args []value.Value) (value.Value, error) {
		return value.Bool(value.IsNumeric(args[0])), nil
	})

	r.RegisterFunc("intval", 1, 2, func(_ *evaluator.CallContext, args []value.Value) (value.Value, error) {
		base := optInt(args, 1, 10)
		if s, ok := args[0].(value.String); ok && base != 10 {
			return value.Int(parseIntBase(s.Value, base)), nil
		}
		return value.Int(value.ToInt(args[0])), nil
	})
	r.RegisterFunc("floatval", 1, 1, func(_ *evaluator.CallContext, args []value.Value) (value.Value, error) {
		return value.Float(value.ToFloat(args[0])), nil
	})
	r.RegisterFunc("boolval", 1, 1, func(_ *evaluator.CallContext, args []value.Value) (value.Value, error) {
		return value.Bool(value.ToBool(args[0])), nil
	})
	r.RegisterFunc("strval", 1, 1, func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
		s, err := ctx.ToString(args[0])
		if err != nil {
			return nil, err
		}
		return value.Str(s), nil
	})

	r.RegisterFunc("function_exists", 1, 1, func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
		return value.Bool(ctx.Eval.FunctionExists(value.ToString(args[0]))), nil
	})
	r.RegisterFunc("defined", 1, 1, func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
		_, ok := ctx.Eval.Registry.Constant(value.ToString(args[0]))
		return value.Bool(ok), nil
	})
	r.RegisterFunc("call_user_func", 1, -1, func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
		return ctx.Call(value.ToString(args[0]), args[1:]...)
	})
}

// parseIntBase reads the longest valid prefix of s in the given base,
// honouring a sign and the 0x/0o/0b prefixes when base is 16, 8 or 2.
func parseIntBase(s string, base int64) int64 {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	neg := false
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		neg = s[i] == '-'
		i++
	}
	if i+1 < len(s) && s[i] == '0' {
		switch {
		case base == 16 && (s[i+1] == 'x' || s[i+1] == 'X'),
			base == 8 && (s[i+1] == 'o' || s[i+1] == 'O'),
			base == 2 && (s[i+1] == 'b' || s[i+1] == 'B'):
			i += 2
		}
	}
	var n int64
	for ; i < len(s); i++ {
		d := digitValue(s[i])
		if d < 0 || int64(d) >= base {
			break
		}
		n = n*base + int64(d)
	}
	if neg {
		return -n
	}
	return n
}

func digitValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10
	}
	return -1
}
