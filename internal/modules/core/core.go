// Package core provides the always-loaded library: type inspection,
// variable dumping, arrays, strings and math.
package core

import (
	"math"

	"github.com/funvibe/funphp/internal/config"
	"github.com/funvibe/funphp/internal/diagnostics"
	"github.com/funvibe/funphp/internal/evaluator"
	"github.com/funvibe/funphp/internal/value"
)

// Register installs the core functions and constants into r.
func Register(r *evaluator.Registry) error {
	registerConstants(r)
	registerTypes(r)
	registerOutput(r)
	registerArrays(r)
	registerStrings(r)
	registerMath(r)
	return nil
}

func registerConstants(r *evaluator.Registry) {
	r.RegisterConstant("PHP_EOL", value.Str("\n"))
	r.RegisterConstant("PHP_INT_MAX", value.Int(math.MaxInt64))
	r.RegisterConstant("PHP_INT_MIN", value.Int(math.MinInt64))
	r.RegisterConstant("PHP_INT_SIZE", value.Int(8))
	r.RegisterConstant("PHP_FLOAT_EPSILON", value.Float(2.220446049250313e-16))
	r.RegisterConstant("PHP_FLOAT_MAX", value.Float(math.MaxFloat64))
	r.RegisterConstant("PHP_VERSION", value.Str(config.Version))
	r.RegisterConstant("M_PI", value.Float(math.Pi))
	r.RegisterConstant("M_E", value.Float(math.E))
	r.RegisterConstant("NAN", value.Float(math.NaN()))
	r.RegisterConstant("INF", value.Float(math.Inf(1)))
	r.RegisterConstant("SORT_REGULAR", value.Int(sortRegular))
	r.RegisterConstant("SORT_NUMERIC", value.Int(sortNumeric))
	r.RegisterConstant("SORT_STRING", value.Int(sortString))
	r.RegisterConstant("COUNT_RECURSIVE", value.Int(1))
}

// arrayArg returns argument i as an array or a call error naming the
// parameter.
func arrayArg(ctx *evaluator.CallContext, args []value.Value, i int, param string) (value.Array, error) {
	if arr, ok := value.AsArray(args[i]); ok {
		return arr, nil
	}
	return nil, ctx.Errorf(diagnostics.ErrR005, "Argument #%d ($%s) must be of type array, %s given", i+1, param, value.DebugType(args[i]))
}

// refArray returns the array held by by-reference argument i.
func refArray(ctx *evaluator.CallContext, i int, param string) (*value.Slot, value.Array, error) {
	slot := ctx.Ref(i)
	if slot == nil {
		return nil, nil, ctx.Errorf(diagnostics.ErrR005, "Argument #%d ($%s) could not be passed by reference", i+1, param)
	}
	arr, ok := value.AsArray(slot.Get())
	if !ok {
		return nil, nil, ctx.Errorf(diagnostics.ErrR005, "Argument #%d ($%s) must be of type array, %s given", i+1, param, value.DebugType(slot.Get()))
	}
	return slot, arr, nil
}

func optInt(args []value.Value, i int, def int64) int64 {
	if i < len(args) && !value.IsNull(args[i]) {
		return value.ToInt(args[i])
	}
	return def
}

func optString(args []value.Value, i int, def string) string {
	if i < len(args) {
		return value.ToString(args[i])
	}
	return def
}

func optBool(args []value.Value, i int) bool {
	return i < len(args) && value.ToBool(args[i])
}
