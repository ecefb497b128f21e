package core

import (
	"math"
	"math/rand/v2"

	"github.com/funvibe/funphp/internal/diagnostics"
	"github.com/funvibe/funphp/internal/evaluator"
	"github.com/funvibe/funphp/internal/value"
)

func floatFunc(r *evaluator.Registry, name string, fn func(float64) float64) {
	r.RegisterFunc(name, 1, 1, func(_ *evaluator.CallContext, args []value.Value) (value.Value, error) {
		return value.Float(fn(value.ToFloat(args[0]))), nil
	})
}

func registerMath(r *evaluator.Registry) {
	floatFunc(r, "floor", math.Floor)
	floatFunc(r, "ceil", math.Ceil)
	floatFunc(r, "sqrt", math.Sqrt)
	floatFunc(r, "exp", math.Exp)
	floatFunc(r, "sin", math.Sin)
	floatFunc(r, "cos", math.Cos)
	floatFunc(r, "tan", math.Tan)

	r.RegisterFunc("abs", 1, 1, func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
		n, err := value.ToNumber(args[0])
		if err != nil {
			return nil, ctx.Errorf(diagnostics.ErrR005, "Argument #1 ($num) must be of type int|float, %s given", value.DebugType(args[0]))
		}
		switch x := n.(type) {
		case value.Int:
			if x == math.MinInt64 {
				return value.Float(-float64(x)), nil
			}
			if x < 0 {
				return -x, nil
			}
			return x, nil
		case value.Float:
			return value.Float(math.Abs(float64(x))), nil
		}
		return n, nil
	})
	r.RegisterFunc("round", 1, 2, func(_ *evaluator.CallContext, args []value.Value) (value.Value, error) {
		p := math.Pow(10, float64(optInt(args, 1, 0)))
		return value.Float(math.Round(value.ToFloat(args[0])*p) / p), nil
	})
	r.RegisterFunc("log", 1, 2, func(_ *evaluator.CallContext, args []value.Value) (value.Value, error) {
		x := math.Log(value.ToFloat(args[0]))
		if len(args) > 1 {
			x /= math.Log(value.ToFloat(args[1]))
		}
		return value.Float(x), nil
	})
	r.RegisterFunc("pow", 2, 2, func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
		return value.Pow(args[0], args[1])
	})
	r.RegisterFunc("intdiv", 2, 2, func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
		a, b := value.ToInt(args[0]), value.ToInt(args[1])
		switch {
		case b == 0:
			return nil, ctx.Errorf(diagnostics.ErrR001, "Division by zero")
		case a == math.MinInt64 && b == -1:
			return nil, ctx.Errorf(diagnostics.ErrR006, "Division of PHP_INT_MIN by -1 is not an integer")
		}
		return value.Int(a / b), nil
	})
	r.RegisterFunc("fmod", 2, 2, func(_ *evaluator.CallContext, args []value.Value) (value.Value, error) {
		return value.Float(math.Mod(value.ToFloat(args[0]), value.ToFloat(args[1]))), nil
	})

	extreme := func(name string, want int) {
		r.RegisterFunc(name, 1, -1, func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
			candidates := args
			if len(args) == 1 {
				arr, err := arrayArg(ctx, args, 0, "value")
				if err != nil {
					return nil, err
				}
				candidates = valuesOf(arr)
				if len(candidates) == 0 {
					return nil, ctx.Errorf(diagnostics.ErrR005, "Argument #1 ($value) must contain at least one element")
				}
			}
			best := candidates[0]
			for _, v := range candidates[1:] {
				c, err := value.CompareChecked(v, best)
				if err != nil {
					return nil, err
				}
				if c == want {
					best = v
				}
			}
			return value.CopyOnAssign(best), nil
		})
	}
	extreme("max", 1)
	extreme("min", -1)

	r.RegisterFunc("mt_rand", 0, 2, func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
		return randomInt(ctx, args)
	})
	r.RegisterFunc("rand", 0, 2, func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
		return randomInt(ctx, args)
	})
	r.RegisterFunc("is_nan", 1, 1, func(_ *evaluator.CallContext, args []value.Value) (value.Value, error) {
		return value.Bool(math.IsNaN(value.ToFloat(args[0]))), nil
	})
}

func randomInt(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
	lo, hi := int64(0), int64(math.MaxInt32)
	switch len(args) {
	case 1:
		return nil, ctx.Errorf(diagnostics.ErrR005, "expects exactly 2 arguments, 1 given")
	case 2:
		lo, hi = value.ToInt(args[0]), value.ToInt(args[1])
	}
	if hi < lo {
		return nil, ctx.Errorf(diagnostics.ErrR005, "Argument #2 ($max) must be greater than or equal to argument #1 ($min)")
	}
	return value.Int(lo + rand.Int64N(hi-lo+1)), nil
}
