package core

import (
	"math"
	"sort"
	"strings"

	"github.com/funvibe/funphp/internal/diagnostics"
	"github.com/funvibe/funphp/internal/evaluator"
	"github.com/funvibe/funphp/internal/value"
)

const (
	sortRegular = 0
	sortNumeric = 1
	sortString  = 2
)

func registerArrays(r *evaluator.Registry) {
	count := func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
		arr, ok := value.AsArray(args[0])
		if !ok {
			return nil, ctx.Errorf(diagnostics.ErrR005, "Argument #1 ($value) must be of type Countable|array, %s given", value.DebugType(args[0]))
		}
		if optInt(args, 1, 0) == 1 {
			return value.Int(countRecursive(arr, 0)), nil
		}
		return value.Int(arr.Size()), nil
	}
	r.RegisterFunc("count", 1, 2, count)
	r.RegisterFunc("sizeof", 1, 2, count)

	r.RegisterFunc("array_keys", 1, 2, func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
		arr, err := arrayArg(ctx, args, 0, "array")
		if err != nil {
			return nil, err
		}
		out := value.NewArray()
		for k, v := range arr.Iter() {
			if len(args) > 1 {
				eq, err := value.LooseEqualsChecked(v, args[1])
				if err != nil {
					return nil, err
				}
				if !eq {
					continue
				}
			}
			out.Append(k.Value())
		}
		return out, nil
	})
	r.RegisterFunc("array_values", 1, 1, func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
		arr, err := arrayArg(ctx, args, 0, "array")
		if err != nil {
			return nil, err
		}
		return value.NewList(copied(valuesOf(arr))...), nil
	})

	keyExists := func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
		arr, err := arrayArg(ctx, args, 1, "array")
		if err != nil {
			return nil, err
		}
		k, err := value.KeyFromValue(args[0])
		if err != nil {
			return nil, ctx.Errorf(diagnostics.ErrR002, "Argument #1 ($key) must be a valid array offset type")
		}
		return value.Bool(arr.ContainsKey(k)), nil
	}
	r.RegisterFunc("array_key_exists", 2, 2, keyExists)
	r.RegisterFunc("key_exists", 2, 2, keyExists)

	r.RegisterFunc("in_array", 2, 3, func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
		arr, err := arrayArg(ctx, args, 1, "haystack")
		if err != nil {
			return nil, err
		}
		_, found, err := search(arr, args[0], optBool(args, 2))
		return value.Bool(found), err
	})
	r.RegisterFunc("array_search", 2, 3, func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
		arr, err := arrayArg(ctx, args, 1, "haystack")
		if err != nil {
			return nil, err
		}
		k, found, err := search(arr, args[0], optBool(args, 2))
		if err != nil || !found {
			return value.Bool(false), err
		}
		return k.Value(), nil
	})

	r.Register(&evaluator.Builtin{Name: "array_push", MinArgs: 1, MaxArgs: -1, RefParams: []int{0},
		Fn: func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
			_, arr, err := refArray(ctx, 0, "array")
			if err != nil {
				return nil, err
			}
			for _, v := range args[1:] {
				if _, err := arr.Append(value.CopyOnAssign(v)); err != nil {
					return nil, ctx.Errorf(diagnostics.ErrR002, "%v", err)
				}
			}
			return value.Int(arr.Size()), nil
		}})
	r.Register(&evaluator.Builtin{Name: "array_pop", MinArgs: 1, MaxArgs: 1, RefParams: []int{0},
		Fn: func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
			slot, arr, err := refArray(ctx, 0, "array")
			if err != nil {
				return nil, err
			}
			keys := arr.Keys()
			if len(keys) == 0 {
				return value.Null{}, nil
			}
			popped := arr.Remove(keys[len(keys)-1])
			slot.Set(reindexed(arr, false))
			return value.OrNull(popped), nil
		}})
	r.Register(&evaluator.Builtin{Name: "array_shift", MinArgs: 1, MaxArgs: 1, RefParams: []int{0},
		Fn: func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
			slot, arr, err := refArray(ctx, 0, "array")
			if err != nil {
				return nil, err
			}
			keys := arr.Keys()
			if len(keys) == 0 {
				return value.Null{}, nil
			}
			shifted := arr.Remove(keys[0])
			slot.Set(reindexed(arr, true))
			return value.OrNull(shifted), nil
		}})
	r.Register(&evaluator.Builtin{Name: "array_unshift", MinArgs: 1, MaxArgs: -1, RefParams: []int{0},
		Fn: func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
			slot, arr, err := refArray(ctx, 0, "array")
			if err != nil {
				return nil, err
			}
			out := value.NewList(copied(args[1:])...)
			appendEntries(out, arr, true)
			slot.Set(out)
			return value.Int(out.Size()), nil
		}})

	r.RegisterFunc("array_merge", 0, -1, func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
		out := value.NewArray()
		for i := range args {
			arr, err := arrayArg(ctx, args, i, "arrays")
			if err != nil {
				return nil, err
			}
			appendEntries(out, arr, true)
		}
		return out, nil
	})
	r.RegisterFunc("array_slice", 2, 4, func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
		arr, err := arrayArg(ctx, args, 0, "array")
		if err != nil {
			return nil, err
		}
		entries := arr.Entries()
		from, to := sliceBounds(len(entries), value.ToInt(args[1]), args, 2)
		preserve := optBool(args, 3)
		out := value.NewArray()
		for _, e := range entries[from:to] {
			if e.Key.IsInt() && !preserve {
				out.Append(value.CopyOnAssign(e.Value))
			} else {
				out.Put(e.Key, value.CopyOnAssign(e.Value))
			}
		}
		return out, nil
	})
	r.RegisterFunc("array_reverse", 1, 2, func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
		arr, err := arrayArg(ctx, args, 0, "array")
		if err != nil {
			return nil, err
		}
		entries := arr.Entries()
		preserve := optBool(args, 1)
		out := value.NewArray()
		for i := len(entries) - 1; i >= 0; i-- {
			e := entries[i]
			if e.Key.IsInt() && !preserve {
				out.Append(value.CopyOnAssign(e.Value))
			} else {
				out.Put(e.Key, value.CopyOnAssign(e.Value))
			}
		}
		return out, nil
	})
	r.RegisterFunc("array_sum", 1, 1, func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
		arr, err := arrayArg(ctx, args, 0, "array")
		if err != nil {
			return nil, err
		}
		var sum value.Value = value.Int(0)
		for v := range arr.ValueIter() {
			if _, isArr := v.(value.Array); isArr {
				continue
			}
			if sum, err = value.Add(sum, v); err != nil {
				return nil, err
			}
		}
		return sum, nil
	})
	r.RegisterFunc("array_flip", 1, 1, func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
		arr, err := arrayArg(ctx, args, 0, "array")
		if err != nil {
			return nil, err
		}
		out := value.NewArray()
		for k, v := range arr.Iter() {
			switch v.(type) {
			case value.Int, value.String:
				nk, _ := value.KeyFromValue(v)
				out.Put(nk, k.Value())
			default:
				ctx.Warn(diagnostics.ErrW004, "Can only flip string and integer values, entry skipped")
			}
		}
		return out, nil
	})
	r.RegisterFunc("array_combine", 2, 2, func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
		keys, err := arrayArg(ctx, args, 0, "keys")
		if err != nil {
			return nil, err
		}
		vals, err := arrayArg(ctx, args, 1, "values")
		if err != nil {
			return nil, err
		}
		if keys.Size() != vals.Size() {
			return nil, ctx.Errorf(diagnostics.ErrR002, "Argument #1 ($keys) and argument #2 ($values) must have the same number of elements")
		}
		out := value.NewArray()
		vs := valuesOf(vals)
		i := 0
		for kv := range keys.ValueIter() {
			k, err := value.KeyFromValue(kv)
			if err != nil {
				k = value.StrKey(value.ToString(kv))
			}
			out.Put(k, value.CopyOnAssign(vs[i]))
			i++
		}
		return out, nil
	})
	r.RegisterFunc("range", 2, 3, func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
		return numericRange(ctx, args)
	})

	r.RegisterFunc("array_map", 2, 2, func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
		arr, err := arrayArg(ctx, args, 1, "array")
		if err != nil {
			return nil, err
		}
		callback := value.ToString(args[0])
		out := value.NewArray()
		for k, v := range arr.Iter() {
			mapped, err := ctx.Call(callback, v)
			if err != nil {
				return nil, err
			}
			out.Put(k, value.CopyOnAssign(mapped))
		}
		return out, nil
	})
	r.RegisterFunc("array_filter", 1, 2, func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
		arr, err := arrayArg(ctx, args, 0, "array")
		if err != nil {
			return nil, err
		}
		out := value.NewArray()
		for k, v := range arr.Iter() {
			keep := value.ToBool(v)
			if len(args) > 1 && !value.IsNull(args[1]) {
				res, err := ctx.Call(value.ToString(args[1]), v)
				if err != nil {
					return nil, err
				}
				keep = value.ToBool(res)
			}
			if keep {
				out.Put(k, value.CopyOnAssign(v))
			}
		}
		return out, nil
	})

	registerSorts(r)
}

func countRecursive(arr value.Array, depth int) int64 {
	n := int64(arr.Size())
	if depth >= maxDumpDepth {
		return n
	}
	for v := range arr.ValueIter() {
		if inner, ok := v.(value.Array); ok {
			n += countRecursive(inner, depth+1)
		}
	}
	return n
}

func search(arr value.Array, needle value.Value, strict bool) (value.Key, bool, error) {
	equal := value.LooseEqualsChecked
	if strict {
		equal = value.StrictEqualsChecked
	}
	for k, v := range arr.Iter() {
		eq, err := equal(v, needle)
		if err != nil {
			return value.Key{}, false, err
		}
		if eq {
			return k, true, nil
		}
	}
	return value.Key{}, false, nil
}

func copied(vs []value.Value) []value.Value {
	out := make([]value.Value, len(vs))
	for i, v := range vs {
		out[i] = value.CopyOnAssign(v)
	}
	return out
}

// appendEntries adds src to dst, renumbering integer keys when renumber
// is set and overwriting string keys.
func appendEntries(dst *value.OrderedArray, src value.Array, renumber bool) {
	for k, v := range src.Iter() {
		if k.IsInt() && renumber {
			dst.Append(value.CopyOnAssign(v))
		} else {
			dst.Put(k, value.CopyOnAssign(v))
		}
	}
}

// reindexed rebuilds arr after a pop or shift. A shift renumbers integer
// keys from zero; both reset the append cursor.
func reindexed(arr value.Array, renumber bool) *value.OrderedArray {
	out := value.NewArray()
	appendEntries(out, arr, renumber)
	return out
}

// sliceBounds resolves array_slice's offset and optional length
// argument against n elements.
func sliceBounds(n int, offset int64, args []value.Value, lengthArg int) (int, int) {
	from := offset
	if from < 0 {
		from += int64(n)
	}
	from = max(0, min(from, int64(n)))
	to := int64(n)
	if lengthArg < len(args) && !value.IsNull(args[lengthArg]) {
		length := value.ToInt(args[lengthArg])
		if length < 0 {
			to = int64(n) + length
		} else {
			to = from + length
		}
	}
	to = max(from, min(to, int64(n)))
	return int(from), int(to)
}

func numericRange(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
	out := value.NewArray()
	if s, ok := args[0].(value.String); ok && len(s.Value) == 1 && !value.IsNumeric(s) {
		if e, ok := args[1].(value.String); ok && len(e.Value) == 1 {
			step := optInt(args, 2, 1)
			if step < 0 {
				step = -step
			}
			if step == 0 {
				return nil, ctx.Errorf(diagnostics.ErrR002, "Argument #3 ($step) cannot be 0")
			}
			a, b := int64(s.Value[0]), int64(e.Value[0])
			for c := a; (a <= b && c <= b) || (a > b && c >= b); {
				out.Append(value.Str(string([]byte{byte(c)})))
				if a <= b {
					c += step
				} else {
					c -= step
				}
			}
			return out, nil
		}
	}

	_, startFloat := args[0].(value.Float)
	_, endFloat := args[1].(value.Float)
	stepArg := value.Value(value.Int(1))
	if len(args) > 2 {
		stepArg = args[2]
	}
	_, stepFloat := stepArg.(value.Float)
	if startFloat || endFloat || stepFloat {
		a, b, step := value.ToFloat(args[0]), value.ToFloat(args[1]), value.ToFloat(stepArg)
		if step < 0 {
			step = -step
		}
		if step == 0 {
			return nil, ctx.Errorf(diagnostics.ErrR002, "Argument #3 ($step) cannot be 0")
		}
		n := int(math.Abs(b-a)/step + 1e-9)
		for i := 0; i <= n; i++ {
			if a <= b {
				out.Append(value.Float(a + float64(i)*step))
			} else {
				out.Append(value.Float(a - float64(i)*step))
			}
		}
		return out, nil
	}

	a, b, step := value.ToInt(args[0]), value.ToInt(args[1]), value.ToInt(stepArg)
	if step < 0 {
		step = -step
	}
	if step == 0 {
		return nil, ctx.Errorf(diagnostics.ErrR002, "Argument #3 ($step) cannot be 0")
	}
	if a <= b {
		for i := a; i <= b; i += step {
			out.Append(value.Int(i))
		}
	} else {
		for i := a; i >= b; i -= step {
			out.Append(value.Int(i))
		}
	}
	return out, nil
}

// registerSorts installs the in-place sorts. Each one replaces the
// argument's array with a sorted copy.
func registerSorts(r *evaluator.Registry) {
	type sorter struct {
		name     string
		byKey    bool
		reverse  bool
		keepKeys bool
	}
	for _, s := range []sorter{
		{name: "sort"},
		{name: "rsort", reverse: true},
		{name: "asort", keepKeys: true},
		{name: "arsort", keepKeys: true, reverse: true},
		{name: "ksort", byKey: true, keepKeys: true},
		{name: "krsort", byKey: true, keepKeys: true, reverse: true},
	} {
		r.Register(&evaluator.Builtin{Name: s.name, MinArgs: 1, MaxArgs: 2, RefParams: []int{0},
			Fn: func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
				slot, arr, err := refArray(ctx, 0, "array")
				if err != nil {
					return nil, err
				}
				flags := optInt(args, 1, sortRegular)
				entries := arr.Entries()
				var cmpErr error
				sort.SliceStable(entries, func(i, j int) bool {
					var a, b value.Value = entries[i].Value, entries[j].Value
					if s.byKey {
						a, b = entries[i].Key.Value(), entries[j].Key.Value()
					}
					c, err := compareForSort(a, b, flags)
					if err != nil {
						cmpErr = err
					}
					if s.reverse {
						return c > 0
					}
					return c < 0
				})
				if cmpErr != nil {
					return nil, cmpErr
				}
				out := value.NewArray()
				for _, e := range entries {
					if s.keepKeys {
						out.Put(e.Key, e.Value)
					} else {
						out.Append(e.Value)
					}
				}
				slot.Set(out)
				return value.Bool(true), nil
			}})
	}

	r.Register(&evaluator.Builtin{Name: "usort", MinArgs: 2, MaxArgs: 2, RefParams: []int{0},
		Fn: func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
			slot, arr, err := refArray(ctx, 0, "array")
			if err != nil {
				return nil, err
			}
			callback := value.ToString(args[1])
			vals := valuesOf(arr)
			var callErr error
			sort.SliceStable(vals, func(i, j int) bool {
				if callErr != nil {
					return false
				}
				res, err := ctx.Call(callback, vals[i], vals[j])
				if err != nil {
					callErr = err
					return false
				}
				return value.ToInt(res) < 0
			})
			if callErr != nil {
				return nil, callErr
			}
			slot.Set(value.NewList(vals...))
			return value.Bool(true), nil
		}})
}

func compareForSort(a, b value.Value, flags int64) (int, error) {
	switch flags {
	case sortNumeric:
		return value.Compare(value.Float(value.ToFloat(a)), value.Float(value.ToFloat(b))), nil
	case sortString:
		return strings.Compare(value.ToString(a), value.ToString(b)), nil
	}
	return value.CompareChecked(a, b)
}
