package evaluator

import (
	"errors"
	"fmt"

	"github.com/funvibe/funphp/internal/ast"
	"github.com/funvibe/funphp/internal/diagnostics"
	"github.com/funvibe/funphp/internal/environment"
	"github.com/funvibe/funphp/internal/token"
	"github.com/funvibe/funphp/internal/value"
)

// boundArg is an evaluated argument: a copied value, or the caller's
// slot for a by-reference parameter.
type boundArg struct {
	v    value.Value
	slot *value.Slot
}

func (e *Evaluator) evalCallExpression(n *ast.CallExpression) (value.Value, error) {
	if fn, ok := e.Function(n.Function); ok {
		args, err := e.evalUserArgs(fn, n)
		if err != nil {
			return value.Null{}, err
		}
		return e.invoke(fn, args, n.Token)
	}
	if b, ok := e.Registry.Lookup(n.Function); ok {
		return e.callBuiltin(b, n)
	}
	return value.Null{}, e.newError(diagnostics.ErrR005, n.Token, "Call to undefined function %s()", n.Function)
}

func (e *Evaluator) evalUserArgs(fn *Function, n *ast.CallExpression) ([]boundArg, error) {
	params := fn.Decl.Parameters
	args := make([]boundArg, 0, len(n.Arguments))
	for i, a := range n.Arguments {
		if i < len(params) && params[i].ByRef {
			s, err := e.refArgument(a, fn.Name, i, params[i].Name)
			if err != nil {
				return nil, err
			}
			args = append(args, boundArg{slot: s})
			continue
		}
		v, err := e.evalExpression(a)
		if err != nil {
			return nil, err
		}
		args = append(args, boundArg{v: value.CopyOnAssign(v)})
	}
	return args, nil
}

// refArgument resolves a by-reference argument to the caller's slot,
// creating it when needed.
func (e *Evaluator) refArgument(a ast.Expression, fname string, i int, pname string) (*value.Slot, error) {
	switch a.(type) {
	case *ast.Variable, *ast.IndexExpression:
	default:
		return nil, e.newError(diagnostics.ErrR005, a.GetToken(), "%s(): Argument #%d ($%s) could not be passed by reference", fname, i+1, pname)
	}
	lv, err := e.evalLValue(a)
	if err != nil {
		return nil, err
	}
	return e.refSlot(lv)
}

func requiredParams(params []*ast.Parameter) int {
	required := 0
	for i, p := range params {
		if p.Default == nil {
			required = i + 1
		}
	}
	return required
}

// invoke runs a user function in a new frame. The frame and the call
// stack entry are popped on every exit path.
func (e *Evaluator) invoke(fn *Function, args []boundArg, tok token.Token) (value.Value, error) {
	params := fn.Decl.Parameters
	if required := requiredParams(params); len(args) < required {
		qualifier := "exactly"
		if required < len(params) {
			qualifier = "at least"
		}
		return value.Null{}, e.newError(diagnostics.ErrR005, tok, "Too few arguments to function %s(), %d passed and %s %d expected", fn.Name, len(args), qualifier, required)
	}

	e.PushCall(fn.Name, e.CurrentFile, tok.Line, tok.Column)
	defer e.PopCall()
	savedLoops := e.loops
	e.loops = 0
	defer func() { e.loops = savedLoops }()

	var result value.Value = value.Null{}
	err := e.env.WithFrame(fn.Name, func(*environment.Frame) error {
		for i, p := range params {
			if i < len(args) {
				if p.ByRef {
					args[i].slot.MarkReference()
					e.env.BindSlot(p.Name, args[i].slot)
				} else {
					e.env.Rebind(p.Name, args[i].v)
				}
				continue
			}
			var v value.Value = value.Null{}
			if p.Default != nil {
				dv, err := e.evalExpression(p.Default)
				if err != nil {
					return err
				}
				v = value.CopyOnAssign(dv)
			}
			e.env.Rebind(p.Name, v)
		}

		f, err := e.execBlock(fn.Decl.Body)
		if err != nil {
			return err
		}
		switch f.kind {
		case flowReturn:
			result = f.value
		case flowBreak, flowContinue:
			return e.newError(diagnostics.ErrR006, f.tok, "'%s' not in the 'loop' context", f.kind)
		}
		return nil
	})
	if err != nil {
		return value.Null{}, e.valueError(err, tok)
	}
	return result, nil
}

func (e *Evaluator) callBuiltin(b *Builtin, n *ast.CallExpression) (value.Value, error) {
	if err := e.checkArity(b, len(n.Arguments), n.Token); err != nil {
		return value.Null{}, err
	}
	args := make([]value.Value, len(n.Arguments))
	var refs []*value.Slot
	for i, a := range n.Arguments {
		if b.byRef(i) {
			s, err := e.refArgument(a, b.Name, i, fmt.Sprintf("arg%d", i+1))
			if err != nil {
				return value.Null{}, err
			}
			if refs == nil {
				refs = make([]*value.Slot, len(n.Arguments))
			}
			refs[i] = s
			args[i] = s.Get()
			continue
		}
		v, err := e.evalExpression(a)
		if err != nil {
			return value.Null{}, err
		}
		args[i] = v
	}
	return e.callNative(b, args, refs, n.Token)
}

func (e *Evaluator) checkArity(b *Builtin, argc int, tok token.Token) error {
	if argc >= b.MinArgs && (b.MaxArgs < 0 || argc <= b.MaxArgs) {
		return nil
	}
	var expect string
	switch {
	case b.MinArgs == b.MaxArgs:
		expect = fmt.Sprintf("exactly %d", b.MinArgs)
	case argc < b.MinArgs:
		expect = fmt.Sprintf("at least %d", b.MinArgs)
	default:
		expect = fmt.Sprintf("at most %d", b.MaxArgs)
	}
	noun := "arguments"
	if expect[len(expect)-2:] == " 1" {
		noun = "argument"
	}
	return e.newError(diagnostics.ErrR005, tok, "%s() expects %s %s, %d given", b.Name, expect, noun, argc)
}

// callNative runs a native function. Failures that are not diagnostics
// become ModuleFailure, panics included.
func (e *Evaluator) callNative(b *Builtin, args []value.Value, refs []*value.Slot, tok token.Token) (result value.Value, err error) {
	ctx := &CallContext{Eval: e, Env: e.env, Out: e.Out, Name: b.Name, Token: tok, refs: refs}
	defer func() {
		if r := recover(); r != nil {
			result = value.Null{}
			err = e.newError(diagnostics.ErrR003, tok, "%s(): %v", b.Name, r)
		}
	}()
	result, err = b.Fn(ctx, args)
	if err != nil {
		var d *diagnostics.DiagnosticError
		if errors.As(err, &d) {
			return value.Null{}, err
		}
		if errors.Is(err, value.ErrNestingTooDeep) {
			return value.Null{}, e.wrapError(diagnostics.ErrF002, tok, err, "%s(): %s", b.Name, capitalize(err.Error()))
		}
		return value.Null{}, e.wrapError(diagnostics.ErrR003, tok, err, "%s(): %v", b.Name, err)
	}
	return value.OrNull(result), nil
}

// CallFunction calls a user or native function with by-value arguments.
// By-reference parameters receive fresh slots.
func (e *Evaluator) CallFunction(name string, tok token.Token, args ...value.Value) (value.Value, error) {
	if fn, ok := e.Function(name); ok {
		bound := make([]boundArg, len(args))
		for i, a := range args {
			a = value.CopyOnAssign(a)
			if i < len(fn.Decl.Parameters) && fn.Decl.Parameters[i].ByRef {
				bound[i] = boundArg{slot: value.NewSlot(a)}
			} else {
				bound[i] = boundArg{v: a}
			}
		}
		return e.invoke(fn, bound, tok)
	}
	if b, ok := e.Registry.Lookup(name); ok {
		if err := e.checkArity(b, len(args), tok); err != nil {
			return value.Null{}, err
		}
		var refs []*value.Slot
		if len(b.RefParams) > 0 {
			refs = make([]*value.Slot, len(args))
			for i, a := range args {
				if b.byRef(i) {
					refs[i] = value.NewSlot(a)
				}
			}
		}
		return e.callNative(b, args, refs, tok)
	}
	return value.Null{}, e.newError(diagnostics.ErrR005, tok, "Call to undefined function %s()", name)
}
