package evaluator

import (
	"github.com/funvibe/funphp/internal/ast"
	"github.com/funvibe/funphp/internal/diagnostics"
	"github.com/funvibe/funphp/internal/environment"
	"github.com/funvibe/funphp/internal/value"
)

// evalAssignExpression evaluates the target's dimensions, then the value,
// then stores a copy of the value.
func (e *Evaluator) evalAssignExpression(n *ast.AssignExpression) (value.Value, error) {
	lv, err := e.evalLValue(n.Target)
	if err != nil {
		return value.Null{}, err
	}
	v, err := e.evalExpression(n.Value)
	if err != nil {
		return value.Null{}, err
	}
	return e.assign(lv, value.CopyOnAssign(v))
}

// assign stores v, which must already be a copy, at lv.
func (e *Evaluator) assign(lv *lvalue, v value.Value) (value.Value, error) {
	if lv.isGlobals() {
		return value.Null{}, e.newError(diagnostics.ErrR002, lv.tok, "Cannot re-assign $GLOBALS")
	}
	if len(lv.keys) == 0 {
		s, err := e.env.Resolve(lv.name, environment.ModeWrite)
		if err != nil {
			return value.Null{}, e.valueError(err, lv.tok)
		}
		s.Set(v)
		return v, nil
	}

	holder, err := e.slotFor(lv.parent())
	if err != nil {
		return value.Null{}, err
	}
	tok := lv.toks[len(lv.toks)-1]
	last := lv.keys[len(lv.keys)-1]
	arr, err := e.containerIn(holder, tok)
	if err != nil {
		return value.Null{}, err
	}
	if last == nil {
		if _, err := arr.Append(v); err != nil {
			return value.Null{}, e.valueError(err, tok)
		}
	} else {
		arr.Put(*last, v)
	}
	if err := e.checkFaults(arr, tok); err != nil {
		return value.Null{}, err
	}
	return v, nil
}

// evalReferenceAssignExpression binds the target to the source's slot.
func (e *Evaluator) evalReferenceAssignExpression(n *ast.ReferenceAssignExpression) (value.Value, error) {
	target, err := e.evalLValue(n.Target)
	if err != nil {
		return value.Null{}, err
	}
	source, err := e.evalLValue(n.Source)
	if err != nil {
		return value.Null{}, err
	}
	s, err := e.refSlot(source)
	if err != nil {
		return value.Null{}, err
	}
	s.MarkReference()
	if err := e.bindSlot(target, s); err != nil {
		return value.Null{}, err
	}
	return s.Get(), nil
}

func (e *Evaluator) evalCompoundAssignExpression(n *ast.CompoundAssignExpression) (value.Value, error) {
	lv, err := e.evalLValue(n.Target)
	if err != nil {
		return value.Null{}, err
	}

	if n.Operator == "??" {
		if s, ok := e.lookupSlot(lv); ok && !value.IsNull(s.Get()) {
			return s.Get(), nil
		}
		v, err := e.evalExpression(n.Value)
		if err != nil {
			return value.Null{}, err
		}
		return e.assign(lv, value.CopyOnAssign(v))
	}

	right, err := e.evalExpression(n.Value)
	if err != nil {
		return value.Null{}, err
	}
	current := e.readLValue(lv)
	result, err := e.binaryOp(n.Operator, current, right, n.Token)
	if err != nil {
		return value.Null{}, err
	}
	return e.assign(lv, value.CopyOnAssign(result))
}

// readLValue reads the current value at lv, warning about missing
// variables and entries like a plain read would.
func (e *Evaluator) readLValue(lv *lvalue) value.Value {
	if s, ok := e.lookupSlot(lv); ok {
		return s.Get()
	}
	if _, ok := e.env.Lookup(lv.name); !ok {
		e.warn(diagnostics.ErrW001, lv.tok, "Undefined variable $%s", lv.name)
		return value.Null{}
	}
	if len(lv.keys) > 0 {
		if last := lv.keys[len(lv.keys)-1]; last != nil {
			e.warn(diagnostics.ErrW003, lv.toks[len(lv.toks)-1], "Undefined array key %s", keyDisplay(*last))
		}
	}
	return value.Null{}
}

func (e *Evaluator) evalIncDecExpression(n *ast.IncDecExpression) (value.Value, error) {
	lv, err := e.evalLValue(n.Target)
	if err != nil {
		return value.Null{}, err
	}
	old := e.readLValue(lv)
	var updated value.Value
	if n.Operator == "++" {
		updated, err = increment(old)
	} else {
		updated, err = decrement(old)
	}
	if err != nil {
		return value.Null{}, e.wrapError(diagnostics.ErrR004, n.Token, err, "Cannot %s %s", incDecVerb(n.Operator), operandType(old))
	}
	if _, err := e.assign(lv, updated); err != nil {
		return value.Null{}, err
	}
	if n.Prefix {
		return updated, nil
	}
	return old, nil
}

func incDecVerb(op string) string {
	if op == "++" {
		return "increment"
	}
	return "decrement"
}

// increment implements ++: null becomes 1, numeric strings are numbers,
// other non-empty strings step alphanumerically ("a" -> "b", "Az" -> "Ba",
// "zz" -> "aaa").
func increment(v value.Value) (value.Value, error) {
	switch x := value.OrNull(v).(type) {
	case value.Null:
		return value.Int(1), nil
	case value.Bool:
		return x, nil
	case value.String:
		if x.Value == "" {
			return value.Str("1"), nil
		}
		if value.NumericnessOf(x.Value) == value.Numeric {
			return value.Add(x, value.Int(1))
		}
		return value.String{Value: incrementString(x.Value), Encoding: x.Encoding}, nil
	case value.Int, value.Float:
		return value.Add(x, value.Int(1))
	}
	return nil, value.ErrUnsupportedOperand
}

// decrement implements --: null and non-numeric strings are unchanged,
// the empty string becomes -1.
func decrement(v value.Value) (value.Value, error) {
	switch x := value.OrNull(v).(type) {
	case value.Null, value.Bool:
		return x, nil
	case value.String:
		if x.Value == "" {
			return value.Int(-1), nil
		}
		if value.NumericnessOf(x.Value) == value.Numeric {
			return value.Sub(x, value.Int(1))
		}
		return x, nil
	case value.Int, value.Float:
		return value.Sub(x, value.Int(1))
	}
	return nil, value.ErrUnsupportedOperand
}

func incrementString(s string) string {
	b := []byte(s)
	for i := len(b) - 1; i >= 0; i-- {
		c := b[i]
		switch {
		case c >= 'a' && c < 'z', c >= 'A' && c < 'Z', c >= '0' && c < '9':
			b[i]++
			return string(b)
		case c == 'z':
			b[i] = 'a'
		case c == 'Z':
			b[i] = 'A'
		case c == '9':
			b[i] = '0'
		default:
			return string(b)
		}
	}
	// every position carried: prepend the first digit of the leading class
	var lead byte
	switch c := s[0]; {
	case c >= 'a' && c <= 'z':
		lead = 'a'
	case c >= 'A' && c <= 'Z':
		lead = 'A'
	default:
		lead = '1'
	}
	return string(lead) + string(b)
}
