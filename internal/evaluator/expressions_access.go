package evaluator

import (
	"github.com/funvibe/funphp/internal/ast"
	"github.com/funvibe/funphp/internal/config"
	"github.com/funvibe/funphp/internal/diagnostics"
	"github.com/funvibe/funphp/internal/environment"
	"github.com/funvibe/funphp/internal/token"
	"github.com/funvibe/funphp/internal/value"
)

func (e *Evaluator) readVariable(n *ast.Variable) (value.Value, error) {
	s, err := e.env.Resolve(n.Name, environment.ModeRead)
	if err != nil {
		if e.StrictVariables {
			return value.Null{}, e.wrapError(diagnostics.ErrR006, n.Token, err, "Undefined variable $%s", n.Name)
		}
		e.warn(diagnostics.ErrW001, n.Token, "Undefined variable $%s", n.Name)
		return value.Null{}, nil
	}
	return s.Get(), nil
}

func (e *Evaluator) evalIndexExpression(n *ast.IndexExpression) (value.Value, error) {
	if n.Index == nil {
		return value.Null{}, e.newError(diagnostics.ErrR002, n.Token, "Cannot use [] for reading")
	}
	base, err := e.evalExpression(n.Left)
	if err != nil {
		return value.Null{}, err
	}
	kv, err := e.evalExpression(n.Index)
	if err != nil {
		return value.Null{}, err
	}
	return e.readIndex(base, kv, n.Token, false)
}

// readIndex reads base[kv]. Quiet reads (isset, ??) record no warnings
// and yield Null for every miss.
func (e *Evaluator) readIndex(base, kv value.Value, tok token.Token, quiet bool) (value.Value, error) {
	if arr, ok := value.AsArray(base); ok {
		k, err := e.toKey(kv, tok)
		if err != nil {
			return value.Null{}, err
		}
		v := arr.Get(k)
		if err := e.checkFaults(arr, tok); err != nil {
			return value.Null{}, err
		}
		if value.IsUnset(v) {
			if !quiet {
				e.warn(diagnostics.ErrW003, tok, "Undefined array key %s", keyDisplay(k))
			}
			return value.Null{}, nil
		}
		return v, nil
	}

	switch x := value.OrNull(base).(type) {
	case value.String:
		i := value.ToInt(kv)
		size := int64(len(x.Value))
		if i < 0 {
			i += size
		}
		if i < 0 || i >= size {
			if quiet {
				return value.Null{}, nil
			}
			e.warn(diagnostics.ErrW004, tok, "Uninitialized string offset %d", value.ToInt(kv))
			return value.Str(""), nil
		}
		return value.Str(x.Value[i : i+1]), nil
	default:
		if !quiet {
			e.warn(diagnostics.ErrW004, tok, "Trying to access array offset on value of type %s", operandType(base))
		}
		return value.Null{}, nil
	}
}

func keyDisplay(k value.Key) string {
	if k.IsInt() {
		return k.String()
	}
	return `"` + k.String() + `"`
}

// evalQuiet evaluates a variable or index chain without warnings, the
// way isset and ?? look at their operand.
func (e *Evaluator) evalQuiet(expr ast.Expression) (value.Value, error) {
	switch n := expr.(type) {
	case *ast.Variable:
		if s, ok := e.env.Lookup(n.Name); ok {
			return s.Get(), nil
		}
		return value.Null{}, nil
	case *ast.IndexExpression:
		if n.Index == nil {
			return value.Null{}, e.newError(diagnostics.ErrR002, n.Token, "Cannot use [] for reading")
		}
		base, err := e.evalQuiet(n.Left)
		if err != nil {
			return value.Null{}, err
		}
		kv, err := e.evalExpression(n.Index)
		if err != nil {
			return value.Null{}, err
		}
		return e.readIndex(base, kv, n.Token, true)
	}
	return e.evalExpression(expr)
}

func (e *Evaluator) evalIssetExpression(n *ast.IssetExpression) (value.Value, error) {
	for _, target := range n.Targets {
		v, err := e.evalQuiet(target)
		if err != nil {
			return value.Null{}, err
		}
		if value.IsNull(v) {
			return value.Bool(false), nil
		}
	}
	return value.Bool(true), nil
}

func (e *Evaluator) evalEmptyExpression(n *ast.EmptyExpression) (value.Value, error) {
	v, err := e.evalQuiet(n.Target)
	if err != nil {
		return value.Null{}, err
	}
	return value.Bool(!value.ToBool(v)), nil
}

// lvalue is an evaluated write target: a variable followed by zero or
// more dimensions. A nil key is an append dimension.
type lvalue struct {
	tok  token.Token
	name string
	keys []*value.Key
	toks []token.Token
}

func (lv *lvalue) parent() *lvalue {
	n := len(lv.keys) - 1
	return &lvalue{tok: lv.tok, name: lv.name, keys: lv.keys[:n], toks: lv.toks[:n]}
}

func (lv *lvalue) isGlobals() bool {
	return lv.name == config.GlobalsVarName && len(lv.keys) == 0
}

// evalLValue evaluates the dimension expressions of a write target, left
// to right, without touching the target itself.
func (e *Evaluator) evalLValue(expr ast.Expression) (*lvalue, error) {
	switch n := expr.(type) {
	case *ast.Variable:
		return &lvalue{tok: n.Token, name: n.Name}, nil
	case *ast.IndexExpression:
		lv, err := e.evalLValue(n.Left)
		if err != nil {
			return nil, err
		}
		var key *value.Key
		if n.Index != nil {
			kv, err := e.evalExpression(n.Index)
			if err != nil {
				return nil, err
			}
			k, err := e.toKey(kv, n.Token)
			if err != nil {
				return nil, err
			}
			key = &k
		}
		lv.keys = append(lv.keys, key)
		lv.toks = append(lv.toks, n.Token)
		return lv, nil
	}
	return nil, e.newError(diagnostics.ErrR002, expr.GetToken(), "Cannot use temporary expression in write context")
}

// slotFor returns the slot lv designates, creating variables and entries
// and autovivifying containers along the way.
func (e *Evaluator) slotFor(lv *lvalue) (*value.Slot, error) {
	s, err := e.env.Resolve(lv.name, environment.ModeWrite)
	if err != nil {
		return nil, e.valueError(err, lv.tok)
	}
	for i, k := range lv.keys {
		tok := lv.toks[i]
		arr, err := e.containerIn(s, tok)
		if err != nil {
			return nil, err
		}
		if k == nil {
			key, err := arr.Append(value.Null{})
			if err != nil {
				return nil, e.valueError(err, tok)
			}
			s = arr.GetOrCreateSlot(key)
		} else {
			s = arr.GetOrCreateSlot(*k)
		}
		if err := e.checkFaults(arr, tok); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// refSlot is slotFor for the source of a reference. $GLOBALS itself
// cannot be aliased: a variable holding the view would let the global
// table contain itself.
func (e *Evaluator) refSlot(lv *lvalue) (*value.Slot, error) {
	if lv.isGlobals() {
		return nil, e.newError(diagnostics.ErrR002, lv.tok, "Cannot acquire reference to $GLOBALS")
	}
	return e.slotFor(lv)
}

// lookupSlot is slotFor without creation: it reports false as soon as a
// variable, entry or container is missing.
func (e *Evaluator) lookupSlot(lv *lvalue) (*value.Slot, bool) {
	s, ok := e.env.Lookup(lv.name)
	if !ok {
		return nil, false
	}
	for _, k := range lv.keys {
		if k == nil {
			return nil, false
		}
		arr, ok := value.AsArray(s.Get())
		if !ok {
			return nil, false
		}
		if oa, ok := arr.(*value.OrderedArray); ok {
			if s, ok = oa.Slot(*k); !ok {
				return nil, false
			}
			continue
		}
		if !arr.ContainsKey(*k) {
			return nil, false
		}
		s = arr.GetOrCreateSlot(*k)
	}
	return s, true
}

// containerIn returns the array held by s for a write through it. Null is
// replaced by a fresh array in place; every other scalar, including false
// and strings, cannot be indexed for writing.
func (e *Evaluator) containerIn(s *value.Slot, tok token.Token) (value.Array, error) {
	v := s.Get()
	if arr, ok := value.AsArray(v); ok {
		return arr, nil
	}
	switch x := value.OrNull(v).(type) {
	case value.Null:
	case value.String:
		return nil, e.newError(diagnostics.ErrR002, tok, "Cannot use a scalar value of type string as an array")
	case *value.Object:
		return nil, e.newError(diagnostics.ErrR002, tok, "Cannot use object of type %s as array", x.Class)
	default:
		return nil, e.newError(diagnostics.ErrR002, tok, "Cannot use a scalar value of type %s as an array", operandType(x))
	}
	arr := value.NewArray()
	s.Set(arr)
	return arr, nil
}

// slotBinder is implemented by arrays whose entries can be rebound to a
// shared slot.
type slotBinder interface {
	PutSlot(k value.Key, s *value.Slot)
}

type slotAppender interface {
	AppendSlot(s *value.Slot) (value.Key, error)
}

// bindSlot makes lv an alias of s.
func (e *Evaluator) bindSlot(lv *lvalue, s *value.Slot) error {
	if lv.isGlobals() {
		return e.newError(diagnostics.ErrR002, lv.tok, "Cannot re-assign $GLOBALS")
	}
	if len(lv.keys) == 0 {
		e.env.BindSlot(lv.name, s)
		return nil
	}
	holder, err := e.slotFor(lv.parent())
	if err != nil {
		return err
	}
	tok := lv.toks[len(lv.toks)-1]
	arr, err := e.containerIn(holder, tok)
	if err != nil {
		return err
	}
	last := lv.keys[len(lv.keys)-1]
	if last == nil {
		app, ok := arr.(slotAppender)
		if !ok {
			return e.newError(diagnostics.ErrR002, tok, "Cannot append a reference to %s", arrayKind(arr))
		}
		if _, err := app.AppendSlot(s); err != nil {
			return e.valueError(err, tok)
		}
		return nil
	}
	b, ok := arr.(slotBinder)
	if !ok {
		return e.newError(diagnostics.ErrR002, tok, "Cannot create references to elements of %s", arrayKind(arr))
	}
	b.PutSlot(*last, s)
	return nil
}

func arrayKind(arr value.Array) string {
	switch arr.(type) {
	case *environment.GlobalArrayView:
		return "$GLOBALS"
	case *value.OrderedArray:
		return "array"
	}
	return "an array delegate"
}
