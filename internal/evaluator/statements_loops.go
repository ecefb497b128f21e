package evaluator

import (
	"github.com/funvibe/funphp/internal/ast"
	"github.com/funvibe/funphp/internal/diagnostics"
	"github.com/funvibe/funphp/internal/token"
	"github.com/funvibe/funphp/internal/value"
)

func (e *Evaluator) execWhile(s *ast.WhileStatement) (flow, error) {
	e.loops++
	defer func() { e.loops-- }()
	for {
		cond, err := e.evalExpression(s.Condition)
		if err != nil {
			return flow{}, err
		}
		if !value.ToBool(cond) {
			return flow{}, nil
		}
		f, err := e.execStatement(s.Body)
		if err != nil {
			return flow{}, err
		}
		if stop, out := loopControl(f); stop {
			return out, nil
		}
	}
}

func (e *Evaluator) execDoWhile(s *ast.DoWhileStatement) (flow, error) {
	e.loops++
	defer func() { e.loops-- }()
	for {
		f, err := e.execStatement(s.Body)
		if err != nil {
			return flow{}, err
		}
		if stop, out := loopControl(f); stop {
			return out, nil
		}
		cond, err := e.evalExpression(s.Condition)
		if err != nil {
			return flow{}, err
		}
		if !value.ToBool(cond) {
			return flow{}, nil
		}
	}
}

func (e *Evaluator) execFor(s *ast.ForStatement) (flow, error) {
	if _, err := e.evalList(s.Init); err != nil {
		return flow{}, err
	}
	e.loops++
	defer func() { e.loops-- }()
	for {
		if len(s.Condition) > 0 {
			cond, err := e.evalList(s.Condition)
			if err != nil {
				return flow{}, err
			}
			if !value.ToBool(cond) {
				return flow{}, nil
			}
		} else if err := e.checkCancelled(s.Token); err != nil {
			return flow{}, err
		}
		f, err := e.execStatement(s.Body)
		if err != nil {
			return flow{}, err
		}
		if stop, out := loopControl(f); stop {
			return out, nil
		}
		if _, err := e.evalList(s.Update); err != nil {
			return flow{}, err
		}
	}
}

// evalList evaluates a comma separated clause and yields the last value.
func (e *Evaluator) evalList(exprs []ast.Expression) (value.Value, error) {
	var last value.Value = value.Null{}
	for _, expr := range exprs {
		v, err := e.evalExpression(expr)
		if err != nil {
			return value.Null{}, err
		}
		last = v
	}
	return last, nil
}

// execForeach iterates over a snapshot of the subject's entries, so the
// body may modify the subject freely.
func (e *Evaluator) execForeach(s *ast.ForeachStatement) (flow, error) {
	if s.ByRef {
		return e.execForeachByRef(s)
	}
	subject, err := e.evalExpression(s.Subject)
	if err != nil {
		return flow{}, err
	}
	entries, ok := e.iterationEntries(subject, s.Token)
	if !ok {
		return flow{}, nil
	}

	e.loops++
	defer func() { e.loops-- }()
	for _, entry := range entries {
		if err := e.bindForeachKey(s.Key, entry.Key); err != nil {
			return flow{}, err
		}
		lv, err := e.evalLValue(s.Value)
		if err != nil {
			return flow{}, err
		}
		if _, err := e.assign(lv, value.CopyOnAssign(entry.Value)); err != nil {
			return flow{}, err
		}
		f, err := e.execStatement(s.Body)
		if err != nil {
			return flow{}, err
		}
		if stop, out := loopControl(f); stop {
			return out, nil
		}
	}
	return flow{}, nil
}

// execForeachByRef binds the value variable to each element's slot. The
// keys present when the loop starts are visited; entries removed by the
// body are skipped.
func (e *Evaluator) execForeachByRef(s *ast.ForeachStatement) (flow, error) {
	subjectLV, err := e.evalLValue(s.Subject)
	if err != nil {
		return flow{}, err
	}
	holder, err := e.slotFor(subjectLV)
	if err != nil {
		return flow{}, err
	}
	arr, ok := value.AsArray(holder.Get())
	if !ok {
		e.warn(diagnostics.ErrW006, s.Token, "foreach() argument must be of type array|object, %s given", operandType(holder.Get()))
		return flow{}, nil
	}

	e.loops++
	defer func() { e.loops-- }()
	for _, k := range arr.Keys() {
		if !arr.ContainsKey(k) {
			continue
		}
		elem := arr.GetOrCreateSlot(k)
		elem.MarkReference()
		if err := e.bindForeachKey(s.Key, k); err != nil {
			return flow{}, err
		}
		lv, err := e.evalLValue(s.Value)
		if err != nil {
			return flow{}, err
		}
		if err := e.bindSlot(lv, elem); err != nil {
			return flow{}, err
		}
		f, err := e.execStatement(s.Body)
		if err != nil {
			return flow{}, err
		}
		if stop, out := loopControl(f); stop {
			return out, nil
		}
	}
	return flow{}, nil
}

func (e *Evaluator) bindForeachKey(target ast.Expression, k value.Key) error {
	if target == nil {
		return nil
	}
	lv, err := e.evalLValue(target)
	if err != nil {
		return err
	}
	_, err = e.assign(lv, k.Value())
	return err
}

func (e *Evaluator) iterationEntries(subject value.Value, tok token.Token) ([]value.Entry, bool) {
	if arr, ok := value.AsArray(subject); ok {
		return arr.Entries(), true
	}
	if obj, ok := subject.(*value.Object); ok {
		return obj.Props.Entries(), true
	}
	e.warn(diagnostics.ErrW006, tok, "foreach() argument must be of type array|object, %s given", operandType(subject))
	return nil, false
}
