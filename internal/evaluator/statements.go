package evaluator

import (
	"io"

	"github.com/funvibe/funphp/internal/ast"
	"github.com/funvibe/funphp/internal/diagnostics"
	"github.com/funvibe/funphp/internal/value"
)

func (e *Evaluator) execStatements(stmts []ast.Statement) (flow, error) {
	for _, stmt := range stmts {
		f, err := e.execStatement(stmt)
		if err != nil || f.kind != flowNormal {
			return f, err
		}
	}
	return flow{}, nil
}

func (e *Evaluator) execBlock(block *ast.BlockStatement) (flow, error) {
	if block == nil {
		return flow{}, nil
	}
	return e.execStatements(block.Statements)
}

func (e *Evaluator) execStatement(stmt ast.Statement) (flow, error) {
	if err := e.checkCancelled(stmt.GetToken()); err != nil {
		return flow{}, err
	}

	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		_, err := e.evalExpression(s.Expression)
		return flow{}, err
	case *ast.EchoStatement:
		return flow{}, e.execEcho(s)
	case *ast.InlineHTMLStatement:
		if _, err := io.WriteString(e.Out, s.Text); err != nil {
			return flow{}, e.wrapError(diagnostics.ErrR006, s.Token, err, "write failed: %v", err)
		}
		return flow{}, nil
	case *ast.BlockStatement:
		return e.execBlock(s)
	case *ast.IfStatement:
		return e.execIf(s)
	case *ast.WhileStatement:
		return e.execWhile(s)
	case *ast.DoWhileStatement:
		return e.execDoWhile(s)
	case *ast.ForStatement:
		return e.execFor(s)
	case *ast.ForeachStatement:
		return e.execForeach(s)
	case *ast.FunctionStatement:
		return flow{}, e.declareFunction(s)
	case *ast.ReturnStatement:
		return e.execReturn(s)
	case *ast.GlobalStatement:
		e.execGlobal(s)
		return flow{}, nil
	case *ast.UnsetStatement:
		return flow{}, e.execUnset(s)
	case *ast.BreakStatement:
		return e.execLoopJump(flowBreak, s.Levels, s.Token)
	case *ast.ContinueStatement:
		return e.execLoopJump(flowContinue, s.Levels, s.Token)
	}
	return flow{}, e.newError(diagnostics.ErrR006, stmt.GetToken(), "cannot execute %T", stmt)
}

func (e *Evaluator) execEcho(s *ast.EchoStatement) error {
	for _, expr := range s.Values {
		v, err := e.evalExpression(expr)
		if err != nil {
			return err
		}
		if err := e.echo(v, expr.GetToken()); err != nil {
			return err
		}
	}
	return nil
}

func (e *Evaluator) execReturn(s *ast.ReturnStatement) (flow, error) {
	var v value.Value = value.Null{}
	if s.Value != nil {
		rv, err := e.evalExpression(s.Value)
		if err != nil {
			return flow{}, err
		}
		v = rv
	}
	return flow{kind: flowReturn, value: v, tok: s.Token}, nil
}

// execGlobal binds each name to the global slot of the same name. In the
// global scope the names already are the globals.
func (e *Evaluator) execGlobal(s *ast.GlobalStatement) {
	if e.env.InGlobalScope() {
		return
	}
	for _, v := range s.Names {
		e.env.BindGlobal(v.Name)
	}
}

// execUnset removes variables and array entries. Missing targets are
// ignored.
func (e *Evaluator) execUnset(s *ast.UnsetStatement) error {
	for _, target := range s.Targets {
		lv, err := e.evalLValue(target)
		if err != nil {
			return err
		}
		if len(lv.keys) == 0 {
			if !lv.isGlobals() {
				e.env.Unset(lv.name)
			}
			continue
		}
		holder, ok := e.lookupSlot(lv.parent())
		if !ok {
			continue
		}
		last := lv.keys[len(lv.keys)-1]
		tok := lv.toks[len(lv.toks)-1]
		if last == nil {
			return e.newError(diagnostics.ErrR002, tok, "Cannot use [] for unsetting")
		}
		arr, ok := value.AsArray(holder.Get())
		if !ok {
			if str, isStr := holder.Get().(value.String); isStr && str.Value != "" {
				return e.newError(diagnostics.ErrR002, tok, "Cannot unset string offsets")
			}
			continue
		}
		arr.Remove(*last)
		if err := e.checkFaults(arr, tok); err != nil {
			return err
		}
	}
	return nil
}
