package evaluator

import (
	"github.com/funvibe/funphp/internal/ast"
	"github.com/funvibe/funphp/internal/diagnostics"
	"github.com/funvibe/funphp/internal/token"
	"github.com/funvibe/funphp/internal/value"
)

type flowKind int

const (
	flowNormal flowKind = iota
	flowBreak
	flowContinue
	flowReturn
)

func (k flowKind) String() string {
	switch k {
	case flowBreak:
		return "break"
	case flowContinue:
		return "continue"
	case flowReturn:
		return "return"
	}
	return "normal"
}

// flow is how a statement finished. levels counts the loops a break or
// continue still has to leave.
type flow struct {
	kind   flowKind
	levels int
	value  value.Value
	tok    token.Token
}

func (e *Evaluator) execIf(s *ast.IfStatement) (flow, error) {
	cond, err := e.evalExpression(s.Condition)
	if err != nil {
		return flow{}, err
	}
	if value.ToBool(cond) {
		return e.execStatement(s.Consequence)
	}
	if s.Alternative != nil {
		return e.execStatement(s.Alternative)
	}
	return flow{}, nil
}

func (e *Evaluator) execLoopJump(kind flowKind, levels int, tok token.Token) (flow, error) {
	if levels < 1 {
		levels = 1
	}
	if e.loops == 0 {
		return flow{}, e.newError(diagnostics.ErrR006, tok, "'%s' not in the 'loop' context", kind)
	}
	if levels > e.loops {
		return flow{}, e.newError(diagnostics.ErrR006, tok, "Cannot '%s' %d levels", kind, levels)
	}
	return flow{kind: kind, levels: levels, tok: tok}, nil
}

// loopControl interprets how a loop body finished: stop reports whether
// the loop ends, out is the flow the loop itself finishes with.
func loopControl(f flow) (stop bool, out flow) {
	switch f.kind {
	case flowBreak:
		if f.levels > 1 {
			f.levels--
			return true, f
		}
		return true, flow{}
	case flowContinue:
		if f.levels > 1 {
			f.levels--
			return true, f
		}
		return false, flow{}
	case flowReturn:
		return true, f
	}
	return false, flow{}
}
