package evaluator

import (
	"strings"

	"github.com/funvibe/funphp/internal/ast"
	"github.com/funvibe/funphp/internal/diagnostics"
	"github.com/funvibe/funphp/internal/value"
)

func (e *Evaluator) evalInterpolatedString(n *ast.InterpolatedString) (value.Value, error) {
	var sb strings.Builder
	for _, part := range n.Parts {
		if lit, ok := part.(*ast.StringLiteral); ok {
			sb.WriteString(lit.Value)
			continue
		}
		v, err := e.evalExpression(part)
		if err != nil {
			return value.Null{}, err
		}
		s, err := e.toString(v, part.GetToken())
		if err != nil {
			return value.Null{}, err
		}
		sb.WriteString(s)
	}
	return value.Str(sb.String()), nil
}

func (e *Evaluator) evalConstant(n *ast.ConstantExpression) (value.Value, error) {
	switch strings.ToUpper(n.Name) {
	case "__LINE__":
		return value.Int(n.Token.Line), nil
	case "__FILE__":
		return value.Str(e.CurrentFile), nil
	case "__FUNCTION__":
		if len(e.CallStack) > 0 {
			return value.Str(e.CallStack[len(e.CallStack)-1].Name), nil
		}
		return value.Str(""), nil
	}
	if v, ok := e.Registry.Constant(n.Name); ok {
		return value.CopyOnAssign(v), nil
	}
	return value.Null{}, e.newError(diagnostics.ErrR006, n.Token, "Undefined constant \"%s\"", n.Name)
}

// evalArrayLiteral builds a fresh array. Values are copied on insertion;
// &$v items share the source slot.
func (e *Evaluator) evalArrayLiteral(n *ast.ArrayLiteral) (value.Value, error) {
	arr := value.NewArray()
	for _, item := range n.Items {
		var key *value.Key
		if item.Key != nil {
			kv, err := e.evalExpression(item.Key)
			if err != nil {
				return value.Null{}, err
			}
			k, err := e.toKey(kv, item.Key.GetToken())
			if err != nil {
				return value.Null{}, err
			}
			key = &k
		}

		if item.ByRef {
			lv, err := e.evalLValue(item.Value)
			if err != nil {
				return value.Null{}, err
			}
			s, err := e.refSlot(lv)
			if err != nil {
				return value.Null{}, err
			}
			s.MarkReference()
			if key != nil {
				arr.PutSlot(*key, s)
			} else if _, err := arr.AppendSlot(s); err != nil {
				return value.Null{}, e.valueError(err, n.Token)
			}
			continue
		}

		v, err := e.evalExpression(item.Value)
		if err != nil {
			return value.Null{}, err
		}
		v = value.CopyOnAssign(v)
		if key != nil {
			arr.Put(*key, v)
		} else if _, err := arr.Append(v); err != nil {
			return value.Null{}, e.valueError(err, n.Token)
		}
	}
	return arr, nil
}
