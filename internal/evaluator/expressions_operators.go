package evaluator

import (
	"fmt"

	"github.com/funvibe/funphp/internal/ast"
	"github.com/funvibe/funphp/internal/diagnostics"
	"github.com/funvibe/funphp/internal/token"
	"github.com/funvibe/funphp/internal/value"
)

func (e *Evaluator) evalPrefixExpression(n *ast.PrefixExpression) (value.Value, error) {
	if n.Operator == "@" {
		e.silence++
		defer func() { e.silence-- }()
		return e.evalExpression(n.Right)
	}

	right, err := e.evalExpression(n.Right)
	if err != nil {
		return value.Null{}, err
	}
	var result value.Value
	switch n.Operator {
	case "!":
		return value.Bool(!value.ToBool(right)), nil
	case "-":
		e.checkNumeric(right, n.Token)
		result, err = value.Neg(right)
	case "+":
		e.checkNumeric(right, n.Token)
		result, err = value.Plus(right)
	case "~":
		result, err = value.BitNot(right)
	default:
		return value.Null{}, e.newError(diagnostics.ErrR006, n.Token, "unknown operator: %s", n.Operator)
	}
	if err != nil {
		return value.Null{}, e.unaryError(err, n.Token, n.Operator, right)
	}
	return result, nil
}

func (e *Evaluator) unaryError(err error, tok token.Token, op string, v value.Value) error {
	return e.wrapError(diagnostics.ErrR004, tok, err, "Unsupported operand types: %s%s", op, operandType(v))
}

// evalInfixExpression evaluates both operands, left first, then applies
// the operator.
func (e *Evaluator) evalInfixExpression(n *ast.InfixExpression) (value.Value, error) {
	left, err := e.evalExpression(n.Left)
	if err != nil {
		return value.Null{}, err
	}
	right, err := e.evalExpression(n.Right)
	if err != nil {
		return value.Null{}, err
	}
	return e.binaryOp(n.Operator, left, right, n.Token)
}

func ordering(op string, c int) value.Value {
	switch op {
	case "<":
		return value.Bool(c < 0)
	case "<=":
		return value.Bool(c <= 0)
	case ">":
		return value.Bool(c > 0)
	case ">=":
		return value.Bool(c >= 0)
	}
	return value.Int(c)
}

// binaryOp applies an eager binary operator. It is shared by infix and
// compound assignment expressions.
func (e *Evaluator) binaryOp(op string, left, right value.Value, tok token.Token) (value.Value, error) {
	switch op {
	case ".":
		l, err := e.toString(left, tok)
		if err != nil {
			return value.Null{}, err
		}
		r, err := e.toString(right, tok)
		if err != nil {
			return value.Null{}, err
		}
		return value.Str(l + r), nil
	case "==", "!=", "<>":
		eq, err := value.LooseEqualsChecked(left, right)
		if err != nil {
			return value.Null{}, e.valueError(err, tok)
		}
		return value.Bool(eq == (op == "==")), nil
	case "===", "!==":
		eq, err := value.StrictEqualsChecked(left, right)
		if err != nil {
			return value.Null{}, e.valueError(err, tok)
		}
		return value.Bool(eq == (op == "===")), nil
	case "<", "<=", ">", ">=", "<=>":
		c, err := value.CompareChecked(left, right)
		if err != nil {
			return value.Null{}, e.valueError(err, tok)
		}
		return ordering(op, c), nil
	case "xor":
		return value.Bool(value.ToBool(left) != value.ToBool(right)), nil
	}

	arith, ok := arithmetic[op]
	if !ok {
		return value.Null{}, e.newError(diagnostics.ErrR006, tok, "unknown operator: %s", op)
	}
	if _, isArr := left.(value.Array); !isArr || op != "+" {
		e.checkNumeric(left, tok)
		e.checkNumeric(right, tok)
	}
	result, err := arith(left, right)
	if err != nil {
		return value.Null{}, e.operatorError(err, tok, op, left, right)
	}
	return result, nil
}

var arithmetic = map[string]func(a, b value.Value) (value.Value, error){
	"+":  value.Add,
	"-":  value.Sub,
	"*":  value.Mul,
	"/":  value.Div,
	"%":  value.Mod,
	"**": value.Pow,
	"&":  value.BitAnd,
	"|":  value.BitOr,
	"^":  value.BitXor,
	"<<": value.Shl,
	">>": value.Shr,
}

// evalLogicalExpression implements && || and ??. The right operand is
// only evaluated when the left one does not decide the result.
func (e *Evaluator) evalLogicalExpression(n *ast.LogicalExpression) (value.Value, error) {
	if n.Operator == "??" {
		left, err := e.evalQuiet(n.Left)
		if err != nil {
			return value.Null{}, err
		}
		if !value.IsNull(left) {
			return left, nil
		}
		return e.evalExpression(n.Right)
	}

	left, err := e.evalExpression(n.Left)
	if err != nil {
		return value.Null{}, err
	}
	truthy := value.ToBool(left)
	switch n.Operator {
	case "&&":
		if !truthy {
			return value.Bool(false), nil
		}
	case "||":
		if truthy {
			return value.Bool(true), nil
		}
	default:
		return value.Null{}, e.newError(diagnostics.ErrR006, n.Token, "unknown operator: %s", n.Operator)
	}
	right, err := e.evalExpression(n.Right)
	if err != nil {
		return value.Null{}, err
	}
	return value.Bool(value.ToBool(right)), nil
}

func (e *Evaluator) evalTernaryExpression(n *ast.TernaryExpression) (value.Value, error) {
	cond, err := e.evalExpression(n.Condition)
	if err != nil {
		return value.Null{}, err
	}
	if value.ToBool(cond) {
		if n.Consequence == nil {
			return cond, nil
		}
		return e.evalExpression(n.Consequence)
	}
	return e.evalExpression(n.Alternative)
}

func (e *Evaluator) evalCastExpression(n *ast.CastExpression) (value.Value, error) {
	v, err := e.evalExpression(n.Value)
	if err != nil {
		return value.Null{}, err
	}
	switch n.Type {
	case "int":
		return value.Int(value.ToInt(v)), nil
	case "float":
		return value.Float(value.ToFloat(v)), nil
	case "bool":
		return value.Bool(value.ToBool(v)), nil
	case "string":
		s, err := e.toString(v, n.Token)
		if err != nil {
			return value.Null{}, err
		}
		return value.Str(s), nil
	case "array":
		return castToArray(v), nil
	case "object":
		return castToObject(v), nil
	}
	return value.Null{}, e.newError(diagnostics.ErrR006, n.Token, "unknown cast type: %s", n.Type)
}

func castToArray(v value.Value) value.Value {
	switch x := value.OrNull(v).(type) {
	case value.Null:
		return value.NewArray()
	case *value.Object:
		return x.Props.CopyArray()
	case value.Array:
		return value.CopyOnAssign(x)
	default:
		return value.NewList(x)
	}
}

func castToObject(v value.Value) value.Value {
	switch x := value.OrNull(v).(type) {
	case *value.Object:
		return x
	case value.Null:
		return value.NewObject("stdClass")
	case value.Array:
		obj := value.NewObject("stdClass")
		for k, item := range x.Iter() {
			obj.Props.Put(k, value.CopyOnAssign(item))
		}
		return obj
	default:
		obj := value.NewObject("stdClass")
		obj.Props.Put(value.StrKey("scalar"), x)
		return obj
	}
}

func (e *Evaluator) evalPrintExpression(n *ast.PrintExpression) (value.Value, error) {
	v, err := e.evalExpression(n.Value)
	if err != nil {
		return value.Null{}, err
	}
	if err := e.echo(v, n.Token); err != nil {
		return value.Null{}, err
	}
	return value.Int(1), nil
}

// echo writes v to the output in its string form.
func (e *Evaluator) echo(v value.Value, tok token.Token) error {
	s, err := e.toString(v, tok)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprint(e.Out, s); err != nil {
		return e.wrapError(diagnostics.ErrR006, tok, err, "write failed: %v", err)
	}
	return nil
}
