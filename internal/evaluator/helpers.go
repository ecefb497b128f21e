package evaluator

import (
	"errors"
	"fmt"

	"github.com/funvibe/funphp/internal/diagnostics"
	"github.com/funvibe/funphp/internal/environment"
	"github.com/funvibe/funphp/internal/token"
	"github.com/funvibe/funphp/internal/value"
)

func (e *Evaluator) newError(code diagnostics.ErrorCode, tok token.Token, format string, a ...interface{}) *diagnostics.DiagnosticError {
	err := diagnostics.Errorf(code, tok, format, a...)
	err.File = e.CurrentFile
	err.StackTrace = e.stackTrace()
	return err
}

func (e *Evaluator) wrapError(code diagnostics.ErrorCode, tok token.Token, cause error, format string, a ...interface{}) *diagnostics.DiagnosticError {
	err := e.newError(code, tok, format, a...)
	err.Cause = cause
	return err
}

// PushCall adds a frame to the call stack
func (e *Evaluator) PushCall(name, file string, line, column int) {
	e.CallStack = append(e.CallStack, CallFrame{Name: name, File: file, Line: line, Column: column})
}

// PopCall removes the top frame from the call stack
func (e *Evaluator) PopCall() {
	if len(e.CallStack) > 0 {
		e.CallStack = e.CallStack[:len(e.CallStack)-1]
	}
}

func (e *Evaluator) stackTrace() []diagnostics.StackFrame {
	if len(e.CallStack) == 0 {
		return nil
	}
	trace := make([]diagnostics.StackFrame, len(e.CallStack))
	for i, f := range e.CallStack {
		trace[i] = diagnostics.StackFrame{Name: f.Name, File: f.File, Line: f.Line, Column: f.Column}
	}
	return trace
}

// warn records a warning unless an @ operator is active.
func (e *Evaluator) warn(code diagnostics.ErrorCode, tok token.Token, format string, a ...interface{}) {
	if e.silence > 0 {
		return
	}
	w := diagnostics.Warning{
		Code:    code,
		Message: fmt.Sprintf(format, a...),
		File:    e.CurrentFile,
		Line:    tok.Line,
		Column:  tok.Column,
	}
	e.warnings = append(e.warnings, w)
	if e.WarningHandler != nil {
		e.WarningHandler(w)
	}
}

// operandType names a value the way operator errors do.
func operandType(v value.Value) string {
	switch x := value.OrNull(v).(type) {
	case value.Null:
		return "null"
	case value.Bool:
		return "bool"
	case value.Int:
		return "int"
	case value.Float:
		return "float"
	case value.String:
		return "string"
	case *value.Object:
		return x.Class
	case *value.Resource:
		return "resource"
	default:
		return "array"
	}
}

// valueError turns an error from the value or environment packages into a
// diagnostic of the matching class.
func (e *Evaluator) valueError(err error, tok token.Token) error {
	var d *diagnostics.DiagnosticError
	switch {
	case errors.As(err, &d):
		return err
	case errors.Is(err, value.ErrDivisionByZero):
		return e.wrapError(diagnostics.ErrR001, tok, err, "Division by zero")
	case errors.Is(err, value.ErrModuloByZero):
		return e.wrapError(diagnostics.ErrR001, tok, err, "Modulo by zero")
	case errors.Is(err, value.ErrNegativeShift):
		return e.wrapError(diagnostics.ErrR006, tok, err, "Bit shift by negative number")
	case errors.Is(err, value.ErrNextIndexOccupied),
		errors.Is(err, environment.ErrGlobalAppend),
		errors.Is(err, value.ErrDelegateAppend):
		return e.wrapError(diagnostics.ErrR002, tok, err, "%s", capitalize(err.Error()))
	case errors.Is(err, value.ErrIllegalOffset):
		return e.wrapError(diagnostics.ErrR002, tok, err, "Illegal offset type")
	case errors.Is(err, environment.ErrStackOverflow):
		return e.wrapError(diagnostics.ErrF001, tok, err, "%s", capitalize(err.Error()))
	case errors.Is(err, value.ErrNestingTooDeep):
		return e.wrapError(diagnostics.ErrF002, tok, err, "%s", capitalize(err.Error()))
	}
	return e.wrapError(diagnostics.ErrR006, tok, err, "%s", err.Error())
}

// operatorError reports a failed binary operation.
func (e *Evaluator) operatorError(err error, tok token.Token, op string, l, r value.Value) error {
	if errors.Is(err, value.ErrUnsupportedOperand) {
		return e.wrapError(diagnostics.ErrR004, tok, err, "Unsupported operand types: %s %s %s", operandType(l), op, operandType(r))
	}
	return e.valueError(err, tok)
}

// checkFaults drains a callback failure recorded by a delegate array.
func (e *Evaluator) checkFaults(arr value.Array, tok token.Token) error {
	f, ok := arr.(value.Faulter)
	if !ok {
		return nil
	}
	if err := f.TakeErr(); err != nil {
		return e.wrapError(diagnostics.ErrR003, tok, err, "array delegate failed: %v", err)
	}
	return nil
}

// toString converts v for a string context, warning on arrays.
func (e *Evaluator) toString(v value.Value, tok token.Token) (string, error) {
	switch x := value.OrNull(v).(type) {
	case value.Float:
		return value.FormatFloat(float64(x), e.Precision), nil
	case value.Array:
		e.warn(diagnostics.ErrW005, tok, "Array to string conversion")
		return "Array", nil
	case *value.Object:
		return "", e.newError(diagnostics.ErrR006, tok, "Object of class %s could not be converted to string", x.Class)
	}
	return value.ToString(v), nil
}

// checkNumeric warns when a string operand of an arithmetic operator is
// not fully numeric.
func (e *Evaluator) checkNumeric(v value.Value, tok token.Token) {
	s, ok := v.(value.String)
	if !ok {
		return
	}
	if value.NumericnessOf(s.Value) != value.Numeric {
		e.warn(diagnostics.ErrW002, tok, "A non-numeric value encountered")
	}
}

// toKey normalizes an index value to an array key.
func (e *Evaluator) toKey(v value.Value, tok token.Token) (value.Key, error) {
	k, err := value.KeyFromValue(v)
	if err != nil {
		return k, e.wrapError(diagnostics.ErrR002, tok, err, "Cannot access offset of type %s on array", operandType(v))
	}
	return k, nil
}

func (e *Evaluator) checkCancelled(tok token.Token) error {
	if e.Context == nil {
		return nil
	}
	if err := e.Context.Err(); err != nil {
		return e.wrapError(diagnostics.ErrF003, tok, err, "Execution cancelled: %v", err)
	}
	return nil
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
