// Package diagnostics defines the error codes and error values shared by
// the lexer, parser and evaluator.
//
// Runtime conditions fall into three classes:
//   - warnings: recorded, evaluation continues with a fallback value
//   - recoverable errors: abort the current script execution
//   - fatal errors: abort the whole evaluation chain of the session
package diagnostics

import (
	"errors"
	"fmt"
	"strings"

	"github.com/funvibe/funphp/internal/token"
)

type ErrorCode string

const (
	// Lexer / parser
	ErrL001 ErrorCode = "L001" // illegal character
	ErrL002 ErrorCode = "L002" // unterminated string
	ErrP001 ErrorCode = "P001" // unexpected token
	ErrP002 ErrorCode = "P002" // no prefix parse function
	ErrP003 ErrorCode = "P003" // invalid literal
	ErrP004 ErrorCode = "P004" // invalid assignment target
	ErrP005 ErrorCode = "P005" // invalid reference source
	ErrP006 ErrorCode = "P006" // expression too complex

	// Warnings
	ErrW001 ErrorCode = "W001" // undefined variable
	ErrW002 ErrorCode = "W002" // non-numeric value
	ErrW003 ErrorCode = "W003" // undefined array key
	ErrW004 ErrorCode = "W004" // invalid offset read
	ErrW005 ErrorCode = "W005" // array to string conversion
	ErrW006 ErrorCode = "W006" // invalid foreach argument

	// Recoverable errors
	ErrR001 ErrorCode = "R001" // division by zero
	ErrR002 ErrorCode = "R002" // invalid array operation
	ErrR003 ErrorCode = "R003" // module failure
	ErrR004 ErrorCode = "R004" // unsupported operand types
	ErrR005 ErrorCode = "R005" // undefined function / bad call
	ErrR006 ErrorCode = "R006" // generic runtime error

	// Fatal errors
	ErrF001 ErrorCode = "F001" // call stack overflow
	ErrF002 ErrorCode = "F002" // resource exhaustion
	ErrF003 ErrorCode = "F003" // cancelled by host
)

// Class is the severity class of a code.
type Class int

const (
	ClassSyntax Class = iota
	ClassWarning
	ClassRecoverable
	ClassFatal
)

func (c Class) String() string {
	switch c {
	case ClassSyntax:
		return "Parse error"
	case ClassWarning:
		return "Warning"
	case ClassRecoverable:
		return "Error"
	default:
		return "Fatal error"
	}
}

// Class returns the severity class of the code.
func (c ErrorCode) Class() Class {
	switch {
	case strings.HasPrefix(string(c), "W"):
		return ClassWarning
	case strings.HasPrefix(string(c), "R"):
		return ClassRecoverable
	case strings.HasPrefix(string(c), "F"):
		return ClassFatal
	default:
		return ClassSyntax
	}
}

var codeNames = map[ErrorCode]string{
	ErrW001: "UndefinedVariableRead",
	ErrW002: "NonNumericCoercion",
	ErrW003: "UnsetArrayEntryRead",
	ErrW004: "InvalidOffsetRead",
	ErrW005: "ArrayToStringConversion",
	ErrW006: "InvalidForeachArgument",
	ErrR001: "DivisionByZero",
	ErrR002: "InvalidArrayOperation",
	ErrR003: "ModuleFailure",
	ErrR004: "UnsupportedOperand",
	ErrR005: "UndefinedFunction",
	ErrR006: "RuntimeError",
	ErrF001: "StackOverflow",
	ErrF002: "ResourceExhaustion",
	ErrF003: "Cancelled",
}

// Name returns the condition name of the code.
func (c ErrorCode) Name() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return string(c)
}

// StackFrame is one entry of a runtime stack trace.
type StackFrame struct {
	Name   string
	File   string
	Line   int
	Column int
}

// DiagnosticError is the error value produced by every stage.
type DiagnosticError struct {
	Code       ErrorCode
	Token      token.Token
	File       string
	Message    string
	Cause      error
	StackTrace []StackFrame
}

func NewError(code ErrorCode, tok token.Token, msg string) *DiagnosticError {
	return &DiagnosticError{Code: code, Token: tok, Message: msg}
}

// Errorf builds a diagnostic with a formatted message.
func Errorf(code ErrorCode, tok token.Token, format string, a ...interface{}) *DiagnosticError {
	return &DiagnosticError{Code: code, Token: tok, Message: fmt.Sprintf(format, a...)}
}

// Wrap builds a diagnostic around a lower-level cause.
func Wrap(code ErrorCode, tok token.Token, cause error, msg string) *DiagnosticError {
	return &DiagnosticError{Code: code, Token: tok, Message: msg, Cause: cause}
}

func (e *DiagnosticError) Error() string {
	var sb strings.Builder
	if e.File != "" {
		sb.WriteString(e.File)
		sb.WriteString(":")
	}
	if e.Token.Line > 0 {
		fmt.Fprintf(&sb, "%d:%d: ", e.Token.Line, e.Token.Column)
	} else if e.File != "" {
		sb.WriteString(" ")
	}
	fmt.Fprintf(&sb, "%s [%s]: %s", e.Code.Class(), e.Code, e.Message)
	return sb.String()
}

func (e *DiagnosticError) Unwrap() error { return e.Cause }

// Inspect renders the error with its stack trace, innermost call first.
func (e *DiagnosticError) Inspect() string {
	result := e.Error()
	if len(e.StackTrace) > 0 {
		result += "\nStack trace:"
		for i := len(e.StackTrace) - 1; i >= 0; i-- {
			frame := e.StackTrace[i]
			result += fmt.Sprintf("\n  #%d %s:%d %s()", len(e.StackTrace)-1-i, frame.File, frame.Line, frame.Name)
		}
	}
	return result
}

// CodeOf extracts the code of the first DiagnosticError in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var d *DiagnosticError
	if errors.As(err, &d) {
		return d.Code, true
	}
	return "", false
}

// IsClass reports whether err carries a code of the given class.
func IsClass(err error, c Class) bool {
	code, ok := CodeOf(err)
	return ok && code.Class() == c
}

// IsFatal reports whether err must abort the whole session run.
func IsFatal(err error) bool { return IsClass(err, ClassFatal) }

// Warning is a recorded non-fatal condition.
type Warning struct {
	Code    ErrorCode
	Message string
	File    string
	Line    int
	Column  int
}

func (w Warning) String() string {
	if w.Line > 0 {
		return fmt.Sprintf("Warning [%s]: %s on line %d", w.Code, w.Message, w.Line)
	}
	return fmt.Sprintf("Warning [%s]: %s", w.Code, w.Message)
}
