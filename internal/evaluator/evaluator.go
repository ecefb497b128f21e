package evaluator

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/funvibe/funphp/internal/ast"
	"github.com/funvibe/funphp/internal/config"
	"github.com/funvibe/funphp/internal/diagnostics"
	"github.com/funvibe/funphp/internal/environment"
	"github.com/funvibe/funphp/internal/value"
)

// CallFrame represents a single frame in the call stack
type CallFrame struct {
	Name   string // Function name
	File   string // Source file
	Line   int    // Line number of the call site
	Column int    // Column number of the call site
}

// Function is a user-declared function.
type Function struct {
	Name string
	Decl *ast.FunctionStatement
}

// WarningHandler receives every warning as it is recorded.
type WarningHandler func(diagnostics.Warning)

type Evaluator struct {
	// Context for cancellation, checked between statements
	Context context.Context

	Out io.Writer
	// Registry of native functions and constants
	Registry *Registry
	// CallStack for stack traces on errors
	CallStack []CallFrame
	// CurrentFile being evaluated
	CurrentFile string

	// StrictVariables turns undefined variable reads into R006 errors.
	StrictVariables bool
	// MaxEvalDepth bounds expression nesting.
	MaxEvalDepth int
	// Precision is the number of significant digits of float-to-string.
	Precision int
	// WarningHandler, when set, is called for each recorded warning.
	WarningHandler WarningHandler

	env       *environment.Environment
	functions map[string]*Function
	warnings  []diagnostics.Warning

	// silence is the nesting of active @ operators
	silence int
	// loops is the nesting of loops in the current function body
	loops int
	// evalDepth tracks the current nesting depth of expression evaluation
	evalDepth int
}

func New(env *environment.Environment) *Evaluator {
	if env == nil {
		env = environment.New()
	}
	return &Evaluator{
		Context:      context.Background(),
		Out:          os.Stdout,
		Registry:     NewRegistry(),
		CurrentFile:  "<stdin>",
		MaxEvalDepth: config.DefaultMaxEvalDepth,
		Precision:    config.DefaultPrecision,
		env:          env,
		functions:    make(map[string]*Function),
	}
}

// Env returns the environment the evaluator runs against.
func (e *Evaluator) Env() *environment.Environment { return e.env }

// Eval evaluates a program, statement or expression. A non-nil env
// replaces the evaluator's environment for this and later calls.
func (e *Evaluator) Eval(node ast.Node, env *environment.Environment) (value.Value, error) {
	if env != nil {
		e.env = env
	}
	switch n := node.(type) {
	case *ast.Program:
		return e.evalProgram(n)
	case ast.Statement:
		f, err := e.execStatement(n)
		if err != nil {
			return value.Null{}, err
		}
		if f.kind == flowReturn {
			return f.value, nil
		}
		return value.Null{}, nil
	case ast.Expression:
		return e.evalExpression(n)
	}
	return value.Null{}, nil
}

// evalProgram hoists top-level functions and runs the statements. A
// top-level return ends the script with its value.
func (e *Evaluator) evalProgram(program *ast.Program) (value.Value, error) {
	if program.File != "" {
		e.CurrentFile = program.File
	}
	for _, fn := range program.Functions() {
		if err := e.declareFunction(fn); err != nil {
			return value.Null{}, err
		}
	}
	f, err := e.execStatements(program.Statements)
	if err != nil {
		return value.Null{}, err
	}
	switch f.kind {
	case flowReturn:
		return f.value, nil
	case flowBreak, flowContinue:
		return value.Null{}, e.newError(diagnostics.ErrR006, f.tok, "'%s' not in the 'loop' context", f.kind)
	}
	return value.Null{}, nil
}

// Function looks up a user function case-insensitively.
func (e *Evaluator) Function(name string) (*Function, bool) {
	fn, ok := e.functions[strings.ToLower(name)]
	return fn, ok
}

// FunctionExists reports whether name is a user or native function.
func (e *Evaluator) FunctionExists(name string) bool {
	if _, ok := e.Function(name); ok {
		return true
	}
	_, ok := e.Registry.Lookup(name)
	return ok
}

func (e *Evaluator) declareFunction(decl *ast.FunctionStatement) error {
	key := strings.ToLower(decl.Name)
	if existing, ok := e.functions[key]; ok {
		if existing.Decl == decl {
			return nil
		}
		return e.newError(diagnostics.ErrR006, decl.Token, "Cannot redeclare %s()", decl.Name)
	}
	if _, ok := e.Registry.Lookup(key); ok {
		return e.newError(diagnostics.ErrR006, decl.Token, "Cannot redeclare %s()", decl.Name)
	}
	e.functions[key] = &Function{Name: decl.Name, Decl: decl}
	return nil
}

// Warnings returns the warnings recorded so far, oldest first.
func (e *Evaluator) Warnings() []diagnostics.Warning {
	out := make([]diagnostics.Warning, len(e.warnings))
	copy(out, e.warnings)
	return out
}

// ResetWarnings discards the recorded warnings.
func (e *Evaluator) ResetWarnings() { e.warnings = nil }

func (e *Evaluator) evalExpression(node ast.Expression) (value.Value, error) {
	e.evalDepth++
	defer func() { e.evalDepth-- }()
	if e.MaxEvalDepth > 0 && e.evalDepth > e.MaxEvalDepth {
		return value.Null{}, e.newError(diagnostics.ErrF002, node.GetToken(), "Maximum expression nesting level of %d reached", e.MaxEvalDepth)
	}

	switch n := node.(type) {
	case *ast.IntegerLiteral:
		return value.Int(n.Value), nil
	case *ast.FloatLiteral:
		return value.Float(n.Value), nil
	case *ast.StringLiteral:
		return value.Str(n.Value), nil
	case *ast.BooleanLiteral:
		return value.Bool(n.Value), nil
	case *ast.NullLiteral:
		return value.Null{}, nil
	case *ast.InterpolatedString:
		return e.evalInterpolatedString(n)
	case *ast.ConstantExpression:
		return e.evalConstant(n)
	case *ast.ArrayLiteral:
		return e.evalArrayLiteral(n)
	case *ast.Variable:
		return e.readVariable(n)
	case *ast.IndexExpression:
		return e.evalIndexExpression(n)
	case *ast.PrefixExpression:
		return e.evalPrefixExpression(n)
	case *ast.InfixExpression:
		return e.evalInfixExpression(n)
	case *ast.LogicalExpression:
		return e.evalLogicalExpression(n)
	case *ast.TernaryExpression:
		return e.evalTernaryExpression(n)
	case *ast.CastExpression:
		return e.evalCastExpression(n)
	case *ast.AssignExpression:
		return e.evalAssignExpression(n)
	case *ast.ReferenceAssignExpression:
		return e.evalReferenceAssignExpression(n)
	case *ast.CompoundAssignExpression:
		return e.evalCompoundAssignExpression(n)
	case *ast.IncDecExpression:
		return e.evalIncDecExpression(n)
	case *ast.CallExpression:
		return e.evalCallExpression(n)
	case *ast.IssetExpression:
		return e.evalIssetExpression(n)
	case *ast.EmptyExpression:
		return e.evalEmptyExpression(n)
	case *ast.PrintExpression:
		return e.evalPrintExpression(n)
	}
	return value.Null{}, e.newError(diagnostics.ErrR006, node.GetToken(), "cannot evaluate %T", node)
}
