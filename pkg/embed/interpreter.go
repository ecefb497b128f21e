// Package funphp embeds the interpreter in Go programs.
//
//	in, err := funphp.New(funphp.WithOutput(&buf))
//	if err != nil { ... }
//	defer in.Close()
//	in.SetGlobal("user", map[string]any{"name": "ada"})
//	in.Eval(`echo "hi ", $user['name'];`)
package funphp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"reflect"

	"github.com/funvibe/funphp/internal/backend"
	"github.com/funvibe/funphp/internal/config"
	"github.com/funvibe/funphp/internal/diagnostics"
	"github.com/funvibe/funphp/internal/evaluator"
	"github.com/funvibe/funphp/internal/lexer"
	"github.com/funvibe/funphp/internal/modules"
	"github.com/funvibe/funphp/internal/parser"
	"github.com/funvibe/funphp/internal/pipeline"
	"github.com/funvibe/funphp/internal/token"
	"github.com/funvibe/funphp/internal/value"
)

// Aliases for the runtime types that appear in this package's API.
type (
	Value          = value.Value
	Warning        = diagnostics.Warning
	ErrorCode      = diagnostics.ErrorCode
	Config         = config.Config
	CallContext    = evaluator.CallContext
	NativeFunction = evaluator.NativeFunction
)

// ErrClosed is returned by every call into an interpreter after Close.
var ErrClosed = errors.New("interpreter is closed")

// CodeOf returns the diagnostic code carried by err, if any.
func CodeOf(err error) (ErrorCode, bool) {
	return diagnostics.CodeOf(err)
}

// Interpreter is one session: globals, declared functions and the
// session store live until Close.
type Interpreter struct {
	backend    *backend.TreeWalkBackend
	runtime    *modules.Runtime
	marshaller *Marshaller
	logger     *log.Logger
	warnings   []diagnostics.Warning
	closed     bool
}

type options struct {
	cfg        *config.Config
	configPath string
	out        io.Writer
	logger     *log.Logger
	packages   []string
}

type Option func(*options)

// WithConfig uses cfg instead of the defaults.
func WithConfig(cfg *Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithConfigFile loads a funphp.yaml file.
func WithConfigFile(path string) Option {
	return func(o *options) { o.configPath = path }
}

// WithOutput redirects echo and print. The default is os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

// WithLogger forwards every reported warning to l.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithPackages limits the installed library packages. All are installed
// by default.
func WithPackages(names ...string) Option {
	return func(o *options) { o.packages = names }
}

// New creates an interpreter.
func New(opts ...Option) (*Interpreter, error) {
	o := &options{out: os.Stdout}
	for _, opt := range opts {
		opt(o)
	}
	cfg := o.cfg
	if o.configPath != "" {
		loaded, err := config.LoadConfig(o.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if cfg == nil {
		cfg = config.Default()
	}

	rt, err := modules.Open(cfg, o.packages...)
	if err != nil {
		return nil, err
	}
	b, err := backend.NewTreeWalk(cfg, rt.Install)
	if err != nil {
		rt.Close()
		return nil, err
	}
	b.SetOutput(o.out)
	return &Interpreter{
		backend:    b,
		runtime:    rt,
		marshaller: NewMarshaller(),
		logger:     o.logger,
	}, nil
}

// Eval runs code. The code starts in PHP mode; a leading <?php is allowed.
// It returns the value of a top-level return, or Null.
func (in *Interpreter) Eval(code string) (Value, error) {
	return in.EvalContext(context.Background(), code)
}

// EvalContext is Eval with cancellation checked between statements.
func (in *Interpreter) EvalContext(ctx context.Context, code string) (Value, error) {
	return in.run(ctx, pipeline.NewContext(code, "<eval>"))
}

// EvalFile runs a source file. Text outside <?php ?> tags is echoed.
func (in *Interpreter) EvalFile(path string) (Value, error) {
	if in.closed {
		return nil, ErrClosed
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	pctx := pipeline.NewContext(string(content), path)
	pctx.Template = true
	return in.run(context.Background(), pctx)
}

func (in *Interpreter) run(ctx context.Context, pctx *pipeline.PipelineContext) (Value, error) {
	if in.closed {
		return nil, ErrClosed
	}
	eval := in.backend.Evaluator
	saved := eval.Context
	eval.Context = ctx
	defer func() { eval.Context = saved }()

	pctx = pipeline.New(
		&lexer.LexerProcessor{},
		&parser.ParserProcessor{},
		backend.NewExecutionProcessor(in.backend),
	).Run(pctx)

	for _, w := range pctx.Warnings {
		if in.logger != nil {
			in.logger.Print(w.String())
		}
	}
	in.warnings = append(in.warnings, pctx.Warnings...)

	switch len(pctx.Errors) {
	case 0:
		return pctx.Result, nil
	case 1:
		return nil, pctx.Errors[0]
	}
	errs := make([]error, len(pctx.Errors))
	for i, e := range pctx.Errors {
		errs[i] = e
	}
	return nil, errors.Join(errs...)
}

// SetGlobal assigns a Go value to the global variable name (without $).
func (in *Interpreter) SetGlobal(name string, val interface{}) error {
	if in.closed {
		return ErrClosed
	}
	v, err := in.marshaller.ToValue(val)
	if err != nil {
		return fmt.Errorf("global $%s: %w", name, err)
	}
	in.backend.Env.SetGlobalValue(name, value.CopyOnAssign(v))
	return nil
}

// Global returns the value of the global variable name, or Null.
func (in *Interpreter) Global(name string) Value {
	return value.OrNull(in.backend.Env.GetGlobalValue(name))
}

// Get returns the global variable name converted to a Go value.
func (in *Interpreter) Get(name string) (interface{}, error) {
	if in.closed {
		return nil, ErrClosed
	}
	v := in.backend.Env.GetGlobalValue(name)
	if value.IsUnset(v) {
		return nil, fmt.Errorf("variable $%s not found", name)
	}
	return in.marshaller.FromValue(v, nil)
}

// Call calls a script or native function by name with Go arguments.
func (in *Interpreter) Call(name string, args ...interface{}) (interface{}, error) {
	if in.closed {
		return nil, ErrClosed
	}
	vals := make([]value.Value, len(args))
	for i, arg := range args {
		v, err := in.marshaller.ToValue(arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		vals[i] = v
	}
	result, err := in.backend.Evaluator.CallFunction(name, token.Token{}, vals...)
	if err != nil {
		return nil, err
	}
	return in.marshaller.FromValue(result, nil)
}

// Register makes fn callable from scripts. fn is either a NativeFunction
// or any Go func; the latter has its arguments
// and results converted by the marshaller. A trailing error result is
// reported as a script error.
func (in *Interpreter) Register(name string, fn interface{}) error {
	if in.closed {
		return ErrClosed
	}
	r := in.backend.Evaluator.Registry
	switch f := fn.(type) {
	case NativeFunction:
		r.RegisterFunc(name, 0, -1, f)
		return nil
	case func(*CallContext, []Value) (Value, error):
		r.RegisterFunc(name, 0, -1, f)
		return nil
	}

	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func {
		return fmt.Errorf("register %s: %T is not a function", name, fn)
	}
	ft := fv.Type()
	min, max := ft.NumIn(), ft.NumIn()
	if ft.IsVariadic() {
		min, max = ft.NumIn()-1, -1
	}
	r.RegisterFunc(name, min, max, func(_ *evaluator.CallContext, args []value.Value) (value.Value, error) {
		return in.hostCall(fv, args)
	})
	return nil
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func (in *Interpreter) hostCall(fn reflect.Value, args []value.Value) (value.Value, error) {
	fnType := fn.Type()
	numIn := fnType.NumIn()

	goArgs := make([]reflect.Value, len(args))
	for i, arg := range args {
		var targetType reflect.Type
		if fnType.IsVariadic() && i >= numIn-1 {
			targetType = fnType.In(numIn - 1).Elem()
		} else {
			targetType = fnType.In(i)
		}
		val, err := in.marshaller.FromValue(arg, targetType)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		goArgs[i] = reflectOf(val, targetType)
	}

	results := fn.Call(goArgs)
	if n := len(results); n > 0 && fnType.Out(n-1) == errorType {
		if err, _ := results[n-1].Interface().(error); err != nil {
			return nil, err
		}
		results = results[:n-1]
	}

	switch len(results) {
	case 0:
		return value.Null{}, nil
	case 1:
		return in.marshaller.ToValue(results[0].Interface())
	}
	// several results come back as a list
	list := make([]interface{}, len(results))
	for i, res := range results {
		list[i] = res.Interface()
	}
	return in.marshaller.ToValue(list)
}

// Warnings returns every warning reported since New.
func (in *Interpreter) Warnings() []Warning {
	return append([]Warning(nil), in.warnings...)
}

// Close writes back an active session, unwinds the environment and sweeps
// its arena. Close is idempotent.
func (in *Interpreter) Close() error {
	if in.closed {
		return nil
	}
	in.closed = true
	err := in.runtime.Close()
	in.backend.Close()
	return err
}
