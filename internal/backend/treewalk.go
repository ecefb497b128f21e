package backend

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/funvibe/funphp/internal/ast"
	"github.com/funvibe/funphp/internal/config"
	"github.com/funvibe/funphp/internal/diagnostics"
	"github.com/funvibe/funphp/internal/environment"
	"github.com/funvibe/funphp/internal/evaluator"
	"github.com/funvibe/funphp/internal/pipeline"
	"github.com/funvibe/funphp/internal/value"
)

// Installer adds native functions and constants to a registry.
type Installer func(*evaluator.Registry) error

// TreeWalkBackend runs programs on the tree-walking evaluator. One backend
// is one session: globals and declared functions survive between runs.
type TreeWalkBackend struct {
	Config    *config.Config
	Env       *environment.Environment
	Evaluator *evaluator.Evaluator
}

// NewTreeWalk creates a backend configured from cfg. A nil cfg uses the
// defaults.
func NewTreeWalk(cfg *config.Config, installers ...Installer) (*TreeWalkBackend, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	env := environment.New(
		environment.WithMaxDepth(cfg.MaxCallDepth),
		environment.WithSuperglobals(cfg.SuperglobalNames()...),
	)
	eval := evaluator.New(env)
	eval.StrictVariables = cfg.StrictVariables
	eval.MaxEvalDepth = cfg.MaxEvalDepth
	eval.Precision = cfg.Precision

	if len(cfg.Server) > 0 {
		env.SetGlobalValue(config.ServerVarName, serverArray(cfg.Server))
	}

	for _, install := range installers {
		if err := install(eval.Registry); err != nil {
			return nil, fmt.Errorf("installing builtins: %w", err)
		}
	}
	return &TreeWalkBackend{Config: cfg, Env: env, Evaluator: eval}, nil
}

// serverArray builds $_SERVER with keys in sorted order.
func serverArray(vars map[string]string) *value.OrderedArray {
	arr := value.NewArray()
	for _, k := range slices.Sorted(maps.Keys(vars)) {
		arr.Put(value.StrKey(k), value.Str(vars[k]))
	}
	return arr
}

// SetOutput redirects echo and print.
func (b *TreeWalkBackend) SetOutput(w io.Writer) { b.Evaluator.Out = w }

// Run executes the program using tree-walk interpretation
func (b *TreeWalkBackend) Run(ctx *pipeline.PipelineContext) (value.Value, error) {
	if ctx.AstRoot == nil {
		return nil, fmt.Errorf("no AST to execute")
	}
	if len(ctx.Errors) > 0 {
		return nil, ctx.Errors[0]
	}
	if ctx.FilePath != "" {
		b.Evaluator.CurrentFile = ctx.FilePath
	} else {
		b.Evaluator.CurrentFile = "<stdin>"
	}
	return b.Evaluator.Eval(ctx.AstRoot, nil)
}

// RunProgramWithContext runs the program with a context for cancellation
func (b *TreeWalkBackend) RunProgramWithContext(ctx context.Context, program *ast.Program) (value.Value, error) {
	saved := b.Evaluator.Context
	b.Evaluator.Context = ctx
	defer func() { b.Evaluator.Context = saved }()
	return b.Evaluator.Eval(program, nil)
}

// TakeWarnings returns the warnings recorded since the previous call. In
// silent mode they are dropped.
func (b *TreeWalkBackend) TakeWarnings() []diagnostics.Warning {
	fresh := b.Evaluator.Warnings()
	b.Evaluator.ResetWarnings()
	if b.Config.Warnings == config.WarningsSilent {
		return nil
	}
	return fresh
}

// Name returns the backend name
func (b *TreeWalkBackend) Name() string {
	return "tree-walk"
}

// Close ends the session and reports how many slots the arena swept.
func (b *TreeWalkBackend) Close() int {
	return b.Env.Close()
}
