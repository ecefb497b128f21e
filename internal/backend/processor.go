package backend

import (
	"errors"
	"strings"

	"github.com/funvibe/funphp/internal/diagnostics"
	"github.com/funvibe/funphp/internal/pipeline"
	"github.com/funvibe/funphp/internal/token"
	"github.com/funvibe/funphp/internal/value"
)

// ExecutionProcessor implements pipeline.Processor to run a Backend
type ExecutionProcessor struct {
	Backend Backend
}

// NewExecutionProcessor creates a new pipeline step for the given backend
func NewExecutionProcessor(b Backend) *ExecutionProcessor {
	return &ExecutionProcessor{Backend: b}
}

// warningSource is implemented by backends that record warnings.
type warningSource interface {
	TakeWarnings() []diagnostics.Warning
}

func (p *ExecutionProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	// If previous steps failed, don't run execution
	if ctx.AstRoot == nil || len(ctx.Errors) > 0 {
		return ctx
	}

	result, err := p.Backend.Run(ctx)
	if ws, ok := p.Backend.(warningSource); ok {
		ctx.Warnings = append(ctx.Warnings, ws.TakeWarnings()...)
	}
	if err != nil {
		p.handleError(ctx, err)
		return ctx
	}
	ctx.Result = value.OrNull(result)
	return ctx
}

func (p *ExecutionProcessor) handleError(ctx *pipeline.PipelineContext, err error) {
	var d *diagnostics.DiagnosticError
	if errors.As(err, &d) {
		if d.File == "" {
			d.File = ctx.FilePath
		}
		ctx.Errors = append(ctx.Errors, d)
		return
	}

	msg := strings.TrimPrefix(err.Error(), "runtime error: ")
	d = diagnostics.Wrap(diagnostics.ErrR003, token.Token{}, err, msg)
	d.File = ctx.FilePath
	ctx.Errors = append(ctx.Errors, d)
}
