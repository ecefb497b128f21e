package pipeline

import (
	"github.com/funvibe/funphp/internal/ast"
	"github.com/funvibe/funphp/internal/diagnostics"
	"github.com/funvibe/funphp/internal/token"
	"github.com/funvibe/funphp/internal/value"
)

// Processor is one stage of the pipeline.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// TokenStream is the buffered token source handed from the lexer stage to
// the parser stage.
type TokenStream interface {
	Next() token.Token
	Peek(n int) []token.Token
}

// PipelineContext carries the state shared by all stages of one run.
type PipelineContext struct {
	SourceCode string
	FilePath   string

	// Template starts lexing in inline-HTML mode, as for a .php file.
	// Code passed with -r or through the embedding API starts in code mode.
	Template bool

	TokenStream TokenStream
	AstRoot     ast.Node

	Errors   []*diagnostics.DiagnosticError
	Warnings []diagnostics.Warning

	// Result is the value of the last top-level return, or Null.
	Result value.Value
}

// NewContext creates a context for the given source.
func NewContext(source, path string) *PipelineContext {
	return &PipelineContext{SourceCode: source, FilePath: path}
}

// HasErrors reports whether any stage recorded an error.
func (c *PipelineContext) HasErrors() bool {
	return len(c.Errors) > 0
}
