package lexer

import (
	"github.com/funvibe/funphp/internal/pipeline"
)

// LexerProcessor is the first pipeline stage. Lexing is lazy: the stream
// produces tokens as the parser consumes them.
type LexerProcessor struct{}

func (lp *LexerProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	var l *Lexer
	if ctx.Template {
		l = NewTemplate(ctx.SourceCode)
	} else {
		l = New(ctx.SourceCode)
	}
	ctx.TokenStream = NewTokenStream(l)
	return ctx
}
