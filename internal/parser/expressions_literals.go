package parser

import (
	"fmt"

	"github.com/funvibe/funphp/internal/ast"
	"github.com/funvibe/funphp/internal/diagnostics"
	"github.com/funvibe/funphp/internal/lexer"
	"github.com/funvibe/funphp/internal/pipeline"
	"github.com/funvibe/funphp/internal/token"
)

func (p *Parser) parseIntegerLiteral() ast.Expression {
	return &ast.IntegerLiteral{Token: p.curToken, Value: p.curToken.Literal.(int64)}
}

func (p *Parser) parseFloatLiteral() ast.Expression {
	return &ast.FloatLiteral{Token: p.curToken, Value: p.curToken.Literal.(float64)}
}

func (p *Parser) parseBoolean() ast.Expression {
	return &ast.BooleanLiteral{Token: p.curToken, Value: p.curTokenIs(token.TRUE)}
}

func (p *Parser) parseNull() ast.Expression {
	return &ast.NullLiteral{Token: p.curToken}
}

func (p *Parser) parseStringLiteral() ast.Expression {
	return &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal.(string)}
}

// parseInterpolatedString turns the parts split by the lexer into literal
// and expression nodes. Each embedded expression is parsed by a nested
// parser that reports errors at the position of the string.
func (p *Parser) parseInterpolatedString() ast.Expression {
	tok := p.curToken
	raw := tok.Literal.([]token.StringPart)
	is := &ast.InterpolatedString{Token: tok}
	for _, part := range raw {
		if !part.IsExpr {
			is.Parts = append(is.Parts, &ast.StringLiteral{Token: tok, Value: part.Text})
			continue
		}
		exp := p.parseEmbeddedExpression(part.Expr, tok)
		if exp == nil {
			return nil
		}
		is.Parts = append(is.Parts, exp)
	}
	return is
}

// parseEmbeddedExpression parses a string as an expression
func (p *Parser) parseEmbeddedExpression(exprStr string, at token.Token) ast.Expression {
	stream := &anchoredStream{inner: lexer.NewTokenStream(lexer.New(exprStr)), line: at.Line, column: at.Column}
	embeddedParser := New(stream, p.ctx)
	embeddedParser.depth = p.depth
	exp := embeddedParser.parseExpression(LOWEST)
	if exp != nil && !embeddedParser.peekTokenIs(token.EOF) {
		p.addError(diagnostics.ErrP001, at, fmt.Sprintf("unexpected %q in string interpolation", embeddedParser.peekToken.Lexeme))
		return nil
	}
	return exp
}

// anchoredStream reports every token at a fixed source position.
type anchoredStream struct {
	inner        pipeline.TokenStream
	line, column int
}

func (s *anchoredStream) anchor(tok token.Token) token.Token {
	tok.Line, tok.Column = s.line, s.column
	return tok
}

func (s *anchoredStream) Next() token.Token { return s.anchor(s.inner.Next()) }

func (s *anchoredStream) Peek(n int) []token.Token {
	toks := append([]token.Token(nil), s.inner.Peek(n)...)
	for i := range toks {
		toks[i] = s.anchor(toks[i])
	}
	return toks
}

// parseArrayLiteral parses [a, k => v, &$r] and array(...).
func (p *Parser) parseArrayLiteral() ast.Expression {
	lit := &ast.ArrayLiteral{Token: p.curToken, Items: []*ast.ArrayItem{}}
	end := token.RBRACKET
	if p.curTokenIs(token.ARRAY) {
		if !p.expectPeek(token.LPAREN) {
			return nil
		}
		end = token.RPAREN
	}

	for !p.peekTokenIs(end) {
		p.nextToken()
		item := p.parseArrayItem()
		if item == nil {
			return nil
		}
		lit.Items = append(lit.Items, item)
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}
	if !p.expectPeek(end) {
		return nil
	}
	return lit
}

func (p *Parser) parseArrayItem() *ast.ArrayItem {
	item := &ast.ArrayItem{}
	if p.curTokenIs(token.AMP) {
		return p.parseRefArrayValue(item)
	}
	first := p.parseExpression(LOWEST)
	if first == nil {
		return nil
	}
	if !p.peekTokenIs(token.DOUBLE_ARROW) {
		item.Value = first
		return item
	}
	p.nextToken() // =>
	p.nextToken()
	item.Key = first
	if p.curTokenIs(token.AMP) {
		return p.parseRefArrayValue(item)
	}
	item.Value = p.parseExpression(LOWEST)
	if item.Value == nil {
		return nil
	}
	return item
}

func (p *Parser) parseRefArrayValue(item *ast.ArrayItem) *ast.ArrayItem {
	amp := p.curToken
	p.nextToken()
	item.ByRef = true
	item.Value = p.parseExpression(LOWEST)
	if item.Value == nil {
		return nil
	}
	if !isAssignable(item.Value) {
		p.addError(diagnostics.ErrP005, amp, "only variables can be taken by reference")
		return nil
	}
	return item
}
