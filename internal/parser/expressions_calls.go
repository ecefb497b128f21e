package parser

import (
	"github.com/funvibe/funphp/internal/ast"
	"github.com/funvibe/funphp/internal/diagnostics"
	"github.com/funvibe/funphp/internal/token"
)

// parseCallExpression parses name(args). The current token is the name.
func (p *Parser) parseCallExpression() ast.Expression {
	call := &ast.CallExpression{Token: p.curToken, Function: p.curToken.Lexeme}
	p.nextToken() // (
	call.Arguments = p.parseExpressionList(token.RPAREN)
	if call.Arguments == nil {
		return nil
	}
	return call
}

func (p *Parser) parseIssetExpression() ast.Expression {
	exp := &ast.IssetExpression{Token: p.curToken}
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	exp.Targets = p.parseExpressionList(token.RPAREN)
	if exp.Targets == nil {
		return nil
	}
	if len(exp.Targets) == 0 {
		p.addError(diagnostics.ErrP001, exp.Token, "isset() expects at least one argument")
		return nil
	}
	for _, t := range exp.Targets {
		if !isAssignable(t) {
			p.addError(diagnostics.ErrP001, t.GetToken(), "cannot use isset() on the result of an expression")
			return nil
		}
	}
	return exp
}

func (p *Parser) parseEmptyExpression() ast.Expression {
	exp := &ast.EmptyExpression{Token: p.curToken}
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	p.nextToken()
	exp.Target = p.parseExpression(LOWEST)
	if exp.Target == nil {
		return nil
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return exp
}
