package parser

import (
	"github.com/funvibe/funphp/internal/ast"
	"github.com/funvibe/funphp/internal/token"
)

func (p *Parser) parseVariable() ast.Expression {
	return &ast.Variable{Token: p.curToken, Name: p.curToken.Literal.(string)}
}

// parseIndexExpression parses a[i] and the append target a[].
func (p *Parser) parseIndexExpression(left ast.Expression) ast.Expression {
	exp := &ast.IndexExpression{Token: p.curToken, Left: left}
	if p.peekTokenIs(token.RBRACKET) {
		p.nextToken()
		return exp
	}
	p.nextToken()
	exp.Index = p.parseExpression(LOWEST)
	if exp.Index == nil {
		return nil
	}
	if !p.expectPeek(token.RBRACKET) {
		return nil
	}
	return exp
}

// parseIdentifier parses a call name(...) or a bare constant name.
func (p *Parser) parseIdentifier() ast.Expression {
	if p.peekTokenIs(token.LPAREN) {
		return p.parseCallExpression()
	}
	return &ast.ConstantExpression{Token: p.curToken, Name: p.curToken.Lexeme}
}
