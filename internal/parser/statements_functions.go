package parser

import (
	"fmt"

	"github.com/funvibe/funphp/internal/ast"
	"github.com/funvibe/funphp/internal/diagnostics"
	"github.com/funvibe/funphp/internal/token"
)

// parseFunctionStatement parses
//
//	function [&]name([type] [&]$p [= default], ...) [: type] { body }
//
// Type declarations are accepted and ignored.
func (p *Parser) parseFunctionStatement() ast.Statement {
	stmt := &ast.FunctionStatement{Token: p.curToken}
	if p.peekTokenIs(token.AMP) {
		p.nextToken()
	}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Name = p.curToken.Lexeme

	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	params, ok := p.parseParameters()
	if !ok {
		return nil
	}
	stmt.Parameters = params

	if p.peekTokenIs(token.COLON) {
		p.nextToken()
		p.nextToken()
		if !p.skipTypeDeclaration() {
			p.addError(diagnostics.ErrP001, p.curToken, fmt.Sprintf("syntax error, unexpected %q, expecting return type", p.curToken.Lexeme))
			return nil
		}
	}

	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	stmt.Body = p.parseBlockStatement()
	if stmt.Body == nil {
		return nil
	}
	return stmt
}

// parseParameters parses the parameter list after '('. It leaves the
// parser on ')'.
func (p *Parser) parseParameters() ([]*ast.Parameter, bool) {
	params := []*ast.Parameter{}
	seen := make(map[string]bool)
	for !p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		if p.skipTypeDeclaration() {
			p.nextToken()
		}
		param := &ast.Parameter{Token: p.curToken}
		if p.curTokenIs(token.AMP) {
			param.ByRef = true
			p.nextToken()
		}
		if !p.curTokenIs(token.VARIABLE) {
			p.addError(diagnostics.ErrP001, p.curToken, fmt.Sprintf("syntax error, unexpected %q, expecting variable", p.curToken.Lexeme))
			return nil, false
		}
		param.Name = p.curToken.Literal.(string)
		if seen[param.Name] {
			p.addError(diagnostics.ErrP001, p.curToken, "redefinition of parameter $"+param.Name)
			return nil, false
		}
		seen[param.Name] = true

		if p.peekTokenIs(token.ASSIGN) {
			p.nextToken()
			p.nextToken()
			if param.Default = p.parseExpression(LOWEST); param.Default == nil {
				return nil, false
			}
		}
		params = append(params, param)

		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}
	if !p.expectPeek(token.RPAREN) {
		return nil, false
	}
	return params, true
}

// skipTypeDeclaration steps over "?type" or "type" when the current token
// starts one. It leaves the parser on the type name.
func (p *Parser) skipTypeDeclaration() bool {
	if p.curTokenIs(token.QUESTION) {
		if !p.peekTokenIs(token.IDENT) && !p.peekTokenIs(token.ARRAY) && !p.peekTokenIs(token.NULL) {
			return false
		}
		p.nextToken()
		return true
	}
	return p.curTokenIs(token.IDENT) || p.curTokenIs(token.ARRAY) || p.curTokenIs(token.NULL)
}
