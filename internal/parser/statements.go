package parser

import (
	"github.com/funvibe/funphp/internal/ast"
	"github.com/funvibe/funphp/internal/diagnostics"
	"github.com/funvibe/funphp/internal/token"
)

// parseStatement parses one statement starting at the current token and
// leaves the parser on its last token. Empty statements and tags yield nil.
func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case token.OPEN_TAG, token.CLOSE_TAG, token.SEMICOLON:
		return nil
	case token.INLINE_HTML:
		return &ast.InlineHTMLStatement{Token: p.curToken, Text: p.curToken.Literal.(string)}
	case token.ECHO:
		return p.parseEchoStatement()
	case token.LBRACE:
		if block := p.parseBlockStatement(); block != nil {
			return block
		}
		return nil
	case token.IF, token.ELSEIF:
		return p.parseIfStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.DO:
		return p.parseDoWhileStatement()
	case token.FOR:
		return p.parseForStatement()
	case token.FOREACH:
		return p.parseForeachStatement()
	case token.FUNCTION:
		return p.parseFunctionStatement()
	case token.RETURN:
		return p.parseReturnStatement()
	case token.GLOBAL:
		return p.parseGlobalStatement()
	case token.UNSET:
		return p.parseUnsetStatement()
	case token.BREAK:
		return p.parseBreakStatement()
	case token.CONTINUE:
		return p.parseContinueStatement()
	default:
		return p.parseExpressionStatement()
	}
}

// expectTerminator consumes the ';' or '?>' ending a simple statement. The
// last statement of the input may omit it.
func (p *Parser) expectTerminator() bool {
	if p.peekTokenIs(token.SEMICOLON) || p.peekTokenIs(token.CLOSE_TAG) {
		p.nextToken()
		return true
	}
	if p.peekTokenIs(token.EOF) {
		return true
	}
	p.peekError(token.SEMICOLON)
	return false
}

func (p *Parser) parseExpressionStatement() ast.Statement {
	stmt := &ast.ExpressionStatement{Token: p.curToken}
	stmt.Expression = p.parseExpression(LOWEST)
	if stmt.Expression == nil {
		return nil
	}
	if !p.expectTerminator() {
		return nil
	}
	return stmt
}

func (p *Parser) parseEchoStatement() ast.Statement {
	stmt := &ast.EchoStatement{Token: p.curToken}
	for {
		p.nextToken()
		exp := p.parseExpression(LOWEST)
		if exp == nil {
			return nil
		}
		stmt.Values = append(stmt.Values, exp)
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}
	if !p.expectTerminator() {
		return nil
	}
	return stmt
}

func (p *Parser) parseBlockStatement() *ast.BlockStatement {
	block := &ast.BlockStatement{Token: p.curToken, Statements: []ast.Statement{}}
	p.nextToken()

	for !p.curTokenIs(token.RBRACE) {
		if p.curTokenIs(token.EOF) {
			p.addError(diagnostics.ErrP001, p.curToken, `syntax error, unexpected end of file, expecting "}"`)
			return nil
		}
		errCount := len(p.ctx.Errors)
		stmt := p.parseStatement()
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}
		if len(p.ctx.Errors) > errCount {
			p.skipToStatementBoundary()
			if p.curTokenIs(token.RBRACE) || p.curTokenIs(token.EOF) {
				return nil
			}
		}
		p.nextToken()
	}
	return block
}

// parseBody parses the body of a control structure: a block or a single
// statement.
func (p *Parser) parseBody() ast.Statement {
	if p.curTokenIs(token.LBRACE) {
		block := p.parseBlockStatement()
		if block == nil {
			return nil
		}
		return block
	}
	tok := p.curToken
	errCount := len(p.ctx.Errors)
	stmt := p.parseStatement()
	if stmt == nil {
		if len(p.ctx.Errors) > errCount {
			return nil
		}
		return &ast.BlockStatement{Token: tok, Statements: []ast.Statement{}}
	}
	return stmt
}

func (p *Parser) parseGlobalStatement() ast.Statement {
	stmt := &ast.GlobalStatement{Token: p.curToken}
	for {
		if !p.expectPeek(token.VARIABLE) {
			return nil
		}
		stmt.Names = append(stmt.Names, &ast.Variable{Token: p.curToken, Name: p.curToken.Literal.(string)})
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}
	if !p.expectTerminator() {
		return nil
	}
	return stmt
}

func (p *Parser) parseUnsetStatement() ast.Statement {
	stmt := &ast.UnsetStatement{Token: p.curToken}
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	stmt.Targets = p.parseExpressionList(token.RPAREN)
	if stmt.Targets == nil {
		return nil
	}
	for _, t := range stmt.Targets {
		if !isAssignable(t) {
			p.addError(diagnostics.ErrP004, t.GetToken(), "cannot unset "+describe(t))
			return nil
		}
		if idx, ok := t.(*ast.IndexExpression); ok && idx.Index == nil {
			p.addError(diagnostics.ErrP004, t.GetToken(), "cannot use [] for unsetting")
			return nil
		}
	}
	if !p.expectTerminator() {
		return nil
	}
	return stmt
}
