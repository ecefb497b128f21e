package parser

import (
	"github.com/funvibe/funphp/internal/ast"
	"github.com/funvibe/funphp/internal/diagnostics"
	"github.com/funvibe/funphp/internal/token"
)

// parseCondition parses "(expr)" after a keyword.
func (p *Parser) parseCondition() ast.Expression {
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	p.nextToken()
	cond := p.parseExpression(LOWEST)
	if cond == nil {
		return nil
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return cond
}

func (p *Parser) parseIfStatement() ast.Statement {
	stmt := &ast.IfStatement{Token: p.curToken}
	if stmt.Condition = p.parseCondition(); stmt.Condition == nil {
		return nil
	}
	p.nextToken()
	if stmt.Consequence = p.parseBody(); stmt.Consequence == nil {
		return nil
	}

	switch {
	case p.peekTokenIs(token.ELSEIF):
		p.nextToken()
		alt := p.parseIfStatement()
		if alt == nil {
			return nil
		}
		stmt.Alternative = alt
	case p.peekTokenIs(token.ELSE):
		p.nextToken()
		p.nextToken()
		if p.curTokenIs(token.IF) {
			alt := p.parseIfStatement()
			if alt == nil {
				return nil
			}
			stmt.Alternative = alt
		} else if stmt.Alternative = p.parseBody(); stmt.Alternative == nil {
			return nil
		}
	}
	return stmt
}

func (p *Parser) parseWhileStatement() ast.Statement {
	stmt := &ast.WhileStatement{Token: p.curToken}
	if stmt.Condition = p.parseCondition(); stmt.Condition == nil {
		return nil
	}
	p.nextToken()
	if stmt.Body = p.parseBody(); stmt.Body == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseDoWhileStatement() ast.Statement {
	stmt := &ast.DoWhileStatement{Token: p.curToken}
	p.nextToken()
	if stmt.Body = p.parseBody(); stmt.Body == nil {
		return nil
	}
	if !p.expectPeek(token.WHILE) {
		return nil
	}
	if stmt.Condition = p.parseCondition(); stmt.Condition == nil {
		return nil
	}
	if !p.expectTerminator() {
		return nil
	}
	return stmt
}

func (p *Parser) parseForStatement() ast.Statement {
	stmt := &ast.ForStatement{Token: p.curToken}
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	if stmt.Init = p.parseExpressionList(token.SEMICOLON); stmt.Init == nil {
		return nil
	}
	if stmt.Condition = p.parseExpressionList(token.SEMICOLON); stmt.Condition == nil {
		return nil
	}
	if stmt.Update = p.parseExpressionList(token.RPAREN); stmt.Update == nil {
		return nil
	}
	p.nextToken()
	if stmt.Body = p.parseBody(); stmt.Body == nil {
		return nil
	}
	return stmt
}

// parseForeachStatement parses foreach ($subject as [$k =>] [&]$v) body.
func (p *Parser) parseForeachStatement() ast.Statement {
	stmt := &ast.ForeachStatement{Token: p.curToken}
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	p.nextToken()
	if stmt.Subject = p.parseExpression(LOWEST); stmt.Subject == nil {
		return nil
	}
	if !p.expectPeek(token.AS) {
		return nil
	}
	p.nextToken()

	byRef := p.curTokenIs(token.AMP)
	if byRef {
		p.nextToken()
	}
	first := p.parseForeachTarget()
	if first == nil {
		return nil
	}
	if p.peekTokenIs(token.DOUBLE_ARROW) {
		if byRef {
			p.addError(diagnostics.ErrP005, first.GetToken(), "key element cannot be a reference")
			return nil
		}
		p.nextToken()
		p.nextToken()
		stmt.Key = first
		if byRef = p.curTokenIs(token.AMP); byRef {
			p.nextToken()
		}
		if stmt.Value = p.parseForeachTarget(); stmt.Value == nil {
			return nil
		}
	} else {
		stmt.Value = first
	}
	stmt.ByRef = byRef

	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	p.nextToken()
	if stmt.Body = p.parseBody(); stmt.Body == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseForeachTarget() ast.Expression {
	target := p.parseExpression(LOWEST)
	if target == nil {
		return nil
	}
	if !isAssignable(target) {
		p.addError(diagnostics.ErrP004, target.GetToken(), "cannot assign to "+describe(target))
		return nil
	}
	return target
}

func (p *Parser) parseReturnStatement() ast.Statement {
	stmt := &ast.ReturnStatement{Token: p.curToken}
	if !p.peekTokenIs(token.SEMICOLON) && !p.peekTokenIs(token.CLOSE_TAG) && !p.peekTokenIs(token.EOF) {
		p.nextToken()
		if stmt.Value = p.parseExpression(LOWEST); stmt.Value == nil {
			return nil
		}
	}
	if !p.expectTerminator() {
		return nil
	}
	return stmt
}

func (p *Parser) parseBreakStatement() ast.Statement {
	stmt := &ast.BreakStatement{Token: p.curToken}
	if stmt.Levels = p.parseLoopLevels(); stmt.Levels == 0 {
		return nil
	}
	return stmt
}

func (p *Parser) parseContinueStatement() ast.Statement {
	stmt := &ast.ContinueStatement{Token: p.curToken}
	if stmt.Levels = p.parseLoopLevels(); stmt.Levels == 0 {
		return nil
	}
	return stmt
}

// parseLoopLevels parses the optional numeric operand of break/continue and
// the terminator. It returns 0 after reporting an error.
func (p *Parser) parseLoopLevels() int {
	keyword := p.curToken.Lexeme
	levels := 1
	if p.peekTokenIs(token.INT) {
		p.nextToken()
		n := p.curToken.Literal.(int64)
		if n < 1 {
			p.addError(diagnostics.ErrP003, p.curToken, "'"+keyword+"' operator accepts only positive integers")
			return 0
		}
		levels = int(n)
	}
	if !p.expectTerminator() {
		return 0
	}
	return levels
}
