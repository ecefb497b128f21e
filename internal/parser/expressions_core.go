package parser

import (
	"fmt"

	"github.com/funvibe/funphp/internal/ast"
	"github.com/funvibe/funphp/internal/diagnostics"
	"github.com/funvibe/funphp/internal/token"
)

func (p *Parser) parseExpression(precedence int) ast.Expression {
	p.depth++
	defer func() { p.depth-- }()

	if p.depth > MaxRecursionDepth {
		if !p.inRecursionRecovery {
			p.addError(diagnostics.ErrP006, p.curToken, "expression too complex: recursion depth limit exceeded")
			p.inRecursionRecovery = true
		}
		// Skip the rest of the statement to avoid a cascade of errors.
		p.skipToStatementBoundary()
		return nil
	}
	if p.depth == 1 {
		p.inRecursionRecovery = false
	}

	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken)
		return nil
	}
	leftExp := prefix()
	if leftExp == nil {
		return nil
	}

	for {
		// An assignment binds to the writable expression right before it
		// whatever the surrounding precedence, so "!$a = f()" and
		// "$x && $y = 1" assign first.
		_, isCompound := compoundOperators[p.peekToken.Type]
		attachAssign := (p.peekTokenIs(token.ASSIGN) || isCompound) && isAssignable(leftExp)

		if !attachAssign && precedence >= p.peekPrecedence() {
			break
		}

		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}
		p.nextToken()
		nextExp := infix(leftExp)
		if nextExp == nil {
			return nil
		}
		leftExp = nextExp
	}

	return leftExp
}

func (p *Parser) noPrefixParseFnError(tok token.Token) {
	what := tok.Lexeme
	if tok.Type == token.EOF {
		what = "end of file"
	}
	p.addError(diagnostics.ErrP002, tok, fmt.Sprintf("syntax error, unexpected %q", what))
}

// parseIllegal reports a lexer error carried by an ILLEGAL token.
func (p *Parser) parseIllegal() ast.Expression {
	msg, _ := p.curToken.Literal.(string)
	switch msg {
	case "unterminated string":
		p.addError(diagnostics.ErrL002, p.curToken, "unterminated string literal")
	case "invalid numeric literal":
		p.addError(diagnostics.ErrP003, p.curToken, fmt.Sprintf("invalid numeric literal %q", p.curToken.Lexeme))
	default:
		p.addError(diagnostics.ErrL001, p.curToken, fmt.Sprintf("unexpected character %q", p.curToken.Lexeme))
	}
	return nil
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	expression := &ast.PrefixExpression{
		Token:    p.curToken,
		Operator: p.curToken.Lexeme,
	}
	p.nextToken()
	expression.Right = p.parseExpression(PREFIX)
	if expression.Right == nil {
		return nil
	}
	return expression
}

func (p *Parser) parseCastExpression() ast.Expression {
	expression := &ast.CastExpression{Token: p.curToken, Type: p.curToken.Literal.(string)}
	p.nextToken()
	expression.Value = p.parseExpression(PREFIX)
	if expression.Value == nil {
		return nil
	}
	return expression
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	expression := &ast.InfixExpression{
		Token:    p.curToken,
		Operator: p.curToken.Lexeme,
		Left:     left,
	}
	if p.curTokenIs(token.LOGIC_XOR) {
		expression.Operator = "xor"
	}

	precedence := p.curPrecedence()
	p.nextToken()
	expression.Right = p.parseExpression(precedence)
	if expression.Right == nil {
		return nil
	}
	return expression
}

// parseRightAssocInfixExpression parses right-associative operators like **
// 2 ** 3 ** 2 parses as 2 ** (3 ** 2)
func (p *Parser) parseRightAssocInfixExpression(left ast.Expression) ast.Expression {
	expression := &ast.InfixExpression{
		Token:    p.curToken,
		Operator: p.curToken.Lexeme,
		Left:     left,
	}

	precedence := p.curPrecedence()
	p.nextToken()
	// Use precedence - 1 to make it right-associative
	expression.Right = p.parseExpression(precedence - 1)
	if expression.Right == nil {
		return nil
	}
	return expression
}

// parseLogicalExpression parses && || and or ??. The keyword forms keep
// their low precedence but share the symbolic operator.
func (p *Parser) parseLogicalExpression(left ast.Expression) ast.Expression {
	expression := &ast.LogicalExpression{Token: p.curToken, Left: left}
	precedence := p.curPrecedence()
	switch p.curToken.Type {
	case token.AND, token.LOGIC_AND:
		expression.Operator = "&&"
	case token.OR, token.LOGIC_OR:
		expression.Operator = "||"
	case token.COALESCE:
		expression.Operator = "??"
		precedence--
	}
	p.nextToken()
	expression.Right = p.parseExpression(precedence)
	if expression.Right == nil {
		return nil
	}
	return expression
}

// parseTernaryExpression parses cond ? a : b and the short form cond ?: b.
func (p *Parser) parseTernaryExpression(condition ast.Expression) ast.Expression {
	expression := &ast.TernaryExpression{Token: p.curToken, Condition: condition}
	if !p.peekTokenIs(token.COLON) {
		p.nextToken()
		expression.Consequence = p.parseExpression(LOWEST)
		if expression.Consequence == nil {
			return nil
		}
	}
	if !p.expectPeek(token.COLON) {
		return nil
	}
	p.nextToken()
	expression.Alternative = p.parseExpression(TERNARY)
	if expression.Alternative == nil {
		return nil
	}
	return expression
}

func (p *Parser) parseGroupedExpression() ast.Expression {
	p.nextToken() // consume '('
	exp := p.parseExpression(LOWEST)
	if exp == nil {
		return nil
	}
	if !p.expectPeek(token.RPAREN) {
		return nil
	}
	return exp
}

func (p *Parser) parsePrintExpression() ast.Expression {
	expression := &ast.PrintExpression{Token: p.curToken}
	p.nextToken()
	expression.Value = p.parseExpression(PRINT)
	if expression.Value == nil {
		return nil
	}
	return expression
}

// parseExpressionList parses comma separated expressions up to end, which
// is left as the current token. A trailing comma is allowed.
func (p *Parser) parseExpressionList(end token.TokenType) []ast.Expression {
	list := []ast.Expression{}
	if p.peekTokenIs(end) {
		p.nextToken()
		return list
	}
	for {
		p.nextToken()
		exp := p.parseExpression(LOWEST)
		if exp == nil {
			return nil
		}
		list = append(list, exp)
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
		if p.peekTokenIs(end) {
			break
		}
	}
	if !p.expectPeek(end) {
		return nil
	}
	return list
}
