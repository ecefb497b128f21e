package parser

import (
	"fmt"

	"github.com/funvibe/funphp/internal/ast"
	"github.com/funvibe/funphp/internal/diagnostics"
	"github.com/funvibe/funphp/internal/token"
)

// parseAssignExpression parses target = value and target =& source.
func (p *Parser) parseAssignExpression(left ast.Expression) ast.Expression {
	tok := p.curToken
	if !p.validateAssignmentTarget(left, tok) {
		return nil
	}

	if p.peekTokenIs(token.AMP) {
		p.nextToken() // &
		amp := p.curToken
		p.nextToken()
		source := p.parseExpression(ASSIGN - 1)
		if source == nil {
			return nil
		}
		if !isAssignable(source) {
			p.addError(diagnostics.ErrP005, amp, "cannot assign by reference to the result of an expression")
			return nil
		}
		return &ast.ReferenceAssignExpression{Token: tok, Target: left, Source: source}
	}

	p.nextToken()
	value := p.parseExpression(ASSIGN - 1)
	if value == nil {
		return nil
	}
	return &ast.AssignExpression{Token: tok, Target: left, Value: value}
}

func (p *Parser) parseCompoundAssignExpression(left ast.Expression) ast.Expression {
	tok := p.curToken
	if !p.validateAssignmentTarget(left, tok) {
		return nil
	}
	if idx, ok := left.(*ast.IndexExpression); ok && idx.Index == nil && tok.Type == token.COALESCE_ASSIGN {
		p.addError(diagnostics.ErrP004, tok, "cannot use [] for reading")
		return nil
	}
	p.nextToken()
	value := p.parseExpression(ASSIGN - 1)
	if value == nil {
		return nil
	}
	return &ast.CompoundAssignExpression{Token: tok, Target: left, Operator: compoundOperators[tok.Type], Value: value}
}

func (p *Parser) validateAssignmentTarget(left ast.Expression, tok token.Token) bool {
	if isAssignable(left) {
		return true
	}
	p.addError(diagnostics.ErrP004, tok, fmt.Sprintf("cannot assign to %s", describe(left)))
	return false
}

func (p *Parser) parsePrefixIncDec() ast.Expression {
	exp := &ast.IncDecExpression{Token: p.curToken, Operator: p.curToken.Lexeme, Prefix: true}
	p.nextToken()
	exp.Target = p.parseExpression(PREFIX)
	if exp.Target == nil {
		return nil
	}
	if !isAssignable(exp.Target) {
		p.addError(diagnostics.ErrP004, exp.Token, fmt.Sprintf("cannot increment or decrement %s", describe(exp.Target)))
		return nil
	}
	return exp
}

func (p *Parser) parsePostfixIncDec(left ast.Expression) ast.Expression {
	if !isAssignable(left) {
		p.addError(diagnostics.ErrP004, p.curToken, fmt.Sprintf("cannot increment or decrement %s", describe(left)))
		return nil
	}
	return &ast.IncDecExpression{Token: p.curToken, Target: left, Operator: p.curToken.Lexeme}
}

// describe names an expression kind for error messages.
func describe(e ast.Expression) string {
	switch e.(type) {
	case *ast.CallExpression:
		return "a function call"
	case *ast.IntegerLiteral, *ast.FloatLiteral, *ast.StringLiteral, *ast.InterpolatedString,
		*ast.BooleanLiteral, *ast.NullLiteral, *ast.ArrayLiteral:
		return "a literal"
	case *ast.ConstantExpression:
		return "a constant"
	default:
		return "the result of an expression"
	}
}
