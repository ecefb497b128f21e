// Package parser builds an AST from the token stream with a Pratt parser.
package parser

import (
	"fmt"

	"github.com/funvibe/funphp/internal/ast"
	"github.com/funvibe/funphp/internal/diagnostics"
	"github.com/funvibe/funphp/internal/pipeline"
	"github.com/funvibe/funphp/internal/token"
)

// MaxRecursionDepth bounds expression nesting. Deeper input is reported as
// P006 instead of overflowing the Go stack.
const MaxRecursionDepth = 500

// Precedence levels, lowest first.
const (
	_ int = iota
	LOWEST
	LOGIC_OR    // or
	LOGIC_XOR   // xor
	LOGIC_AND   // and
	PRINT       // print
	ASSIGN      // = += -= ... (right associative)
	TERNARY     // ? :
	COALESCE    // ?? (right associative)
	OR          // ||
	AND         // &&
	BIT_OR      // |
	BIT_XOR     // ^
	BIT_AND     // &
	EQUALS      // == != === !== <>  <=>
	LESSGREATER // < <= > >=
	CONCAT      // .
	SHIFT       // << >>
	SUM         // + -
	PRODUCT     // * / %
	PREFIX      // ! ~ -x +x (cast) @ ++x --x
	POWER       // ** (right associative)
	POSTFIX     // x++ x--
	INDEX       // a[i]
)

var precedences = map[token.TokenType]int{
	token.LOGIC_OR:        LOGIC_OR,
	token.LOGIC_XOR:       LOGIC_XOR,
	token.LOGIC_AND:       LOGIC_AND,
	token.ASSIGN:          ASSIGN,
	token.PLUS_ASSIGN:     ASSIGN,
	token.MINUS_ASSIGN:    ASSIGN,
	token.MUL_ASSIGN:      ASSIGN,
	token.DIV_ASSIGN:      ASSIGN,
	token.CONCAT_ASSIGN:   ASSIGN,
	token.MOD_ASSIGN:      ASSIGN,
	token.POW_ASSIGN:      ASSIGN,
	token.AND_ASSIGN:      ASSIGN,
	token.OR_ASSIGN:       ASSIGN,
	token.XOR_ASSIGN:      ASSIGN,
	token.SHL_ASSIGN:      ASSIGN,
	token.SHR_ASSIGN:      ASSIGN,
	token.COALESCE_ASSIGN: ASSIGN,
	token.QUESTION:        TERNARY,
	token.COALESCE:        COALESCE,
	token.OR:              OR,
	token.AND:             AND,
	token.PIPE:            BIT_OR,
	token.CARET:           BIT_XOR,
	token.AMP:             BIT_AND,
	token.EQ:              EQUALS,
	token.NOT_EQ:          EQUALS,
	token.IDENTICAL:       EQUALS,
	token.NOT_IDENT:       EQUALS,
	token.SPACESHIP:       EQUALS,
	token.LT:              LESSGREATER,
	token.LTE:             LESSGREATER,
	token.GT:              LESSGREATER,
	token.GTE:             LESSGREATER,
	token.DOT:             CONCAT,
	token.SHL:             SHIFT,
	token.SHR:             SHIFT,
	token.PLUS:            SUM,
	token.MINUS:           SUM,
	token.ASTERISK:        PRODUCT,
	token.SLASH:           PRODUCT,
	token.PERCENT:         PRODUCT,
	token.POWER:           POWER,
	token.INC:             POSTFIX,
	token.DEC:             POSTFIX,
	token.LBRACKET:        INDEX,
}

// compoundOperators maps op= tokens to their binary operator.
var compoundOperators = map[token.TokenType]string{
	token.PLUS_ASSIGN:     "+",
	token.MINUS_ASSIGN:    "-",
	token.MUL_ASSIGN:      "*",
	token.DIV_ASSIGN:      "/",
	token.CONCAT_ASSIGN:   ".",
	token.MOD_ASSIGN:      "%",
	token.POW_ASSIGN:      "**",
	token.AND_ASSIGN:      "&",
	token.OR_ASSIGN:       "|",
	token.XOR_ASSIGN:      "^",
	token.SHL_ASSIGN:      "<<",
	token.SHR_ASSIGN:      ">>",
	token.COALESCE_ASSIGN: "??",
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

// Parser turns a token stream into an *ast.Program. Errors are appended to
// the pipeline context; parsing continues after an error at the next
// statement boundary.
type Parser struct {
	stream pipeline.TokenStream
	ctx    *pipeline.PipelineContext

	curToken  token.Token
	peekToken token.Token

	depth               int
	inRecursionRecovery bool

	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn
}

func New(stream pipeline.TokenStream, ctx *pipeline.PipelineContext) *Parser {
	p := &Parser{stream: stream, ctx: ctx}

	p.prefixParseFns = map[token.TokenType]prefixParseFn{
		token.VARIABLE:     p.parseVariable,
		token.INT:          p.parseIntegerLiteral,
		token.FLOAT:        p.parseFloatLiteral,
		token.STRING:       p.parseStringLiteral,
		token.INTERPOLATED: p.parseInterpolatedString,
		token.TRUE:         p.parseBoolean,
		token.FALSE:        p.parseBoolean,
		token.NULL:         p.parseNull,
		token.IDENT:        p.parseIdentifier,
		token.LBRACKET:     p.parseArrayLiteral,
		token.ARRAY:        p.parseArrayLiteral,
		token.LPAREN:       p.parseGroupedExpression,
		token.BANG:         p.parsePrefixExpression,
		token.MINUS:        p.parsePrefixExpression,
		token.PLUS:         p.parsePrefixExpression,
		token.TILDE:        p.parsePrefixExpression,
		token.AT:           p.parsePrefixExpression,
		token.CAST:         p.parseCastExpression,
		token.INC:          p.parsePrefixIncDec,
		token.DEC:          p.parsePrefixIncDec,
		token.ISSET:        p.parseIssetExpression,
		token.EMPTY:        p.parseEmptyExpression,
		token.PRINT:        p.parsePrintExpression,
		token.ILLEGAL:      p.parseIllegal,
	}

	p.infixParseFns = make(map[token.TokenType]infixParseFn)
	for _, tt := range []token.TokenType{
		token.PLUS, token.MINUS, token.ASTERISK, token.SLASH, token.PERCENT, token.DOT,
		token.PIPE, token.CARET, token.AMP, token.SHL, token.SHR,
		token.EQ, token.NOT_EQ, token.IDENTICAL, token.NOT_IDENT, token.SPACESHIP,
		token.LT, token.LTE, token.GT, token.GTE, token.LOGIC_XOR,
	} {
		p.infixParseFns[tt] = p.parseInfixExpression
	}
	p.infixParseFns[token.POWER] = p.parseRightAssocInfixExpression
	for _, tt := range []token.TokenType{token.AND, token.OR, token.LOGIC_AND, token.LOGIC_OR} {
		p.infixParseFns[tt] = p.parseLogicalExpression
	}
	p.infixParseFns[token.COALESCE] = p.parseLogicalExpression
	p.infixParseFns[token.QUESTION] = p.parseTernaryExpression
	p.infixParseFns[token.LBRACKET] = p.parseIndexExpression
	p.infixParseFns[token.INC] = p.parsePostfixIncDec
	p.infixParseFns[token.DEC] = p.parsePostfixIncDec
	p.infixParseFns[token.ASSIGN] = p.parseAssignExpression
	for tt := range compoundOperators {
		p.infixParseFns[tt] = p.parseCompoundAssignExpression
	}

	// Read two tokens, so curToken and peekToken are both set
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.stream.Next()
}

func (p *Parser) curTokenIs(t token.TokenType) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t token.TokenType) bool { return p.peekToken.Type == t }

// expectPeek advances when the next token has type t and records P001
// otherwise.
func (p *Parser) expectPeek(t token.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) peekError(t token.TokenType) {
	got := p.peekToken.Lexeme
	if p.peekToken.Type == token.EOF {
		got = "end of file"
	}
	p.addError(diagnostics.ErrP001, p.peekToken, fmt.Sprintf("syntax error, unexpected %q, expecting %q", got, string(t)))
}

func (p *Parser) addError(code diagnostics.ErrorCode, tok token.Token, msg string) {
	err := diagnostics.NewError(code, tok, msg)
	err.File = p.ctx.FilePath
	p.ctx.Errors = append(p.ctx.Errors, err)
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return LOWEST
}

// ParseProgram parses statements until EOF.
func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{File: p.ctx.FilePath}
	for !p.curTokenIs(token.EOF) {
		errCount := len(p.ctx.Errors)
		stmt := p.parseStatement()
		if stmt != nil {
			program.Statements = append(program.Statements, stmt)
		}
		if len(p.ctx.Errors) > errCount {
			p.skipToStatementBoundary()
		}
		p.nextToken()
	}
	return program
}

// skipToStatementBoundary advances to the next ';', '}' or close tag so a
// single error does not cascade.
func (p *Parser) skipToStatementBoundary() {
	for !p.curTokenIs(token.SEMICOLON) &&
		!p.curTokenIs(token.CLOSE_TAG) &&
		!p.curTokenIs(token.RBRACE) &&
		!p.curTokenIs(token.EOF) &&
		!p.peekTokenIs(token.EOF) {
		p.nextToken()
	}
}

// isAssignable reports whether e can be written to.
func isAssignable(e ast.Expression) bool {
	switch e.(type) {
	case *ast.Variable, *ast.IndexExpression:
		return true
	}
	return false
}
