package ast

import (
	"github.com/funvibe/funphp/internal/token"
)

// TokenProvider is an interface for any AST node that can provide its primary token.
// This is useful for error reporting.
type TokenProvider interface {
	GetToken() token.Token
}

// Node is the base interface for all AST nodes.
type Node interface {
	TokenLiteral() string
	Accept(v Visitor)
}

// Statement is a Node that represents a statement.
type Statement interface {
	Node
	statementNode()
	GetToken() token.Token
}

// Expression is a Node that represents an expression.
type Expression interface {
	Node
	expressionNode()
	GetToken() token.Token
}

// Program is the root node of every AST.
type Program struct {
	File       string
	Statements []Statement
}

func (p *Program) Accept(v Visitor) { v.VisitProgram(p) }
func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

// Functions returns the top-level function declarations in source order.
// Declarations nested in blocks are registered when executed.
func (p *Program) Functions() []*FunctionStatement {
	var fns []*FunctionStatement
	for _, stmt := range p.Statements {
		if fn, ok := stmt.(*FunctionStatement); ok {
			fns = append(fns, fn)
		}
	}
	return fns
}

// Variable represents $name.
type Variable struct {
	Token token.Token // the token.VARIABLE token
	Name  string      // without the leading '$'
}

func (vr *Variable) Accept(v Visitor)     { v.VisitVariable(vr) }
func (vr *Variable) expressionNode()      {}
func (vr *Variable) TokenLiteral() string { return vr.Token.Lexeme }
func (vr *Variable) GetToken() token.Token {
	if vr == nil {
		return token.Token{}
	}
	return vr.Token
}

// IntegerLiteral represents an integer literal.
type IntegerLiteral struct {
	Token token.Token
	Value int64
}

func (il *IntegerLiteral) Accept(v Visitor)     { v.VisitIntegerLiteral(il) }
func (il *IntegerLiteral) expressionNode()      {}
func (il *IntegerLiteral) TokenLiteral() string { return il.Token.Lexeme }
func (il *IntegerLiteral) GetToken() token.Token {
	if il == nil {
		return token.Token{}
	}
	return il.Token
}

// FloatLiteral represents a floating point literal.
type FloatLiteral struct {
	Token token.Token
	Value float64
}

func (fl *FloatLiteral) Accept(v Visitor)      { v.VisitFloatLiteral(fl) }
func (fl *FloatLiteral) expressionNode()       {}
func (fl *FloatLiteral) TokenLiteral() string  { return fl.Token.Lexeme }
func (fl *FloatLiteral) GetToken() token.Token { return fl.Token }

// StringLiteral represents a single-quoted string or a double-quoted one
// without interpolation. Value holds the decoded bytes.
type StringLiteral struct {
	Token token.Token
	Value string
}

func (sl *StringLiteral) Accept(v Visitor)      { v.VisitStringLiteral(sl) }
func (sl *StringLiteral) expressionNode()       {}
func (sl *StringLiteral) TokenLiteral() string  { return sl.Token.Lexeme }
func (sl *StringLiteral) GetToken() token.Token { return sl.Token }

// InterpolatedString represents "text $var {$expr}". Parts are either
// *StringLiteral or arbitrary expressions, concatenated left to right.
type InterpolatedString struct {
	Token token.Token
	Parts []Expression
}

func (is *InterpolatedString) Accept(v Visitor)      { v.VisitInterpolatedString(is) }
func (is *InterpolatedString) expressionNode()       {}
func (is *InterpolatedString) TokenLiteral() string  { return is.Token.Lexeme }
func (is *InterpolatedString) GetToken() token.Token { return is.Token }

// BooleanLiteral represents boolean literals true/false.
type BooleanLiteral struct {
	Token token.Token
	Value bool
}

func (b *BooleanLiteral) Accept(v Visitor)     { v.VisitBooleanLiteral(b) }
func (b *BooleanLiteral) expressionNode()      {}
func (b *BooleanLiteral) TokenLiteral() string { return b.Token.Lexeme }
func (b *BooleanLiteral) GetToken() token.Token {
	if b == nil {
		return token.Token{}
	}
	return b.Token
}

// NullLiteral represents null.
type NullLiteral struct {
	Token token.Token
}

func (n *NullLiteral) Accept(v Visitor)      { v.VisitNullLiteral(n) }
func (n *NullLiteral) expressionNode()       {}
func (n *NullLiteral) TokenLiteral() string  { return n.Token.Lexeme }
func (n *NullLiteral) GetToken() token.Token { return n.Token }

// ConstantExpression represents a bare name such as PHP_EOL, resolved
// against the constant table at run time.
type ConstantExpression struct {
	Token token.Token
	Name  string
}

func (ce *ConstantExpression) Accept(v Visitor)      { v.VisitConstantExpression(ce) }
func (ce *ConstantExpression) expressionNode()       {}
func (ce *ConstantExpression) TokenLiteral() string  { return ce.Token.Lexeme }
func (ce *ConstantExpression) GetToken() token.Token { return ce.Token }
