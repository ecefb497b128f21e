package ast

import (
	"github.com/funvibe/funphp/internal/token"
)

// IndexExpression represents $a[k]. A nil Index is the append target $a[],
// valid only on the left of an assignment or as a reference target.
type IndexExpression struct {
	Token token.Token // The '[' token
	Left  Expression
	Index Expression
}

func (ie *IndexExpression) Accept(v Visitor)      { v.VisitIndexExpression(ie) }
func (ie *IndexExpression) expressionNode()       {}
func (ie *IndexExpression) TokenLiteral() string  { return ie.Token.Lexeme }
func (ie *IndexExpression) GetToken() token.Token { return ie.Token }

// ArrayItem is one entry of an array literal.
type ArrayItem struct {
	Key   Expression // nil for positional entries
	Value Expression
	ByRef bool // &$v
}

// ArrayLiteral represents [k => v, ...] and array(...).
type ArrayLiteral struct {
	Token token.Token
	Items []*ArrayItem
}

func (al *ArrayLiteral) Accept(v Visitor)      { v.VisitArrayLiteral(al) }
func (al *ArrayLiteral) expressionNode()       {}
func (al *ArrayLiteral) TokenLiteral() string  { return al.Token.Lexeme }
func (al *ArrayLiteral) GetToken() token.Token { return al.Token }

// PrefixExpression represents a unary operator: ! - + ~ @
type PrefixExpression struct {
	Token    token.Token // The prefix token, e.g. !
	Operator string
	Right    Expression
}

func (pe *PrefixExpression) Accept(v Visitor)      { v.VisitPrefixExpression(pe) }
func (pe *PrefixExpression) expressionNode()       {}
func (pe *PrefixExpression) TokenLiteral() string  { return pe.Token.Lexeme }
func (pe *PrefixExpression) GetToken() token.Token { return pe.Token }

// InfixExpression represents an eager binary operator. Operands are
// evaluated left then right.
type InfixExpression struct {
	Token    token.Token // The operator token, e.g. +
	Left     Expression
	Operator string
	Right    Expression
}

func (ie *InfixExpression) Accept(v Visitor)      { v.VisitInfixExpression(ie) }
func (ie *InfixExpression) expressionNode()       {}
func (ie *InfixExpression) TokenLiteral() string  { return ie.Token.Lexeme }
func (ie *InfixExpression) GetToken() token.Token { return ie.Token }

// LogicalExpression represents the short-circuit operators && || ??.
// The keyword forms "and" and "or" are normalized to && and ||.
type LogicalExpression struct {
	Token    token.Token
	Left     Expression
	Operator string
	Right    Expression
}

func (le *LogicalExpression) Accept(v Visitor)      { v.VisitLogicalExpression(le) }
func (le *LogicalExpression) expressionNode()       {}
func (le *LogicalExpression) TokenLiteral() string  { return le.Token.Lexeme }
func (le *LogicalExpression) GetToken() token.Token { return le.Token }

// TernaryExpression represents cond ? a : b. A nil Consequence is the
// short form cond ?: b, which yields cond itself when truthy.
type TernaryExpression struct {
	Token       token.Token // The '?' token
	Condition   Expression
	Consequence Expression
	Alternative Expression
}

func (te *TernaryExpression) Accept(v Visitor)      { v.VisitTernaryExpression(te) }
func (te *TernaryExpression) expressionNode()       {}
func (te *TernaryExpression) TokenLiteral() string  { return te.Token.Lexeme }
func (te *TernaryExpression) GetToken() token.Token { return te.Token }

// AssignExpression represents target = value.
type AssignExpression struct {
	Token  token.Token // The '=' token
	Target Expression  // *Variable or *IndexExpression
	Value  Expression
}

func (ae *AssignExpression) Accept(v Visitor)      { v.VisitAssignExpression(ae) }
func (ae *AssignExpression) expressionNode()       {}
func (ae *AssignExpression) TokenLiteral() string  { return ae.Token.Lexeme }
func (ae *AssignExpression) GetToken() token.Token { return ae.Token }

// ReferenceAssignExpression represents target =& source.
type ReferenceAssignExpression struct {
	Token  token.Token
	Target Expression
	Source Expression // *Variable or *IndexExpression
}

func (ra *ReferenceAssignExpression) Accept(v Visitor)      { v.VisitReferenceAssignExpression(ra) }
func (ra *ReferenceAssignExpression) expressionNode()       {}
func (ra *ReferenceAssignExpression) TokenLiteral() string  { return ra.Token.Lexeme }
func (ra *ReferenceAssignExpression) GetToken() token.Token { return ra.Token }

// CompoundAssignExpression represents target op= value. Operator is the
// binary operator without '=' (e.g. "+", ".", "??").
type CompoundAssignExpression struct {
	Token    token.Token
	Target   Expression
	Operator string
	Value    Expression
}

func (ca *CompoundAssignExpression) Accept(v Visitor)      { v.VisitCompoundAssignExpression(ca) }
func (ca *CompoundAssignExpression) expressionNode()       {}
func (ca *CompoundAssignExpression) TokenLiteral() string  { return ca.Token.Lexeme }
func (ca *CompoundAssignExpression) GetToken() token.Token { return ca.Token }

// IncDecExpression represents ++$x, $x++, --$x and $x--.
type IncDecExpression struct {
	Token    token.Token
	Target   Expression
	Operator string // "++" or "--"
	Prefix   bool
}

func (id *IncDecExpression) Accept(v Visitor)      { v.VisitIncDecExpression(id) }
func (id *IncDecExpression) expressionNode()       {}
func (id *IncDecExpression) TokenLiteral() string  { return id.Token.Lexeme }
func (id *IncDecExpression) GetToken() token.Token { return id.Token }

// CastExpression represents (type) value. Type is normalized by the lexer.
type CastExpression struct {
	Token token.Token
	Type  string
	Value Expression
}

func (ce *CastExpression) Accept(v Visitor)      { v.VisitCastExpression(ce) }
func (ce *CastExpression) expressionNode()       {}
func (ce *CastExpression) TokenLiteral() string  { return ce.Token.Lexeme }
func (ce *CastExpression) GetToken() token.Token { return ce.Token }

// CallExpression represents name(args). Function names are resolved
// case-insensitively at run time.
type CallExpression struct {
	Token     token.Token // The function name token
	Function  string
	Arguments []Expression
}

func (ce *CallExpression) Accept(v Visitor)      { v.VisitCallExpression(ce) }
func (ce *CallExpression) expressionNode()       {}
func (ce *CallExpression) TokenLiteral() string  { return ce.Token.Lexeme }
func (ce *CallExpression) GetToken() token.Token { return ce.Token }

// IssetExpression represents isset($a, $b[k], ...).
type IssetExpression struct {
	Token   token.Token
	Targets []Expression
}

func (ie *IssetExpression) Accept(v Visitor)      { v.VisitIssetExpression(ie) }
func (ie *IssetExpression) expressionNode()       {}
func (ie *IssetExpression) TokenLiteral() string  { return ie.Token.Lexeme }
func (ie *IssetExpression) GetToken() token.Token { return ie.Token }

// EmptyExpression represents empty(expr).
type EmptyExpression struct {
	Token  token.Token
	Target Expression
}

func (ee *EmptyExpression) Accept(v Visitor)      { v.VisitEmptyExpression(ee) }
func (ee *EmptyExpression) expressionNode()       {}
func (ee *EmptyExpression) TokenLiteral() string  { return ee.Token.Lexeme }
func (ee *EmptyExpression) GetToken() token.Token { return ee.Token }

// PrintExpression represents print expr, which always yields 1.
type PrintExpression struct {
	Token token.Token
	Value Expression
}

func (pe *PrintExpression) Accept(v Visitor)      { v.VisitPrintExpression(pe) }
func (pe *PrintExpression) expressionNode()       {}
func (pe *PrintExpression) TokenLiteral() string  { return pe.Token.Lexeme }
func (pe *PrintExpression) GetToken() token.Token { return pe.Token }
