package ast

import (
	"github.com/funvibe/funphp/internal/token"
)

// ExpressionStatement is an expression evaluated for its effects.
type ExpressionStatement struct {
	Token      token.Token // the first token of the expression
	Expression Expression
}

func (es *ExpressionStatement) Accept(v Visitor)     { v.VisitExpressionStatement(es) }
func (es *ExpressionStatement) statementNode()       {}
func (es *ExpressionStatement) TokenLiteral() string { return es.Token.Lexeme }
func (es *ExpressionStatement) GetToken() token.Token {
	if es == nil {
		return token.Token{}
	}
	return es.Token
}

// EchoStatement represents echo a, b; and <?= a ?>.
type EchoStatement struct {
	Token  token.Token
	Values []Expression
}

func (es *EchoStatement) Accept(v Visitor)      { v.VisitEchoStatement(es) }
func (es *EchoStatement) statementNode()        {}
func (es *EchoStatement) TokenLiteral() string  { return es.Token.Lexeme }
func (es *EchoStatement) GetToken() token.Token { return es.Token }

// InlineHTMLStatement is text outside <?php ... ?>, written verbatim.
type InlineHTMLStatement struct {
	Token token.Token
	Text  string
}

func (ih *InlineHTMLStatement) Accept(v Visitor)      { v.VisitInlineHTMLStatement(ih) }
func (ih *InlineHTMLStatement) statementNode()        {}
func (ih *InlineHTMLStatement) TokenLiteral() string  { return ih.Token.Lexeme }
func (ih *InlineHTMLStatement) GetToken() token.Token { return ih.Token }

// BlockStatement represents { ... }.
type BlockStatement struct {
	Token      token.Token // the { token
	Statements []Statement
}

func (bs *BlockStatement) Accept(v Visitor)      { v.VisitBlockStatement(bs) }
func (bs *BlockStatement) statementNode()        {}
func (bs *BlockStatement) TokenLiteral() string  { return bs.Token.Lexeme }
func (bs *BlockStatement) GetToken() token.Token { return bs.Token }

// IfStatement represents if/elseif/else. An elseif chain is a nested
// *IfStatement in Alternative.
type IfStatement struct {
	Token       token.Token
	Condition   Expression
	Consequence Statement
	Alternative Statement // nil, *IfStatement or any other statement
}

func (is *IfStatement) Accept(v Visitor)      { v.VisitIfStatement(is) }
func (is *IfStatement) statementNode()        {}
func (is *IfStatement) TokenLiteral() string  { return is.Token.Lexeme }
func (is *IfStatement) GetToken() token.Token { return is.Token }

// WhileStatement represents while (cond) body.
type WhileStatement struct {
	Token     token.Token
	Condition Expression
	Body      Statement
}

func (ws *WhileStatement) Accept(v Visitor)      { v.VisitWhileStatement(ws) }
func (ws *WhileStatement) statementNode()        {}
func (ws *WhileStatement) TokenLiteral() string  { return ws.Token.Lexeme }
func (ws *WhileStatement) GetToken() token.Token { return ws.Token }

// DoWhileStatement represents do body while (cond);
type DoWhileStatement struct {
	Token     token.Token
	Body      Statement
	Condition Expression
}

func (dw *DoWhileStatement) Accept(v Visitor)      { v.VisitDoWhileStatement(dw) }
func (dw *DoWhileStatement) statementNode()        {}
func (dw *DoWhileStatement) TokenLiteral() string  { return dw.Token.Lexeme }
func (dw *DoWhileStatement) GetToken() token.Token { return dw.Token }

// ForStatement represents for (init; cond; update) body. Each clause is a
// comma separated list; the last condition decides.
type ForStatement struct {
	Token     token.Token
	Init      []Expression
	Condition []Expression
	Update    []Expression
	Body      Statement
}

func (fs *ForStatement) Accept(v Visitor)      { v.VisitForStatement(fs) }
func (fs *ForStatement) statementNode()        {}
func (fs *ForStatement) TokenLiteral() string  { return fs.Token.Lexeme }
func (fs *ForStatement) GetToken() token.Token { return fs.Token }

// ForeachStatement represents foreach ($subject as $k => $v) and the
// by-reference form foreach ($subject as &$v).
type ForeachStatement struct {
	Token   token.Token
	Subject Expression
	Key     Expression // nil when absent
	Value   Expression
	ByRef   bool
	Body    Statement
}

func (fs *ForeachStatement) Accept(v Visitor)      { v.VisitForeachStatement(fs) }
func (fs *ForeachStatement) statementNode()        {}
func (fs *ForeachStatement) TokenLiteral() string  { return fs.Token.Lexeme }
func (fs *ForeachStatement) GetToken() token.Token { return fs.Token }

// Parameter is a function parameter: [&]$name [= default].
type Parameter struct {
	Token   token.Token
	Name    string
	ByRef   bool
	Default Expression
}

// FunctionStatement declares a named function.
type FunctionStatement struct {
	Token      token.Token // the 'function' token
	Name       string
	Parameters []*Parameter
	Body       *BlockStatement
}

func (fs *FunctionStatement) Accept(v Visitor)      { v.VisitFunctionStatement(fs) }
func (fs *FunctionStatement) statementNode()        {}
func (fs *FunctionStatement) TokenLiteral() string  { return fs.Token.Lexeme }
func (fs *FunctionStatement) GetToken() token.Token { return fs.Token }

// ReturnStatement represents return [value];
type ReturnStatement struct {
	Token token.Token
	Value Expression // nil for a bare return
}

func (rs *ReturnStatement) Accept(v Visitor)      { v.VisitReturnStatement(rs) }
func (rs *ReturnStatement) statementNode()        {}
func (rs *ReturnStatement) TokenLiteral() string  { return rs.Token.Lexeme }
func (rs *ReturnStatement) GetToken() token.Token { return rs.Token }

// GlobalStatement represents global $a, $b; which binds each local name to
// the global slot of the same name.
type GlobalStatement struct {
	Token token.Token
	Names []*Variable
}

func (gs *GlobalStatement) Accept(v Visitor)      { v.VisitGlobalStatement(gs) }
func (gs *GlobalStatement) statementNode()        {}
func (gs *GlobalStatement) TokenLiteral() string  { return gs.Token.Lexeme }
func (gs *GlobalStatement) GetToken() token.Token { return gs.Token }

// UnsetStatement represents unset($a, $b[k]).
type UnsetStatement struct {
	Token   token.Token
	Targets []Expression
}

func (us *UnsetStatement) Accept(v Visitor)      { v.VisitUnsetStatement(us) }
func (us *UnsetStatement) statementNode()        {}
func (us *UnsetStatement) TokenLiteral() string  { return us.Token.Lexeme }
func (us *UnsetStatement) GetToken() token.Token { return us.Token }

// BreakStatement represents break [n];
type BreakStatement struct {
	Token  token.Token
	Levels int
}

func (bs *BreakStatement) Accept(v Visitor)      { v.VisitBreakStatement(bs) }
func (bs *BreakStatement) statementNode()        {}
func (bs *BreakStatement) TokenLiteral() string  { return bs.Token.Lexeme }
func (bs *BreakStatement) GetToken() token.Token { return bs.Token }

// ContinueStatement represents continue [n];
type ContinueStatement struct {
	Token  token.Token
	Levels int
}

func (cs *ContinueStatement) Accept(v Visitor)      { v.VisitContinueStatement(cs) }
func (cs *ContinueStatement) statementNode()        {}
func (cs *ContinueStatement) TokenLiteral() string  { return cs.Token.Lexeme }
func (cs *ContinueStatement) GetToken() token.Token { return cs.Token }
