package prettyprinter

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/funvibe/funphp/internal/ast"
)

// --- Code Printer (Output looks like source code) ---

// Operator precedence (higher = binds tighter)
var operatorPrecedence = map[string]int{
	"or":  1,
	"xor": 2,
	"and": 3,
	"=":   4, // assignment family (right-assoc)
	"?:":  5,
	"??":  6, // right-assoc
	"||":  7,
	"&&":  8,
	"|":   9,
	"^":   10,
	"&":   11,
	"==":  12,
	"!=":  12,
	"===": 12,
	"!==": 12,
	"<>":  12,
	"<=>": 12,
	"<":   13,
	"<=":  13,
	">":   13,
	">=":  13,
	".":   14,
	"<<":  15,
	">>":  15,
	"+":   16,
	"-":   16,
	"*":   17,
	"/":   17,
	"%":   17,
	"**":  19, // Power (right-assoc), binds tighter than unary minus
}

const prefixPrecedence = 18

func getPrecedence(op string) int {
	if p, ok := operatorPrecedence[op]; ok {
		return p
	}
	return 20 // Default high precedence for unknown ops
}

// Right-associative operators
var rightAssoc = map[string]bool{
	"**": true,
	"??": true,
	"=":  true,
}

// CodePrinter renders an AST back to source. With FullParens every nested
// operator expression is parenthesized, which makes grouping visible.
type CodePrinter struct {
	buf        bytes.Buffer
	indent     int
	column     int // current column position
	FullParens bool
}

func NewCodePrinter() *CodePrinter {
	return &CodePrinter{}
}

// Print renders a node and returns the source text.
func Print(node ast.Node) string {
	p := NewCodePrinter()
	node.Accept(p)
	return p.String()
}

// PrintExpression renders one expression with every nested operator
// parenthesized.
func PrintExpression(expr ast.Expression) string {
	p := &CodePrinter{FullParens: true}
	p.printExpr(expr, 0, false)
	return p.String()
}

func (p *CodePrinter) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.buf.WriteString("    ")
	}
	p.column = p.indent * 4
}

func (p *CodePrinter) String() string {
	return p.buf.String()
}

func (p *CodePrinter) write(s string) {
	p.buf.WriteString(s)
	// Track column position
	if idx := strings.LastIndex(s, "\n"); idx != -1 {
		p.column = len(s) - idx - 1
	} else {
		p.column += len(s)
	}
}

func (p *CodePrinter) writeln() {
	p.buf.WriteString("\n")
	p.column = 0
}

// binaryParts returns the operator and operands of the expression kinds
// that print as "left op right".
func binaryParts(expr ast.Expression) (op, display string, left, right ast.Expression, ok bool) {
	switch e := expr.(type) {
	case *ast.InfixExpression:
		return e.Operator, e.Operator, e.Left, e.Right, true
	case *ast.LogicalExpression:
		return e.Operator, e.Operator, e.Left, e.Right, true
	case *ast.AssignExpression:
		return "=", "=", e.Target, e.Value, true
	case *ast.ReferenceAssignExpression:
		return "=", "=&", e.Target, e.Source, true
	case *ast.CompoundAssignExpression:
		return "=", e.Operator + "=", e.Target, e.Value, true
	}
	return "", "", nil, nil, false
}

// printExpr prints an expression, adding parentheses only if needed
func (p *CodePrinter) printExpr(expr ast.Expression, parentPrec int, isRight bool) {
	if expr == nil {
		p.write("<???>")
		return
	}
	if op, display, left, right, ok := binaryParts(expr); ok {
		prec := getPrecedence(op)
		needParens := prec < parentPrec || (p.FullParens && parentPrec > 0)
		// For same precedence, check associativity
		if prec == parentPrec {
			if isRight && !rightAssoc[op] {
				needParens = true
			} else if !isRight && rightAssoc[op] {
				needParens = true
			}
		}
		if needParens {
			p.write("(")
		}
		p.printExpr(left, prec, false)
		p.write(" " + display + " ")
		p.printExpr(right, prec, true)
		if needParens {
			p.write(")")
		}
		return
	}

	switch e := expr.(type) {
	case *ast.TernaryExpression:
		prec := getPrecedence("?:")
		needParens := prec <= parentPrec || (p.FullParens && parentPrec > 0)
		if needParens {
			p.write("(")
		}
		p.printExpr(e.Condition, prec, false)
		if e.Consequence == nil {
			p.write(" ?: ")
		} else {
			p.write(" ? ")
			p.printExpr(e.Consequence, prec, false)
			p.write(" : ")
		}
		p.printExpr(e.Alternative, prec, true)
		if needParens {
			p.write(")")
		}
	case *ast.PrefixExpression:
		if parentPrec > prefixPrecedence {
			p.write("(")
			defer p.write(")")
		}
		p.write(e.Operator)
		p.printExpr(e.Right, prefixPrecedence, false)
	case *ast.CastExpression:
		if parentPrec > prefixPrecedence {
			p.write("(")
			defer p.write(")")
		}
		p.write("(" + e.Type + ")")
		p.printExpr(e.Value, prefixPrecedence, false)
	case *ast.PrintExpression:
		if parentPrec > 0 {
			p.write("(")
		}
		p.write("print ")
		p.printExpr(e.Value, getPrecedence("and"), true)
		if parentPrec > 0 {
			p.write(")")
		}
	default:
		// For non-operator expressions, just use visitor
		expr.Accept(p)
	}
}

func (p *CodePrinter) printList(exprs []ast.Expression) {
	for i, e := range exprs {
		if i > 0 {
			p.write(", ")
		}
		p.printExpr(e, 0, false)
	}
}

// printStatement prints one statement on its own line.
func (p *CodePrinter) printStatement(stmt ast.Statement) {
	p.writeIndent()
	stmt.Accept(p)
	p.writeln()
}

// printBody prints a control structure body after its header.
func (p *CodePrinter) printBody(body ast.Statement) {
	if block, ok := body.(*ast.BlockStatement); ok {
		p.write(" ")
		block.Accept(p)
		return
	}
	p.writeln()
	p.indent++
	p.writeIndent()
	body.Accept(p)
	p.indent--
}

func (p *CodePrinter) VisitProgram(n *ast.Program) {
	for _, stmt := range n.Statements {
		p.printStatement(stmt)
	}
}

// Statements

func (p *CodePrinter) VisitExpressionStatement(n *ast.ExpressionStatement) {
	p.printExpr(n.Expression, 0, false)
	p.write(";")
}

func (p *CodePrinter) VisitEchoStatement(n *ast.EchoStatement) {
	p.write("echo ")
	p.printList(n.Values)
	p.write(";")
}

func (p *CodePrinter) VisitInlineHTMLStatement(n *ast.InlineHTMLStatement) {
	p.write("?>" + n.Text + "<?php")
}

func (p *CodePrinter) VisitBlockStatement(n *ast.BlockStatement) {
	p.write("{")
	p.writeln()
	p.indent++
	for _, stmt := range n.Statements {
		p.printStatement(stmt)
	}
	p.indent--
	p.writeIndent()
	p.write("}")
}

func (p *CodePrinter) VisitIfStatement(n *ast.IfStatement) {
	p.write("if (")
	p.printExpr(n.Condition, 0, false)
	p.write(")")
	p.printBody(n.Consequence)
	if n.Alternative == nil {
		return
	}
	if _, isBlock := n.Consequence.(*ast.BlockStatement); isBlock {
		p.write(" ")
	} else {
		p.writeln()
		p.writeIndent()
	}
	if elseIf, ok := n.Alternative.(*ast.IfStatement); ok {
		p.write("else")
		elseIf.Accept(p)
		return
	}
	p.write("else")
	p.printBody(n.Alternative)
}

func (p *CodePrinter) VisitWhileStatement(n *ast.WhileStatement) {
	p.write("while (")
	p.printExpr(n.Condition, 0, false)
	p.write(")")
	p.printBody(n.Body)
}

func (p *CodePrinter) VisitDoWhileStatement(n *ast.DoWhileStatement) {
	p.write("do")
	p.printBody(n.Body)
	p.write(" while (")
	p.printExpr(n.Condition, 0, false)
	p.write(");")
}

func (p *CodePrinter) VisitForStatement(n *ast.ForStatement) {
	p.write("for (")
	p.printList(n.Init)
	p.write("; ")
	p.printList(n.Condition)
	p.write("; ")
	p.printList(n.Update)
	p.write(")")
	p.printBody(n.Body)
}

func (p *CodePrinter) VisitForeachStatement(n *ast.ForeachStatement) {
	p.write("foreach (")
	p.printExpr(n.Subject, 0, false)
	p.write(" as ")
	if n.Key != nil {
		p.printExpr(n.Key, 0, false)
		p.write(" => ")
	}
	if n.ByRef {
		p.write("&")
	}
	p.printExpr(n.Value, 0, false)
	p.write(")")
	p.printBody(n.Body)
}

func (p *CodePrinter) VisitFunctionStatement(n *ast.FunctionStatement) {
	p.write("function " + n.Name + "(")
	for i, param := range n.Parameters {
		if i > 0 {
			p.write(", ")
		}
		if param.ByRef {
			p.write("&")
		}
		p.write("$" + param.Name)
		if param.Default != nil {
			p.write(" = ")
			p.printExpr(param.Default, 0, false)
		}
	}
	p.write(") ")
	n.Body.Accept(p)
}

func (p *CodePrinter) VisitReturnStatement(n *ast.ReturnStatement) {
	p.write("return")
	if n.Value != nil {
		p.write(" ")
		p.printExpr(n.Value, 0, false)
	}
	p.write(";")
}

func (p *CodePrinter) VisitGlobalStatement(n *ast.GlobalStatement) {
	p.write("global ")
	for i, v := range n.Names {
		if i > 0 {
			p.write(", ")
		}
		v.Accept(p)
	}
	p.write(";")
}

func (p *CodePrinter) VisitUnsetStatement(n *ast.UnsetStatement) {
	p.write("unset(")
	p.printList(n.Targets)
	p.write(");")
}

func (p *CodePrinter) VisitBreakStatement(n *ast.BreakStatement) {
	p.write("break")
	if n.Levels > 1 {
		p.write(" " + strconv.Itoa(n.Levels))
	}
	p.write(";")
}

func (p *CodePrinter) VisitContinueStatement(n *ast.ContinueStatement) {
	p.write("continue")
	if n.Levels > 1 {
		p.write(" " + strconv.Itoa(n.Levels))
	}
	p.write(";")
}

// Expressions

func (p *CodePrinter) VisitVariable(n *ast.Variable) {
	p.write("$" + n.Name)
}

func (p *CodePrinter) VisitIntegerLiteral(n *ast.IntegerLiteral) {
	p.write(strconv.FormatInt(n.Value, 10))
}

func (p *CodePrinter) VisitFloatLiteral(n *ast.FloatLiteral) {
	s := strconv.FormatFloat(n.Value, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	p.write(s)
}

func (p *CodePrinter) VisitStringLiteral(n *ast.StringLiteral) {
	p.write(quoteSingle(n.Value))
}

// quoteSingle renders s as a single-quoted literal.
func quoteSingle(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(s) + "'"
}

func (p *CodePrinter) VisitInterpolatedString(n *ast.InterpolatedString) {
	p.write(`"`)
	for _, part := range n.Parts {
		if lit, ok := part.(*ast.StringLiteral); ok {
			r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, `$`, `\$`, "\n", `\n`, "\t", `\t`)
			p.write(r.Replace(lit.Value))
			continue
		}
		p.write("{")
		p.printExpr(part, 0, false)
		p.write("}")
	}
	p.write(`"`)
}

func (p *CodePrinter) VisitBooleanLiteral(n *ast.BooleanLiteral) {
	if n.Value {
		p.write("true")
	} else {
		p.write("false")
	}
}

func (p *CodePrinter) VisitNullLiteral(n *ast.NullLiteral) {
	p.write("null")
}

func (p *CodePrinter) VisitConstantExpression(n *ast.ConstantExpression) {
	p.write(n.Name)
}

func (p *CodePrinter) VisitIndexExpression(n *ast.IndexExpression) {
	p.printExpr(n.Left, getPrecedence("[]"), false)
	p.write("[")
	if n.Index != nil {
		p.printExpr(n.Index, 0, false)
	}
	p.write("]")
}

func (p *CodePrinter) VisitArrayLiteral(n *ast.ArrayLiteral) {
	p.write("[")
	for i, item := range n.Items {
		if i > 0 {
			p.write(", ")
		}
		if item.Key != nil {
			p.printExpr(item.Key, 0, false)
			p.write(" => ")
		}
		if item.ByRef {
			p.write("&")
		}
		p.printExpr(item.Value, 0, false)
	}
	p.write("]")
}

func (p *CodePrinter) VisitPrefixExpression(n *ast.PrefixExpression) { p.printExpr(n, 0, false) }
func (p *CodePrinter) VisitInfixExpression(n *ast.InfixExpression)   { p.printExpr(n, 0, false) }
func (p *CodePrinter) VisitLogicalExpression(n *ast.LogicalExpression) {
	p.printExpr(n, 0, false)
}
func (p *CodePrinter) VisitTernaryExpression(n *ast.TernaryExpression) { p.printExpr(n, 0, false) }
func (p *CodePrinter) VisitAssignExpression(n *ast.AssignExpression)   { p.printExpr(n, 0, false) }
func (p *CodePrinter) VisitReferenceAssignExpression(n *ast.ReferenceAssignExpression) {
	p.printExpr(n, 0, false)
}
func (p *CodePrinter) VisitCompoundAssignExpression(n *ast.CompoundAssignExpression) {
	p.printExpr(n, 0, false)
}
func (p *CodePrinter) VisitCastExpression(n *ast.CastExpression)   { p.printExpr(n, 0, false) }
func (p *CodePrinter) VisitPrintExpression(n *ast.PrintExpression) { p.printExpr(n, 0, false) }

func (p *CodePrinter) VisitIncDecExpression(n *ast.IncDecExpression) {
	if n.Prefix {
		p.write(n.Operator)
		p.printExpr(n.Target, prefixPrecedence, false)
		return
	}
	p.printExpr(n.Target, prefixPrecedence, false)
	p.write(n.Operator)
}

func (p *CodePrinter) VisitCallExpression(n *ast.CallExpression) {
	p.write(n.Function + "(")
	p.printList(n.Arguments)
	p.write(")")
}

func (p *CodePrinter) VisitIssetExpression(n *ast.IssetExpression) {
	p.write("isset(")
	p.printList(n.Targets)
	p.write(")")
}

func (p *CodePrinter) VisitEmptyExpression(n *ast.EmptyExpression) {
	p.write("empty(")
	p.printExpr(n.Target, 0, false)
	p.write(")")
}
