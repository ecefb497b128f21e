package ast

// Visitor is implemented by AST consumers that walk every node kind, such
// as the code printer.
type Visitor interface {
	VisitProgram(*Program)

	// Statements
	VisitExpressionStatement(*ExpressionStatement)
	VisitEchoStatement(*EchoStatement)
	VisitInlineHTMLStatement(*InlineHTMLStatement)
	VisitBlockStatement(*BlockStatement)
	VisitIfStatement(*IfStatement)
	VisitWhileStatement(*WhileStatement)
	VisitDoWhileStatement(*DoWhileStatement)
	VisitForStatement(*ForStatement)
	VisitForeachStatement(*ForeachStatement)
	VisitFunctionStatement(*FunctionStatement)
	VisitReturnStatement(*ReturnStatement)
	VisitGlobalStatement(*GlobalStatement)
	VisitUnsetStatement(*UnsetStatement)
	VisitBreakStatement(*BreakStatement)
	VisitContinueStatement(*ContinueStatement)

	// Expressions
	VisitVariable(*Variable)
	VisitIntegerLiteral(*IntegerLiteral)
	VisitFloatLiteral(*FloatLiteral)
	VisitStringLiteral(*StringLiteral)
	VisitInterpolatedString(*InterpolatedString)
	VisitBooleanLiteral(*BooleanLiteral)
	VisitNullLiteral(*NullLiteral)
	VisitConstantExpression(*ConstantExpression)
	VisitIndexExpression(*IndexExpression)
	VisitArrayLiteral(*ArrayLiteral)
	VisitPrefixExpression(*PrefixExpression)
	VisitInfixExpression(*InfixExpression)
	VisitLogicalExpression(*LogicalExpression)
	VisitTernaryExpression(*TernaryExpression)
	VisitAssignExpression(*AssignExpression)
	VisitReferenceAssignExpression(*ReferenceAssignExpression)
	VisitCompoundAssignExpression(*CompoundAssignExpression)
	VisitIncDecExpression(*IncDecExpression)
	VisitCastExpression(*CastExpression)
	VisitCallExpression(*CallExpression)
	VisitIssetExpression(*IssetExpression)
	VisitEmptyExpression(*EmptyExpression)
	VisitPrintExpression(*PrintExpression)
}
