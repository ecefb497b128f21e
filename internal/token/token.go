package token

import "strings"

type TokenType string

// Token is a lexeme with its position. Literal carries the decoded value
// where one exists: string contents, int64, float64, the normalized cast
// type, or []StringPart for interpolated strings.
type Token struct {
	Type    TokenType
	Lexeme  string
	Literal interface{}
	Line    int
	Column  int
}

// StringPart is one piece of a double-quoted string: literal text, or the
// source of an embedded expression ("$name", "$a[0]", "$a['k']", or the
// body of a {$...} block).
type StringPart struct {
	Text   string
	Expr   string
	IsExpr bool
}

const (
	ILLEGAL TokenType = "ILLEGAL"
	EOF     TokenType = "EOF"

	OPEN_TAG    TokenType = "<?php"
	CLOSE_TAG   TokenType = "?>"
	INLINE_HTML TokenType = "INLINE_HTML"

	VARIABLE     TokenType = "VARIABLE" // $name
	IDENT        TokenType = "IDENT"
	INT          TokenType = "INT"
	FLOAT        TokenType = "FLOAT"
	STRING       TokenType = "STRING"
	INTERPOLATED TokenType = "INTERPOLATED" // double-quoted string with embedded variables
	CAST         TokenType = "CAST"         // (int), (string), ...

	ASSIGN          TokenType = "="
	PLUS_ASSIGN     TokenType = "+="
	MINUS_ASSIGN    TokenType = "-="
	MUL_ASSIGN      TokenType = "*="
	DIV_ASSIGN      TokenType = "/="
	CONCAT_ASSIGN   TokenType = ".="
	MOD_ASSIGN      TokenType = "%="
	POW_ASSIGN      TokenType = "**="
	AND_ASSIGN      TokenType = "&="
	OR_ASSIGN       TokenType = "|="
	XOR_ASSIGN      TokenType = "^="
	SHL_ASSIGN      TokenType = "<<="
	SHR_ASSIGN      TokenType = ">>="
	COALESCE_ASSIGN TokenType = "??="

	PLUS     TokenType = "+"
	MINUS    TokenType = "-"
	ASTERISK TokenType = "*"
	SLASH    TokenType = "/"
	PERCENT  TokenType = "%"
	POWER    TokenType = "**"
	DOT      TokenType = "."
	AMP      TokenType = "&"
	PIPE     TokenType = "|"
	CARET    TokenType = "^"
	TILDE    TokenType = "~"
	SHL      TokenType = "<<"
	SHR      TokenType = ">>"
	BANG     TokenType = "!"
	INC      TokenType = "++"
	DEC      TokenType = "--"
	AT       TokenType = "@"

	EQ           TokenType = "=="
	NOT_EQ       TokenType = "!="
	IDENTICAL    TokenType = "==="
	NOT_IDENT    TokenType = "!=="
	LT           TokenType = "<"
	LTE          TokenType = "<="
	GT           TokenType = ">"
	GTE          TokenType = ">="
	SPACESHIP    TokenType = "<=>"
	AND          TokenType = "&&"
	OR           TokenType = "||"
	COALESCE     TokenType = "??"
	QUESTION     TokenType = "?"
	COLON        TokenType = ":"
	DOUBLE_ARROW TokenType = "=>"
	ARROW        TokenType = "->"

	COMMA     TokenType = ","
	SEMICOLON TokenType = ";"
	LPAREN    TokenType = "("
	RPAREN    TokenType = ")"
	LBRACE    TokenType = "{"
	RBRACE    TokenType = "}"
	LBRACKET  TokenType = "["
	RBRACKET  TokenType = "]"

	// Keywords
	ECHO      TokenType = "echo"
	PRINT     TokenType = "print"
	IF        TokenType = "if"
	ELSEIF    TokenType = "elseif"
	ELSE      TokenType = "else"
	WHILE     TokenType = "while"
	DO        TokenType = "do"
	FOR       TokenType = "for"
	FOREACH   TokenType = "foreach"
	AS        TokenType = "as"
	FUNCTION  TokenType = "function"
	RETURN    TokenType = "return"
	GLOBAL    TokenType = "global"
	UNSET     TokenType = "unset"
	ISSET     TokenType = "isset"
	EMPTY     TokenType = "empty"
	ARRAY     TokenType = "array"
	BREAK     TokenType = "break"
	CONTINUE  TokenType = "continue"
	TRUE      TokenType = "true"
	FALSE     TokenType = "false"
	NULL      TokenType = "null"
	LOGIC_AND TokenType = "and"
	LOGIC_OR  TokenType = "or"
	LOGIC_XOR TokenType = "xor"
)

var keywords = map[string]TokenType{
	"echo":     ECHO,
	"print":    PRINT,
	"if":       IF,
	"elseif":   ELSEIF,
	"else":     ELSE,
	"while":    WHILE,
	"do":       DO,
	"for":      FOR,
	"foreach":  FOREACH,
	"as":       AS,
	"function": FUNCTION,
	"return":   RETURN,
	"global":   GLOBAL,
	"unset":    UNSET,
	"isset":    ISSET,
	"empty":    EMPTY,
	"array":    ARRAY,
	"break":    BREAK,
	"continue": CONTINUE,
	"true":     TRUE,
	"false":    FALSE,
	"null":     NULL,
	"and":      LOGIC_AND,
	"or":       LOGIC_OR,
	"xor":      LOGIC_XOR,
}

// LookupIdent resolves keywords case-insensitively.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[strings.ToLower(ident)]; ok {
		return tok
	}
	return IDENT
}

// castTypes maps the spellings accepted inside a cast to the type name.
var castTypes = map[string]string{
	"int":     "int",
	"integer": "int",
	"bool":    "bool",
	"boolean": "bool",
	"float":   "float",
	"double":  "float",
	"real":    "float",
	"string":  "string",
	"binary":  "string",
	"array":   "array",
	"object":  "object",
}

// LookupCast returns the normalized cast type for word.
func LookupCast(word string) (string, bool) {
	t, ok := castTypes[strings.ToLower(word)]
	return t, ok
}
