package lexer

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/funvibe/funphp/internal/token"
)

type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           rune // current char under examination
	line         int  // current line number
	column       int  // current column number
	inCode       bool // false while copying inline HTML
	pending      []token.Token
}

// New returns a lexer for bare code. A leading "<?php" tag is skipped.
func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0, inCode: true}
	l.readChar()
	return l
}

// NewTemplate returns a lexer for a source file: text is copied verbatim
// as inline HTML until the first "<?php" or "<?=" tag.
func NewTemplate(input string) *Lexer {
	l := New(input)
	if strings.HasPrefix(input, "#!") {
		for l.ch != '\n' && l.ch != 0 {
			l.readChar()
		}
		if l.ch == '\n' {
			l.readChar()
		}
	}
	l.inCode = false
	return l
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}

	if l.readPosition >= len(l.input) {
		l.ch = 0
	} else {
		r, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
		l.ch = r
		l.position = l.readPosition
		l.readPosition += w
		l.column++
		return
	}

	l.position = l.readPosition
	l.readPosition++
	l.column++
}

// advanceTo reads characters until position reaches pos.
func (l *Lexer) advanceTo(pos int) {
	for l.position < pos && l.ch != 0 {
		l.readChar()
	}
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func (l *Lexer) peekChar2() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	_, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
	pos2 := l.readPosition + w
	if pos2 >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[pos2:])
	return r
}

func (l *Lexer) hasPrefix(s string) bool {
	return strings.HasPrefix(l.input[l.position:], s)
}

func newToken(tokenType token.TokenType, ch rune, line, col int) token.Token {
	literal := string(ch)
	return token.Token{Type: tokenType, Lexeme: literal, Literal: literal, Line: line, Column: col}
}

// op consumes an operator of n characters starting at the current one.
func (l *Lexer) op(tokenType token.TokenType, lexeme string) token.Token {
	tok := token.Token{Type: tokenType, Lexeme: lexeme, Literal: lexeme, Line: l.line, Column: l.column}
	for i := 1; i < len(lexeme); i++ {
		l.readChar()
	}
	return tok
}

func (l *Lexer) NextToken() token.Token {
	if len(l.pending) > 0 {
		tok := l.pending[0]
		l.pending = l.pending[1:]
		return tok
	}
	if !l.inCode {
		return l.readInlineHTML()
	}

	var tok token.Token

	l.skipWhitespace()

	switch l.ch {
	case '=':
		switch {
		case l.hasPrefix("==="):
			tok = l.op(token.IDENTICAL, "===")
		case l.hasPrefix("=="):
			tok = l.op(token.EQ, "==")
		case l.hasPrefix("=>"):
			tok = l.op(token.DOUBLE_ARROW, "=>")
		default:
			tok = newToken(token.ASSIGN, l.ch, l.line, l.column)
		}
	case '!':
		switch {
		case l.hasPrefix("!=="):
			tok = l.op(token.NOT_IDENT, "!==")
		case l.hasPrefix("!="):
			tok = l.op(token.NOT_EQ, "!=")
		default:
			tok = newToken(token.BANG, l.ch, l.line, l.column)
		}
	case '<':
		switch {
		case l.hasPrefix("<=>"):
			tok = l.op(token.SPACESHIP, "<=>")
		case l.hasPrefix("<<="):
			tok = l.op(token.SHL_ASSIGN, "<<=")
		case l.hasPrefix("<<"):
			tok = l.op(token.SHL, "<<")
		case l.hasPrefix("<="):
			tok = l.op(token.LTE, "<=")
		case l.hasPrefix("<>"):
			tok = l.op(token.NOT_EQ, "<>")
		case l.hasPrefix("<?php"):
			tok = l.op(token.OPEN_TAG, "<?php")
		default:
			tok = newToken(token.LT, l.ch, l.line, l.column)
		}
	case '>':
		switch {
		case l.hasPrefix(">>="):
			tok = l.op(token.SHR_ASSIGN, ">>=")
		case l.hasPrefix(">>"):
			tok = l.op(token.SHR, ">>")
		case l.hasPrefix(">="):
			tok = l.op(token.GTE, ">=")
		default:
			tok = newToken(token.GT, l.ch, l.line, l.column)
		}
	case '+':
		switch {
		case l.hasPrefix("++"):
			tok = l.op(token.INC, "++")
		case l.hasPrefix("+="):
			tok = l.op(token.PLUS_ASSIGN, "+=")
		default:
			tok = newToken(token.PLUS, l.ch, l.line, l.column)
		}
	case '-':
		switch {
		case l.hasPrefix("--"):
			tok = l.op(token.DEC, "--")
		case l.hasPrefix("-="):
			tok = l.op(token.MINUS_ASSIGN, "-=")
		case l.hasPrefix("->"):
			tok = l.op(token.ARROW, "->")
		default:
			tok = newToken(token.MINUS, l.ch, l.line, l.column)
		}
	case '*':
		switch {
		case l.hasPrefix("**="):
			tok = l.op(token.POW_ASSIGN, "**=")
		case l.hasPrefix("**"):
			tok = l.op(token.POWER, "**")
		case l.hasPrefix("*="):
			tok = l.op(token.MUL_ASSIGN, "*=")
		default:
			tok = newToken(token.ASTERISK, l.ch, l.line, l.column)
		}
	case '/':
		if l.peekChar() == '=' {
			tok = l.op(token.DIV_ASSIGN, "/=")
		} else {
			tok = newToken(token.SLASH, l.ch, l.line, l.column)
		}
	case '%':
		if l.peekChar() == '=' {
			tok = l.op(token.MOD_ASSIGN, "%=")
		} else {
			tok = newToken(token.PERCENT, l.ch, l.line, l.column)
		}
	case '.':
		if isDigit(l.peekChar()) {
			return l.readNumber()
		}
		if l.peekChar() == '=' {
			tok = l.op(token.CONCAT_ASSIGN, ".=")
		} else {
			tok = newToken(token.DOT, l.ch, l.line, l.column)
		}
	case '&':
		switch {
		case l.hasPrefix("&&"):
			tok = l.op(token.AND, "&&")
		case l.hasPrefix("&="):
			tok = l.op(token.AND_ASSIGN, "&=")
		default:
			tok = newToken(token.AMP, l.ch, l.line, l.column)
		}
	case '|':
		switch {
		case l.hasPrefix("||"):
			tok = l.op(token.OR, "||")
		case l.hasPrefix("|="):
			tok = l.op(token.OR_ASSIGN, "|=")
		default:
			tok = newToken(token.PIPE, l.ch, l.line, l.column)
		}
	case '^':
		if l.peekChar() == '=' {
			tok = l.op(token.XOR_ASSIGN, "^=")
		} else {
			tok = newToken(token.CARET, l.ch, l.line, l.column)
		}
	case '?':
		switch {
		case l.hasPrefix("??="):
			tok = l.op(token.COALESCE_ASSIGN, "??=")
		case l.hasPrefix("??"):
			tok = l.op(token.COALESCE, "??")
		case l.hasPrefix("?>"):
			tok = l.op(token.CLOSE_TAG, "?>")
			l.readChar()
			// A single newline right after the close tag belongs to it.
			if l.ch == '\n' {
				l.readChar()
			} else if l.ch == '\r' && l.peekChar() == '\n' {
				l.readChar()
				l.readChar()
			}
			l.inCode = false
			return tok
		default:
			tok = newToken(token.QUESTION, l.ch, l.line, l.column)
		}
	case '~':
		tok = newToken(token.TILDE, l.ch, l.line, l.column)
	case '@':
		tok = newToken(token.AT, l.ch, l.line, l.column)
	case ':':
		tok = newToken(token.COLON, l.ch, l.line, l.column)
	case ',':
		tok = newToken(token.COMMA, l.ch, l.line, l.column)
	case ';':
		tok = newToken(token.SEMICOLON, l.ch, l.line, l.column)
	case '(':
		if cast, ok := l.readCast(); ok {
			return cast
		}
		tok = newToken(token.LPAREN, l.ch, l.line, l.column)
	case ')':
		tok = newToken(token.RPAREN, l.ch, l.line, l.column)
	case '{':
		tok = newToken(token.LBRACE, l.ch, l.line, l.column)
	case '}':
		tok = newToken(token.RBRACE, l.ch, l.line, l.column)
	case '[':
		tok = newToken(token.LBRACKET, l.ch, l.line, l.column)
	case ']':
		tok = newToken(token.RBRACKET, l.ch, l.line, l.column)
	case '$':
		startLine, startCol := l.line, l.column
		if !isLetter(l.peekChar()) {
			tok = newToken(token.ILLEGAL, l.ch, l.line, l.column)
			break
		}
		l.readChar()
		name := l.readIdentifier()
		return token.Token{Type: token.VARIABLE, Lexeme: "$" + name, Literal: name, Line: startLine, Column: startCol}
	case '\'':
		return l.readSingleQuoted()
	case '"':
		return l.readDoubleQuoted()
	case 0:
		tok.Lexeme = ""
		tok.Type = token.EOF
		tok.Line = l.line
		tok.Column = l.column
		return tok
	default:
		if isLetter(l.ch) {
			startLine, startCol := l.line, l.column
			lexeme := l.readIdentifier()
			tok.Lexeme = lexeme
			tok.Type = token.LookupIdent(lexeme)
			tok.Literal = lexeme
			tok.Line = startLine
			tok.Column = startCol
			return tok
		} else if isDigit(l.ch) {
			return l.readNumber()
		}
		tok = newToken(token.ILLEGAL, l.ch, l.line, l.column)
	}

	l.readChar()
	return tok
}

// readInlineHTML copies text up to the next open tag.
func (l *Lexer) readInlineHTML() token.Token {
	if l.ch == 0 {
		return token.Token{Type: token.EOF, Line: l.line, Column: l.column}
	}
	startLine, startCol := l.line, l.column
	start := l.position
	rest := l.input[start:]

	idx := strings.Index(rest, "<?")
	for idx >= 0 && !strings.HasPrefix(rest[idx:], "<?php") && !strings.HasPrefix(rest[idx:], "<?=") {
		next := strings.Index(rest[idx+2:], "<?")
		if next < 0 {
			idx = -1
			break
		}
		idx += 2 + next
	}
	if idx < 0 {
		l.advanceTo(len(l.input))
		return token.Token{Type: token.INLINE_HTML, Lexeme: rest, Literal: rest, Line: startLine, Column: startCol}
	}

	text := rest[:idx]
	l.advanceTo(start + idx)
	l.inCode = true
	tagLine, tagCol := l.line, l.column
	var tag token.Token
	if l.hasPrefix("<?=") {
		l.advanceTo(l.position + 3)
		tag = token.Token{Type: token.ECHO, Lexeme: "<?=", Literal: "<?=", Line: tagLine, Column: tagCol}
	} else {
		l.advanceTo(l.position + 5)
		tag = token.Token{Type: token.OPEN_TAG, Lexeme: "<?php", Literal: "<?php", Line: tagLine, Column: tagCol}
	}
	if text == "" {
		return tag
	}
	l.pending = append(l.pending, tag)
	return token.Token{Type: token.INLINE_HTML, Lexeme: text, Literal: text, Line: startLine, Column: startCol}
}

// readCast recognizes "(int)", "( string )" and friends at the current '('.
func (l *Lexer) readCast() (token.Token, bool) {
	i := l.readPosition
	for i < len(l.input) && (l.input[i] == ' ' || l.input[i] == '\t') {
		i++
	}
	j := i
	for j < len(l.input) && isASCIILetter(l.input[j]) {
		j++
	}
	word := l.input[i:j]
	for j < len(l.input) && (l.input[j] == ' ' || l.input[j] == '\t') {
		j++
	}
	if word == "" || j >= len(l.input) || l.input[j] != ')' {
		return token.Token{}, false
	}
	castType, ok := token.LookupCast(word)
	if !ok {
		return token.Token{}, false
	}
	tok := token.Token{Type: token.CAST, Lexeme: l.input[l.position : j+1], Literal: castType, Line: l.line, Column: l.column}
	l.advanceTo(j + 1)
	return tok, true
}

func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

func (l *Lexer) readSingleQuoted() token.Token {
	startLine, startCol := l.line, l.column
	start := l.position
	var sb strings.Builder
	for {
		l.readChar()
		if l.ch == 0 {
			return token.Token{Type: token.ILLEGAL, Lexeme: l.input[start:], Literal: "unterminated string", Line: startLine, Column: startCol}
		}
		if l.ch == '\\' && (l.peekChar() == '\'' || l.peekChar() == '\\') {
			l.readChar()
			sb.WriteRune(l.ch)
			continue
		}
		if l.ch == '\'' {
			break
		}
		sb.WriteString(l.input[l.position:l.readPosition])
	}
	lexeme := l.input[start:l.readPosition]
	l.readChar()
	return token.Token{Type: token.STRING, Lexeme: lexeme, Literal: sb.String(), Line: startLine, Column: startCol}
}

func (l *Lexer) readDoubleQuoted() token.Token {
	startLine, startCol := l.line, l.column
	start := l.position
	end := scanDoubleQuoted(l.input, start)
	if end < 0 {
		l.advanceTo(len(l.input))
		return token.Token{Type: token.ILLEGAL, Lexeme: l.input[start:], Literal: "unterminated string", Line: startLine, Column: startCol}
	}
	raw := l.input[start+1 : end]
	l.advanceTo(end)
	l.readChar()

	parts := SplitInterpolated(raw)
	lexeme := l.input[start : end+1]
	if len(parts) == 0 {
		return token.Token{Type: token.STRING, Lexeme: lexeme, Literal: "", Line: startLine, Column: startCol}
	}
	if len(parts) == 1 && !parts[0].IsExpr {
		return token.Token{Type: token.STRING, Lexeme: lexeme, Literal: parts[0].Text, Line: startLine, Column: startCol}
	}
	return token.Token{Type: token.INTERPOLATED, Lexeme: lexeme, Literal: parts, Line: startLine, Column: startCol}
}

// scanDoubleQuoted returns the index of the closing quote of the string
// opened at start, or -1. Quotes inside {$...} blocks do not terminate.
func scanDoubleQuoted(in string, start int) int {
	i := start + 1
	for i < len(in) {
		switch {
		case in[i] == '\\':
			i += 2
		case in[i] == '"':
			return i
		case in[i] == '{' && i+1 < len(in) && in[i+1] == '$':
			i = skipBraced(in, i)
			if i < 0 {
				return -1
			}
		default:
			i++
		}
	}
	return -1
}

// skipBraced returns the index just past the '}' matching the '{' at i.
func skipBraced(in string, i int) int {
	depth := 0
	for i < len(in) {
		switch c := in[i]; c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		case '\'', '"':
			i++
			for i < len(in) && in[i] != c {
				if in[i] == '\\' {
					i++
				}
				i++
			}
		}
		i++
	}
	return -1
}

// SplitInterpolated decodes the body of a double-quoted string into text
// and embedded-expression parts.
func SplitInterpolated(raw string) []token.StringPart {
	var parts []token.StringPart
	var sb strings.Builder
	flush := func() {
		if sb.Len() > 0 {
			parts = append(parts, token.StringPart{Text: sb.String()})
			sb.Reset()
		}
	}

	i := 0
	for i < len(raw) {
		c := raw[i]
		switch {
		case c == '\\' && i+1 < len(raw):
			n := decodeEscape(raw, i, &sb)
			i += n
		case c == '$' && i+1 < len(raw) && isIdentStart(raw[i+1]):
			j := i + 1
			for j < len(raw) && isIdentByte(raw[j]) {
				j++
			}
			expr := raw[i:j]
			if j < len(raw) && raw[j] == '[' {
				if k := strings.IndexByte(raw[j:], ']'); k > 0 {
					expr += "[" + simpleOffset(raw[j+1:j+k]) + "]"
					j += k + 1
				}
			}
			flush()
			parts = append(parts, token.StringPart{Expr: expr, IsExpr: true})
			i = j
		case c == '{' && i+1 < len(raw) && raw[i+1] == '$':
			end := skipBraced(raw, i)
			if end < 0 {
				sb.WriteByte(c)
				i++
				continue
			}
			flush()
			parts = append(parts, token.StringPart{Expr: raw[i+1 : end-1], IsExpr: true})
			i = end
		default:
			sb.WriteByte(c)
			i++
		}
	}
	flush()
	return parts
}

// simpleOffset turns the offset of "$a[key]" into source: bare words are
// string keys, numbers and variables stay as written.
func simpleOffset(s string) string {
	if s == "" {
		return s
	}
	if s[0] == '$' || s[0] == '\'' || s[0] == '"' {
		return s
	}
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", "\\'") + "'"
}

// decodeEscape writes the escape starting at raw[i] and returns its width.
func decodeEscape(raw string, i int, sb *strings.Builder) int {
	next := raw[i+1]
	switch next {
	case 'n':
		sb.WriteByte('\n')
	case 't':
		sb.WriteByte('\t')
	case 'r':
		sb.WriteByte('\r')
	case 'v':
		sb.WriteByte('\v')
	case 'e':
		sb.WriteByte(0x1b)
	case 'f':
		sb.WriteByte('\f')
	case '\\', '$', '"':
		sb.WriteByte(next)
	case 'x':
		j := i + 2
		for j < len(raw) && j < i+4 && isHexByte(raw[j]) {
			j++
		}
		if j == i+2 {
			sb.WriteString(`\x`)
			return 2
		}
		n, _ := strconv.ParseUint(raw[i+2:j], 16, 8)
		sb.WriteByte(byte(n))
		return j - i
	case 'u':
		if i+2 < len(raw) && raw[i+2] == '{' {
			if k := strings.IndexByte(raw[i+3:], '}'); k > 0 {
				if n, err := strconv.ParseUint(raw[i+3:i+3+k], 16, 32); err == nil && n <= utf8.MaxRune {
					sb.WriteRune(rune(n))
					return k + 4
				}
			}
		}
		sb.WriteString(`\u`)
	default:
		if next >= '0' && next <= '7' {
			j := i + 1
			for j < len(raw) && j < i+4 && raw[j] >= '0' && raw[j] <= '7' {
				j++
			}
			n, _ := strconv.ParseUint(raw[i+1:j], 8, 16)
			sb.WriteByte(byte(n))
			return j - i
		}
		sb.WriteByte('\\')
		sb.WriteByte(next)
	}
	return 2
}

func (l *Lexer) readNumber() token.Token {
	startLine, startCol := l.line, l.column
	position := l.position
	base := 10
	isFloat := false

	if l.ch == '0' {
		switch l.peekChar() {
		case 'x', 'X':
			base = 16
		case 'b', 'B':
			base = 2
		case 'o', 'O':
			base = 8
		}
		if base != 10 {
			l.readChar()
			l.readChar()
		}
	}

	for isDigitInBase(l.ch, base) || (l.ch == '_' && isDigitInBase(l.peekChar(), base)) {
		l.readChar()
	}

	if base == 10 {
		if l.ch == '.' && isDigit(l.peekChar()) {
			isFloat = true
			l.readChar()
			for isDigit(l.ch) || (l.ch == '_' && isDigit(l.peekChar())) {
				l.readChar()
			}
		}
		if l.ch == 'e' || l.ch == 'E' {
			p := l.peekChar()
			if isDigit(p) || ((p == '+' || p == '-') && isDigit(l.peekChar2())) {
				isFloat = true
				l.readChar()
				if l.ch == '+' || l.ch == '-' {
					l.readChar()
				}
				for isDigit(l.ch) {
					l.readChar()
				}
			}
		}
	}

	lexeme := l.input[position:l.position]
	text := strings.ReplaceAll(lexeme, "_", "")

	if isFloat {
		val, err := strconv.ParseFloat(text, 64)
		if err != nil && !math.IsInf(val, 0) {
			return token.Token{Type: token.ILLEGAL, Lexeme: lexeme, Literal: err.Error(), Line: startLine, Column: startCol}
		}
		return token.Token{Type: token.FLOAT, Lexeme: lexeme, Literal: val, Line: startLine, Column: startCol}
	}

	digits := text
	switch base {
	case 16, 2:
		digits = text[2:]
	case 8:
		digits = text[2:]
	default:
		// Legacy octal: a leading zero.
		if len(text) > 1 && text[0] == '0' {
			base = 8
			digits = text[1:]
		}
	}
	if val, err := strconv.ParseInt(digits, base, 64); err == nil {
		return token.Token{Type: token.INT, Lexeme: lexeme, Literal: val, Line: startLine, Column: startCol}
	}
	// Integer literals past int64 become floats.
	if u, err := strconv.ParseUint(digits, base, 64); err == nil {
		return token.Token{Type: token.FLOAT, Lexeme: lexeme, Literal: float64(u), Line: startLine, Column: startCol}
	}
	if base == 10 {
		if val, err := strconv.ParseFloat(digits, 64); err == nil {
			return token.Token{Type: token.FLOAT, Lexeme: lexeme, Literal: val, Line: startLine, Column: startCol}
		}
	}
	return token.Token{Type: token.ILLEGAL, Lexeme: lexeme, Literal: "invalid numeric literal", Line: startLine, Column: startCol}
}

func isDigitInBase(ch rune, base int) bool {
	switch base {
	case 16:
		return isHexDigit(ch)
	case 2:
		return ch == '0' || ch == '1'
	case 8:
		return ch >= '0' && ch <= '7'
	}
	return isDigit(ch)
}

func isHexDigit(ch rune) bool {
	return isDigit(ch) || ('a' <= ch && ch <= 'f') || ('A' <= ch && ch <= 'F')
}

func isHexByte(c byte) bool { return isHexDigit(rune(c)) }

func isLetter(ch rune) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_' || ch >= 0x80
}

func isASCIILetter(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func isIdentStart(c byte) bool {
	return isASCIILetter(c) || c == '_' || c >= 0x80
}

func isIdentByte(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func (l *Lexer) skipWhitespace() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n' {
			l.readChar()
		}
		// Handle comments
		if l.ch == '#' || (l.ch == '/' && l.peekChar() == '/') {
			for l.ch != '\n' && l.ch != 0 {
				// "?>" ends a line comment.
				if l.ch == '?' && l.peekChar() == '>' {
					return
				}
				l.readChar()
			}
			continue
		}
		if l.ch == '/' && l.peekChar() == '*' {
			l.readChar() // consume /
			l.readChar() // consume *
			for l.ch != 0 {
				if l.ch == '*' && l.peekChar() == '/' {
					l.readChar() // consume *
					l.readChar() // consume /
					break
				}
				l.readChar()
			}
			continue
		}
		break
	}
}
