package lexer

import (
	"testing"

	"github.com/funvibe/funphp/internal/token"
)

func collect(l *Lexer) []token.Token {
	var toks []token.Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == token.EOF || len(toks) > 1000 {
			return toks
		}
	}
}

func TestNextToken(t *testing.T) {
	input := `<?php
$a = [1, 'x' => 2.5];
$b =& $a; // comment
$c ??= $a <=> $b;
# hash comment
if ($a !== null && !empty($a)) { echo (int) "10" & "3"; }
$d .= 0x1F . 010 . 1_000 . .5 . 1e3;
/* block */ function f(&$p, $q = null) { return $p ** 2; }
`
	want := []struct {
		typ    token.TokenType
		lexeme string
	}{
		{token.OPEN_TAG, "<?php"},
		{token.VARIABLE, "$a"}, {token.ASSIGN, "="}, {token.LBRACKET, "["}, {token.INT, "1"},
		{token.COMMA, ","}, {token.STRING, "'x'"}, {token.DOUBLE_ARROW, "=>"}, {token.FLOAT, "2.5"},
		{token.RBRACKET, "]"}, {token.SEMICOLON, ";"},
		{token.VARIABLE, "$b"}, {token.ASSIGN, "="}, {token.AMP, "&"}, {token.VARIABLE, "$a"}, {token.SEMICOLON, ";"},
		{token.VARIABLE, "$c"}, {token.COALESCE_ASSIGN, "??="}, {token.VARIABLE, "$a"}, {token.SPACESHIP, "<=>"},
		{token.VARIABLE, "$b"}, {token.SEMICOLON, ";"},
		{token.IF, "if"}, {token.LPAREN, "("}, {token.VARIABLE, "$a"}, {token.NOT_IDENT, "!=="}, {token.NULL, "null"},
		{token.AND, "&&"}, {token.BANG, "!"}, {token.EMPTY, "empty"}, {token.LPAREN, "("}, {token.VARIABLE, "$a"},
		{token.RPAREN, ")"}, {token.RPAREN, ")"}, {token.LBRACE, "{"}, {token.ECHO, "echo"}, {token.CAST, "(int)"},
		{token.STRING, `"10"`}, {token.AMP, "&"}, {token.STRING, `"3"`}, {token.SEMICOLON, ";"}, {token.RBRACE, "}"},
		{token.VARIABLE, "$d"}, {token.CONCAT_ASSIGN, ".="}, {token.INT, "0x1F"}, {token.DOT, "."}, {token.INT, "010"},
		{token.DOT, "."}, {token.INT, "1_000"}, {token.DOT, "."}, {token.FLOAT, ".5"}, {token.DOT, "."},
		{token.FLOAT, "1e3"}, {token.SEMICOLON, ";"},
		{token.FUNCTION, "function"}, {token.IDENT, "f"}, {token.LPAREN, "("}, {token.AMP, "&"}, {token.VARIABLE, "$p"},
		{token.COMMA, ","}, {token.VARIABLE, "$q"}, {token.ASSIGN, "="}, {token.NULL, "null"}, {token.RPAREN, ")"},
		{token.LBRACE, "{"}, {token.RETURN, "return"}, {token.VARIABLE, "$p"}, {token.POWER, "**"}, {token.INT, "2"},
		{token.SEMICOLON, ";"}, {token.RBRACE, "}"},
		{token.EOF, ""},
	}

	toks := collect(New(input))
	if len(toks) != len(want) {
		for _, tok := range toks {
			t.Logf("%s %q", tok.Type, tok.Lexeme)
		}
		t.Fatalf("got %d tokens, want %d", len(toks), len(want))
	}
	for i, w := range want {
		if toks[i].Type != w.typ || toks[i].Lexeme != w.lexeme {
			t.Errorf("token %d = %s %q, want %s %q", i, toks[i].Type, toks[i].Lexeme, w.typ, w.lexeme)
		}
	}
}

func TestNumberLiterals(t *testing.T) {
	tests := []struct {
		input string
		typ   token.TokenType
		want  interface{}
	}{
		{"42", token.INT, int64(42)},
		{"0x1F", token.INT, int64(31)},
		{"0b101", token.INT, int64(5)},
		{"0o17", token.INT, int64(15)},
		{"017", token.INT, int64(15)},
		{"1_000_000", token.INT, int64(1000000)},
		{"1.5", token.FLOAT, 1.5},
		{"1e3", token.FLOAT, 1000.0},
		{"2.5E-1", token.FLOAT, 0.25},
		{"9223372036854775808", token.FLOAT, 9223372036854775808.0},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tok := New(tt.input).NextToken()
			if tok.Type != tt.typ || tok.Literal != tt.want {
				t.Errorf("%q => %s %v, want %s %v", tt.input, tok.Type, tok.Literal, tt.typ, tt.want)
			}
		})
	}
}

func TestStrings(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`'it\'s \n'`, `it's \n`},
		{`'back\\slash'`, `back\slash`},
		{`"tab\there"`, "tab\there"},
		{`"\x41\101\u{1F600}"`, "AA\U0001F600"},
		{`"cost: \$5"`, "cost: $5"},
		{`"unknown \q"`, `unknown \q`},
		{`"ünï"`, "ünï"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tok := New(tt.input).NextToken()
			if tok.Type != token.STRING {
				t.Fatalf("type = %s (%v)", tok.Type, tok.Literal)
			}
			if tok.Literal != tt.want {
				t.Errorf("literal = %q, want %q", tok.Literal, tt.want)
			}
		})
	}
}

func TestInterpolation(t *testing.T) {
	tok := New(`"Hi $name, item $a[0] / $a[key] / {$b['x']["y"]}!"`).NextToken()
	if tok.Type != token.INTERPOLATED {
		t.Fatalf("type = %s", tok.Type)
	}
	parts := tok.Literal.([]token.StringPart)
	want := []token.StringPart{
		{Text: "Hi "},
		{Expr: "$name", IsExpr: true},
		{Text: ", item "},
		{Expr: "$a[0]", IsExpr: true},
		{Text: " / "},
		{Expr: "$a['key']", IsExpr: true},
		{Text: " / "},
		{Expr: `$b['x']["y"]`, IsExpr: true},
		{Text: "!"},
	}
	if len(parts) != len(want) {
		t.Fatalf("parts = %#v", parts)
	}
	for i := range want {
		if parts[i] != want[i] {
			t.Errorf("part %d = %#v, want %#v", i, parts[i], want[i])
		}
	}
}

func TestTemplateMode(t *testing.T) {
	l := NewTemplate("<h1><?= $title ?></h1>\n<?php echo 1; ?>\ntail")
	want := []token.TokenType{
		token.INLINE_HTML, token.ECHO, token.VARIABLE, token.CLOSE_TAG,
		token.INLINE_HTML, token.OPEN_TAG, token.ECHO, token.INT, token.SEMICOLON, token.CLOSE_TAG,
		token.INLINE_HTML, token.EOF,
	}
	toks := collect(l)
	if len(toks) != len(want) {
		for _, tok := range toks {
			t.Logf("%s %q", tok.Type, tok.Lexeme)
		}
		t.Fatalf("got %d tokens, want %d", len(toks), len(want))
	}
	for i, w := range want {
		if toks[i].Type != w {
			t.Errorf("token %d = %s, want %s", i, toks[i].Type, w)
		}
	}
	if toks[4].Literal != "</h1>\n" {
		t.Errorf("html after close tag = %q", toks[4].Literal)
	}
	if toks[10].Literal != "tail" {
		t.Errorf("trailing html = %q (newline after ?> must be eaten)", toks[10].Literal)
	}
}

func TestPositions(t *testing.T) {
	toks := collect(New("$a = 1;\n  $bb = 2;"))
	bb := toks[4]
	if bb.Lexeme != "$bb" || bb.Line != 2 || bb.Column != 3 {
		t.Errorf("$bb at %d:%d (%q), want 2:3", bb.Line, bb.Column, bb.Lexeme)
	}
}

func TestUnterminatedString(t *testing.T) {
	for _, input := range []string{`"abc`, `'abc`} {
		tok := New(input).NextToken()
		if tok.Type != token.ILLEGAL {
			t.Errorf("%s => %s, want ILLEGAL", input, tok.Type)
		}
	}
}
