package preg_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/funvibe/funphp/internal/ast"
	"github.com/funvibe/funphp/internal/diagnostics"
	"github.com/funvibe/funphp/internal/environment"
	"github.com/funvibe/funphp/internal/evaluator"
	"github.com/funvibe/funphp/internal/lexer"
	"github.com/funvibe/funphp/internal/modules/core"
	"github.com/funvibe/funphp/internal/modules/preg"
	"github.com/funvibe/funphp/internal/parser"
	"github.com/funvibe/funphp/internal/pipeline"
)

func run(t *testing.T, src string) (string, error) {
	t.Helper()
	ctx := pipeline.New(&lexer.LexerProcessor{}, &parser.ParserProcessor{}).Run(pipeline.NewContext(src, "test.php"))
	if ctx.HasErrors() {
		t.Fatalf("parse errors: %v", ctx.Errors)
	}
	e := evaluator.New(environment.New())
	var out bytes.Buffer
	e.Out = &out
	for _, install := range []func(*evaluator.Registry) error{core.Register, preg.Register} {
		if err := install(e.Registry); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}
	_, err := e.Eval(ctx.AstRoot.(*ast.Program), nil)
	return out.String(), err
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"groups", `echo preg_match('/(\d+)-(\d+)/', 'ab 12-34', $m), $m[0], '|', $m[1], '|', $m[2];`, "112-34|12|34"},
		{"no match", `echo preg_match('/x/', 'abc', $m), count($m);`, "00"},
		{"named groups", `preg_match('/(?P<year>\d{4})-(?<mon>\d\d)/', 'on 2024-05', $m); echo implode(',', array_keys($m)), '=', $m['year'], $m['mon'];`, "0,year,1,mon,2=202405"},
		{"left to right numbering", `preg_match('/(?<a>x)(y)/', 'xy', $m); echo $m[1], $m[2], $m['a'];`, "xyx"},
		{"trailing unmatched trimmed", `preg_match('/(a)(b)?/', 'a', $m); echo count($m);`, "2"},
		{"middle unmatched empty", `preg_match('/(a)?(b)/', 'b', $m); echo count($m), '[', $m[1], ']';`, "3[]"},
		{"unmatched as null", `preg_match('/(a)(b)?/', 'a', $m, PREG_UNMATCHED_AS_NULL); echo count($m), var_export($m[2], true);`, "3NULL"},
		{"modifiers", `echo preg_match('/ABC/i', 'xabc'), preg_match('/^b$/m', "a\nb\nc"), preg_match('/a.b/s', "a\nb"), preg_match('/a  b # comment/x', 'ab');`, "1111"},
		{"offset capture", `preg_match('/b/', 'aéb', $m, PREG_OFFSET_CAPTURE); echo $m[0][0], $m[0][1];`, "b3"},
		{"start offset", `preg_match('/a./', 'abac', $m, 0, 1); echo $m[0];`, "ac"},
		{"bracket delimiters and posix classes", `echo preg_match('{^[[:alpha:]]+$}', 'abc'), preg_match('#[[:digit:]]#', 'x');`, "10"},
		{"ungreedy", `preg_match('/<.+>/U', '<a><b>', $m); echo $m[0];`, "<a>"},
		{"anchored", `echo preg_match('/b/A', 'ab'), preg_match('/a/A', 'ab');`, "01"},
		{"dollar end only", `echo preg_match('/a$/', "a\n"), preg_match('/a$/D', "a\n");`, "10"},
		{"quoted literal", `echo preg_match('/\Q.*\E/', 'a.*b'), preg_match('/\Q.*\E/', 'ab');`, "10"},
		{"backreference by name", `echo preg_match('/(?P<c>\w)(?P=c)/', 'abba');`, "1"},
		{"match all", `echo preg_match_all('/\d/', 'a1b2c3', $m), implode('', $m[0]);`, "3123"},
		{"match all pattern order", `preg_match_all('/(\w)(\d)/', 'a1 b2', $m); echo implode(',', $m[1]), '|', implode(',', $m[2]);`, "a,b|1,2"},
		{"match all set order", `preg_match_all('/(\w)(\d)/', 'a1 b2', $m, PREG_SET_ORDER); echo count($m), $m[1][0], $m[1][1], $m[1][2];`, "2b2b2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out != tt.want {
				t.Errorf("output = %q, want %q", out, tt.want)
			}
		})
	}
}

func TestReplaceAndSplit(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"references", `echo preg_replace('/(\w+) (\w+)/', '$2 ${1}!\1', 'hello world');`, "world hello!hello"},
		{"limit and count", `echo preg_replace('/a/', 'o', 'banana', 2, $c), $c;`, "bonona2"},
		{"pattern arrays", `echo preg_replace(['/a/', '/b/'], ['b', 'c'], 'ab');`, "cc"},
		{"missing replacement", `echo preg_replace(['/a/', '/b/'], ['x'], 'ab');`, "x"},
		{"subject array", `echo implode(',', preg_replace('/\d/', '#', ['x' => 'a1', 'y' => 'b22']));`, "a#,b##"},
		{"no match keeps subject", `echo preg_replace('/z/', 'y', 'abc', -1, $c), $c;`, "abc0"},
		{"callback", `function up($m) { return strtoupper($m[1]); } echo preg_replace_callback('/-(\w)/', 'up', 'foo-bar-baz');`, "fooBarBaz"},
		{"split", `echo implode('|', preg_split('/[\s,]+/', "a, b  c,d"));`, "a|b|c|d"},
		{"split chars", `echo implode('|', preg_split('//', 'abc', -1, PREG_SPLIT_NO_EMPTY));`, "a|b|c"},
		{"split limit", `echo implode('|', preg_split('/,/', 'a,b,c', 2));`, "a|b,c"},
		{"split delim capture", `echo implode('|', preg_split('/(-)/', 'a-b', -1, PREG_SPLIT_DELIM_CAPTURE));`, "a|-|b"},
		{"split offsets", `$p = preg_split('/ /', 'ab cd', -1, PREG_SPLIT_OFFSET_CAPTURE); echo $p[1][0], $p[1][1];`, "cd3"},
		{"quote", `echo preg_quote('1.5*[x]/y'), ' ', preg_quote('a/b#', '/');`, `1\.5\*\[x\]/y a\/b\#`},
		{"grep", `echo implode(',', preg_grep('/^\d+$/', ['1', 'a', '22'])), '|', implode(',', array_keys(preg_grep('/^\d+$/', ['1', 'a', '22'], PREG_GREP_INVERT)));`, "1,22|1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out != tt.want {
				t.Errorf("output = %q, want %q", out, tt.want)
			}
		})
	}
}

func TestPatternErrors(t *testing.T) {
	tests := []struct {
		input string
		code  diagnostics.ErrorCode
		msg   string
	}{
		{`preg_match('abc', 'x');`, diagnostics.ErrR003, "preg_match(): Delimiter must not be alphanumeric"},
		{`preg_match('', 'x');`, diagnostics.ErrR003, "Empty regular expression"},
		{`preg_match('/abc', 'x');`, diagnostics.ErrR003, "No ending delimiter '/' found"},
		{`preg_match('(abc', 'x');`, diagnostics.ErrR003, "No ending matching delimiter ')' found"},
		{`preg_match('/a/q', 'x');`, diagnostics.ErrR003, "Unknown modifier 'q'"},
		{`preg_match('/(/', 'x');`, diagnostics.ErrR003, "Compilation failed"},
		{`preg_replace_callback('/a/', 'nope', 'a');`, diagnostics.ErrR005, "must be a valid callback"},
		{`preg_replace('/a/', ['x'], 'a');`, diagnostics.ErrR005, "must be of type array when argument #2"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := run(t, tt.input)
			if code, _ := diagnostics.CodeOf(err); code != tt.code {
				t.Fatalf("error = %v, want %s", err, tt.code)
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.msg)
			}
		})
	}
}

func TestCompileCachesPatterns(t *testing.T) {
	a, err := preg.Compile("/(x)(?<n>y)(z)/i")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	b, err := preg.Compile("/(x)(?<n>y)(z)/i")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if a != b {
		t.Error("second Compile did not hit the cache")
	}
	if got := a.GroupCount(); got != 4 {
		t.Errorf("GroupCount = %d, want 4", got)
	}
}
