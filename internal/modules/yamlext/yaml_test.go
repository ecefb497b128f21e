package yamlext_test

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/funvibe/funphp/internal/ast"
	"github.com/funvibe/funphp/internal/diagnostics"
	"github.com/funvibe/funphp/internal/environment"
	"github.com/funvibe/funphp/internal/evaluator"
	"github.com/funvibe/funphp/internal/lexer"
	"github.com/funvibe/funphp/internal/modules/core"
	"github.com/funvibe/funphp/internal/modules/yamlext"
	"github.com/funvibe/funphp/internal/parser"
	"github.com/funvibe/funphp/internal/pipeline"
	"github.com/funvibe/funphp/internal/value"
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
	for _, install := range []func(*evaluator.Registry) error{core.Register, yamlext.Register} {
		if err := install(e.Registry); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}
	_, err := e.Eval(ctx.AstRoot.(*ast.Program), nil)
	return out.String(), err
}

func TestYamlParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"scalars keep order", `$d = yaml_parse("name: app\nport: 8080\nratio: 0.5\ndebug: true\nnone: ~\ntags: [a, b]\n");
echo $d['name'], $d['port'] + 1, gettype($d['ratio']), $d['debug'] ? 'T' : 'F', is_null($d['none']) ? 'N' : '', count($d['tags']), ' ', implode(',', array_keys($d));`,
			"app8081doubleTN2 name,port,ratio,debug,none,tags"},
		{"quoted stays string", `$d = yaml_parse("a: '12'\nb: 12\n"); echo gettype($d['a']), gettype($d['b']);`, "stringinteger"},
		{"numeric keys", `$d = yaml_parse("1: one\n'2': two\n"); echo $d[1], $d[2];`, "onetwo"},
		{"merge keys", `$d = yaml_parse("base: &b {x: 1, y: 2}\nchild:\n  <<: *b\n  y: 3\n"); echo $d['child']['x'], $d['child']['y'], $d['base']['y'];`, "132"},
		{"all documents", `$all = yaml_parse("a: 1\n---\nb: 2\n", -1); $second = yaml_parse("a: 1\n---\nb: 2\n", 1); echo count($all), $all[1]['b'], $second['b'];`, "222"},
		{"empty stream", `var_dump(yaml_parse(""));`, "NULL\n"},
		{"sequence root", `echo implode('-', yaml_parse("- 1\n- 2\n- 3\n"));`, "1-2-3"},
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

func TestYamlErrors(t *testing.T) {
	tests := []struct {
		input string
		msg   string
	}{
		{`yaml_parse("a: [1");`, "YAML parse error"},
		{`yaml_parse("a: 1", 3);`, "Document 3 not found"},
		{`yaml_parse_file("/nonexistent/dir/x.yaml");`, "Cannot read file"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := run(t, tt.input)
			if code, _ := diagnostics.CodeOf(err); code != diagnostics.ErrR003 {
				t.Fatalf("error = %v, want R003", err)
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.msg)
			}
		})
	}
}

func TestEmitRoundTrip(t *testing.T) {
	in := value.NewArray()
	in.Put(value.StrKey("a"), value.Int(1))
	in.Put(value.StrKey("list"), value.NewList(value.Int(1), value.Str("x")))
	in.Put(value.StrKey("f"), value.Float(1))
	in.Put(value.StrKey("s"), value.Str("123"))
	in.Put(value.StrKey("n"), value.Null{})
	in.Put(value.StrKey("b"), value.Bool(false))
	in.Put(value.IntKey(7), value.Str("seven"))

	out, err := yamlext.Emit(in)
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if !strings.HasPrefix(out, "---\n") || !strings.HasSuffix(out, "...\n") {
		t.Errorf("document framing missing:\n%s", out)
	}
	for _, line := range []string{"a: 1\n", "f: 1.0\n", `s: "123"` + "\n", "b: false\n", "7: seven\n"} {
		if !strings.Contains(out, line) {
			t.Errorf("output lacks %q:\n%s", line, out)
		}
	}

	docs, err := yamlext.Parse(out)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("got %d documents, want 1", len(docs))
	}
	if !value.StrictEquals(docs[0], in) {
		t.Errorf("round trip mismatch:\n got %s\nwant %s", docs[0].Inspect(), in.Inspect())
	}
}

func TestEmitScalar(t *testing.T) {
	out, err := yamlext.Emit(value.Int(5))
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if out != "--- 5\n...\n" {
		t.Errorf("Emit(5) = %q", out)
	}
	if _, err := yamlext.Emit(&value.Resource{ID: 1, Type: "stream"}); err == nil {
		t.Error("Emit accepted a resource")
	}
}

func TestEmitFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.yaml")
	src := fmt.Sprintf(`yaml_emit_file('%s', ['name' => 'x', 'items' => [1, 2]]); $d = yaml_parse_file('%s'); echo $d['name'], array_sum($d['items']);`, path, path)
	out, err := run(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "x3" {
		t.Errorf("output = %q, want %q", out, "x3")
	}
}
