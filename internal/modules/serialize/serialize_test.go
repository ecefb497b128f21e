package serialize_test

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/funvibe/funphp/internal/ast"
	"github.com/funvibe/funphp/internal/environment"
	"github.com/funvibe/funphp/internal/evaluator"
	"github.com/funvibe/funphp/internal/lexer"
	"github.com/funvibe/funphp/internal/modules/core"
	"github.com/funvibe/funphp/internal/modules/serialize"
	"github.com/funvibe/funphp/internal/parser"
	"github.com/funvibe/funphp/internal/pipeline"
	"github.com/funvibe/funphp/internal/value"
)

func TestSerialize(t *testing.T) {
	list := value.NewList(value.Str("x"))
	nested := value.NewArray()
	nested.Put(value.StrKey("k"), value.Int(-3))
	nested.Put(value.IntKey(5), value.NewList(value.Bool(true), value.Null{}))
	obj := value.NewObject("Point")
	obj.Props.Put(value.StrKey("x"), value.Int(1))

	tests := []struct {
		name string
		in   value.Value
		want string
	}{
		{"null", value.Null{}, "N;"},
		{"bool", value.Bool(true), "b:1;"},
		{"int", value.Int(5), "i:5;"},
		{"float", value.Float(0.5), "d:0.5;"},
		{"whole float", value.Float(2), "d:2;"},
		{"inf", value.Float(math.Inf(-1)), "d:-INF;"},
		{"string", value.Str("abc"), `s:3:"abc";`},
		{"multibyte string", value.Str("é"), `s:2:"é";`},
		{"list", list, `a:1:{i:0;s:1:"x";}`},
		{"nested", nested, `a:2:{s:1:"k";i:-3;i:5;a:2:{i:0;b:1;i:1;N;}}`},
		{"object", obj, `O:5:"Point":1:{s:1:"x";i:1;}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := serialize.Serialize(tt.in)
			if err != nil {
				t.Fatalf("Serialize: %v", err)
			}
			if got != tt.want {
				t.Errorf("Serialize = %q, want %q", got, tt.want)
			}
			back, err := serialize.Unserialize(got)
			if err != nil {
				t.Fatalf("Unserialize(%q): %v", got, err)
			}
			if _, isObj := tt.in.(*value.Object); !isObj && !value.StrictEquals(back, tt.in) {
				t.Errorf("round trip = %s, want %s", back.Inspect(), tt.in.Inspect())
			}
		})
	}
}

func TestSerializeRejectsResources(t *testing.T) {
	arr := value.NewList(&value.Resource{ID: 1, Type: "stream"})
	if _, err := serialize.Serialize(arr); err == nil {
		t.Error("Serialize accepted a resource")
	}
}

func TestUnserializeObject(t *testing.T) {
	v, err := serialize.Unserialize(`O:5:"Point":1:{s:1:"x";i:1;}`)
	if err != nil {
		t.Fatalf("Unserialize: %v", err)
	}
	obj, ok := v.(*value.Object)
	if !ok || obj.Class != "Point" {
		t.Fatalf("got %s, want object(Point)", v.Inspect())
	}
	if got := obj.Props.Get(value.StrKey("x")); !value.StrictEquals(got, value.Int(1)) {
		t.Errorf("x = %s, want 1", got.Inspect())
	}
}

func TestUnserializeErrors(t *testing.T) {
	tests := []struct {
		in     string
		offset int
	}{
		{"", 0},
		{"i:5", 2},
		{"i:x;", 2},
		{`s:5:"abc";`, 10},
		{"b:2;", 4},
		{"a:1:{i:0;}", 9},
		{"a:1:{d:1;i:0;}", 9},
		{"N;N;", 2},
		{"q:1;", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := serialize.Unserialize(tt.in)
			var syn *serialize.SyntaxError
			if !errors.As(err, &syn) {
				t.Fatalf("error = %v, want SyntaxError", err)
			}
			if syn.Offset != tt.offset {
				t.Errorf("offset = %d, want %d", syn.Offset, tt.offset)
			}
		})
	}
}

func TestScriptFunctions(t *testing.T) {
	src := `$s = serialize(['a' => 1, 'b' => [true, 1.5]]); echo $s, '|';
$back = unserialize($s); echo $back['b'][1], '|', var_export(unserialize('garbage'), true);`
	ctx := pipeline.New(&lexer.LexerProcessor{}, &parser.ParserProcessor{}).Run(pipeline.NewContext(src, "test.php"))
	if ctx.HasErrors() {
		t.Fatalf("parse errors: %v", ctx.Errors)
	}
	e := evaluator.New(environment.New())
	var out bytes.Buffer
	e.Out = &out
	for _, install := range []func(*evaluator.Registry) error{core.Register, serialize.Register} {
		if err := install(e.Registry); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}
	if _, err := e.Eval(ctx.AstRoot.(*ast.Program), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `a:2:{s:1:"a";i:1;s:1:"b";a:2:{i:0;b:1;i:1;d:1.5;}}|1.5|false`
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}
