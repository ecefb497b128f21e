package i18n_test

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
	"github.com/funvibe/funphp/internal/modules/i18n"
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
	if err := core.Register(e.Registry); err != nil {
		t.Fatalf("core.Register: %v", err)
	}
	if err := i18n.Register(e.Registry); err != nil {
		t.Fatalf("i18n.Register: %v", err)
	}
	_, err := e.Eval(ctx.AstRoot.(*ast.Program), nil)
	return out.String(), err
}

func TestConversions(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"utf8 to latin1", `echo bin2hex(iconv("UTF-8", "ISO-8859-1", "café"));`, "636166e9"},
		{"latin1 to utf8", `echo iconv("ISO-8859-1", "UTF-8", "caf\xe9");`, "café"},
		{"translit", `echo iconv("UTF-8", "ISO-8859-1//TRANSLIT", "5€");`, "5?"},
		{"ignore unmappable", `echo iconv("UTF-8", "ISO-8859-1//IGNORE", "5€x");`, "5x"},
		{"ignore malformed", `echo iconv("UTF-8", "UTF-8//IGNORE", "a\xffb");`, "ab"},
		{"translit malformed", `echo iconv("UTF-8", "UTF-8//TRANSLIT", "a\xffb");`, "a?b"},
		{"mb_convert_encoding", `echo mb_convert_encoding("\xe9t\xe9", "UTF-8", "ISO-8859-1");`, "été"},
		{"candidate list", `echo mb_convert_encoding("\xe9", "UTF-8", "UTF-8,ISO-8859-1");`, "é"},
		{"label travels with string", `$s = iconv("UTF-8", "ISO-8859-1", "été"); echo strlen($s), mb_strlen($s), mb_convert_encoding($s, "UTF-8");`, "33été"},
		{"mb_strlen", `echo mb_strlen("héllo"), strlen("héllo"), mb_strlen("\xe9\xe9", "ISO-8859-1");`, "562"},
		{"case mapping", `echo mb_strtoupper("héllo"), mb_strtolower("ÀÉÎ");`, "HÉLLOàéî"},
		{"mb_substr", `echo mb_substr("héllo wörld", -5), '|', mb_substr("héllo", 1, 3), '|', mb_substr("héllo", 1, -1), '|', mb_substr("abc", 5);`, "wörld|éll|éll|"},
		{"mb_check_encoding", `echo mb_check_encoding("a\xff") ? 'y' : 'n', mb_check_encoding("é") ? 'y' : 'n', mb_check_encoding("\xff", "ISO-8859-1") ? 'y' : 'n';`, "nyy"},
		{"internal encoding", `echo mb_internal_encoding();`, "UTF-8"},
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

func TestConversionErrors(t *testing.T) {
	tests := []struct {
		input string
		code  diagnostics.ErrorCode
		msg   string
	}{
		{`iconv("UTF-8", "ISO-8859-1", "€");`, diagnostics.ErrR003, "iconv(): Detected an illegal character in input string"},
		{`iconv("UTF-8", "ISO-8859-1", "a\xff");`, diagnostics.ErrR003, "Detected an illegal character"},
		{`iconv("UTF-8", "NOPE-42", "a");`, diagnostics.ErrR005, `must be a valid encoding, "NOPE-42" given`},
		{`mb_strlen("a", "bogus");`, diagnostics.ErrR005, "must be a valid encoding"},
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

func TestSplitTarget(t *testing.T) {
	tests := []struct {
		in   string
		name string
		mode i18n.ErrorMode
	}{
		{"UTF-8", "UTF-8", i18n.Strict},
		{"ASCII//TRANSLIT", "ASCII", i18n.Translit},
		{"latin1//IGNORE", "latin1", i18n.Ignore},
		{"UTF-8//TRANSLIT//IGNORE", "UTF-8", i18n.Ignore},
		{"UTF-8//IGNORE//TRANSLIT", "UTF-8", i18n.Ignore},
	}
	for _, tt := range tests {
		name, mode := i18n.SplitTarget(tt.in)
		if name != tt.name || mode != tt.mode {
			t.Errorf("SplitTarget(%q) = (%q, %d), want (%q, %d)", tt.in, name, mode, tt.name, tt.mode)
		}
	}
}

func TestLookupCharset(t *testing.T) {
	for _, label := range []string{"UTF-8", "utf8", "ISO-8859-1", "latin1", "Windows-1251", "Shift_JIS"} {
		if _, err := i18n.LookupCharset(label); err != nil {
			t.Errorf("LookupCharset(%q): %v", label, err)
		}
	}
	if _, err := i18n.LookupCharset("no-such-charset"); err == nil {
		t.Error("LookupCharset accepted an unknown label")
	}
	cs, err := i18n.LookupCharset("utf8")
	if err != nil || !cs.IsUTF8() {
		t.Errorf("utf8 should resolve to UTF-8, got %+v, %v", cs, err)
	}
}

func TestDefaultCharsetValidated(t *testing.T) {
	m := &i18n.Module{DefaultCharset: "klingon"}
	if err := m.Install(evaluator.NewRegistry()); err == nil {
		t.Error("Install accepted an unknown default charset")
	}
}
