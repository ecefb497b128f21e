package backend_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/funvibe/funphp/internal/backend"
	"github.com/funvibe/funphp/internal/config"
	"github.com/funvibe/funphp/internal/diagnostics"
	"github.com/funvibe/funphp/internal/evaluator"
	"github.com/funvibe/funphp/internal/lexer"
	"github.com/funvibe/funphp/internal/modules/core"
	"github.com/funvibe/funphp/internal/parser"
	"github.com/funvibe/funphp/internal/pipeline"
	"github.com/funvibe/funphp/internal/value"
)

func runSource(t *testing.T, b *backend.TreeWalkBackend, src string) *pipeline.PipelineContext {
	t.Helper()
	ctx := pipeline.NewContext(src, "main.php")
	return pipeline.New(
		&lexer.LexerProcessor{},
		&parser.ParserProcessor{},
		backend.NewExecutionProcessor(b),
	).Run(ctx)
}

func newBackend(t *testing.T, cfg *config.Config) (*backend.TreeWalkBackend, *bytes.Buffer) {
	t.Helper()
	b, err := backend.NewTreeWalk(cfg, func(r *evaluator.Registry) error {
		r.RegisterConstant("GREETING", value.Str("hello"))
		return nil
	})
	if err != nil {
		t.Fatalf("NewTreeWalk: %v", err)
	}
	var out bytes.Buffer
	b.SetOutput(&out)
	return b, &out
}

func TestExecutionProcessorResult(t *testing.T) {
	b, out := newBackend(t, nil)
	ctx := runSource(t, b, `echo GREETING; return 2 + 3;`)
	if ctx.HasErrors() {
		t.Fatalf("unexpected errors: %v", ctx.Errors)
	}
	if out.String() != "hello" {
		t.Errorf("output = %q, want %q", out.String(), "hello")
	}
	if !value.StrictEquals(ctx.Result, value.Int(5)) {
		t.Errorf("result = %s, want 5", ctx.Result.Inspect())
	}
	if b.Name() != "tree-walk" {
		t.Errorf("Name() = %q", b.Name())
	}
}

func TestExecutionProcessorErrors(t *testing.T) {
	b, out := newBackend(t, nil)
	ctx := runSource(t, b, "echo 'a';\necho 1 / 0;\necho 'b';")
	if len(ctx.Errors) != 1 {
		t.Fatalf("got %d errors, want 1", len(ctx.Errors))
	}
	err := ctx.Errors[0]
	if err.Code != diagnostics.ErrR001 {
		t.Errorf("code = %s, want R001", err.Code)
	}
	if err.File != "main.php" || err.Token.Line != 2 {
		t.Errorf("position = %s:%d, want main.php:2", err.File, err.Token.Line)
	}
	if out.String() != "a" {
		t.Errorf("output = %q, want %q", out.String(), "a")
	}
}

func TestExecutionProcessorSkipsAfterParseErrors(t *testing.T) {
	b, out := newBackend(t, nil)
	ctx := runSource(t, b, `echo 'x'; echo (;`)
	if !ctx.HasErrors() {
		t.Fatal("expected parse errors")
	}
	if code := ctx.Errors[0].Code; code.Class() != diagnostics.ClassSyntax {
		t.Errorf("code = %s, want a parse error", code)
	}
	if out.Len() != 0 {
		t.Errorf("program ran despite parse errors: %q", out.String())
	}
}

func TestSessionStateSurvivesRuns(t *testing.T) {
	b, out := newBackend(t, nil)
	if ctx := runSource(t, b, `$count = 1; function bump() { global $count; $count++; }`); ctx.HasErrors() {
		t.Fatalf("unexpected errors: %v", ctx.Errors)
	}
	if ctx := runSource(t, b, `bump(); bump(); echo $count;`); ctx.HasErrors() {
		t.Fatalf("unexpected errors: %v", ctx.Errors)
	}
	if out.String() != "3" {
		t.Errorf("output = %q, want %q", out.String(), "3")
	}
}

func TestWarningsReporting(t *testing.T) {
	tests := []struct {
		mode string
		want int
	}{
		{config.WarningsReport, 1},
		{config.WarningsSilent, 0},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			cfg := config.Default()
			cfg.Warnings = tt.mode
			b, _ := newBackend(t, cfg)
			ctx := runSource(t, b, `echo $missing;`)
			if ctx.HasErrors() {
				t.Fatalf("unexpected errors: %v", ctx.Errors)
			}
			if len(ctx.Warnings) != tt.want {
				t.Fatalf("got %d warnings, want %d", len(ctx.Warnings), tt.want)
			}
			if tt.want > 0 && !strings.Contains(ctx.Warnings[0].Message, "$missing") {
				t.Errorf("warning = %q", ctx.Warnings[0].Message)
			}
			// warnings are handed out once
			if again := b.TakeWarnings(); len(again) != 0 {
				t.Errorf("warnings reported twice: %v", again)
			}
		})
	}
}

func TestConfigLimits(t *testing.T) {
	cfg := config.Default()
	cfg.MaxCallDepth = 20
	cfg.StrictVariables = true
	b, _ := newBackend(t, cfg)

	ctx := runSource(t, b, `function down($n) { return down($n + 1); } down(0);`)
	if len(ctx.Errors) != 1 || ctx.Errors[0].Code != diagnostics.ErrF001 {
		t.Fatalf("errors = %v, want F001", ctx.Errors)
	}
	ctx = runSource(t, b, `echo $nope;`)
	if len(ctx.Errors) != 1 || ctx.Errors[0].Code != diagnostics.ErrR006 {
		t.Fatalf("errors = %v, want R006", ctx.Errors)
	}
}

func TestServerVariablesFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Server = map[string]string{"SERVER_NAME": "example.test", "APP_ENV": "dev"}
	b, err := backend.NewTreeWalk(cfg, core.Register)
	if err != nil {
		t.Fatalf("NewTreeWalk: %v", err)
	}
	var out bytes.Buffer
	b.SetOutput(&out)
	ctx := runSource(t, b, `function env() { return $_SERVER['APP_ENV']; } echo implode(',', array_keys($_SERVER)), '|', $_SERVER['SERVER_NAME'], '|', env();`)
	if ctx.HasErrors() {
		t.Fatalf("unexpected errors: %v", ctx.Errors)
	}
	if want := "APP_ENV,SERVER_NAME|example.test|dev"; out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}
