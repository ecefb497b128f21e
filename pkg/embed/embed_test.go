package funphp_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/funvibe/funphp/internal/config"
	"github.com/funvibe/funphp/internal/diagnostics"
	"github.com/funvibe/funphp/internal/value"
	funphp "github.com/funvibe/funphp/pkg/embed"
)

// User is a Go struct handed to scripts as a host resource.
type User struct {
	Name  string
	Score int
}

func (u *User) AddScore(points int) {
	u.Score += points
}

func (u *User) GetStatus() string {
	return fmt.Sprintf("User %s has %d points", u.Name, u.Score)
}

func newInterpreter(t *testing.T, opts ...funphp.Option) (*funphp.Interpreter, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	in, err := funphp.New(append([]funphp.Option{funphp.WithOutput(&out)}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { in.Close() })
	return in, &out
}

func TestEmbedAPI(t *testing.T) {
	in, _ := newInterpreter(t)

	mustRegister(t, in, "double", func(x int) int { return x * 2 })
	mustRegister(t, in, "add_score", (*User).AddScore)
	mustRegister(t, in, "status", (*User).GetStatus)

	user := &User{Name: "Alice", Score: 10}
	if err := in.SetGlobal("player", user); err != nil {
		t.Fatalf("SetGlobal: %v", err)
	}

	res, err := in.Eval(`$doubled = double(21);
add_score($player, 5);
return [$doubled, status($player)];`)
	if err != nil {
		t.Fatalf("Eval failed: %v", err)
	}

	got, err := funphp.NewMarshaller().FromValue(res, nil)
	if err != nil {
		t.Fatalf("FromValue: %v", err)
	}
	want := []interface{}{42, "User Alice has 15 points"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("result = %#v, want %#v", got, want)
	}
	if user.Score != 15 {
		t.Errorf("Go struct not updated: Score is %d, expected 15", user.Score)
	}
}

func mustRegister(t *testing.T, in *funphp.Interpreter, name string, fn interface{}) {
	t.Helper()
	if err := in.Register(name, fn); err != nil {
		t.Fatalf("Register(%s): %v", name, err)
	}
}

func TestGlobalsRoundTrip(t *testing.T) {
	in, _ := newInterpreter(t)
	cfg := map[string]interface{}{"name": "app", "ports": []int{80, 443}}
	if err := in.SetGlobal("cfg", cfg); err != nil {
		t.Fatalf("SetGlobal: %v", err)
	}
	if _, err := in.Eval(`$cfg['ports'][] = 8080; $n = count($cfg['ports']);`); err != nil {
		t.Fatalf("Eval: %v", err)
	}

	got, err := in.Get("cfg")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	want := map[string]interface{}{"name": "app", "ports": []interface{}{80, 443, 8080}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("cfg = %#v, want %#v", got, want)
	}
	if n := in.Global("n"); !value.StrictEquals(n, value.Int(3)) {
		t.Errorf("$n = %s, want 3", n.Inspect())
	}
	if len(cfg["ports"].([]int)) != 2 {
		t.Error("script modified the Go slice")
	}
	if _, err := in.Get("nope"); err == nil {
		t.Error("Get of an undefined variable succeeded")
	}
	if !value.IsNull(in.Global("nope")) {
		t.Error("Global of an undefined variable is not null")
	}
}

func TestEvalFile(t *testing.T) {
	in, out := newInterpreter(t)
	path := filepath.Join(t.TempDir(), "page.php")
	if err := os.WriteFile(path, []byte(`<h1><?php echo $title; ?></h1>`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := in.SetGlobal("title", "Hi"); err != nil {
		t.Fatalf("SetGlobal: %v", err)
	}
	if _, err := in.EvalFile(path); err != nil {
		t.Fatalf("EvalFile: %v", err)
	}
	if out.String() != "<h1>Hi</h1>" {
		t.Errorf("output = %q", out.String())
	}
}

func TestCall(t *testing.T) {
	in, _ := newInterpreter(t)
	if _, err := in.Eval(`function greet($n) { return "hi $n"; }`); err != nil {
		t.Fatalf("Eval: %v", err)
	}
	tests := []struct {
		fn   string
		args []interface{}
		want interface{}
	}{
		{"greet", []interface{}{"bob"}, "hi bob"},
		{"strtoupper", []interface{}{"x"}, "X"},
		{"count", []interface{}{[]string{"a", "b"}}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.fn, func(t *testing.T) {
			got, err := in.Call(tt.fn, tt.args...)
			if err != nil {
				t.Fatalf("Call: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Call = %#v, want %#v", got, tt.want)
			}
		})
	}
	if _, err := in.Call("missing"); err == nil {
		t.Error("calling an undefined function succeeded")
	}
}

func TestErrorsAndWarnings(t *testing.T) {
	var logged bytes.Buffer
	in, _ := newInterpreter(t, funphp.WithLogger(log.New(&logged, "", 0)))
	mustRegister(t, in, "fail", func() error { return errors.New("boom") })

	if _, err := in.Eval(`echo $missing;`); err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if w := in.Warnings(); len(w) != 1 || w[0].Code != diagnostics.ErrW001 {
		t.Errorf("warnings = %v, want one W001", w)
	}
	if !strings.Contains(logged.String(), "$missing") {
		t.Errorf("logger got %q", logged.String())
	}

	tests := []struct {
		code string
		want diagnostics.ErrorCode
	}{
		{`1 / 0;`, diagnostics.ErrR001},
		{`fail();`, diagnostics.ErrR003},
		{`nope();`, diagnostics.ErrR005},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			_, err := in.Eval(tt.code)
			if code, _ := diagnostics.CodeOf(err); code != tt.want {
				t.Errorf("error = %v, want %s", err, tt.want)
			}
		})
	}

	_, err := in.Eval(`echo (;`)
	var d *diagnostics.DiagnosticError
	if !errors.As(err, &d) || d.Code.Class() != diagnostics.ClassSyntax {
		t.Errorf("parse error = %v", err)
	}
}

func TestCancellation(t *testing.T) {
	in, _ := newInterpreter(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := in.EvalContext(ctx, `$i = 0; while (true) { $i++; }`)
	if code, _ := diagnostics.CodeOf(err); code != diagnostics.ErrF003 {
		t.Fatalf("error = %v, want F003", err)
	}
	// the interpreter stays usable
	if _, err := in.Eval(`$ok = 1;`); err != nil {
		t.Fatalf("Eval after cancellation: %v", err)
	}
}

func TestSessionSurvivesClose(t *testing.T) {
	cfg := config.Default()
	cfg.Session.DB = filepath.Join(t.TempDir(), "sessions.db")

	first, err := funphp.New(funphp.WithConfig(cfg))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := first.Eval(`session_id('abc'); session_start(); $_SESSION['n'] = 7;`); err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, err := funphp.New(funphp.WithConfig(cfg))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer second.Close()
	res, err := second.Eval(`session_id('abc'); session_start(); return $_SESSION['n'];`)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if !value.StrictEquals(res, value.Int(7)) {
		t.Errorf("restored $_SESSION['n'] = %s, want 7", res.Inspect())
	}
}

func TestOptions(t *testing.T) {
	in, _ := newInterpreter(t, funphp.WithPackages("core"))
	if _, err := in.Eval(`preg_match('/a/', 'a');`); err == nil {
		t.Error("preg_match available although only core was requested")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "funphp.yaml")
	if err := os.WriteFile(path, []byte("strict_variables: true\n"), 0644); err != nil {
		t.Fatal(err)
	}
	strict, _ := newInterpreter(t, funphp.WithConfigFile(path))
	if _, err := strict.Eval(`echo $undefined;`); err == nil {
		t.Error("strict_variables from the config file was ignored")
	}

	if _, err := funphp.New(funphp.WithConfigFile(filepath.Join(dir, "missing.yaml"))); err == nil {
		t.Error("New accepted a missing config file")
	}
	if _, err := funphp.New(funphp.WithPackages("nope")); err == nil {
		t.Error("New accepted an unknown package")
	}
}

func TestClosedInterpreter(t *testing.T) {
	in, err := funphp.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := in.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := in.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	tests := []struct {
		name string
		call func() error
	}{
		{"Eval", func() error { _, err := in.Eval(`echo 1;`); return err }},
		{"EvalFile", func() error { _, err := in.EvalFile("missing.php"); return err }},
		{"Call", func() error { _, err := in.Call("strtoupper", "x"); return err }},
		{"SetGlobal", func() error { return in.SetGlobal("x", 1) }},
		{"Get", func() error { _, err := in.Get("x"); return err }},
		{"Register", func() error { return in.Register("f", func() {}) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, funphp.ErrClosed) {
				t.Errorf("%s after Close = %v, want ErrClosed", tt.name, err)
			}
		})
	}
}

func TestArrayDelegate(t *testing.T) {
	in, out := newInterpreter(t)
	store := map[interface{}]interface{}{}
	next := 0
	d := &funphp.ArrayDelegate{
		Get: func(key interface{}) (interface{}, error) {
			return store[key], nil
		},
		Put: func(key, val interface{}) error {
			if key == "bad" {
				return errors.New("rejected")
			}
			if key == nil {
				key = next
				next++
			}
			store[key] = val
			return nil
		},
		Count: func() (int, error) { return len(store), nil },
		Unset: func(key interface{}) error {
			delete(store, key)
			return nil
		},
	}
	if err := in.SetGlobal("d", d); err != nil {
		t.Fatalf("SetGlobal: %v", err)
	}

	tests := []struct {
		name string
		code string
		want string
	}{
		{"write and read", `$d['a'] = 1; echo $d['a'];`, "1"},
		{"append", `$d[] = 'x'; echo $d[0];`, "x"},
		{"isset", `echo isset($d['a']) ? 'y' : 'n', isset($d['zz']) ? 'y' : 'n';`, "yn"},
		{"count", `echo count($d);`, "2"},
		{"unset", `unset($d['a']); echo isset($d['a']) ? 'y' : 'n', count($d);`, "n1"},
		{"inside a function", `function peek() { global $d; return $d[0]; } echo peek();`, "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			if _, err := in.Eval(tt.code); err != nil {
				t.Fatalf("Eval: %v", err)
			}
			if out.String() != tt.want {
				t.Errorf("output = %q, want %q", out.String(), tt.want)
			}
		})
	}

	if !reflect.DeepEqual(store, map[interface{}]interface{}{0: "x"}) {
		t.Errorf("store = %v", store)
	}
	if got, err := in.Get("d"); err != nil || got != d {
		t.Errorf("Get(d) = %v, %v; want the delegate", got, err)
	}
	if got, err := in.Call("count", d); err != nil || got != 1 {
		t.Errorf("Call(count) = %v, %v; want 1", got, err)
	}
	_, err := in.Eval(`$d['bad'] = 1;`)
	if code, _ := funphp.CodeOf(err); code != diagnostics.ErrR003 {
		t.Errorf("failing callback: error = %v, want R003", err)
	}
}

func TestPublicTypes(t *testing.T) {
	in, out := newInterpreter(t)
	var double funphp.NativeFunction = func(_ *funphp.CallContext, args []funphp.Value) (funphp.Value, error) {
		return value.Int(value.ToInt(args[0]) * 2), nil
	}
	mustRegister(t, in, "double", double)

	var res funphp.Value
	res, err := in.Eval(`echo double(4); return double(5);`)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if out.String() != "8" || res.Inspect() != "10" {
		t.Errorf("output %q, result %s", out.String(), res.Inspect())
	}
	if _, err := in.Eval(`echo $nope;`); err != nil {
		t.Fatalf("Eval: %v", err)
	}
	var warnings []funphp.Warning = in.Warnings()
	if len(warnings) != 1 || warnings[0].Code != funphp.ErrorCode("W001") {
		t.Errorf("warnings = %v", warnings)
	}
}

func TestSelfReferencingGlobal(t *testing.T) {
	in, _ := newInterpreter(t)
	if _, err := in.Eval(`$a = [1]; $a[1] = &$a;`); err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if _, err := in.Get("a"); !errors.Is(err, value.ErrNestingTooDeep) {
		t.Errorf("Get(a) = %v, want ErrNestingTooDeep", err)
	}
}
