package core_test

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
	"github.com/funvibe/funphp/internal/parser"
	"github.com/funvibe/funphp/internal/pipeline"
)

func run(t *testing.T, src string) (string, *evaluator.Evaluator, error) {
	t.Helper()
	ctx := pipeline.New(&lexer.LexerProcessor{}, &parser.ParserProcessor{}).Run(pipeline.NewContext(src, "test.php"))
	if ctx.HasErrors() {
		t.Fatalf("parse errors: %v", ctx.Errors)
	}
	e := evaluator.New(environment.New())
	var out bytes.Buffer
	e.Out = &out
	if err := core.Register(e.Registry); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, err := e.Eval(ctx.AstRoot.(*ast.Program), nil)
	return out.String(), e, err
}

func TestCoreFunctions(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"gettype", `echo gettype(1), gettype(1.5), gettype("s"), gettype([]), gettype(null), gettype(true);`, "integerdoublestringarrayNULLboolean"},
		{"is_checks", `echo is_int(1) ? 'y' : 'n', is_string(1) ? 'y' : 'n', is_numeric("1e3") ? 'y' : 'n', is_array([]) ? 'y' : 'n';`, "ynyy"},
		{"intval", `echo intval("42abc"), ' ', intval("ff", 16), ' ', intval("0b101", 2), ' ', intval(3.9);`, "42 255 5 3"},
		{"count", `echo count([1, 2, [3, 4]]), count([1, [2, 3]], COUNT_RECURSIVE);`, "34"},
		{"keys values", `print_r(array_keys(['a' => 1, 'b' => 2])); print_r(array_values(['x' => 'y']));`,
			"Array\n(\n    [0] => a\n    [1] => b\n)\nArray\n(\n    [0] => y\n)\n"},
		{"in_array", `echo in_array("1", [1, 2]) ? 'y' : 'n', in_array("1", [1, 2], true) ? 'y' : 'n', array_search(2, ['a' => 1, 'b' => 2]);`, "ynb"},
		{"push pop", `$a = [1]; echo array_push($a, 2, 3); echo array_pop($a); $a[] = 9; echo implode(',', $a);`, "331,2,9"},
		{"shift unshift", `$a = [5 => 'x', 'k' => 'y', 'z']; echo array_shift($a); array_unshift($a, 'w'); echo implode(',', array_keys($a));`, "x0,k,1"},
		{"merge", `print_r(array_merge([5 => 'a', 'k' => 'b'], ['k' => 'c', 'd']));`,
			"Array\n(\n    [0] => a\n    [k] => c\n    [1] => d\n)\n"},
		{"slice reverse", `echo implode(',', array_slice([1, 2, 3, 4], 1, 2)), '|', implode(',', array_slice([1, 2, 3], -2)), '|', implode(',', array_reverse([1, 2, 3]));`, "2,3|2,3|3,2,1"},
		{"sum range", `echo array_sum([1, 2, 3.5]), ' ', implode(',', range(1, 4)), ' ', implode('', range('a', 'e')), ' ', implode(',', range(10, 0, 5));`, "6.5 1,2,3,4 abcde 10,5,0"},
		{"map filter", `function sq($x) { return $x * $x; } function odd($x) { return $x % 2; }
echo implode(',', array_map('sq', [1, 2, 3])), '|', implode(',', array_filter([1, 2, 3, 4], 'odd')), '|', count(array_filter([0, 1, '', 'a']));`, "1,4,9|1,3|2"},
		{"sort", `$a = [3, 1, 2]; sort($a); echo implode('', $a); rsort($a); echo implode('', $a); $k = ['b' => 1, 'a' => 2]; ksort($k); echo implode('', array_keys($k)); asort($k); echo implode('', array_keys($k));`, "123321abba"},
		{"usort", `function cmp($a, $b) { return $a <=> $b; } $a = [3, 1, 2]; usort($a, 'cmp'); echo implode('', $a);`, "123"},
		{"combine flip", `print_r(array_combine(['a', 'b'], [1, 2])); print_r(array_flip(['x', 'y']));`,
			"Array\n(\n    [a] => 1\n    [b] => 2\n)\nArray\n(\n    [x] => 0\n    [y] => 1\n)\n"},
		{"strings", `echo strlen("hello"), strtoupper("abc"), strtolower("XyZ"), ucfirst("foo"), ucwords("a b"), strrev("abc");`, "5ABCxyzFooA Bcba"},
		{"explode implode", `print_r(explode(',', 'a,b,,c')); echo implode('-', explode(',', 'a,b,c', 2)), '|', implode('-', explode(',', 'a,b,c', -1));`,
			"Array\n(\n    [0] => a\n    [1] => b\n    [2] => \n    [3] => c\n)\na-b,c|a-b"},
		{"substr strpos", `echo substr("abcdef", 1, 3), substr("abcdef", -2), '|', strpos("hello", "l"), '|', var_export(strpos("hello", "z"), true), '|', stripos("HeLLo", "ll");`, "bcdef|2|false|2"},
		{"str_replace", `echo str_replace("a", "o", "banana"), str_replace(['a', 'b'], ['1'], "abc");`, "bonona1c"},
		{"trim pad", `echo '[', trim("  x "), '][', rtrim("xaa", "a"), '][', str_pad("5", 3, "0", STR_PAD_LEFT), '][', str_pad("ab", 5, "-", STR_PAD_BOTH), ']';`, "[x][x][005][-ab--]"},
		{"repeat split", `echo str_repeat("ab", 3), '|', implode(',', str_split("abcde", 2));`, "ababab|ab,cd,e"},
		{"hashes", `echo md5("a"), ' ', bin2hex("ab"), ' ', base64_encode("hi"), ' ', base64_decode("aGk=");`, "0cc175b9c0f1b6a831c399e269772661 6162 aGk= hi"},
		{"number_format", `echo number_format(1234567.891), ' ', number_format(1234.5678, 2), ' ', number_format(-1234.5, 1, ',', '.');`, "1,234,568 1,234.57 -1.234,5"},
		{"sprintf", `echo sprintf("%05d|%-4s|%.2f|%x|%b|%'*6s|%+d|%%|" . '%2$s %1$s', 42, "ab", 3.14159, 255, 5, "r", 3);`, "00042|ab  |3.14|ff|101|*****r|+3|%|ab 42"},
		{"sprintf exp", `echo sprintf("%e", 1234.5), ' ', sprintf("%.1e", 0.00012);`, "1.234500e+3 1.2e-4"},
		{"printf", `$n = printf("%s-%s", "a", "b"); echo $n;`, "a-b3"},
		{"math", `echo abs(-5), floor(2.7), ceil(2.1), round(2.456, 2), max(1, 7, 3), min([4, 2, 8]), intdiv(7, 2), 2 ** 3, pow(2, -1);`, "5232.4672380.5"},
		{"constants", `echo PHP_INT_MAX, PHP_EOL, M_PI > 3.14 ? 'pi' : '';`, "9223372036854775807\npi"},
		{"call_user_func", `function greet($n) { return "hi $n"; } echo call_user_func('greet', 'bob'), function_exists('greet') ? 'Y' : 'N', function_exists('strlen') ? 'Y' : 'N', function_exists('nope') ? 'Y' : 'N';`, "hi bobYYN"},
		{"chr ord", `echo chr(65), ord("a"), chr(-1) === chr(255) ? 'same' : 'diff';`, "A97same"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, e, err := run(t, tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out != tt.want {
				t.Errorf("output =\n%q\nwant\n%q", out, tt.want)
			}
			if w := e.Warnings(); len(w) > 0 {
				t.Errorf("unexpected warnings: %v", w)
			}
		})
	}
}

func TestVarDump(t *testing.T) {
	out, _, err := run(t, `var_dump([1, 'a' => "x", 'n' => [true, null, 1.5]]);`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `array(3) {
  [0]=>
  int(1)
  ["a"]=>
  string(1) "x"
  ["n"]=>
  array(3) {
    [0]=>
    bool(true)
    [1]=>
    NULL
    [2]=>
    float(1.5)
  }
}
`
	if out != want {
		t.Errorf("var_dump output =\n%s\nwant\n%s", out, want)
	}
}

func TestPrintRNested(t *testing.T) {
	out, _, err := run(t, `print_r(['a' => [2], 'b' => 0.1 + 0.2]);`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Array\n(\n    [a] => Array\n        (\n            [0] => 2\n        )\n\n    [b] => 0.3\n)\n"
	if out != want {
		t.Errorf("print_r output =\n%q\nwant\n%q", out, want)
	}
}

func TestVarExport(t *testing.T) {
	out, _, err := run(t, `var_export(['a' => [1], 'q' => "it's", 'f' => 1.0, 'b' => false]);`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "array (\n  'a' => \n  array (\n    0 => 1,\n  ),\n  'q' => 'it\\'s',\n  'f' => 1.0,\n  'b' => false,\n)"
	if out != want {
		t.Errorf("var_export output =\n%q\nwant\n%q", out, want)
	}
}

func TestByReferenceBuiltinsKeepAliases(t *testing.T) {
	out, _, err := run(t, `$a = [1]; $b =& $a; array_push($a, 2); echo count($b);`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "2" {
		t.Errorf("output = %q, want %q", out, "2")
	}
}

func TestCoreErrors(t *testing.T) {
	tests := []struct {
		input string
		code  diagnostics.ErrorCode
		msg   string
	}{
		{`count(5);`, diagnostics.ErrR005, "count(): Argument #1 ($value) must be of type Countable|array, int given"},
		{`explode('', 'abc');`, diagnostics.ErrR005, "cannot be empty"},
		{`sprintf("%d %d", 1);`, diagnostics.ErrR005, "3 arguments are required, 2 given"},
		{`sprintf("%y", 1);`, diagnostics.ErrR005, `Unknown format specifier "y"`},
		{`intdiv(1, 0);`, diagnostics.ErrR001, "Division by zero"},
		{`$x = 5; array_push($x, 1);`, diagnostics.ErrR005, "must be of type array, int given"},
		{`array_map('nope', [1]);`, diagnostics.ErrR005, "Call to undefined function nope()"},
		{`max([]);`, diagnostics.ErrR005, "must contain at least one element"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, _, err := run(t, tt.input)
			if code, _ := diagnostics.CodeOf(err); code != tt.code {
				t.Fatalf("error = %v, want %s", err, tt.code)
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.msg)
			}
		})
	}
}

const selfReferencing = `$a = [1]; $a[1] = &$a; $b = [1]; $b[1] = &$b; `

func TestDumpSelfReferencingArray(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`var_dump($a);`, "]=>\n    *RECURSION*\n"},
		{`print_r($a);`, "[1] => Array\n *RECURSION*"},
		{`echo print_r($a, true);`, "*RECURSION*"},
		{`var_export($a);`, "NULL"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			out, _, err := run(t, selfReferencing+tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("output =\n%s\nwant it to contain %q", out, tt.want)
			}
		})
	}
}

func TestCompareSelfReferencingArrays(t *testing.T) {
	tests := []string{
		`in_array($a, [$b]);`,
		`array_search($a, [$b], true);`,
		`array_keys([$b], $a);`,
		`$l = [$a, $b]; sort($l);`,
		`max($a, $b);`,
	}
	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			_, _, err := run(t, selfReferencing+input)
			if code, _ := diagnostics.CodeOf(err); code != diagnostics.ErrF002 {
				t.Fatalf("error = %v, want F002", err)
			}
			if !strings.Contains(err.Error(), "Nesting level too deep") {
				t.Errorf("error = %q", err.Error())
			}
		})
	}
}
