// Package cli implements the funphp command line.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/funvibe/funphp/internal/config"
	"github.com/funvibe/funphp/internal/diagnostics"
	"github.com/funvibe/funphp/internal/lexer"
	"github.com/funvibe/funphp/internal/modules"
	"github.com/funvibe/funphp/internal/parser"
	"github.com/funvibe/funphp/internal/pipeline"
	"github.com/funvibe/funphp/internal/prettyprinter"
	funphp "github.com/funvibe/funphp/pkg/embed"
)

const usage = `Usage: funphp [flags] [file.php] [args...]
       funphp [flags] -r 'code' [args...]
       ... | funphp [flags]

Flags:
  -r code     run code without <?php tags
  -c file     read configuration from file (default: nearest funphp.yaml)
  -strict     treat reads of undefined variables as errors
  -l          check syntax only
  -fmt        print the parsed program in canonical form
  -version    print the version and exit
  -help       print this help and exit

Packages: %s
`

// Run executes the command line in os.Args and returns the exit code.
func Run() int {
	return RunArgs(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

// RunArgs is Run with explicit arguments and streams.
func RunArgs(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	p := newPrinter(stderr)

	fs := flag.NewFlagSet("funphp", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	code := fs.String("r", "", "")
	configPath := fs.String("c", "", "")
	strict := fs.Bool("strict", false, "")
	version := fs.Bool("version", false, "")
	help := fs.Bool("help", false, "")
	lint := fs.Bool("l", false, "")
	format := fs.Bool("fmt", false, "")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(stdout, usage, strings.Join(modules.Names(), ", "))
			return 0
		}
		p.errorf("%v", err)
		fmt.Fprintf(stderr, usage, strings.Join(modules.Names(), ", "))
		return 2
	}
	switch {
	case *help:
		fmt.Fprintf(stdout, usage, strings.Join(modules.Names(), ", "))
		return 0
	case *version:
		fmt.Fprintln(stdout, "funphp "+config.Version)
		return 0
	}

	// The script name, if any, is the first positional argument; the rest
	// belong to the script.
	rest := fs.Args()
	var file string
	if *code == "" && len(rest) > 0 {
		file, rest = rest[0], rest[1:]
	}

	if *lint || *format {
		return parseOnly(p, stdin, stdout, *code, file, *format)
	}

	cfg, err := loadConfig(*configPath, file)
	if err != nil {
		p.errorf("%v", err)
		return 1
	}
	if *strict {
		cfg.StrictVariables = true
	}

	in, err := funphp.New(funphp.WithConfig(cfg), funphp.WithOutput(stdout))
	if err != nil {
		p.errorf("%v", err)
		return 1
	}
	defer func() {
		if err := in.Close(); err != nil {
			p.errorf("%v", err)
		}
	}()

	scriptName := file
	if scriptName == "" {
		scriptName = "Standard input code"
	}
	argv := append([]string{scriptName}, rest...)
	if err := in.SetGlobal("argv", argv); err != nil {
		p.errorf("%v", err)
		return 1
	}
	if err := in.SetGlobal("argc", len(argv)); err != nil {
		p.errorf("%v", err)
		return 1
	}

	switch {
	case *code != "":
		_, err = in.Eval(*code)
	case file != "":
		_, err = in.EvalFile(file)
	default:
		var src []byte
		src, err = io.ReadAll(stdin)
		if err == nil {
			_, err = in.Eval(string(src))
		}
	}

	for _, w := range in.Warnings() {
		p.warning(w)
	}
	if err != nil {
		p.failure(err)
		return 1
	}
	return 0
}

// parseOnly runs the lexer and parser and, with format set, prints the
// program back in canonical form.
func parseOnly(p *printer, stdin io.Reader, stdout io.Writer, code, file string, format bool) int {
	var ctx *pipeline.PipelineContext
	switch {
	case code != "":
		ctx = pipeline.NewContext(code, "Standard input code")
	case file != "":
		src, err := os.ReadFile(file)
		if err != nil {
			p.errorf("%v", err)
			return 1
		}
		ctx = pipeline.NewContext(string(src), file)
		ctx.Template = true
	default:
		src, err := io.ReadAll(stdin)
		if err != nil {
			p.errorf("%v", err)
			return 1
		}
		ctx = pipeline.NewContext(string(src), "Standard input code")
	}

	ctx = pipeline.New(&lexer.LexerProcessor{}, &parser.ParserProcessor{}).Run(ctx)
	if ctx.HasErrors() {
		errs := make([]error, len(ctx.Errors))
		for i, e := range ctx.Errors {
			errs[i] = e
		}
		p.failure(errors.Join(errs...))
		return 1
	}
	if format {
		fmt.Fprint(stdout, prettyprinter.Print(ctx.AstRoot))
	} else {
		fmt.Fprintf(stdout, "No syntax errors detected in %s\n", ctx.FilePath)
	}
	return 0
}

// loadConfig reads the -c file, or else the nearest funphp.yaml above the
// script (or the working directory).
func loadConfig(path, script string) (*config.Config, error) {
	if path == "" {
		dir := "."
		if script != "" {
			dir = filepath.Dir(script)
		}
		found, err := config.FindConfig(dir)
		if err != nil {
			return nil, err
		}
		path = found
	}
	if path == "" {
		return config.Default(), nil
	}
	return config.LoadConfig(path)
}

const (
	ansiRed    = "\033[31m"
	ansiYellow = "\033[33m"
	ansiBold   = "\033[1m"
	ansiReset  = "\033[0m"
)

type printer struct {
	w     io.Writer
	color bool
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w, color: colorEnabled(w)}
}

// colorEnabled follows the NO_COLOR convention and requires a terminal.
func colorEnabled(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p *printer) paint(color, s string) string {
	if !p.color {
		return s
	}
	return color + s + ansiReset
}

func (p *printer) errorf(format string, a ...interface{}) {
	fmt.Fprintf(p.w, "%s %s\n", p.paint(ansiRed+ansiBold, "Error:"), fmt.Sprintf(format, a...))
}

func (p *printer) warning(w diagnostics.Warning) {
	var loc string
	switch {
	case w.File != "" && w.Line > 0:
		loc = fmt.Sprintf(" in %s on line %d", w.File, w.Line)
	case w.Line > 0:
		loc = fmt.Sprintf(" on line %d", w.Line)
	}
	fmt.Fprintf(p.w, "%s [%s]: %s%s\n", p.paint(ansiYellow, "Warning"), w.Code, w.Message, loc)
}

// failure lists every error joined into err.
func (p *printer) failure(err error) {
	errs := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		errs = joined.Unwrap()
	}
	fmt.Fprintln(p.w, p.paint(ansiRed+ansiBold, "Processing failed with errors:"))
	for _, e := range errs {
		fmt.Fprintf(p.w, "- %s\n", e.Error())
	}
}
