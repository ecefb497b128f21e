package evaluator

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/funvibe/funphp/internal/diagnostics"
	"github.com/funvibe/funphp/internal/environment"
	"github.com/funvibe/funphp/internal/token"
	"github.com/funvibe/funphp/internal/value"
)

// NativeFunction is the Go implementation of a library function. Any
// error that is not a *diagnostics.DiagnosticError reaches the script as
// a ModuleFailure.
type NativeFunction func(ctx *CallContext, args []value.Value) (value.Value, error)

// Builtin describes a registered native function.
type Builtin struct {
	Name string
	Fn   NativeFunction
	// MinArgs and MaxArgs bound the argument count; MaxArgs < 0 is variadic.
	MinArgs int
	MaxArgs int
	// RefParams lists the zero-based positions passed by reference.
	RefParams []int
}

func (b *Builtin) byRef(i int) bool {
	for _, p := range b.RefParams {
		if p == i {
			return true
		}
	}
	return false
}

// Registry is the static name -> native function table. It is filled at
// startup by the library modules and only read afterwards.
//
// Thread-safe: several interpreters may share one registry.
type Registry struct {
	mu        sync.RWMutex
	functions map[string]*Builtin
	constants map[string]value.Value
}

func NewRegistry() *Registry {
	return &Registry{
		functions: make(map[string]*Builtin),
		constants: make(map[string]value.Value),
	}
}

// Register adds b. Function names are case-insensitive; a later
// registration replaces an earlier one.
func (r *Registry) Register(b *Builtin) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.functions[strings.ToLower(b.Name)] = b
}

// RegisterFunc registers fn accepting between min and max arguments.
func (r *Registry) RegisterFunc(name string, min, max int, fn NativeFunction) {
	r.Register(&Builtin{Name: name, Fn: fn, MinArgs: min, MaxArgs: max})
}

// RegisterConstant defines a case-sensitive constant.
func (r *Registry) RegisterConstant(name string, v value.Value) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constants[name] = v
}

func (r *Registry) Lookup(name string) (*Builtin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.functions[strings.ToLower(name)]
	return b, ok
}

func (r *Registry) Constant(name string) (value.Value, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.constants[name]
	return v, ok
}

// Names returns the registered function names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for _, b := range r.functions {
		names = append(names, b.Name)
	}
	sort.Strings(names)
	return names
}

// CallContext is what a native function sees of the running script.
type CallContext struct {
	Eval  *Evaluator
	Env   *environment.Environment
	Out   io.Writer
	Name  string
	Token token.Token

	refs []*value.Slot
}

// Ref returns the slot bound to by-reference argument i, or nil when
// the argument is by value or was not passed.
func (c *CallContext) Ref(i int) *value.Slot {
	if i < 0 || i >= len(c.refs) {
		return nil
	}
	return c.refs[i]
}

// Warn records a warning prefixed with the function name.
func (c *CallContext) Warn(code diagnostics.ErrorCode, format string, a ...interface{}) {
	c.Eval.warn(code, c.Token, "%s(): %s", c.Name, fmt.Sprintf(format, a...))
}

// Errorf builds a diagnostic at the call site.
func (c *CallContext) Errorf(code diagnostics.ErrorCode, format string, a ...interface{}) error {
	return c.Eval.newError(code, c.Token, "%s(): %s", c.Name, fmt.Sprintf(format, a...))
}

// Call invokes a user or native function by name with by-value arguments,
// for callbacks such as usort comparators.
func (c *CallContext) Call(name string, args ...value.Value) (value.Value, error) {
	return c.Eval.CallFunction(name, c.Token, args...)
}

// ToString converts v the way echo does.
func (c *CallContext) ToString(v value.Value) (string, error) {
	return c.Eval.toString(v, c.Token)
}

// Precision is the float-to-string precision of the session.
func (c *CallContext) Precision() int { return c.Eval.Precision }
