// Package environment implements variable scopes: a stack of call frames
// over one persistent global frame, with every bound slot registered in a
// per-session arena.
//
// Name resolution looks at the innermost frame only. There is no lexical
// chaining; globals become visible in a function through explicit reference
// binding (the `global` statement) or through $GLOBALS.
package environment

import (
	"errors"
	"fmt"
	"iter"

	"github.com/funvibe/funphp/internal/config"
	"github.com/funvibe/funphp/internal/value"
)

var (
	// ErrUndefinedVariable is returned by Resolve in ModeRead for unbound names.
	ErrUndefinedVariable = errors.New("undefined variable")
	// ErrStackOverflow is returned by PushFrame once the call depth limit is hit.
	ErrStackOverflow = errors.New("maximum function nesting level reached")
)

// Mode selects how Resolve treats unbound names.
type Mode int

const (
	// ModeRead never creates slots.
	ModeRead Mode = iota
	// ModeWrite autovivifies unbound names as Null slots.
	ModeWrite
)

// GlobalScope is the surface over the persistent global frame consumed by
// GlobalArrayView and library modules.
type GlobalScope interface {
	GetGlobalValue(name string) value.Value
	SetGlobalValue(name string, v value.Value)
	GetGlobalVar(name string) *value.Slot
	BindGlobalSlot(name string, s *value.Slot)
	UnsetGlobalVar(name string) value.Value
	Globals() iter.Seq2[string, *value.Slot]
	GlobalCount() int
}

type Environment struct {
	globals      *Frame
	frames       []*Frame
	arena        *value.Arena
	maxDepth     int
	superglobals map[string]bool
}

type Option func(*Environment)

// WithMaxDepth limits the number of call frames above the global frame.
func WithMaxDepth(n int) Option {
	return func(e *Environment) {
		if n > 0 {
			e.maxDepth = n
		}
	}
}

// WithSuperglobals replaces the set of names that always resolve in the
// global frame.
func WithSuperglobals(names ...string) Option {
	return func(e *Environment) {
		e.superglobals = make(map[string]bool, len(names)+1)
		for _, n := range names {
			e.superglobals[n] = true
		}
		e.superglobals[config.GlobalsVarName] = true
	}
}

// WithArena shares an existing arena.
func WithArena(a *value.Arena) Option {
	return func(e *Environment) { e.arena = a }
}

func New(opts ...Option) *Environment {
	globals := newFrame(config.GlobalFrameName)
	e := &Environment{
		globals:  globals,
		frames:   []*Frame{globals},
		maxDepth: config.DefaultMaxCallDepth,
	}
	WithSuperglobals(config.DefaultSuperglobals...)(e)
	for _, opt := range opts {
		opt(e)
	}
	if e.arena == nil {
		e.arena = value.NewArena()
	}
	return e
}

func (e *Environment) Arena() *value.Arena { return e.arena }

// Current returns the innermost frame.
func (e *Environment) Current() *Frame { return e.frames[len(e.frames)-1] }

// Global returns the persistent global frame.
func (e *Environment) Global() *Frame { return e.globals }

// Depth returns the number of call frames above the global frame.
func (e *Environment) Depth() int { return len(e.frames) - 1 }

// InGlobalScope reports whether no call frame is active.
func (e *Environment) InGlobalScope() bool { return len(e.frames) == 1 }

func (e *Environment) IsSuperglobal(name string) bool { return e.superglobals[name] }

// frameFor returns the frame a name resolves in.
func (e *Environment) frameFor(name string) *Frame {
	if e.superglobals[name] {
		return e.globals
	}
	return e.Current()
}

func (e *Environment) bind(f *Frame, name string, s *value.Slot) {
	e.arena.Track(s)
	f.bind(name, s)
}

// Resolve returns the slot bound to name in the innermost frame. In
// ModeRead an unbound name yields ErrUndefinedVariable and no slot; in
// ModeWrite it is bound to a fresh Null slot. $GLOBALS resolves to a
// detached slot holding a GlobalArrayView.
func (e *Environment) Resolve(name string, mode Mode) (*value.Slot, error) {
	if name == config.GlobalsVarName {
		return value.NewSlot(NewGlobalView(e)), nil
	}
	f := e.frameFor(name)
	if s, ok := f.Lookup(name); ok {
		return s, nil
	}
	if mode == ModeRead {
		return nil, fmt.Errorf("%w $%s", ErrUndefinedVariable, name)
	}
	s := value.NewSlot(value.Null{})
	e.bind(f, name, s)
	return s, nil
}

// Lookup resolves without creating and without reporting.
func (e *Environment) Lookup(name string) (*value.Slot, bool) {
	if name == config.GlobalsVarName {
		return value.NewSlot(NewGlobalView(e)), true
	}
	return e.frameFor(name).Lookup(name)
}

// Get returns the value bound to name, or Unset.
func (e *Environment) Get(name string) value.Value {
	if s, ok := e.Lookup(name); ok {
		return s.Get()
	}
	return value.Unset
}

// Assign writes v into the slot bound to name, creating it if needed.
// Every alias of the slot observes the write. v is stored as given; array
// values must already be copies.
func (e *Environment) Assign(name string, v value.Value) {
	s, _ := e.Resolve(name, ModeWrite)
	s.Set(v)
}

// Rebind binds name to a fresh slot holding v, breaking any alias the
// name had.
func (e *Environment) Rebind(name string, v value.Value) *value.Slot {
	s := value.NewSlot(v)
	e.bind(e.frameFor(name), name, s)
	return s
}

// BindSlot binds name in its frame to an existing slot.
func (e *Environment) BindSlot(name string, s *value.Slot) {
	e.bind(e.frameFor(name), name, s)
}

// BindReference makes dstName in dst share the slot of srcName in src,
// autovivifying the source. The shared slot is returned.
func (e *Environment) BindReference(dst *Frame, dstName string, src *Frame, srcName string) *value.Slot {
	s, ok := src.Lookup(srcName)
	if !ok {
		s = value.NewSlot(value.Null{})
		e.bind(src, srcName, s)
	}
	s.MarkReference()
	e.bind(dst, dstName, s)
	return s
}

// BindGlobal implements `global $name` in the current frame.
func (e *Environment) BindGlobal(name string) *value.Slot {
	return e.BindReference(e.Current(), name, e.globals, name)
}

// Unset removes name from its frame and returns the value it held.
func (e *Environment) Unset(name string) value.Value {
	return e.frameFor(name).unbind(name)
}

// PushFrame enters a new call frame.
func (e *Environment) PushFrame(name string) (*Frame, error) {
	if e.Depth() >= e.maxDepth {
		return nil, fmt.Errorf("%w (%d) in %s()", ErrStackOverflow, e.maxDepth, name)
	}
	f := newFrame(name)
	e.frames = append(e.frames, f)
	return f, nil
}

// PopFrame leaves the innermost call frame and releases its bindings.
// The global frame is never popped.
func (e *Environment) PopFrame() *Frame {
	if len(e.frames) == 1 {
		return nil
	}
	f := e.frames[len(e.frames)-1]
	e.frames[len(e.frames)-1] = nil
	e.frames = e.frames[:len(e.frames)-1]
	f.release()
	return f
}

// WithFrame runs fn inside a new call frame. The frame is popped exactly
// once however fn exits, panics included.
func (e *Environment) WithFrame(name string, fn func(*Frame) error) error {
	f, err := e.PushFrame(name)
	if err != nil {
		return err
	}
	depth := len(e.frames)
	defer func() {
		for len(e.frames) >= depth {
			e.PopFrame()
		}
	}()
	return fn(f)
}

// Stack returns the frames from global to innermost.
func (e *Environment) Stack() []*Frame {
	out := make([]*Frame, len(e.frames))
	copy(out, e.frames)
	return out
}

func (e *Environment) GetGlobalValue(name string) value.Value {
	if s, ok := e.globals.Lookup(name); ok {
		return s.Get()
	}
	return value.Unset
}

func (e *Environment) SetGlobalValue(name string, v value.Value) {
	e.GetGlobalVar(name).Set(v)
}

// GetGlobalVar returns the global slot for name, creating it if needed.
func (e *Environment) GetGlobalVar(name string) *value.Slot {
	if s, ok := e.globals.Lookup(name); ok {
		return s
	}
	s := value.NewSlot(value.Null{})
	e.bind(e.globals, name, s)
	return s
}

// BindGlobalSlot binds the global name to an existing slot.
func (e *Environment) BindGlobalSlot(name string, s *value.Slot) {
	e.bind(e.globals, name, s)
}

func (e *Environment) UnsetGlobalVar(name string) value.Value {
	return e.globals.unbind(name)
}

// Globals yields the global bindings in binding order.
func (e *Environment) Globals() iter.Seq2[string, *value.Slot] {
	return e.globals.Slots()
}

func (e *Environment) GlobalCount() int { return e.globals.Len() }

// Close unwinds every frame, drops the globals and sweeps the arena. It
// returns the number of slots the sweep had to reclaim.
func (e *Environment) Close() int {
	for len(e.frames) > 1 {
		e.PopFrame()
	}
	e.globals.release()
	return e.arena.Sweep()
}
