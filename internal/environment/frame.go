package environment

import (
	"iter"

	"github.com/funvibe/funphp/internal/value"
)

// Frame is one variable scope: an ordered name -> slot table. Names are
// stored as array keys so the global frame enumerates exactly like the
// array that $GLOBALS exposes.
type Frame struct {
	Name string
	vars *value.OrderedArray
}

func newFrame(name string) *Frame {
	return &Frame{Name: name, vars: value.NewArray()}
}

// Lookup returns the slot bound to name without creating one.
func (f *Frame) Lookup(name string) (*value.Slot, bool) {
	return f.vars.Slot(value.StrKey(name))
}

// Has reports whether name is bound in this frame.
func (f *Frame) Has(name string) bool {
	return f.vars.ContainsKey(value.StrKey(name))
}

func (f *Frame) Len() int { return f.vars.Size() }

// Names returns the bound names in binding order.
func (f *Frame) Names() []string {
	names := make([]string, 0, f.vars.Size())
	for k := range f.vars.KeyIter() {
		names = append(names, k.String())
	}
	return names
}

// Slots yields name/slot pairs in binding order.
func (f *Frame) Slots() iter.Seq2[string, *value.Slot] {
	return func(yield func(string, *value.Slot) bool) {
		for k, s := range f.vars.SlotIter() {
			if !yield(k.String(), s) {
				return
			}
		}
	}
}

func (f *Frame) bind(name string, s *value.Slot) {
	f.vars.PutSlot(value.StrKey(name), s)
}

func (f *Frame) unbind(name string) value.Value {
	return f.vars.Remove(value.StrKey(name))
}

// release drops every binding, letting unshared slots go.
func (f *Frame) release() {
	f.vars.Clear()
}
