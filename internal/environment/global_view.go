package environment

import (
	"errors"
	"iter"

	"github.com/funvibe/funphp/internal/value"
)

// ErrGlobalAppend is returned when something is appended to $GLOBALS.
var ErrGlobalAppend = errors.New("cannot append to the global symbol table")

// GlobalArrayView is the array face of the global frame. It owns nothing:
// reads and writes go straight to the scope, and iteration walks a
// snapshot taken when the iterator is requested.
type GlobalArrayView struct {
	scope GlobalScope
}

func NewGlobalView(scope GlobalScope) *GlobalArrayView {
	return &GlobalArrayView{scope: scope}
}

func (g *GlobalArrayView) Kind() value.Kind { return value.KindArray }
func (g *GlobalArrayView) Inspect() string  { return value.InspectArray(g.Snapshot(), g) }

func (g *GlobalArrayView) Get(k value.Key) value.Value {
	return g.scope.GetGlobalValue(k.String())
}

func (g *GlobalArrayView) GetOrCreateSlot(k value.Key) *value.Slot {
	return g.scope.GetGlobalVar(k.String())
}

func (g *GlobalArrayView) Put(k value.Key, v value.Value) value.Array {
	g.scope.SetGlobalValue(k.String(), v)
	return g
}

// PutSlot binds the global named k to s, as in $GLOBALS['k'] =& $v.
func (g *GlobalArrayView) PutSlot(k value.Key, s *value.Slot) {
	g.scope.BindGlobalSlot(k.String(), s)
}

func (g *GlobalArrayView) Append(value.Value) (value.Key, error) {
	return value.Key{}, ErrGlobalAppend
}

func (g *GlobalArrayView) Remove(k value.Key) value.Value {
	return g.scope.UnsetGlobalVar(k.String())
}

func (g *GlobalArrayView) ContainsKey(k value.Key) bool {
	return !value.IsUnset(g.scope.GetGlobalValue(k.String()))
}

func (g *GlobalArrayView) Size() int { return g.scope.GlobalCount() }

// Copy returns the view itself; it always mirrors the live globals.
func (g *GlobalArrayView) Copy() value.Array { return g }

// Snapshot materializes the current globals into an independent array.
// A global that holds a view of the table is stored as that view, not
// as another snapshot, so a table that contains itself still terminates.
func (g *GlobalArrayView) Snapshot() *value.OrderedArray {
	snap := value.NewArray()
	for name, s := range g.scope.Globals() {
		v := s.Get()
		if _, self := v.(*GlobalArrayView); !self {
			v = value.CopyOnAssign(v)
		}
		snap.Put(value.StrKey(name), v)
	}
	return snap
}

func (g *GlobalArrayView) Keys() []value.Key        { return g.Snapshot().Keys() }
func (g *GlobalArrayView) Entries() []value.Entry   { return g.Snapshot().Entries() }
func (g *GlobalArrayView) Iter() iter.Seq2[value.Key, value.Value] {
	return g.Snapshot().Iter()
}
func (g *GlobalArrayView) KeyIter() iter.Seq[value.Key]     { return g.Snapshot().KeyIter() }
func (g *GlobalArrayView) ValueIter() iter.Seq[value.Value] { return g.Snapshot().ValueIter() }
