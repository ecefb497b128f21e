package value

import (
	"errors"
	"iter"
	"math"
)

// ErrNextIndexOccupied is returned by Append when the next integer key
// would overflow.
var ErrNextIndexOccupied = errors.New("cannot add element to the array as the next element is already occupied")

// Array is the capability surface shared by native arrays, the global
// symbol table view and user delegates. The evaluator only ever talks to
// this interface.
type Array interface {
	Value
	// Get returns Unset for absent keys and never creates entries.
	Get(k Key) Value
	// GetOrCreateSlot returns the slot for k, appending a Null slot when absent.
	GetOrCreateSlot(k Key) *Slot
	// Put overwrites in place or appends, and returns the container written to.
	Put(k Key, v Value) Array
	Append(v Value) (Key, error)
	// Remove detaches k and returns the value it held (Unset if absent).
	Remove(k Key) Value
	ContainsKey(k Key) bool
	Size() int
	Copy() Array
	Keys() []Key
	Entries() []Entry
	Iter() iter.Seq2[Key, Value]
	KeyIter() iter.Seq[Key]
	ValueIter() iter.Seq[Value]
}

// Entry is one ordered key/value pair.
type Entry struct {
	Key   Key
	Value Value
}

type arrayEntry struct {
	key     Key
	slot    *Slot
	deleted bool
}

// OrderedArray is the native array engine: an insertion-ordered map from
// normalized keys to slots. Iterators over it are live.
type OrderedArray struct {
	entries   []arrayEntry
	index     map[Key]int
	nextIndex int64
	full      bool
}

func NewArray() *OrderedArray {
	return &OrderedArray{index: make(map[Key]int)}
}

// NewList builds a zero-indexed array from values.
func NewList(values ...Value) *OrderedArray {
	a := NewArray()
	for _, v := range values {
		_, _ = a.Append(v)
	}
	return a
}

func (a *OrderedArray) Kind() Kind       { return KindArray }
func (a *OrderedArray) Inspect() string { return InspectArray(a) }

func (a *OrderedArray) Get(k Key) Value {
	if i, ok := a.index[k]; ok {
		return a.entries[i].slot.Get()
	}
	return Unset
}

// Slot returns the slot bound at k without creating one.
func (a *OrderedArray) Slot(k Key) (*Slot, bool) {
	if i, ok := a.index[k]; ok {
		return a.entries[i].slot, true
	}
	return nil, false
}

func (a *OrderedArray) GetOrCreateSlot(k Key) *Slot {
	if s, ok := a.Slot(k); ok {
		return s
	}
	s := NewSlot(Null{})
	a.insert(k, s)
	return s
}

func (a *OrderedArray) Put(k Key, v Value) Array {
	if i, ok := a.index[k]; ok {
		a.entries[i].slot.Set(v)
		return a
	}
	a.insert(k, NewSlot(v))
	return a
}

// PutSlot binds an existing slot at k, keeping k's position if present.
func (a *OrderedArray) PutSlot(k Key, s *Slot) {
	if i, ok := a.index[k]; ok {
		old := a.entries[i].slot
		if old == s {
			return
		}
		s.Retain()
		a.entries[i].slot = s
		old.Release()
		return
	}
	a.insert(k, s)
}

func (a *OrderedArray) Append(v Value) (Key, error) {
	k, err := a.NextKey()
	if err != nil {
		return Key{}, err
	}
	a.insert(k, NewSlot(v))
	return k, nil
}

// AppendSlot binds s at the next integer key.
func (a *OrderedArray) AppendSlot(s *Slot) (Key, error) {
	k, err := a.NextKey()
	if err != nil {
		return Key{}, err
	}
	a.insert(k, s)
	return k, nil
}

// NextKey returns the key the next Append would use.
func (a *OrderedArray) NextKey() (Key, error) {
	if a.full {
		return Key{}, ErrNextIndexOccupied
	}
	return IntKey(a.nextIndex), nil
}

// NextIndex returns the append cursor.
func (a *OrderedArray) NextIndex() int64 { return a.nextIndex }

func (a *OrderedArray) insert(k Key, s *Slot) {
	s.Retain()
	a.index[k] = len(a.entries)
	a.entries = append(a.entries, arrayEntry{key: k, slot: s})
	if k.IsInt() && k.Int() >= a.nextIndex {
		if k.Int() == math.MaxInt64 {
			a.full = true
		} else {
			a.nextIndex = k.Int() + 1
		}
	}
}

func (a *OrderedArray) Remove(k Key) Value {
	i, ok := a.index[k]
	if !ok {
		return Unset
	}
	e := &a.entries[i]
	old := e.slot.Get()
	e.slot.Release()
	e.slot = nil
	e.deleted = true
	delete(a.index, k)
	a.maybeCompact()
	return old
}

func (a *OrderedArray) maybeCompact() {
	live := len(a.index)
	dead := len(a.entries) - live
	if dead < 32 || dead < live {
		return
	}
	entries := make([]arrayEntry, 0, live)
	for _, e := range a.entries {
		if e.deleted {
			continue
		}
		a.index[e.key] = len(entries)
		entries = append(entries, e)
	}
	a.entries = entries
}

// Clear removes every entry. The append cursor is kept.
func (a *OrderedArray) Clear() {
	for _, e := range a.entries {
		if !e.deleted {
			e.slot.Release()
		}
	}
	a.entries = nil
	a.index = make(map[Key]int)
}

func (a *OrderedArray) ContainsKey(k Key) bool {
	_, ok := a.index[k]
	return ok
}

func (a *OrderedArray) Size() int { return len(a.index) }

// Copy duplicates the array for assignment. Plain entries get fresh slots
// holding copies of their values (nested arrays are duplicated eagerly);
// explicit reference entries share their slot with the source.
func (a *OrderedArray) Copy() Array {
	return a.CopyArray()
}

// CopyArray is Copy with the concrete return type.
func (a *OrderedArray) CopyArray() *OrderedArray {
	c := &OrderedArray{
		entries:   make([]arrayEntry, 0, len(a.index)),
		index:     make(map[Key]int, len(a.index)),
		nextIndex: a.nextIndex,
		full:      a.full,
	}
	for _, e := range a.entries {
		if e.deleted {
			continue
		}
		s := e.slot
		if !s.IsReference() {
			s = NewSlot(CopyOnAssign(s.Get()))
		}
		s.Retain()
		c.index[e.key] = len(c.entries)
		c.entries = append(c.entries, arrayEntry{key: e.key, slot: s})
	}
	return c
}

func (a *OrderedArray) Keys() []Key {
	keys := make([]Key, 0, len(a.index))
	for k := range a.KeyIter() {
		keys = append(keys, k)
	}
	return keys
}

func (a *OrderedArray) Values() []Value {
	values := make([]Value, 0, len(a.index))
	for v := range a.ValueIter() {
		values = append(values, v)
	}
	return values
}

func (a *OrderedArray) Entries() []Entry {
	out := make([]Entry, 0, len(a.index))
	for k, v := range a.Iter() {
		out = append(out, Entry{Key: k, Value: v})
	}
	return out
}

func (a *OrderedArray) Iter() iter.Seq2[Key, Value] {
	return func(yield func(Key, Value) bool) {
		for i := 0; i < len(a.entries); i++ {
			e := a.entries[i]
			if e.deleted {
				continue
			}
			if !yield(e.key, e.slot.Get()) {
				return
			}
		}
	}
}

// SlotIter yields the live slots in order.
func (a *OrderedArray) SlotIter() iter.Seq2[Key, *Slot] {
	return func(yield func(Key, *Slot) bool) {
		for i := 0; i < len(a.entries); i++ {
			e := a.entries[i]
			if e.deleted {
				continue
			}
			if !yield(e.key, e.slot) {
				return
			}
		}
	}
}

func (a *OrderedArray) KeyIter() iter.Seq[Key] {
	return func(yield func(Key) bool) {
		for k := range a.Iter() {
			if !yield(k) {
				return
			}
		}
	}
}

func (a *OrderedArray) ValueIter() iter.Seq[Value] {
	return func(yield func(Value) bool) {
		for _, v := range a.Iter() {
			if !yield(v) {
				return
			}
		}
	}
}

// Snapshotter is implemented by array views whose Copy returns the view
// itself. Assignment stores a snapshot instead.
type Snapshotter interface {
	Snapshot() *OrderedArray
}

// CopyOnAssign returns the value to store when v is assigned: arrays are
// duplicated, views are materialized, everything else is shared.
func CopyOnAssign(v Value) Value {
	if sn, ok := v.(Snapshotter); ok {
		return sn.Snapshot()
	}
	if arr, ok := v.(Array); ok {
		return arr.Copy()
	}
	return OrNull(v)
}

// AsArray returns the array surface of v: arrays themselves and objects
// carrying an array delegate.
func AsArray(v Value) (Array, bool) {
	switch x := v.(type) {
	case Array:
		return x, true
	case *Object:
		if x.Delegate != nil {
			return x.Delegate, true
		}
	}
	return nil, false
}
