package value

// Slot is a mutable single-value cell and the unit of aliasing: two names
// (or array entries) are aliases exactly when they are bound to the same
// Slot. refs counts binders; it is maintained by the containers that hold
// the slot, not by the slot itself.
type Slot struct {
	value     Value
	refs      int
	reference bool
	id        SlotID
	arena     *Arena
}

// NewSlot returns an unbound slot holding v.
func NewSlot(v Value) *Slot {
	return &Slot{value: OrNull(v)}
}

// Get returns the current value, never Unset.
func (s *Slot) Get() Value { return s.value }

// Set overwrites the value in place; every alias observes the change.
func (s *Slot) Set(v Value) { s.value = OrNull(v) }

// Retain records one more binder.
func (s *Slot) Retain() { s.refs++ }

// Release drops one binder and returns the remaining count. A slot
// registered in an arena is forgotten by it once nothing binds it.
func (s *Slot) Release() int {
	if s.refs > 0 {
		s.refs--
	}
	if s.refs == 0 && s.arena != nil {
		s.arena.forget(s)
	}
	return s.refs
}

// Refs returns the number of binders.
func (s *Slot) Refs() int { return s.refs }

// MarkReference flags the slot as produced by reference binding.
func (s *Slot) MarkReference() { s.reference = true }

// IsReference reports whether the slot is an explicit reference entry:
// reference-bound and still shared by more than one binder.
func (s *Slot) IsReference() bool { return s.reference && s.refs > 1 }

// ID returns the arena handle, or zero when the slot is not tracked.
func (s *Slot) ID() SlotID { return s.id }
