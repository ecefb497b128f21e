package value

// SlotID is a stable handle for a slot registered in an Arena.
type SlotID uint64

// Arena registers the slots bound to variable names and references
// during one interpreter session. Slots leave the arena when their last
// binder releases them; Sweep reclaims whatever is still registered at
// session end, which is how reference cycles through arrays are broken.
type Arena struct {
	next SlotID
	live map[SlotID]*Slot
}

func NewArena() *Arena {
	return &Arena{live: make(map[SlotID]*Slot)}
}

// Track registers s and returns its handle. Tracking is idempotent.
func (a *Arena) Track(s *Slot) SlotID {
	if s.arena == a && s.id != 0 {
		return s.id
	}
	a.next++
	s.id = a.next
	s.arena = a
	a.live[s.id] = s
	return s.id
}

// Lookup resolves a handle.
func (a *Arena) Lookup(id SlotID) (*Slot, bool) {
	s, ok := a.live[id]
	return s, ok
}

// Len returns the number of registered slots.
func (a *Arena) Len() int { return len(a.live) }

func (a *Arena) forget(s *Slot) {
	delete(a.live, s.id)
	s.arena = nil
	s.id = 0
}

// Sweep clears every registered slot and empties the arena. It returns
// the number of slots reclaimed.
func (a *Arena) Sweep() int {
	n := len(a.live)
	for id, s := range a.live {
		s.value = Null{}
		s.refs = 0
		s.arena = nil
		s.id = 0
		delete(a.live, id)
	}
	return n
}
