package value

import (
	"errors"
	"math"
	"testing"
)

func keysOf(a Array) []string {
	var out []string
	for k := range a.KeyIter() {
		out = append(out, k.String())
	}
	return out
}

func TestPutThenGet(t *testing.T) {
	a := NewArray()
	tests := []struct {
		key Key
		val Value
	}{
		{IntKey(0), Int(1)},
		{IntKey(-7), Str("neg")},
		{StrKey("name"), Str("x")},
		{StrKey(""), Null{}},
		{IntKey(math.MaxInt32), Float(2.5)},
		{StrKey("nested"), NewList(Int(1), Int(2))},
	}
	for _, tt := range tests {
		a.Put(tt.key, tt.val)
		got := a.Get(tt.key)
		if !StrictEquals(got, tt.val) {
			t.Errorf("Get(%s) = %s, want %s", tt.key.Inspect(), got.Inspect(), tt.val.Inspect())
		}
	}
	if a.Size() != len(tests) {
		t.Errorf("Size() = %d, want %d", a.Size(), len(tests))
	}
}

func TestGetMissingIsUnset(t *testing.T) {
	a := NewArray()
	if !IsUnset(a.Get(StrKey("nope"))) {
		t.Fatalf("expected Unset for absent key")
	}
	if a.Size() != 0 {
		t.Fatalf("read must not autovivify, size = %d", a.Size())
	}
}

func TestReinsertMovesToEnd(t *testing.T) {
	a := NewArray()
	a.Put(StrKey("a"), Int(1))
	a.Put(StrKey("b"), Int(2))
	a.Remove(StrKey("a"))
	a.Put(StrKey("a"), Int(3))

	got := keysOf(a)
	if len(got) != 2 || got[0] != "b" || got[1] != "a" {
		t.Fatalf("order = %v, want [b a]", got)
	}
	if v := a.Get(StrKey("a")); !StrictEquals(v, Int(3)) {
		t.Errorf("a = %s, want 3", v.Inspect())
	}
}

func TestOverwriteKeepsPosition(t *testing.T) {
	a := NewArray()
	a.Put(StrKey("x"), Int(1))
	a.Put(StrKey("y"), Int(2))
	a.Put(StrKey("x"), Int(9))

	got := keysOf(a)
	if got[0] != "x" || got[1] != "y" {
		t.Fatalf("order = %v, want [x y]", got)
	}
}

func TestAppendCursorNeverDecreases(t *testing.T) {
	a := NewArray()
	a.Put(IntKey(5), Str("x"))
	a.Remove(IntKey(5))
	k, err := a.Append(Str("y"))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if !k.IsInt() || k.Int() != 6 {
		t.Fatalf("appended key = %s, want 6", k.Inspect())
	}
}

func TestAppendCursor(t *testing.T) {
	tests := []struct {
		name string
		keys []int64
		want int64
	}{
		{"empty", nil, 0},
		{"dense", []int64{0, 1, 2}, 3},
		{"sparse", []int64{10, 3}, 11},
		{"negative only", []int64{-5}, 0},
		{"negative then positive", []int64{-5, 2}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewArray()
			for _, k := range tt.keys {
				a.Put(IntKey(k), Null{})
			}
			if a.NextIndex() != tt.want {
				t.Errorf("NextIndex() = %d, want %d", a.NextIndex(), tt.want)
			}
		})
	}
}

func TestAppendAtMaxInt(t *testing.T) {
	a := NewArray()
	a.Put(IntKey(math.MaxInt64), Int(1))
	if _, err := a.Append(Int(2)); !errors.Is(err, ErrNextIndexOccupied) {
		t.Fatalf("Append after MaxInt64 key: err = %v", err)
	}
}

func TestKeyNormalization(t *testing.T) {
	a := NewArray()
	a.Put(StrKey("10"), Str("a"))
	if v := a.Get(IntKey(10)); !StrictEquals(v, Str("a")) {
		t.Fatalf(`Get(10) after Put("10") = %s`, v.Inspect())
	}
	a.Put(StrKey("010"), Str("b"))
	if v := a.Get(StrKey("010")); !StrictEquals(v, Str("b")) {
		t.Fatalf(`Get("010") = %s`, v.Inspect())
	}
	if v := a.Get(IntKey(10)); !StrictEquals(v, Str("a")) {
		t.Fatalf(`"010" must not touch integer key 10, got %s`, v.Inspect())
	}
	if a.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", a.Size())
	}
}

func TestStrKey(t *testing.T) {
	tests := []struct {
		in    string
		isInt bool
	}{
		{"0", true},
		{"10", true},
		{"-3", true},
		{"9223372036854775807", true},
		{"-9223372036854775808", true},
		{"9223372036854775808", false},
		{"010", false},
		{"+1", false},
		{"-0", false},
		{"", false},
		{"1.5", false},
		{" 1", false},
		{"1 ", false},
		{"-", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			k := StrKey(tt.in)
			if k.IsInt() != tt.isInt {
				t.Errorf("StrKey(%q).IsInt() = %v, want %v", tt.in, k.IsInt(), tt.isInt)
			}
			if k.String() != tt.in {
				t.Errorf("StrKey(%q).String() = %q", tt.in, k.String())
			}
		})
	}
}

func TestKeyFromValue(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		want Key
	}{
		{"null", Null{}, StrKey("")},
		{"true", Bool(true), IntKey(1)},
		{"false", Bool(false), IntKey(0)},
		{"float truncates", Float(1.9), IntKey(1)},
		{"negative float", Float(-1.9), IntKey(-1)},
		{"numeric string", Str("42"), IntKey(42)},
		{"plain string", Str("k"), StrKey("k")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := KeyFromValue(tt.in)
			if err != nil {
				t.Fatalf("KeyFromValue: %v", err)
			}
			if got != tt.want {
				t.Errorf("KeyFromValue(%s) = %s, want %s", tt.in.Inspect(), got.Inspect(), tt.want.Inspect())
			}
		})
	}

	if _, err := KeyFromValue(NewArray()); !errors.Is(err, ErrIllegalOffset) {
		t.Errorf("array key: err = %v, want ErrIllegalOffset", err)
	}
}

func TestCopyIndependence(t *testing.T) {
	src := NewArray()
	src.Put(StrKey("x"), Int(1))
	src.Put(StrKey("inner"), NewList(Int(1)))

	cp := src.CopyArray()
	cp.Put(StrKey("x"), Int(2))
	if v := src.Get(StrKey("x")); !StrictEquals(v, Int(1)) {
		t.Errorf("source changed through copy: x = %s", v.Inspect())
	}

	src.Put(StrKey("x"), Int(3))
	if v := cp.Get(StrKey("x")); !StrictEquals(v, Int(2)) {
		t.Errorf("copy changed through source: x = %s", v.Inspect())
	}

	inner := cp.Get(StrKey("inner")).(Array)
	inner.Put(IntKey(0), Int(99))
	srcInner := src.Get(StrKey("inner")).(Array)
	if v := srcInner.Get(IntKey(0)); !StrictEquals(v, Int(1)) {
		t.Errorf("nested array shared after copy: %s", v.Inspect())
	}
}

func TestCopyPreservesReferenceEntries(t *testing.T) {
	// A variable slot that is also bound into the array by reference.
	variable := NewSlot(Int(1))
	variable.Retain()
	variable.MarkReference()

	src := NewArray()
	src.PutSlot(StrKey("r"), variable)
	src.Put(StrKey("plain"), Int(5))

	cp := src.CopyArray()
	cp.Put(StrKey("r"), Int(7))
	if v := src.Get(StrKey("r")); !StrictEquals(v, Int(7)) {
		t.Errorf("source does not observe write through copy: %s", v.Inspect())
	}
	if v := variable.Get(); !StrictEquals(v, Int(7)) {
		t.Errorf("variable = %s, want 7", v.Inspect())
	}

	src.Put(StrKey("r"), Int(8))
	if v := cp.Get(StrKey("r")); !StrictEquals(v, Int(8)) {
		t.Errorf("copy does not observe write through source: %s", v.Inspect())
	}
	if variable.Refs() != 3 {
		t.Errorf("Refs() = %d, want 3", variable.Refs())
	}
}

func TestLoneReferenceSlotIsCopied(t *testing.T) {
	s := NewSlot(Int(1))
	s.MarkReference()
	src := NewArray()
	src.PutSlot(IntKey(0), s)

	// Only the array binds the slot, so it behaves like a plain entry.
	cp := src.CopyArray()
	cp.Put(IntKey(0), Int(2))
	if v := src.Get(IntKey(0)); !StrictEquals(v, Int(1)) {
		t.Errorf("unshared reference slot leaked through copy: %s", v.Inspect())
	}
}

func TestRemoveReleasesSlot(t *testing.T) {
	s := NewSlot(Int(1))
	s.Retain()
	a := NewArray()
	a.PutSlot(IntKey(0), s)
	if s.Refs() != 2 {
		t.Fatalf("Refs() = %d, want 2", s.Refs())
	}
	if old := a.Remove(IntKey(0)); !StrictEquals(old, Int(1)) {
		t.Errorf("Remove returned %s", old.Inspect())
	}
	if s.Refs() != 1 {
		t.Errorf("Refs() after remove = %d, want 1", s.Refs())
	}
	if !IsUnset(a.Remove(IntKey(0))) {
		t.Errorf("second Remove should yield Unset")
	}
}

func TestCompactionKeepsOrder(t *testing.T) {
	a := NewArray()
	for i := int64(0); i < 100; i++ {
		a.Put(IntKey(i), Int(i))
	}
	for i := int64(0); i < 90; i++ {
		a.Remove(IntKey(i))
	}
	if a.Size() != 10 {
		t.Fatalf("Size() = %d, want 10", a.Size())
	}
	want := int64(90)
	for k, v := range a.Iter() {
		if k.Int() != want || !StrictEquals(v, Int(want)) {
			t.Fatalf("entry %s => %s, want %d", k.Inspect(), v.Inspect(), want)
		}
		want++
	}
	if k, _ := a.Append(Null{}); k.Int() != 100 {
		t.Errorf("append after compaction = %d, want 100", k.Int())
	}
}

func TestGetOrCreateSlot(t *testing.T) {
	a := NewArray()
	a.Put(StrKey("first"), Int(1))
	s := a.GetOrCreateSlot(StrKey("new"))
	if !IsNull(s.Get()) {
		t.Fatalf("fresh slot holds %s", s.Get().Inspect())
	}
	s.Set(Int(4))
	if v := a.Get(StrKey("new")); !StrictEquals(v, Int(4)) {
		t.Errorf("write through slot not visible: %s", v.Inspect())
	}
	if got := keysOf(a); got[1] != "new" {
		t.Errorf("created slot not at end: %v", got)
	}
	if a.GetOrCreateSlot(StrKey("new")) != s {
		t.Errorf("second call returned a different slot")
	}
}

func TestEntriesAndValues(t *testing.T) {
	a := NewList(Str("a"), Str("b"))
	a.Put(StrKey("k"), Str("c"))
	entries := a.Entries()
	if len(entries) != 3 || entries[2].Key != StrKey("k") {
		t.Fatalf("Entries() = %v", entries)
	}
	values := a.Values()
	if ToString(values[0])+ToString(values[1])+ToString(values[2]) != "abc" {
		t.Errorf("Values() order wrong")
	}
	n := 0
	for range a.Iter() {
		n++
		break
	}
	if n != 1 {
		t.Errorf("iteration did not stop on break")
	}
}

func TestArena(t *testing.T) {
	arena := NewArena()
	s := NewSlot(Int(1))
	id := arena.Track(s)
	if arena.Track(s) != id {
		t.Fatalf("Track is not idempotent")
	}
	s.Retain()
	if got, ok := arena.Lookup(id); !ok || got != s {
		t.Fatalf("Lookup(%d) failed", id)
	}
	s.Release()
	if arena.Len() != 0 {
		t.Fatalf("released slot still registered")
	}

	// Two arrays holding each other through reference slots.
	left, right := NewArray(), NewArray()
	ls, rs := NewSlot(left), NewSlot(right)
	arena.Track(ls)
	arena.Track(rs)
	ls.Retain()
	rs.Retain()
	left.PutSlot(IntKey(0), rs)
	right.PutSlot(IntKey(0), ls)

	if n := arena.Sweep(); n != 2 {
		t.Fatalf("Sweep() = %d, want 2", n)
	}
	if !IsNull(ls.Get()) || !IsNull(rs.Get()) {
		t.Errorf("swept slots still hold values")
	}
	if arena.Len() != 0 {
		t.Errorf("arena not empty after sweep")
	}
}

func TestDelegateArray(t *testing.T) {
	store := map[string]Value{"a": Int(1)}
	boom := errors.New("boom")
	d := NewDelegateArray(DelegateFuncs{
		Get: func(key Value) (Value, error) {
			v, ok := store[ToString(key)]
			if !ok {
				return nil, nil
			}
			return v, nil
		},
		Put: func(key, v Value) error {
			if key == nil {
				return boom
			}
			store[ToString(key)] = v
			return nil
		},
		Unset: func(key Value) error {
			delete(store, ToString(key))
			return nil
		},
	})

	if v := d.Get(StrKey("a")); !StrictEquals(v, Int(1)) {
		t.Errorf("Get(a) = %s", v.Inspect())
	}
	if !IsUnset(d.Get(StrKey("missing"))) {
		t.Errorf("missing key should be Unset")
	}
	if got := d.Put(StrKey("b"), Int(2)); got != d {
		t.Errorf("Put must return the delegate itself")
	}
	if !d.ContainsKey(StrKey("b")) {
		t.Errorf("ContainsKey(b) = false")
	}
	d.Remove(StrKey("b"))
	if d.ContainsKey(StrKey("b")) {
		t.Errorf("Remove did not route through unset callback")
	}
	if d.Size() != 1 {
		t.Errorf("Size() without count callback = %d, want 1", d.Size())
	}
	if d.Copy() != d {
		t.Errorf("Copy must return the delegate")
	}
	if _, err := d.Append(Int(3)); !errors.Is(err, boom) {
		t.Errorf("Append err = %v", err)
	}
	if err := d.TakeErr(); err != nil {
		t.Errorf("unexpected pending error %v", err)
	}

	empty := NewDelegateArray(DelegateFuncs{})
	if !IsUnset(empty.Get(IntKey(0))) {
		t.Errorf("delegate without get should yield Unset")
	}
	if _, err := empty.Append(Int(1)); !errors.Is(err, ErrDelegateAppend) {
		t.Errorf("Append without put: err = %v", err)
	}
}

func TestDelegateFailureIsRecorded(t *testing.T) {
	boom := errors.New("boom")
	d := NewDelegateArray(DelegateFuncs{
		Get: func(Value) (Value, error) { return nil, boom },
	})
	if !IsUnset(d.Get(IntKey(0))) {
		t.Fatalf("failed Get should yield Unset")
	}
	if err := d.TakeErr(); !errors.Is(err, boom) {
		t.Fatalf("TakeErr() = %v", err)
	}
	if err := d.TakeErr(); err != nil {
		t.Fatalf("TakeErr() not cleared: %v", err)
	}
}
