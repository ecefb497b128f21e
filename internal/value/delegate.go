package value

import (
	"errors"
	"iter"
)

// ErrDelegateAppend is returned when a delegate without a put callback is
// appended to.
var ErrDelegateAppend = errors.New("array delegate does not support append")

// DelegateFuncs are the callbacks backing a DelegateArray. Any of them may
// be nil. Put receives a nil key for appends.
type DelegateFuncs struct {
	Get   func(key Value) (Value, error)
	Put   func(key Value, v Value) error
	Count func() (int64, error)
	Unset func(key Value) error
}

// Faulter is implemented by array surfaces whose callbacks can fail. The
// evaluator drains TakeErr after every operation on such an array.
type Faulter interface {
	TakeErr() error
}

// DelegateArray is a storage-less array whose operations are forwarded to
// user callbacks. Without a get callback reads yield Unset; without a
// count callback the size is 1.
type DelegateArray struct {
	funcs DelegateFuncs
	err   error
}

func NewDelegateArray(funcs DelegateFuncs) *DelegateArray {
	return &DelegateArray{funcs: funcs}
}

func (d *DelegateArray) Kind() Kind       { return KindArray }
func (d *DelegateArray) Inspect() string { return "ArrayDelegate" }

func (d *DelegateArray) fail(err error) {
	if err != nil && d.err == nil {
		d.err = err
	}
}

// TakeErr returns and clears the first callback failure.
func (d *DelegateArray) TakeErr() error {
	err := d.err
	d.err = nil
	return err
}

func (d *DelegateArray) Get(k Key) Value {
	if d.funcs.Get == nil {
		return Unset
	}
	v, err := d.funcs.Get(k.Value())
	if err != nil {
		d.fail(err)
		return Unset
	}
	if v == nil {
		return Unset
	}
	return v
}

// GetOrCreateSlot returns a detached slot seeded with the current value;
// delegates cannot expose their storage for aliasing.
func (d *DelegateArray) GetOrCreateSlot(k Key) *Slot {
	return NewSlot(d.Get(k))
}

func (d *DelegateArray) Put(k Key, v Value) Array {
	if d.funcs.Put != nil {
		d.fail(d.funcs.Put(k.Value(), v))
	}
	return d
}

func (d *DelegateArray) Append(v Value) (Key, error) {
	if d.funcs.Put == nil {
		return Key{}, ErrDelegateAppend
	}
	if err := d.funcs.Put(nil, v); err != nil {
		return Key{}, err
	}
	return Key{}, nil
}

func (d *DelegateArray) Remove(k Key) Value {
	if d.funcs.Unset != nil {
		d.fail(d.funcs.Unset(k.Value()))
	}
	return Unset
}

// ContainsKey routes through Get, like isset on the delegate.
func (d *DelegateArray) ContainsKey(k Key) bool {
	return !IsNull(d.Get(k))
}

func (d *DelegateArray) Size() int {
	if d.funcs.Count == nil {
		return 1
	}
	n, err := d.funcs.Count()
	if err != nil {
		d.fail(err)
		return 0
	}
	return int(n)
}

// Copy returns the delegate itself: it has no storage to duplicate.
func (d *DelegateArray) Copy() Array { return d }

func (d *DelegateArray) Keys() []Key                { return nil }
func (d *DelegateArray) Entries() []Entry           { return nil }
func (d *DelegateArray) Iter() iter.Seq2[Key, Value] { return func(func(Key, Value) bool) {} }
func (d *DelegateArray) KeyIter() iter.Seq[Key]      { return func(func(Key) bool) {} }
func (d *DelegateArray) ValueIter() iter.Seq[Value]  { return func(func(Value) bool) {} }
