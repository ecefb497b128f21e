package funphp

import (
	"github.com/funvibe/funphp/internal/value"
)

// ArrayDelegate backs a script array with Go callbacks. Passed to SetGlobal
// or Call it reaches scripts as an object that supports index reads and
// writes, isset, unset and count. Keys arrive as int or string and values
// go through the marshaller. A nil result from Get means the key is
// missing. Put receives a nil key for $d[] = v. Any callback may be nil.
type ArrayDelegate struct {
	Get   func(key interface{}) (interface{}, error)
	Put   func(key, val interface{}) error
	Count func() (int, error)
	Unset func(key interface{}) error
}

// delegateArray remembers its owner so FromValue can hand it back.
type delegateArray struct {
	*value.DelegateArray
	owner *ArrayDelegate
}

func (m *Marshaller) delegateObject(d *ArrayDelegate) *value.Object {
	var funcs value.DelegateFuncs
	if d.Get != nil {
		funcs.Get = func(key value.Value) (value.Value, error) {
			k, err := m.FromValue(key, nil)
			if err != nil {
				return nil, err
			}
			v, err := d.Get(k)
			if err != nil {
				return nil, err
			}
			if v == nil {
				return value.Unset, nil
			}
			return m.ToValue(v)
		}
	}
	if d.Put != nil {
		funcs.Put = func(key, v value.Value) error {
			k, err := m.FromValue(key, nil)
			if err != nil {
				return err
			}
			val, err := m.FromValue(v, nil)
			if err != nil {
				return err
			}
			return d.Put(k, val)
		}
	}
	if d.Count != nil {
		funcs.Count = func() (int64, error) {
			n, err := d.Count()
			return int64(n), err
		}
	}
	if d.Unset != nil {
		funcs.Unset = func(key value.Value) error {
			k, err := m.FromValue(key, nil)
			if err != nil {
				return err
			}
			return d.Unset(k)
		}
	}

	obj := value.NewObject("ArrayDelegate")
	obj.Delegate = &delegateArray{DelegateArray: value.NewDelegateArray(funcs), owner: d}
	return obj
}
