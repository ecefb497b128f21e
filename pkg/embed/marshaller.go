package funphp

import (
	"cmp"
	"fmt"
	"math"
	"reflect"
	"slices"

	"github.com/funvibe/funphp/internal/value"
)

// HostResourceType is the resource type given to Go pointers and other
// host values that have no script counterpart.
const HostResourceType = "host"

var valueType = reflect.TypeOf((*value.Value)(nil)).Elem()

// Marshaller handles conversion between Go and script values.
type Marshaller struct {
	nextResource int64
}

func NewMarshaller() *Marshaller {
	return &Marshaller{}
}

// ToValue converts a Go value to a script value. Slices become lists,
// maps and structs become arrays with string keys, and pointers travel
// as resources that FromValue turns back into the same pointer. An
// *ArrayDelegate becomes an object indexable like an array.
func (m *Marshaller) ToValue(val interface{}) (value.Value, error) {
	return m.toValue(val, 0)
}

func (m *Marshaller) toValue(val interface{}, depth int) (value.Value, error) {
	if val == nil {
		return value.Null{}, nil
	}
	if depth > value.MaxNestingDepth {
		return nil, value.ErrNestingTooDeep
	}
	switch x := val.(type) {
	case value.Value:
		return x, nil
	case *ArrayDelegate:
		if x == nil {
			return value.Null{}, nil
		}
		return m.delegateObject(x), nil
	case ArrayDelegate:
		return m.delegateObject(&x), nil
	}

	v := reflect.ValueOf(val)
	if v.Kind() == reflect.Interface {
		v = v.Elem()
	}
	if !v.IsValid() {
		return value.Null{}, nil
	}

	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return value.Int(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := v.Uint()
		if u > math.MaxInt64 {
			return nil, fmt.Errorf("unsigned value %d overflows int", u)
		}
		return value.Int(int64(u)), nil
	case reflect.Float32, reflect.Float64:
		return value.Float(v.Float()), nil
	case reflect.Bool:
		return value.Bool(v.Bool()), nil
	case reflect.String:
		return value.Str(v.String()), nil
	case reflect.Slice:
		if v.IsNil() {
			return value.Null{}, nil
		}
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return value.Str(string(v.Bytes())), nil
		}
		return m.sliceToList(v, depth)
	case reflect.Array:
		return m.sliceToList(v, depth)
	case reflect.Map:
		if v.IsNil() {
			return value.Null{}, nil
		}
		return m.mapToArray(v, depth)
	case reflect.Struct:
		return m.structToArray(v, depth)
	case reflect.Ptr, reflect.Chan, reflect.UnsafePointer:
		if v.IsNil() {
			return value.Null{}, nil
		}
		m.nextResource++
		return &value.Resource{ID: m.nextResource, Type: HostResourceType, Handle: val}, nil
	case reflect.Func:
		return nil, fmt.Errorf("functions cannot be stored as values; use Register")
	default:
		return nil, fmt.Errorf("unsupported Go type %s", v.Type())
	}
}

// FromValue converts a script value to a Go value. targetType is optional;
// when given, the result is converted to it. Arrays nested deeper than
// value.MaxNestingDepth, which includes arrays that contain themselves by
// reference, fail with value.ErrNestingTooDeep.
func (m *Marshaller) FromValue(obj value.Value, targetType reflect.Type) (interface{}, error) {
	return m.fromValue(obj, targetType, 0)
}

func (m *Marshaller) fromValue(obj value.Value, targetType reflect.Type, depth int) (interface{}, error) {
	if depth > value.MaxNestingDepth {
		return nil, value.ErrNestingTooDeep
	}
	obj = value.OrNull(obj)
	if targetType != nil && targetType.Implements(valueType) && reflect.TypeOf(obj).AssignableTo(targetType) {
		return obj, nil
	}

	var out interface{}
	switch o := obj.(type) {
	case value.Null:
		return nil, nil
	case value.Bool:
		out = bool(o)
	case value.Int:
		out = int(o)
		if targetType == nil {
			return out, nil
		}
	case value.Float:
		out = float64(o)
	case value.String:
		if targetType != nil && targetType.Kind() == reflect.Slice && targetType.Elem().Kind() == reflect.Uint8 {
			return []byte(o.Value), nil
		}
		out = o.Value
	case *value.Object:
		if d, ok := o.Delegate.(*delegateArray); ok {
			return d.owner, nil
		}
		return m.fromValue(o.Props, targetType, depth+1)
	case *value.Resource:
		out = o.Handle
	case value.Array:
		if targetType != nil {
			switch targetType.Kind() {
			case reflect.Slice:
				return m.listToSlice(o, targetType, depth)
			case reflect.Map:
				return m.arrayToMap(o, targetType, depth)
			case reflect.Struct:
				return m.arrayToStruct(o, targetType, depth)
			}
		}
		if isList(o) {
			return m.listToSlice(o, nil, depth)
		}
		return m.arrayToMap(o, nil, depth)
	default:
		return nil, fmt.Errorf("unsupported type for conversion: %s", value.TypeName(obj))
	}
	return convertTo(out, targetType)
}

// convertTo converts a scalar to targetType where Go allows it.
func convertTo(val interface{}, targetType reflect.Type) (interface{}, error) {
	if val == nil || targetType == nil || targetType.Kind() == reflect.Interface {
		return val, nil
	}
	rv := reflect.ValueOf(val)
	if rv.Type().AssignableTo(targetType) {
		return val, nil
	}
	if targetType.Kind() == reflect.String {
		// int to string conversion in Go yields a rune, not digits
		return reflect.ValueOf(fmt.Sprint(val)).Convert(targetType).Interface(), nil
	}
	if rv.Type().ConvertibleTo(targetType) {
		return rv.Convert(targetType).Interface(), nil
	}
	return nil, fmt.Errorf("cannot convert %s to %s", rv.Type(), targetType)
}

func isList(arr value.Array) bool {
	i := int64(0)
	for k := range arr.KeyIter() {
		if !k.IsInt() || k.Int() != i {
			return false
		}
		i++
	}
	return true
}

func (m *Marshaller) sliceToList(v reflect.Value, depth int) (*value.OrderedArray, error) {
	arr := value.NewArray()
	for i := 0; i < v.Len(); i++ {
		el, err := m.toValue(v.Index(i).Interface(), depth+1)
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", i, err)
		}
		if _, err := arr.Append(el); err != nil {
			return nil, err
		}
	}
	return arr, nil
}

// mapToArray sorts the keys so that iteration order is deterministic.
func (m *Marshaller) mapToArray(v reflect.Value, depth int) (*value.OrderedArray, error) {
	type entry struct {
		key value.Key
		val reflect.Value
	}
	entries := make([]entry, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		kv, err := m.ToValue(iter.Key().Interface())
		if err != nil {
			return nil, fmt.Errorf("map key: %w", err)
		}
		key, err := value.KeyFromValue(kv)
		if err != nil {
			return nil, fmt.Errorf("map key: %w", err)
		}
		entries = append(entries, entry{key, iter.Value()})
	}
	slices.SortFunc(entries, func(a, b entry) int {
		if a.key.IsInt() && b.key.IsInt() {
			return cmp.Compare(a.key.Int(), b.key.Int())
		}
		return cmp.Compare(a.key.String(), b.key.String())
	})

	arr := value.NewArray()
	for _, e := range entries {
		val, err := m.toValue(e.val.Interface(), depth+1)
		if err != nil {
			return nil, fmt.Errorf("map value %s: %w", e.key.String(), err)
		}
		arr.Put(e.key, val)
	}
	return arr, nil
}

func (m *Marshaller) structToArray(v reflect.Value, depth int) (*value.OrderedArray, error) {
	arr := value.NewArray()
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" {
			continue
		}
		val, err := m.toValue(v.Field(i).Interface(), depth+1)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field.Name, err)
		}
		arr.Put(value.StrKey(field.Name), val)
	}
	return arr, nil
}

func (m *Marshaller) listToSlice(arr value.Array, targetType reflect.Type, depth int) (interface{}, error) {
	elemType := reflect.TypeOf((*interface{})(nil)).Elem()
	if targetType != nil {
		elemType = targetType.Elem()
	}
	slice := reflect.MakeSlice(reflect.SliceOf(elemType), 0, arr.Size())
	for el := range arr.ValueIter() {
		val, err := m.fromValue(el, elemType, depth+1)
		if err != nil {
			return nil, err
		}
		slice = reflect.Append(slice, reflectOf(val, elemType))
	}
	return slice.Interface(), nil
}

func (m *Marshaller) arrayToMap(arr value.Array, targetType reflect.Type, depth int) (interface{}, error) {
	if targetType != nil && targetType.Kind() == reflect.Map {
		result := reflect.MakeMapWithSize(targetType, arr.Size())
		keyType, valType := targetType.Key(), targetType.Elem()
		for k, el := range arr.Iter() {
			key, err := m.FromValue(keyValue(k), keyType)
			if err != nil {
				return nil, fmt.Errorf("map key: %w", err)
			}
			val, err := m.fromValue(el, valType, depth+1)
			if err != nil {
				return nil, fmt.Errorf("map value %s: %w", k.String(), err)
			}
			result.SetMapIndex(reflectOf(key, keyType), reflectOf(val, valType))
		}
		return result.Interface(), nil
	}

	result := make(map[string]interface{}, arr.Size())
	for k, el := range arr.Iter() {
		val, err := m.fromValue(el, nil, depth+1)
		if err != nil {
			return nil, fmt.Errorf("map value %s: %w", k.String(), err)
		}
		result[k.String()] = val
	}
	return result, nil
}

// arrayToStruct fills exported fields by name; missing keys keep zero values.
func (m *Marshaller) arrayToStruct(arr value.Array, targetType reflect.Type, depth int) (interface{}, error) {
	out := reflect.New(targetType).Elem()
	for i := 0; i < targetType.NumField(); i++ {
		field := targetType.Field(i)
		if field.PkgPath != "" {
			continue
		}
		el := arr.Get(value.StrKey(field.Name))
		if value.IsUnset(el) {
			continue
		}
		val, err := m.fromValue(el, field.Type, depth+1)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field.Name, err)
		}
		out.Field(i).Set(reflectOf(val, field.Type))
	}
	return out.Interface(), nil
}

func keyValue(k value.Key) value.Value {
	if k.IsInt() {
		return value.Int(k.Int())
	}
	return value.Str(k.String())
}

func reflectOf(val interface{}, t reflect.Type) reflect.Value {
	if val == nil {
		return reflect.Zero(t)
	}
	return reflect.ValueOf(val)
}
