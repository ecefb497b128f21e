package value

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
)

// Kind identifies the runtime value category.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindObject
	KindResource
	KindUnset
)

// String returns the name reported by gettype().
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "NULL"
	case KindBool:
		return "boolean"
	case KindInt:
		return "integer"
	case KindFloat:
		return "double"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindResource:
		return "resource"
	default:
		return "unset"
	}
}

// Value is the tagged variant every expression evaluates to.
// Scalars are immutable; Array, Object and Resource carry a handle to
// shared mutable state.
type Value interface {
	Kind() Kind
	Inspect() string
}

// Null
type Null struct{}

func (Null) Kind() Kind       { return KindNull }
func (Null) Inspect() string { return "NULL" }

// Bool
type Bool bool

func (Bool) Kind() Kind { return KindBool }
func (b Bool) Inspect() string {
	if b {
		return "true"
	}
	return "false"
}

// Int
type Int int64

func (Int) Kind() Kind         { return KindInt }
func (i Int) Inspect() string { return strconv.FormatInt(int64(i), 10) }

// Float
type Float float64

func (Float) Kind() Kind         { return KindFloat }
func (f Float) Inspect() string { return FormatFloat(float64(f), -1) }

// String holds a byte sequence plus the charset it is encoded in.
// An empty Encoding means the session default.
type String struct {
	Value    string
	Encoding string
}

// Str builds a String in the default encoding.
func Str(s string) String { return String{Value: s} }

func (String) Kind() Kind         { return KindString }
func (s String) Inspect() string { return strconv.Quote(s.Value) }

type unset struct{}

func (unset) Kind() Kind       { return KindUnset }
func (unset) Inspect() string { return "<unset>" }

// Unset is returned by array reads of absent keys. It is never stored:
// slots coerce it to Null on write.
var Unset Value = unset{}

// IsUnset reports whether v is the Unset sentinel (or nil).
func IsUnset(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(unset)
	return ok
}

// OrNull maps Unset and nil to Null.
func OrNull(v Value) Value {
	if IsUnset(v) {
		return Null{}
	}
	return v
}

// IsNull reports whether v is Null, Unset or nil.
func IsNull(v Value) bool {
	if IsUnset(v) {
		return true
	}
	return v.Kind() == KindNull
}

// Object is a handle to a property table. Objects are never copied on
// assignment. When Delegate is set the object can be indexed like an array.
type Object struct {
	Class    string
	Props    *OrderedArray
	Delegate Array
	id       int64
}

var objectSeq atomic.Int64

// NewObject allocates an object handle of the given class.
func NewObject(class string) *Object {
	return &Object{Class: class, Props: NewArray(), id: objectSeq.Add(1)}
}

func (o *Object) Kind() Kind { return KindObject }
func (o *Object) ID() int64  { return o.id }
func (o *Object) Inspect() string {
	return fmt.Sprintf("object(%s)#%d", o.Class, o.id)
}

// Resource is a handle to host-owned state such as a stream or a
// database connection.
type Resource struct {
	ID     int64
	Type   string
	Handle any
	closed bool
}

func (r *Resource) Kind() Kind { return KindResource }
func (r *Resource) Inspect() string {
	if r.closed {
		return fmt.Sprintf("resource(%d) of type (Unknown)", r.ID)
	}
	return fmt.Sprintf("resource(%d) of type (%s)", r.ID, r.Type)
}

// Close marks the resource as released.
func (r *Resource) Close() { r.closed = true }

// Closed reports whether Close has been called.
func (r *Resource) Closed() bool { return r.closed }

// TypeName returns the name gettype()/var_dump use for v, qualifying
// objects with their class.
func TypeName(v Value) string {
	if o, ok := v.(*Object); ok {
		return o.Class
	}
	return OrNull(v).Kind().String()
}

// InspectArray renders a as [k => v, ...]. An array met again while it is
// still being rendered, or any of the given aliases of a, prints as
// *RECURSION*.
func InspectArray(a Array, aliases ...Array) string {
	var sb strings.Builder
	writeArray(&sb, a, append(aliases, a))
	return sb.String()
}

func writeArray(sb *strings.Builder, a Array, open []Array) {
	sb.WriteString("[")
	first := true
	for k, v := range a.Iter() {
		if !first {
			sb.WriteString(", ")
		}
		first = false
		sb.WriteString(k.Inspect())
		sb.WriteString(" => ")
		writeNested(sb, v, open)
	}
	sb.WriteString("]")
}

func writeNested(sb *strings.Builder, v Value, open []Array) {
	inner, ok := v.(Array)
	if !ok {
		sb.WriteString(v.Inspect())
		return
	}
	if slices.Contains(open, inner) || len(open) > MaxNestingDepth {
		sb.WriteString("*RECURSION*")
		return
	}
	switch x := inner.(type) {
	case *OrderedArray:
		writeArray(sb, x, append(open, x))
	case Snapshotter:
		writeArray(sb, x.Snapshot(), append(open, inner))
	default:
		sb.WriteString(inner.Inspect())
	}
}

// DebugType names v the way argument type errors do: scalar names are
// the short forms ("int", "bool") and objects report their class.
func DebugType(v Value) string {
	switch x := OrNull(v).(type) {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	case *Object:
		return x.Class
	case *Resource:
		return "resource"
	}
	return "array"
}
