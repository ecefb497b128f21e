// Package serialize implements serialize/unserialize in the classic
// wire format: N; b:1; i:5; d:0.5; s:3:"abc"; a:1:{i:0;s:1:"x";}
package serialize

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/funvibe/funphp/internal/diagnostics"
	"github.com/funvibe/funphp/internal/evaluator"
	"github.com/funvibe/funphp/internal/value"
)

const maxDepth = value.MaxNestingDepth

func Register(r *evaluator.Registry) error {
	r.RegisterFunc("serialize", 1, 1, func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
		s, err := Serialize(args[0])
		if err != nil {
			return nil, ctx.Errorf(diagnostics.ErrR003, "%v", err)
		}
		return value.Str(s), nil
	})
	// Malformed input yields false, as scripts test for it.
	r.RegisterFunc("unserialize", 1, 2, func(_ *evaluator.CallContext, args []value.Value) (value.Value, error) {
		v, err := Unserialize(value.ToString(args[0]))
		if err != nil {
			return value.Bool(false), nil
		}
		return v, nil
	})
	return nil
}

// Serialize encodes v. Resources cannot be encoded.
func Serialize(v value.Value) (string, error) {
	var sb strings.Builder
	if err := encode(&sb, v, 0); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func encode(sb *strings.Builder, v value.Value, depth int) error {
	if depth > maxDepth {
		return value.ErrNestingTooDeep
	}
	switch x := value.OrNull(v).(type) {
	case value.Null:
		sb.WriteString("N;")
	case value.Bool:
		if x {
			sb.WriteString("b:1;")
		} else {
			sb.WriteString("b:0;")
		}
	case value.Int:
		fmt.Fprintf(sb, "i:%d;", int64(x))
	case value.Float:
		sb.WriteString("d:")
		sb.WriteString(formatFloat(float64(x)))
		sb.WriteByte(';')
	case value.String:
		encodeString(sb, x.Value)
	case *value.Object:
		fmt.Fprintf(sb, "O:%d:\"%s\":", len(x.Class), x.Class)
		return encodeEntries(sb, x.Props, depth)
	case value.Array:
		sb.WriteString("a:")
		return encodeEntries(sb, x, depth)
	default:
		return fmt.Errorf("cannot serialize a value of type %s", value.DebugType(v))
	}
	return nil
}

func encodeString(sb *strings.Builder, s string) {
	fmt.Fprintf(sb, "s:%d:\"", len(s))
	sb.WriteString(s)
	sb.WriteString("\";")
}

func encodeEntries(sb *strings.Builder, arr value.Array, depth int) error {
	fmt.Fprintf(sb, "%d:{", arr.Size())
	for k, v := range arr.Iter() {
		if k.IsInt() {
			fmt.Fprintf(sb, "i:%d;", k.Int())
		} else {
			encodeString(sb, k.String())
		}
		if err := encode(sb, v, depth+1); err != nil {
			return err
		}
	}
	sb.WriteByte('}')
	return nil
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NAN"
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	}
	return value.FormatFloat(f, -1)
}

// SyntaxError locates the first byte unserialize could not accept.
type SyntaxError struct {
	Offset int
	Length int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("Error at offset %d of %d bytes", e.Offset, e.Length)
}

// Unserialize decodes one value and rejects trailing garbage.
func Unserialize(s string) (value.Value, error) {
	d := &decoder{src: s}
	v, err := d.value(0)
	if err != nil {
		return nil, err
	}
	if d.pos != len(s) {
		return nil, d.fail()
	}
	return v, nil
}

type decoder struct {
	src string
	pos int
}

func (d *decoder) fail() error { return &SyntaxError{Offset: d.pos, Length: len(d.src)} }

func (d *decoder) expect(c byte) error {
	if d.pos >= len(d.src) || d.src[d.pos] != c {
		return d.fail()
	}
	d.pos++
	return nil
}

// until returns the text up to the terminator and consumes both.
func (d *decoder) until(term byte) (string, error) {
	end := strings.IndexByte(d.src[d.pos:], term)
	if end < 0 {
		return "", d.fail()
	}
	s := d.src[d.pos : d.pos+end]
	d.pos += end + 1
	return s, nil
}

func (d *decoder) int(term byte) (int64, error) {
	start := d.pos
	s, err := d.until(term)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		d.pos = start
		return 0, d.fail()
	}
	return n, nil
}

func (d *decoder) value(depth int) (value.Value, error) {
	if depth > maxDepth || d.pos+1 >= len(d.src) {
		return nil, d.fail()
	}
	tag := d.src[d.pos]
	if tag == 'N' {
		d.pos++
		if err := d.expect(';'); err != nil {
			return nil, err
		}
		return value.Null{}, nil
	}
	d.pos++
	if err := d.expect(':'); err != nil {
		return nil, err
	}

	switch tag {
	case 'b':
		n, err := d.int(';')
		if err != nil || (n != 0 && n != 1) {
			return nil, d.fail()
		}
		return value.Bool(n == 1), nil
	case 'i':
		n, err := d.int(';')
		if err != nil {
			return nil, err
		}
		return value.Int(n), nil
	case 'd':
		start := d.pos
		s, err := d.until(';')
		if err != nil {
			return nil, err
		}
		f, ok := parseFloat(s)
		if !ok {
			d.pos = start
			return nil, d.fail()
		}
		return value.Float(f), nil
	case 's':
		s, err := d.string()
		if err != nil {
			return nil, err
		}
		if err := d.expect(';'); err != nil {
			return nil, err
		}
		return value.Str(s), nil
	case 'a':
		arr := value.NewArray()
		if err := d.entries(arr, depth); err != nil {
			return nil, err
		}
		return arr, nil
	case 'O':
		class, err := d.string()
		if err != nil {
			return nil, err
		}
		if err := d.expect(':'); err != nil {
			return nil, err
		}
		obj := value.NewObject(class)
		if err := d.entries(obj.Props, depth); err != nil {
			return nil, err
		}
		return obj, nil
	}
	d.pos -= 2
	return nil, d.fail()
}

// string reads LEN:"bytes" where LEN counts bytes, not characters.
func (d *decoder) string() (string, error) {
	n, err := d.int(':')
	if err != nil {
		return "", err
	}
	if err := d.expect('"'); err != nil {
		return "", err
	}
	if n < 0 || int64(len(d.src)-d.pos) < n {
		return "", d.fail()
	}
	s := d.src[d.pos : d.pos+int(n)]
	d.pos += int(n)
	if err := d.expect('"'); err != nil {
		return "", err
	}
	return s, nil
}

func (d *decoder) entries(arr *value.OrderedArray, depth int) error {
	count, err := d.int(':')
	if err != nil {
		return err
	}
	if count < 0 {
		return d.fail()
	}
	if err := d.expect('{'); err != nil {
		return err
	}
	for i := int64(0); i < count; i++ {
		kv, err := d.value(depth + 1)
		if err != nil {
			return err
		}
		var key value.Key
		switch k := kv.(type) {
		case value.Int:
			key = value.IntKey(int64(k))
		case value.String:
			key = value.StrKey(k.Value)
		default:
			return d.fail()
		}
		v, err := d.value(depth + 1)
		if err != nil {
			return err
		}
		arr.Put(key, v)
	}
	return d.expect('}')
}

func parseFloat(s string) (float64, bool) {
	switch s {
	case "NAN":
		return math.NaN(), true
	case "INF":
		return math.Inf(1), true
	case "-INF":
		return math.Inf(-1), true
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}
