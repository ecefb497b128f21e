// Package i18n converts strings between charsets (iconv, mbstring) on top
// of golang.org/x/text.
package i18n

import (
	"errors"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/funvibe/funphp/internal/config"
	"github.com/funvibe/funphp/internal/diagnostics"
	"github.com/funvibe/funphp/internal/evaluator"
	"github.com/funvibe/funphp/internal/value"
)

// Module carries the charset assumed for strings without an encoding
// label and for omitted encoding arguments.
type Module struct {
	DefaultCharset string
}

// Register installs the module with the built-in default charset.
func Register(r *evaluator.Registry) error {
	return (&Module{}).Install(r)
}

// Install registers the iconv and mb_* functions into r.
func (m *Module) Install(r *evaluator.Registry) error {
	if m.DefaultCharset == "" {
		m.DefaultCharset = config.DefaultCharset
	}
	if _, err := LookupCharset(m.DefaultCharset); err != nil {
		return err
	}

	r.RegisterFunc("iconv", 3, 3, m.iconv)
	r.RegisterFunc("mb_convert_encoding", 2, 3, m.convertEncoding)
	r.RegisterFunc("mb_strlen", 1, 2, m.strlen)
	r.RegisterFunc("mb_substr", 2, 4, m.substr)
	r.RegisterFunc("mb_check_encoding", 1, 2, m.checkEncoding)
	r.RegisterFunc("mb_strtoupper", 1, 2, m.caser(func() cases.Caser { return cases.Upper(language.Und) }))
	r.RegisterFunc("mb_strtolower", 1, 2, m.caser(func() cases.Caser { return cases.Lower(language.Und) }))
	r.RegisterFunc("mb_internal_encoding", 0, 0, func(*evaluator.CallContext, []value.Value) (value.Value, error) {
		return value.Str(m.DefaultCharset), nil
	})
	return nil
}

func (m *Module) iconv(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
	fromLabel, _ := SplitTarget(value.ToString(args[0]))
	toLabel, mode := SplitTarget(value.ToString(args[1]))
	from, err := charsetArg(ctx, fromLabel, 1, "from_encoding")
	if err != nil {
		return nil, err
	}
	to, err := charsetArg(ctx, toLabel, 2, "to_encoding")
	if err != nil {
		return nil, err
	}
	out, err := Convert(value.ToString(args[2]), from, to, mode)
	if err != nil {
		return nil, conversionError(ctx, err)
	}
	return value.String{Value: out, Encoding: to.Name}, nil
}

// convertEncoding accepts a comma-separated candidate list for the source
// charset and uses the first one the input decodes cleanly in.
func (m *Module) convertEncoding(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
	to, err := charsetArg(ctx, value.ToString(args[1]), 2, "to_encoding")
	if err != nil {
		return nil, err
	}
	s := value.ToString(args[0])

	candidates := []string{m.sourceCharset(args[0])}
	if len(args) > 2 {
		candidates = strings.Split(value.ToString(args[2]), ",")
	}
	var from *Charset
	for _, label := range candidates {
		cs, err := charsetArg(ctx, label, 3, "from_encoding")
		if err != nil {
			return nil, err
		}
		if from == nil {
			from = cs
		}
		if _, err := cs.Decode(s, Strict); err == nil {
			from = cs
			break
		}
	}

	out, err := Convert(s, from, to, Translit)
	if err != nil {
		return nil, conversionError(ctx, err)
	}
	return value.String{Value: out, Encoding: to.Name}, nil
}

func (m *Module) strlen(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
	runes, _, err := m.decodeArg(ctx, args, 1)
	if err != nil {
		return nil, err
	}
	return value.Int(len(runes)), nil
}

func (m *Module) substr(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
	runes, cs, err := m.decodeArg(ctx, args, 3)
	if err != nil {
		return nil, err
	}
	n := int64(len(runes))
	start := value.ToInt(args[1])
	if start < 0 {
		start = max(n+start, 0)
	}
	start = min(start, n)
	end := n
	if len(args) > 2 && !value.IsNull(args[2]) {
		length := value.ToInt(args[2])
		if length < 0 {
			end = max(n+length, start)
		} else {
			end = min(start+length, n)
		}
	}
	out, err := cs.Encode(runes[start:end], Translit)
	if err != nil {
		return nil, conversionError(ctx, err)
	}
	return value.String{Value: out, Encoding: cs.Name}, nil
}

func (m *Module) checkEncoding(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
	label := m.sourceCharset(args[0])
	if len(args) > 1 {
		label = value.ToString(args[1])
	}
	cs, err := charsetArg(ctx, label, 2, "encoding")
	if err != nil {
		return nil, err
	}
	_, err = cs.Decode(value.ToString(args[0]), Strict)
	return value.Bool(err == nil), nil
}

// caser builds a fresh Caser per call; Casers keep state between calls.
func (m *Module) caser(newCaser func() cases.Caser) evaluator.NativeFunction {
	return func(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
		runes, cs, err := m.decodeArg(ctx, args, 1)
		if err != nil {
			return nil, err
		}
		mapped := []rune(newCaser().String(string(runes)))
		out, err := cs.Encode(mapped, Translit)
		if err != nil {
			return nil, conversionError(ctx, err)
		}
		return value.String{Value: out, Encoding: cs.Name}, nil
	}
}

// decodeArg decodes args[0] in the charset named by args[encArg], the
// string's own label, or the default. Malformed bytes count as '?'.
func (m *Module) decodeArg(ctx *evaluator.CallContext, args []value.Value, encArg int) ([]rune, *Charset, error) {
	label := m.sourceCharset(args[0])
	if encArg < len(args) && !value.IsNull(args[encArg]) {
		label = value.ToString(args[encArg])
	}
	cs, err := charsetArg(ctx, label, encArg+1, "encoding")
	if err != nil {
		return nil, nil, err
	}
	runes, err := cs.Decode(value.ToString(args[0]), Translit)
	if err != nil {
		return nil, nil, conversionError(ctx, err)
	}
	return runes, cs, nil
}

func (m *Module) sourceCharset(v value.Value) string {
	if s, ok := v.(value.String); ok && s.Encoding != "" {
		return s.Encoding
	}
	return m.DefaultCharset
}

func charsetArg(ctx *evaluator.CallContext, label string, pos int, param string) (*Charset, error) {
	cs, err := LookupCharset(label)
	if err != nil {
		return nil, ctx.Errorf(diagnostics.ErrR005, "Argument #%d ($%s) must be a valid encoding, %q given", pos, param, label)
	}
	return cs, nil
}

func conversionError(ctx *evaluator.CallContext, err error) error {
	var malformed *MalformedError
	if errors.As(err, &malformed) {
		return ctx.Errorf(diagnostics.ErrR003, "Detected an illegal character in input string")
	}
	return err
}
