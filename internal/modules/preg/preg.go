// Package preg provides the PCRE-style preg_* functions on top of
// github.com/dlclark/regexp2.
package preg

import (
	"strings"
	"unicode/utf8"

	"github.com/dlclark/regexp2"

	"github.com/funvibe/funphp/internal/diagnostics"
	"github.com/funvibe/funphp/internal/evaluator"
	"github.com/funvibe/funphp/internal/value"
)

const (
	PatternOrder    = 1
	SetOrder        = 2
	OffsetCapture   = 256
	UnmatchedAsNull = 512

	SplitNoEmpty       = 1
	SplitDelimCapture  = 2
	SplitOffsetCapture = 4

	GrepInvert = 1
)

func Register(r *evaluator.Registry) error {
	for name, v := range map[string]int64{
		"PREG_PATTERN_ORDER":        PatternOrder,
		"PREG_SET_ORDER":            SetOrder,
		"PREG_OFFSET_CAPTURE":       OffsetCapture,
		"PREG_UNMATCHED_AS_NULL":    UnmatchedAsNull,
		"PREG_SPLIT_NO_EMPTY":       SplitNoEmpty,
		"PREG_SPLIT_DELIM_CAPTURE":  SplitDelimCapture,
		"PREG_SPLIT_OFFSET_CAPTURE": SplitOffsetCapture,
		"PREG_GREP_INVERT":          GrepInvert,
	} {
		r.RegisterConstant(name, value.Int(v))
	}

	r.Register(&evaluator.Builtin{Name: "preg_match", MinArgs: 2, MaxArgs: 5, RefParams: []int{2}, Fn: pregMatch})
	r.Register(&evaluator.Builtin{Name: "preg_match_all", MinArgs: 2, MaxArgs: 5, RefParams: []int{2}, Fn: pregMatchAll})
	r.Register(&evaluator.Builtin{Name: "preg_replace", MinArgs: 3, MaxArgs: 5, RefParams: []int{4}, Fn: pregReplace})
	r.Register(&evaluator.Builtin{Name: "preg_replace_callback", MinArgs: 3, MaxArgs: 5, RefParams: []int{4}, Fn: pregReplaceCallback})
	r.RegisterFunc("preg_split", 2, 4, pregSplit)
	r.RegisterFunc("preg_quote", 1, 2, pregQuote)
	r.RegisterFunc("preg_grep", 2, 3, pregGrep)
	return nil
}

func compileArg(ctx *evaluator.CallContext, v value.Value) (*Pattern, error) {
	p, err := Compile(value.ToString(v))
	if err != nil {
		return nil, ctx.Errorf(diagnostics.ErrR003, "%v", err)
	}
	return p, nil
}

func matchError(ctx *evaluator.CallContext, err error) error {
	return ctx.Errorf(diagnostics.ErrR003, "Backtrack limit exhausted: %v", err)
}

// subject holds the rune view of a string the engine works on plus
// the byte offset of every rune, since scripts see byte offsets.
type subject struct {
	runes   []rune
	offsets []int
}

func newSubject(s string) *subject {
	runes := []rune(s)
	offsets := make([]int, len(runes)+1)
	for i, r := range runes {
		offsets[i+1] = offsets[i] + utf8.RuneLen(r)
	}
	return &subject{runes: runes, offsets: offsets}
}

func (s *subject) text(index, length int) string { return string(s.runes[index : index+length]) }

// runeIndex converts a byte offset, negative counting from the end, into
// a rune position.
func (s *subject) runeIndex(byteOffset int64) int {
	total := int64(s.offsets[len(s.offsets)-1])
	if byteOffset < 0 {
		byteOffset = max(total+byteOffset, 0)
	}
	for i, off := range s.offsets {
		if int64(off) >= byteOffset {
			return i
		}
	}
	return len(s.runes)
}

// capture is one group of a match as scripts see it.
type capture struct {
	text    string
	offset  int
	matched bool
}

func (p *Pattern) captures(m *regexp2.Match, subj *subject) []capture {
	out := make([]capture, len(p.groups))
	for i, ref := range p.groups {
		var g *regexp2.Group
		if ref.name != "" {
			g = m.GroupByName(ref.name)
		} else {
			g = m.GroupByNumber(ref.num)
		}
		if g == nil || len(g.Captures) == 0 {
			out[i] = capture{offset: -1}
			continue
		}
		out[i] = capture{text: subj.text(g.Index, g.Length), offset: subj.offsets[g.Index], matched: true}
	}
	return out
}

// lastMatched is one past the last group that took part in the match.
func lastMatched(caps []capture) int {
	n := len(caps)
	for n > 1 && !caps[n-1].matched {
		n--
	}
	return n
}

func (c capture) value(flags int64) value.Value {
	var v value.Value = value.Str(c.text)
	if !c.matched && flags&UnmatchedAsNull != 0 {
		v = value.Null{}
	}
	if flags&OffsetCapture != 0 {
		return value.NewList(v, value.Int(c.offset))
	}
	return v
}

// put stores v under the group's name, when it has one, and its number.
func (p *Pattern) put(arr *value.OrderedArray, i int, v value.Value) {
	if name := p.groups[i].name; name != "" {
		arr.Put(value.StrKey(name), value.CopyOnAssign(v))
	}
	arr.Put(value.IntKey(int64(i)), v)
}

func (p *Pattern) matchArray(caps []capture, flags int64, trim bool) *value.OrderedArray {
	n := len(caps)
	if trim && flags&UnmatchedAsNull == 0 {
		n = lastMatched(caps)
	}
	arr := value.NewArray()
	for i := 0; i < n; i++ {
		p.put(arr, i, caps[i].value(flags))
	}
	return arr
}

func (p *Pattern) firstMatch(subj *subject, start int) (*regexp2.Match, error) {
	return p.re.FindRunesMatchStartingAt(subj.runes, start)
}

func pregMatch(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
	p, err := compileArg(ctx, args[0])
	if err != nil {
		return nil, err
	}
	subj := newSubject(value.ToString(args[1]))
	flags := optInt(args, 3)
	m, err := p.firstMatch(subj, subj.runeIndex(optInt(args, 4)))
	if err != nil {
		return nil, matchError(ctx, err)
	}
	if slot := ctx.Ref(2); slot != nil {
		if m == nil {
			slot.Set(value.NewArray())
		} else {
			slot.Set(p.matchArray(p.captures(m, subj), flags, true))
		}
	}
	if m == nil {
		return value.Int(0), nil
	}
	return value.Int(1), nil
}

func pregMatchAll(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
	p, err := compileArg(ctx, args[0])
	if err != nil {
		return nil, err
	}
	subj := newSubject(value.ToString(args[1]))
	flags := optInt(args, 3)
	if flags&(PatternOrder|SetOrder) == 0 {
		flags |= PatternOrder
	}
	if flags&PatternOrder != 0 && flags&SetOrder != 0 {
		return nil, ctx.Errorf(diagnostics.ErrR005, "Argument #4 ($flags) must be a PREG_* constant")
	}

	var all [][]capture
	m, err := p.firstMatch(subj, subj.runeIndex(optInt(args, 4)))
	for ; m != nil && err == nil; m, err = p.re.FindNextMatch(m) {
		all = append(all, p.captures(m, subj))
	}
	if err != nil {
		return nil, matchError(ctx, err)
	}

	if slot := ctx.Ref(2); slot != nil {
		result := value.NewArray()
		if flags&SetOrder != 0 {
			for _, caps := range all {
				result.Append(p.matchArray(caps, flags, true))
			}
		} else {
			for i := range p.groups {
				column := value.NewArray()
				for _, caps := range all {
					column.Append(caps[i].value(flags))
				}
				p.put(result, i, column)
			}
		}
		slot.Set(result)
	}
	return value.Int(int64(len(all))), nil
}

// replacer produces the text substituted for one match.
type replacer func(caps []capture) (string, error)

func (p *Pattern) replace(s string, limit int64, fn replacer) (string, int, error) {
	subj := newSubject(s)
	var sb strings.Builder
	last, n := 0, 0
	m, err := p.firstMatch(subj, 0)
	for ; m != nil && err == nil && (limit < 0 || int64(n) < limit); m, err = p.re.FindNextMatch(m) {
		rep, ferr := fn(p.captures(m, subj))
		if ferr != nil {
			return "", n, ferr
		}
		sb.WriteString(string(subj.runes[last:m.Index]))
		sb.WriteString(rep)
		last = m.Index + m.Length
		n++
	}
	if err != nil {
		return "", n, err
	}
	if n == 0 {
		return s, 0, nil
	}
	sb.WriteString(string(subj.runes[last:]))
	return sb.String(), n, nil
}

// expandTemplate substitutes \n, $n and ${n} group references.
func expandTemplate(tmpl string, caps []capture) string {
	var sb strings.Builder
	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		if (c == '\\' || c == '$') && i+1 < len(tmpl) {
			j, braced := i+1, false
			if c == '$' && tmpl[j] == '{' {
				j++
				braced = true
			}
			start := j
			for j < len(tmpl) && j < start+2 && isDigit(tmpl[j]) {
				j++
			}
			if j > start && (!braced || (j < len(tmpl) && tmpl[j] == '}')) {
				num := 0
				for _, d := range tmpl[start:j] {
					num = num*10 + int(d-'0')
				}
				if num < len(caps) {
					sb.WriteString(caps[num].text)
				}
				if braced {
					j++
				}
				i = j - 1
				continue
			}
			if c == '\\' && tmpl[i+1] == '\\' {
				sb.WriteByte('\\')
				i++
				continue
			}
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

func compilePatterns(ctx *evaluator.CallContext, v value.Value) ([]*Pattern, error) {
	sources := []value.Value{v}
	if arr, ok := value.AsArray(v); ok {
		sources = sources[:0]
		for pv := range arr.ValueIter() {
			sources = append(sources, pv)
		}
	}
	patterns := make([]*Pattern, len(sources))
	for i, pv := range sources {
		p, err := compileArg(ctx, pv)
		if err != nil {
			return nil, err
		}
		patterns[i] = p
	}
	return patterns, nil
}

// replaceEach applies every pattern in turn to each subject; subjects may
// be an array, in which case keys are kept.
func replaceEach(ctx *evaluator.CallContext, args []value.Value, patterns []*Pattern, replacementFor func(i int, p *Pattern) replacer) (value.Value, error) {
	limit := int64(-1)
	if len(args) > 3 && !value.IsNull(args[3]) {
		limit = value.ToInt(args[3])
	}

	total := 0
	apply := func(s string) (string, error) {
		for i, p := range patterns {
			out, n, err := p.replace(s, limit, replacementFor(i, p))
			if err != nil {
				return "", replaceError(ctx, err)
			}
			s = out
			total += n
		}
		return s, nil
	}

	var result value.Value
	if arr, ok := value.AsArray(args[2]); ok {
		out := value.NewArray()
		for k, v := range arr.Iter() {
			s, err := apply(value.ToString(v))
			if err != nil {
				return nil, err
			}
			out.Put(k, value.Str(s))
		}
		result = out
	} else {
		s, err := apply(value.ToString(args[2]))
		if err != nil {
			return nil, err
		}
		result = value.Str(s)
	}
	if slot := ctx.Ref(4); slot != nil {
		slot.Set(value.Int(int64(total)))
	}
	return result, nil
}

func replaceError(ctx *evaluator.CallContext, err error) error {
	if _, ok := diagnostics.CodeOf(err); ok {
		return err
	}
	return matchError(ctx, err)
}

func pregReplace(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
	patterns, err := compilePatterns(ctx, args[0])
	if err != nil {
		return nil, err
	}
	templates := make([]string, len(patterns))
	if rarr, ok := value.AsArray(args[1]); ok {
		if _, ok := value.AsArray(args[0]); !ok {
			return nil, ctx.Errorf(diagnostics.ErrR005, "Argument #1 ($pattern) must be of type array when argument #2 ($replacement) is an array, string given")
		}
		i := 0
		for v := range rarr.ValueIter() {
			if i < len(templates) {
				templates[i] = value.ToString(v)
			}
			i++
		}
	} else {
		for i := range templates {
			templates[i] = value.ToString(args[1])
		}
	}
	return replaceEach(ctx, args, patterns, func(i int, _ *Pattern) replacer {
		return func(caps []capture) (string, error) {
			return expandTemplate(templates[i], caps), nil
		}
	})
}

func pregReplaceCallback(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
	callback := value.ToString(args[1])
	if !ctx.Eval.FunctionExists(callback) {
		return nil, ctx.Errorf(diagnostics.ErrR005, "Argument #2 ($callback) must be a valid callback, function \"%s\" not found or invalid function name", callback)
	}
	patterns, err := compilePatterns(ctx, args[0])
	if err != nil {
		return nil, err
	}
	return replaceEach(ctx, args, patterns, func(_ int, p *Pattern) replacer {
		return func(caps []capture) (string, error) {
			res, err := ctx.Call(callback, p.matchArray(caps, 0, true))
			if err != nil {
				return "", err
			}
			return ctx.ToString(res)
		}
	})
}

func pregSplit(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
	p, err := compileArg(ctx, args[0])
	if err != nil {
		return nil, err
	}
	s := value.ToString(args[1])
	subj := newSubject(s)
	limit := int64(-1)
	if len(args) > 2 && !value.IsNull(args[2]) {
		limit = value.ToInt(args[2])
	}
	if limit == 0 {
		limit = -1
	}
	flags := optInt(args, 3)
	noEmpty := flags&SplitNoEmpty != 0

	result := value.NewArray()
	pieces := int64(0)
	add := func(text string, offset int, delim bool) {
		if noEmpty && text == "" {
			return
		}
		if !delim {
			pieces++
		}
		if flags&SplitOffsetCapture != 0 {
			result.Append(value.NewList(value.Str(text), value.Int(int64(offset))))
		} else {
			result.Append(value.Str(text))
		}
	}

	last := 0
	m, err := p.firstMatch(subj, 0)
	for ; m != nil && err == nil; m, err = p.re.FindNextMatch(m) {
		if limit > 0 && pieces >= limit-1 {
			break
		}
		piece := subj.text(last, m.Index-last)
		if noEmpty && piece == "" && m.Length == 0 {
			continue
		}
		add(piece, subj.offsets[last], false)
		if flags&SplitDelimCapture != 0 {
			caps := p.captures(m, subj)
			for _, c := range caps[1:lastMatched(caps)] {
				add(c.text, c.offset, true)
			}
		}
		last = m.Index + m.Length
	}
	if err != nil {
		return nil, matchError(ctx, err)
	}
	add(subj.text(last, len(subj.runes)-last), subj.offsets[last], false)
	return result, nil
}

// quoteChars are the bytes preg_quote escapes.
const quoteChars = `.\+*?[^]$(){}=!<>|:-#`

func pregQuote(_ *evaluator.CallContext, args []value.Value) (value.Value, error) {
	s := value.ToString(args[0])
	delim := ""
	if len(args) > 1 && !value.IsNull(args[1]) {
		delim = value.ToString(args[1])
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == 0:
			sb.WriteString(`\000`)
		case strings.IndexByte(quoteChars, c) >= 0 || (delim != "" && c == delim[0]):
			sb.WriteByte('\\')
			sb.WriteByte(c)
		default:
			sb.WriteByte(c)
		}
	}
	return value.Str(sb.String()), nil
}

func pregGrep(ctx *evaluator.CallContext, args []value.Value) (value.Value, error) {
	p, err := compileArg(ctx, args[0])
	if err != nil {
		return nil, err
	}
	arr, ok := value.AsArray(args[1])
	if !ok {
		return nil, ctx.Errorf(diagnostics.ErrR005, "Argument #2 ($array) must be of type array, %s given", value.DebugType(args[1]))
	}
	invert := optInt(args, 2)&GrepInvert != 0
	result := value.NewArray()
	for k, v := range arr.Iter() {
		matched, err := p.re.MatchString(value.ToString(v))
		if err != nil {
			return nil, matchError(ctx, err)
		}
		if matched != invert {
			result.Put(k, value.CopyOnAssign(v))
		}
	}
	return result, nil
}

func optInt(args []value.Value, i int) int64 {
	if i < len(args) && !value.IsNull(args[i]) {
		return value.ToInt(args[i])
	}
	return 0
}
