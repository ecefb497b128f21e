package preg

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dlclark/regexp2"
)

// MatchTimeout bounds a single match so catastrophic backtracking ends
// in an error instead of hanging the script.
var MatchTimeout = 2 * time.Second

// Pattern is a compiled delimited expression such as "/a(b)c/i".
type Pattern struct {
	Source string
	re     *regexp2.Regexp
	// groups lists capture groups in left-to-right order, index 0 being the
	// whole match. The engine numbers named groups after unnamed ones, so
	// lookups go through this table.
	groups []groupRef
}

type groupRef struct {
	name string
	num  int
}

// GroupCount is the number of capture groups including the whole match.
func (p *Pattern) GroupCount() int { return len(p.groups) }

const maxCacheSize = 4096

var cache = struct {
	sync.Mutex
	m map[string]*Pattern
}{m: make(map[string]*Pattern)}

// Compile parses a delimited pattern and its trailing modifiers. Compiled
// patterns are cached by source; the cache is dropped when it fills up.
func Compile(src string) (*Pattern, error) {
	cache.Lock()
	p, ok := cache.m[src]
	cache.Unlock()
	if ok {
		return p, nil
	}

	p, err := compile(src)
	if err != nil {
		return nil, err
	}
	cache.Lock()
	if len(cache.m) >= maxCacheSize {
		cache.m = make(map[string]*Pattern)
	}
	cache.m[src] = p
	cache.Unlock()
	return p, nil
}

type scanFlags struct {
	extended      bool
	ungreedy      bool
	dollarEndOnly bool
}

func compile(src string) (*Pattern, error) {
	body, modifiers, err := splitDelimited(src)
	if err != nil {
		return nil, err
	}

	opts := regexp2.None
	var flags scanFlags
	anchored := false
	for _, m := range modifiers {
		switch m {
		case 'i':
			opts |= regexp2.IgnoreCase
		case 'm':
			opts |= regexp2.Multiline
		case 's':
			opts |= regexp2.Singleline
		case 'x':
			opts |= regexp2.IgnorePatternWhitespace
			flags.extended = true
		case 'U':
			flags.ungreedy = true
		case 'D':
			flags.dollarEndOnly = true
		case 'A':
			anchored = true
		case 'u', 'S', '\n', '\r', ' ':
		default:
			return nil, fmt.Errorf("Unknown modifier '%c'", m)
		}
	}
	if opts&regexp2.Multiline != 0 {
		flags.dollarEndOnly = false
	}

	expr, groups := translate(body, flags)
	if anchored {
		if flags.extended {
			expr = `\G(?:` + expr + "\n)"
		} else {
			expr = `\G(?:` + expr + `)`
		}
	}
	re, err := regexp2.Compile(expr, opts)
	if err != nil {
		return nil, fmt.Errorf("Compilation failed: %v", err)
	}
	re.MatchTimeout = MatchTimeout
	return &Pattern{Source: src, re: re, groups: groups}, nil
}

// splitDelimited separates "/body/flags". Bracket delimiters nest.
func splitDelimited(src string) (string, string, error) {
	s := strings.TrimLeft(src, " \t\n\r\v\f")
	if s == "" {
		return "", "", fmt.Errorf("Empty regular expression")
	}
	open := s[0]
	if isAlnum(open) || open == '\\' || open == 0 {
		return "", "", fmt.Errorf("Delimiter must not be alphanumeric, backslash, or NUL")
	}
	closing := open
	switch open {
	case '(':
		closing = ')'
	case '[':
		closing = ']'
	case '{':
		closing = '}'
	case '<':
		closing = '>'
	}

	depth := 1
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\':
			i++
		case c == closing && closing != open:
			depth--
			if depth == 0 {
				return s[1:i], s[i+1:], nil
			}
		case c == open && closing != open:
			depth++
		case c == closing:
			return s[1:i], s[i+1:], nil
		}
	}
	if closing != open {
		return "", "", fmt.Errorf("No ending matching delimiter '%c' found", closing)
	}
	return "", "", fmt.Errorf("No ending delimiter '%c' found", closing)
}

// translate rewrites PCRE-only syntax into the engine's dialect and
// records the capture groups in PCRE numbering order.
func translate(src string, flags scanFlags) (string, []groupRef) {
	var sb strings.Builder
	groups := []groupRef{{num: 0}}
	unnamed := 0

	for i := 0; i < len(src); {
		c := src[i]
		rest := src[i+1:]
		switch {
		case c == '\\':
			if strings.HasPrefix(rest, "Q") {
				lit := src[i+2:]
				if end := strings.Index(lit, `\E`); end >= 0 {
					lit = lit[:end]
					i += 2 + end + 2
				} else {
					i = len(src)
				}
				sb.WriteString(regexp2.Escape(lit))
				continue
			}
			n := min(2, len(src)-i)
			sb.WriteString(src[i : i+n])
			i += n
		case c == '[':
			i = copyClass(&sb, src, i)
		case c == '#' && flags.extended:
			end := strings.IndexByte(rest, '\n')
			if end < 0 {
				end = len(rest)
			}
			sb.WriteString(src[i : i+1+end])
			i += 1 + end
		case c == '$' && flags.dollarEndOnly:
			sb.WriteString(`\z`)
			i++
		case c == '(':
			i = openGroup(&sb, src, i, &groups, &unnamed)
		case c == '*' || c == '+' || c == '?':
			sb.WriteByte(c)
			i = lazySuffix(&sb, src, i+1, flags.ungreedy)
		case c == '{':
			if end, ok := boundedQuantifier(src, i); ok {
				sb.WriteString(src[i:end])
				i = lazySuffix(&sb, src, end, flags.ungreedy)
			} else {
				sb.WriteByte(c)
				i++
			}
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return sb.String(), groups
}

func openGroup(sb *strings.Builder, src string, i int, groups *[]groupRef, unnamed *int) int {
	rest := src[i+1:]
	switch {
	case strings.HasPrefix(rest, "?P<"):
		if name, ok := groupName(rest[3:], '>'); ok {
			*groups = append(*groups, groupRef{name: name})
			sb.WriteString("(?<")
			return i + 4
		}
	case strings.HasPrefix(rest, "?P="):
		if name, ok := groupName(rest[3:], ')'); ok {
			sb.WriteString(`\k<` + name + `>`)
			return i + 4 + len(name) + 1
		}
	case strings.HasPrefix(rest, "?<") && !strings.HasPrefix(rest, "?<=") && !strings.HasPrefix(rest, "?<!"):
		if name, ok := groupName(rest[2:], '>'); ok {
			*groups = append(*groups, groupRef{name: name})
			sb.WriteString("(?<")
			return i + 3
		}
	case strings.HasPrefix(rest, "?'"):
		if name, ok := groupName(rest[2:], '\''); ok {
			*groups = append(*groups, groupRef{name: name})
			sb.WriteString("(?'")
			return i + 3
		}
	}
	if strings.HasPrefix(rest, "?") {
		sb.WriteString("(?")
		return i + 2
	}
	*unnamed++
	*groups = append(*groups, groupRef{num: *unnamed})
	sb.WriteByte('(')
	return i + 1
}

func groupName(s string, end byte) (string, bool) {
	j := strings.IndexByte(s, end)
	if j <= 0 {
		return "", false
	}
	return s[:j], true
}

// lazySuffix flips greediness under the U modifier: a bare quantifier
// becomes lazy and an explicitly lazy one becomes greedy.
func lazySuffix(sb *strings.Builder, src string, i int, ungreedy bool) int {
	if !ungreedy {
		return i
	}
	if i < len(src) && src[i] == '?' {
		return i + 1
	}
	sb.WriteByte('?')
	return i
}

// boundedQuantifier matches {n}, {n,} and {n,m} starting at src[i].
func boundedQuantifier(src string, i int) (int, bool) {
	j := i + 1
	digits := 0
	for j < len(src) && isDigit(src[j]) {
		j++
		digits++
	}
	if digits == 0 || j >= len(src) {
		return 0, false
	}
	if src[j] == ',' {
		j++
		for j < len(src) && isDigit(src[j]) {
			j++
		}
	}
	if j < len(src) && src[j] == '}' {
		return j + 1, true
	}
	return 0, false
}

var posixClasses = map[string]string{
	"alpha":  `a-zA-Z`,
	"digit":  `0-9`,
	"alnum":  `a-zA-Z0-9`,
	"upper":  `A-Z`,
	"lower":  `a-z`,
	"space":  `\s`,
	"blank":  ` \t`,
	"xdigit": `0-9A-Fa-f`,
	"word":   `\w`,
	"punct":  `!-/:-@\[-` + "`" + `{-~`,
	"cntrl":  `\x00-\x1f\x7f`,
	"print":  `\x20-\x7e`,
	"graph":  `\x21-\x7e`,
}

// copyClass copies a bracket expression, expanding POSIX named classes
// the engine does not know.
func copyClass(sb *strings.Builder, src string, i int) int {
	sb.WriteByte('[')
	j := i + 1
	if j < len(src) && src[j] == '^' {
		sb.WriteByte('^')
		j++
	}
	if j < len(src) && src[j] == ']' {
		sb.WriteString(`\]`)
		j++
	}
	for j < len(src) {
		c := src[j]
		switch {
		case c == '\\':
			n := min(2, len(src)-j)
			sb.WriteString(src[j : j+n])
			j += n
		case c == '[' && strings.HasPrefix(src[j+1:], ":"):
			end := strings.Index(src[j+2:], ":]")
			if end < 0 {
				sb.WriteString(`\[`)
				j++
				continue
			}
			if expansion, ok := posixClasses[src[j+2:j+2+end]]; ok {
				sb.WriteString(expansion)
			} else {
				sb.WriteString(src[j : j+2+end+2])
			}
			j += 2 + end + 2
		case c == ']':
			sb.WriteByte(']')
			return j + 1
		default:
			sb.WriteByte(c)
			j++
		}
	}
	return j
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlnum(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
