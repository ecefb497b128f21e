package i18n

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

// ErrorMode says what a conversion does with bytes it cannot decode or
// runes the target charset cannot represent.
type ErrorMode int

const (
	// Strict stops the conversion with an error.
	Strict ErrorMode = iota
	// Ignore drops the offending input.
	Ignore
	// Translit writes '?' in its place.
	Translit
)

const replacement = '?'

// Charset is a resolved encoding with the name scripts see.
type Charset struct {
	Name string
	enc  encoding.Encoding
}

// IsUTF8 reports whether c needs no transcoding for Go strings.
func (c *Charset) IsUTF8() bool { return c.enc == unicode.UTF8 || c.Name == "UTF-8" }

// LookupCharset resolves a charset label such as "UTF-8", "latin1" or
// "Windows-1251". IANA names are tried first so ISO-8859-1 stays distinct
// from windows-1252; WHATWG labels cover the remaining aliases.
func LookupCharset(label string) (*Charset, error) {
	label = strings.TrimSpace(label)
	if enc, err := ianaindex.IANA.Encoding(label); err == nil && enc != nil {
		name, err := ianaindex.IANA.Name(enc)
		if err != nil {
			name = label
		}
		return &Charset{Name: strings.ToUpper(name), enc: enc}, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unknown charset %q", label)
	}
	name, err := htmlindex.Name(enc)
	if err != nil {
		name = label
	}
	return &Charset{Name: strings.ToUpper(name), enc: enc}, nil
}

// SplitTarget separates "UTF-8//TRANSLIT//IGNORE" into the charset label
// and its error mode. IGNORE wins when both suffixes are present.
func SplitTarget(target string) (string, ErrorMode) {
	parts := strings.Split(target, "//")
	mode := Strict
	for _, p := range parts[1:] {
		switch strings.ToUpper(p) {
		case "IGNORE":
			mode = Ignore
		case "TRANSLIT":
			if mode != Ignore {
				mode = Translit
			}
		}
	}
	return parts[0], mode
}

// MalformedError reports the byte offset where conversion failed.
type MalformedError struct {
	Charset string
	Offset  int
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("detected an illegal character in input string at offset %d (%s)", e.Offset, e.Charset)
}

// Decode turns s, encoded in c, into runes. Undecodable bytes are
// handled per mode.
func (c *Charset) Decode(s string, mode ErrorMode) ([]rune, error) {
	var runes []rune
	if c.IsUTF8() {
		for i := 0; i < len(s); {
			r, size := utf8.DecodeRuneInString(s[i:])
			if r == utf8.RuneError && size <= 1 {
				if err := c.malformed(&runes, mode, i); err != nil {
					return nil, err
				}
				i++
				continue
			}
			runes = append(runes, r)
			i += size
		}
		return runes, nil
	}

	dec := c.enc.NewDecoder()
	for i := 0; i < len(s); {
		r, size, ok := decodeOne(dec, s[i:])
		if !ok {
			if err := c.malformed(&runes, mode, i); err != nil {
				return nil, err
			}
			i += size
			continue
		}
		runes = append(runes, r)
		i += size
	}
	return runes, nil
}

// decodeOne decodes the shortest prefix of s forming a character. Multi
// byte charsets need up to four bytes per character.
func decodeOne(dec *encoding.Decoder, s string) (rune, int, bool) {
	for n := 1; n <= 4 && n <= len(s); n++ {
		out, err := dec.String(s[:n])
		if err != nil || out == "" {
			continue
		}
		r, _ := utf8.DecodeRuneInString(out)
		if r == utf8.RuneError {
			if n == len(s) || n == 4 {
				return 0, 1, false
			}
			continue
		}
		return r, n, true
	}
	return 0, 1, false
}

func (c *Charset) malformed(runes *[]rune, mode ErrorMode, offset int) error {
	switch mode {
	case Ignore:
		return nil
	case Translit:
		*runes = append(*runes, replacement)
		return nil
	}
	return &MalformedError{Charset: c.Name, Offset: offset}
}

// Encode writes runes in charset c. Runes c cannot represent are handled
// per mode.
func (c *Charset) Encode(runes []rune, mode ErrorMode) (string, error) {
	if c.IsUTF8() {
		return string(runes), nil
	}
	enc := c.enc.NewEncoder()
	var sb strings.Builder
	for i, r := range runes {
		out, err := enc.String(string(r))
		if err == nil {
			sb.WriteString(out)
			continue
		}
		switch mode {
		case Ignore:
		case Translit:
			sb.WriteByte(replacement)
		default:
			return "", &MalformedError{Charset: c.Name, Offset: i}
		}
	}
	return sb.String(), nil
}

// Convert transcodes s from one charset to another.
func Convert(s string, from, to *Charset, mode ErrorMode) (string, error) {
	runes, err := from.Decode(s, mode)
	if err != nil {
		return "", err
	}
	return to.Encode(runes, mode)
}
