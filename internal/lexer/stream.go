package lexer

import "github.com/funvibe/funphp/internal/token"

// TokenStream buffers tokens from a Lexer so the parser can look ahead.
type TokenStream struct {
	lexer  *Lexer
	buffer []token.Token
}

func NewTokenStream(l *Lexer) *TokenStream {
	return &TokenStream{lexer: l}
}

// Next returns the next token, draining the look-ahead buffer first.
func (s *TokenStream) Next() token.Token {
	if len(s.buffer) > 0 {
		tok := s.buffer[0]
		s.buffer = s.buffer[1:]
		return tok
	}
	return s.lexer.NextToken()
}

// Peek returns up to n upcoming tokens without consuming them. The result
// stops after EOF.
func (s *TokenStream) Peek(n int) []token.Token {
	for len(s.buffer) < n {
		if len(s.buffer) > 0 && s.buffer[len(s.buffer)-1].Type == token.EOF {
			break
		}
		s.buffer = append(s.buffer, s.lexer.NextToken())
	}
	if n > len(s.buffer) {
		n = len(s.buffer)
	}
	return s.buffer[:n]
}
