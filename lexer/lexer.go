// Package lexer splits statement text into raw tokens without understanding
// SQL grammar.
//
// A token is a maximal run of characters that are neither whitespace nor
// one of the punctuation characters , ( ) ; ?. Each punctuation character is
// a token of its own. Quoted literals are not special: a literal containing
// punctuation from the fixed set is split at that character.
package lexer

import "strings"

// Tokenize returns the raw tokens of text in source order. It never fails.
func Tokenize(text string) []string {
	l := New(text)
	var out []string
	for {
		tok, ok := l.Next()
		if !ok {
			return out
		}
		out = append(out, tok)
	}
}

// Lexer yields raw tokens one at a time.
type Lexer struct {
	src     string
	i       int
	pending string // punctuation emitted after a flushed run
}

// New creates a Lexer over text.
func New(text string) *Lexer {
	return &Lexer{src: text}
}

// Next returns the next raw token, or false at end of input.
func (l *Lexer) Next() (string, bool) {
	if l.pending != "" {
		tok := l.pending
		l.pending = ""
		return tok, true
	}
	start := -1
	for l.i < len(l.src) {
		c := l.src[l.i]
		switch {
		case isSpace(c):
			l.i++
			if start >= 0 {
				return l.src[start : l.i-1], true
			}
		case isPunct(c):
			l.i++
			p := l.src[l.i-1 : l.i]
			if start >= 0 {
				l.pending = p
				return l.src[start : l.i-1], true
			}
			return p, true
		default:
			if start < 0 {
				start = l.i
			}
			l.i++
		}
	}
	if start >= 0 {
		return l.src[start:], true
	}
	return "", false
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isPunct(c byte) bool {
	return strings.IndexByte(",();?", c) >= 0
}
