package parser

import (
	"slices"
	"strings"

	"github.com/bawdo/sqlpage/token"
)

// StatementInfo is the parsed form of one statement. It is immutable;
// accessors return copies.
type StatementInfo struct {
	tokens        []token.Token
	params        []int // token positions of placeholders, in paramIndex order
	fragments     []token.Fragment
	selects       []token.Select
	root          int
	isUnion       bool
	containsLimit bool
	lockPos       int
	rule          ParseRule
}

// Len returns the number of tokens.
func (s *StatementInfo) Len() int { return len(s.tokens) }

// Token returns the token at position pos.
func (s *StatementInfo) Token(pos int) token.Token { return s.tokens[pos] }

// Tokens returns every token in source order.
func (s *StatementInfo) Tokens() []token.Token { return slices.Clone(s.tokens) }

// Params returns the placeholder tokens in paramIndex order.
func (s *StatementInfo) Params() []token.Token {
	out := make([]token.Token, len(s.params))
	for i, pos := range s.params {
		out[i] = s.tokens[pos]
	}
	return out
}

// ParamCount returns the number of placeholders.
func (s *StatementInfo) ParamCount() int { return len(s.params) }

// Fragments returns every fragment in opening order.
func (s *StatementInfo) Fragments() []token.Fragment { return slices.Clone(s.fragments) }

// Fragment returns the fragment at index i.
func (s *StatementInfo) Fragment(i int) token.Fragment { return s.fragments[i] }

// Selects returns one entry per SELECT keyword, in source order.
func (s *StatementInfo) Selects() []token.Select { return slices.Clone(s.selects) }

// Root returns the outermost select: the first SELECT outside any
// parenthesis.
func (s *StatementInfo) Root() (token.Select, bool) {
	if s.root == token.None {
		return token.Select{}, false
	}
	return s.selects[s.root], true
}

// IsUnion reports whether the statement combines selects with a set
// operation.
func (s *StatementInfo) IsUnion() bool { return s.isUnion }

// ContainsLimit reports whether the statement has a LIMIT of its own.
func (s *StatementInfo) ContainsLimit() bool { return s.containsLimit }

// LockPos returns the position of a top-level FOR locking clause, or None.
func (s *StatementInfo) LockPos() int { return s.lockPos }

// Rule returns the rule the statement was parsed with.
func (s *StatementInfo) Rule() ParseRule { return s.rule }

// RootItems returns the position range [lo, hi] of the outermost select's
// column list, excluding the SELECT keyword itself.
func (s *StatementInfo) RootItems() (lo, hi int, ok bool) {
	sel, ok := s.Root()
	if !ok {
		return 0, 0, false
	}
	f := s.fragments[sel.Fragment]
	lo, hi = f.Begin+1, f.End
	if sel.From != token.None {
		hi = s.fragments[sel.From].Begin - 1
	}
	return lo, hi, lo <= hi
}

// FullText renders every token.
func (s *StatementInfo) FullText() string {
	return s.Render(nil, nil)
}

// CleanText renders the tokens not marked for elision.
func (s *StatementInfo) CleanText() string {
	return s.Render(func(t token.Token) bool { return !t.Elide }, nil)
}

// Render joins the tokens accepted by keep (all when nil), spelling each as
// text returns (its Value when nil). No space is written before "(", ")" or
// "," nor after "(".
func (s *StatementInfo) Render(keep func(token.Token) bool, text func(token.Token) string) string {
	var b strings.Builder
	prev := token.Kind(-1)
	for _, t := range s.tokens {
		if keep != nil && !keep(t) {
			continue
		}
		if prev != -1 && prev != token.LPAREN && t.Kind != token.LPAREN && t.Kind != token.RPAREN && t.Kind != token.COMMA {
			b.WriteByte(' ')
		}
		if text != nil {
			b.WriteString(text(t))
		} else {
			b.WriteString(t.Value)
		}
		prev = t.Kind
	}
	return b.String()
}
