// Package parser classifies the tokens of SELECT statements into fragments
// (select items, FROM, WHERE, GROUP BY, HAVING, ORDER BY, LIMIT, OFFSET,
// UNION) without a SQL grammar, tracking nesting across parenthesized
// subqueries, and assembles one StatementInfo per ";"-separated statement.
//
// A Parser holds configuration only. Every Parse call works on fresh state,
// so one Parser may be shared by concurrent goroutines.
package parser

import (
	"github.com/bawdo/sqlpage/lexer"
)

// DefaultMaxDepth is the parenthesis nesting limit used unless WithMaxDepth
// overrides it.
const DefaultMaxDepth = 256

// Option configures a Parser.
type Option func(*Parser)

// WithRule sets the elision rule.
func WithRule(r ParseRule) Option {
	return func(p *Parser) { p.rule = r }
}

// WithMaxDepth caps parenthesis nesting. Values below 1 are ignored.
func WithMaxDepth(n int) Option {
	return func(p *Parser) {
		if n > 0 {
			p.maxDepth = n
		}
	}
}

// Parser turns statement text into StatementInfo records.
type Parser struct {
	rule     ParseRule
	maxDepth int
}

// New creates a Parser. Without options it uses DefaultRule and
// DefaultMaxDepth.
func New(opts ...Option) *Parser {
	p := &Parser{rule: DefaultRule(), maxDepth: DefaultMaxDepth}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Rule returns the parser's elision rule.
func (p *Parser) Rule() ParseRule {
	return p.rule
}

// Parse tokenizes text and returns one StatementInfo per non-empty
// statement. A malformed statement aborts the whole batch.
func (p *Parser) Parse(text string) ([]*StatementInfo, error) {
	s := newParseState(p.rule, p.maxDepth)
	l := lexer.New(text)
	for {
		raw, ok := l.Next()
		if !ok {
			break
		}
		if err := s.feed(raw); err != nil {
			return nil, err
		}
	}
	if err := s.endStatement(); err != nil {
		return nil, err
	}
	return s.done, nil
}

// Parse parses text with rule and the default nesting limit.
func Parse(text string, rule ParseRule) ([]*StatementInfo, error) {
	return New(WithRule(rule)).Parse(text)
}
