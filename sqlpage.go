// Package sqlpage parses SQL text into fragment-annotated statements and
// rewrites them into page and row-count queries.
//
// This package re-exports commonly used types and functions from subpackages
// for convenience. Advanced users can import subpackages directly:
//   - github.com/bawdo/sqlpage/lexer (tokenizer)
//   - github.com/bawdo/sqlpage/token (token and fragment model)
//   - github.com/bawdo/sqlpage/parser (fragment parser)
//   - github.com/bawdo/sqlpage/paging (page and count synthesis, Pager)
package sqlpage

import (
	"github.com/bawdo/sqlpage/paging"
	"github.com/bawdo/sqlpage/parser"
)

// --- Parsing ---

// ParseRule selects which fragments are elided from the clean text.
type ParseRule = parser.ParseRule

// StatementInfo is the parsed form of one statement.
type StatementInfo = parser.StatementInfo

// DefaultRule returns a rule that elides ORDER BY, LIMIT, OFFSET and the
// root select items.
func DefaultRule() ParseRule {
	return parser.DefaultRule()
}

// Parse splits text into statements and parses each one.
func Parse(text string, rule ParseRule) ([]*StatementInfo, error) {
	return parser.Parse(text, rule)
}

// --- Paging ---

// Query is a synthesized SQL text with its arguments.
type Query = paging.Query

// Pager runs statements one page at a time.
type Pager = paging.Pager

// Request asks for a page of rows.
type Request = paging.Request

// Page describes how a request was executed.
type Page = paging.Page

// NewPager creates a Pager.
func NewPager(opts ...paging.Option) *Pager {
	return paging.NewPager(opts...)
}

// BuildPage returns the statement restricted to limit rows from offset.
func BuildPage(info *StatementInfo, args []any, limit, offset int) (Query, error) {
	return paging.BuildPage(info, args, limit, offset)
}

// BuildCount returns a query counting the statement's rows. ok is false when
// no count query can be derived.
func BuildCount(info *StatementInfo, args []any) (q Query, ok bool, err error) {
	return paging.BuildCount(info, args)
}

// OverflowToLast clamps an offset past the end to the start of the last page.
func OverflowToLast(totalRows int64, pageSize, requestedOffset int) int {
	return paging.OverflowToLast(totalRows, pageSize, requestedOffset)
}

// --- Placeholder formats ---

// Question renders every placeholder as "?".
func Question(n int) string { return paging.Question(n) }

// Dollar renders placeholder n as "$n".
func Dollar(n int) string { return paging.Dollar(n) }
