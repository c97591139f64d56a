// Package paging rewrites parsed statements into page queries and row-count
// queries, and runs them against a database/sql connection.
package paging

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bawdo/sqlpage/parser"
	"github.com/bawdo/sqlpage/token"
)

var (
	// ErrParamCount indicates the caller supplied a different number of
	// values than the statement has placeholders.
	ErrParamCount = errors.New("parameter count mismatch")

	// ErrNotSelect indicates a statement with no SELECT to page.
	ErrNotSelect = errors.New("statement has no select")

	// ErrNotSingleStatement indicates text that holds zero or several
	// statements where exactly one is required.
	ErrNotSingleStatement = errors.New("expected exactly one statement")

	// ErrInvalidPage indicates a non-positive limit or a negative offset.
	ErrInvalidPage = errors.New("invalid page")
)

// countAlias names the derived table of a wrapped count query.
const countAlias = "sqlpage_count"

// FormatParamFunc spells the n-th (1-based) placeholder of a rewritten
// statement.
type FormatParamFunc = func(n int) string

// Question spells every placeholder as "?" (MySQL, SQLite).
func Question(int) string { return "?" }

// Dollar spells placeholders as "$1", "$2", ... (PostgreSQL).
func Dollar(n int) string { return "$" + strconv.Itoa(n) }

// Query is SQL text with its positional arguments.
type Query struct {
	SQL  string
	Args []any
}

// Builder renders page and count queries with one placeholder format.
type Builder struct {
	format FormatParamFunc
}

// NewBuilder returns a Builder using format, or Question when nil.
func NewBuilder(format FormatParamFunc) *Builder {
	if format == nil {
		format = Question
	}
	return &Builder{format: format}
}

var defaultBuilder = NewBuilder(Question)

// BuildPage renders the page query of info with "?" placeholders.
func BuildPage(info *parser.StatementInfo, args []any, limit, offset int) (Query, error) {
	return defaultBuilder.Page(info, args, limit, offset)
}

// BuildCount renders the count query of info with "?" placeholders.
func BuildCount(info *parser.StatementInfo, args []any) (Query, bool, error) {
	return defaultBuilder.Count(info, args)
}

// Page renders info in full with "LIMIT ? OFFSET ?" appended, unless the
// statement already has a LIMIT. Args are the statement's values followed
// by limit and offset when the clause is appended. A top-level locking
// clause stays last.
func (b *Builder) Page(info *parser.StatementInfo, args []any, limit, offset int) (Query, error) {
	if limit <= 0 || offset < 0 {
		return Query{}, fmt.Errorf("%w: limit %d offset %d", ErrInvalidPage, limit, offset)
	}
	if err := checkArgs(info, args); err != nil {
		return Query{}, err
	}
	if len(info.Selects()) == 0 {
		return Query{}, ErrNotSelect
	}

	n := info.ParamCount()
	if info.ContainsLimit() {
		return Query{SQL: info.Render(nil, b.spell()), Args: append([]any(nil), args...)}, nil
	}

	clause := "LIMIT " + b.format(n+1) + " OFFSET " + b.format(n+2)
	spell := b.spell()
	text := spell
	lock := info.LockPos()
	if lock != token.None {
		text = func(t token.Token) string {
			if t.Pos == lock {
				return clause + " " + spell(t)
			}
			return spell(t)
		}
	}
	sqlText := info.Render(nil, text)
	if lock == token.None {
		sqlText += " " + clause
	}

	out := make([]any, 0, n+2)
	out = append(out, args...)
	out = append(out, limit, offset)
	return Query{SQL: sqlText, Args: out}, nil
}

// Count renders a row-count query for info. It reports false when no safe
// count exists: the statement has its own LIMIT, or its rule keeps the root
// select items. Projections whose row count differs from COUNT(*) of the
// clean text (set operations, GROUP BY, HAVING, DISTINCT, aggregates) are
// wrapped in a derived table instead. An outermost ORDER BY is always
// dropped, whatever the rule.
func (b *Builder) Count(info *parser.StatementInfo, args []any) (Query, bool, error) {
	if err := checkArgs(info, args); err != nil {
		return Query{}, false, err
	}
	if info.ContainsLimit() || !info.Rule().ElideRootSelectItems || len(info.Selects()) == 0 {
		return Query{}, false, nil
	}

	root, hasRoot := info.Root()
	inOrder := orderSpans(info)
	var keep func(token.Token) bool
	var text func(token.Token) string
	wrap := needsWrap(info, root, hasRoot)
	if wrap {
		lo, hi, items := info.RootItems()
		keep = func(t token.Token) bool {
			if inOrder(t.Pos) {
				return false
			}
			return !t.Elide || (items && t.Pos >= lo && t.Pos <= hi)
		}
	} else {
		begin := info.Fragment(root.Fragment).Begin
		keep = func(t token.Token) bool { return !t.Elide && !inOrder(t.Pos) }
		text = func(t token.Token) string {
			if t.Pos == begin {
				return t.Value + " COUNT(*)"
			}
			return t.Value
		}
	}

	var out []any
	n := 0
	spelled := func(t token.Token) string {
		if t.IsParam() {
			n++
			out = append(out, args[t.Param])
			return b.format(n)
		}
		if text != nil {
			return text(t)
		}
		return t.Value
	}
	sqlText := info.Render(keep, spelled)
	if wrap {
		sqlText = "SELECT COUNT(*) FROM (" + sqlText + ") " + countAlias
	}
	return Query{SQL: sqlText, Args: out}, true, nil
}

func needsWrap(info *parser.StatementInfo, root token.Select, ok bool) bool {
	if !ok || info.IsUnion() {
		return true
	}
	if root.GroupBy != token.None || root.Having != token.None {
		return true
	}
	lo, hi, items := info.RootItems()
	if !items {
		return false
	}
	if info.Token(lo).Kind == token.DISTINCT {
		return true
	}
	for pos := lo; pos < hi; pos++ {
		t := info.Token(pos)
		if t.Kind == token.IDENT && t.Fragment == root.Fragment &&
			aggregates[strings.ToUpper(t.Value)] && info.Token(pos+1).Kind == token.LPAREN {
			return true
		}
	}
	return false
}

// aggregates collapse the rows of an ungrouped select into one.
var aggregates = map[string]bool{
	"COUNT": true, "SUM": true, "AVG": true, "MIN": true, "MAX": true,
	"ARRAY_AGG": true, "STRING_AGG": true, "GROUP_CONCAT": true, "JSON_AGG": true,
	"JSON_ARRAYAGG": true, "BOOL_AND": true, "BOOL_OR": true, "EVERY": true,
	"STDDEV": true, "VARIANCE": true, "TOTAL": true,
}

// orderSpans reports whether a position falls in an ORDER BY at depth 0.
func orderSpans(info *parser.StatementInfo) func(pos int) bool {
	type span struct{ lo, hi int }
	var spans []span
	for _, f := range info.Fragments() {
		if f.Kind != token.FragmentOrderBy || f.Depth != 0 {
			continue
		}
		hi := f.End
		if hi == token.None {
			hi = info.Len() - 1
		}
		spans = append(spans, span{f.Begin, hi})
	}
	return func(pos int) bool {
		for _, sp := range spans {
			if pos >= sp.lo && pos <= sp.hi {
				return true
			}
		}
		return false
	}
}

// spell substitutes placeholders with the builder's format.
func (b *Builder) spell() func(token.Token) string {
	return func(t token.Token) string {
		if t.IsParam() {
			return b.format(t.Param + 1)
		}
		return t.Value
	}
}

func checkArgs(info *parser.StatementInfo, args []any) error {
	if len(args) != info.ParamCount() {
		return fmt.Errorf("%w: statement has %d placeholders, got %d values", ErrParamCount, info.ParamCount(), len(args))
	}
	return nil
}

// OverflowToLast clamps an offset past the end of the result to the start of
// the last page. Other offsets are returned unchanged.
func OverflowToLast(totalRows int64, pageSize, requestedOffset int) int {
	if pageSize <= 0 || totalRows <= 0 || int64(requestedOffset) < totalRows {
		return requestedOffset
	}
	return int((totalRows-1)/int64(pageSize)) * pageSize
}
