package paging

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bawdo/sqlpage/internal/logging"
	"github.com/bawdo/sqlpage/parser"
)

// Querier is the part of *sql.DB, *sql.Conn and *sql.Tx the pager needs.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Request asks for Limit rows starting at Offset.
type Request struct {
	Limit  int
	Offset int
}

// Page describes how a request was executed.
type Page struct {
	Limit      int
	Offset     int    // offset actually used
	Total      int64  // row count, when HasTotal
	HasTotal   bool   // a count query ran
	Overflowed bool   // Offset was clamped to the last page
	Rewritten  bool   // false when the statement ran unmodified
	Appended   bool   // LIMIT/OFFSET were appended to the statement
	SQL        string // page query as executed
	CountSQL   string
}

// Option configures a Pager.
type Option func(*Pager)

// WithRule sets the parse rule.
func WithRule(r parser.ParseRule) Option {
	return func(p *Pager) { p.rule = r }
}

// WithMaxDepth sets the parser's parenthesis nesting limit.
func WithMaxDepth(n int) Option {
	return func(p *Pager) { p.maxDepth = n }
}

// WithPlaceholder sets the placeholder format of rewritten statements.
func WithPlaceholder(format FormatParamFunc) Option {
	return func(p *Pager) { p.builder = NewBuilder(format) }
}

// WithCache shares a parse cache. Pass nil to disable caching.
func WithCache(c *Cache) Option {
	return func(p *Pager) { p.cache = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pager) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithOverflowToLast toggles clamping offsets past the end to the last page.
func WithOverflowToLast(on bool) Option {
	return func(p *Pager) { p.overflow = on }
}

// WithCount toggles running the count query.
func WithCount(on bool) Option {
	return func(p *Pager) { p.count = on }
}

// Pager runs paged queries: an optional row count, then the page itself.
// It is safe for concurrent use.
type Pager struct {
	rule     parser.ParseRule
	maxDepth int
	parser   *parser.Parser
	builder  *Builder
	cache    *Cache
	logger   *slog.Logger
	overflow bool
	count    bool
}

// NewPager creates a Pager. Defaults: DefaultRule, "?" placeholders, a
// 128-entry cache, counting and overflow correction on, no logging.
func NewPager(opts ...Option) *Pager {
	p := &Pager{
		rule:     parser.DefaultRule(),
		maxDepth: parser.DefaultMaxDepth,
		builder:  defaultBuilder,
		cache:    NewCache(128),
		logger:   slog.New(slog.DiscardHandler),
		overflow: true,
		count:    true,
	}
	for _, o := range opts {
		o(p)
	}
	p.parser = parser.New(parser.WithRule(p.rule), parser.WithMaxDepth(p.maxDepth))
	return p
}

// Builder returns the pager's query builder.
func (p *Pager) Builder() *Builder {
	return p.builder
}

// Prepare parses sqlText, which must hold exactly one statement.
func (p *Pager) Prepare(sqlText string) (*parser.StatementInfo, error) {
	infos, ok := p.cache.Get(sqlText, p.rule, p.maxDepth)
	if !ok {
		var err error
		infos, err = p.parser.Parse(sqlText)
		if err != nil {
			return nil, fmt.Errorf("parse: %w", err)
		}
		p.cache.Put(sqlText, p.rule, p.maxDepth, infos)
	}
	if len(infos) != 1 {
		return nil, fmt.Errorf("%w: got %d", ErrNotSingleStatement, len(infos))
	}
	return infos[0], nil
}

// Query runs the page of sqlText described by req. When the statement
// cannot be rewritten it runs unmodified and Page.Rewritten is false.
func (p *Pager) Query(ctx context.Context, db Querier, sqlText string, args []any, req Request) (*sql.Rows, Page, error) {
	page := Page{Limit: req.Limit, Offset: req.Offset}
	if req.Limit <= 0 || req.Offset < 0 {
		return nil, page, fmt.Errorf("%w: limit %d offset %d", ErrInvalidPage, req.Limit, req.Offset)
	}

	info, err := p.Prepare(sqlText)
	var q Query
	if err == nil {
		q, err = p.builder.Page(info, args, req.Limit, req.Offset)
	}
	if errors.Is(err, ErrParamCount) {
		return nil, page, err
	}
	if err != nil {
		logging.WithStatement(p.logger, sqlText).Warn("failed to rewrite statement for pagination, falling back to unmodified execution", "error", err)
		page.SQL = sqlText
		rows, qerr := db.QueryContext(ctx, sqlText, args...)
		if qerr != nil {
			return nil, page, fmt.Errorf("query: %w", qerr)
		}
		return rows, page, nil
	}
	page.Rewritten = true
	page.Appended = !info.ContainsLimit()

	if p.count && page.Appended {
		if err := p.runCount(ctx, db, info, args, &page); err != nil {
			return nil, page, err
		}
	}
	if p.overflow && page.HasTotal {
		if corrected := OverflowToLast(page.Total, req.Limit, req.Offset); corrected != req.Offset {
			p.logger.Info("page offset past end, using last page",
				"requested", req.Offset, "offset", corrected, "total", page.Total)
			page.Offset = corrected
			page.Overflowed = true
			if q, err = p.builder.Page(info, args, req.Limit, corrected); err != nil {
				return nil, page, err
			}
		}
	}

	page.SQL = q.SQL
	p.logger.Debug("page query", "sql", q.SQL, "args", len(q.Args))
	rows, err := db.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, page, fmt.Errorf("query: %w", err)
	}
	return rows, page, nil
}

func (p *Pager) runCount(ctx context.Context, db Querier, info *parser.StatementInfo, args []any, page *Page) error {
	cq, ok, err := p.builder.Count(info, args)
	if err != nil || !ok {
		return err
	}
	page.CountSQL = cq.SQL
	p.logger.Debug("count query", "sql", cq.SQL, "args", len(cq.Args))
	if err := db.QueryRowContext(ctx, cq.SQL, cq.Args...).Scan(&page.Total); err != nil {
		return fmt.Errorf("count: %w", err)
	}
	page.HasTotal = true
	return nil
}
