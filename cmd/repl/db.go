package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/bawdo/sqlpage/paging"
)

var driverName = map[string]string{
	"postgres": "pgx",
	"mysql":    "mysql",
	"sqlite":   "sqlite",
}

// maxRawRows caps the rows fetched for a statement run without paging.
const maxRawRows = 1000

const passwordMask = "****"

type dbConn struct {
	db     *sql.DB
	dsn    string
	engine string
	tables []string // loaded by loadSchema, used for completion
}

func connect(engine, dsn string) (*dbConn, error) {
	driver, ok := driverName[engine]
	if !ok {
		return nil, fmt.Errorf("no driver for engine %q", engine)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	if engine == "sqlite" {
		// Each connection to an in-memory database opens a fresh one.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	conn := &dbConn{db: db, dsn: dsn, engine: engine}
	if err := conn.loadSchema(); err != nil {
		fmt.Fprintf(os.Stderr, "  Note: listing tables failed: %v\n", err)
	}
	return conn, nil
}

func (c *dbConn) close() error {
	return c.db.Close()
}

// run is one statement executed against the connection.
type run struct {
	sql       string
	result    resultSet
	page      paging.Page
	paged     bool // false when run with 'raw'
	requested int  // offset asked for, before overflow correction
}

// page runs text through the pager. A statement the pager could not rewrite
// runs unmodified, so rows are capped as for raw.
func (c *dbConn) page(ctx context.Context, p *paging.Pager, text string, args []any, req paging.Request) (run, error) {
	rows, page, err := p.Query(ctx, c.db, text, args, req)
	if err != nil {
		return run{}, err
	}
	defer func() { _ = rows.Close() }()
	result, err := readRows(rows, max(req.Limit, maxRawRows))
	if err != nil {
		return run{}, err
	}
	return run{sql: page.SQL, result: result, page: page, paged: true, requested: req.Offset}, nil
}

// raw runs text as typed.
func (c *dbConn) raw(ctx context.Context, text string, args []any) (run, error) {
	rows, err := c.db.QueryContext(ctx, text, args...)
	if err != nil {
		return run{}, fmt.Errorf("query: %w", err)
	}
	defer func() { _ = rows.Close() }()
	result, err := readRows(rows, maxRawRows)
	if err != nil {
		return run{}, err
	}
	return run{sql: text, result: result, page: paging.Page{SQL: text}}, nil
}

// String renders the statement, the rows and the page footer.
func (r run) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "  %s;\n", r.sql)
	b.WriteString(formatTable(r.result.columns, r.result.rows))
	if r.result.truncated {
		fmt.Fprintf(&b, "(truncated at %d rows)\n", len(r.result.rows))
	}
	fmt.Fprintf(&b, "  %s\n", pageFooter(r))
	return b.String()
}

func pageFooter(r run) string {
	page := r.page
	switch {
	case !r.paged:
		return "Ran unpaged"
	case !page.Rewritten:
		return "Statement could not be paged; ran unmodified"
	case !page.Appended:
		return fmt.Sprintf("Page: statement has its own LIMIT, offset %d, limit %d", page.Offset, page.Limit)
	case page.HasTotal && page.Overflowed:
		return fmt.Sprintf("Page: offset %d, limit %d of %d rows (offset %d is past the end)", page.Offset, page.Limit, page.Total, r.requested)
	case page.HasTotal:
		return fmt.Sprintf("Page: offset %d, limit %d of %d rows%s", page.Offset, page.Limit, page.Total, pageNumber(page))
	default:
		return fmt.Sprintf("Page: offset %d, limit %d", page.Offset, page.Limit)
	}
}

// pageNumber describes where page sits among the pages of its total.
func pageNumber(page paging.Page) string {
	if page.Limit <= 0 || page.Total <= 0 {
		return ""
	}
	pages := (page.Total + int64(page.Limit) - 1) / int64(page.Limit)
	return fmt.Sprintf(", page %d of %d", int64(page.Offset)/int64(page.Limit)+1, pages)
}

// resultSet is the text form of fetched rows.
type resultSet struct {
	columns   []string
	rows      [][]string
	truncated bool
}

// readRows fetches at most limit rows, rendering NULL for null values.
func readRows(rows *sql.Rows, limit int) (resultSet, error) {
	columns, err := rows.Columns()
	if err != nil {
		return resultSet{}, fmt.Errorf("columns: %w", err)
	}
	r := resultSet{columns: columns}
	for rows.Next() {
		if len(r.rows) >= limit {
			r.truncated = true
			break
		}
		vals := make([]sql.NullString, len(columns))
		ptrs := make([]any, len(columns))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return resultSet{}, fmt.Errorf("scan: %w", err)
		}
		row := make([]string, len(columns))
		for i, v := range vals {
			if v.Valid {
				row[i] = v.String
			} else {
				row[i] = "NULL"
			}
		}
		r.rows = append(r.rows, row)
	}
	if err := rows.Err(); err != nil {
		return resultSet{}, fmt.Errorf("rows: %w", err)
	}
	return r, nil
}

func formatTable(columns []string, rows [][]string) string {
	if len(columns) == 0 {
		return "(0 rows)\n"
	}

	widths := make([]int, len(columns))
	for i, c := range columns {
		widths[i] = len(c)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], len(cell))
		}
	}

	var b strings.Builder
	sep := separator(widths)
	line := func(cells []string) {
		b.WriteByte('|')
		for i, cell := range cells {
			fmt.Fprintf(&b, " %-*s |", widths[i], cell)
		}
		b.WriteByte('\n')
	}

	b.WriteString(sep)
	line(columns)
	b.WriteString(sep)
	for _, row := range rows {
		line(row)
	}
	b.WriteString(sep)

	if len(rows) == 1 {
		b.WriteString("(1 row)\n")
	} else {
		fmt.Fprintf(&b, "(%d rows)\n", len(rows))
	}
	return b.String()
}

func separator(widths []int) string {
	var b strings.Builder
	b.WriteByte('+')
	for _, w := range widths {
		b.WriteString(strings.Repeat("-", w+2))
		b.WriteByte('+')
	}
	b.WriteByte('\n')
	return b.String()
}

var tablesQuery = map[string]string{
	"postgres": "SELECT table_name FROM information_schema.tables WHERE table_schema = 'public' ORDER BY table_name",
	"mysql":    "SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() ORDER BY table_name",
	"sqlite":   "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name",
}

func (c *dbConn) loadSchema() error {
	query, ok := tablesQuery[c.engine]
	if !ok {
		return fmt.Errorf("unsupported engine: %s", c.engine)
	}
	rows, err := c.db.Query(query)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()
	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	c.tables = tables
	return nil
}

// inferEngine guesses the engine a DSN was written for. Anything that is
// neither a postgres URL or keyword string nor a mysql DSN is a sqlite path.
func inferEngine(dsn string) string {
	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") ||
		strings.Contains(lower, "host=") || strings.Contains(lower, "dbname=") {
		return "postgres"
	}
	if strings.Contains(dsn, "@") {
		if _, err := mysql.ParseDSN(dsn); err == nil {
			return "mysql"
		}
	}
	return "sqlite"
}

// sanitizeDSN masks the password of a DSN written for engine. sqlite DSNs
// carry none.
func sanitizeDSN(engine, dsn string) string {
	switch engine {
	case "mysql":
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil || cfg.Passwd == "" {
			return dsn
		}
		cfg.Passwd = passwordMask
		return cfg.FormatDSN()
	case "postgres":
		if u, err := url.Parse(dsn); err == nil && u.Scheme != "" {
			return u.Redacted()
		}
		fields := strings.Fields(dsn)
		for i, f := range fields {
			if k, _, ok := strings.Cut(f, "="); ok && strings.EqualFold(k, "password") {
				fields[i] = k + "=" + passwordMask
			}
		}
		return strings.Join(fields, " ")
	}
	return dsn
}
