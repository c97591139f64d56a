package paging_test

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/bawdo/sqlpage/paging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// openBooks returns an in-memory database with books 1..95.
func openBooks(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// Each connection of an in-memory database is a separate database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec("CREATE TABLE book (id INTEGER PRIMARY KEY, title TEXT NOT NULL)")
	require.NoError(t, err)
	for i := 1; i <= 95; i++ {
		_, err = db.Exec("INSERT INTO book (id, title) VALUES (?, ?)", i, fmt.Sprintf("Book %d", i))
		require.NoError(t, err)
	}
	return db
}

func scanIDs(t *testing.T, rows *sql.Rows) []int64 {
	t.Helper()
	defer func() { _ = rows.Close() }()
	var ids []int64
	for rows.Next() {
		var id int64
		var title string
		cols, err := rows.Columns()
		require.NoError(t, err)
		if len(cols) == 2 {
			require.NoError(t, rows.Scan(&id, &title))
		} else {
			require.NoError(t, rows.Scan(&id))
		}
		ids = append(ids, id)
	}
	require.NoError(t, rows.Err())
	return ids
}

func span(from, to int64) []int64 {
	var out []int64
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

func TestPagerQuery(t *testing.T) {
	db := openBooks(t)
	p := paging.NewPager()

	rows, page, err := p.Query(context.Background(), db, "select id, title from book order by id", nil, paging.Request{Limit: 20, Offset: 40})
	require.NoError(t, err)
	assert.Equal(t, span(41, 60), scanIDs(t, rows))
	assert.True(t, page.Rewritten)
	assert.True(t, page.Appended)
	assert.True(t, page.HasTotal)
	assert.Equal(t, int64(95), page.Total)
	assert.Equal(t, 40, page.Offset)
	assert.False(t, page.Overflowed)
	assert.Equal(t, "select COUNT(*) from book", page.CountSQL)
	assert.Equal(t, "select id, title from book order by id LIMIT ? OFFSET ?", page.SQL)
}

func TestPagerOverflowToLast(t *testing.T) {
	db := openBooks(t)
	var logs bytes.Buffer
	p := paging.NewPager(paging.WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

	rows, page, err := p.Query(context.Background(), db, "select id from book order by id", nil, paging.Request{Limit: 20, Offset: 100})
	require.NoError(t, err)
	assert.Equal(t, span(81, 95), scanIDs(t, rows))
	assert.True(t, page.Overflowed)
	assert.Equal(t, 80, page.Offset)
	assert.Contains(t, logs.String(), "page offset past end")

	p = paging.NewPager(paging.WithOverflowToLast(false))
	rows, page, err = p.Query(context.Background(), db, "select id from book order by id", nil, paging.Request{Limit: 20, Offset: 100})
	require.NoError(t, err)
	assert.Empty(t, scanIDs(t, rows))
	assert.False(t, page.Overflowed)
	assert.Equal(t, 100, page.Offset)
}

func TestPagerBindsStatementParams(t *testing.T) {
	db := openBooks(t)
	p := paging.NewPager()

	rows, page, err := p.Query(context.Background(), db, "select id from book where id > ? order by id", []any{90}, paging.Request{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []int64{91, 92}, scanIDs(t, rows))
	assert.Equal(t, int64(5), page.Total)
}

func TestPagerUnion(t *testing.T) {
	db := openBooks(t)
	p := paging.NewPager()

	rows, page, err := p.Query(context.Background(), db,
		"select id from book where id <= ? union select id from book where id > ? order by id",
		[]any{10, 90}, paging.Request{Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, scanIDs(t, rows))
	assert.Equal(t, int64(15), page.Total)
}

func TestPagerExistingLimit(t *testing.T) {
	db := openBooks(t)
	p := paging.NewPager()

	rows, page, err := p.Query(context.Background(), db, "select id from book order by id limit 3", nil, paging.Request{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, scanIDs(t, rows))
	assert.True(t, page.Rewritten)
	assert.False(t, page.Appended)
	assert.False(t, page.HasTotal)
}

func TestPagerWithoutCount(t *testing.T) {
	db := openBooks(t)
	p := paging.NewPager(paging.WithCount(false), paging.WithCache(nil))

	rows, page, err := p.Query(context.Background(), db, "select id from book order by id", nil, paging.Request{Limit: 5, Offset: 200})
	require.NoError(t, err)
	assert.Empty(t, scanIDs(t, rows))
	assert.False(t, page.HasTotal)
	assert.Empty(t, page.CountSQL)
}

// A quoted ")" splits into an unmatched parenthesis token, so the statement
// cannot be rewritten and runs as given.
func TestPagerFallsBackToUnmodifiedStatement(t *testing.T) {
	db := openBooks(t)
	var logs bytes.Buffer
	p := paging.NewPager(paging.WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

	sqlText := "select id from book where title <> ')' order by id"
	rows, page, err := p.Query(context.Background(), db, sqlText, nil, paging.Request{Limit: 5})
	require.NoError(t, err)
	assert.Len(t, scanIDs(t, rows), 95)
	assert.False(t, page.Rewritten)
	assert.Equal(t, sqlText, page.SQL)
	assert.Contains(t, logs.String(), "falling back to unmodified execution")
	assert.Contains(t, logs.String(), `statement="select id from book where title <> ')' order by id"`)
}

func TestPagerErrors(t *testing.T) {
	db := openBooks(t)
	p := paging.NewPager()

	_, _, err := p.Query(context.Background(), db, "select id from book where id > ?", nil, paging.Request{Limit: 5})
	assert.True(t, errors.Is(err, paging.ErrParamCount))

	_, _, err = p.Query(context.Background(), db, "select id from book", nil, paging.Request{Limit: 0})
	assert.True(t, errors.Is(err, paging.ErrInvalidPage))

	_, err = p.Prepare("select 1; select 2")
	assert.True(t, errors.Is(err, paging.ErrNotSingleStatement))
}

func TestPagerDollarPlaceholders(t *testing.T) {
	p := paging.NewPager(paging.WithPlaceholder(paging.Dollar))
	info, err := p.Prepare("select id from book where id > ?")
	require.NoError(t, err)
	q, err := p.Builder().Page(info, []any{1}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, "select id from book where id > $1 LIMIT $2 OFFSET $3", q.SQL)
}
