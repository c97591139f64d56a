package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/bawdo/sqlpage/internal/config"
	"github.com/bawdo/sqlpage/paging"
	"github.com/bawdo/sqlpage/parser"
	"github.com/bawdo/sqlpage/token"
)

var errNoStatement = errors.New("no statement parsed (use 'parse <sql>' first)")

var engines = []string{"mysql", "postgres", "sqlite"}

func isValidEngine(engine string) bool {
	return slices.Contains(engines, engine)
}

// Session holds the REPL state: the parsed statements, bound values, the
// active rule and engine, and the database connection.
type Session struct {
	cfg      config.Config
	rule     parser.ParseRule
	engine   string
	source   string                  // text given to the last parse command
	infos    []*parser.StatementInfo // nil when the last parse failed
	parseErr error
	current  int   // index into infos
	args     []any // values bound to placeholders
	pager    *paging.Pager
	logger   *slog.Logger
	commands []commandEntry // command registry (sorted by prefix length desc)
	conn     *dbConn        // nil when disconnected
	lastDSN  string         // remembers the previous DSN for reconnect
	out      io.Writer // destination for REPL output (default os.Stdout)
}

// NewSession creates a session for the given engine. A nil logger discards
// pager logs.
func NewSession(engine string, cfg config.Config, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Session{
		cfg:    cfg,
		rule:   cfg.Rule(),
		logger: logger,
		out:    os.Stdout,
	}
	s.setEngine(engine)
	s.initCommands()
	return s
}

func (s *Session) setEngine(engine string) {
	switch engine {
	case "mysql", "sqlite":
		s.engine = engine
	default:
		s.engine = "postgres"
	}
	s.rebuildPager()
}

// rebuildPager recreates the pager after the rule or engine changes.
func (s *Session) rebuildPager() {
	cfg := s.cfg.ForEngine(s.engine)
	opts := append(cfg.PagerOptions(), paging.WithRule(s.rule), paging.WithLogger(s.logger))
	s.pager = paging.NewPager(opts...)
	if s.source != "" {
		s.reparse()
	}
}

// Execute parses and runs a single REPL command.
func (s *Session) Execute(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	lower := strings.ToLower(line)

	for _, cmd := range s.commands {
		if strings.HasSuffix(cmd.prefix, " ") {
			if strings.HasPrefix(lower, cmd.prefix) {
				return cmd.handler(line[len(cmd.prefix):])
			}
		} else {
			if lower == cmd.prefix {
				return cmd.handler("")
			}
		}
	}

	word := strings.Fields(line)[0]
	return fmt.Errorf("unknown command: %s (type 'help' for commands)", word)
}

// statement returns the selected statement.
func (s *Session) statement() (*parser.StatementInfo, error) {
	if s.parseErr != nil {
		return nil, fmt.Errorf("last parse failed: %w", s.parseErr)
	}
	if len(s.infos) == 0 {
		return nil, errNoStatement
	}
	return s.infos[s.current], nil
}

// --- Command handlers ---

func (s *Session) cmdParse(args string) error {
	text := strings.TrimSpace(args)
	if text == "" {
		return errors.New("usage: parse <sql>")
	}
	s.source = text
	s.args = nil
	if err := s.reparse(); err != nil {
		return err
	}
	info := s.infos[0]
	if len(s.infos) == 1 {
		_, _ = fmt.Fprintf(s.out, "  Parsed 1 statement: %d tokens, %d params\n", info.Len(), info.ParamCount())
	} else {
		_, _ = fmt.Fprintf(s.out, "  Parsed %d statements (use 'use <n>' to switch)\n", len(s.infos))
	}
	return nil
}

// reparse parses s.source with the current rule.
func (s *Session) reparse() error {
	s.current = 0
	s.infos = nil
	p := parser.New(parser.WithRule(s.rule), parser.WithMaxDepth(s.cfg.MaxDepth))
	infos, err := p.Parse(s.source)
	if err != nil {
		s.parseErr = err
		return fmt.Errorf("parse: %w", err)
	}
	if len(infos) == 0 {
		s.parseErr = errNoStatement
		return errNoStatement
	}
	s.parseErr = nil
	s.infos = infos
	return nil
}

func (s *Session) cmdUse(args string) error {
	if len(s.infos) == 0 {
		return errNoStatement
	}
	n, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil || n < 1 || n > len(s.infos) {
		return fmt.Errorf("use: statement number must be between 1 and %d", len(s.infos))
	}
	s.current = n - 1
	s.args = nil
	_, _ = fmt.Fprintf(s.out, "  Using statement %d: %s\n", n, s.infos[s.current].FullText())
	return nil
}

func (s *Session) cmdStatements() error {
	if len(s.infos) == 0 {
		return errNoStatement
	}
	for i, info := range s.infos {
		marker := " "
		if i == s.current {
			marker = "*"
		}
		_, _ = fmt.Fprintf(s.out, "  %s %d: %s\n", marker, i+1, info.FullText())
	}
	return nil
}

func (s *Session) cmdTokens() error {
	info, err := s.statement()
	if err != nil {
		return err
	}
	cols := []string{"pos", "value", "fragment", "elide", "param"}
	rows := make([][]string, 0, info.Len())
	for _, tok := range info.Tokens() {
		frag := "-"
		if tok.Fragment != token.None {
			frag = fmt.Sprintf("%d %s", tok.Fragment, info.Fragment(tok.Fragment).Kind)
		}
		param := ""
		if tok.IsParam() {
			param = strconv.Itoa(tok.Param)
		}
		rows = append(rows, []string{strconv.Itoa(tok.Pos), tok.Value, frag, strconv.FormatBool(tok.Elide), param})
	}
	_, _ = fmt.Fprint(s.out, formatTable(cols, rows))
	return nil
}

func (s *Session) cmdFragments() error {
	info, err := s.statement()
	if err != nil {
		return err
	}
	cols := []string{"id", "kind", "begin", "end", "depth", "select"}
	var rows [][]string
	for i, f := range info.Fragments() {
		sel := "-"
		if f.Select != token.None {
			sel = strconv.Itoa(f.Select)
		}
		rows = append(rows, []string{
			strconv.Itoa(i), f.Kind.String(), strconv.Itoa(f.Begin), strconv.Itoa(f.End),
			strconv.Itoa(f.Depth), sel,
		})
	}
	_, _ = fmt.Fprint(s.out, formatTable(cols, rows))
	_, _ = fmt.Fprintf(s.out, "  union: %t  contains limit: %t\n", info.IsUnion(), info.ContainsLimit())
	return nil
}

func (s *Session) cmdFull() error {
	info, err := s.statement()
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(s.out, "  %s\n", info.FullText())
	return nil
}

func (s *Session) cmdClean() error {
	info, err := s.statement()
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(s.out, "  %s\n", info.CleanText())
	return nil
}

// parsePage reads "<limit> [offset]"; an empty string gives the default
// page size at offset zero.
func (s *Session) parsePage(args string) (paging.Request, error) {
	fields := strings.Fields(args)
	req := paging.Request{Limit: s.cfg.DefaultPageSize}
	if len(fields) > 2 {
		return req, errors.New("expected <limit> [offset]")
	}
	if len(fields) > 0 {
		n, err := strconv.Atoi(fields[0])
		if err != nil {
			return req, fmt.Errorf("invalid limit %q", fields[0])
		}
		req.Limit = s.cfg.ClampPageSize(n)
	}
	if len(fields) > 1 {
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 0 {
			return req, fmt.Errorf("invalid offset %q", fields[1])
		}
		req.Offset = n
	}
	return req, nil
}

func (s *Session) cmdPage(args string) error {
	info, err := s.statement()
	if err != nil {
		return err
	}
	req, err := s.parsePage(args)
	if err != nil {
		return fmt.Errorf("page: %w", err)
	}
	q, err := s.pager.Builder().Page(info, s.args, req.Limit, req.Offset)
	if err != nil {
		return fmt.Errorf("page: %w", err)
	}
	s.printQuery(q)
	return nil
}

func (s *Session) cmdCount() error {
	info, err := s.statement()
	if err != nil {
		return err
	}
	q, ok, err := s.pager.Builder().Count(info, s.args)
	if err != nil {
		return fmt.Errorf("count: %w", err)
	}
	if !ok {
		_, _ = fmt.Fprintln(s.out, "  No count query available (statement has its own LIMIT or the rule keeps the select items)")
		return nil
	}
	s.printQuery(q)
	return nil
}

func (s *Session) printQuery(q paging.Query) {
	_, _ = fmt.Fprintf(s.out, "  %s;\n", q.SQL)
	if len(q.Args) > 0 {
		_, _ = fmt.Fprintf(s.out, "  Params: %v\n", q.Args)
	}
}

func (s *Session) cmdBind(args string) error {
	values := parseValues(args)
	if info, err := s.statement(); err == nil && len(values) != info.ParamCount() {
		_, _ = fmt.Fprintf(s.out, "  Warning: statement has %d placeholders, %d values bound\n", info.ParamCount(), len(values))
	}
	s.args = values
	_, _ = fmt.Fprintf(s.out, "  Bound %d values: %v\n", len(values), values)
	return nil
}

func (s *Session) cmdUnbind() error {
	s.args = nil
	_, _ = fmt.Fprintln(s.out, "  Bound values cleared")
	return nil
}

// parseValues splits a comma-separated value list. Quoted values are
// strings, null is nil, and bare numbers are int64 or float64.
func parseValues(args string) []any {
	var values []any
	for _, raw := range strings.Split(args, ",") {
		v := strings.TrimSpace(raw)
		if v == "" {
			continue
		}
		values = append(values, parseValue(v))
	}
	return values
}

func parseValue(v string) any {
	if len(v) >= 2 && (v[0] == '\'' || v[0] == '"') && v[len(v)-1] == v[0] {
		return v[1 : len(v)-1]
	}
	if strings.EqualFold(v, "null") {
		return nil
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return v
}

var ruleNames = []string{"items", "limit", "offset", "order"}

func (s *Session) cmdRule(args string) error {
	parts := strings.Fields(strings.ToLower(args))
	if len(parts) != 2 || (parts[1] != "on" && parts[1] != "off") {
		return errors.New("usage: rule <order|limit|offset|items> <on|off>")
	}
	on := parts[1] == "on"
	switch parts[0] {
	case "order":
		s.rule.ElideOrderBy = on
	case "limit":
		s.rule.ElideLimit = on
	case "offset":
		s.rule.ElideOffset = on
	case "items":
		s.rule.ElideRootSelectItems = on
	default:
		return fmt.Errorf("unknown rule %q (choose: order, limit, offset, items)", parts[0])
	}
	s.rebuildPager()
	_, _ = fmt.Fprintf(s.out, "  Elide %s: %s\n", parts[0], parts[1])
	return nil
}

func (s *Session) cmdRules() {
	onOff := func(b bool) string {
		if b {
			return "on"
		}
		return "off"
	}
	_, _ = fmt.Fprintf(s.out, "    %-8s %s\n", "order", onOff(s.rule.ElideOrderBy))
	_, _ = fmt.Fprintf(s.out, "    %-8s %s\n", "limit", onOff(s.rule.ElideLimit))
	_, _ = fmt.Fprintf(s.out, "    %-8s %s\n", "offset", onOff(s.rule.ElideOffset))
	_, _ = fmt.Fprintf(s.out, "    %-8s %s\n", "items", onOff(s.rule.ElideRootSelectItems))
}

func (s *Session) cmdEngine(args string) error {
	name := strings.TrimSpace(strings.ToLower(args))
	if !isValidEngine(name) {
		return fmt.Errorf("unknown engine %q (choose: postgres, mysql, sqlite)", name)
	}
	s.setEngine(name)
	_, _ = fmt.Fprintf(s.out, "  Engine set to %s\n", s.engine)
	return nil
}

// cmdConnect opens dsn, or reconnects to the previous DSN when none is given.
func (s *Session) cmdConnect(args string) error {
	dsn := strings.TrimSpace(args)
	if s.conn != nil {
		return fmt.Errorf("already connected to %s (use 'disconnect' first)", sanitizeDSN(s.conn.engine, s.conn.dsn))
	}
	if dsn == "" {
		if s.lastDSN == "" {
			return errors.New("usage: connect <dsn>")
		}
		dsn = s.lastDSN
	}
	conn, err := connect(s.engine, dsn)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	s.conn = conn
	s.lastDSN = dsn
	_, _ = fmt.Fprintf(s.out, "  Connected to %s (%s)\n", sanitizeDSN(s.engine, dsn), s.engine)
	return nil
}

func (s *Session) cmdDisconnect() error {
	if s.conn == nil {
		return errors.New("not connected")
	}
	dsn := sanitizeDSN(s.conn.engine, s.conn.dsn)
	if err := s.conn.close(); err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}
	s.conn = nil
	_, _ = fmt.Fprintf(s.out, "  Disconnected from %s\n", dsn)
	return nil
}

// execText returns the text handed to the database: the selected statement
// when several were parsed, otherwise the source as typed so that a
// statement the parser rejected can still run unmodified.
func (s *Session) execText() (string, error) {
	if s.source == "" {
		return "", errNoStatement
	}
	if len(s.infos) > 1 {
		return s.infos[s.current].FullText(), nil
	}
	return s.source, nil
}

func (s *Session) requireConn() error {
	if s.conn == nil {
		return errors.New("not connected (use 'connect <dsn>' first)")
	}
	if s.conn.engine != s.engine {
		_, _ = fmt.Fprintf(s.out, "  Warning: connected to %s but engine is set to %s\n", s.conn.engine, s.engine)
	}
	return nil
}

// cmdExec runs the statement through the pager and prints one page.
func (s *Session) cmdExec(args string) error {
	if err := s.requireConn(); err != nil {
		return err
	}
	text, err := s.execText()
	if err != nil {
		return err
	}
	req, err := s.parsePage(args)
	if err != nil {
		return fmt.Errorf("exec: %w", err)
	}

	result, err := s.conn.page(context.Background(), s.pager, text, s.args, req)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprint(s.out, result)
	return nil
}

// cmdRaw runs the statement as typed, without paging.
func (s *Session) cmdRaw() error {
	if err := s.requireConn(); err != nil {
		return err
	}
	text, err := s.execText()
	if err != nil {
		return err
	}
	result, err := s.conn.raw(context.Background(), text, s.args)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprint(s.out, result)
	return nil
}

func (s *Session) cmdTables() error {
	if s.conn == nil {
		return errors.New("not connected (use 'connect <dsn>' first)")
	}
	if err := s.conn.loadSchema(); err != nil {
		return fmt.Errorf("tables: %w", err)
	}
	tables := s.conn.tables
	if len(tables) == 0 {
		_, _ = fmt.Fprintln(s.out, "  No tables")
		return nil
	}
	for _, name := range tables {
		_, _ = fmt.Fprintf(s.out, "  table: %s\n", name)
	}
	return nil
}

func (s *Session) cmdHelp() {
	_, _ = fmt.Fprintln(s.out, `
  Statements:
    parse <sql>               Parse one or more ';'-separated statements
    statements                List parsed statements
    use <n>                   Select statement n
    tokens                    Show tokens with fragment, elide flag and param index
    fragments                 Show fragment boundaries
    full                      Show the full statement text
    clean                     Show the text with elided tokens removed

  Paging:
    bind <v1>, <v2>, ...      Bind values to the statement's placeholders
    unbind                    Clear bound values
    page <limit> [offset]     Show the paged query
    count                     Show the count query
    rule <name> <on|off>      Toggle elision (order, limit, offset, items)
    rules                     Show the elision rule

  Database:
    engine <name>             Switch engine (postgres, mysql, sqlite)
    connect [dsn]             Connect to a database (no dsn: reconnect)
    disconnect                Close the connection
    tables                    List database tables
    exec [limit] [offset]     Run the statement one page at a time
    raw                       Run the statement unmodified

    help                      Show this help
    exit / quit               Leave the REPL`)
}
